package table

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"slices"
)

// FeatureTable holds one row per input sample: the series ID, one value per named feature,
// the timestamp and, when the input was labeled, the label.
type FeatureTable struct {
	Names     []string
	SeriesID  []string
	Columns   [][]float64 // Columns[k][i] is feature Names[k] of row i
	Timestamp []int64
	Label     []int8
}

func (f *FeatureTable) Len() int { return len(f.Timestamp) }

// Row returns the feature vector of row i.
func (f *FeatureTable) Row(i int) []float64 {
	row := make([]float64, len(f.Columns))
	for k, col := range f.Columns {
		row[k] = col[i]
	}
	return row
}

// Concat appends tables with identical feature names, in order.
func Concat(tables []*FeatureTable) (*FeatureTable, error) {
	if len(tables) == 0 {
		return &FeatureTable{}, nil
	}

	first := tables[0]
	out := &FeatureTable{
		Names:   slices.Clone(first.Names),
		Columns: make([][]float64, len(first.Names)),
	}
	labeled := first.Label != nil
	if labeled {
		out.Label = []int8{}
	}

	for _, ft := range tables {
		if !slices.Equal(ft.Names, first.Names) {
			return nil, fmt.Errorf("%w: feature names differ between tables", ErrShapeMismatch)
		}
		if (ft.Label != nil) != labeled {
			return nil, fmt.Errorf("%w: label column present in some tables only", ErrShapeMismatch)
		}
		out.SeriesID = append(out.SeriesID, ft.SeriesID...)
		out.Timestamp = append(out.Timestamp, ft.Timestamp...)
		out.Label = append(out.Label, ft.Label...)
		for k := range ft.Columns {
			out.Columns[k] = append(out.Columns[k], ft.Columns[k]...)
		}
	}
	return out, nil
}

// Encode serializes the table into a blob. gob keeps NaN feature values intact.
func (f *FeatureTable) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return buf.Bytes(), nil
}

// DecodeFeatures is the inverse of Encode.
func DecodeFeatures(blob []byte) (*FeatureTable, error) {
	var f FeatureTable
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return &f, nil
}
