package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
)

// seriesAliases are header spellings accepted for the series ID column.
var seriesAliases = []string{"series_id", "kpi_id", "kpi id"}

// ReadCSV reads a headed CSV table. Recognized columns are series_id (or kpi_id / "KPI ID"),
// timestamp, value and label; other columns are ignored.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty input", ErrParse)
		}
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	pos := map[Column]int{}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		switch {
		case slices.Contains(seriesAliases, name):
			pos[ColSeriesID] = i
		case name == string(ColTimestamp):
			pos[ColTimestamp] = i
		case name == string(ColValue):
			pos[ColValue] = i
		case name == string(ColLabel):
			pos[ColLabel] = i
		}
	}

	t := &Table{}
	if _, ok := pos[ColSeriesID]; ok {
		t.SeriesID = []string{}
	}
	if _, ok := pos[ColTimestamp]; ok {
		t.Timestamp = []int64{}
	}
	if _, ok := pos[ColValue]; ok {
		t.Value = []float64{}
	}
	if _, ok := pos[ColLabel]; ok {
		t.Label = []int8{}
	}

	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrParse, line, err)
		}

		if i, ok := pos[ColSeriesID]; ok {
			t.SeriesID = append(t.SeriesID, NormalizeID(rec[i]))
		}
		if i, ok := pos[ColTimestamp]; ok {
			ts, err := parseTimestamp(rec[i])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: timestamp %q", ErrParse, line, rec[i])
			}
			t.Timestamp = append(t.Timestamp, ts)
		}
		if i, ok := pos[ColValue]; ok {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: value %q", ErrParse, line, rec[i])
			}
			t.Value = append(t.Value, v)
		}
		if i, ok := pos[ColLabel]; ok {
			l, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: label %q", ErrParse, line, rec[i])
			}
			t.Label = append(t.Label, toLabel(l))
		}
	}
	return t, nil
}

// WriteCSV writes the present columns of t with a header.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)

	var header []string
	for _, c := range []Column{ColSeriesID, ColTimestamp, ColValue, ColLabel} {
		if t.Has(c) {
			header = append(header, string(c))
		}
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	rec := make([]string, 0, len(header))
	for i := 0; i < t.Len(); i++ {
		rec = rec[:0]
		if t.Has(ColSeriesID) {
			rec = append(rec, t.SeriesID[i])
		}
		if t.Has(ColTimestamp) {
			rec = append(rec, strconv.FormatInt(t.Timestamp[i], 10))
		}
		if t.Has(ColValue) {
			rec = append(rec, formatFloat(t.Value[i]))
		}
		if t.Has(ColLabel) {
			rec = append(rec, strconv.Itoa(int(t.Label[i])))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFeaturesCSV writes series_id first, then every feature, then timestamp and label.
func WriteFeaturesCSV(w io.Writer, f *FeatureTable) error {
	cw := csv.NewWriter(w)

	header := append([]string{string(ColSeriesID)}, f.Names...)
	header = append(header, string(ColTimestamp))
	if f.Label != nil {
		header = append(header, string(ColLabel))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	rec := make([]string, len(header))
	for i := 0; i < f.Len(); i++ {
		rec[0] = f.SeriesID[i]
		for k, col := range f.Columns {
			rec[k+1] = formatFloat(col[i])
		}
		rec[len(f.Columns)+1] = strconv.FormatInt(f.Timestamp[i], 10)
		if f.Label != nil {
			rec[len(f.Columns)+2] = strconv.Itoa(int(f.Label[i]))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func parseTimestamp(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ts, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

// NormalizeID turns numeric IDs such as "1.0" into "1" so series written by different tools
// still match.
func NormalizeID(s string) string {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return strconv.FormatInt(int64(f), 10)
	}
	return s
}

func toLabel(v float64) int8 {
	if v != 0 {
		return 1
	}
	return 0
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
