package table

import (
	"fmt"
	"sort"
)

// Column names of the input table.
type Column string

const (
	ColSeriesID  Column = "series_id"
	ColTimestamp Column = "timestamp"
	ColValue     Column = "value"
	ColLabel     Column = "label"
)

// Table is a column-oriented table of KPI samples. A nil column is absent.
type Table struct {
	SeriesID  []string
	Timestamp []int64
	Value     []float64
	Label     []int8
}

// Series is the slice of a Table belonging to one series, sorted by timestamp.
type Series struct {
	ID        string
	Timestamp []int64
	Value     []float64
	Label     []int8
}

func (s *Series) Len() int { return len(s.Timestamp) }

// Has reports whether column c is present.
func (t *Table) Has(c Column) bool {
	switch c {
	case ColSeriesID:
		return t.SeriesID != nil
	case ColTimestamp:
		return t.Timestamp != nil
	case ColValue:
		return t.Value != nil
	case ColLabel:
		return t.Label != nil
	}
	return false
}

// Len is the row count, taken from the first present column.
func (t *Table) Len() int {
	switch {
	case t.SeriesID != nil:
		return len(t.SeriesID)
	case t.Timestamp != nil:
		return len(t.Timestamp)
	case t.Value != nil:
		return len(t.Value)
	default:
		return len(t.Label)
	}
}

// Require checks that every listed column is present and that all present columns have the
// same length.
func (t *Table) Require(cols ...Column) error {
	for _, c := range cols {
		if !t.Has(c) {
			return fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}

	n := t.Len()
	lengths := map[Column]int{
		ColSeriesID:  len(t.SeriesID),
		ColTimestamp: len(t.Timestamp),
		ColValue:     len(t.Value),
		ColLabel:     len(t.Label),
	}
	for c, l := range lengths {
		if t.Has(c) && l != n {
			return fmt.Errorf("%w: %s has %d rows, expected %d", ErrShapeMismatch, c, l, n)
		}
	}
	return nil
}

// Partition splits the table into series in order of first appearance. Rows of each series
// are stably sorted by timestamp.
func Partition(t *Table) ([]Series, error) {
	if err := t.Require(ColSeriesID, ColTimestamp); err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var rows [][]int
	var ids []string
	for i, id := range t.SeriesID {
		k, ok := index[id]
		if !ok {
			k = len(ids)
			index[id] = k
			ids = append(ids, id)
			rows = append(rows, nil)
		}
		rows[k] = append(rows[k], i)
	}

	out := make([]Series, len(ids))
	for k, id := range ids {
		r := rows[k]
		sort.SliceStable(r, func(a, b int) bool { return t.Timestamp[r[a]] < t.Timestamp[r[b]] })

		s := Series{ID: id, Timestamp: make([]int64, len(r))}
		if t.Has(ColValue) {
			s.Value = make([]float64, len(r))
		}
		if t.Has(ColLabel) {
			s.Label = make([]int8, len(r))
		}
		for j, i := range r {
			s.Timestamp[j] = t.Timestamp[i]
			if s.Value != nil {
				s.Value[j] = t.Value[i]
			}
			if s.Label != nil {
				s.Label[j] = t.Label[i]
			}
		}
		out[k] = s
	}
	return out, nil
}
