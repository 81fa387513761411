package table

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequire(t *testing.T) {
	tbl := &Table{
		SeriesID:  []string{"a", "b"},
		Timestamp: []int64{1, 2},
	}
	assert.NoError(t, tbl.Require(ColSeriesID, ColTimestamp))

	err := tbl.Require(ColSeriesID, ColLabel)
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.Contains(t, err.Error(), "label")

	tbl.Value = []float64{1}
	assert.True(t, errors.Is(tbl.Require(ColSeriesID), ErrShapeMismatch))
}

func TestPartition_FirstSeenOrderAndSorted(t *testing.T) {
	tbl := &Table{
		SeriesID:  []string{"b", "a", "b", "a", "b"},
		Timestamp: []int64{30, 20, 10, 10, 20},
		Value:     []float64{3, 2, 1, 1, 2},
		Label:     []int8{1, 0, 0, 0, 1},
	}

	series, err := Partition(tbl)
	require.NoError(t, err)
	require.Len(t, series, 2)

	assert.Equal(t, "b", series[0].ID)
	assert.Equal(t, []int64{10, 20, 30}, series[0].Timestamp)
	assert.Equal(t, []float64{1, 2, 3}, series[0].Value)
	assert.Equal(t, []int8{0, 1, 1}, series[0].Label)

	assert.Equal(t, "a", series[1].ID)
	assert.Equal(t, []int64{10, 20}, series[1].Timestamp)
}

func TestPartition_MissingColumn(t *testing.T) {
	_, err := Partition(&Table{Timestamp: []int64{1}})
	assert.True(t, errors.Is(err, ErrMissingColumn))
}

func TestReadCSV(t *testing.T) {
	input := "KPI ID,timestamp,value,label,extra\n" +
		"1.0,1500000000,0.5,0,x\n" +
		"1.0,1500000060,0.75,1.0,y\n" +
		"abc,1500000000,1e-3,0,z\n"

	tbl, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "1", "abc"}, tbl.SeriesID)
	assert.Equal(t, []int64{1500000000, 1500000060, 1500000000}, tbl.Timestamp)
	assert.Equal(t, []float64{0.5, 0.75, 0.001}, tbl.Value)
	assert.Equal(t, []int8{0, 1, 0}, tbl.Label)
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.True(t, errors.Is(err, ErrParse))

	_, err = ReadCSV(strings.NewReader("series_id,timestamp\na,notanumber\n"))
	assert.True(t, errors.Is(err, ErrParse))

	tbl, err := ReadCSV(strings.NewReader("timestamp,value\n1,2\n"))
	require.NoError(t, err)
	assert.False(t, tbl.Has(ColSeriesID))
	assert.False(t, tbl.Has(ColLabel))
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	tbl := &Table{
		SeriesID:  []string{"a", "b"},
		Timestamp: []int64{10, 20},
		Label:     []int8{1, 0},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tbl))
	assert.Equal(t, "series_id,timestamp,label\na,10,1\nb,20,0\n", buf.String())

	back, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, tbl, back)
}

func TestWriteFeaturesCSV_ColumnOrder(t *testing.T) {
	ft := &FeatureTable{
		Names:     []string{"window_mean_last_1", "shift_last_0"},
		SeriesID:  []string{"k", "k"},
		Columns:   [][]float64{{1.5, math.NaN()}, {1, 2}},
		Timestamp: []int64{0, 60},
		Label:     []int8{0, 1},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteFeaturesCSV(&buf, ft))
	assert.Equal(t,
		"series_id,window_mean_last_1,shift_last_0,timestamp,label\n"+
			"k,1.5,1,0,0\n"+
			"k,NaN,2,60,1\n",
		buf.String())
}

func TestFeatureTable_ConcatAndEncode(t *testing.T) {
	a := &FeatureTable{
		Names:     []string{"f"},
		SeriesID:  []string{"a"},
		Columns:   [][]float64{{math.NaN()}},
		Timestamp: []int64{1},
	}
	b := &FeatureTable{
		Names:     []string{"f"},
		SeriesID:  []string{"b", "b"},
		Columns:   [][]float64{{2, 3}},
		Timestamp: []int64{1, 2},
	}

	all, err := Concat([]*FeatureTable{a, b})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Len())
	assert.Equal(t, []string{"a", "b", "b"}, all.SeriesID)
	assert.Equal(t, []float64{3}, all.Row(2))
	assert.Nil(t, all.Label)

	blob, err := all.Encode()
	require.NoError(t, err)
	back, err := DecodeFeatures(blob)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(back.Columns[0][0]))
	assert.Equal(t, all.Columns[0][1:], back.Columns[0][1:])
	assert.Equal(t, all.Names, back.Names)

	_, err = Concat([]*FeatureTable{a, {Names: []string{"g"}}})
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}
