package main

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanspareilsmyn/kpilens/internal/table"
)

func TestSimulate(t *testing.T) {
	samples := simulate(rand.New(rand.NewSource(7)), 3, 50, 1000, 60)
	require.Len(t, samples, 150)

	perSeries := map[string][]int64{}
	for i, s := range samples {
		if i > 0 {
			assert.GreaterOrEqual(t, s.Timestamp, samples[i-1].Timestamp)
		}
		assert.GreaterOrEqual(t, s.Value, 0.0)
		assert.Less(t, s.Value, 1.0)
		assert.Zero(t, (s.Timestamp-1000)%60)
		assert.Less(t, s.Timestamp, int64(1000+4*50*60))
		perSeries[s.SeriesID] = append(perSeries[s.SeriesID], s.Timestamp)
	}

	require.Len(t, perSeries, 3)
	for id, ts := range perSeries {
		require.Len(t, ts, 50, id)
		for i := 1; i < len(ts); i++ {
			assert.Greater(t, ts[i], ts[i-1], id)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	samples := simulate(rand.New(rand.NewSource(1)), 2, 10, 0, 20)
	path := filepath.Join(t.TempDir(), "samples.csv")
	require.NoError(t, writeCSV(path, samples))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	tbl, err := table.ReadCSV(f)
	require.NoError(t, err)
	assert.Equal(t, 20, tbl.Len())
	assert.False(t, tbl.Has(table.ColLabel))

	series, err := table.Partition(tbl)
	require.NoError(t, err)
	assert.Len(t, series, 2)
}
