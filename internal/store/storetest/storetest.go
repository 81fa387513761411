// Package storetest holds behaviour shared by every store backend's tests.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanspareilsmyn/kpilens/internal/store"
)

// Run exercises s as a fresh, empty store.
func Run(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()
	runID := store.NewRunID()

	t.Run("missing key", func(t *testing.T) {
		_, err := s.Load(ctx, store.FeaturesKey(runID))
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("round trip", func(t *testing.T) {
		blob := []byte{0x00, 0x01, 0xfe, 0xff}
		require.NoError(t, s.Save(ctx, store.FeaturesKey(runID), blob))

		got, err := s.Load(ctx, store.FeaturesKey(runID))
		require.NoError(t, err)
		assert.Equal(t, blob, got)

		_, err = s.Load(ctx, store.ReportKey(runID))
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("overwrite", func(t *testing.T) {
		key := store.ReportKey(runID)
		require.NoError(t, s.Save(ctx, key, []byte(`{"total_score":[0,0,0]}`)))
		require.NoError(t, s.Save(ctx, key, []byte(`{"total_score":[1,1,1]}`)))

		got, err := s.Load(ctx, key)
		require.NoError(t, err)
		assert.JSONEq(t, `{"total_score":[1,1,1]}`, string(got))
	})

	t.Run("returned blob is a copy", func(t *testing.T) {
		key := "copy/" + runID
		require.NoError(t, s.Save(ctx, key, []byte("abc")))

		got, err := s.Load(ctx, key)
		require.NoError(t, err)
		got[0] = 'x'

		again, err := s.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), again)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, s.Save(cctx, "cancelled", []byte("x")), context.Canceled)
	})
}
