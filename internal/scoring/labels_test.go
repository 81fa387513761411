package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjust(t *testing.T) {
	tests := []struct {
		name  string
		truth []int8
		pred  []int8
		delay int
		want  []int8
	}{
		{
			name:  "detection inside delay fills the anomaly",
			truth: []int8{0, 0, 1, 1, 1, 0, 0},
			pred:  []int8{0, 0, 0, 1, 0, 0, 0},
			delay: 1,
			want:  []int8{0, 0, 1, 1, 1, 0, 0},
		},
		{
			name:  "detection after delay is a miss",
			truth: []int8{0, 0, 1, 1, 1, 0, 0},
			pred:  []int8{0, 0, 0, 0, 1, 0, 0},
			delay: 1,
			want:  []int8{0, 0, 0, 0, 0, 0, 0},
		},
		{
			name:  "zero delay only looks at the first point",
			truth: []int8{1, 1, 0},
			pred:  []int8{1, 0, 0},
			delay: 0,
			want:  []int8{1, 1, 0},
		},
		{
			name:  "false alarm fills the whole normal run",
			truth: []int8{0, 0, 0, 1, 1},
			pred:  []int8{0, 1, 0, 0, 0},
			delay: 7,
			want:  []int8{1, 1, 1, 0, 0},
		},
		{
			name:  "trailing anomaly runs to the end",
			truth: []int8{0, 1, 1, 1},
			pred:  []int8{0, 0, 0, 1},
			delay: 7,
			want:  []int8{0, 1, 1, 1},
		},
		{
			name:  "empty",
			truth: []int8{},
			pred:  []int8{},
			delay: 3,
			want:  []int8{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Adjust(tt.truth, tt.pred, tt.delay)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAdjust_Errors(t *testing.T) {
	_, err := Adjust([]int8{0, 1}, []int8{0}, 1)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = Adjust([]int8{0}, []int8{0}, -1)
	assert.ErrorIs(t, err, ErrInvalidDelay)
}

func TestReconstruct(t *testing.T) {
	t.Run("fills gaps with zeros", func(t *testing.T) {
		got, err := Reconstruct([]int64{0, 60, 240}, []int8{1, 0, 1})
		require.NoError(t, err)
		assert.Equal(t, []int8{1, 0, 0, 0, 1}, got)
	})

	t.Run("sorts by timestamp first", func(t *testing.T) {
		got, err := Reconstruct([]int64{120, 0, 60}, []int8{1, 0, 1})
		require.NoError(t, err)
		assert.Equal(t, []int8{0, 1, 1}, got)
	})

	t.Run("single sample", func(t *testing.T) {
		got, err := Reconstruct([]int64{500}, []int8{1})
		require.NoError(t, err)
		assert.Equal(t, []int8{1}, got)
	})

	t.Run("equal timestamps collapse to one slot", func(t *testing.T) {
		got, err := Reconstruct([]int64{7, 7, 7}, []int8{0, 1, 0})
		require.NoError(t, err)
		assert.Equal(t, []int8{0}, got)
	})

	t.Run("empty", func(t *testing.T) {
		got, err := Reconstruct(nil, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("shape mismatch", func(t *testing.T) {
		_, err := Reconstruct([]int64{1, 2}, []int8{0})
		assert.ErrorIs(t, err, ErrShapeMismatch)
	})

	t.Run("grid too large", func(t *testing.T) {
		// one 1s gap in a series spanning about a year
		_, err := Reconstruct([]int64{0, 1, 365 * 24 * 3600}, []int8{0, 1, 0})
		assert.ErrorIs(t, err, ErrGridTooLarge)
	})

	t.Run("grid at the limit", func(t *testing.T) {
		got, err := Reconstruct([]int64{0, 1, MaxGridSlots - 1}, []int8{1, 0, 1})
		require.NoError(t, err)
		require.Len(t, got, MaxGridSlots)
		assert.Equal(t, int8(1), got[MaxGridSlots-1])
	})
}
