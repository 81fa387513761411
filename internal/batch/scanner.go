package batch

import (
	"fmt"
	"math"
)

// Mean computes, for every index i, the mean of the values j <= i with ts[i]-ts[j] <= w in a
// single forward sweep.
func Mean(ts []int64, vals []float64, w int64) ([]float64, error) {
	if err := checkInput(ts, vals, w); err != nil {
		return nil, err
	}

	out := make([]float64, len(ts))
	var sum float64
	front := 0
	for rear := range ts {
		sum += vals[rear]
		for front < rear && ts[rear]-ts[front] > w {
			sum -= vals[front]
			front++
		}
		out[rear] = sum / float64(rear-front+1)
	}
	return out, nil
}

// Std computes the population standard deviation over the same windows as Mean using running
// sums, sqrt(E[x^2] - E[x]^2). Near-constant windows can round to a slightly negative
// variance and yield NaN.
func Std(ts []int64, vals []float64, w int64) ([]float64, error) {
	if err := checkInput(ts, vals, w); err != nil {
		return nil, err
	}

	out := make([]float64, len(ts))
	var sum, sumSq float64
	front := 0
	for rear := range ts {
		sum += vals[rear]
		sumSq += vals[rear] * vals[rear]
		for front < rear && ts[rear]-ts[front] > w {
			sum -= vals[front]
			sumSq -= vals[front] * vals[front]
			front++
		}
		n := float64(rear - front + 1)
		mean := sum / n
		out[rear] = math.Sqrt(sumSq/n - mean*mean)
	}
	return out, nil
}

// Shift returns, for every index i, the value of the earliest sample within lastSeconds of
// ts[i].
func Shift(ts []int64, vals []float64, lastSeconds int64) ([]float64, error) {
	if err := checkInput(ts, vals, lastSeconds); err != nil {
		return nil, err
	}

	out := make([]float64, len(ts))
	front := 0
	for rear := range ts {
		for front < rear && ts[rear]-ts[front] > lastSeconds {
			front++
		}
		out[rear] = vals[front]
	}
	return out, nil
}

// MinInterval is the smallest positive gap between consecutive sorted timestamps, or 0 when
// there is none.
func MinInterval(ts []int64) int64 {
	var best int64
	for i := 1; i < len(ts); i++ {
		d := ts[i] - ts[i-1]
		if d > 0 && (best == 0 || d < best) {
			best = d
		}
	}
	return best
}

func checkInput(ts []int64, vals []float64, w int64) error {
	if len(ts) != len(vals) {
		return fmt.Errorf("%w: %d timestamps, %d values", ErrShapeMismatch, len(ts), len(vals))
	}
	if w < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWindow, w)
	}
	for i := 1; i < len(ts); i++ {
		if ts[i] < ts[i-1] {
			return fmt.Errorf("%w: index %d (%d after %d)", ErrOrdering, i, ts[i], ts[i-1])
		}
	}
	return nil
}
