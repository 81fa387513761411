package scoring

import (
	"fmt"
	"sort"
)

// MaxGridSlots bounds the grid Reconstruct allocates for one series: about 194 days at
// one-second resolution.
const MaxGridSlots = 1 << 24

// Reconstruct places labels on a uniform grid spanning [min ts, max ts] stepped by the
// smallest positive timestamp gap. Each label lands in slot (ts - ts0) / step; slots without a
// sample stay 0, and when several samples share a slot the latest in timestamp order wins.
// A grid longer than MaxGridSlots is rejected with ErrGridTooLarge.
func Reconstruct(ts []int64, labels []int8) ([]int8, error) {
	if len(ts) != len(labels) {
		return nil, fmt.Errorf("%w: %d timestamps, %d labels", ErrShapeMismatch, len(ts), len(labels))
	}
	if len(ts) == 0 {
		return []int8{}, nil
	}

	order := make([]int, len(ts))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return ts[order[a]] < ts[order[b]] })

	first, last := ts[order[0]], ts[order[len(order)-1]]
	var step int64
	for i := 1; i < len(order); i++ {
		d := ts[order[i]] - ts[order[i-1]]
		if d > 0 && (step == 0 || d < step) {
			step = d
		}
	}
	if step == 0 {
		return []int8{labels[order[len(order)-1]]}, nil
	}

	slots := (last-first)/step + 1
	if slots > MaxGridSlots {
		return nil, fmt.Errorf("%w: %d slots of %ds", ErrGridTooLarge, slots, step)
	}
	grid := make([]int8, slots)
	for _, i := range order {
		grid[(ts[i]-first)/step] = labels[i]
	}
	return grid, nil
}

// Adjust rewrites predictions segment by segment, where segments are maximal runs of equal
// true labels. An anomalous segment becomes all 1 when a prediction fires within the first
// delay+1 points of it, and all 0 otherwise. A normal segment becomes all 1 when any
// prediction inside it fires, and all 0 otherwise.
func Adjust(trueLabels, pred []int8, delay int) ([]int8, error) {
	if len(trueLabels) != len(pred) {
		return nil, fmt.Errorf("%w: %d true labels, %d predictions", ErrShapeMismatch, len(trueLabels), len(pred))
	}
	if delay < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDelay, delay)
	}

	n := len(trueLabels)
	adjusted := make([]int8, n)
	front := 0
	for rear := 1; rear <= n; rear++ {
		if rear < n && isPositive(trueLabels[rear]) == isPositive(trueLabels[front]) {
			continue
		}

		limit := rear
		if isPositive(trueLabels[front]) {
			limit = min(front+delay+1, rear)
		}
		var fill int8
		for _, p := range pred[front:limit] {
			if isPositive(p) {
				fill = 1
				break
			}
		}
		for i := front; i < rear; i++ {
			adjusted[i] = fill
		}
		front = rear
	}
	return adjusted, nil
}

func isPositive(label int8) bool { return label != 0 }
