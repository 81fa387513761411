package window

import (
	"math"
	"sort"
)

// binEdges returns bins+1 evenly spaced edges over [low, high].
func binEdges(low, high float64, bins int) []float64 {
	edges := make([]float64, bins+1)
	step := (high - low) / float64(bins)
	for i := range edges {
		edges[i] = low + float64(i)*step
	}
	edges[bins] = high
	return edges
}

// binIndex places deg into a right-open bin [edges[i], edges[i+1]); the top bin also holds
// edges[bins]. Degrees outside the edges return -1.
func binIndex(edges []float64, deg float64) int {
	bins := len(edges) - 1
	if deg < edges[0] || deg > edges[bins] {
		return -1
	}
	i := sort.Search(len(edges), func(j int) bool { return edges[j] > deg }) - 1
	if i >= bins {
		i = bins - 1
	}
	return i
}

// slopeDegrees is the angle of the segment between two samples with time measured in
// sampling intervals. A zero time delta maps to 0 degrees.
func slopeDegrees(t0 int64, v0 float64, t1 int64, v1 float64, interval int64) float64 {
	dx := float64(t1-t0) / float64(interval)
	if dx == 0 {
		return 0
	}
	return math.Atan((v1-v0)/dx) * 180 / math.Pi
}
