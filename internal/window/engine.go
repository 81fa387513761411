package window

import (
	"fmt"
	"math"
)

// Engine computes window statistics over a Buffer incrementally.
//
// Every distinct request (statistic, window size, parameters) gets its own cached running
// aggregate. A call folds in the samples pushed since the previous call for that request and
// walks the aggregate's own left pointer past samples that no longer fit the window, so each
// sample is added and removed at most once per request.
//
// An Engine is not safe for concurrent use; one series is owned by one goroutine.
type Engine struct {
	buf    *Buffer
	cache  map[cacheKey]*entry
	misses int
}

func NewEngine(buf *Buffer) *Engine {
	return &Engine{
		buf:   buf,
		cache: make(map[cacheKey]*entry),
	}
}

// NewSeriesEngine creates a buffer and an engine over it in one step.
func NewSeriesEngine(interval, maxSpan int64) (*Engine, error) {
	buf, err := NewBuffer(interval, maxSpan)
	if err != nil {
		return nil, err
	}
	return NewEngine(buf), nil
}

// Push forwards to the underlying buffer.
func (e *Engine) Push(ts int64, v float64) error { return e.buf.Push(ts, v) }

func (e *Engine) Buffer() *Buffer { return e.buf }

// CacheSize is the number of distinct aggregates held.
func (e *Engine) CacheSize() int { return len(e.cache) }

// Misses counts aggregates built from scratch, either on first request or because the
// samples needed to shrink them were compacted away.
func (e *Engine) Misses() int { return e.misses }

func (e *Engine) checkWindow(w int64) error {
	if w < e.buf.interval || w > e.buf.maxSpan {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidWindow, w, e.buf.interval, e.buf.maxSpan)
	}
	return nil
}

// Mean is the average value over the newest samples spanning at most w seconds.
// It returns NaN while the buffer is empty.
func (e *Engine) Mean(w int64) (float64, error) {
	if err := e.checkWindow(w); err != nil {
		return 0, err
	}
	ent := e.advance(cacheKey{kind: kindMean, window: w}, e.addMoments, e.removeMoments)
	if ent == nil {
		return math.NaN(), nil
	}
	return ent.sum / float64(ent.size()), nil
}

// Std is the population standard deviation over the window, computed from the running sum
// and sum of squares. Rounding can make the variance slightly negative when the window values
// are (nearly) constant, in which case the result is NaN.
func (e *Engine) Std(w int64) (float64, error) {
	if err := e.checkWindow(w); err != nil {
		return 0, err
	}
	ent := e.advance(cacheKey{kind: kindStd, window: w}, e.addMoments, e.removeMoments)
	if ent == nil {
		return math.NaN(), nil
	}
	n := float64(ent.size())
	mean := ent.sum / n
	return math.Sqrt(ent.sumSq/n - mean*mean), nil
}

// Len is the number of samples in the window of size w.
func (e *Engine) Len(w int64) (int, error) {
	if err := e.checkWindow(w); err != nil {
		return 0, err
	}
	ent := e.advance(cacheKey{kind: kindCount, window: w}, nil, nil)
	if ent == nil {
		return 0, nil
	}
	return int(ent.size()), nil
}

// Shift returns the newest value, or NaN when w is larger than the number of live samples.
// The offset itself does not select an older sample; Lag does.
func (e *Engine) Shift(w int64) (float64, error) {
	if err := e.checkWindow(w); err != nil {
		return 0, err
	}
	last, ok := e.buf.Last()
	if !ok || w > int64(e.buf.Len()) {
		return math.NaN(), nil
	}
	return last.Value, nil
}

// Lag returns the value of the oldest sample within w seconds of the newest one.
func (e *Engine) Lag(w int64) (float64, error) {
	if err := e.checkWindow(w); err != nil {
		return 0, err
	}
	ent := e.advance(cacheKey{kind: kindLag, window: w}, nil, nil)
	if ent == nil {
		return math.NaN(), nil
	}
	_, v := e.buf.at(ent.start)
	return v, nil
}

// RangeCount is the fraction of window samples strictly between low and high.
func (e *Engine) RangeCount(w int64, low, high float64) (float64, error) {
	if math.IsNaN(low) || math.IsNaN(high) || low > high {
		return 0, fmt.Errorf("%w: low %v, high %v", ErrInvalidRange, low, high)
	}
	if err := e.checkWindow(w); err != nil {
		return 0, err
	}

	inside := func(v float64) bool { return v > low && v < high }
	add := func(ent *entry, abs int64) {
		if _, v := e.buf.at(abs); inside(v) {
			ent.inside++
		}
	}
	remove := func(ent *entry, abs int64) {
		if _, v := e.buf.at(abs); inside(v) {
			ent.inside--
		}
	}

	ent := e.advance(cacheKey{kind: kindRangeCount, window: w, low: low, high: high}, add, remove)
	if ent == nil {
		return math.NaN(), nil
	}
	return float64(ent.inside) / float64(ent.size()), nil
}

// GradientHistogram bins the slope angle of every consecutive sample pair in the window into
// bins equal-width buckets over [lowDeg, highDeg] and returns each bucket's share of the pairs.
// Time deltas are measured in sampling intervals. A window with fewer than two samples yields
// all zeros.
func (e *Engine) GradientHistogram(w int64, lowDeg, highDeg float64, bins int) ([]float64, error) {
	if bins <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBins, bins)
	}
	if math.IsNaN(lowDeg) || math.IsNaN(highDeg) || lowDeg < -90 || highDeg > 90 || lowDeg > highDeg {
		return nil, fmt.Errorf("%w: degrees [%v, %v]", ErrInvalidRange, lowDeg, highDeg)
	}
	if err := e.checkWindow(w); err != nil {
		return nil, err
	}

	interval := e.buf.interval
	// pair k is the segment (k-1, k); it belongs to the window while k-1 >= start.
	pairBin := func(ent *entry, k int64) int {
		t0, v0 := e.buf.at(k - 1)
		t1, v1 := e.buf.at(k)
		return binIndex(ent.edges, slopeDegrees(t0, v0, t1, v1, interval))
	}
	add := func(ent *entry, abs int64) {
		if abs-1 < ent.start {
			return
		}
		if i := pairBin(ent, abs); i >= 0 {
			ent.counts[i]++
		}
		ent.pairs++
	}
	remove := func(ent *entry, abs int64) {
		if abs+1 >= ent.next {
			return
		}
		if i := pairBin(ent, abs+1); i >= 0 {
			ent.counts[i]--
		}
		ent.pairs--
	}

	key := cacheKey{kind: kindGradient, window: w, low: lowDeg, high: highDeg, bins: bins}
	ent := e.advanceWith(key, func(ent *entry) {
		ent.edges = binEdges(lowDeg, highDeg, bins)
		ent.counts = make([]int64, bins)
	}, add, remove)

	hist := make([]float64, bins)
	if ent == nil || ent.pairs == 0 {
		return hist, nil
	}
	for i, c := range ent.counts {
		hist[i] = float64(c) / float64(ent.pairs)
	}
	return hist, nil
}

func (e *Engine) addMoments(ent *entry, abs int64) {
	_, v := e.buf.at(abs)
	ent.sum += v
	ent.sumSq += v * v
}

func (e *Engine) removeMoments(ent *entry, abs int64) {
	_, v := e.buf.at(abs)
	ent.sum -= v
	ent.sumSq -= v * v
}

func (e *Engine) advance(key cacheKey, add, remove func(*entry, int64)) *entry {
	return e.advanceWith(key, nil, add, remove)
}

// advanceWith brings the aggregate for key up to date with the buffer and returns it, or nil
// while the buffer is empty. On a miss the aggregate starts at the buffer's front.
func (e *Engine) advanceWith(key cacheKey, init func(*entry), add, remove func(*entry, int64)) *entry {
	end := e.buf.Pushed()
	if e.buf.Len() == 0 {
		return nil
	}

	ent, ok := e.cache[key]
	if ok && !e.buf.retained(ent.start) {
		ok = false
	}
	if !ok {
		front := e.buf.frontIndex()
		ent = &entry{start: front, next: front}
		if init != nil {
			init(ent)
		}
		e.cache[key] = ent
		e.misses++
	}

	for ; ent.next < end; ent.next++ {
		if add != nil {
			add(ent, ent.next)
		}
	}

	newest, _ := e.buf.at(end - 1)
	for ent.start < end-1 {
		ts, _ := e.buf.at(ent.start)
		if newest-ts <= key.window {
			break
		}
		if remove != nil {
			remove(ent, ent.start)
		}
		ent.start++
	}
	return ent
}
