package window

import "fmt"

// Sample is a single (timestamp, value) observation. Timestamps are integer seconds.
type Sample struct {
	Timestamp int64
	Value     float64
}

// Buffer is an append-only deque over the samples of one series.
//
// The live view [front, rear) always holds the maximal suffix of pushed samples whose
// timestamp span does not exceed maxSpan. Evicted samples stay in the backing arrays until
// the next compaction, which copies the live suffix to the start of a fresh array.
//
// Every sample gets an absolute index (its push sequence number). Absolute indices survive
// compaction, which lets the Engine keep its own left pointers across it.
type Buffer struct {
	interval int64
	maxSpan  int64

	timestamps []int64
	values     []float64
	front      int
	rear       int

	base        int64 // absolute index of physical slot 0
	compactions int
}

// NewBuffer creates a buffer sized to hold two full spans at the minimum sampling interval.
func NewBuffer(interval, maxSpan int64) (*Buffer, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: interval %d must be positive", ErrInvalidWindow, interval)
	}
	if maxSpan < interval {
		return nil, fmt.Errorf("%w: max span %d is below interval %d", ErrInvalidWindow, maxSpan, interval)
	}

	capacity := int(2*(maxSpan/interval) + 1)
	return &Buffer{
		interval:   interval,
		maxSpan:    maxSpan,
		timestamps: make([]int64, capacity),
		values:     make([]float64, capacity),
	}, nil
}

// Push appends a sample and evicts everything older than maxSpan relative to it.
// Timestamps must be non-decreasing; an older timestamp is rejected without mutation.
func (b *Buffer) Push(ts int64, v float64) error {
	if b.rear > b.front && ts < b.timestamps[b.rear-1] {
		return fmt.Errorf("%w: got %d after %d", ErrOrdering, ts, b.timestamps[b.rear-1])
	}

	// The live suffix is never empty after the first push, so the check above always sees
	// the previous sample, even right after a compaction.
	b.Compact()

	b.timestamps[b.rear] = ts
	b.values[b.rear] = v
	for b.front < b.rear && ts-b.timestamps[b.front] > b.maxSpan {
		b.front++
	}
	b.rear++
	return nil
}

// Compact reallocates the backing arrays once rear has reached capacity, moving the live
// suffix to index 0. Capacity doubles when the live suffix would leave less than half of the
// new array free (duplicate timestamps or spacing below the configured interval).
// It is a no-op while the buffer still has room.
func (b *Buffer) Compact() {
	if !b.IsFull() {
		return
	}

	live := b.rear - b.front
	capacity := len(b.timestamps)
	for capacity-live < capacity/2 {
		capacity *= 2
	}

	timestamps := make([]int64, capacity)
	values := make([]float64, capacity)
	copy(timestamps, b.timestamps[b.front:b.rear])
	copy(values, b.values[b.front:b.rear])

	b.base += int64(b.front)
	b.timestamps, b.values = timestamps, values
	b.front, b.rear = 0, live
	b.compactions++
}

// IsFull reports whether the next push needs a compaction first.
func (b *Buffer) IsFull() bool { return b.rear >= len(b.timestamps) }

// Len is the number of live samples.
func (b *Buffer) Len() int { return b.rear - b.front }

// Cap is the current size of the backing arrays.
func (b *Buffer) Cap() int { return len(b.timestamps) }

func (b *Buffer) Interval() int64 { return b.interval }

func (b *Buffer) MaxSpan() int64 { return b.maxSpan }

// Pushed is the total number of samples ever pushed.
func (b *Buffer) Pushed() int64 { return b.base + int64(b.rear) }

// Compactions is the number of reallocations performed so far.
func (b *Buffer) Compactions() int { return b.compactions }

// Values returns the live values. The slice aliases internal storage and must not be modified.
func (b *Buffer) Values() []float64 { return b.values[b.front:b.rear:b.rear] }

// Timestamps returns the live timestamps. The slice aliases internal storage and must not be modified.
func (b *Buffer) Timestamps() []int64 { return b.timestamps[b.front:b.rear:b.rear] }

// Last returns the newest sample.
func (b *Buffer) Last() (Sample, bool) {
	if b.rear == b.front {
		return Sample{}, false
	}
	return Sample{Timestamp: b.timestamps[b.rear-1], Value: b.values[b.rear-1]}, true
}

func (b *Buffer) frontIndex() int64 { return b.base + int64(b.front) }

// retained reports whether the sample with absolute index abs is still in backing storage.
func (b *Buffer) retained(abs int64) bool {
	return abs >= b.base && abs < b.Pushed()
}

func (b *Buffer) at(abs int64) (int64, float64) {
	i := int(abs - b.base)
	return b.timestamps[i], b.values[i]
}
