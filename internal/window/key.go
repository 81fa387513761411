package window

type statKind uint8

const (
	kindMean statKind = iota
	kindStd
	kindCount
	kindLag
	kindRangeCount
	kindGradient
)

func (k statKind) String() string {
	switch k {
	case kindMean:
		return "mean"
	case kindStd:
		return "std"
	case kindCount:
		return "count"
	case kindLag:
		return "lag"
	case kindRangeCount:
		return "range_count"
	case kindGradient:
		return "gradient_histogram"
	default:
		return "unknown"
	}
}

// cacheKey identifies one running aggregate by its literal parameters.
// Fields a statistic does not use stay zero.
type cacheKey struct {
	kind   statKind
	window int64
	low    float64
	high   float64
	bins   int
}

// entry is the running state of one cached aggregate.
// The window it summarizes is the absolute index range [start, next).
type entry struct {
	start int64
	next  int64

	sum    float64
	sumSq  float64
	inside int64

	edges  []float64
	counts []int64
	pairs  int64
}

func (e *entry) size() int64 { return e.next - e.start }
