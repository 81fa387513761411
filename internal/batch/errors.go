package batch

import "errors"

var (
	ErrShapeMismatch = errors.New("timestamp and value arrays differ in length")
	ErrOrdering      = errors.New("timestamps must be non-decreasing")
	ErrInvalidWindow = errors.New("window size must not be negative")
	ErrEmptyCatalog  = errors.New("feature catalog is empty")
)
