package window

import "errors"

var (
	ErrInvalidWindow = errors.New("window size out of range")
	ErrInvalidRange  = errors.New("invalid value range")
	ErrInvalidBins   = errors.New("bin count must be positive")
	ErrOrdering      = errors.New("timestamps must be non-decreasing")
)
