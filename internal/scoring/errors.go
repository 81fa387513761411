package scoring

import "errors"

var (
	ErrShapeMismatch = errors.New("label arrays differ in shape")
	ErrInvalidDelay  = errors.New("delay must not be negative")
	ErrGridTooLarge  = errors.New("label grid exceeds slot limit")
)
