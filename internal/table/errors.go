package table

import "errors"

var (
	ErrMissingColumn = errors.New("required column missing")
	ErrShapeMismatch = errors.New("column lengths differ")
	ErrParse         = errors.New("failed to parse table")
	ErrEncode        = errors.New("failed to encode feature table")
	ErrDecode        = errors.New("failed to decode feature table")
)
