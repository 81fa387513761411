package message

import "errors"

var (
	ErrJSONUnmarshalFailed = errors.New("failed to unmarshal JSON message")
	ErrMissingField        = errors.New("required field missing or null")
	ErrInvalidField        = errors.New("field has an unusable type or value")
)
