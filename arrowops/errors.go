package arrowops

import "errors"

var (
	ErrColumnNotFound      = errors.New("column not found")
	ErrUnsupportedDataType = errors.New("unsupported data type")
	ErrIndexOutOfBounds    = errors.New("index out of bounds")
)
