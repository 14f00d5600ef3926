package errors

import "errors"

var (
	ErrExceedBody    = errors.New("exceed body size")
	ErrInvalidHeader = errors.New("invalid header")
	ErrInvalidBody   = errors.New("invalid body")

	ErrServerClosed = errors.New("server closed")
)
