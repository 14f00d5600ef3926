package errors

import "errors"

var (
	ErrCtxReadDone  = errors.New("context read done")
	ErrCtxWriteDone = errors.New("context write done")

	ErrNotConnected = errors.New("handle is not connected")
	ErrClosed       = errors.New("handle is already closed")

	ErrDuplicateBackend = errors.New("duplicate backend short name")
)
