package errors

import (
	"errors"
	"fmt"
	"io"
	"syscall"
)

func New(text string) error {
	return errors.New(text)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap keeps both classify and reason in the chain.
func Wrap(classify, reason error) error {
	return fmt.Errorf("%w | %w", classify, reason)
}

// Errno returns the errno-style failure code carried by err.
// Unclassified failures report EIO; a nil err reports 0.
func Errno(err error) syscall.Errno {
	if err == nil {
		return 0
	}

	var st *Status
	if errors.As(err, &st) {
		return st.errno
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return syscall.ECONNRESET
	}
	return syscall.EIO
}
