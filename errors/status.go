package errors

import "syscall"

// Status is a failure with an errno-style code attached.
type Status struct {
	errno   syscall.Errno
	message string
}

func NewStatus(errno syscall.Errno, message string) *Status {
	return &Status{errno: errno, message: message}
}

func (st *Status) Error() string {
	return st.message
}

func (st *Status) Errno() syscall.Errno {
	return st.errno
}

// Unwrap lets errors.Is(err, syscall.EXXX) match a Status.
func (st *Status) Unwrap() error {
	return st.errno
}

var (
	ErrNoSuchBackend  = NewStatus(syscall.ENXIO, "no such backend")
	ErrAFNotSupported = NewStatus(syscall.EAFNOSUPPORT, "vsock address family not supported")
	ErrBadMessage     = NewStatus(syscall.EBADMSG, "bad message: wrong magic")
)
