//go:build linux

package backend

import (
	"github.com/brodyxchen/vmci/errors"
	"github.com/brodyxchen/vmci/log"
	"golang.org/x/sys/unix"
)

// resolveFamily checks that the kernel offers AF_VSOCK by opening and
// closing a throwaway socket.
func resolveFamily() (int, error) {
	fd, err := unix.Socket(unix.AF_VSOCK, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		log.Errorf("vsock family probe failed: %v", err)
		return -1, errors.Wrap(errors.ErrAFNotSupported, err)
	}
	_ = unix.Close(fd)
	return unix.AF_VSOCK, nil
}
