//go:build !linux

package backend

import "github.com/brodyxchen/vmci/errors"

func resolveFamily() (int, error) {
	return -1, errors.ErrAFNotSupported
}
