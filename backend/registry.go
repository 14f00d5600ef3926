package backend

import (
	"fmt"

	"github.com/brodyxchen/vmci/errors"
)

// Registry maps a short name to a backend. It is read-only once built.
type Registry struct {
	backends []Backend
}

func NewRegistry(backends ...Backend) (*Registry, error) {
	seen := make(map[string]struct{}, len(backends))
	for _, be := range backends {
		name := be.ShortName()
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: %q", errors.ErrDuplicateBackend, name)
		}
		seen[name] = struct{}{}
	}

	list := make([]Backend, len(backends))
	copy(list, backends)
	return &Registry{backends: list}, nil
}

func MustNewRegistry(backends ...Backend) *Registry {
	r, err := NewRegistry(backends...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup is a case-sensitive exact match on the short name.
func (r *Registry) Lookup(shortName string) (Backend, error) {
	for _, be := range r.backends {
		if be.ShortName() == shortName {
			return be, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", errors.ErrNoSuchBackend, shortName)
}

func (r *Registry) Backends() []Backend {
	list := make([]Backend, len(r.backends))
	copy(list, r.backends)
	return list
}

var defaultRegistry = MustNewRegistry(NewVSock(), NewDummy())

// Default holds the vSocket and dummy backends.
func Default() *Registry {
	return defaultRegistry
}
