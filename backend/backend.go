// Package backend holds the transports a request can be sent over and the
// registry that selects one by name.
package backend

import (
	"bufio"
	"context"
	"net"

	"github.com/brodyxchen/vmci/models"
)

// Backend opens a per-call connection, runs one exchange on it and releases it.
// Every handle returned by Open must be passed to Close exactly once.
type Backend interface {
	// ShortName is the registry key.
	ShortName() string
	// Name is the human readable description.
	Name() string

	Open(ctx context.Context, contextID, port uint32) (*Handle, error)
	Exchange(ctx context.Context, h *Handle, req *models.Request) ([]byte, error)
	Close(h *Handle) error
}

type State int32

const (
	StateUnopened State = iota
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Handle is one call's connection. It is never shared across calls.
type Handle struct {
	Name int64
	Addr models.VSockAddr // held here for bookkeeping and reporting

	conn      net.Conn
	bufReader *bufio.Reader // from conn
	bufWriter *bufio.Writer // to conn

	state State
}

func (h *Handle) State() State {
	return h.state
}

func (h *Handle) connected() bool {
	return h != nil && h.state == StateConnected
}
