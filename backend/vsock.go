package backend

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brodyxchen/vmci/constant"
	"github.com/brodyxchen/vmci/errors"
	"github.com/brodyxchen/vmci/log"
	"github.com/brodyxchen/vmci/models"
	"github.com/brodyxchen/vmci/socket"
	"github.com/mdlayher/vsock"
)

type (
	// DialFunc connects a stream socket to contextID:port.
	DialFunc func(contextID, port uint32) (net.Conn, error)
	// FamilyFunc resolves the address family of the VM socket transport.
	FamilyFunc func() (int, error)
)

type VSockOption func(*VSock)

func WithDialer(dial DialFunc) VSockOption {
	return func(vs *VSock) { vs.dial = dial }
}

func WithFamilyResolver(resolve FamilyFunc) VSockOption {
	return func(vs *VSock) { vs.resolve = resolve }
}

// WithMaxReplySize bounds the reply payload; 0 leaves it unbounded.
func WithMaxReplySize(n uint32) VSockOption {
	return func(vs *VSock) { vs.maxReplySize = n }
}

// VSock talks to the command execution server over a VM socket.
// A handle goes unopened -> connected -> closed, with no retry or reconnect.
type VSock struct {
	dial         DialFunc
	resolve      FamilyFunc
	family       func() (int, error) // resolve, run at most once
	maxReplySize uint32

	WriteBufferSize int
	ReadBufferSize  int

	connIndex int64 // atomic visit
}

func NewVSock(opts ...VSockOption) *VSock {
	vs := &VSock{
		dial:         dialVSock,
		resolve:      resolveFamily,
		maxReplySize: constant.MaxReplySize,
	}
	for _, opt := range opts {
		opt(vs)
	}
	vs.family = sync.OnceValues(vs.resolve)
	return vs
}

func dialVSock(contextID, port uint32) (net.Conn, error) {
	conn, err := vsock.Dial(contextID, port, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (vs *VSock) ShortName() string { return constant.BackendVSocket }

func (vs *VSock) Name() string { return "vSocket Communication Backend v0.1" }

// Family returns the resolved address family. Calling it at startup moves
// the one-time resolution out of the first request.
func (vs *VSock) Family() (int, error) {
	return vs.family()
}

func (vs *VSock) Open(ctx context.Context, contextID, port uint32) (*Handle, error) {
	af, err := vs.family()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h := &Handle{
		Name:  atomic.AddInt64(&vs.connIndex, 1),
		Addr:  models.VSockAddr{Family: af, ContextId: contextID, Port: port},
		state: StateUnopened,
	}

	conn, err := vs.dial(contextID, port)
	if err != nil {
		log.Debugf("vsock[%v].open(): connect %v: %v", h.Name, h.Addr.String(), err)
		return nil, fmt.Errorf("vsock: connect %v: %w", h.Addr.GetAddr(), err)
	}

	h.conn = conn
	h.bufReader = bufio.NewReaderSize(conn, vs.readBufferSize())
	h.bufWriter = bufio.NewWriterSize(conn, vs.writeBufferSize())
	h.state = StateConnected

	log.Debugf("vsock[%v].open(): connected to %v", h.Name, h.Addr.String())
	return h, nil
}

// Exchange sends req and blocks for the reply. It leaves the handle
// connected whatever the outcome; the caller still has to Close it.
func (vs *VSock) Exchange(ctx context.Context, h *Handle, req *models.Request) ([]byte, error) {
	if !h.connected() {
		return nil, errors.ErrNotConnected
	}
	if int(req.Length) != len(req.Payload) {
		return nil, errors.ErrInvalidBody
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := h.conn.SetDeadline(deadline); err != nil {
			return nil, err
		}
		defer func() {
			_ = h.conn.SetDeadline(time.Time{})
		}()
	}

	if err := socket.WriteSocket(ctx, h.bufWriter, req.Payload); err != nil {
		log.Errorf("vsock[%v].exchange(): send %v bytes: %v", h.Name, req.Length, err)
		return nil, err
	}

	// Now get the reply (blocking, wait on host-side execution).
	key := "vsock-" + strconv.FormatInt(h.Name, 10)
	_, body, err := socket.ReadSocket(ctx, key, h.bufReader, vs.maxReplySize)
	if err != nil {
		return nil, err
	}

	return body, nil
}

func (vs *VSock) Close(h *Handle) error {
	if h == nil || h.state == StateClosed {
		return errors.ErrClosed
	}
	h.state = StateClosed
	if h.conn == nil {
		return nil
	}

	log.Debugf("vsock[%v].close(): released %v", h.Name, h.Addr.String())
	return h.conn.Close()
}

func (vs *VSock) writeBufferSize() int {
	if vs.WriteBufferSize > 0 {
		return vs.WriteBufferSize
	}
	return constant.MaxWriteBufferSize
}

func (vs *VSock) readBufferSize() int {
	if vs.ReadBufferSize > 0 {
		return vs.ReadBufferSize
	}
	return constant.MaxReadBufferSize
}
