package backend

import (
	"context"
	"sync/atomic"

	"github.com/brodyxchen/vmci/constant"
	"github.com/brodyxchen/vmci/errors"
	"github.com/brodyxchen/vmci/log"
	"github.com/brodyxchen/vmci/models"
)

// Dummy never touches a socket and answers every request with
// constant.DummyReply. It is used to check that data arrives at a backend.
type Dummy struct {
	connIndex int64 // atomic visit
}

func NewDummy() *Dummy {
	return &Dummy{}
}

func (d *Dummy) ShortName() string { return constant.BackendDummy }

func (d *Dummy) Name() string { return "Dummy Communication Backend" }

func (d *Dummy) Open(ctx context.Context, contextID, port uint32) (*Handle, error) {
	h := &Handle{
		Name:  atomic.AddInt64(&d.connIndex, 1),
		Addr:  models.VSockAddr{ContextId: contextID, Port: port},
		state: StateConnected,
	}
	log.Debugf("dummy[%v].open(): connected to %v", h.Name, h.Addr.GetAddr())
	return h, nil
}

func (d *Dummy) Exchange(ctx context.Context, h *Handle, req *models.Request) ([]byte, error) {
	if !h.connected() {
		return nil, errors.ErrNotConnected
	}
	log.Debugf("dummy[%v].exchange(): got request %s", h.Name, req.Text())
	log.Debugf("dummy[%v].exchange(): replying %q", h.Name, constant.DummyReply)
	return []byte(constant.DummyReply), nil
}

func (d *Dummy) Close(h *Handle) error {
	if h == nil || h.state == StateClosed {
		return errors.ErrClosed
	}
	h.state = StateClosed
	log.Debugf("dummy[%v].close(): released", h.Name)
	return nil
}
