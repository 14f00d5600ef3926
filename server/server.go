// Package server is a reference command execution peer: it answers one
// framed request per connection, the way the host side does.
package server

import (
	"context"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brodyxchen/vmci/constant"
	"github.com/brodyxchen/vmci/errors"
	"github.com/brodyxchen/vmci/log"
	"github.com/brodyxchen/vmci/models"
	"github.com/mdlayher/vsock"
)

// HandleFunc turns one request payload into one reply payload. The request
// still carries its trailing NUL.
type HandleFunc func(ctx context.Context, req []byte) ([]byte, error)

// EchoHandler replies with the request verbatim.
func EchoHandler(ctx context.Context, req []byte) ([]byte, error) {
	return req, nil
}

type Server struct {
	Addr    models.Addr
	Handler HandleFunc

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// MaxRequestSize bounds the request payload, terminator included.
	MaxRequestSize uint32

	mu         sync.Mutex
	listeners  map[net.Listener]struct{}
	activeConn map[*Conn]struct{}
	connWg     sync.WaitGroup
	inShutdown atomic.Bool

	connIndex int64 // atomic visit
}

func NewServer(addr models.Addr, handler HandleFunc) *Server {
	return &Server{
		Addr:           addr,
		Handler:        handler,
		MaxRequestSize: constant.MaxRequestSize + 1,
	}
}

func (srv *Server) getConnIndex() int64 {
	return atomic.AddInt64(&srv.connIndex, 1)
}

func (srv *Server) ListenAndServe() error {
	if srv.shuttingDown() {
		return errors.ErrServerClosed
	}

	var (
		ln  net.Listener
		err error
	)

	switch adr := srv.Addr.(type) {
	case *models.VSockAddr:
		ln, err = vsock.ListenContextID(adr.ContextId, adr.Port, nil)
	case *models.TCPAddr:
		ln, err = net.Listen("tcp", adr.GetAddr())
	default:
		return errors.New("server: unsupported address")
	}

	if err != nil {
		return err
	}

	return srv.Serve(ln)
}

// Serve accepts connections on l until Close. It always returns a non-nil error.
func (srv *Server) Serve(l net.Listener) error {
	if !srv.trackListener(l, true) {
		_ = l.Close()
		return errors.ErrServerClosed
	}
	defer srv.trackListener(l, false)

	log.Debugf("srv.Serve(%v)...", l.Addr())
	ctx := context.Background()

	var tempDelay time.Duration // how long to sleep on accept failure

	for {
		rw, err := l.Accept()
		if err != nil {
			if srv.shuttingDown() {
				return errors.ErrServerClosed
			}
			if ne, ok := err.(net.Error); ok && ne.Temporary() {
				tempDelay = srv.sleep(tempDelay)
				continue
			}
			return err
		}
		tempDelay = 0

		c := srv.newConn(rw)
		if !srv.trackConn(c, true) {
			_ = rw.Close()
			return errors.ErrServerClosed
		}
		go c.serve(ctx)
	}
}

// Close stops every listener, drops open connections and waits for their
// goroutines to finish.
func (srv *Server) Close() error {
	srv.inShutdown.Store(true)

	srv.mu.Lock()
	var err error
	for ln := range srv.listeners {
		if cerr := ln.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	for c := range srv.activeConn {
		_ = c.rwc.Close()
	}
	srv.mu.Unlock()

	srv.connWg.Wait()
	return err
}

// Create new connection from rwc.
func (srv *Server) newConn(rwc net.Conn) *Conn {
	return &Conn{
		Name:   "srv-" + strconv.FormatInt(srv.getConnIndex(), 10),
		server: srv,
		rwc:    rwc,
	}
}

func (srv *Server) trackListener(ln net.Listener, add bool) bool {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.listeners == nil {
		srv.listeners = make(map[net.Listener]struct{})
	}
	if add {
		if srv.shuttingDown() {
			return false
		}
		srv.listeners[ln] = struct{}{}
	} else {
		delete(srv.listeners, ln)
	}
	return true
}

func (srv *Server) trackConn(c *Conn, add bool) bool {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.activeConn == nil {
		srv.activeConn = make(map[*Conn]struct{})
	}
	if add {
		if srv.shuttingDown() {
			return false
		}
		srv.activeConn[c] = struct{}{}
		srv.connWg.Add(1)
	} else {
		delete(srv.activeConn, c)
		srv.connWg.Done()
	}
	return true
}

func (srv *Server) shuttingDown() bool {
	return srv.inShutdown.Load()
}

func (srv *Server) handler() HandleFunc {
	if srv.Handler != nil {
		return srv.Handler
	}
	return EchoHandler
}

func (srv *Server) sleep(tempDelay time.Duration) time.Duration {
	if tempDelay == 0 {
		tempDelay = 5 * time.Millisecond
	} else {
		tempDelay *= 2
	}
	if max := 1 * time.Second; tempDelay > max {
		tempDelay = max
	}
	time.Sleep(tempDelay)
	return tempDelay
}
