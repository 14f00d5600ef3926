package client

import (
	"context"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/brodyxchen/vmci/backend"
	"github.com/brodyxchen/vmci/constant"
	"github.com/brodyxchen/vmci/errors"
	"github.com/brodyxchen/vmci/models"
	"github.com/brodyxchen/vmci/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	opens, closes int32

	openErr     error
	exchangeErr error
	reply       []byte

	lastReq       *models.Request
	lastContextID uint32
	lastPort      uint32
}

func (fb *fakeBackend) ShortName() string { return "fake" }

func (fb *fakeBackend) Name() string { return "Fake Backend" }

func (fb *fakeBackend) Open(ctx context.Context, contextID, port uint32) (*backend.Handle, error) {
	n := atomic.AddInt32(&fb.opens, 1)
	if fb.openErr != nil {
		return nil, fb.openErr
	}
	fb.lastContextID, fb.lastPort = contextID, port
	return &backend.Handle{Name: int64(n)}, nil
}

func (fb *fakeBackend) Exchange(ctx context.Context, h *backend.Handle, req *models.Request) ([]byte, error) {
	fb.lastReq = req
	if fb.exchangeErr != nil {
		return nil, fb.exchangeErr
	}
	return fb.reply, nil
}

func (fb *fakeBackend) Close(h *backend.Handle) error {
	atomic.AddInt32(&fb.closes, 1)
	return nil
}

func fakeClient(fb *fakeBackend) *Client {
	return NewClient(&Config{Registry: backend.MustNewRegistry(fb)})
}

func tcpClient(cfg Config) *Client {
	vs := backend.NewVSock(
		backend.WithDialer(func(contextID, port uint32) (net.Conn, error) {
			return net.Dial("tcp", "127.0.0.1:"+strconv.FormatUint(uint64(port), 10))
		}),
		backend.WithFamilyResolver(func() (int, error) { return 40, nil }),
	)
	cfg.Registry = backend.MustNewRegistry(vs)
	return NewClient(&cfg)
}

func launchEchoServer(t *testing.T) uint32 {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := server.NewServer(&models.TCPAddr{IP: "127.0.0.1"}, server.EchoHandler)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ln)
	}()
	t.Cleanup(func() {
		_ = srv.Close()
		<-done
	})
	return uint32(ln.Addr().(*net.TCPAddr).Port)
}

func TestGetReplyDummy(t *testing.T) {
	reply, err := NewClient(nil).GetReply(context.Background(), 1234, `{"cmd":"list"}`, constant.BackendDummy)
	require.NoError(t, err)
	assert.Equal(t, constant.DummyReply, string(reply))
}

func TestGetReplyDummyAnyPayload(t *testing.T) {
	cli := NewClient(nil)
	for _, text := range []string{"{}", `{"cmd":"get","details":{"Name":"v"}}`, strings.Repeat("x", constant.MaxRequestSize+10)} {
		reply, err := cli.GetReply(context.Background(), 1019, text, constant.BackendDummy)
		require.NoError(t, err)
		assert.Equal(t, constant.DummyReply, string(reply))
	}
}

func TestGetReplyNoSuchBackend(t *testing.T) {
	reply, err := NewClient(nil).GetReply(context.Background(), 1234, `{"cmd":"list"}`, "nosuchbackend")
	assert.Nil(t, reply)
	assert.ErrorIs(t, err, errors.ErrNoSuchBackend)
	assert.Equal(t, syscall.ENXIO, errors.Errno(err))
}

func TestGetReplyRequestShape(t *testing.T) {
	fb := &fakeBackend{reply: []byte("ok")}

	reply, err := fakeClient(fb).GetReply(context.Background(), 1019, `{"cmd":"list"}`, "fake")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(reply))

	assert.Equal(t, constant.HostContextID, fb.lastContextID)
	assert.Equal(t, uint32(1019), fb.lastPort)
	assert.Equal(t, uint32(len(`{"cmd":"list"}`)+1), fb.lastReq.Length)
	assert.Equal(t, "{\"cmd\":\"list\"}\x00", string(fb.lastReq.Payload))
	assert.Equal(t, int32(1), fb.opens)
	assert.Equal(t, int32(1), fb.closes)
}

func TestGetReplyTruncatesAtBound(t *testing.T) {
	fb := &fakeBackend{reply: []byte("ok")}

	_, err := fakeClient(fb).GetReply(context.Background(), 1019, strings.Repeat("a", constant.MaxRequestSize+4096), "fake")
	require.NoError(t, err)
	assert.Len(t, fb.lastReq.Text(), constant.MaxRequestSize)
	assert.Equal(t, uint32(constant.MaxRequestSize+1), fb.lastReq.Length)

	_, err = fakeClient(fb).GetReply(context.Background(), 1019, strings.Repeat("b", constant.MaxRequestSize), "fake")
	require.NoError(t, err)
	assert.Len(t, fb.lastReq.Text(), constant.MaxRequestSize)
}

func TestGetReplyClosesAfterExchangeFailure(t *testing.T) {
	fb := &fakeBackend{exchangeErr: errors.ErrBadMessage}

	reply, err := fakeClient(fb).GetReply(context.Background(), 1019, `{}`, "fake")
	assert.Nil(t, reply)
	assert.ErrorIs(t, err, errors.ErrBadMessage)
	assert.Equal(t, int32(1), fb.opens)
	assert.Equal(t, int32(1), fb.closes)
}

func TestGetReplySkipsCloseAfterOpenFailure(t *testing.T) {
	fb := &fakeBackend{openErr: errors.ErrAFNotSupported}

	reply, err := fakeClient(fb).GetReply(context.Background(), 1019, `{}`, "fake")
	assert.Nil(t, reply)
	assert.ErrorIs(t, err, errors.ErrAFNotSupported)
	assert.Equal(t, int32(0), fb.closes)
}

func TestGetReplyOverSocket(t *testing.T) {
	port := launchEchoServer(t)
	cli := tcpClient(Config{})

	reply, err := cli.GetReply(context.Background(), port, `{"cmd":"list"}`, constant.BackendVSocket)
	require.NoError(t, err)
	assert.Equal(t, "{\"cmd\":\"list\"}\x00", string(reply))
}

func TestGetReplyOverSocketTruncates(t *testing.T) {
	port := launchEchoServer(t)
	cli := tcpClient(Config{MaxRequestSize: 16})

	reply, err := cli.GetReply(context.Background(), port, strings.Repeat("c", 64), constant.BackendVSocket)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("c", 16)+"\x00", string(reply))
}

func TestGetReplyConcurrent(t *testing.T) {
	port := launchEchoServer(t)
	cli := tcpClient(Config{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text := `{"n":` + strconv.Itoa(i) + `}`
			reply, err := cli.GetReply(context.Background(), port, text, constant.BackendVSocket)
			assert.NoError(t, err)
			assert.Equal(t, text+"\x00", string(reply))
		}(i)
	}
	wg.Wait()
}

func TestGetReplyConnectRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := uint32(ln.Addr().(*net.TCPAddr).Port)
	require.NoError(t, ln.Close())

	reply, err := tcpClient(Config{}).GetReply(context.Background(), port, `{}`, constant.BackendVSocket)
	assert.Nil(t, reply)
	assert.ErrorIs(t, err, syscall.ECONNREFUSED)
	assert.Equal(t, syscall.ECONNREFUSED, errors.Errno(err))
}

func TestGetReplyTimeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = io.Copy(io.Discard, conn)
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		<-done
	})

	cli := tcpClient(Config{Timeout: 50 * time.Millisecond})
	port := uint32(ln.Addr().(*net.TCPAddr).Port)

	reply, err := cli.GetReply(context.Background(), port, `{}`, constant.BackendVSocket)
	assert.Nil(t, reply)
	assert.ErrorIs(t, err, os.ErrDeadlineExceeded)
}

func TestConfigDefaults(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, constant.HostContextID, cfg.GetContextID())
	assert.Equal(t, constant.MaxRequestSize, cfg.GetMaxRequestSize())
	assert.Equal(t, time.Duration(0), cfg.GetTimeout())
	assert.Same(t, backend.Default(), cfg.GetRegistry())

	cfg = &Config{ContextID: 3, MaxRequestSize: 10, Timeout: time.Second}
	assert.Equal(t, uint32(3), cfg.GetContextID())
	assert.Equal(t, 10, cfg.GetMaxRequestSize())
	assert.Equal(t, time.Second, cfg.GetTimeout())
}
