package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"runtime"
	"time"

	"github.com/brodyxchen/vmci/log"
	"github.com/brodyxchen/vmci/socket"
)

type Conn struct {
	Name       string
	server     *Server
	remoteAddr string

	rwc       net.Conn
	bufReader *bufio.Reader
	bufWriter *bufio.Writer
}

func (c *Conn) Read(p []byte) (n int, err error) {
	return c.rwc.Read(p)
}

func (c *Conn) Write(p []byte) (n int, err error) {
	return c.rwc.Write(p)
}

// errorReply is what the host side sends back when a command fails.
func errorReply(err error) []byte {
	body, _ := json.Marshal(struct {
		Error string `json:"Error"`
	}{Error: err.Error()})
	return append(body, 0)
}

func (c *Conn) handleServe(ctx context.Context, body []byte) (rsp []byte) {
	defer func() {
		if err := recover(); err != nil {
			const size = 64 << 10
			buf := make([]byte, size)
			buf = buf[:runtime.Stack(buf, false)]
			log.Errorf("%v: panic serving %v: %v\n%s", c.Name, c.remoteAddr, err, buf)
			rsp = errorReply(fmt.Errorf("panic serving: %v", err))
		}
	}()

	rsp, err := c.server.handler()(ctx, body)
	if err != nil {
		log.Debugf("%v: handler err: %v", c.Name, err)
		return errorReply(err)
	}
	return rsp
}

// serve answers exactly one request and closes the connection.
func (c *Conn) serve(ctx context.Context) {
	defer c.server.trackConn(c, false)
	defer c.Close()

	c.remoteAddr = c.rwc.RemoteAddr().String()

	c.bufReader = getBufReader(c)
	defer putBufReader(c.bufReader)
	c.bufWriter = getBufWriter(c)
	defer putBufWriter(c.bufWriter)

	if d := c.server.ReadTimeout; d != 0 {
		_ = c.rwc.SetReadDeadline(time.Now().Add(d))
	}

	_, body, err := socket.ReadSocket(ctx, c.Name, c.bufReader, c.server.MaxRequestSize)
	if err != nil {
		log.Debugf("%v: read request from %v: %v", c.Name, c.remoteAddr, err)
		return
	}

	rsp := c.handleServe(ctx, body)

	if d := c.server.WriteTimeout; d != 0 {
		_ = c.rwc.SetWriteDeadline(time.Now().Add(d))
	}
	if err := socket.WriteSocket(ctx, c.bufWriter, rsp); err != nil {
		log.Debugf("%v: write reply to %v: %v", c.Name, c.remoteAddr, err)
	}
}

func (c *Conn) Close() {
	_ = c.rwc.Close()
}
