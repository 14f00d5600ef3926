// Package vmci sends a single JSON request to the command execution server
// on the hypervisor host over a VM socket and blocks for its JSON reply.
//
// Every call opens its own connection, exchanges exactly one framed request
// and reply, and closes the connection:
//
//	magic(uint32 LE) | length(uint32 LE) | payload[length]
//
// Failures carry an errno class that errors.Errno extracts: ENXIO for an
// unknown backend, EAFNOSUPPORT when the VM socket family is unavailable,
// EBADMSG for a reply with the wrong magic, and the transport's own errno
// for connect and I/O failures.
package vmci

import (
	"context"
	"strings"

	"github.com/brodyxchen/vmci/client"
	"github.com/brodyxchen/vmci/constant"
)

const (
	BackendVSocket = constant.BackendVSocket
	BackendDummy   = constant.BackendDummy
)

var defaultClient = client.NewClient(nil)

func NewClient(cfg *client.Config) *client.Client {
	return client.NewClient(cfg)
}

// GetReply sends jsonRequest to port on the hypervisor host through the
// named backend. The returned buffer belongs to the caller.
func GetReply(ctx context.Context, port uint32, jsonRequest string, backendName string) ([]byte, error) {
	return defaultClient.GetReply(ctx, port, jsonRequest, backendName)
}

// ReplyText returns a reply as text, dropping the terminator and anything after it.
func ReplyText(reply []byte) string {
	s := string(reply)
	if i := strings.IndexByte(s, 0); i >= 0 {
		return s[:i]
	}
	return s
}
