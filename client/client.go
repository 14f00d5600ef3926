package client

import (
	"context"

	"github.com/brodyxchen/vmci/backend"
	"github.com/brodyxchen/vmci/log"
	"github.com/brodyxchen/vmci/models"
)

// Client sends one JSON request per call. Calls share no connection or
// buffer, so a Client is safe for concurrent use.
type Client struct {
	cfg Config
}

func NewClient(cfg *Config) *Client {
	cli := &Client{}
	if cfg != nil {
		cli.cfg = *cfg
	}
	return cli
}

// GetReply sends jsonRequest to port on the configured host through the
// backend named backendName and blocks for the reply. Errors carry an errno
// class, see errors.Errno.
func (cli *Client) GetReply(ctx context.Context, port uint32, jsonRequest string, backendName string) ([]byte, error) {
	be, err := cli.cfg.GetRegistry().Lookup(backendName)
	if err != nil {
		log.Errorf("client.GetReply(): %v", err)
		return nil, err
	}

	maxLen := cli.cfg.GetMaxRequestSize()
	req, truncated := models.NewRequest(jsonRequest, maxLen)
	if truncated {
		log.Warnf("client.GetReply(): request of %v bytes truncated to %v", len(jsonRequest), maxLen)
	}

	if timeout := cli.cfg.GetTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	return hostRequest(ctx, be, req, cli.cfg.GetContextID(), port)
}

// hostRequest opens a fresh connection for a single exchange. The handle
// is closed exactly once on every path after a successful open.
func hostRequest(ctx context.Context, be backend.Backend, req *models.Request, contextID, port uint32) ([]byte, error) {
	h, err := be.Open(ctx, contextID, port)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := be.Close(h); err != nil {
			log.Debugf("client.hostRequest(): %v close: %v", be.ShortName(), err)
		}
	}()

	reply, err := be.Exchange(ctx, h, req)
	if err != nil {
		return nil, err
	}
	return reply, nil
}
