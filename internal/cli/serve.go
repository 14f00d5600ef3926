package cli

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/brodyxchen/vmci/constant"
	"github.com/brodyxchen/vmci/errors"
	"github.com/brodyxchen/vmci/log"
	"github.com/brodyxchen/vmci/models"
	"github.com/brodyxchen/vmci/server"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		port      uint32
		contextID uint32
		tcpAddr   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run an echo peer that answers each request with its own payload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var addr models.Addr = &models.VSockAddr{ContextId: contextID, Port: port}
			if tcpAddr != "" {
				ta, err := parseTCPAddr(tcpAddr)
				if err != nil {
					return err
				}
				addr = ta
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runServe(ctx, server.NewServer(addr, server.EchoHandler))
		},
	}
	cmd.Flags().Uint32Var(&port, "port", constant.DefaultServerPort, "VM socket port to listen on")
	cmd.Flags().Uint32Var(&contextID, "cid", constant.HostContextID, "Local context id to listen on")
	cmd.Flags().StringVar(&tcpAddr, "tcp", "", "Listen on this host:port over TCP instead of a VM socket")
	return cmd
}

func runServe(ctx context.Context, srv *server.Server) error {
	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			_ = srv.Close()
		case <-stopped:
		}
	}()

	log.Infof("serving on %v", srv.Addr.GetAddr())
	err := srv.ListenAndServe()
	if errors.Is(err, errors.ErrServerClosed) {
		return nil
	}
	return err
}

func parseTCPAddr(raw string) (*models.TCPAddr, error) {
	host, portStr, err := net.SplitHostPort(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid --tcp address %q: %w", raw, err)
	}
	port, err := strconv.ParseUint(portStr, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid --tcp port %q: %w", portStr, err)
	}
	return &models.TCPAddr{IP: host, Port: uint32(port)}, nil
}
