package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/brodyxchen/vmci"
	"github.com/brodyxchen/vmci/client"
	"github.com/brodyxchen/vmci/constant"
	"github.com/brodyxchen/vmci/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type requestOptions struct {
	port      uint32
	backend   string
	contextID uint32
	timeout   time.Duration
}

func addRequestFlags(fs *pflag.FlagSet, o *requestOptions) {
	fs.Uint32Var(&o.port, "port", constant.DefaultServerPort, "Port of the command execution server")
	fs.StringVar(&o.backend, "backend", constant.BackendVSocket, "Backend short name (see the backends command)")
	fs.Uint32Var(&o.contextID, "cid", constant.HostContextID, "Peer context id")
	fs.DurationVar(&o.timeout, "timeout", 0, "Give up after this long (0 waits forever)")
}

func newRequestCmd() *cobra.Command {
	o := &requestOptions{}

	cmd := &cobra.Command{
		Use:   "request [json]",
		Short: "Send one JSON request and print the reply",
		Long:  "Send one JSON request and print the reply. With no argument, or with -, the request is read from stdin.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := requestText(cmd, args)
			if err != nil {
				return err
			}
			return runRequest(cmd, o, text)
		},
	}
	addRequestFlags(cmd.Flags(), o)
	return cmd
}

func requestText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read request: %w", err)
	}
	return string(data), nil
}

func runRequest(cmd *cobra.Command, o *requestOptions, text string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cli := client.NewClient(&client.Config{
		ContextID: o.contextID,
		Timeout:   o.timeout,
	})
	reply, err := cli.GetReply(ctx, o.port, text, o.backend)
	if err != nil {
		errno := errors.Errno(err)
		return fmt.Errorf("request failed (errno %d: %s): %w", int(errno), errno.Error(), err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), vmci.ReplyText(reply))
	return err
}
