package cli

import (
	"fmt"

	"github.com/brodyxchen/vmci/backend"
	"github.com/spf13/cobra"
)

func newBackendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List the backends a request can be sent through",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, be := range backend.Default().Backends() {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", be.ShortName(), be.Name()); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
