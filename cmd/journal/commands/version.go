package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Badar25/Journal-backend/internal/version"
)

// NewVersionCmd constructs the `journal version` subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the journal version, git commit, and build date",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "journal %s\n", version.String())
		},
	}
}
