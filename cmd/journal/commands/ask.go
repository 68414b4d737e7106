package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Badar25/Journal-backend/internal/logging"
)

// NewAskCmd constructs the `journal ask` command, which answers a question
// grounded in one user's entries.
func NewAskCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question about a user's journal",
		Long: `Ask a question about a user's journal.

The most relevant entries are retrieved, reranked and passed to the model
as context. When no entry matches, a fixed reply is printed and the model
is not called.

Examples:
  journal ask --user 42 "how has my sleep been?"
  MODEL_PROVIDER=gemini journal ask --user 42 "what did I do at the weekend?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := requireUser("ask", user)
			if err != nil {
				return err
			}
			log := logging.New()
			ctx := logging.WithLogger(cmd.Context(), log)

			a, err := buildApp(ctx, log, appOptions{withModel: true})
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer a.close()

			r := a.svc.Chat(ctx, owner, strings.Join(args, " "))
			if !r.IsOk() {
				return fmt.Errorf("ask: %w", r.Err())
			}
			fmt.Fprintln(cmd.OutOrStdout(), r.Value().Response)
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "Owner user ID")

	return cmd
}
