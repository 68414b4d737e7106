package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Badar25/Journal-backend/internal/logging"
	"github.com/Badar25/Journal-backend/internal/service"
)

// NewSummaryCmd constructs the `journal summary` command, which summarises
// a user's recent entries.
func NewSummaryCmd() *cobra.Command {
	var user string
	var days int

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarise a user's recent entries",
		Long: `Summarise a user's entries from the last N days.

Examples:
  journal summary --user 42
  journal summary --user 42 --days 30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			owner, err := requireUser("summary", user)
			if err != nil {
				return err
			}
			if days < 0 {
				return fmt.Errorf("summary: --days must not be negative")
			}
			log := logging.New()
			ctx := logging.WithLogger(cmd.Context(), log)

			a, err := buildApp(ctx, log, appOptions{withModel: true})
			if err != nil {
				return fmt.Errorf("summary: %w", err)
			}
			defer a.close()

			r := a.svc.Summary(ctx, owner, days)
			if !r.IsOk() {
				return fmt.Errorf("summary: %w", r.Err())
			}
			fmt.Fprintln(cmd.OutOrStdout(), r.Value().Response)
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "Owner user ID")
	cmd.Flags().IntVarP(&days, "days", "d", service.DefaultSummaryDays, "Number of days to summarise")

	return cmd
}
