package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Badar25/Journal-backend/internal/logging"
	"github.com/Badar25/Journal-backend/internal/retention"
)

// NewSweepCmd constructs the `journal sweep` command, which runs a single
// retention pass and exits. It suits deployments that schedule the sweep
// externally with RETENTION_ENABLED=false on the server.
func NewSweepCmd() *cobra.Command {
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete entries older than the retention window",
		Long: `Delete every entry created before now minus the retention window.

The window defaults to RETENTION_MAX_AGE (8 days when unset).

Examples:
  journal sweep
  journal sweep --max-age 720h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()
			ctx := logging.WithLogger(cmd.Context(), log)

			rcfg, err := retention.ConfigFromEnv()
			if err != nil {
				return fmt.Errorf("sweep: %w", err)
			}
			if cmd.Flags().Changed("max-age") {
				if maxAge <= 0 {
					return fmt.Errorf("sweep: --max-age must be positive")
				}
				rcfg.MaxAge = maxAge
			}

			a, err := buildApp(ctx, log, appOptions{})
			if err != nil {
				return fmt.Errorf("sweep: %w", err)
			}
			defer a.close()

			r := retention.New(a.store, rcfg).SweepOnce(ctx)
			if !r.IsOk() {
				return fmt.Errorf("sweep: %w", r.Err())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d entries\n", r.Value())
			return nil
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "Override the retention window (Go duration)")

	return cmd
}
