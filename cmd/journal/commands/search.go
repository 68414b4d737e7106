package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Badar25/Journal-backend/internal/logging"
)

// NewSearchCmd constructs the `journal search` command, which runs the
// retrieve-and-rerank pipeline for one user and prints the ranked entries
// as JSON.
func NewSearchCmd() *cobra.Command {
	var user string
	var limit int

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Retrieve a user's entries most relevant to a query",
		Long: `Retrieve a user's entries most relevant to a query.

Candidates come from similarity search, over-fetched and reranked when a
reranker is configured. A reranker failure falls back to similarity order
and is reported through the "reranked" field.

Examples:
  journal search --user 42 "when did I last go hiking?"
  journal search --user 42 --limit 5 "work stress"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := requireUser("search", user)
			if err != nil {
				return err
			}
			log := logging.New()
			ctx := logging.WithLogger(cmd.Context(), log)

			a, err := buildApp(ctx, log, appOptions{})
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			defer a.close()

			r := a.pipeline.Retrieve(ctx, strings.Join(args, " "), owner, limit)
			if !r.IsOk() {
				return fmt.Errorf("search: %w", r.Err())
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(r.Value()) //nolint:wrapcheck // CLI entry point
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "Owner user ID")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Number of entries to return (default: RETRIEVAL_TOP_K)")

	return cmd
}
