package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Badar25/Journal-backend/internal/ingestion"
	"github.com/Badar25/Journal-backend/internal/logging"
)

// NewImportCmd constructs the `journal import` command, which bulk-creates
// entries for one user from JSON Lines or JSON array files.
func NewImportCmd() *cobra.Command {
	var user string
	var files []string
	var noSplit bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import journal entries from JSON files or URLs",
		Long: `Import journal entries for one user.

Each source is a local path or an http(s) URL holding JSON Lines or a JSON
array of {"title": ..., "content": ...} records. Every record is validated
and embedded like an API create. Content over the length limit is split
into numbered consecutive entries unless --no-split is given, in which case
the record is skipped.

Examples:
  journal import --user 42 --file export.jsonl
  journal import --user 42 --file a.json --file https://example.com/b.jsonl`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			owner, err := requireUser("import", user)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("import: at least one --file is required")
			}
			log := logging.New()
			ctx := logging.WithLogger(cmd.Context(), log)

			a, err := buildApp(ctx, log, appOptions{})
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			defer a.close()

			pipeline, err := ingestion.NewPipeline(a.svc, &ingestion.Config{NoSplit: noSplit})
			if err != nil {
				return fmt.Errorf("import: failed to create pipeline: %w", err)
			}

			sources := make([]ingestion.Source, len(files))
			for i, f := range files {
				sources[i] = ingestion.Source{Location: f}
			}

			rep, err := pipeline.Import(ctx, owner, sources, func(msg string) {
				log.Info(msg)
			})
			log.Info("import finished",
				slog.Int("imported", rep.Imported),
				slog.Int("skipped", rep.Skipped),
			)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d entries, skipped %d\n", rep.Imported, rep.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "Owner user ID")
	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "File path or URL to import (repeatable)")
	cmd.Flags().BoolVar(&noSplit, "no-split", false, "Skip over-long records instead of splitting them")

	return cmd
}
