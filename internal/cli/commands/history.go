package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapcheck/internal/config"
	"github.com/leapstack-labs/leapcheck/internal/console"
	"github.com/leapstack-labs/leapcheck/internal/journal"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
	All   bool
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded runs",
		Long: `List recent runs from the journal, newest first. Given a run ID,
show the result of every check in that run.`,
		Example: `  # Recent runs in the current environment
  leapcheck history

  # Recent runs in every environment
  leapcheck history --all --limit 50

  # Results of one run
  leapcheck history 0b7c3e0e-6f2f-4d55-9a57-1d7b0d6c2d1a`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd.Context())

			store := journal.NewStore(config.GetLogger(cmd.Context()))
			if err := store.Open(cmd.Context(), cfg.JournalPath); err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if len(args) == 1 {
				results, err := store.Results(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				console.RenderResults(cmd.OutOrStdout(), results)
				return nil
			}

			env := cfg.Environment
			if opts.All {
				env = ""
			}
			runs, err := store.ListRuns(cmd.Context(), env, opts.Limit)
			if err != nil {
				return err
			}
			console.RenderRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&opts.All, "all", false, "Show runs of every environment")
	cmd.Flags().String("journal", "", "Path to the run journal database")

	return cmd
}
