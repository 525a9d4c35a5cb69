package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapcheck/internal/console"
	"github.com/leapstack-labs/leapcheck/internal/script"
	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// ListOptions holds options for the list command.
type ListOptions struct {
	Expand bool
	Strict bool
}

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	opts := &ListOptions{}

	cmd := &cobra.Command{
		Use:   "list <script>",
		Short: "List the checks a script resolves to",
		Long: `Parse a check script and print one row per check with its resolved
connection and owner. No validator is run.

With --expand, match patterns are expanded against the live schema.
With --strict, a check type that has no validator is an error, and so
is a pattern that selects no tables.`,
		Example: `  # Show resolved checks
  leapcheck list checks/customers.yaml

  # Show the tables each pattern selects
  leapcheck list checks/customers.yaml --expand`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Expand, "expand", false, "Expand match patterns against the database")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Report unknown check types and empty patterns as errors")

	return cmd
}

func runList(cmd *cobra.Command, path string, opts *ListOptions) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	var specs []core.CheckSpec
	if opts.Expand {
		plan, err := cc.Engine.Plan(cmd.Context(), path, nil)
		if err != nil {
			return err
		}
		specs = plan.Specs
		if plan.EmptyExpansions > 0 {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%d pattern(s) matched no tables\n", plan.EmptyExpansions)
		}
	} else {
		_, specs, err = script.ParseFile(path)
		if err != nil {
			return err
		}
	}

	if opts.Strict {
		reg := cc.Engine.Registry()
		for _, s := range specs {
			if _, err := reg.MustResolve(s.CheckType); err != nil {
				return fmt.Errorf("%s: %w", s.DisplayName(), err)
			}
		}
	}

	console.RenderSpecs(cmd.OutOrStdout(), specs)
	return nil
}
