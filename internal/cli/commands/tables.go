package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapcheck/internal/console"
)

// NewTablesCommand creates the tables command.
func NewTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables <connection>",
		Short: "List the tables a connection exposes",
		Long: `Print every table and view of a configured connection as "schema.name",
the names match patterns are tested against.`,
		Example: `  leapcheck tables warehouse`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			tables, err := cc.Connections.AllTables(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			console.RenderTables(cmd.OutOrStdout(), args[0], tables)
			return nil
		},
	}
}
