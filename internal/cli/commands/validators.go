package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapcheck/internal/console"
	"github.com/leapstack-labs/leapcheck/internal/validator"
)

// NewValidatorsCommand creates the validators command.
func NewValidatorsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validators",
		Short: "List the available check types",
		RunE: func(cmd *cobra.Command, _ []string) error {
			console.RenderList(cmd.OutOrStdout(), validator.Default().Kinds())
			return nil
		},
	}
}
