package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/backdrops/internal/errors"
	"github.com/Aman-CERP/backdrops/internal/identifier"
	"github.com/Aman-CERP/backdrops/internal/output"
)

func newMoveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <primary|default|ext:N>",
		Short: "Move a background folder to another root",
		Long: `Move a background folder to another root and update its catalog entry.
A numeric suffix (_1, _2, ...) is added when the folder name is taken.
The new identifier is printed on success.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := identifier.ParseRootRef(args[1])
			if err != nil {
				return errors.New(errors.ErrCodeMoveTargetRootUnknown, err.Error(), err).
					WithSuggestion("Use primary, default or ext:N (see 'backdrops roots list')")
			}

			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			// Waits for any leftover-source cleanup before the process exits.
			defer a.close()

			newID, err := a.relocate.Move(cmd.Context(), identifier.ID(args[0]), target)
			if err != nil {
				return err
			}
			return output.New(cmd.OutOrStdout()).List([]string{string(newID)})
		},
	}
}
