package cli

import (
	"github.com/spf13/cobra"
)

func newFetchCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "fetch",
		Example: "$ mediactl fetch --entity-type property --entity-id 42",
		Short:   "List the scope's images in display order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.openSession(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), sess.Records())
		},
	}
}
