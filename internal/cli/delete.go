package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

func newDeleteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete [image-id]",
		Example: "$ mediactl delete --entity-id 42 317",
		Short:   "Delete one image from the scope",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return err
			}

			sess, err := app.openSession(cmd.Context())
			if err != nil {
				return err
			}

			deleteErr := sess.Delete(cmd.Context(), id)
			printErrors(cmd, sess)
			if deleteErr != nil {
				return deleteErr
			}
			return writeJSON(cmd.OutOrStdout(), sess.Records())
		},
	}
}
