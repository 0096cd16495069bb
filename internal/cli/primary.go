package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

func newSetPrimaryCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "set-primary [image-id]",
		Example: "$ mediactl set-primary --entity-id 42 316",
		Short:   "Make one image the scope's primary",
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

			primaryErr := sess.SetPrimary(cmd.Context(), id)
			printErrors(cmd, sess)
			if primaryErr != nil {
				return primaryErr
			}
			return writeJSON(cmd.OutOrStdout(), sess.Records())
		},
	}
}
