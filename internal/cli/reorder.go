package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

func newReorderCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "reorder [image-ids...]",
		Example: "$ mediactl reorder --entity-id 42 317 315 316",
		Short:   "Reorder the scope's images to match the given id sequence",
		Long: `Reorder expects the full id sequence for the scope: every current
image exactly once, in the desired display order. Partial sequences are
rejected before any network call.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			sess, err := app.openSession(cmd.Context())
			if err != nil {
				return err
			}

			reorderErr := sess.Reorder(cmd.Context(), ids)
			printErrors(cmd, sess)
			if reorderErr != nil {
				return reorderErr
			}
			return writeJSON(cmd.OutOrStdout(), sess.Records())
		},
	}
}
