package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCommand(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "history",
		Example: "$ mediactl history --entity-id 42 --limit 10",
		Short:   "Show the journaled operations for the scope",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.journal == nil {
				return fmt.Errorf("journal not configured, set MEDIAKIT_JOURNAL_PATH")
			}

			sc, err := app.scope()
			if err != nil {
				return err
			}

			entries, err := app.journal.Recent(cmd.Context(), sc, limit)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to show")
	return cmd
}
