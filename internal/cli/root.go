package cli

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
)

// NewRootCommand returns the mediactl root with all subcommands
// attached. The scope flags are persistent so every subcommand reads
// the same tuple.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "mediactl",
		Short: "Manage entity-scoped media collections",
		Long: `mediactl drives the marketplace media API for one scope at a time:
fetch, upload, reorder, delete, and set-primary all operate on the
(entity-type, entity-id, purpose) tuple given by the persistent flags.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&app.flags.EntityType, "entity-type", "property", "entity type owning the media")
	root.PersistentFlags().Int64Var(&app.flags.EntityID, "entity-id", 0, "id of the owning entity")
	root.PersistentFlags().StringVar(&app.flags.Purpose, "purpose", "property_gallery", "collection purpose within the entity")

	root.AddCommand(newFetchCommand(app))
	root.AddCommand(newUploadCommand(app))
	root.AddCommand(newDeleteCommand(app))
	root.AddCommand(newReorderCommand(app))
	root.AddCommand(newSetPrimaryCommand(app))
	root.AddCommand(newHistoryCommand(app))

	return root
}

func writeJSON(out io.Writer, payload any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
