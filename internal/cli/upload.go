package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/relistr/mediakit/internal/session"
	"github.com/relistr/mediakit/internal/transport"
)

func newUploadCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "upload [files...]",
		Example: "$ mediactl upload --entity-id 42 kitchen.jpg garden.jpg",
		Short:   "Upload files into the scope",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.openSession(cmd.Context())
			if err != nil {
				return err
			}

			files, cleanup, err := openFiles(args)
			if err != nil {
				return err
			}
			defer cleanup()

			uploadErr := sess.Upload(cmd.Context(), files)
			printErrors(cmd, sess)
			if uploadErr != nil {
				return uploadErr
			}
			return writeJSON(cmd.OutOrStdout(), sess.Records())
		},
	}
}

func openFiles(paths []string) ([]transport.File, func(), error) {
	var handles []*os.File
	cleanup := func() {
		for _, handle := range handles {
			_ = handle.Close()
		}
	}

	files := make([]transport.File, 0, len(paths))
	for _, path := range paths {
		handle, err := os.Open(path)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		handles = append(handles, handle)

		info, err := handle.Stat()
		if err != nil {
			cleanup()
			return nil, nil, err
		}

		contentType := mime.TypeByExtension(filepath.Ext(path))
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		files = append(files, transport.File{
			Name:        filepath.Base(path),
			ContentType: contentType,
			Size:        info.Size(),
			Content:     handle,
		})
	}
	return files, cleanup, nil
}

func printErrors(cmd *cobra.Command, sess *session.Session) {
	for _, msg := range sess.Errors() {
		fmt.Fprintln(cmd.ErrOrStderr(), "error:", msg)
	}
}
