package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/khaleelElias/YA/internal/auth"
	"github.com/khaleelElias/YA/internal/entrypoint"
)

func identityFlag(cmd *cobra.Command, userID *string) {
	cmd.Flags().StringVarP(userID, "user", "u", "", "Signed-in user id (anonymous when empty)")
}

func newDownloadCmd(e *env) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "download <book-id>",
		Short: "Download a catalog book for offline reading",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withApp(cmd, func(app *entrypoint.App) error {
				ctx := cmd.Context()
				res := app.Catalog.FetchBookByID(ctx, args[0])
				if res.Error != nil {
					return fmt.Errorf("fetch book %s: %w", args[0], res.Error)
				}
				book := res.Data

				path, err := app.Downloads.DownloadBook(ctx, &book, auth.User(userID))
				if err != nil {
					return err
				}

				var size int64
				if info, err := os.Stat(path); err == nil {
					size = info.Size()
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %q to %s (%s)\n", book.Title, path, formatSize(size))
				return nil
			})
		},
	}
	identityFlag(cmd, &userID)
	return cmd
}

func newDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <book-id>",
		Short: "Delete a downloaded book with its progress and bookmarks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withApp(cmd, func(app *entrypoint.App) error {
				if err := app.Downloads.DeleteBook(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func newListCmd(e *env) *cobra.Command {
	var out outputOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List downloaded books",
		Long: `List every book stored on this device.

Examples:
  yazidi-library list               # Table
  yazidi-library list -o json       # JSON snapshot of each book`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := out.resolve()
			if err != nil {
				return err
			}

			return e.withApp(cmd, func(app *entrypoint.App) error {
				books, err := app.Downloads.GetDownloadedBooks(cmd.Context())
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				if format != outputTable {
					return encode(w, format, books)
				}

				if len(books) == 0 {
					fmt.Fprintln(w, "No downloaded books.")
					fmt.Fprintln(w, "Use 'yazidi-library download <book-id>' to add one.")
					return nil
				}

				t := newTable(w, "ID", "TITLE", "LANGUAGE", "TYPE", "SIZE")
				for _, b := range books {
					t.addRow(b.ID, truncate(b.Title, 45), string(b.Language), string(b.ContentType), formatSize(b.FileSizeBytes))
				}
				if err := t.render(); err != nil {
					return err
				}
				fmt.Fprintf(w, "\nTotal: %d book(s)\n", len(books))
				return nil
			})
		},
	}
	out.addFlags(cmd)
	return cmd
}
