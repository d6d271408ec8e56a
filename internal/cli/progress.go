package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khaleelElias/YA/internal/auth"
	"github.com/khaleelElias/YA/internal/entrypoint"
)

func newProgressCmd(e *env) *cobra.Command {
	var out outputOptions
	var userID string

	cmd := &cobra.Command{
		Use:   "progress <book-id>",
		Short: "Show the last reading position in a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := out.resolve()
			if err != nil {
				return err
			}

			return e.withApp(cmd, func(app *entrypoint.App) error {
				identity := auth.User(userID)
				pos, err := app.Tracker.GetLastPosition(cmd.Context(), args[0], identity)
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				if format != outputTable {
					return encode(w, format, pos)
				}
				if pos == nil {
					fmt.Fprintf(w, "No reading position for %s (%s).\n", args[0], identity)
					return nil
				}

				t := newTable(w, "FIELD", "VALUE")
				t.addRow("Book", pos.BookID)
				t.addRow("Reader", identity.String())
				t.addRow("Position", orDash(pos.Marker))
				t.addRow("Chapter", orDash(pos.Fallback.ChapterID))
				t.addRow("Progress", fmt.Sprintf("%d%%", pos.Percent))
				if pos.Page != nil {
					t.addRow("Page", fmt.Sprintf("%d of %d", pos.Page.Current, pos.Page.Total))
				}
				t.addRow("Last read", pos.LastReadAt.Local().Format("2006-01-02 15:04"))
				return t.render()
			})
		},
	}
	out.addFlags(cmd)
	identityFlag(cmd, &userID)
	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
