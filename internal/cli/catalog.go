package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/khaleelElias/YA/internal/catalog"
	"github.com/khaleelElias/YA/internal/entities"
	"github.com/khaleelElias/YA/internal/entrypoint"
)

func newSearchCmd(e *env) *cobra.Command {
	var out outputOptions
	var language, category string
	var limit int

	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Search published catalog books by title, author or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := out.resolve()
			if err != nil {
				return err
			}

			return e.withApp(cmd, func(app *entrypoint.App) error {
				page := app.Catalog.SearchBooks(cmd.Context(), args[0], catalog.Query{
					Language: entities.Language(language),
					Category: category,
					PageSize: limit,
				})
				if page.Error != nil {
					return fmt.Errorf("search catalog: %w", page.Error)
				}

				w := cmd.OutOrStdout()
				if format != outputTable {
					return encode(w, format, page)
				}
				if len(page.Items) == 0 {
					fmt.Fprintln(w, "No books found.")
					return nil
				}

				t := newTable(w, "ID", "TITLE", "AUTHOR", "LANGUAGE", "CATEGORY")
				for _, b := range page.Items {
					t.addRow(b.ID, truncate(b.Title, 40), truncate(b.Author, 25), string(b.Language), b.Category)
				}
				if err := t.render(); err != nil {
					return err
				}
				fmt.Fprintf(w, "\nShowing %d of %d\n", len(page.Items), page.Total)
				return nil
			})
		},
	}
	out.addFlags(cmd)
	cmd.Flags().StringVarP(&language, "language", "l", "", "Filter by language code")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Filter by category")
	cmd.Flags().IntVarP(&limit, "limit", "n", catalog.DefaultPageSize, "Maximum number of results")
	return cmd
}

func newCategoriesCmd(e *env) *cobra.Command {
	var out outputOptions

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List catalog categories with their published book counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := out.resolve()
			if err != nil {
				return err
			}

			return e.withApp(cmd, func(app *entrypoint.App) error {
				res := app.Catalog.FetchCategories(cmd.Context())
				if res.Error != nil {
					return fmt.Errorf("fetch categories: %w", res.Error)
				}

				w := cmd.OutOrStdout()
				if format != outputTable {
					return encode(w, format, res.Data)
				}
				if len(res.Data) == 0 {
					fmt.Fprintln(w, "No categories.")
					return nil
				}

				t := newTable(w, "CATEGORY", "BOOKS")
				for _, c := range res.Data {
					t.addRow(c.Category, strconv.Itoa(c.Count))
				}
				return t.render()
			})
		},
	}
	out.addFlags(cmd)
	return cmd
}
