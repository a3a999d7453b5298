// file: cmd/lookup.go
// version: 1.0.0
// guid: 3f5b7d9e-1a2c-4e4f-8b6d-0a2c4e6a8b93

package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jdfalk/book-library/internal/models"
)

func newLookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <isbn>",
		Short: "Look up an ISBN without adding it",
		Long: `Query Google Books, Open Library, the BnF and WorldCat in that order and
print the first match.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			isbn := models.CleanISBN(args[0])
			if !models.IsValidISBN(isbn) {
				return fmt.Errorf("%w: enter a valid ISBN (10 or 13 digits)", models.ErrValidation)
			}
			asJSON, _ := cmd.Flags().GetBool("json")

			return withApp(cmd.Context(), func(a *app) error {
				book, err := a.lookup.SearchByISBN(cmd.Context(), isbn)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(book)
				}
				printBook(cmd.OutOrStdout(), *book)
				return nil
			})
		},
	}
	cmd.Flags().Bool("json", false, "print JSON")
	return cmd
}

func newCoversCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "covers <title>",
		Short: "List cover images for a title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")
			author, _ := cmd.Flags().GetString("author")

			return withApp(cmd.Context(), func(a *app) error {
				n := 0
				for url := range a.lookup.SearchBookCovers(cmd.Context(), title, author) {
					fmt.Fprintln(cmd.OutOrStdout(), url)
					n++
				}
				if n == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No covers found.")
				}
				return nil
			})
		},
	}
	cmd.Flags().String("author", "", "narrow the search to an author")
	return cmd
}
