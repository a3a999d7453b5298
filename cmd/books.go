// file: cmd/books.go
// version: 1.0.0
// guid: 1b3d5f7a-9c0e-4b2d-a4f6-8c0e2a4c6e59

package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jdfalk/book-library/internal/database"
	"github.com/jdfalk/book-library/internal/models"
	"github.com/jdfalk/book-library/internal/search"
)

func formatValue(v string) string {
	if strings.TrimSpace(v) == "" {
		return "(empty)"
	}
	return v
}

func shortID(id string) string {
	if len(id) > 10 {
		return id[:10]
	}
	return id
}

func printBooks(w io.Writer, books []models.Book) {
	if len(books) == 0 {
		fmt.Fprintln(w, "No books found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tGENRE\tSTATUS\tISBN")
	for _, b := range books {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(b.ID), b.Title, b.Author, b.Genre, b.ReadingStatus.Label(), models.FormatISBN(b.ISBN))
	}
	_ = tw.Flush()
}

func printBook(w io.Writer, b models.Book) {
	fmt.Fprintf(w, "ID:          %s\n", b.ID)
	fmt.Fprintf(w, "Title:       %s\n", formatValue(b.Title))
	fmt.Fprintf(w, "Author:      %s\n", formatValue(b.Author))
	fmt.Fprintf(w, "Genre:       %s\n", formatValue(b.Genre))
	fmt.Fprintf(w, "Status:      %s\n", b.ReadingStatus.Label())
	fmt.Fprintf(w, "ISBN:        %s\n", formatValue(models.FormatISBN(b.ISBN)))
	fmt.Fprintf(w, "Publisher:   %s\n", formatValue(b.Publisher))
	fmt.Fprintf(w, "Published:   %s\n", formatValue(b.PublishedDate))
	if b.PageCount > 0 {
		fmt.Fprintf(w, "Pages:       %d\n", b.PageCount)
	}
	if b.CoverURL != "" {
		fmt.Fprintf(w, "Cover:       %s\n", b.CoverURL)
	}
	if b.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", b.Description)
	}
}

// bookFlags registers the editable book fields on fs.
func bookFlags(fs *pflag.FlagSet) {
	fs.String("title", "", "book title")
	fs.String("author", "", "book author")
	fs.String("genre", "", "genre, e.g. Roman")
	fs.String("publisher", "", "publisher")
	fs.String("published", "", "publication date")
	fs.String("isbn", "", "ISBN-10 or ISBN-13")
	fs.String("cover", "", "cover image URL")
	fs.String("description", "", "description")
	fs.Int("pages", 0, "page count")
	fs.String("status", "", "reading status: unread, reading or read")
}

// applyBookFlags copies the flags set on the command line into b.
func applyBookFlags(fs *pflag.FlagSet, b *models.Book) error {
	str := map[string]*string{
		"title":       &b.Title,
		"author":      &b.Author,
		"genre":       &b.Genre,
		"publisher":   &b.Publisher,
		"published":   &b.PublishedDate,
		"isbn":        &b.ISBN,
		"cover":       &b.CoverURL,
		"description": &b.Description,
	}
	for name, dst := range str {
		if fs.Changed(name) {
			*dst, _ = fs.GetString(name)
		}
	}
	if fs.Changed("isbn") {
		b.ISBN = models.CleanISBN(b.ISBN)
	}
	if fs.Changed("pages") {
		b.PageCount, _ = fs.GetInt("pages")
	}
	if fs.Changed("status") {
		v, _ := fs.GetString("status")
		status, err := models.ParseReadingStatus(v)
		if err != nil {
			return err
		}
		b.ReadingStatus = status
	}
	return nil
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List books",
		Long:    `List the books in the library, optionally filtered, sorted or grouped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			f := models.Filter{}
			f.SearchTerm, _ = fs.GetString("search")
			f.Genre, _ = fs.GetString("genre")
			f.Author, _ = fs.GetString("author")
			f.ISBN, _ = fs.GetString("isbn")
			f.Publisher, _ = fs.GetString("publisher")
			if fs.Changed("status") {
				v, _ := fs.GetString("status")
				status, err := models.ParseReadingStatus(v)
				if err != nil {
					return err
				}
				f.ReadingStatus = status
			}
			sortField, _ := fs.GetString("sort")
			desc, _ := fs.GetBool("desc")
			groupBy, _ := fs.GetString("group-by")
			asJSON, _ := fs.GetBool("json")

			return withApp(cmd.Context(), func(a *app) error {
				order := models.SortAsc
				if desc {
					order = models.SortDesc
				}
				books := models.SortBooks(models.FilterBooks(a.lib.Books(), f), sortField, order)
				out := cmd.OutOrStdout()

				if asJSON {
					data, err := database.ExportBooks(books)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(out, string(data))
					return err
				}
				if groupBy == "" {
					printBooks(out, books)
					return nil
				}

				groups := models.GroupBooksByField(books, groupBy)
				keys := make([]string, 0, len(groups))
				for k := range groups {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintf(out, "== %s (%d) ==\n", k, len(groups[k]))
					printBooks(out, groups[k])
					fmt.Fprintln(out)
				}
				return nil
			})
		},
	}
	fs := cmd.Flags()
	fs.String("search", "", "match title, author, ISBN or publisher")
	fs.String("genre", "", "filter by genre")
	fs.String("author", "", "filter by author")
	fs.String("isbn", "", "filter by ISBN")
	fs.String("publisher", "", "filter by publisher")
	fs.String("status", "", "filter by reading status")
	fs.String("sort", "title", "sort field (title, author, genre, publishedDate, pageCount, ...)")
	fs.Bool("desc", false, "sort descending")
	fs.String("group-by", "", "group by a field, e.g. genre or author")
	fs.Bool("json", false, "print JSON instead of a table")
	return cmd
}

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book",
		Long: `Add a book. When only --isbn is given the details are looked up first;
any other flag overrides the looked-up value.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			return withApp(cmd.Context(), func(a *app) error {
				var book models.Book
				isbn, _ := fs.GetString("isbn")
				if isbn != "" && !fs.Changed("title") {
					found, err := a.lookup.SearchByISBN(cmd.Context(), isbn)
					if err != nil {
						return fmt.Errorf("%w; add the details with --title and --author", err)
					}
					book = *found
				}
				if err := applyBookFlags(fs, &book); err != nil {
					return err
				}
				stored, err := a.lib.AddBook(cmd.Context(), book)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %q (%s)\n", stored.Title, stored.ID)
				return nil
			})
		},
	}
	bookFlags(cmd.Flags())
	return cmd
}

func newEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a book",
		Long:  `Change the given fields of a book. The id may be a unique prefix.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				book, err := findBook(a.lib, args[0])
				if err != nil {
					return err
				}
				if err := applyBookFlags(cmd.Flags(), &book); err != nil {
					return err
				}
				if err := book.Validate(); err != nil {
					return err
				}
				updated, err := a.lib.UpdateBook(cmd.Context(), book)
				if err != nil {
					return err
				}
				printBook(cmd.OutOrStdout(), updated)
				return nil
			})
		},
	}
	bookFlags(cmd.Flags())
	return cmd
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a book",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				book, err := findBook(a.lib, args[0])
				if err != nil {
					return err
				}
				if err := a.lib.RemoveBook(cmd.Context(), book.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %q\n", book.Title)
				return nil
			})
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show collection statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				st := models.ComputeStats(a.lib.Books())
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Books:   %d\n", st.Total)
				fmt.Fprintf(out, "%s: %d | %s: %d | %s: %d\n",
					models.StatusRead.Label(), st.Read,
					models.StatusReading.Label(), st.Reading,
					models.StatusUnread.Label(), st.Unread)
				printCounts(out, "By genre", st.ByGenre)
				printCounts(out, "By author", st.ByAuthor)
				return nil
			})
		},
	}
}

// printCounts lists counts largest first, ties by name.
func printCounts(w io.Writer, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	fmt.Fprintf(w, "%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-30s %d\n", k, counts[k])
	}
}

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over the library",
		Long: `Search titles, authors, publishers, descriptions and ISBNs. Small typos
are tolerated. With --suggest, list the closest titles instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := strings.Join(args, " ")
			limit, _ := cmd.Flags().GetInt("limit")
			suggest, _ := cmd.Flags().GetBool("suggest")

			return withApp(cmd.Context(), func(a *app) error {
				out := cmd.OutOrStdout()
				if suggest {
					suggestions := a.index.Suggest(q, limit)
					if len(suggestions) == 0 {
						fmt.Fprintln(out, "No suggestions.")
					}
					for _, s := range suggestions {
						fmt.Fprintf(out, "%s  %s\n", shortID(s.ID), s.Title)
					}
					return nil
				}
				ids, err := a.index.Search(q, limit)
				if err != nil {
					return err
				}
				printBooks(out, search.Select(a.lib.Books(), ids))
				return nil
			})
		},
	}
	cmd.Flags().Int("limit", search.DefaultLimit, "maximum number of results")
	cmd.Flags().Bool("suggest", false, "suggest titles close to the query")
	return cmd
}
