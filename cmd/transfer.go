// file: cmd/transfer.go
// version: 1.0.0
// guid: 7d9f1b3c-5e6a-4d8f-b0c2-4e6a8c0e2b71

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jdfalk/book-library/internal/database"
	"github.com/jdfalk/book-library/internal/fileops"
	"github.com/jdfalk/book-library/internal/models"
	"github.com/jdfalk/book-library/internal/operations"
)

// stdinIsTerminal reports whether confirmation prompts can be shown.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Merge books from an export file",
		Long: `Merge the books of a JSON export into the library. Books whose id is
already present replace the stored ones; the others are appended.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			books, err := database.ParseBooks(data)
			if err != nil {
				return err
			}
			if len(books) == 0 {
				return fmt.Errorf("%s contains no books", args[0])
			}

			if !yes {
				if !stdinIsTerminal() {
					return fmt.Errorf("refusing to import %d books without confirmation; pass --yes", len(books))
				}
				ok, err := promptYesNo(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Import %d books", len(books)))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted. Nothing imported.")
					return nil
				}
			}

			return withApp(cmd.Context(), func(a *app) error {
				before := a.lib.Len()
				merged, err := a.lib.ImportBooks(cmd.Context(), books)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d books (%d new). The library now holds %d books.\n",
					len(books), len(merged)-before, len(merged))
				return nil
			})
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the library as JSON",
		Long: `Write the library to ma-bibliotheque-YYYY-MM-DD.json in the current
directory, or to --out. Use --out - for standard output.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outPath, _ := cmd.Flags().GetString("out")
			genre, _ := cmd.Flags().GetString("genre")

			return withApp(cmd.Context(), func(a *app) error {
				books := models.FilterBooks(a.lib.Books(), models.Filter{Genre: genre})
				data, err := a.lib.ExportBooks(books)
				if err != nil {
					return err
				}
				if outPath == "-" {
					_, err = cmd.OutOrStdout().Write(append(data, '\n'))
					return err
				}
				if outPath == "" {
					outPath = database.ExportFileName(time.Now())
				}
				if err := fileops.WriteFile(outPath, data, 0o644, fileops.DefaultConfig()); err != nil {
					return fmt.Errorf("failed to write export: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d books to %s\n", len(books), outPath)
				return nil
			})
		},
	}
	cmd.Flags().StringP("out", "o", "", "output file (- for stdout)")
	cmd.Flags().String("genre", "", "only export this genre")
	return cmd
}

// readISBNs returns the valid ISBNs of r, one per line. Blank lines and
// lines starting with # are skipped; invalid ones are returned apart.
func readISBNs(r io.Reader) (valid, invalid []string, err error) {
	seen := map[string]bool{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		isbn := models.CleanISBN(line)
		if !models.IsValidISBN(isbn) {
			invalid = append(invalid, line)
			continue
		}
		if !seen[isbn] {
			seen[isbn] = true
			valid = append(valid, isbn)
		}
	}
	return valid, invalid, sc.Err()
}

func newImportISBNsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-isbns <file>",
		Short: "Look up and add a list of ISBNs",
		Long: `Read one ISBN per line, look each one up and add the books found.
ISBNs already in the library are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workers, _ := cmd.Flags().GetInt("workers")
			if workers < 1 {
				workers = 1
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			isbns, invalid, err := readISBNs(f)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			for _, line := range invalid {
				log.Printf("[WARN] skipping invalid ISBN %q", line)
			}

			return withApp(cmd.Context(), func(a *app) error {
				todo, _, present := operations.PendingISBNs(isbns, a.lib.Books())

				bar := progressbar.NewOptions(len(todo),
					progressbar.OptionSetWriter(cmd.ErrOrStderr()),
					progressbar.OptionSetDescription("Looking up ISBNs"),
					progressbar.OptionShowCount(),
				)
				job := &operations.ISBNImport{
					ISBNs:   todo,
					Workers: workers,
					Lookup:  a.lookup.SearchByISBN,
					Add: func(ctx context.Context, book models.Book) error {
						_, err := a.lib.AddBook(ctx, book)
						return err
					},
				}
				err := job.Run(cmd.Context(), &barReporter{ctx: cmd.Context(), bar: bar})
				_ = bar.Finish()

				fmt.Fprintf(cmd.OutOrStdout(), "\nAdded %d books, %d not found, %d already present, %d invalid lines.\n",
					job.Added(), job.Missing(), present, len(invalid))
				return err
			})
		},
	}
	cmd.Flags().Int("workers", 2, "number of parallel lookups")
	return cmd
}

// barReporter drives a progress bar from an import job.
type barReporter struct {
	ctx context.Context
	bar *progressbar.ProgressBar
}

func (r *barReporter) UpdateProgress(current, total int, message string) error {
	if current > 0 {
		_ = r.bar.Set(current)
	}
	return nil
}

func (r *barReporter) Log(level, message string) {
	log.Printf("[%s] %s", level, message)
}

func (r *barReporter) IsCanceled() bool {
	return r.ctx.Err() != nil
}
