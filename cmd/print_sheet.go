// file: cmd/print_sheet.go
// version: 1.0.0
// guid: 4c6e8a0c-2d3f-4b5a-8e7c-9b1d3f5a7c04

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jdfalk/book-library/internal/fileops"
	"github.com/jdfalk/book-library/internal/printsheet"
)

func newPrintSheetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "print-sheet",
		Short: "Render a distributor's round sheet as HTML",
		Long: `Read the columnar tables of a spreadsheet export (JSON) and render the
print sheet of one distributor: contact block, summary and the table of
the merchants assigned to them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tablesPath, _ := cmd.Flags().GetString("tables")
			distributor, _ := cmd.Flags().GetString("distributor")
			outPath, _ := cmd.Flags().GetString("out")

			f, err := os.Open(tablesPath)
			if err != nil {
				return fmt.Errorf("failed to open tables: %w", err)
			}
			defer f.Close()
			tables, err := printsheet.ReadTables(f)
			if err != nil {
				return err
			}

			var sheet printsheet.Sheet
			if distributor != "" {
				if sheet, err = printsheet.NewSheet(tables, distributor); err != nil {
					return err
				}
			}

			if outPath == "" || outPath == "-" {
				return printsheet.Render(cmd.OutOrStdout(), sheet, time.Now())
			}
			out, err := fileops.CreateAtomic(outPath, 0o644)
			if err != nil {
				return err
			}
			defer out.Abort()
			if err := printsheet.Render(out, sheet, time.Now()); err != nil {
				return err
			}
			if err := out.Commit(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sheet for %d merchants to %s\n", len(sheet.Merchants), outPath)
			return nil
		},
	}
	cmd.Flags().String("tables", "", "JSON export holding the distributor and merchant tables")
	cmd.Flags().String("distributor", "", "distributor id (empty prints the no-selection notice)")
	cmd.Flags().StringP("out", "o", "", "output HTML file (default stdout)")
	_ = cmd.MarkFlagRequired("tables")
	return cmd
}
