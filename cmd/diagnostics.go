// file: cmd/diagnostics.go
// version: 2.0.0
// guid: c8f6a0d4-2a8b-48cf-9d08-02cc9915d9fc

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/pebble/v2"
	"github.com/spf13/cobra"

	"github.com/jdfalk/book-library/internal/config"
	"github.com/jdfalk/book-library/internal/models"
)

func newDiagnosticsCmd() *cobra.Command {
	diagnosticsCmd := &cobra.Command{
		Use:   "diagnostics",
		Short: "Debugging and cleanup helpers",
		Long:  "Diagnostic utilities for inspecting and repairing the book database.",
	}

	cleanupCmd := &cobra.Command{
		Use:   "cleanup-invalid",
		Short: "Remove records without a title or with a malformed ISBN",
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("yes")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			return runCleanupInvalidBooks(cmd, force, dryRun)
		},
	}
	cleanupCmd.Flags().Bool("yes", false, "Skip confirmation prompt")
	cleanupCmd.Flags().Bool("dry-run", false, "List invalid records without deleting")

	queryCmd := &cobra.Command{
		Use:   "query",
		Short: "Inspect stored book records",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			prefix, _ := cmd.Flags().GetString("prefix")
			raw, _ := cmd.Flags().GetBool("raw")
			return runDiagnosticsQuery(cmd, limit, prefix, raw)
		},
	}
	queryCmd.Flags().Int("limit", 5, "Number of records to display")
	queryCmd.Flags().String("prefix", "kv:", "Key prefix to inspect when --raw is set")
	queryCmd.Flags().Bool("raw", false, "Show raw Pebble key/value data (Pebble only)")

	diagnosticsCmd.AddCommand(cleanupCmd, queryCmd)
	return diagnosticsCmd
}

// invalidReason explains why a stored book cannot be kept, "" when it can.
func invalidReason(b models.Book) string {
	if err := b.Validate(); err != nil {
		return err.Error()
	}
	if b.ISBN != "" && !models.IsValidISBN(models.CleanISBN(b.ISBN)) {
		return fmt.Sprintf("malformed ISBN %q", b.ISBN)
	}
	return ""
}

func runCleanupInvalidBooks(cmd *cobra.Command, force, dryRun bool) error {
	out := cmd.OutOrStdout()
	return withApp(cmd.Context(), func(a *app) error {
		fmt.Fprintf(out, "Inspecting books in %s (%s)\n", config.AppConfig.DatabasePath, config.AppConfig.DatabaseType)

		var invalid []models.Book
		var reasons []string
		for _, book := range a.lib.Books() {
			if reason := invalidReason(book); reason != "" {
				invalid = append(invalid, book)
				reasons = append(reasons, reason)
			}
		}

		if len(invalid) == 0 {
			fmt.Fprintln(out, "No invalid book records detected.")
			return nil
		}

		fmt.Fprintf(out, "Found %d invalid records:\n", len(invalid))
		for i, book := range invalid {
			fmt.Fprintf(out, "%2d. ID: %s\n", i+1, book.ID)
			fmt.Fprintf(out, "    Title:  %s\n", formatValue(book.Title))
			fmt.Fprintf(out, "    Reason: %s\n", reasons[i])
		}

		if dryRun {
			fmt.Fprintln(out, "Dry run enabled; no deletions were performed.")
			return nil
		}

		if !force {
			confirmed, err := promptYesNo(cmd.InOrStdin(), out, fmt.Sprintf("Delete %d records", len(invalid)))
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Fprintln(out, "Aborted. No records deleted.")
				return nil
			}
		}

		deleted := 0
		for _, book := range invalid {
			if err := a.lib.RemoveBook(cmd.Context(), book.ID); err != nil {
				fmt.Fprintf(out, "Failed to delete %s: %v\n", book.ID, err)
				continue
			}
			deleted++
		}

		fmt.Fprintf(out, "Deleted %d invalid records.\n", deleted)
		return nil
	})
}

func runDiagnosticsQuery(cmd *cobra.Command, limit int, prefix string, raw bool) error {
	if limit <= 0 {
		return errors.New("limit must be positive")
	}

	if raw {
		if t := strings.ToLower(config.AppConfig.DatabaseType); t != "pebble" && t != "" {
			return fmt.Errorf("raw inspection is only available for Pebble databases")
		}
		return runRawPebbleQuery(cmd.OutOrStdout(), limit, prefix)
	}

	out := cmd.OutOrStdout()
	return withApp(cmd.Context(), func(a *app) error {
		if msg := a.lib.Error(); msg != "" {
			fmt.Fprintf(out, "Load error: %s\n", msg)
		}
		books := a.lib.Books()
		if len(books) == 0 {
			fmt.Fprintln(out, "No books found.")
			return nil
		}
		fmt.Fprintf(out, "%d books stored under %q\n", len(books), config.AppConfig.StorageKey)
		for i, book := range books {
			if i >= limit {
				break
			}
			fmt.Fprintf(out, "%2d. ID: %s\n", i+1, book.ID)
			fmt.Fprintf(out, "    Title: %s\n", formatValue(book.Title))
			fmt.Fprintf(out, "    ISBN: %s\n", formatValue(book.ISBN))
			fmt.Fprintf(out, "    Description: %s\n", formatValue(truncateString(book.Description, 80)))
			fmt.Fprintln(out, "---")
		}
		return nil
	})
}

func runRawPebbleQuery(out io.Writer, limit int, prefix string) error {
	db, err := pebble.Open(config.AppConfig.DatabasePath, &pebble.Options{
		FormatMajorVersion: pebble.FormatNewest,
	})
	if err != nil {
		return fmt.Errorf("failed to open Pebble database: %w", err)
	}
	defer db.Close()

	iterOpts := &pebble.IterOptions{}
	if prefix != "" {
		iterOpts.LowerBound = []byte(prefix)
		iterOpts.UpperBound = append([]byte(prefix), 0xFF)
	}

	iter, err := db.NewIter(iterOpts)
	if err != nil {
		return fmt.Errorf("failed to create iterator: %w", err)
	}
	defer iter.Close()

	count := 0
	for ok := iter.First(); ok && iter.Valid(); ok = iter.Next() {
		fmt.Fprintf(out, "Key: %s\n", string(iter.Key()))
		val := iter.Value()
		fmt.Fprintf(out, "Value length: %d bytes\n", len(val))
		fmt.Fprintf(out, "Value preview: %s\n", truncateString(string(val), 500))
		fmt.Fprintln(out, "---")

		count++
		if count >= limit {
			break
		}
	}

	if err := iter.Error(); err != nil {
		return fmt.Errorf("iterator error: %w", err)
	}

	if count == 0 {
		fmt.Fprintln(out, "No keys matched the requested prefix.")
	}

	return nil
}

func promptYesNo(in io.Reader, out io.Writer, action string) (bool, error) {
	fmt.Fprintf(out, "%s? Type 'yes' to confirm: ", action)
	reader := bufio.NewReader(in)
	response, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "yes", nil
}

func truncateString(in string, max int) string {
	if len(in) <= max {
		return in
	}
	return in[:max] + "..."
}
