// file: cmd/scan.go
// version: 1.0.0
// guid: 9b1d3f5a-7c8e-4a0b-b2d4-6f8a0c2e4a17

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jdfalk/book-library/internal/config"
	"github.com/jdfalk/book-library/internal/library"
	"github.com/jdfalk/book-library/internal/scanner"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan barcodes to add books",
		Long: `Add books by ISBN: type it, decode it from photos of the barcode, or
watch a folder where a phone or scanner drops pictures.`,
	}
	cmd.AddCommand(newScanISBNCmd(), newScanSimulateCmd(), newScanImageCmd(), newScanWatchCmd())
	return cmd
}

// printAdded reports every book the library gains while a scan command runs.
func printAdded(w io.Writer, lib *library.Library) {
	var mu sync.Mutex
	lib.Subscribe(func(c library.Change) {
		if c.Type != library.ChangeAdded || c.Book == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "Added %q by %s (%s)\n", c.Book.Title, formatValue(c.Book.Author), c.Book.ISBN)
	})
}

// finishScan waits for the lookup and turns a recorded failure into an error.
func finishScan(a *app) error {
	a.scan.Wait()
	if st := a.scan.Status(); st.Err != "" {
		return errors.New(st.Err)
	}
	return nil
}

func newScanISBNCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "isbn <isbn>",
		Short: "Look up a typed ISBN and add the book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				printAdded(cmd.OutOrStdout(), a.lib)
				if err := a.scan.SearchISBN(args[0]); err != nil {
					return err
				}
				return finishScan(a)
			})
		},
	}
}

func newScanSimulateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "simulate",
		Short: "Pretend a barcode was scanned",
		Long:  `Submit the configured test ISBN (simulate_isbn) as if it had been scanned.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				printAdded(cmd.OutOrStdout(), a.lib)
				if err := a.scan.SimulateScan(); err != nil {
					return err
				}
				return finishScan(a)
			})
		},
	}
}

func newScanImageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "image <file>...",
		Short: "Decode barcodes from image files",
		Long: `Decode the EAN-13 barcode of each image and add the matching books.
A failing image is reported and the next one is processed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				printAdded(cmd.OutOrStdout(), a.lib)
				failed := 0
				for _, path := range args {
					if err := scanImageFile(cmd.Context(), a, path); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
						failed++
					}
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d images failed", failed, len(args))
				}
				return nil
			})
		},
	}
}

func scanImageFile(ctx context.Context, a *app, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	img, err := scanner.LoadImage(f)
	if err != nil {
		return err
	}
	if err := a.scan.ProcessImage(ctx, img); err != nil {
		return err
	}
	return finishScan(a)
}

func newScanWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Add books from barcode photos dropped in a folder",
		Long: `Watch a folder (scan_watch_dir by default) and look up the barcode of
every image written to it until interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := config.AppConfig.ScanWatchDir
			if len(args) == 1 {
				dir = args[0]
			}
			if dir == "" {
				return fmt.Errorf("no folder to watch: pass one or set scan_watch_dir")
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return withApp(ctx, func(a *app) error {
				out := cmd.OutOrStdout()
				printAdded(out, a.lib)
				a.scan.SetStream(scanner.NewFolderStream(dir, a.decoder))
				a.scan.Subscribe(func(st scanner.Status) {
					if st.Err != "" {
						log.Printf("[WARN] scan: %s", st.Err)
					}
				})
				if err := a.scan.Start(); err != nil {
					return err
				}
				fmt.Fprintf(out, "Watching %s for barcode images. Press Ctrl+C to stop.\n", dir)
				<-ctx.Done()
				a.scan.Stop()
				fmt.Fprintln(out, "Stopped.")
				return nil
			})
		},
	}
}
