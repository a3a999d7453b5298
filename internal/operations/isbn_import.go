// file: internal/operations/isbn_import.go
// version: 1.0.0
// guid: 3b5d7f91-2a4c-4e6b-8d0f-1c3e5a7b9d24

package operations

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/jdfalk/book-library/internal/models"
)

// OpISBNImport is the operation type of batch ISBN imports.
const OpISBNImport = "isbn_import"

// ISBNImport looks up a list of ISBNs and adds the books found. Run matches
// OperationFunc so the job can go through the queue or be called directly.
type ISBNImport struct {
	ISBNs   []string
	Workers int
	Lookup  func(ctx context.Context, isbn string) (*models.Book, error)
	Add     func(ctx context.Context, book models.Book) error

	added   atomic.Int64
	missing atomic.Int64
}

// Added returns how many books were added so far.
func (imp *ISBNImport) Added() int { return int(imp.added.Load()) }

// Missing returns how many ISBNs were not found or could not be added.
func (imp *ISBNImport) Missing() int { return int(imp.missing.Load()) }

// Run processes every ISBN with at most Workers lookups in flight.
func (imp *ISBNImport) Run(ctx context.Context, progress ProgressReporter) error {
	workers := imp.Workers
	if workers < 1 {
		workers = 1
	}
	total := len(imp.ISBNs)
	if err := progress.UpdateProgress(0, total, fmt.Sprintf("looking up %d ISBNs", total)); err != nil {
		return err
	}

	var (
		mu   sync.Mutex
		done int
		wg   sync.WaitGroup
	)
	semaphore := make(chan struct{}, workers)
	for _, isbn := range imp.ISBNs {
		if progress.IsCanceled() {
			break
		}
		wg.Add(1)
		semaphore <- struct{}{}
		go func(isbn string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			msg := "added " + isbn
			if err := imp.importOne(ctx, isbn); err != nil {
				imp.missing.Add(1)
				progress.Log("WARN", err.Error())
				msg = "skipped " + isbn
			} else {
				imp.added.Add(1)
			}

			mu.Lock()
			done++
			n := done
			mu.Unlock()
			_ = progress.UpdateProgress(n, total, msg)
		}(isbn)
	}
	wg.Wait()

	log.Printf("[INFO] ISBN import: %d added, %d missing of %d", imp.Added(), imp.Missing(), total)
	return ctx.Err()
}

func (imp *ISBNImport) importOne(ctx context.Context, isbn string) error {
	book, err := imp.Lookup(ctx, isbn)
	if err != nil {
		return err
	}
	if err := imp.Add(ctx, *book); err != nil {
		return fmt.Errorf("adding %s: %w", isbn, err)
	}
	return nil
}

// PendingISBNs splits raw input into ISBNs still to import, the lines that
// are not valid ISBNs, and the number already present in have. Duplicates
// collapse to their first occurrence.
func PendingISBNs(raw []string, have []models.Book) (todo, invalid []string, present int) {
	owned := make(map[string]bool, len(have))
	for _, b := range have {
		owned[models.CleanISBN(b.ISBN)] = true
	}
	seen := map[string]bool{}
	for _, line := range raw {
		isbn := models.CleanISBN(line)
		switch {
		case !models.IsValidISBN(isbn):
			invalid = append(invalid, line)
		case seen[isbn]:
		case owned[isbn]:
			seen[isbn] = true
			present++
		default:
			seen[isbn] = true
			todo = append(todo, isbn)
		}
	}
	return todo, invalid, present
}
