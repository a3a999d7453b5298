// file: cmd/app.go
// version: 1.0.0
// guid: 5d7f9b1c-3e4a-4c6d-8f0a-2b4d6f8a0c35

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jdfalk/book-library/internal/config"
	"github.com/jdfalk/book-library/internal/database"
	"github.com/jdfalk/book-library/internal/library"
	"github.com/jdfalk/book-library/internal/metadata"
	"github.com/jdfalk/book-library/internal/models"
	"github.com/jdfalk/book-library/internal/scanner"
	"github.com/jdfalk/book-library/internal/search"
)

// app holds the services a command works with, wired from config.AppConfig.
type app struct {
	kv      database.KV
	store   *database.BookStore
	lib     *library.Library
	index   *search.Index
	lookup  *metadata.Lookup
	scan    *scanner.Controller
	decoder *scanner.ZXingDecoder
}

// openApp opens storage, loads the library and wires the index, lookup
// chain and scan controller. Scanned books are added to the library.
func openApp(ctx context.Context) (*app, error) {
	cfg := config.AppConfig

	kv, err := database.Open(ctx, cfg.DatabaseOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Printf("[DEBUG] using database %s (%s)", cfg.DatabasePath, cfg.DatabaseType)

	a := &app{kv: kv}
	a.store = database.NewBookStore(kv, cfg.StorageKey)
	a.lib = library.New(a.store)

	a.index, err = search.NewIndex()
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("failed to create search index: %w", err)
	}
	if err := a.index.Attach(a.lib); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to attach search index: %w", err)
	}
	a.lib.Load(ctx)

	a.lookup = metadata.NewLookup(cfg.LookupConfig())
	a.decoder = scanner.NewZXingDecoder()
	a.scan = scanner.NewController(a.lookup.SearchByISBN, func(ctx context.Context, b models.Book) error {
		_, err := a.lib.AddBook(ctx, b)
		return err
	}, cfg.ScannerOptions())
	a.scan.SetDecoder(a.decoder)
	if cfg.ScanWatchDir != "" {
		a.scan.SetStream(scanner.NewFolderStream(cfg.ScanWatchDir, a.decoder))
	}
	return a, nil
}

// Close waits for an in-flight lookup, then releases everything.
func (a *app) Close() error {
	var errs []error
	if a.scan != nil {
		a.scan.Wait()
		errs = append(errs, a.scan.Close())
	}
	if a.index != nil {
		errs = append(errs, a.index.Close())
	}
	if a.kv != nil {
		errs = append(errs, a.kv.Close())
	}
	return errors.Join(errs...)
}

// withApp runs fn with an open app and closes it afterwards.
func withApp(ctx context.Context, fn func(*app) error) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Printf("[WARN] closing resources: %v", err)
		}
	}()
	return fn(a)
}

// findBook resolves a full id or a unique id prefix.
func findBook(lib *library.Library, idOrPrefix string) (models.Book, error) {
	if b, ok := lib.Get(idOrPrefix); ok {
		return b, nil
	}
	var match []models.Book
	for _, b := range lib.Books() {
		if len(idOrPrefix) >= 4 && len(b.ID) >= len(idOrPrefix) && b.ID[:len(idOrPrefix)] == idOrPrefix {
			match = append(match, b)
		}
	}
	switch len(match) {
	case 0:
		return models.Book{}, fmt.Errorf("%w: %s", library.ErrBookNotFound, idOrPrefix)
	case 1:
		return match[0], nil
	}
	return models.Book{}, fmt.Errorf("id prefix %q matches %d books", idOrPrefix, len(match))
}
