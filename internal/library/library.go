// file: internal/library/library.go
// version: 1.0.0
// guid: 6a0c2e4f-8b1d-4d3a-9f5e-2c4a6e8b0d93

package library

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/jdfalk/book-library/internal/database"
	"github.com/jdfalk/book-library/internal/metrics"
	"github.com/jdfalk/book-library/internal/models"
)

// ErrBookNotFound is returned when an id is not in the collection.
var ErrBookNotFound = errors.New("book not found")

// Store is the persistence the library needs. database.BookStore satisfies it.
type Store interface {
	GetBooks(ctx context.Context) []models.Book
	AddBook(ctx context.Context, book models.Book) (models.Book, error)
	UpdateBook(ctx context.Context, book models.Book) (models.Book, error)
	RemoveBook(ctx context.Context, id string) error
	ImportBooks(ctx context.Context, books []models.Book) ([]models.Book, error)
}

// ChangeType names a collection change.
type ChangeType string

const (
	ChangeLoaded   ChangeType = "books.loaded"
	ChangeAdded    ChangeType = "book.added"
	ChangeUpdated  ChangeType = "book.updated"
	ChangeRemoved  ChangeType = "book.removed"
	ChangeImported ChangeType = "books.imported"
)

// Change describes one successful mutation. Book is set for single-book
// changes, ID for removals, Books (the whole collection) for loads and imports.
type Change struct {
	Type  ChangeType    `json:"type"`
	Book  *models.Book  `json:"book,omitempty"`
	ID    string        `json:"id,omitempty"`
	Books []models.Book `json:"books,omitempty"`
}

// Library is the in-memory book collection kept in step with a Store. The
// store is written first; memory only changes once the write succeeded.
type Library struct {
	store Store

	mu      sync.RWMutex
	books   []models.Book
	loading bool
	errMsg  string

	subsMu sync.RWMutex
	subs   []func(Change)
}

// New creates an empty library over store. Call Load before use.
func New(store Store) *Library {
	return &Library{store: store, books: []models.Book{}, loading: true}
}

// Load replaces the in-memory collection with the stored one.
func (l *Library) Load(ctx context.Context) {
	books := l.store.GetBooks(ctx)

	l.mu.Lock()
	l.books = models.CloneBooks(books)
	l.loading = false
	l.errMsg = ""
	snapshot := models.CloneBooks(l.books)
	l.mu.Unlock()

	metrics.SetBooks(len(snapshot))
	log.Printf("[INFO] library loaded: %d books", len(snapshot))
	l.publish(Change{Type: ChangeLoaded, Books: snapshot})
}

// Loading reports whether Load has not completed yet.
func (l *Library) Loading() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loading
}

// Books returns a copy of the collection in storage order.
func (l *Library) Books() []models.Book {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return models.CloneBooks(l.books)
}

// Len returns the number of books.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.books)
}

// Get returns the book with id.
func (l *Library) Get(id string) (models.Book, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, b := range l.books {
		if b.ID == id {
			return b.Clone(), true
		}
	}
	return models.Book{}, false
}

// Error returns the message of the last failed operation, or "".
func (l *Library) Error() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.errMsg
}

// ClearError resets the last error message.
func (l *Library) ClearError() {
	l.setError("")
}

func (l *Library) setError(msg string) {
	l.mu.Lock()
	l.errMsg = msg
	l.mu.Unlock()
}

// Subscribe registers fn for every successful change.
func (l *Library) Subscribe(fn func(Change)) {
	l.subsMu.Lock()
	l.subs = append(l.subs, fn)
	l.subsMu.Unlock()
}

func (l *Library) publish(c Change) {
	l.subsMu.RLock()
	subs := append([]func(Change){}, l.subs...)
	l.subsMu.RUnlock()
	for _, fn := range subs {
		fn(c)
	}
}

// AddBook validates book, persists it and appends the stored record.
func (l *Library) AddBook(ctx context.Context, book models.Book) (models.Book, error) {
	if err := book.Validate(); err != nil {
		l.setError("the book is incomplete: title and author are required")
		return models.Book{}, err
	}
	stored, err := l.store.AddBook(ctx, book)
	if err != nil {
		log.Printf("[ERROR] add book %q: %v", book.Title, err)
		l.setError("could not add the book, please try again")
		return models.Book{}, fmt.Errorf("add book: %w", err)
	}

	l.mu.Lock()
	l.books = append(l.books, stored.Clone())
	n := len(l.books)
	l.mu.Unlock()

	metrics.SetBooks(n)
	log.Printf("[INFO] book added: %s (%q by %s)", stored.ID, stored.Title, stored.Author)
	out := stored.Clone()
	l.publish(Change{Type: ChangeAdded, Book: &out})
	return stored, nil
}

// UpdateBook persists book and replaces the record with the same id. An id
// that is not in the collection changes nothing.
func (l *Library) UpdateBook(ctx context.Context, book models.Book) (models.Book, error) {
	if book.ReadingStatus != "" && !book.ReadingStatus.Valid() {
		l.setError("unknown reading status")
		return models.Book{}, fmt.Errorf("%w: unknown reading status %q", models.ErrValidation, book.ReadingStatus)
	}
	result, err := l.store.UpdateBook(ctx, book)
	if err != nil {
		log.Printf("[ERROR] update book %s: %v", book.ID, err)
		l.setError("could not update the book, please try again")
		return models.Book{}, fmt.Errorf("update book: %w", err)
	}

	l.mu.Lock()
	for i := range l.books {
		if l.books[i].ID == result.ID {
			l.books[i] = result.Clone()
		}
	}
	l.mu.Unlock()

	out := result.Clone()
	l.publish(Change{Type: ChangeUpdated, Book: &out})
	return result, nil
}

// RemoveBook deletes the record with id. An absent id is not an error.
func (l *Library) RemoveBook(ctx context.Context, id string) error {
	if err := l.store.RemoveBook(ctx, id); err != nil {
		log.Printf("[ERROR] remove book %s: %v", id, err)
		l.setError("could not delete the book, please try again")
		return fmt.Errorf("remove book: %w", err)
	}

	l.mu.Lock()
	kept := make([]models.Book, 0, len(l.books))
	for _, b := range l.books {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	l.books = kept
	n := len(kept)
	l.mu.Unlock()

	metrics.SetBooks(n)
	l.publish(Change{Type: ChangeRemoved, ID: id})
	return nil
}

// ImportBooks merges books into the collection by id and returns the
// merged collection.
func (l *Library) ImportBooks(ctx context.Context, books []models.Book) ([]models.Book, error) {
	merged, err := l.store.ImportBooks(ctx, books)
	if err != nil {
		log.Printf("[ERROR] import %d books: %v", len(books), err)
		l.setError("could not import the books, please try again")
		return nil, fmt.Errorf("import books: %w", err)
	}

	l.mu.Lock()
	l.books = models.CloneBooks(merged)
	snapshot := models.CloneBooks(l.books)
	l.mu.Unlock()

	metrics.SetBooks(len(snapshot))
	log.Printf("[INFO] imported %d books, collection now has %d", len(books), len(snapshot))
	l.publish(Change{Type: ChangeImported, Books: snapshot})
	return merged, nil
}

// ExportBooks renders books (typically a filtered view) as indented JSON.
func (l *Library) ExportBooks(books []models.Book) ([]byte, error) {
	data, err := database.ExportBooks(books)
	if err != nil {
		l.setError("could not export the books, please try again")
		return nil, fmt.Errorf("export books: %w", err)
	}
	return data, nil
}
