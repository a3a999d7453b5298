// file: internal/database/book_store.go
// version: 1.0.0
// guid: 5f1c7a3e-92d4-4b6a-8e0f-c3d7b2a91e46

package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jdfalk/book-library/internal/metrics"
	"github.com/jdfalk/book-library/internal/models"
)

// BookStore keeps the whole book collection as one JSON list under a single
// KV key. Every mutation reads the list, changes it and writes it back.
type BookStore struct {
	kv  KV
	key string

	// serializes read-modify-write cycles within this process
	mu sync.Mutex
}

// NewBookStore wraps kv. An empty key falls back to DefaultStorageKey.
func NewBookStore(kv KV, key string) *BookStore {
	if key == "" {
		key = DefaultStorageKey
	}
	return &BookStore{kv: kv, key: key}
}

// Key returns the storage key the collection lives under.
func (s *BookStore) Key() string { return s.key }

// GetBooks returns the persisted collection. Missing, unreadable or corrupt
// data yields an empty list; the failure is logged, never returned.
func (s *BookStore) GetBooks(ctx context.Context) []models.Book {
	books, err := s.load(ctx)
	if err != nil {
		log.Printf("[WARN] book store: failed to read %q: %v", s.key, err)
		metrics.IncStoreOp("get", err)
		return []models.Book{}
	}
	metrics.IncStoreOp("get", nil)
	return books
}

// load reads and decodes the list. Absent keys and undecodable payloads read
// as an empty list; only I/O errors from the backend are returned.
func (s *BookStore) load(ctx context.Context) ([]models.Book, error) {
	data, err := s.kv.Read(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return []models.Book{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return []models.Book{}, nil
	}
	var books []models.Book
	if err := json.Unmarshal(data, &books); err != nil {
		log.Printf("[WARN] book store: discarding corrupt data under %q: %v", s.key, err)
		return []models.Book{}, nil
	}
	if books == nil {
		books = []models.Book{}
	}
	return books, nil
}

func (s *BookStore) save(ctx context.Context, books []models.Book) error {
	data, err := json.Marshal(books)
	if err != nil {
		return fmt.Errorf("failed to encode books: %w", err)
	}
	if err := s.kv.Write(ctx, s.key, data); err != nil {
		return fmt.Errorf("failed to write books: %w", err)
	}
	metrics.SetBooks(len(books))
	return nil
}

// prepare fills the fields every stored book must carry.
func prepare(b models.Book) models.Book {
	b = b.Clone()
	b.ApplyDefaults()
	return b
}

// AddBook appends book to the collection and returns the stored record.
func (s *BookStore) AddBook(ctx context.Context, book models.Book) (models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.load(ctx)
	if err != nil {
		metrics.IncStoreOp("add", err)
		return models.Book{}, fmt.Errorf("failed to add book: %w", err)
	}
	stored := prepare(book)
	books = append(books, stored)
	err = s.save(ctx, books)
	metrics.IncStoreOp("add", err)
	if err != nil {
		return models.Book{}, fmt.Errorf("failed to add book: %w", err)
	}
	return stored.Clone(), nil
}

// UpdateBook replaces the record with book.ID. An unknown id leaves the
// collection unchanged and is not an error. The returned record carries the
// stored defaults.
func (s *BookStore) UpdateBook(ctx context.Context, book models.Book) (models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.load(ctx)
	if err != nil {
		metrics.IncStoreOp("update", err)
		return models.Book{}, fmt.Errorf("failed to update book: %w", err)
	}
	if book.ID == "" {
		metrics.IncStoreOp("update", nil)
		return book, nil
	}
	stored := prepare(book)
	for i := range books {
		if books[i].ID == stored.ID {
			books[i] = stored
		}
	}
	err = s.save(ctx, books)
	metrics.IncStoreOp("update", err)
	if err != nil {
		return models.Book{}, fmt.Errorf("failed to update book: %w", err)
	}
	return stored.Clone(), nil
}

// RemoveBook drops the record with id. Removing an absent id is not an error.
func (s *BookStore) RemoveBook(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.load(ctx)
	if err != nil {
		metrics.IncStoreOp("remove", err)
		return fmt.Errorf("failed to remove book: %w", err)
	}
	kept := books[:0]
	for _, b := range books {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	err = s.save(ctx, kept)
	metrics.IncStoreOp("remove", err)
	if err != nil {
		return fmt.Errorf("failed to remove book: %w", err)
	}
	return nil
}

// ImportBooks merges incoming into the collection by id. Existing records
// keep their position and are overwritten; new ids are appended in input
// order; the last record for a repeated id wins. Returns the merged list.
func (s *BookStore) ImportBooks(ctx context.Context, incoming []models.Book) ([]models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.load(ctx)
	if err != nil {
		metrics.IncStoreOp("import", err)
		return nil, fmt.Errorf("failed to import books: %w", err)
	}
	merged := MergeBooks(books, incoming)
	err = s.save(ctx, merged)
	metrics.IncStoreOp("import", err)
	if err != nil {
		return nil, fmt.Errorf("failed to import books: %w", err)
	}
	return models.CloneBooks(merged), nil
}

// MergeBooks is the id-keyed merge ImportBooks persists. Incoming records get
// the stored defaults for id, reading status and genre.
func MergeBooks(existing, incoming []models.Book) []models.Book {
	merged := models.CloneBooks(existing)
	index := make(map[string]int, len(merged))
	for i, b := range merged {
		index[b.ID] = i
	}
	for _, b := range incoming {
		b = prepare(b)
		if i, ok := index[b.ID]; ok {
			merged[i] = b
			continue
		}
		index[b.ID] = len(merged)
		merged = append(merged, b)
	}
	return merged
}

// ExportFileName is the download name for an export made on day.
func ExportFileName(day time.Time) string {
	return fmt.Sprintf("ma-bibliotheque-%s.json", day.Format("2006-01-02"))
}

// ExportBooks renders books as indented JSON. It does not touch storage.
func ExportBooks(books []models.Book) ([]byte, error) {
	if books == nil {
		books = []models.Book{}
	}
	return json.MarshalIndent(books, "", "  ")
}

// ParseBooks decodes a JSON array of book records, the format ExportBooks writes.
func ParseBooks(data []byte) ([]models.Book, error) {
	var books []models.Book
	if err := json.Unmarshal(data, &books); err != nil {
		return nil, fmt.Errorf("%w: import file must contain a JSON array of books: %v", models.ErrValidation, err)
	}
	if books == nil {
		return nil, fmt.Errorf("%w: import file must contain a JSON array of books", models.ErrValidation)
	}
	return books, nil
}
