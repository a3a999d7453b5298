// file: internal/database/book_store_test.go
// version: 1.0.0
// guid: 2b8d4e6f-1a3c-4e5b-9d7f-0c2e4a6b8d1f

package database

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdfalk/book-library/internal/models"
)

func newTestStore(t *testing.T) (*BookStore, *MemoryKV) {
	t.Helper()
	kv := NewMemoryKV()
	return NewBookStore(kv, ""), kv
}

func TestNewBookStoreDefaultKey(t *testing.T) {
	store, _ := newTestStore(t)
	assert.Equal(t, DefaultStorageKey, store.Key())
	assert.Equal(t, "custom", NewBookStore(NewMemoryKV(), "custom").Key())
}

func TestGetBooksEmptyWhenAbsent(t *testing.T) {
	store, _ := newTestStore(t)
	books := store.GetBooks(context.Background())
	assert.NotNil(t, books)
	assert.Empty(t, books)
}

func TestGetBooksCorruptDataReadsEmpty(t *testing.T) {
	store, kv := newTestStore(t)
	require.NoError(t, kv.Write(context.Background(), DefaultStorageKey, []byte("{not json")))
	assert.Empty(t, store.GetBooks(context.Background()))
}

func TestGetBooksReadFailureReadsEmpty(t *testing.T) {
	store := NewBookStore(&MockKV{
		ReadFunc: func(ctx context.Context, key string) ([]byte, error) {
			return nil, errors.New("storage unavailable")
		},
	}, "")
	assert.Empty(t, store.GetBooks(context.Background()))
}

func TestAddBookAssignsIDAndStatus(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	a, err := store.AddBook(ctx, models.Book{Title: "L'Étranger", Author: "Albert Camus"})
	require.NoError(t, err)
	b, err := store.AddBook(ctx, models.Book{Title: "La Peste", Author: "Albert Camus", ReadingStatus: models.StatusRead})
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, models.StatusUnread, a.ReadingStatus)
	assert.Equal(t, models.StatusRead, b.ReadingStatus)

	books := store.GetBooks(ctx)
	require.Len(t, books, 2)
	assert.Equal(t, "L'Étranger", books[0].Title)
	assert.Equal(t, "La Peste", books[1].Title)
}

func TestAddBookKeepsGivenID(t *testing.T) {
	store, _ := newTestStore(t)
	got, err := store.AddBook(context.Background(), models.Book{ID: "fixed", Title: "T", Author: "A"})
	require.NoError(t, err)
	assert.Equal(t, "fixed", got.ID)
}

func TestAddBookWriteFailure(t *testing.T) {
	store := NewBookStore(&MockKV{
		WriteFunc: func(ctx context.Context, key string, value []byte) error {
			return errors.New("quota exceeded")
		},
	}, "")

	_, err := store.AddBook(context.Background(), models.Book{Title: "T", Author: "A"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Empty(t, store.GetBooks(context.Background()))
}

func TestMutationsFailOnReadError(t *testing.T) {
	readErr := errors.New("io error")
	writes := 0
	store := NewBookStore(&MockKV{
		ReadFunc: func(ctx context.Context, key string) ([]byte, error) { return nil, readErr },
		WriteFunc: func(ctx context.Context, key string, value []byte) error {
			writes++
			return nil
		},
	}, "")
	ctx := context.Background()

	_, err := store.AddBook(ctx, models.Book{Title: "T", Author: "A"})
	assert.ErrorIs(t, err, readErr)
	_, err = store.UpdateBook(ctx, models.Book{ID: "1"})
	assert.ErrorIs(t, err, readErr)
	assert.ErrorIs(t, store.RemoveBook(ctx, "1"), readErr)
	_, err = store.ImportBooks(ctx, []models.Book{{Title: "T"}})
	assert.ErrorIs(t, err, readErr)
	assert.Zero(t, writes)
}

func TestUpdateBookReplacesByID(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	a, _ := store.AddBook(ctx, models.Book{Title: "A", Author: "X"})
	b, _ := store.AddBook(ctx, models.Book{Title: "B", Author: "Y"})

	b.ReadingStatus = models.StatusReading
	b.Title = "B2"
	got, err := store.UpdateBook(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, b, got)

	books := store.GetBooks(ctx)
	require.Len(t, books, 2)
	assert.Equal(t, a, books[0])
	assert.Equal(t, "B2", books[1].Title)
	assert.Equal(t, models.StatusReading, books[1].ReadingStatus)
}

func TestUpdateUnknownIDLeavesCollectionUnchanged(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	_, _ = store.AddBook(ctx, models.Book{Title: "A", Author: "X"})
	before := store.GetBooks(ctx)

	ghost := models.Book{ID: "ghost", Title: "G", Author: "G"}
	got, err := store.UpdateBook(ctx, ghost)
	require.NoError(t, err)
	assert.Equal(t, "ghost", got.ID)
	assert.Equal(t, before, store.GetBooks(ctx))
}

func TestStoredBooksCarryDefaults(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	added, err := store.AddBook(ctx, models.Book{Title: "T", Author: "A"})
	require.NoError(t, err)
	assert.Equal(t, models.GenreUnspecified, added.Genre)
	assert.Equal(t, models.StatusUnread, added.ReadingStatus)

	updated, err := store.UpdateBook(ctx, models.Book{ID: added.ID, Title: "T2", Author: "A", Genre: "  "})
	require.NoError(t, err)
	assert.Equal(t, models.GenreUnspecified, updated.Genre)
	assert.Equal(t, models.StatusUnread, updated.ReadingStatus)

	merged, err := store.ImportBooks(ctx, []models.Book{{ID: "imp", Title: "I", Author: "B", PageCount: -3}})
	require.NoError(t, err)
	require.Len(t, merged, 2)

	books := store.GetBooks(ctx)
	require.Len(t, books, 2)
	for _, b := range books {
		assert.Equal(t, models.GenreUnspecified, b.Genre, b.ID)
		assert.Equal(t, models.StatusUnread, b.ReadingStatus, b.ID)
	}
	assert.Equal(t, "T2", books[0].Title)
	assert.Zero(t, books[1].PageCount)
}

func TestUpdateWithoutIDWritesNothing(t *testing.T) {
	store, kv := newTestStore(t)
	ctx := context.Background()
	_, _ = store.AddBook(ctx, models.Book{Title: "A", Author: "X"})
	before, err := kv.Read(ctx, store.Key())
	require.NoError(t, err)

	_, err = store.UpdateBook(ctx, models.Book{Title: "No id", Author: "X"})
	require.NoError(t, err)
	after, err := kv.Read(ctx, store.Key())
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Len(t, store.GetBooks(ctx), 1)
}

func TestRemoveBook(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	a, _ := store.AddBook(ctx, models.Book{Title: "A", Author: "X"})
	b, _ := store.AddBook(ctx, models.Book{Title: "B", Author: "Y"})

	require.NoError(t, store.RemoveBook(ctx, a.ID))
	assert.Equal(t, []models.Book{b}, store.GetBooks(ctx))

	// absent id is a no-op
	require.NoError(t, store.RemoveBook(ctx, "nope"))
	assert.Equal(t, []models.Book{b}, store.GetBooks(ctx))
}

func TestImportBooksMerge(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	a, _ := store.AddBook(ctx, models.Book{Title: "A", Author: "X"})
	b, _ := store.AddBook(ctx, models.Book{Title: "B", Author: "Y"})

	incoming := []models.Book{
		{ID: b.ID, Title: "B first", Author: "Y"},
		{Title: "New", Author: "Z"},
		{ID: b.ID, Title: "B last", Author: "Y", ReadingStatus: models.StatusRead},
	}
	merged, err := store.ImportBooks(ctx, incoming)
	require.NoError(t, err)
	require.Len(t, merged, 3)

	assert.Equal(t, a, merged[0])
	assert.Equal(t, "B last", merged[1].Title)
	assert.Equal(t, models.StatusRead, merged[1].ReadingStatus)
	assert.Equal(t, "New", merged[2].Title)
	assert.NotEmpty(t, merged[2].ID)
	assert.Equal(t, models.StatusUnread, merged[2].ReadingStatus)

	assert.Equal(t, merged, store.GetBooks(ctx))
}

func TestImportOfExportIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	for _, title := range []string{"Un", "Deux", "Trois"} {
		_, err := store.AddBook(ctx, models.Book{Title: title, Author: "Auteur", Tags: []string{"x"}})
		require.NoError(t, err)
	}
	before := store.GetBooks(ctx)

	data, err := ExportBooks(before)
	require.NoError(t, err)
	parsed, err := ParseBooks(data)
	require.NoError(t, err)

	merged, err := store.ImportBooks(ctx, parsed)
	require.NoError(t, err)
	assert.Equal(t, before, merged)
	assert.Equal(t, before, store.GetBooks(ctx))
}

func TestExportFileName(t *testing.T) {
	day := time.Date(2026, 1, 9, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "ma-bibliotheque-2026-01-09.json", ExportFileName(day))
}

func TestExportBooksIndented(t *testing.T) {
	data, err := ExportBooks([]models.Book{{ID: "1", Title: "T", Author: "A", Genre: "Roman", ReadingStatus: models.StatusRead}})
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  {\n    \"id\": \"1\"")

	empty, err := ExportBooks(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}

func TestParseBooksRejectsNonArray(t *testing.T) {
	_, err := ParseBooks([]byte(`{"id":"1"}`))
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = ParseBooks([]byte(`null`))
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestPersistedShape(t *testing.T) {
	store, kv := newTestStore(t)
	ctx := context.Background()
	_, err := store.AddBook(ctx, models.Book{ID: "1", Title: "T", Author: "A", Genre: "Roman"})
	require.NoError(t, err)

	raw, err := kv.Read(ctx, DefaultStorageKey)
	require.NoError(t, err)
	var generic []map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	require.Len(t, generic, 1)
	assert.Equal(t, "unread", generic[0]["readingStatus"])
	assert.Equal(t, "Roman", generic[0]["genre"])
}

func TestConcurrentAddsAreSerialized(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.AddBook(ctx, models.Book{Title: "T", Author: "A"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	books := store.GetBooks(ctx)
	assert.Len(t, books, 20)
	seen := map[string]bool{}
	for _, b := range books {
		assert.False(t, seen[b.ID], "duplicate id %s", b.ID)
		seen[b.ID] = true
	}
}
