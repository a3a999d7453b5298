// file: internal/library/library_test.go
// version: 1.0.0
// guid: 1e5b7d9f-3a2c-4c6e-8b0a-5d7f9b1e3c62

package library

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdfalk/book-library/internal/database"
	"github.com/jdfalk/book-library/internal/models"
)

func newTestLibrary(t *testing.T) (*Library, *database.MockKV) {
	t.Helper()
	kv := &database.MockKV{}
	lib := New(database.NewBookStore(kv, ""))
	lib.Load(context.Background())
	return lib, kv
}

func TestLoadFromStore(t *testing.T) {
	kv := database.NewMemoryKV()
	store := database.NewBookStore(kv, "")
	ctx := context.Background()
	_, err := store.AddBook(ctx, models.Book{Title: "A", Author: "X"})
	require.NoError(t, err)

	lib := New(store)
	assert.True(t, lib.Loading())
	lib.Load(ctx)
	assert.False(t, lib.Loading())
	assert.Len(t, lib.Books(), 1)
	assert.Empty(t, lib.Error())
}

func TestAddBookValidates(t *testing.T) {
	lib, _ := newTestLibrary(t)

	_, err := lib.AddBook(context.Background(), models.Book{Title: "  ", Author: "X"})
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Empty(t, lib.Books())
	assert.NotEmpty(t, lib.Error())
}

func TestAddBookAppends(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	a, err := lib.AddBook(ctx, models.Book{Title: "A", Author: "X"})
	require.NoError(t, err)
	b, err := lib.AddBook(ctx, models.Book{Title: "B", Author: "Y"})
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, models.StatusUnread, a.ReadingStatus)
	assert.Equal(t, []models.Book{a, b}, lib.Books())
}

func TestAddBookStoreFailureLeavesMemory(t *testing.T) {
	lib, kv := newTestLibrary(t)
	ctx := context.Background()
	_, err := lib.AddBook(ctx, models.Book{Title: "A", Author: "X"})
	require.NoError(t, err)
	before := lib.Books()

	kv.WriteFunc = func(ctx context.Context, key string, value []byte) error {
		return errors.New("quota exceeded")
	}
	_, err = lib.AddBook(ctx, models.Book{Title: "B", Author: "Y"})
	require.Error(t, err)
	assert.Equal(t, before, lib.Books())
	assert.Contains(t, lib.Error(), "could not add")

	lib.ClearError()
	assert.Empty(t, lib.Error())
}

func TestUpdateBook(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()
	a, _ := lib.AddBook(ctx, models.Book{Title: "A", Author: "X"})

	a.ReadingStatus = models.StatusReading
	got, err := lib.UpdateBook(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	stored, ok := lib.Get(a.ID)
	require.True(t, ok)
	assert.Equal(t, models.StatusReading, stored.ReadingStatus)
}

func TestUpdateUnknownIDChangesNothing(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()
	_, _ = lib.AddBook(ctx, models.Book{Title: "A", Author: "X"})
	before := lib.Books()

	_, err := lib.UpdateBook(ctx, models.Book{ID: "ghost", Title: "G", Author: "G"})
	require.NoError(t, err)
	assert.Equal(t, before, lib.Books())
	_, ok := lib.Get("ghost")
	assert.False(t, ok)
}

func TestUpdateBookFillsDefaults(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()
	a, err := lib.AddBook(ctx, models.Book{Title: "T", Author: "A"})
	require.NoError(t, err)
	assert.Equal(t, models.GenreUnspecified, a.Genre)

	got, err := lib.UpdateBook(ctx, models.Book{ID: a.ID, Title: "T2", Author: "A"})
	require.NoError(t, err)
	assert.Equal(t, models.GenreUnspecified, got.Genre)
	assert.Equal(t, models.StatusUnread, got.ReadingStatus)

	stored, ok := lib.Get(a.ID)
	require.True(t, ok)
	assert.Equal(t, "T2", stored.Title)
	assert.Equal(t, models.GenreUnspecified, stored.Genre)
	assert.Equal(t, models.StatusUnread, stored.ReadingStatus)

	reloaded := New(lib.store)
	reloaded.Load(ctx)
	assert.Equal(t, lib.Books(), reloaded.Books())
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	lib, _ := newTestLibrary(t)
	a, _ := lib.AddBook(context.Background(), models.Book{Title: "A", Author: "X"})
	a.ReadingStatus = "abandoned"
	_, err := lib.UpdateBook(context.Background(), a)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestRemoveBook(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()
	a, _ := lib.AddBook(ctx, models.Book{Title: "A", Author: "X"})
	b, _ := lib.AddBook(ctx, models.Book{Title: "B", Author: "Y"})

	require.NoError(t, lib.RemoveBook(ctx, a.ID))
	assert.Equal(t, []models.Book{b}, lib.Books())

	require.NoError(t, lib.RemoveBook(ctx, "missing"))
	assert.Equal(t, []models.Book{b}, lib.Books())
}

func TestRemoveFailureLeavesMemory(t *testing.T) {
	lib, kv := newTestLibrary(t)
	ctx := context.Background()
	a, _ := lib.AddBook(ctx, models.Book{Title: "A", Author: "X"})

	kv.WriteFunc = func(ctx context.Context, key string, value []byte) error {
		return errors.New("read-only")
	}
	require.Error(t, lib.RemoveBook(ctx, a.ID))
	assert.Len(t, lib.Books(), 1)
}

func TestImportExportRoundTrip(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()
	for _, title := range []string{"Un", "Deux"} {
		_, err := lib.AddBook(ctx, models.Book{Title: title, Author: "Auteur"})
		require.NoError(t, err)
	}
	before := lib.Books()

	data, err := lib.ExportBooks(before)
	require.NoError(t, err)
	parsed, err := database.ParseBooks(data)
	require.NoError(t, err)

	merged, err := lib.ImportBooks(ctx, parsed)
	require.NoError(t, err)
	assert.Equal(t, before, merged)
	assert.Equal(t, before, lib.Books())
}

func TestImportAddsNewAndOverwrites(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()
	a, _ := lib.AddBook(ctx, models.Book{Title: "A", Author: "X"})

	merged, err := lib.ImportBooks(ctx, []models.Book{
		{Title: "New", Author: "N"},
		{ID: a.ID, Title: "A2", Author: "X"},
	})
	require.NoError(t, err)
	require.Len(t, merged, 2)
	assert.Equal(t, "A2", merged[0].Title)
	assert.Equal(t, "New", merged[1].Title)
	assert.Equal(t, merged, lib.Books())
}

func TestSubscribeReceivesChanges(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	var mu sync.Mutex
	var types []ChangeType
	lib.Subscribe(func(c Change) {
		mu.Lock()
		types = append(types, c.Type)
		mu.Unlock()
	})

	a, _ := lib.AddBook(ctx, models.Book{Title: "A", Author: "X"})
	_, _ = lib.UpdateBook(ctx, a)
	_ = lib.RemoveBook(ctx, a.ID)
	_, _ = lib.ImportBooks(ctx, []models.Book{{Title: "B", Author: "Y"}})
	lib.Load(ctx)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []ChangeType{ChangeAdded, ChangeUpdated, ChangeRemoved, ChangeImported, ChangeLoaded}, types)
}

func TestBooksReturnsCopy(t *testing.T) {
	lib, _ := newTestLibrary(t)
	_, _ = lib.AddBook(context.Background(), models.Book{Title: "A", Author: "X", Tags: []string{"t"}})

	books := lib.Books()
	books[0].Title = "mutated"
	books[0].Tags[0] = "mutated"

	fresh := lib.Books()
	assert.Equal(t, "A", fresh[0].Title)
	assert.Equal(t, "t", fresh[0].Tags[0])
}
