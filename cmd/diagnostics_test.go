// file: cmd/diagnostics_test.go
// version: 2.0.0
// guid: 5b1e9d2a-3c4f-4e6a-8b0d-2f4a6c8e0b35

package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdfalk/book-library/internal/database"
)

// seedRaw writes a collection straight to the store, bypassing validation.
func seedRaw(t *testing.T, c *cli, payload string) {
	t.Helper()
	kv, err := database.Open(context.Background(), database.Options{Type: c.dbType, Path: c.dbPath})
	require.NoError(t, err)
	require.NoError(t, kv.Write(context.Background(), database.DefaultStorageKey, []byte(payload)))
	require.NoError(t, kv.Close())
}

const mixedBooks = `[
  {"id": "good-1", "title": "Dune", "author": "Frank Herbert", "readingStatus": "read"},
  {"id": "bad-author", "title": "Anonyme", "author": ""},
  {"id": "bad-isbn", "title": "Germinal", "author": "Émile Zola", "isbn": "12345"}
]`

func TestInvalidReason(t *testing.T) {
	books, err := database.ParseBooks([]byte(mixedBooks))
	require.NoError(t, err)

	assert.Empty(t, invalidReason(books[0]))
	assert.Contains(t, invalidReason(books[1]), "author")
	assert.Contains(t, invalidReason(books[2]), "malformed ISBN")
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "abc", truncateString("abc", 5))
	assert.Equal(t, "ab...", truncateString("abcdef", 2))
}

func TestCleanupInvalidBooks(t *testing.T) {
	c := newCLI(t)
	seedRaw(t, c, mixedBooks)

	t.Run("dry run", func(t *testing.T) {
		out := c.mustRun("diagnostics", "cleanup-invalid", "--dry-run")
		assert.Contains(t, out, "Found 2 invalid records")
		assert.Contains(t, out, "bad-author")
		assert.Contains(t, out, "bad-isbn")
		assert.Contains(t, out, "no deletions were performed")
		assert.Len(t, c.books(), 3)
	})

	t.Run("declined", func(t *testing.T) {
		out, err := c.run("no\n", "diagnostics", "cleanup-invalid")
		require.NoError(t, err)
		assert.Contains(t, out, "Aborted. No records deleted.")
		assert.Len(t, c.books(), 3)
	})

	t.Run("confirmed", func(t *testing.T) {
		out, err := c.run("yes\n", "diagnostics", "cleanup-invalid")
		require.NoError(t, err)
		assert.Contains(t, out, "Deleted 2 invalid records.")

		books := c.books()
		require.Len(t, books, 1)
		assert.Equal(t, "good-1", books[0].ID)
	})

	t.Run("nothing left", func(t *testing.T) {
		out := c.mustRun("diagnostics", "cleanup-invalid", "--yes")
		assert.Contains(t, out, "No invalid book records detected.")
	})
}

func TestDiagnosticsQuery(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun("diagnostics", "query")
	assert.Contains(t, out, "No books found.")

	seedRaw(t, c, mixedBooks)
	out = c.mustRun("diagnostics", "query", "--limit", "2")
	assert.Contains(t, out, "3 books stored under")
	assert.Contains(t, out, "good-1")
	assert.Contains(t, out, "bad-author")
	assert.NotContains(t, out, "bad-isbn")

	_, err := c.run("", "diagnostics", "query", "--limit", "0")
	require.Error(t, err)

	_, err = c.run("", "diagnostics", "query", "--raw")
	require.Error(t, err, "raw inspection needs pebble")
}

func TestDiagnosticsRawPebble(t *testing.T) {
	c := newCLI(t)
	c.dbType = "pebble"
	c.dbPath = filepath.Join(c.dir, "books.pebble")
	c.mustRun("add", "--title", "Dune", "--author", "Frank Herbert")

	out := c.mustRun("diagnostics", "query", "--raw")
	assert.Contains(t, out, "Key: kv:"+database.DefaultStorageKey)
	assert.Contains(t, out, "Dune")

	out = c.mustRun("diagnostics", "query", "--raw", "--prefix", "nothing:")
	assert.Contains(t, out, "No keys matched the requested prefix.")
}
