// file: internal/metadata/openlibrary_test.go
// version: 2.0.0
// guid: 2b3c4d5e-6f7a-8b9c-0d1e-2f3a4b5c6d7e

package metadata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdfalk/book-library/internal/testutil"
)

func TestNewOpenLibraryClient(t *testing.T) {
	client := NewOpenLibraryClientWithBaseURL(DefaultOpenLibraryBaseURL)
	if client == nil {
		t.Fatal("Expected non-nil client")
	}
	if client.baseURL != "https://openlibrary.org" {
		t.Errorf("Expected baseURL to be https://openlibrary.org, got %s", client.baseURL)
	}
	if client.client == nil {
		t.Fatal("Expected non-nil HTTP client")
	}
}

func TestOpenLibraryLookupISBN(t *testing.T) {
	var path, bibkeys, jscmd string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		bibkeys = r.URL.Query().Get("bibkeys")
		jscmd = r.URL.Query().Get("jscmd")
		_, _ = w.Write([]byte(testutil.OpenLibraryISBNResponse))
	}))
	defer server.Close()

	book, err := NewOpenLibraryClientWithBaseURL(server.URL).LookupISBN(context.Background(), testutil.SimulatedISBN)
	require.NoError(t, err)

	assert.Equal(t, "/api/books", path)
	assert.Equal(t, "ISBN:"+testutil.SimulatedISBN, bibkeys)
	assert.Equal(t, "data", jscmd)

	assert.Equal(t, "Les Misérables", book.Title)
	assert.Equal(t, "Victor Hugo", book.Author)
	assert.Equal(t, "Le Livre de Poche, LGF", book.Publisher)
	assert.Equal(t, "1998", book.PublishedDate)
	// medium missing: large wins over small
	assert.Equal(t, "http://covers.example.com/l.jpg", book.CoverURL)
	assert.Equal(t, "En 1815, M. Charles-François-Bienvenu Myriel...", book.Description)
	assert.Equal(t, 1664, book.PageCount)
	// first three subjects, names or bare strings
	assert.Equal(t, "Fiction, France, History", book.Genre)
}

func TestOpenLibraryNotesObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ISBN:123":{"title":"T","notes":{"type":"/type/text","value":"Une note"},"excerpts":[{"text":"ignored"}]}}`))
	}))
	defer server.Close()

	book, err := NewOpenLibraryClientWithBaseURL(server.URL).LookupISBN(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, "Une note", book.Description)
	assert.Equal(t, UnknownAuthor, book.Author)
	assert.Equal(t, UnknownPublisher, book.Publisher)
	assert.Equal(t, UnknownDate, book.PublishedDate)
	assert.Equal(t, UnspecifiedGenre, book.Genre)
}

func TestOpenLibraryMissingEntry(t *testing.T) {
	server := testutil.MockOpenLibraryServer(t, map[string]string{
		"/api/books": testutil.OpenLibraryEmptyResponse,
	})

	_, err := NewOpenLibraryClientWithBaseURL(server.URL).LookupISBN(context.Background(), "0000000000")
	assert.True(t, errors.Is(err, ErrNoResult), "got %v", err)
}
