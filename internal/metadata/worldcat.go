// file: internal/metadata/worldcat.go
// version: 1.0.0
// guid: 9a3d5f7b-2c4e-4a6b-8d0f-1e3c5a7b9d2e

package metadata

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jdfalk/book-library/internal/models"
)

// DefaultWorldCatBaseURL is the WorldCat search page.
const DefaultWorldCatBaseURL = "https://www.worldcat.org/search"

// WorldCatClient checks that WorldCat answers a search for the ISBN. It has
// no structured API, so a successful response yields a placeholder record
// that points the reader at the search page.
type WorldCatClient struct {
	fetcher
	baseURL string
}

// NewWorldCatClientWithBaseURL creates a client with a custom base URL.
func NewWorldCatClientWithBaseURL(baseURL string) *WorldCatClient {
	return NewWorldCatClientWithOptions(baseURL, HTTPOptions{})
}

// NewWorldCatClientWithOptions creates a client with a custom base URL and HTTP settings.
func NewWorldCatClientWithOptions(baseURL string, opts HTTPOptions) *WorldCatClient {
	return &WorldCatClient{fetcher: newFetcher(opts), baseURL: trimBaseURL(baseURL)}
}

// Name returns the display name for this metadata source.
func (c *WorldCatClient) Name() string {
	return "WorldCat"
}

// SearchURL is the human-facing search page for isbn.
func (c *WorldCatClient) SearchURL(isbn string) string {
	q := url.Values{}
	q.Set("q", "bn:"+isbn)
	q.Set("qt", "advanced")
	return c.baseURL + "?" + q.Encode()
}

// LookupISBN treats any 2xx answer as a hit.
func (c *WorldCatClient) LookupISBN(ctx context.Context, isbn string) (*models.Book, error) {
	searchURL := c.SearchURL(isbn)
	if _, err := c.get(ctx, searchURL); err != nil {
		return nil, fmt.Errorf("failed to query WorldCat: %w", err)
	}

	book := newFoundBook(isbn)
	book.Title = "Livre trouvé sur WorldCat"
	book.Author = "Voir détails sur WorldCat"
	book.Publisher = "Voir détails sur WorldCat"
	book.Genre = models.GenreUnspecified
	book.Description = "Ce livre a été trouvé sur WorldCat. Pour plus d'informations, consultez: " + searchURL
	return book, nil
}
