// file: internal/metadata/googlebooks.go
// version: 2.0.0
// guid: b2c3d4e5-f6a7-8b9c-0d1e-f2a3b4c5d6e7

package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/jdfalk/book-library/internal/models"
)

// DefaultGoogleBooksBaseURL is the Google Books v1 API root.
const DefaultGoogleBooksBaseURL = "https://www.googleapis.com/books/v1"

// GoogleBooksClient fetches metadata from the Google Books Volume API.
// No API key is required for basic searches (free tier, ~1000 req/day).
type GoogleBooksClient struct {
	fetcher
	baseURL string
}

// NewGoogleBooksClientWithBaseURL creates a client with a custom base URL (for testing).
func NewGoogleBooksClientWithBaseURL(baseURL string) *GoogleBooksClient {
	return NewGoogleBooksClientWithOptions(baseURL, HTTPOptions{})
}

// NewGoogleBooksClientWithOptions creates a client with a custom base URL and HTTP settings.
func NewGoogleBooksClientWithOptions(baseURL string, opts HTTPOptions) *GoogleBooksClient {
	return &GoogleBooksClient{
		fetcher: newFetcher(opts),
		baseURL: trimBaseURL(baseURL),
	}
}

// Name returns the display name for this metadata source.
func (c *GoogleBooksClient) Name() string {
	return "Google Books"
}

type googleBooksResponse struct {
	TotalItems int              `json:"totalItems"`
	Items      []googleBooksVol `json:"items"`
}

type googleBooksVol struct {
	VolumeInfo googleBooksVolumeInfo `json:"volumeInfo"`
}

type googleBooksVolumeInfo struct {
	Title         string                 `json:"title"`
	Authors       []string               `json:"authors"`
	Publisher     string                 `json:"publisher"`
	PublishedDate string                 `json:"publishedDate"`
	Description   string                 `json:"description"`
	PageCount     int                    `json:"pageCount"`
	Categories    []string               `json:"categories"`
	ImageLinks    *googleBooksImageLinks `json:"imageLinks"`
	Language      string                 `json:"language"`
}

type googleBooksImageLinks struct {
	Thumbnail      string `json:"thumbnail"`
	SmallThumbnail string `json:"smallThumbnail"`
}

// LookupISBN queries volumes?q=isbn:{isbn} and maps the first item.
func (c *GoogleBooksClient) LookupISBN(ctx context.Context, isbn string) (*models.Book, error) {
	searchURL := fmt.Sprintf("%s/volumes?q=%s", c.baseURL, url.QueryEscape("isbn:"+isbn))
	body, err := c.get(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("failed to query Google Books: %w", err)
	}

	var gbResp googleBooksResponse
	if err := json.Unmarshal(body, &gbResp); err != nil {
		return nil, fmt.Errorf("failed to decode Google Books response: %w", err)
	}
	if len(gbResp.Items) == 0 {
		return nil, ErrNoResult
	}

	vi := gbResp.Items[0].VolumeInfo
	book := newFoundBook(isbn)
	book.Title = firstNonEmpty(vi.Title, UnknownTitle)
	book.Author = UnknownAuthor
	if len(vi.Authors) > 0 {
		book.Author = firstNonEmpty(strings.Join(vi.Authors, ", "), UnknownAuthor)
	}
	book.Publisher = firstNonEmpty(vi.Publisher, UnknownPublisher)
	book.PublishedDate = firstNonEmpty(vi.PublishedDate, UnknownDate)
	if vi.ImageLinks != nil {
		book.CoverURL = vi.ImageLinks.Thumbnail
	}
	book.Description = vi.Description
	book.PageCount = max(vi.PageCount, 0)
	book.Genre = UnspecifiedGenre
	if len(vi.Categories) > 0 {
		book.Genre = firstNonEmpty(strings.Join(vi.Categories, ", "), UnspecifiedGenre)
	}
	book.Language = vi.Language
	return book, nil
}

// SearchCovers runs one free-text query for title and author and returns the
// thumbnail URLs of the (at most five) matching volumes that have one.
func (c *GoogleBooksClient) SearchCovers(ctx context.Context, title, author string) ([]string, error) {
	query := strings.TrimSpace(title + " " + author)
	searchURL := fmt.Sprintf("%s/volumes?q=%s&maxResults=5", c.baseURL, url.QueryEscape(query))
	body, err := c.get(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("failed to search Google Books covers: %w", err)
	}

	var gbResp googleBooksResponse
	if err := json.Unmarshal(body, &gbResp); err != nil {
		return nil, fmt.Errorf("failed to decode Google Books response: %w", err)
	}
	covers := make([]string, 0, len(gbResp.Items))
	for _, item := range gbResp.Items {
		if item.VolumeInfo.ImageLinks != nil && item.VolumeInfo.ImageLinks.Thumbnail != "" {
			covers = append(covers, item.VolumeInfo.ImageLinks.Thumbnail)
		}
	}
	return covers, nil
}
