// file: internal/metadata/openlibrary.go
// version: 2.0.0
// guid: 1a2b3c4d-5e6f-7a8b-9c0d-1e2f3a4b5c6d

package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/jdfalk/book-library/internal/models"
)

// DefaultOpenLibraryBaseURL is the Open Library site root.
const DefaultOpenLibraryBaseURL = "https://openlibrary.org"

// OpenLibraryClient handles metadata fetching from the Open Library Books API.
type OpenLibraryClient struct {
	fetcher
	baseURL string
}

// NewOpenLibraryClientWithBaseURL creates a client with a custom base URL.
func NewOpenLibraryClientWithBaseURL(baseURL string) *OpenLibraryClient {
	return NewOpenLibraryClientWithOptions(baseURL, HTTPOptions{})
}

// NewOpenLibraryClientWithOptions creates a client with a custom base URL and HTTP settings.
func NewOpenLibraryClientWithOptions(baseURL string, opts HTTPOptions) *OpenLibraryClient {
	return &OpenLibraryClient{
		fetcher: newFetcher(opts),
		baseURL: trimBaseURL(baseURL),
	}
}

// Name returns the display name for this metadata source.
func (c *OpenLibraryClient) Name() string {
	return "Open Library"
}

type olNamed struct {
	Name string `json:"name"`
}

// olSubject is either {"name": "..."} or a bare string.
type olSubject string

func (s *olSubject) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		*s = olSubject(plain)
		return nil
	}
	var named olNamed
	if err := json.Unmarshal(data, &named); err != nil {
		return err
	}
	*s = olSubject(named.Name)
	return nil
}

type olBookData struct {
	Title         string    `json:"title"`
	Authors       []olNamed `json:"authors"`
	Publishers    []olNamed `json:"publishers"`
	PublishDate   string    `json:"publish_date"`
	NumberOfPages int       `json:"number_of_pages"`
	Notes         olNotes   `json:"notes"`
	Cover         *struct {
		Small  string `json:"small"`
		Medium string `json:"medium"`
		Large  string `json:"large"`
	} `json:"cover"`
	Excerpts []struct {
		Text string `json:"text"`
	} `json:"excerpts"`
	Subjects []olSubject `json:"subjects"`
}

// olNotes is either a plain string or {"type": ..., "value": "..."}.
type olNotes string

func (n *olNotes) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		*n = olNotes(plain)
		return nil
	}
	var typed struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &typed); err != nil {
		return err
	}
	*n = olNotes(typed.Value)
	return nil
}

// LookupISBN queries api/books with jscmd=data and maps the ISBN:{isbn} entry.
func (c *OpenLibraryClient) LookupISBN(ctx context.Context, isbn string) (*models.Book, error) {
	bibkey := "ISBN:" + isbn
	q := url.Values{}
	q.Set("bibkeys", bibkey)
	q.Set("format", "json")
	q.Set("jscmd", "data")
	lookupURL := fmt.Sprintf("%s/api/books?%s", c.baseURL, q.Encode())

	body, err := c.get(ctx, lookupURL)
	if err != nil {
		return nil, fmt.Errorf("failed to query Open Library: %w", err)
	}

	var olResp map[string]olBookData
	if err := json.Unmarshal(body, &olResp); err != nil {
		return nil, fmt.Errorf("failed to decode Open Library response: %w", err)
	}
	data, ok := olResp[bibkey]
	if !ok {
		return nil, ErrNoResult
	}

	book := newFoundBook(isbn)
	book.Title = firstNonEmpty(data.Title, UnknownTitle)
	book.Author = firstNonEmpty(joinNames(data.Authors), UnknownAuthor)
	book.Publisher = firstNonEmpty(joinNames(data.Publishers), UnknownPublisher)
	book.PublishedDate = firstNonEmpty(data.PublishDate, UnknownDate)
	if data.Cover != nil {
		book.CoverURL = firstNonEmpty(data.Cover.Medium, data.Cover.Large, data.Cover.Small)
	}
	book.Description = string(data.Notes)
	if book.Description == "" && len(data.Excerpts) > 0 {
		book.Description = data.Excerpts[0].Text
	}
	book.PageCount = max(data.NumberOfPages, 0)

	subjects := make([]string, 0, 3)
	for _, s := range data.Subjects {
		if len(subjects) == 3 {
			break
		}
		if s != "" {
			subjects = append(subjects, string(s))
		}
	}
	book.Genre = firstNonEmpty(strings.Join(subjects, ", "), UnspecifiedGenre)
	return book, nil
}

func joinNames(items []olNamed) string {
	names := make([]string, 0, len(items))
	for _, it := range items {
		if it.Name != "" {
			names = append(names, it.Name)
		}
	}
	return strings.Join(names, ", ")
}
