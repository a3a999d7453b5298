// file: internal/metadata/bnf.go
// version: 1.0.0
// guid: 4c8e2a6f-0b1d-4e3a-9c5f-7d2b6e8a1c04

package metadata

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/jdfalk/book-library/internal/models"
)

// DefaultBnFBaseURL is the Bibliothèque nationale de France SRU endpoint.
const DefaultBnFBaseURL = "https://catalogue.bnf.fr/api/SRU"

// BnFClient queries the BnF catalogue over SRU with the Dublin Core schema.
type BnFClient struct {
	fetcher
	baseURL string
}

// NewBnFClientWithBaseURL creates a client with a custom base URL.
func NewBnFClientWithBaseURL(baseURL string) *BnFClient {
	return NewBnFClientWithOptions(baseURL, HTTPOptions{})
}

// NewBnFClientWithOptions creates a client with a custom base URL and HTTP settings.
func NewBnFClientWithOptions(baseURL string, opts HTTPOptions) *BnFClient {
	return &BnFClient{fetcher: newFetcher(opts), baseURL: trimBaseURL(baseURL)}
}

// Name returns the display name for this metadata source.
func (c *BnFClient) Name() string {
	return "BnF"
}

var (
	dcTagPatterns = map[string]*regexp.Regexp{}
	zeroRecords   = regexp.MustCompile(`numberOfRecords>\s*0\s*<`)
)

func init() {
	for _, tag := range []string{"dc:title", "dc:creator", "dc:publisher", "dc:date", "dc:description", "dc:subject"} {
		dcTagPatterns[tag] = regexp.MustCompile(`(?s)<` + tag + `(?:\s[^>]*)?>(.*?)</` + tag + `>`)
	}
}

// dcValue returns the first occurrence of a Dublin Core element, unescaped.
func dcValue(doc, tag string) string {
	m := dcTagPatterns[tag].FindStringSubmatch(doc)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(m[1]))
}

// LookupISBN searches bib.isbn and maps the first Dublin Core record.
func (c *BnFClient) LookupISBN(ctx context.Context, isbn string) (*models.Book, error) {
	q := url.Values{}
	q.Set("version", "1.2")
	q.Set("operation", "searchRetrieve")
	q.Set("query", fmt.Sprintf(`bib.isbn adj "%s"`, isbn))
	q.Set("recordSchema", "dublincore")

	body, err := c.get(ctx, c.baseURL+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to query BnF: %w", err)
	}

	doc := string(body)
	if zeroRecords.MatchString(doc) || dcTagPatterns["dc:title"].FindStringIndex(doc) == nil {
		return nil, ErrNoResult
	}

	book := newFoundBook(isbn)
	book.Title = firstNonEmpty(dcValue(doc, "dc:title"), UnknownTitle)
	book.Author = firstNonEmpty(dcValue(doc, "dc:creator"), UnknownAuthor)
	book.Publisher = firstNonEmpty(dcValue(doc, "dc:publisher"), UnknownPublisher)
	book.PublishedDate = firstNonEmpty(dcValue(doc, "dc:date"), UnknownDate)
	book.Description = dcValue(doc, "dc:description")
	book.Genre = firstNonEmpty(dcValue(doc, "dc:subject"), UnspecifiedGenre)
	return book, nil
}
