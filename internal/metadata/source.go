// file: internal/metadata/source.go
// version: 2.0.0
// guid: a1b2c3d4-e5f6-7a8b-9c0d-e1f2a3b4c5d6

package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jdfalk/book-library/internal/models"
)

// ErrNoResult is returned by a Source when it answered but had nothing for the ISBN.
var ErrNoResult = errors.New("no result from source")

// Fallback values used when a source leaves a field empty.
const (
	UnknownTitle       = "Titre inconnu"
	UnknownAuthor      = "Auteur inconnu"
	UnknownPublisher   = "Éditeur inconnu"
	UnknownDate        = "Date inconnue"
	UnspecifiedGenre   = "Genre non spécifié"
	defaultUserAgent   = "book-library/1.0 (+https://github.com/jdfalk/book-library)"
	defaultHTTPTimeout = 30 * time.Second
)

// Source is a pluggable ISBN metadata provider.
type Source interface {
	Name() string
	LookupISBN(ctx context.Context, isbn string) (*models.Book, error)
}

// HTTPOptions configures the outbound side shared by every source client.
type HTTPOptions struct {
	Client    *http.Client
	Limiter   *rate.Limiter // nil means unlimited
	UserAgent string
}

// fetcher performs paced GET requests with a fixed User-Agent.
type fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

func newFetcher(opts HTTPOptions) fetcher {
	f := fetcher{client: opts.Client, limiter: opts.Limiter, userAgent: opts.UserAgent}
	if f.client == nil {
		f.client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if f.userAgent == "" {
		f.userAgent = defaultUserAgent
	}
	return f
}

// get fetches rawURL and returns the body of a 2xx response.
func (f fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// newFoundBook builds the record every source returns: fresh id, the
// queried ISBN, unread, no empty required field.
func newFoundBook(isbn string) *models.Book {
	return &models.Book{
		ID:            models.NewID(),
		ISBN:          isbn,
		ReadingStatus: models.StatusUnread,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func trimBaseURL(u string) string {
	return strings.TrimRight(u, "/")
}
