// file: internal/metadata/lookup.go
// version: 1.0.0
// guid: e7b3c1a9-4d2f-4f6e-8a0b-5c9d1e3f7a26

package metadata

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/jdfalk/book-library/internal/cache"
	"github.com/jdfalk/book-library/internal/metrics"
	"github.com/jdfalk/book-library/internal/models"
)

// ErrNotFound matches every lookup that exhausted all sources.
var ErrNotFound = errors.New("book not found")

// NotFoundError names the ISBN no source could resolve.
type NotFoundError struct {
	ISBN string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no book found for ISBN %s", e.ISBN)
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// CoverSearcher finds candidate cover image URLs for a title and author.
type CoverSearcher interface {
	SearchCovers(ctx context.Context, title, author string) ([]string, error)
}

// Config selects endpoints and outbound behaviour for NewLookup.
// Empty base URLs fall back to the public endpoints.
type Config struct {
	GoogleBooksBaseURL string
	OpenLibraryBaseURL string
	BnFBaseURL         string
	WorldCatBaseURL    string

	Timeout       time.Duration
	RatePerSecond float64 // 0 means unlimited
	UserAgent     string
	CacheTTL      time.Duration // 0 disables the cache
}

// Lookup resolves ISBNs against an ordered list of sources.
type Lookup struct {
	sources []Source
	covers  CoverSearcher
	cache   *cache.Cache[models.Book]
}

// NewLookup builds the standard chain: Google Books, Open Library, BnF, WorldCat.
func NewLookup(cfg Config) *Lookup {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	opts := HTTPOptions{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: cfg.UserAgent,
	}
	if cfg.RatePerSecond > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}

	google := NewGoogleBooksClientWithOptions(orDefault(cfg.GoogleBooksBaseURL, DefaultGoogleBooksBaseURL), opts)
	l := NewLookupWithSources(google,
		google,
		NewOpenLibraryClientWithOptions(orDefault(cfg.OpenLibraryBaseURL, DefaultOpenLibraryBaseURL), opts),
		NewBnFClientWithOptions(orDefault(cfg.BnFBaseURL, DefaultBnFBaseURL), opts),
		NewWorldCatClientWithOptions(orDefault(cfg.WorldCatBaseURL, DefaultWorldCatBaseURL), opts),
	)
	l.SetCacheTTL(cfg.CacheTTL)
	return l
}

// NewLookupWithSources builds a chain over arbitrary sources, tried in the given order.
func NewLookupWithSources(covers CoverSearcher, sources ...Source) *Lookup {
	return &Lookup{sources: sources, covers: covers}
}

// SetCacheTTL enables a result cache keyed by ISBN. ttl <= 0 disables it.
func (l *Lookup) SetCacheTTL(ttl time.Duration) {
	if ttl <= 0 {
		l.cache = nil
		return
	}
	l.cache = cache.New[models.Book](ttl)
}

// SourceNames lists the sources in query order.
func (l *Lookup) SourceNames() []string {
	names := make([]string, len(l.sources))
	for i, s := range l.sources {
		names[i] = s.Name()
	}
	return names
}

// SearchByISBN asks each source in turn and returns the first hit as is.
// Source failures are logged and skipped. When every source fails the
// error is a *NotFoundError.
func (l *Lookup) SearchByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	isbn = models.CleanISBN(isbn)

	if l.cache != nil {
		if cached, ok := l.cache.Get(isbn); ok {
			metrics.IncCacheHit()
			book := cached.Clone()
			book.ID = models.NewID()
			return &book, nil
		}
		metrics.IncCacheMiss()
	}

	for _, src := range l.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		book, err := src.LookupISBN(ctx, isbn)
		metrics.ObserveLookupDuration(src.Name(), time.Since(start))

		switch {
		case err == nil && book != nil:
			metrics.IncLookup(src.Name(), "hit")
			log.Printf("[INFO] ISBN %s found on %s: %q", isbn, src.Name(), book.Title)
			if l.cache != nil {
				l.cache.Set(isbn, book.Clone())
			}
			return book, nil
		case err == nil, errors.Is(err, ErrNoResult):
			metrics.IncLookup(src.Name(), "miss")
			log.Printf("[DEBUG] ISBN %s not found on %s", isbn, src.Name())
		default:
			metrics.IncLookup(src.Name(), "error")
			log.Printf("[WARN] ISBN lookup on %s failed: %v", src.Name(), err)
		}
	}

	return nil, &NotFoundError{ISBN: isbn}
}

// SearchBookCovers returns a lazy, single-use sequence of cover URLs for
// title and author. The query runs when the sequence is first ranged over;
// ranging again yields nothing. Failures yield an empty sequence.
func (l *Lookup) SearchBookCovers(ctx context.Context, title, author string) iter.Seq[string] {
	var used atomic.Bool
	return func(yield func(string) bool) {
		if l.covers == nil || used.Swap(true) {
			return
		}
		covers, err := l.covers.SearchCovers(ctx, title, author)
		if err != nil {
			log.Printf("[WARN] cover search for %q by %q failed: %v", title, author, err)
			return
		}
		for _, u := range covers {
			if !yield(u) {
				return
			}
		}
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
