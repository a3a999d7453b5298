// file: internal/search/index.go
// version: 1.0.0
// guid: 5b8d0f2a-4c6e-4a1b-9d3f-7e9a1c3b5d82

package search

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/fr"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/jdfalk/book-library/internal/library"
	"github.com/jdfalk/book-library/internal/models"
)

// DefaultLimit caps results when the caller passes a non-positive limit.
const DefaultLimit = 50

// document is the indexed projection of a book.
type document struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Publisher   string `json:"publisher"`
	Description string `json:"description"`
	Genre       string `json:"genre"`
	ISBN        string `json:"isbn"`
}

func toDocument(b models.Book) document {
	return document{
		Title:       b.Title,
		Author:      b.Author,
		Publisher:   b.Publisher,
		Description: b.Description,
		Genre:       b.Genre,
		ISBN:        models.CleanISBN(b.ISBN),
	}
}

// Index is an in-memory full-text index over the collection, plus a title
// table for fuzzy suggestions.
type Index struct {
	mu     sync.RWMutex
	idx    bleve.Index
	titles map[string]string
}

// Suggestion is a fuzzy title match. Lower Distance is closer.
type Suggestion struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Distance int    `json:"distance"`
}

func buildMapping() mapping.IndexMapping {
	text := bleve.NewTextFieldMapping()
	text.Analyzer = fr.AnalyzerName
	text.Store = false

	isbn := bleve.NewTextFieldMapping()
	isbn.Analyzer = keyword.Name
	isbn.Store = false

	doc := bleve.NewDocumentMapping()
	for _, name := range []string{"title", "author", "publisher", "description", "genre"} {
		doc.AddFieldMappingsAt(name, text)
	}
	doc.AddFieldMappingsAt("isbn", isbn)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	m.DefaultAnalyzer = fr.AnalyzerName
	return m
}

// NewIndex creates an empty index.
func NewIndex() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("create search index: %w", err)
	}
	return &Index{idx: idx, titles: make(map[string]string)}, nil
}

// Rebuild replaces the whole index content with books.
func (i *Index) Rebuild(books []models.Book) error {
	fresh, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return fmt.Errorf("rebuild search index: %w", err)
	}
	batch := fresh.NewBatch()
	titles := make(map[string]string, len(books))
	for _, b := range books {
		if err := batch.Index(b.ID, toDocument(b)); err != nil {
			_ = fresh.Close()
			return fmt.Errorf("index book %s: %w", b.ID, err)
		}
		titles[b.ID] = b.Title
	}
	if err := fresh.Batch(batch); err != nil {
		_ = fresh.Close()
		return fmt.Errorf("rebuild search index: %w", err)
	}

	i.mu.Lock()
	old := i.idx
	i.idx = fresh
	i.titles = titles
	i.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	log.Printf("[DEBUG] search index rebuilt with %d books", len(books))
	return nil
}

// Put indexes or re-indexes one book.
func (i *Index) Put(b models.Book) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.idx.Index(b.ID, toDocument(b)); err != nil {
		return fmt.Errorf("index book %s: %w", b.ID, err)
	}
	i.titles[b.ID] = b.Title
	return nil
}

// Delete drops id from the index. Unknown ids are ignored.
func (i *Index) Delete(id string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.titles, id)
	if err := i.idx.Delete(id); err != nil {
		return fmt.Errorf("unindex book %s: %w", id, err)
	}
	return nil
}

// Len returns the number of indexed books.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.titles)
}

// HandleChange keeps the index in step with a library change.
func (i *Index) HandleChange(c library.Change) {
	var err error
	switch c.Type {
	case library.ChangeLoaded, library.ChangeImported:
		err = i.Rebuild(c.Books)
	case library.ChangeAdded, library.ChangeUpdated:
		if c.Book != nil {
			err = i.Put(*c.Book)
		}
	case library.ChangeRemoved:
		err = i.Delete(c.ID)
	}
	if err != nil {
		log.Printf("[WARN] search index update for %s failed: %v", c.Type, err)
	}
}

// Attach indexes the current collection and follows its changes.
func (i *Index) Attach(lib *library.Library) error {
	lib.Subscribe(i.HandleChange)
	return i.Rebuild(lib.Books())
}

// buildQuery matches an ISBN exactly when q looks like one, otherwise runs
// a French-analyzed match over every text field with a fuzzy fallback.
func buildQuery(q string) query.Query {
	if cleaned := models.CleanISBN(q); models.IsValidISBN(cleaned) {
		tq := bleve.NewTermQuery(cleaned)
		tq.SetField("isbn")
		return tq
	}

	exact := bleve.NewMatchQuery(q)
	exact.SetBoost(2)

	loose := bleve.NewMatchQuery(q)
	loose.SetFuzziness(1)

	prefix := bleve.NewPrefixQuery(strings.ToLower(q))
	prefix.SetField("title")

	return bleve.NewDisjunctionQuery(exact, loose, prefix)
}

// Search returns the ids of books matching q, best first.
func (i *Index) Search(q string, limit int) ([]string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	req := bleve.NewSearchRequestOptions(buildQuery(q), limit, 0, false)

	i.mu.RLock()
	res, err := i.idx.Search(req)
	i.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", q, err)
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// Suggest ranks indexed titles that fuzzily contain q, closest first.
func (i *Index) Suggest(q string, limit int) []Suggestion {
	q = strings.TrimSpace(q)
	if q == "" {
		return []Suggestion{}
	}

	i.mu.RLock()
	ids := make([]string, 0, len(i.titles))
	for id := range i.titles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	targets := make([]string, len(ids))
	for n, id := range ids {
		targets[n] = i.titles[id]
	}
	i.mu.RUnlock()

	ranks := fuzzy.RankFindNormalizedFold(q, targets)
	sort.Stable(ranks)

	out := make([]Suggestion, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, Suggestion{ID: ids[r.OriginalIndex], Title: r.Target, Distance: r.Distance})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Close releases the index.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.idx == nil {
		return nil
	}
	err := i.idx.Close()
	i.idx = nil
	return err
}

// Select returns the books whose ids appear in ids, in ids order.
func Select(books []models.Book, ids []string) []models.Book {
	byID := make(map[string]models.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}
	out := make([]models.Book, 0, len(ids))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			out = append(out, b)
		}
	}
	return out
}
