// file: internal/models/filter.go
// version: 1.0.0
// guid: 9d0c3b7e-41a2-4f6d-8e5b-7a1f2c3d4e5f

package models

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortOrder is either ascending or descending.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Filter narrows a book list. Empty fields match everything.
type Filter struct {
	SearchTerm    string
	Genre         string
	Author        string
	ISBN          string
	Publisher     string
	ReadingStatus ReadingStatus
}

// IsZero reports whether no criterion is set.
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// Stats summarises a collection.
type Stats struct {
	Total    int            `json:"total"`
	Read     int            `json:"read"`
	Reading  int            `json:"reading"`
	Unread   int            `json:"unread"`
	ByGenre  map[string]int `json:"byGenre"`
	ByAuthor map[string]int `json:"byAuthor"`
}

// Field returns the string form of a book field addressed by its JSON name.
// ok is false for unknown fields.
func (b *Book) Field(name string) (value string, ok bool) {
	switch name {
	case "id":
		return b.ID, true
	case "title":
		return b.Title, true
	case "author":
		return b.Author, true
	case "genre":
		return b.Genre, true
	case "publisher":
		return b.Publisher, true
	case "publishedDate":
		return b.PublishedDate, true
	case "isbn":
		return b.ISBN, true
	case "coverUrl":
		return b.CoverURL, true
	case "description":
		return b.Description, true
	case "pageCount":
		if b.PageCount == 0 {
			return "", true
		}
		return strconv.Itoa(b.PageCount), true
	case "readingStatus":
		return string(b.ReadingStatus), true
	case "language":
		return b.Language, true
	case "notes":
		return b.Notes, true
	case "dateAdded":
		return b.DateAdded, true
	case "dateModified":
		return b.DateModified, true
	}
	return "", false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// Matches reports whether b satisfies every non-empty criterion of f.
func (f Filter) Matches(b *Book) bool {
	if term := strings.TrimSpace(f.SearchTerm); term != "" {
		if !containsFold(b.Title, term) &&
			!containsFold(b.Author, term) &&
			!containsFold(b.ISBN, term) &&
			!containsFold(b.Publisher, term) {
			return false
		}
	}
	if f.Genre != "" && !containsFold(b.Genre, f.Genre) {
		return false
	}
	if f.Author != "" && !containsFold(b.Author, f.Author) {
		return false
	}
	if f.ISBN != "" && !containsFold(CleanISBN(b.ISBN), CleanISBN(f.ISBN)) {
		return false
	}
	if f.Publisher != "" && !containsFold(b.Publisher, f.Publisher) {
		return false
	}
	if f.ReadingStatus != "" {
		status := b.ReadingStatus
		if status == "" {
			status = StatusUnread
		}
		if status != f.ReadingStatus {
			return false
		}
	}
	return true
}

// FilterBooks returns the books matching f, in input order.
func FilterBooks(books []Book, f Filter) []Book {
	out := make([]Book, 0, len(books))
	for i := range books {
		if f.Matches(&books[i]) {
			out = append(out, books[i])
		}
	}
	return out
}

// SortBooks returns a sorted copy. Strings compare with French collation,
// ignoring case and accents. Unknown fields leave the order unchanged.
func SortBooks(books []Book, field string, order SortOrder) []Book {
	out := append([]Book(nil), books...)
	if field == "" {
		field = "title"
	}
	if _, ok := (&Book{}).Field(field); !ok {
		return out
	}

	col := collate.New(language.French, collate.Loose)
	less := func(i, j int) bool {
		var c int
		if field == "pageCount" {
			c = out[i].PageCount - out[j].PageCount
		} else {
			a, _ := out[i].Field(field)
			b, _ := out[j].Field(field)
			c = col.CompareString(a, b)
		}
		if order == SortDesc {
			return c > 0
		}
		return c < 0
	}
	sort.SliceStable(out, less)
	return out
}

// GroupBooksByField buckets books by a field value; empty values go under GenreUnspecified.
func GroupBooksByField(books []Book, field string) map[string][]Book {
	groups := make(map[string][]Book)
	for i := range books {
		key, _ := books[i].Field(field)
		if key == "" {
			key = GenreUnspecified
		}
		groups[key] = append(groups[key], books[i])
	}
	return groups
}

// UniqueGenres returns the distinct non-empty genres, sorted with French collation.
func UniqueGenres(books []Book) []string {
	seen := make(map[string]bool)
	var genres []string
	for i := range books {
		g := books[i].Genre
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		genres = append(genres, g)
	}
	col := collate.New(language.French, collate.Loose)
	col.SortStrings(genres)
	return genres
}

// ComputeStats counts books by reading status, genre and author.
func ComputeStats(books []Book) Stats {
	st := Stats{
		Total:    len(books),
		ByGenre:  make(map[string]int),
		ByAuthor: make(map[string]int),
	}
	for i := range books {
		switch books[i].ReadingStatus {
		case StatusRead:
			st.Read++
		case StatusReading:
			st.Reading++
		default:
			st.Unread++
		}
		genre := books[i].Genre
		if genre == "" {
			genre = GenreUnspecified
		}
		st.ByGenre[genre]++
		author := books[i].Author
		if author == "" {
			author = GenreUnspecified
		}
		st.ByAuthor[author]++
	}
	return st
}
