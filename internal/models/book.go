// file: internal/models/book.go
// version: 2.0.0
// guid: 6e7f8a9b-0c1d-2e3f-4a5b-6c7d8e9f0a1b

package models

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	ulid "github.com/oklog/ulid/v2"
)

// ErrValidation is returned when a book is missing required fields.
var ErrValidation = errors.New("validation error")

// GenreUnspecified is used whenever a book has no genre.
const GenreUnspecified = "Non spécifié"

// Genres is the predefined genre list offered by the add form.
var Genres = []string{
	"Roman",
	"Science-Fiction",
	"Fantastique",
	"Policier",
	"Thriller",
	"Biographie",
	"Histoire",
	"Philosophie",
	"Science",
	"Art",
	"Cuisine",
	"Voyage",
	"Jeunesse",
	"Bande dessinée",
	"Poésie",
	"Économie",
	"Politique",
	"Psychologie",
	"Développement personnel",
	"Autre",
}

// ReadingStatus tracks where the reader is with a book.
type ReadingStatus string

const (
	StatusUnread  ReadingStatus = "unread"
	StatusReading ReadingStatus = "reading"
	StatusRead    ReadingStatus = "read"
)

// ReadingStatuses lists every status in display order.
var ReadingStatuses = []ReadingStatus{StatusUnread, StatusReading, StatusRead}

// Valid reports whether s is one of the known statuses.
func (s ReadingStatus) Valid() bool {
	switch s {
	case StatusUnread, StatusReading, StatusRead:
		return true
	}
	return false
}

// Label returns the French UI label for the status. Unknown values read as unread.
func (s ReadingStatus) Label() string {
	switch s {
	case StatusReading:
		return "En cours de lecture"
	case StatusRead:
		return "Lu"
	default:
		return "Pas lu"
	}
}

// Next cycles unread -> reading -> read -> unread.
func (s ReadingStatus) Next() ReadingStatus {
	switch s {
	case StatusUnread, "":
		return StatusReading
	case StatusReading:
		return StatusRead
	default:
		return StatusUnread
	}
}

// ParseReadingStatus accepts a status value or its label (case-insensitive).
func ParseReadingStatus(v string) (ReadingStatus, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return StatusUnread, nil
	}
	for _, s := range ReadingStatuses {
		if strings.EqualFold(v, string(s)) || strings.EqualFold(v, s.Label()) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: unknown reading status %q", ErrValidation, v)
}

// Book is the canonical book shape, persisted as-is.
type Book struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Author        string        `json:"author"`
	Genre         string        `json:"genre"`
	Publisher     string        `json:"publisher,omitempty"`
	PublishedDate string        `json:"publishedDate,omitempty"`
	ISBN          string        `json:"isbn,omitempty"`
	CoverURL      string        `json:"coverUrl,omitempty"`
	Description   string        `json:"description,omitempty"`
	PageCount     int           `json:"pageCount,omitempty"`
	ReadingStatus ReadingStatus `json:"readingStatus,omitempty"`

	// Extension fields, carried through storage but not used by the library logic yet.
	Language     string   `json:"language,omitempty"`
	Rating       *float64 `json:"rating,omitempty"`
	Notes        string   `json:"notes,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	DateAdded    string   `json:"dateAdded,omitempty"`
	DateModified string   `json:"dateModified,omitempty"`
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a new unique, lexically time-ordered book id.
func NewID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// ApplyDefaults fills the fields every stored book must carry.
func (b *Book) ApplyDefaults() {
	if b.ID == "" {
		b.ID = NewID()
	}
	if b.ReadingStatus == "" {
		b.ReadingStatus = StatusUnread
	}
	if strings.TrimSpace(b.Genre) == "" {
		b.Genre = GenreUnspecified
	}
	if b.PageCount < 0 {
		b.PageCount = 0
	}
}

// Validate checks the fields a complete record needs.
func (b *Book) Validate() error {
	var missing []string
	if strings.TrimSpace(b.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(b.Author) == "" {
		missing = append(missing, "author")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", ErrValidation, strings.Join(missing, " and "))
	}
	if b.ReadingStatus != "" && !b.ReadingStatus.Valid() {
		return fmt.Errorf("%w: unknown reading status %q", ErrValidation, b.ReadingStatus)
	}
	if b.PageCount < 0 {
		return fmt.Errorf("%w: page count must not be negative", ErrValidation)
	}
	return nil
}

// Clone returns a deep copy of b.
func (b Book) Clone() Book {
	if b.Tags != nil {
		b.Tags = append([]string(nil), b.Tags...)
	}
	if b.Rating != nil {
		r := *b.Rating
		b.Rating = &r
	}
	return b
}

// CloneBooks deep-copies a slice of books. A nil input yields an empty slice.
func CloneBooks(books []Book) []Book {
	out := make([]Book, len(books))
	for i := range books {
		out[i] = books[i].Clone()
	}
	return out
}
