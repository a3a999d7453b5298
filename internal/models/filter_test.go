// file: internal/models/filter_test.go
// version: 1.0.0
// guid: 5a7e2c90-1b3d-4f68-a2c4-8e0d6b4f1a27

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBooks() []Book {
	return []Book{
		{ID: "1", Title: "Germinal", Author: "Émile Zola", Genre: "Roman", ISBN: "9782253004226", ReadingStatus: StatusRead},
		{ID: "2", Title: "Dune", Author: "Frank Herbert", Genre: "Science-Fiction", Publisher: "Pocket"},
		{ID: "3", Title: "Le Horla", Author: "Guy de Maupassant", Genre: "roman", ReadingStatus: StatusReading},
		{ID: "4", Title: "être et temps", Author: "Martin Heidegger", Genre: "Philosophie"},
	}
}

func ids(books []Book) []string {
	out := make([]string, 0, len(books))
	for _, b := range books {
		out = append(out, b.ID)
	}
	return out
}

func TestFilterBooksByGenreIsCaseInsensitive(t *testing.T) {
	got := FilterBooks(sampleBooks(), Filter{Genre: "Roman"})
	assert.Equal(t, []string{"1", "3"}, ids(got))
}

func TestFilterBooksEmptyFilterMatchesAll(t *testing.T) {
	books := sampleBooks()
	got := FilterBooks(books, Filter{})
	assert.Len(t, got, len(books))
	assert.True(t, Filter{}.IsZero())
}

func TestFilterBooksSearchTerm(t *testing.T) {
	books := sampleBooks()
	assert.Equal(t, []string{"2"}, ids(FilterBooks(books, Filter{SearchTerm: "pocket"})))
	assert.Equal(t, []string{"1"}, ids(FilterBooks(books, Filter{SearchTerm: "ZOLA"})))
	assert.Equal(t, []string{"1"}, ids(FilterBooks(books, Filter{SearchTerm: "978225300"})))
	assert.Empty(t, FilterBooks(books, Filter{SearchTerm: "proust"}))
}

func TestFilterBooksReadingStatusDefaultsToUnread(t *testing.T) {
	got := FilterBooks(sampleBooks(), Filter{ReadingStatus: StatusUnread})
	assert.Equal(t, []string{"2", "4"}, ids(got))
}

func TestFilterBooksCombinesCriteria(t *testing.T) {
	got := FilterBooks(sampleBooks(), Filter{Genre: "roman", ReadingStatus: StatusReading})
	assert.Equal(t, []string{"3"}, ids(got))
}

func TestSortBooksUsesFrenchCollation(t *testing.T) {
	got := SortBooks(sampleBooks(), "title", SortAsc)
	assert.Equal(t, []string{"2", "4", "1", "3"}, ids(got))

	got = SortBooks(sampleBooks(), "title", SortDesc)
	assert.Equal(t, []string{"3", "1", "4", "2"}, ids(got))
}

func TestSortBooksUnknownFieldKeepsOrder(t *testing.T) {
	books := sampleBooks()
	got := SortBooks(books, "nope", SortAsc)
	assert.Equal(t, ids(books), ids(got))
}

func TestSortBooksDoesNotMutateInput(t *testing.T) {
	books := sampleBooks()
	_ = SortBooks(books, "author", SortAsc)
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(books))
}

func TestGroupBooksByField(t *testing.T) {
	groups := GroupBooksByField(sampleBooks(), "publisher")
	require.Contains(t, groups, "Pocket")
	assert.Len(t, groups["Pocket"], 1)
	assert.Len(t, groups[GenreUnspecified], 3)
}

func TestUniqueGenres(t *testing.T) {
	genres := UniqueGenres(sampleBooks())
	require.Len(t, genres, 4)
	assert.ElementsMatch(t, []string{"Philosophie", "roman", "Roman", "Science-Fiction"}, genres)
	assert.Equal(t, "Philosophie", genres[0])
	assert.Equal(t, "Science-Fiction", genres[3])
}

func TestComputeStats(t *testing.T) {
	st := ComputeStats(sampleBooks())
	assert.Equal(t, 4, st.Total)
	assert.Equal(t, 1, st.Read)
	assert.Equal(t, 1, st.Reading)
	assert.Equal(t, 2, st.Unread)
	assert.Equal(t, 1, st.ByGenre["Roman"])
	assert.Equal(t, 1, st.ByAuthor["Frank Herbert"])
}
