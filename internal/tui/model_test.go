// file: internal/tui/model_test.go
// version: 1.0.0
// guid: 0c2e4a6b-8d9f-4b1c-93e5-7d9f1b3d5e68

package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdfalk/book-library/internal/database"
	"github.com/jdfalk/book-library/internal/library"
	"github.com/jdfalk/book-library/internal/models"
)

func newTestLibrary(t *testing.T, books ...models.Book) *library.Library {
	t.Helper()
	store := database.NewBookStore(database.NewMemoryKV(), database.DefaultStorageKey)
	for _, b := range books {
		_, err := store.AddBook(context.Background(), b)
		require.NoError(t, err)
	}
	lib := library.New(store)
	lib.Load(context.Background())
	return lib
}

func press(t *testing.T, m Model, keys string) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
	return next.(Model), cmd
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	return next.(Model)
}

func titles(books []models.Book) []string {
	out := make([]string, 0, len(books))
	for _, b := range books {
		out = append(out, b.Title)
	}
	return out
}

func fixtures() []models.Book {
	return []models.Book{
		{Title: "Fondation", Author: "Isaac Asimov", Genre: "Science-Fiction"},
		{Title: "Dune", Author: "Frank Herbert", Genre: "Science-Fiction"},
		{Title: "Germinal", Author: "Émile Zola", Genre: "Roman"},
	}
}

func TestNewModelListsBooksByTitle(t *testing.T) {
	m := NewModel(newTestLibrary(t, fixtures()...))
	assert.Equal(t, []string{"Dune", "Fondation", "Germinal"}, titles(m.Books()))
	assert.Equal(t, "", m.Genre())
}

func TestCycleGenre(t *testing.T) {
	m := NewModel(newTestLibrary(t, fixtures()...))

	m, _ = press(t, m, "g")
	assert.Equal(t, "Roman", m.Genre())
	assert.Equal(t, []string{"Germinal"}, titles(m.Books()))

	m, _ = press(t, m, "g")
	assert.Equal(t, "Science-Fiction", m.Genre())
	assert.Equal(t, []string{"Dune", "Fondation"}, titles(m.Books()))

	m, _ = press(t, m, "g")
	assert.Equal(t, "", m.Genre())
	assert.Len(t, m.Books(), 3)
	assert.Contains(t, m.View(), "Tous")
}

func TestCycleStatusPersists(t *testing.T) {
	lib := newTestLibrary(t, fixtures()...)
	m := NewModel(lib)

	m, cmd := press(t, m, "s")
	m = run(t, m, cmd)

	dune := m.Books()[0]
	assert.Equal(t, models.StatusReading, dune.ReadingStatus)
	stored, ok := lib.Get(dune.ID)
	require.True(t, ok)
	assert.Equal(t, models.StatusReading, stored.ReadingStatus)
	assert.Contains(t, m.View(), "En cours de lecture")
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	lib := newTestLibrary(t, fixtures()...)
	m := NewModel(lib)

	m, cmd := press(t, m, "x")
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "Supprimer « Dune » ? (y/n)")

	m, cmd = press(t, m, "n")
	assert.Nil(t, cmd)
	assert.Equal(t, 3, lib.Len())

	m, _ = press(t, m, "x")
	m, cmd = press(t, m, "y")
	m = run(t, m, cmd)
	assert.Equal(t, 2, lib.Len())
	assert.Equal(t, []string{"Fondation", "Germinal"}, titles(m.Books()))
	assert.Contains(t, m.View(), "Dune supprimé")
}

func TestExternalChangesReload(t *testing.T) {
	lib := newTestLibrary(t)
	m := NewModel(lib)
	assert.Contains(t, m.View(), "Aucun livre")

	_, err := lib.AddBook(context.Background(), models.Book{Title: "Nadja", Author: "André Breton"})
	require.NoError(t, err)

	m = run(t, m, m.Init())
	assert.Equal(t, []string{"Nadja"}, titles(m.Books()))
}

func TestErrorShown(t *testing.T) {
	m := NewModel(newTestLibrary(t))
	next, _ := m.Update(ErrMsg{Err: errors.New("disk full"), Context: "deleting book"})
	assert.Contains(t, next.(Model).View(), "deleting book: disk full")
}

func TestQuit(t *testing.T) {
	m := NewModel(newTestLibrary(t))
	_, cmd := press(t, m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
