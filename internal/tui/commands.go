// file: internal/tui/commands.go
// version: 1.0.0
// guid: 6f8a0c2e-4b5d-4a7f-9c1e-3a5c7e9b1d24

package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jdfalk/book-library/internal/library"
	"github.com/jdfalk/book-library/internal/models"
)

const storeTimeout = 10 * time.Second

// CycleStatusCmd moves book to its next reading status and persists it.
func CycleStatusCmd(lib *library.Library, book models.Book) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		book.ReadingStatus = book.ReadingStatus.Next()
		updated, err := lib.UpdateBook(ctx, book)
		if err != nil {
			return ErrMsg{Err: err, Context: "updating reading status"}
		}
		return BookUpdatedMsg{Book: updated}
	}
}

// DeleteBookCmd removes book from the library.
func DeleteBookCmd(lib *library.Library, book models.Book) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		if err := lib.RemoveBook(ctx, book.ID); err != nil {
			return ErrMsg{Err: err, Context: "deleting book"}
		}
		return BookDeletedMsg{ID: book.ID, Title: book.Title}
	}
}

// WaitForChangeCmd blocks until the library reports a change. The model
// re-issues it after every ChangeMsg.
func WaitForChangeCmd(changes <-chan library.Change) tea.Cmd {
	return func() tea.Msg {
		c, ok := <-changes
		if !ok {
			return nil
		}
		return ChangeMsg{Change: c}
	}
}
