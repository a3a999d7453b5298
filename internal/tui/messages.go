// file: internal/tui/messages.go
// version: 1.0.0
// guid: 2d4f6b8a-0c1e-4f3a-b5c7-8e0a2c4e6b93

package tui

import (
	"github.com/jdfalk/book-library/internal/library"
	"github.com/jdfalk/book-library/internal/models"
)

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// ChangeMsg carries a library change made elsewhere (HTTP, scanner).
type ChangeMsg struct {
	Change library.Change
}

// BookUpdatedMsg signals a persisted status change.
type BookUpdatedMsg struct {
	Book models.Book
}

// BookDeletedMsg signals a persisted removal.
type BookDeletedMsg struct {
	ID    string
	Title string
}
