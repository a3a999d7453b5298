// file: internal/tui/model.go
// version: 1.0.0
// guid: 8a0c2e4f-6b7d-4c9e-a1f3-5b7d9f1a3c46

// Package tui is the terminal book browser: a filterable list of the
// collection with genre chips, reading-status cycling and deletion.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jdfalk/book-library/internal/library"
	"github.com/jdfalk/book-library/internal/models"
)

// BookItem implements list.Item for books
type BookItem struct {
	Book models.Book
}

func (i BookItem) FilterValue() string { return i.Book.Title + " " + i.Book.Author }

func (i BookItem) Title() string { return i.Book.Title }

func (i BookItem) Description() string {
	st := i.Book.ReadingStatus
	badge := statusStyle(st == models.StatusRead, st == models.StatusReading).Render(st.Label())
	return fmt.Sprintf("%s · %s · %s", i.Book.Author, i.Book.Genre, badge)
}

// changeBuffer bounds the queued library notifications. Dropping is safe
// because every change reloads the whole collection.
const changeBuffer = 16

// Size used until the first WindowSizeMsg arrives.
const (
	defaultWidth  = 80
	defaultHeight = 20
)

// Model is the bubbletea model of the browser.
type Model struct {
	lib  *library.Library
	keys KeyMap
	list list.Model

	// genres[0] is "" for all genres.
	genres   []string
	genreIdx int

	changes       chan library.Change
	pendingDelete *models.Book
	flash         string
	err           error
	width         int
	height        int
}

// NewModel builds the browser over lib and subscribes to its changes.
func NewModel(lib *library.Library) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(Accent).
		BorderForeground(Accent)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		BorderForeground(Accent)

	l := list.New([]list.Item{}, delegate, defaultWidth, defaultHeight)
	l.Title = "Ma bibliothèque"
	l.Styles.Title = TitleStyle
	l.SetShowHelp(false)

	m := Model{
		lib:     lib,
		keys:    DefaultKeyMap(),
		list:    l,
		genres:  []string{""},
		changes: make(chan library.Change, changeBuffer),
	}
	lib.Subscribe(func(c library.Change) {
		select {
		case m.changes <- c:
		default:
		}
	})
	m.refresh()
	return m
}

// Run starts the browser on the alternate screen and blocks until quit.
func Run(lib *library.Library) error {
	p := tea.NewProgram(NewModel(lib), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// Init waits for library changes.
func (m Model) Init() tea.Cmd {
	return WaitForChangeCmd(m.changes)
}

// Genre returns the genre the list is narrowed to, "" for all.
func (m Model) Genre() string {
	return m.genres[m.genreIdx]
}

// Books returns the books currently listed, before any typed filter.
func (m Model) Books() []models.Book {
	items := m.list.Items()
	out := make([]models.Book, 0, len(items))
	for _, it := range items {
		out = append(out, it.(BookItem).Book)
	}
	return out
}

// refresh reloads the collection, keeping the chosen genre when it still exists.
func (m *Model) refresh() {
	books := m.lib.Books()
	current := m.Genre()

	m.genres = append([]string{""}, models.UniqueGenres(books)...)
	m.genreIdx = 0
	for i, g := range m.genres {
		if g == current {
			m.genreIdx = i
		}
	}

	genre := m.Genre()
	items := make([]list.Item, 0, len(books))
	for _, b := range models.SortBooks(books, "title", models.SortAsc) {
		if genre == "" || b.Genre == genre {
			items = append(items, BookItem{Book: b})
		}
	}
	m.list.SetItems(items)
}

func (m Model) selected() (models.Book, bool) {
	item, ok := m.list.SelectedItem().(BookItem)
	if !ok {
		return models.Book{}, false
	}
	return item.Book, true
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width, max(msg.Height-4, 1))
		return m, nil

	case ChangeMsg:
		m.refresh()
		return m, WaitForChangeCmd(m.changes)

	case BookUpdatedMsg:
		m.err = nil
		m.flash = fmt.Sprintf("%s: %s", msg.Book.Title, msg.Book.ReadingStatus.Label())
		m.refresh()
		return m, nil

	case BookDeletedMsg:
		m.err = nil
		m.flash = fmt.Sprintf("%s supprimé", msg.Title)
		m.refresh()
		return m, nil

	case ErrMsg:
		m.err = msg
		return m, nil

	case tea.KeyMsg:
		if m.pendingDelete != nil {
			return m.handleConfirm(msg)
		}
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.CycleGenre):
			m.genreIdx = (m.genreIdx + 1) % len(m.genres)
			m.refresh()
			m.list.ResetSelected()
			return m, nil
		case key.Matches(msg, m.keys.CycleStatus):
			if b, ok := m.selected(); ok {
				return m, CycleStatusCmd(m.lib, b)
			}
			return m, nil
		case key.Matches(msg, m.keys.Delete):
			if b, ok := m.selected(); ok {
				m.pendingDelete = &b
			}
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			m.refresh()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	b := *m.pendingDelete
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.pendingDelete = nil
		return m, DeleteBookCmd(m.lib, b)
	case key.Matches(msg, m.keys.Deny):
		m.pendingDelete = nil
	}
	return m, nil
}

func (m Model) chips() string {
	parts := make([]string, 0, len(m.genres))
	for i, g := range m.genres {
		label := g
		if g == "" {
			label = "Tous"
		}
		if i == m.genreIdx {
			parts = append(parts, ActiveChipStyle.Render(label))
		} else {
			parts = append(parts, ChipStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) statusLine() string {
	switch {
	case m.pendingDelete != nil:
		return ErrorStyle.Render(fmt.Sprintf("Supprimer « %s » ? (y/n)", m.pendingDelete.Title))
	case m.err != nil:
		return ErrorStyle.Render(m.err.Error())
	case m.flash != "":
		return SuccessStyle.Render(m.flash)
	}
	return ""
}

func (m Model) helpLine() string {
	bindings := append(m.keys.ShortHelp(), m.keys.Quit)
	parts := make([]string, 0, len(bindings)+1)
	parts = append(parts, "/ filtre")
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return DimStyle.Render(strings.Join(parts, " • "))
}

// View renders the UI
func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() == list.Unfiltered && m.Genre() == "" {
		return lipgloss.JoinVertical(lipgloss.Left,
			TitleStyle.Render("Ma bibliothèque"),
			DimStyle.Render("Aucun livre. Ajoutez-en avec « book-library add » ou scannez un ISBN."),
			m.statusLine(),
			m.helpLine(),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.chips(),
		m.list.View(),
		m.statusLine(),
		m.helpLine(),
	)
}
