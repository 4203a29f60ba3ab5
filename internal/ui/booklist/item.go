package booklist

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tkoh/bookstore-tui/internal/model"
	"github.com/tkoh/bookstore-tui/internal/theme"
)

// BookItem wraps a model.Book so it can be used in a bubbles/list.
type BookItem struct {
	Book model.Book
}

// FilterValue returns the string used for fuzzy filtering.
func (i BookItem) FilterValue() string { return i.Book.Title }

// ItemDelegate renders one catalog entry per line.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages.
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

// Render draws a single catalog line: ISBN, title, author, category, year.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	bi, ok := item.(BookItem)
	if !ok {
		return
	}
	b := bi.Book

	isbn := lipgloss.NewStyle().Foreground(theme.ColorGray).Render(b.ISBN)
	author := lipgloss.NewStyle().Foreground(theme.ColorMagenta).Render(b.Author)

	meta := []string{}
	if b.CategoryName != "" {
		meta = append(meta, b.CategoryName)
	}
	if b.PublisherName != "" {
		meta = append(meta, b.PublisherName)
	}
	if !b.PublishedAt.IsZero() {
		meta = append(meta, b.PublishedAt.Format("2006"))
	}
	metaStr := ""
	if len(meta) > 0 {
		metaStr = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Render("  " + strings.Join(meta, " · "))
	}

	line := fmt.Sprintf("%s  %s — %s%s", isbn, b.Title, author, metaStr)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}
