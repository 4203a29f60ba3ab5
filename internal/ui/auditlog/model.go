// Package auditlog implements the read-only activity log screen for
// ADMIN and OWNER roles.
package auditlog

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tkoh/bookstore-tui/internal/api"
	"github.com/tkoh/bookstore-tui/internal/keys"
	"github.com/tkoh/bookstore-tui/internal/model"
	"github.com/tkoh/bookstore-tui/internal/theme"
	"github.com/tkoh/bookstore-tui/internal/ui"
)

// LogsLoadedMsg is sent when a page of the activity log has been fetched.
type LogsLoadedMsg struct {
	Page model.Page[model.AuditLog]
}

type logItem struct {
	entry model.AuditLog
}

func (i logItem) FilterValue() string { return i.entry.Action }

type delegate struct{}

func (delegate) Height() int                             { return 1 }
func (delegate) Spacing() int                            { return 0 }
func (delegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (delegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	li, ok := item.(logItem)
	if !ok {
		return
	}
	e := li.entry

	ts := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(e.At.Format("2006-01-02 15:04"))
	user := lipgloss.NewStyle().
		Foreground(theme.ColorMagenta).
		Render(e.UserName)
	action := lipgloss.NewStyle().Bold(true).Render(e.Action)

	line := fmt.Sprintf("%s  %s  %s", ts, user, action)
	if e.Details != "" {
		line += lipgloss.NewStyle().Foreground(theme.ColorGray).Render("  " + e.Details)
	}

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}
	fmt.Fprint(w, line)
}

// Model is the activity log screen.
type Model struct {
	list   list.Model
	client *api.Client
	keys   *keys.KeyMap

	page     model.Page[model.AuditLog]
	pageable api.Pageable

	width  int
	height int
}

// New creates the activity log screen.
func New(client *api.Client, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, delegate{}, width, height-2)
	l.Title = "Activity"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:     l,
		client:   client,
		keys:     k,
		pageable: api.Pageable{Page: 0, Size: 25, Sort: "fecha,desc"},
		width:    width,
		height:   height,
	}
}

// Init loads the newest page.
func (m Model) Init() tea.Cmd {
	return m.load()
}

// SetSize updates the screen dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}

// Update handles messages for the activity log screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LogsLoadedMsg:
		m.page = msg.Page
		items := make([]list.Item, len(msg.Page.Content))
		for i, e := range msg.Page.Content {
			items[i] = logItem{entry: e}
		}
		return m, m.list.SetItems(items)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Refresh):
			return m, m.load()
		case key.Matches(msg, m.keys.NextPage):
			if !m.page.Last {
				m.pageable.Page++
				return m, m.load()
			}
			return m, nil
		case key.Matches(msg, m.keys.PrevPage):
			if m.pageable.Page > 0 {
				m.pageable.Page--
				return m, m.load()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) load() tea.Cmd {
	client := m.client
	p := m.pageable
	return func() tea.Msg {
		page, err := client.ListAuditLogs(context.Background(), p)
		if err != nil {
			return ui.ErrorMsg{Err: err}
		}
		return LogsLoadedMsg{Page: page}
	}
}

// View renders the activity log.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No activity recorded.")
	}

	footer := theme.HelpStyle.Render(fmt.Sprintf(
		"page %d/%d · %d entries",
		m.page.Number+1, max(m.page.TotalPages, 1), m.page.TotalElements,
	))
	return lipgloss.JoinVertical(lipgloss.Left, m.list.View(), footer)
}
