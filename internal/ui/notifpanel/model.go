// Package notifpanel implements the notification overlay: the list of
// server-generated events with mark-read and delete actions.
package notifpanel

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
	"github.com/tkoh/bookstore-tui/internal/notify"
	"github.com/tkoh/bookstore-tui/internal/store"
	"github.com/tkoh/bookstore-tui/internal/theme"
	"github.com/tkoh/bookstore-tui/internal/ui"
)

// RefreshedMsg is sent after the bulk fetch replaced the local collection.
type RefreshedMsg struct{}

// ChangedMsg is sent after a mark-read or delete was confirmed server-side
// and applied locally.
type ChangedMsg struct{}

type notifItem struct {
	n model.Notification
}

func (i notifItem) FilterValue() string { return i.n.Message }

type delegate struct{}

func (delegate) Height() int                             { return 1 }
func (delegate) Spacing() int                            { return 0 }
func (delegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (delegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ni, ok := item.(notifItem)
	if !ok {
		return
	}
	n := ni.n

	mark := "  "
	text := n.Message
	if !n.Read {
		mark = theme.UnreadMarkStyle.Render("● ")
		text = theme.UnreadMarkStyle.Render(text)
	} else {
		text = lipgloss.NewStyle().Foreground(theme.ColorGray).Render(text)
	}

	ts := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(n.CreatedAt.Format("Jan 02 15:04"))

	line := fmt.Sprintf("%s%s  %s", mark, text, ts)
	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}
	fmt.Fprint(w, line)
}

// Model is the notification panel.
type Model struct {
	list   list.Model
	client *api.Client
	state  *notify.State
	cache  *store.CacheStore
	keys   *keys.KeyMap

	width  int
	height int
}

// New creates the notification panel over the shared state. cache may be
// nil; when present it backs the list while the server is unreachable.
func New(client *api.Client, state *notify.State, cache *store.CacheStore, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, delegate{}, width, height-2)
	l.Title = "Notifications"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	m := Model{
		list:   l,
		client: client,
		state:  state,
		cache:  cache,
		keys:   k,
		width:  width,
		height: height,
	}
	m.Reload()
	return m
}

// Init fetches the server-side list.
func (m Model) Init() tea.Cmd {
	return m.refresh()
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}

// Reload rebuilds the visible list from the shared state. The root model
// calls this after a realtime push lands.
func (m *Model) Reload() {
	all := m.state.All()
	items := make([]list.Item, len(all))
	for i, n := range all {
		items[i] = notifItem{n: n}
	}
	m.list.SetItems(items)
}

// Update handles messages for the notification panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RefreshedMsg, ChangedMsg:
		m.Reload()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Refresh):
			return m, m.refresh()

		case key.Matches(msg, m.keys.MarkRead):
			item, ok := m.list.SelectedItem().(notifItem)
			if !ok || item.n.Read {
				return m, nil
			}
			return m, m.markRead(item.n.ID)

		case key.Matches(msg, m.keys.Delete):
			item, ok := m.list.SelectedItem().(notifItem)
			if !ok {
				return m, nil
			}
			return m, m.remove(item.n.ID)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) refresh() tea.Cmd {
	client := m.client
	state := m.state
	cache := m.cache
	return func() tea.Msg {
		ctx := context.Background()
		list, err := client.MyNotifications(ctx)
		if err != nil {
			// Fall back to the local cache so the panel keeps working
			// while the server is unreachable.
			if cache != nil {
				if cached, cacheErr := cache.GetNotifications(ctx); cacheErr == nil && len(cached) > 0 {
					state.Initialize(cached)
					return RefreshedMsg{}
				}
			}
			return ui.ErrorMsg{Err: err}
		}
		state.Initialize(list)
		if cache != nil {
			// Write-through failure is not worth interrupting the user for.
			_ = cache.UpsertNotifications(ctx, list)
		}
		return RefreshedMsg{}
	}
}

// markRead flips the local flag only after the server confirmed. The
// cache follows the same confirm-then-mutate rule so an offline fallback
// does not resurrect stale unread flags.
func (m Model) markRead(id int64) tea.Cmd {
	client := m.client
	state := m.state
	cache := m.cache
	return func() tea.Msg {
		ctx := context.Background()
		if _, err := client.MarkNotificationRead(ctx, id); err != nil {
			return ui.ErrorMsg{Err: err}
		}
		state.MarkRead(id)
		if cache != nil {
			_ = cache.MarkNotificationRead(ctx, id)
		}
		return ChangedMsg{}
	}
}

func (m Model) remove(id int64) tea.Cmd {
	client := m.client
	state := m.state
	cache := m.cache
	return func() tea.Msg {
		ctx := context.Background()
		if err := client.DeleteNotification(ctx, id); err != nil {
			return ui.ErrorMsg{Err: err}
		}
		state.Remove(id)
		if cache != nil {
			_ = cache.DeleteNotification(ctx, id)
		}
		return ChangedMsg{}
	}
}

// View renders the panel.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No notifications.")
	}

	footer := theme.HelpStyle.Render(fmt.Sprintf("%d unread", m.state.Unread()))
	return lipgloss.JoinVertical(lipgloss.Left, m.list.View(), footer)
}
