package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/tkoh/bookstore-tui/internal/realtime"
	"github.com/tkoh/bookstore-tui/internal/theme"
)

// Layout manages the terminal frame: header with title, connection dot and
// unread badge, a tab row, the content area, and a status bar.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	TabRowHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		TabRowHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area.
func (l Layout) ContentHeight() int {
	return l.Height - l.HeaderHeight - l.TabRowHeight - l.StatusBarHeight
}

// connDot renders the realtime connection indicator.
func connDot(state realtime.State) string {
	switch state {
	case realtime.Connected:
		return theme.ConnectedDotStyle.Render("●")
	case realtime.Connecting:
		return theme.ConnectingDotStyle.Render("◐")
	default:
		return theme.DisconnectedDotStyle.Render("○")
	}
}

// RenderHeader renders the top bar: title on the left; identity, unread
// badge, and connection dot on the right.
func (l Layout) RenderHeader(title, identity string, unread int, conn realtime.State) string {
	titleRendered := theme.HeaderStyle.Render(title)

	right := identity
	if unread > 0 {
		right += " " + theme.UnreadBadgeStyle.Render(fmt.Sprintf("%d", unread))
	}
	right += " " + connDot(conn)
	statusRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(right)

	gap := l.Width -
		lipgloss.Width(titleRendered) -
		lipgloss.Width(statusRendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.HeaderStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.HeaderStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		filler,
		statusRendered,
	)
}

// RenderTabs renders the navigation tab row; the active tab is highlighted.
func (l Layout) RenderTabs(labels []string, active int) string {
	parts := make([]string, len(labels))
	for i, label := range labels {
		if i == active {
			parts[i] = theme.ActiveTabStyle.Render(label)
		} else {
			parts[i] = theme.TabStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// RenderStatusBar renders the bottom status bar with keyboard hints or a
// transient error message.
func (l Layout) RenderStatusBar(hints string, errMsg string) string {
	text := hints
	if errMsg != "" {
		text = theme.ErrorBarStyle.Render(errMsg)
	}
	rendered := theme.StatusBarStyle.Render(text)

	gap := l.Width - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.StatusBarStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.StatusBarStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderWithFrame composes a full terminal view by vertically joining the
// header, tab row, content area, and status bar.
func (l Layout) RenderWithFrame(header, tabs, content, statusBar string) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		tabs,
		content,
		statusBar,
	)
}
