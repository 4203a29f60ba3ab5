// Package theme defines the color palette and the shared lipgloss styles.
// The accent color follows the display.theme config value; Apply installs
// it and rebuilds the dependent styles.
package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// accent drives headers, tabs, selection highlights, and own chat messages.
var accent = ColorBlue

var (
	// HeaderStyle is used for top-level section headers and the
	// application title.
	HeaderStyle lipgloss.Style

	// StatusBarStyle is used for the bottom status bar.
	StatusBarStyle lipgloss.Style

	// ErrorBarStyle renders transient error messages in the status bar.
	ErrorBarStyle lipgloss.Style

	// PanelStyle wraps bordered content areas (forms, chat room, detail
	// panes).
	PanelStyle lipgloss.Style

	// ListItemStyle is the base style for items in a list.
	ListItemStyle lipgloss.Style

	// SelectedItemStyle highlights the currently focused list item.
	SelectedItemStyle lipgloss.Style

	// HelpStyle is used for keyboard shortcut hints and help text.
	HelpStyle lipgloss.Style

	// UnreadBadgeStyle renders the unread notification counter in the
	// header.
	UnreadBadgeStyle lipgloss.Style

	// TabStyle and ActiveTabStyle render the role-gated navigation tabs.
	TabStyle       lipgloss.Style
	ActiveTabStyle lipgloss.Style

	// Connection indicator dots shown in the header.
	ConnectedDotStyle    lipgloss.Style
	ConnectingDotStyle   lipgloss.Style
	DisconnectedDotStyle lipgloss.Style

	// Chat message styles: own messages carry the accent, others white.
	OwnMessageStyle   lipgloss.Style
	OtherMessageStyle lipgloss.Style
	MessageMetaStyle  lipgloss.Style

	// UnreadMarkStyle highlights unread notifications in the panel.
	UnreadMarkStyle lipgloss.Style
)

func init() {
	rebuild()
}

// Apply installs the named palette. Unknown names keep the default, so a
// hand-edited config value degrades gracefully.
func Apply(name string) {
	switch name {
	case "forest":
		accent = ColorGreen
	case "plum":
		accent = ColorMagenta
	default:
		accent = ColorBlue
	}
	rebuild()
}

func rebuild() {
	HeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorWhite).
		Background(accent).
		Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(ColorWhite).
		Background(ColorSubtle).
		Padding(0, 1)

	ErrorBarStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorRed)

	PanelStyle = lipgloss.NewStyle().
		Padding(1, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)

	ListItemStyle = lipgloss.NewStyle().
		PaddingLeft(2)

	SelectedItemStyle = lipgloss.NewStyle().
		PaddingLeft(1).
		Bold(true).
		Foreground(accent).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(accent)

	HelpStyle = lipgloss.NewStyle().
		Foreground(ColorGray)

	UnreadBadgeStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorWhite).
		Background(ColorRed).
		Padding(0, 1)

	TabStyle = lipgloss.NewStyle().
		Foreground(ColorGray).
		Padding(0, 1)

	ActiveTabStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(accent).
		Padding(0, 1).
		Underline(true)

	ConnectedDotStyle = lipgloss.NewStyle().Foreground(ColorGreen)
	ConnectingDotStyle = lipgloss.NewStyle().Foreground(ColorYellow)
	DisconnectedDotStyle = lipgloss.NewStyle().Foreground(ColorRed)

	OwnMessageStyle = lipgloss.NewStyle().Foreground(accent)
	OtherMessageStyle = lipgloss.NewStyle().Foreground(ColorWhite)
	MessageMetaStyle = lipgloss.NewStyle().Foreground(ColorGray)

	UnreadMarkStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorYellow)
}
