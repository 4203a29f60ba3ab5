// Package profile implements the account screen: the authenticated
// identity's details and the change-password action.
package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/tkoh/bookstore-tui/internal/api"
	"github.com/tkoh/bookstore-tui/internal/keys"
	"github.com/tkoh/bookstore-tui/internal/session"
	"github.com/tkoh/bookstore-tui/internal/theme"
	"github.com/tkoh/bookstore-tui/internal/ui"
)

type changedMsg struct{}

type mode int

const (
	modeView mode = iota
	modeForm
)

type formBindings struct {
	current string
	next    string
	confirm string
}

// Model is the account screen.
type Model struct {
	client  *api.Client
	session *session.Store
	keys    *keys.KeyMap

	mode mode
	form *huh.Form
	fb   *formBindings

	width  int
	height int
}

// New creates the account screen.
func New(client *api.Client, sess *session.Store, k *keys.KeyMap, width, height int) Model {
	return Model{
		client:  client,
		session: sess,
		keys:    k,
		fb:      &formBindings{},
		width:   width,
		height:  height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetSize updates the screen dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// CapturingInput reports whether the change-password form owns the keyboard.
func (m Model) CapturingInput() bool {
	return m.mode == modeForm
}

// Update handles messages for the account screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case changedMsg:
		m.mode = modeView
		return m, func() tea.Msg {
			return ui.StatusMsg{Text: "Password changed"}
		}

	case tea.KeyMsg:
		if m.mode == modeForm {
			return m.updateForm(msg)
		}
		if key.Matches(msg, m.keys.SetPassword) {
			*m.fb = formBindings{}
			m.mode = modeForm
			m.form = m.buildForm()
			return m, m.form.Init()
		}
		return m, nil
	}

	if m.mode == modeForm {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "esc" {
		m.mode = modeView
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateAborted {
		m.mode = modeView
		return m, nil
	}
	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.changePassword()
}

func (m Model) changePassword() tea.Cmd {
	fb := *m.fb
	client := m.client
	return func() tea.Msg {
		if err := client.ChangeMyPassword(context.Background(), fb.current, fb.next); err != nil {
			return ui.ErrorMsg{Err: err}
		}
		return changedMsg{}
	}
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Current password").
			EchoMode(huh.EchoModePassword).
			Value(&m.fb.current),
		huh.NewInput().
			Title("New password").
			EchoMode(huh.EchoModePassword).
			Value(&m.fb.next).
			Validate(func(s string) error {
				if len(s) < 8 {
					return fmt.Errorf("password must be at least 8 characters")
				}
				return nil
			}),
		huh.NewInput().
			Title("Repeat new password").
			EchoMode(huh.EchoModePassword).
			Value(&m.fb.confirm).
			Validate(func(s string) error {
				if s != m.fb.next {
					return fmt.Errorf("passwords do not match")
				}
				return nil
			}),
	)).WithShowHelp(false)
}

// View renders the identity details or the change-password form.
func (m Model) View() string {
	if m.mode == modeForm && m.form != nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			theme.PanelStyle.Render(m.form.View()))
	}

	u := m.session.User()
	if u == nil {
		return ""
	}

	label := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(12)
	roles := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		roles[i] = r.Name
	}

	var b strings.Builder
	b.WriteString(theme.HeaderStyle.Render("Account") + "\n\n")
	b.WriteString(label.Render("Username") + u.Username + "\n")
	b.WriteString(label.Render("Email") + u.Email + "\n")
	if u.Phone != "" {
		b.WriteString(label.Render("Phone") + u.Phone + "\n")
	}
	b.WriteString(label.Render("Roles") + strings.Join(roles, ", ") + "\n")
	b.WriteString(label.Render("Since") + u.RegisteredAt.Format("Jan 02, 2006") + "\n\n")
	b.WriteString(theme.HelpStyle.Render("p: change password"))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
