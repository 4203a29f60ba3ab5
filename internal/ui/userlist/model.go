// Package userlist implements the account administration screen, available
// to ADMIN and OWNER roles only.
package userlist

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/tkoh/bookstore-tui/internal/api"
	"github.com/tkoh/bookstore-tui/internal/keys"
	"github.com/tkoh/bookstore-tui/internal/model"
	"github.com/tkoh/bookstore-tui/internal/theme"
	"github.com/tkoh/bookstore-tui/internal/ui"
)

// UsersLoadedMsg is sent when a page of accounts has been fetched.
type UsersLoadedMsg struct {
	Page model.Page[model.User]
}

type rolesLoadedMsg struct {
	roles []model.Role
}

type savedMsg struct {
	verb string
}

// userItem wraps a model.User so it can be used in a bubbles/list.
type userItem struct {
	user model.User
}

func (i userItem) FilterValue() string { return i.user.Username }

type delegate struct{}

func (delegate) Height() int                             { return 1 }
func (delegate) Spacing() int                            { return 0 }
func (delegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (delegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(userItem)
	if !ok {
		return
	}
	u := it.user

	roleNames := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		roleNames[i] = r.Name
	}
	roles := lipgloss.NewStyle().
		Foreground(theme.ColorMagenta).
		Render(strings.Join(roleNames, ","))

	state := ""
	if !u.Enabled {
		state = lipgloss.NewStyle().Foreground(theme.ColorRed).Render(" disabled")
	} else if !u.AccountNonLocked {
		state = lipgloss.NewStyle().Foreground(theme.ColorYellow).Render(" locked")
	}

	email := lipgloss.NewStyle().Foreground(theme.ColorGray).Render(u.Email)
	line := fmt.Sprintf("%s  %s  %s%s", u.Username, email, roles, state)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}
	fmt.Fprint(w, line)
}

type mode int

const (
	modeBrowse mode = iota
	modeCreate
	modeEdit
	modePassword
	modeConfirm
)

type formBindings struct {
	username string
	email    string
	phone    string
	password string
	role     string
	enabled  bool
	roleIDs  []int64
	confirm  bool
}

// Model is the account administration screen.
type Model struct {
	list   list.Model
	client *api.Client
	keys   *keys.KeyMap

	page     model.Page[model.User]
	pageable api.Pageable
	roles    []model.Role

	mode    mode
	form    *huh.Form
	fb      *formBindings
	editing int64

	width  int
	height int
}

// New creates the account administration screen.
func New(client *api.Client, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, delegate{}, width, height-2)
	l.Title = "Users"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:     l,
		client:   client,
		keys:     k,
		pageable: api.Pageable{Page: 0, Size: 20, Sort: "nombreUsuario,asc"},
		fb:       &formBindings{},
		width:    width,
		height:   height,
	}
}

// Init loads the first account page and the role catalog.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.loadRoles())
}

// SetSize updates the screen dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}

// CapturingInput reports whether a form currently owns the keyboard.
func (m Model) CapturingInput() bool {
	return m.mode != modeBrowse
}

// Update handles messages for the screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case UsersLoadedMsg:
		m.page = msg.Page
		items := make([]list.Item, len(msg.Page.Content))
		for i, u := range msg.Page.Content {
			items[i] = userItem{user: u}
		}
		return m, m.list.SetItems(items)

	case rolesLoadedMsg:
		m.roles = msg.roles
		return m, nil

	case savedMsg:
		m.mode = modeBrowse
		verb := msg.verb
		return m, tea.Batch(m.load(), func() tea.Msg {
			return ui.StatusMsg{Text: "Account " + verb}
		})

	case tea.KeyMsg:
		if m.mode != modeBrowse {
			return m.updateForm(msg)
		}
		return m.handleBrowseKeys(msg)
	}

	if m.mode != modeBrowse {
		return m.updateForm(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleBrowseKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Refresh):
		return m, tea.Batch(m.load(), m.loadRoles())

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

	case key.Matches(msg, m.keys.New):
		*m.fb = formBindings{role: model.RoleUsuario, enabled: true}
		m.mode = modeCreate
		m.form = m.buildCreateForm()
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Edit):
		item, ok := m.list.SelectedItem().(userItem)
		if !ok {
			return m, nil
		}
		u := item.user
		ids := make([]int64, len(u.Roles))
		for i, r := range u.Roles {
			ids[i] = r.ID
		}
		m.editing = u.ID
		*m.fb = formBindings{
			username: u.Username,
			email:    u.Email,
			phone:    u.Phone,
			enabled:  u.Enabled,
			roleIDs:  ids,
		}
		m.mode = modeEdit
		m.form = m.buildEditForm()
		return m, m.form.Init()

	case key.Matches(msg, m.keys.SetPassword):
		item, ok := m.list.SelectedItem().(userItem)
		if !ok {
			return m, nil
		}
		m.editing = item.user.ID
		*m.fb = formBindings{username: item.user.Username}
		m.mode = modePassword
		m.form = m.buildPasswordForm()
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Delete):
		item, ok := m.list.SelectedItem().(userItem)
		if !ok {
			return m, nil
		}
		m.editing = item.user.ID
		m.fb.confirm = false
		m.mode = modeConfirm
		m.form = huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete account %q?", item.user.Username)).
				Affirmative("Delete").
				Negative("Keep").
				Value(&m.fb.confirm),
		)).WithShowHelp(false)
		return m, m.form.Init()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "esc" {
		m.mode = modeBrowse
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateAborted {
		m.mode = modeBrowse
		return m, nil
	}
	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	switch m.mode {
	case modeCreate:
		return m, m.create()
	case modeEdit:
		return m, m.saveEdit()
	case modePassword:
		return m, m.setPassword()
	default:
		m.mode = modeBrowse
		if !m.fb.confirm {
			return m, nil
		}
		return m, m.remove(m.editing)
	}
}

func (m Model) create() tea.Cmd {
	fb := *m.fb
	client := m.client
	return func() tea.Msg {
		_, err := client.CreateUser(context.Background(), fb.role, api.UserCreate{
			Username: strings.TrimSpace(fb.username),
			Email:    strings.TrimSpace(fb.email),
			Phone:    strings.TrimSpace(fb.phone),
			Password: fb.password,
		})
		if err != nil {
			return ui.ErrorMsg{Err: err}
		}
		return savedMsg{verb: "created"}
	}
}

// saveEdit updates the account fields, then replaces its role assignments.
func (m Model) saveEdit() tea.Cmd {
	fb := *m.fb
	client := m.client
	id := m.editing
	return func() tea.Msg {
		_, err := client.UpdateUser(context.Background(), id, api.UserUpdate{
			Username: strings.TrimSpace(fb.username),
			Email:    strings.TrimSpace(fb.email),
			Phone:    strings.TrimSpace(fb.phone),
			Enabled:  fb.enabled,
		})
		if err != nil {
			return ui.ErrorMsg{Err: err}
		}
		if len(fb.roleIDs) > 0 {
			if _, err := client.SetUserRoles(context.Background(), id, fb.roleIDs); err != nil {
				return ui.ErrorMsg{Err: err}
			}
		}
		return savedMsg{verb: "updated"}
	}
}

func (m Model) remove(id int64) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		if err := client.DeleteUser(context.Background(), id); err != nil {
			return ui.ErrorMsg{Err: err}
		}
		return savedMsg{verb: "deleted"}
	}
}

func (m Model) load() tea.Cmd {
	client := m.client
	p := m.pageable
	return func() tea.Msg {
		page, err := client.ListUsers(context.Background(), p)
		if err != nil {
			return ui.ErrorMsg{Err: err}
		}
		return UsersLoadedMsg{Page: page}
	}
}

func (m Model) loadRoles() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		roles, err := client.ListRoles(context.Background())
		if err != nil {
			return ui.ErrorMsg{Err: err}
		}
		return rolesLoadedMsg{roles: roles}
	}
}

func (m *Model) buildCreateForm() *huh.Form {
	return huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Role").
			Options(
				huh.NewOption("Customer", model.RoleUsuario),
				huh.NewOption("Seller", model.RoleVendedor),
				huh.NewOption("Administrator", model.RoleAdmin),
				huh.NewOption("Owner", model.RoleOwner),
			).
			Value(&m.fb.role),
		huh.NewInput().
			Title("Username").
			Value(&m.fb.username).
			Validate(minLen("Username", 3)),
		huh.NewInput().
			Title("Email").
			Value(&m.fb.email).
			Validate(minLen("Email", 3)),
		huh.NewInput().
			Title("Phone").
			Placeholder("optional").
			Value(&m.fb.phone),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&m.fb.password).
			Validate(minLen("Password", 8)),
	)).WithShowHelp(false)
}

func (m *Model) buildEditForm() *huh.Form {
	roleOpts := make([]huh.Option[int64], len(m.roles))
	for i, r := range m.roles {
		roleOpts[i] = huh.NewOption(r.Name, r.ID)
	}

	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Username").
			Value(&m.fb.username).
			Validate(minLen("Username", 3)),
		huh.NewInput().
			Title("Email").
			Value(&m.fb.email).
			Validate(minLen("Email", 3)),
		huh.NewInput().
			Title("Phone").
			Placeholder("optional").
			Value(&m.fb.phone),
		huh.NewConfirm().
			Title("Enabled").
			Affirmative("Yes").
			Negative("No").
			Value(&m.fb.enabled),
		huh.NewMultiSelect[int64]().
			Title("Roles").
			Options(roleOpts...).
			Value(&m.fb.roleIDs),
	)).WithShowHelp(false)
}

func (m *Model) buildPasswordForm() *huh.Form {
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(fmt.Sprintf("New password for %s", m.fb.username)).
			EchoMode(huh.EchoModePassword).
			Value(&m.fb.password).
			Validate(minLen("Password", 8)),
	)).WithShowHelp(false)
}

// setPassword resets the account's password without touching its other
// fields.
func (m Model) setPassword() tea.Cmd {
	fb := *m.fb
	client := m.client
	id := m.editing
	return func() tea.Msg {
		if err := client.SetUserPassword(context.Background(), id, fb.password); err != nil {
			return ui.ErrorMsg{Err: err}
		}
		return savedMsg{verb: "password updated"}
	}
}

// View renders the list or the active form.
func (m Model) View() string {
	if m.mode != modeBrowse && m.form != nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			theme.PanelStyle.Render(m.form.View()))
	}

	if len(m.list.Items()) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No accounts loaded.")
	}

	footer := theme.HelpStyle.Render(fmt.Sprintf(
		"page %d/%d · %d accounts",
		m.page.Number+1, max(m.page.TotalPages, 1), m.page.TotalElements,
	))
	return lipgloss.JoinVertical(lipgloss.Left, m.list.View(), footer)
}

func minLen(field string, n int) func(string) error {
	return func(s string) error {
		if len(strings.TrimSpace(s)) < n {
			return fmt.Errorf("%s must be at least %d characters", field, n)
		}
		return nil
	}
}
