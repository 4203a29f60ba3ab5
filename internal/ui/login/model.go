package login

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/tkoh/bookstore-tui/internal/api"
	"github.com/tkoh/bookstore-tui/internal/session"
	"github.com/tkoh/bookstore-tui/internal/theme"
)

// LoggedInMsg is dispatched after a successful login.
type LoggedInMsg struct{}

// AuthFailedMsg carries a login/register/reset failure for the status bar.
type AuthFailedMsg struct {
	Err error
}

// InfoMsg carries a transient confirmation (account created, code sent).
type InfoMsg struct {
	Text string
}

type mode int

const (
	modeLogin mode = iota
	modeRegister
	modeForgot
	modeReset
)

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	email    string
	password string

	username string
	phone    string

	identifier string
	code       string
	newPass    string
}

// Model is the authentication screen: login by default, with register and
// forgot/reset password flows.
type Model struct {
	sess   *session.Store
	form   *huh.Form
	fb     *formBindings
	mode   mode
	busy   bool
	width  int
	height int
}

// New creates the login screen.
func New(sess *session.Store, width, height int) Model {
	m := Model{
		sess:   sess,
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
	m.form = m.buildForm()
	return m
}

// Init starts the active form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// SetSize updates the screen dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

type authResultMsg struct {
	err  error
	info string
	next mode
}

// Update handles messages for the authentication screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		// Mode switches outside form submission.
		switch msg.String() {
		case "ctrl+r":
			return m.switchMode(modeRegister)
		case "ctrl+f":
			return m.switchMode(modeForgot)
		case "ctrl+b":
			return m.switchMode(modeLogin)
		}

	case authResultMsg:
		m.busy = false
		if msg.err != nil {
			next, cmd := m.switchMode(m.mode)
			return next, tea.Batch(cmd, func() tea.Msg { return AuthFailedMsg{Err: msg.err} })
		}
		if m.mode == modeLogin {
			return m, func() tea.Msg { return LoggedInMsg{} }
		}
		next, cmd := m.switchMode(msg.next)
		info := msg.info
		return next, tea.Batch(cmd, func() tea.Msg { return InfoMsg{Text: info} })
	}

	if m.busy {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.busy = true
		return m, m.submit()
	}
	if m.form.State == huh.StateAborted {
		return m.switchMode(modeLogin)
	}

	return m, cmd
}

func (m Model) switchMode(to mode) (Model, tea.Cmd) {
	m.mode = to
	m.fb.password = ""
	m.fb.newPass = ""
	m.form = m.buildForm()
	return m, m.form.Init()
}

func (m Model) submit() tea.Cmd {
	fb := *m.fb
	sess := m.sess
	switch m.mode {
	case modeRegister:
		return func() tea.Msg {
			err := sess.Register(context.Background(), api.RegisterRequest{
				Username: fb.username,
				Email:    fb.email,
				Phone:    fb.phone,
				Password: fb.password,
			})
			if err != nil {
				return authResultMsg{err: err}
			}
			return authResultMsg{info: "Account created, you can log in now", next: modeLogin}
		}
	case modeForgot:
		return func() tea.Msg {
			if err := sess.ForgotPassword(context.Background(), fb.identifier); err != nil {
				return authResultMsg{err: err}
			}
			return authResultMsg{info: "Reset code sent, check your inbox", next: modeReset}
		}
	case modeReset:
		return func() tea.Msg {
			err := sess.ResetPassword(context.Background(), api.ResetPasswordRequest{
				Email:       fb.email,
				Code:        fb.code,
				NewPassword: fb.newPass,
			})
			if err != nil {
				return authResultMsg{err: err}
			}
			return authResultMsg{info: "Password updated, log in with the new one", next: modeLogin}
		}
	default:
		return func() tea.Msg {
			if err := sess.Login(context.Background(), fb.email, fb.password); err != nil {
				return authResultMsg{err: err}
			}
			return authResultMsg{}
		}
	}
}

// View renders the active form inside a centered panel.
func (m Model) View() string {
	title := map[mode]string{
		modeLogin:    "TKOH Bookstore — Sign in",
		modeRegister: "TKOH Bookstore — Create account",
		modeForgot:   "TKOH Bookstore — Forgot password",
		modeReset:    "TKOH Bookstore — Reset password",
	}[m.mode]

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	body := titleStyle.Render(title) + "\n" + m.form.View()
	if m.busy {
		body += "\n" + theme.HelpStyle.Render("Contacting server...")
	}
	body += "\n" + theme.HelpStyle.Render(
		"ctrl+r register · ctrl+f forgot password · ctrl+b back to sign in")

	panel := theme.PanelStyle.Render(body)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
}

func (m *Model) buildForm() *huh.Form {
	var fields []huh.Field

	switch m.mode {
	case modeRegister:
		fields = []huh.Field{
			huh.NewInput().
				Title("Username").
				Value(&m.fb.username).
				Validate(minLen("Username", 3)),
			huh.NewInput().
				Title("Email").
				Value(&m.fb.email).
				Validate(validateEmail),
			huh.NewInput().
				Title("Phone").
				Placeholder("optional").
				Value(&m.fb.phone),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(minLen("Password", 8)),
		}
	case modeForgot:
		fields = []huh.Field{
			huh.NewInput().
				Title("Email or username").
				Value(&m.fb.identifier).
				Validate(minLen("Identifier", 1)),
		}
	case modeReset:
		fields = []huh.Field{
			huh.NewInput().
				Title("Email").
				Value(&m.fb.email).
				Validate(validateEmail),
			huh.NewInput().
				Title("Reset code").
				Value(&m.fb.code).
				Validate(minLen("Reset code", 1)),
			huh.NewInput().
				Title("New password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.newPass).
				Validate(minLen("Password", 8)),
		}
	default:
		fields = []huh.Field{
			huh.NewInput().
				Title("Email").
				Value(&m.fb.email).
				Validate(validateEmail),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(minLen("Password", 8)),
		}
	}

	return huh.NewForm(huh.NewGroup(fields...)).
		WithWidth(formWidth(m.width)).
		WithShowHelp(false)
}

func validateEmail(s string) error {
	if _, err := mail.ParseAddress(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("enter a valid email address")
	}
	return nil
}

func minLen(field string, n int) func(string) error {
	return func(s string) error {
		if len(strings.TrimSpace(s)) < n {
			return fmt.Errorf("%s must be at least %d characters", field, n)
		}
		return nil
	}
}

func formWidth(w int) int {
	fw := w - 8
	if fw < 40 {
		fw = 40
	}
	if fw > 72 {
		fw = 72
	}
	return fw
}
