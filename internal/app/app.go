// Package app wires the session, gateway, realtime channel, and state
// stores into the root Bubble Tea model and routes messages between the
// screens.
package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/tkoh/bookstore-tui/internal/api"
	"github.com/tkoh/bookstore-tui/internal/chat"
	"github.com/tkoh/bookstore-tui/internal/keys"
	"github.com/tkoh/bookstore-tui/internal/logging"
	"github.com/tkoh/bookstore-tui/internal/model"
	"github.com/tkoh/bookstore-tui/internal/notify"
	"github.com/tkoh/bookstore-tui/internal/realtime"
	"github.com/tkoh/bookstore-tui/internal/session"
	"github.com/tkoh/bookstore-tui/internal/store"
	"github.com/tkoh/bookstore-tui/internal/ui"
	"github.com/tkoh/bookstore-tui/internal/ui/auditlog"
	"github.com/tkoh/bookstore-tui/internal/ui/booklist"
	"github.com/tkoh/bookstore-tui/internal/ui/chatview"
	"github.com/tkoh/bookstore-tui/internal/ui/helpview"
	"github.com/tkoh/bookstore-tui/internal/ui/login"
	"github.com/tkoh/bookstore-tui/internal/ui/namedlist"
	"github.com/tkoh/bookstore-tui/internal/ui/notifpanel"
	"github.com/tkoh/bookstore-tui/internal/ui/profile"
	"github.com/tkoh/bookstore-tui/internal/ui/taskboard"
	"github.com/tkoh/bookstore-tui/internal/ui/userlist"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// ViewState identifies the active screen.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewBooks
	ViewCategories
	ViewPublishers
	ViewTasks
	ViewChat
	ViewProfile
	ViewUsers
	ViewLogs
	ViewNotifications
	ViewHelp
)

type tab struct {
	label string
	view  ViewState
}

// Deps carries the shared components the root model routes between.
type Deps struct {
	Logger        zerolog.Logger
	Session       *session.Store
	Client        *api.Client
	Realtime      *realtime.Manager
	Notifications *notify.State
	Rooms         *chat.Rooms
	Cache         *store.CacheStore // optional
}

// Model is the root Bubble Tea model.
type Model struct {
	deps   Deps
	logger zerolog.Logger
	keys   *keys.KeyMap
	bridge *eventBridge

	layout ui.Layout
	ready  bool

	currentView  ViewState
	previousView ViewState
	tabs         []tab

	loginView  login.Model
	books      booklist.Model
	categories namedlist.Model
	publishers namedlist.Model
	tasks      taskboard.Model
	chatView   chatview.Model
	account    profile.Model
	users      userlist.Model
	logs       auditlog.Model
	notifView  notifpanel.Model
	helpView   helpview.Model

	connState   realtime.State
	status      string
	cancelNotif func()
	roomCancels map[int64]func()
}

// New creates the root model and hooks the credential and realtime
// callbacks into the message loop.
func New(deps Deps) Model {
	k := keys.DefaultKeyMap()
	bridge := newEventBridge()
	logger := logging.WithComponent(deps.Logger, "app")

	// The realtime connection follows the credential: login activates it,
	// logout (including the 401 teardown) deactivates it.
	deps.Session.OnChange(func(token string) {
		deps.Realtime.SetToken(token)
		bridge.push(credentialMsg{token: token})
	})
	deps.Realtime.OnStateChange(func(s realtime.State) {
		bridge.push(connStateMsg{state: s})
	})

	m := Model{
		deps:        deps,
		logger:      logger,
		keys:        k,
		bridge:      bridge,
		currentView: ViewLogin,
		loginView:   login.New(deps.Session, 80, 24),
		helpView:    helpview.New(k, 80, 24),
		roomCancels: make(map[int64]func()),
	}
	if deps.Session.Authenticated() {
		m.enterSession()
	}
	return m
}

// Init arms the event bridge and starts the active screen.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.bridge.waitForEvent()}
	if m.currentView == ViewLogin {
		cmds = append(cmds, m.loginView.Init())
	} else {
		cmds = append(cmds, m.initScreens())
	}
	return tea.Batch(cmds...)
}

// enterSession builds the role-gated screens after authentication.
func (m *Model) enterSession() {
	user := m.deps.Session.User()
	w, h := 80, 24
	if m.ready {
		w, h = m.layout.ContentWidth(), m.layout.ContentHeight()
	}

	admin := user.HasAnyRole(model.RoleAdmin, model.RoleOwner)
	staff := user.HasAnyRole(model.RoleVendedor, model.RoleAdmin, model.RoleOwner)

	m.tabs = nil
	if staff {
		m.tabs = append(m.tabs,
			tab{"Books", ViewBooks},
			tab{"Categories", ViewCategories},
			tab{"Publishers", ViewPublishers},
		)
	}
	m.tabs = append(m.tabs,
		tab{"Tasks", ViewTasks},
		tab{"Messages", ViewChat},
		tab{"Profile", ViewProfile},
	)
	if admin {
		m.tabs = append(m.tabs,
			tab{"Users", ViewUsers},
			tab{"Activity", ViewLogs},
		)
	}

	m.books = booklist.New(m.deps.Client, m.keys, w, h)
	m.categories = namedlist.New(namedlist.CategoryBackend{Client: m.deps.Client}, m.keys, w, h)
	m.publishers = namedlist.New(namedlist.PublisherBackend{Client: m.deps.Client}, m.keys, w, h)
	m.tasks = taskboard.New(m.deps.Client, m.keys, admin, w, h)
	m.chatView = chatview.New(m.deps.Client, m.deps.Rooms, m.deps.Cache, user.ID, m.keys, w, h)
	m.account = profile.New(m.deps.Client, m.deps.Session, m.keys, w, h)
	m.users = userlist.New(m.deps.Client, m.keys, w, h)
	m.logs = auditlog.New(m.deps.Client, m.keys, w, h)
	m.notifView = notifpanel.New(m.deps.Client, m.deps.Notifications, m.deps.Cache, m.keys, w, h)

	m.currentView = m.tabs[0].view
	m.subscribeNotifications()
}

// initScreens starts every screen visible to the current roles.
func (m Model) initScreens() tea.Cmd {
	cmds := []tea.Cmd{m.notifView.Init()}
	for _, t := range m.tabs {
		switch t.view {
		case ViewBooks:
			cmds = append(cmds, m.books.Init())
		case ViewCategories:
			cmds = append(cmds, m.categories.Init())
		case ViewPublishers:
			cmds = append(cmds, m.publishers.Init())
		case ViewTasks:
			cmds = append(cmds, m.tasks.Init())
		case ViewChat:
			cmds = append(cmds, m.chatView.Init())
		case ViewProfile:
			cmds = append(cmds, m.account.Init())
		case ViewUsers:
			cmds = append(cmds, m.users.Init())
		case ViewLogs:
			cmds = append(cmds, m.logs.Init())
		}
	}
	return tea.Batch(cmds...)
}

// subscribeNotifications attaches the per-user notification queue handler.
// The registration is idempotent and survives reconnects.
func (m *Model) subscribeNotifications() {
	deps := m.deps
	bridge := m.bridge
	handler := realtime.JSONHandler(m.logger, realtime.NotificationQueue,
		func(n model.Notification) {
			deps.Notifications.Add(n)
			if deps.Cache != nil {
				_ = deps.Cache.UpsertNotifications(context.Background(), []model.Notification{n})
			}
			bridge.push(notifPushMsg{})
		})
	m.cancelNotif = deps.Realtime.Subscribe(realtime.NotificationQueue, handler)
}

// subscribeRoom attaches the conversation topic handler for an open room.
func (m *Model) subscribeRoom(conversationID int64) {
	if _, ok := m.roomCancels[conversationID]; ok {
		return
	}
	deps := m.deps
	bridge := m.bridge
	dest := realtime.ConversationTopic(conversationID)
	handler := realtime.JSONHandler(m.logger, dest, func(msg model.Message) {
		deps.Rooms.Dispatch(msg)
		if deps.Cache != nil {
			_ = deps.Cache.UpsertMessages(context.Background(), []model.Message{msg})
		}
		bridge.push(chatPushMsg{conversationID: msg.ConversationID})
	})
	m.roomCancels[conversationID] = deps.Realtime.Subscribe(dest, handler)
}

// leaveSession resets to the logged-out state: subscriptions dropped, and
// volatile state cleared. The realtime manager itself is already
// deactivated by the credential listener.
func (m *Model) leaveSession() {
	if m.cancelNotif != nil {
		m.cancelNotif()
		m.cancelNotif = nil
	}
	for _, cancel := range m.roomCancels {
		cancel()
	}
	m.roomCancels = make(map[int64]func())

	m.deps.Notifications.Clear()
	m.deps.Rooms.Clear()
	if m.deps.Cache != nil {
		if err := m.deps.Cache.Purge(context.Background()); err != nil {
			m.deps.Logger.Warn().Err(err).Msg("purging cache on logout")
		}
	}

	m.tabs = nil
	m.currentView = ViewLogin
	w, h := 80, 24
	if m.ready {
		w, h = m.layout.ContentWidth(), m.layout.ContentHeight()
	}
	m.loginView = login.New(m.deps.Session, w, h)
}

// Update handles messages and dispatches to the active screen.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		cw, ch := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.loginView.SetSize(msg.Width, msg.Height)
		m.helpView.SetSize(cw, ch)
		if m.tabs != nil {
			m.books.SetSize(cw, ch)
			m.categories.SetSize(cw, ch)
			m.publishers.SetSize(cw, ch)
			m.tasks.SetSize(cw, ch)
			m.chatView.SetSize(cw, ch)
			m.account.SetSize(cw, ch)
			m.users.SetSize(cw, ch)
			m.logs.SetSize(cw, ch)
			m.notifView.SetSize(cw, ch)
		}
		return m.updateActiveView(msg)

	// Bridged events. Each one re-arms the wait command.
	case connStateMsg:
		m.connState = msg.state
		return m, m.bridge.waitForEvent()

	case notifPushMsg:
		m.notifView.Reload()
		return m, m.bridge.waitForEvent()

	case chatPushMsg:
		id := msg.conversationID
		var cmd tea.Cmd
		m.chatView, cmd = m.chatView.Update(chatview.RoomChangedMsg{ConversationID: id})
		return m, tea.Batch(cmd, m.bridge.waitForEvent())

	case credentialMsg:
		if msg.token == "" && m.currentView != ViewLogin {
			m.leaveSession()
			m.status = "Session ended. Log in again."
			return m, tea.Batch(m.loginView.Init(), m.bridge.waitForEvent())
		}
		// A restored credential skips the login form entirely.
		if msg.token != "" && m.currentView == ViewLogin && m.deps.Session.User() != nil {
			m.enterSession()
			return m, tea.Batch(m.initScreens(), m.bridge.waitForEvent())
		}
		return m, m.bridge.waitForEvent()

	case login.LoggedInMsg:
		m.status = ""
		m.enterSession()
		return m, m.initScreens()

	case login.AuthFailedMsg:
		m.status = api.UserMessage(msg.Err)
		return m, nil

	case login.InfoMsg:
		m.status = msg.Text
		return m, nil

	case ui.ErrorMsg:
		m.status = api.UserMessage(msg.Err)
		m.logger.Warn().Err(msg.Err).Msg("operation failed")
		return m.updateActiveView(msg)

	case ui.StatusMsg:
		m.status = msg.Text
		return m, nil

	case chatview.RoomOpenedMsg:
		m.subscribeRoom(msg.ConversationID)
		return m, nil

	case chatview.RoomClosedMsg:
		if cancel, ok := m.roomCancels[msg.ConversationID]; ok {
			cancel()
			delete(m.roomCancels, msg.ConversationID)
		}
		return m, nil

	case notifpanel.RefreshedMsg, notifpanel.ChangedMsg:
		var cmd tea.Cmd
		m.notifView, cmd = m.notifView.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveView(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// ctrl+c always quits.
	if msg.String() == "ctrl+c" {
		m.shutdown()
		return m, tea.Quit
	}

	if m.currentView == ViewLogin {
		var cmd tea.Cmd
		m.loginView, cmd = m.loginView.Update(msg)
		return m, cmd
	}

	// Overlays swallow everything except their exit keys.
	if m.currentView == ViewHelp {
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
		}
		return m, nil
	}
	if m.currentView == ViewNotifications {
		if key.Matches(msg, m.keys.Notifications) || key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return m, nil
		}
		var cmd tea.Cmd
		m.notifView, cmd = m.notifView.Update(msg)
		return m, cmd
	}

	// While a screen owns the keyboard (form or compose line), only route.
	if !m.activeCapturing() {
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.shutdown()
			return m, tea.Quit

		case key.Matches(msg, m.keys.Logout):
			sess := m.deps.Session
			return m, func() tea.Msg {
				sess.Logout()
				return nil
			}

		case key.Matches(msg, m.keys.Help):
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case key.Matches(msg, m.keys.Notifications):
			m.previousView = m.currentView
			m.currentView = ViewNotifications
			return m, m.notifView.Init()

		case key.Matches(msg, m.keys.NextTab):
			return m.switchTab(1)

		case key.Matches(msg, m.keys.PrevTab):
			return m.switchTab(-1)
		}
	}

	return m.updateActiveView(msg)
}

func (m Model) switchTab(delta int) (tea.Model, tea.Cmd) {
	if len(m.tabs) == 0 {
		return m, nil
	}
	idx := m.activeTabIndex()
	idx = (idx + delta + len(m.tabs)) % len(m.tabs)
	m.currentView = m.tabs[idx].view
	return m, nil
}

func (m Model) activeTabIndex() int {
	for i, t := range m.tabs {
		if t.view == m.currentView {
			return i
		}
	}
	return 0
}

func (m Model) activeCapturing() bool {
	switch m.currentView {
	case ViewBooks:
		return m.books.CapturingInput()
	case ViewCategories:
		return m.categories.CapturingInput()
	case ViewPublishers:
		return m.publishers.CapturingInput()
	case ViewTasks:
		return m.tasks.CapturingInput()
	case ViewChat:
		return m.chatView.CapturingInput()
	case ViewProfile:
		return m.account.CapturingInput()
	case ViewUsers:
		return m.users.CapturingInput()
	default:
		return false
	}
}

// updateActiveView routes a message to the active screen.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewBooks:
		m.books, cmd = m.books.Update(msg)
	case ViewCategories:
		m.categories, cmd = m.categories.Update(msg)
	case ViewPublishers:
		m.publishers, cmd = m.publishers.Update(msg)
	case ViewTasks:
		m.tasks, cmd = m.tasks.Update(msg)
	case ViewChat:
		m.chatView, cmd = m.chatView.Update(msg)
	case ViewProfile:
		m.account, cmd = m.account.Update(msg)
	case ViewUsers:
		m.users, cmd = m.users.Update(msg)
	case ViewLogs:
		m.logs, cmd = m.logs.Update(msg)
	case ViewNotifications:
		m.notifView, cmd = m.notifView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}
	return m, cmd
}

// shutdown releases the realtime connection before the program exits.
func (m *Model) shutdown() {
	m.deps.Realtime.Close()
}

// View renders the full terminal frame.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	if m.currentView == ViewLogin {
		view := m.loginView.View()
		if m.status != "" {
			bar := m.layout.RenderStatusBar("", m.status)
			return lipgloss.JoinVertical(lipgloss.Left, view, bar)
		}
		return view
	}

	identity := ""
	if u := m.deps.Session.User(); u != nil {
		identity = u.Username
		if len(u.Roles) > 0 {
			identity += " (" + u.Roles[0].Name + ")"
		}
	}
	header := m.layout.RenderHeader(
		"TKOH Bookstore", identity, m.deps.Notifications.Unread(), m.connState)

	labels := make([]string, len(m.tabs))
	for i, t := range m.tabs {
		labels[i] = t.label
	}
	tabRow := m.layout.RenderTabs(labels, m.activeTabIndex())

	content := m.activeContent()
	contentBox := lipgloss.NewStyle().
		Width(m.layout.ContentWidth()).
		Height(m.layout.ContentHeight()).
		Render(content)

	status := m.layout.RenderStatusBar(m.hints(), m.status)

	return m.layout.RenderWithFrame(header, tabRow, contentBox, status)
}

func (m Model) activeContent() string {
	switch m.currentView {
	case ViewBooks:
		return m.books.View()
	case ViewCategories:
		return m.categories.View()
	case ViewPublishers:
		return m.publishers.View()
	case ViewTasks:
		return m.tasks.View()
	case ViewChat:
		return m.chatView.View()
	case ViewProfile:
		return m.account.View()
	case ViewUsers:
		return m.users.View()
	case ViewLogs:
		return m.logs.View()
	case ViewNotifications:
		return m.notifView.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return ""
	}
}

func (m Model) hints() string {
	switch m.currentView {
	case ViewNotifications:
		return "m mark read · x delete · r refresh · esc close"
	case ViewHelp:
		return "esc close"
	case ViewChat:
		return "enter open/send · n new · esc back · N notifications · ? help"
	case ViewTasks:
		return "t toggle done · r refresh · N notifications · ? help"
	case ViewLogs:
		return "[/] pages · r refresh · ? help"
	case ViewProfile:
		return "p change password · tab screens · ? help"
	case ViewUsers:
		return "n new · e edit · p password · x delete · [/] pages · ? help"
	default:
		return "n new · e edit · x delete · [/] pages · tab screens · ? help"
	}
}
