// Package chatview implements the messaging screen: the conversation list
// and, once a conversation is opened, the room view with its history and a
// compose line. Sending goes over HTTP; the sent message only appears when
// its realtime echo comes back on the conversation topic.
package chatview

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/tkoh/bookstore-tui/internal/api"
	"github.com/tkoh/bookstore-tui/internal/chat"
	"github.com/tkoh/bookstore-tui/internal/keys"
	"github.com/tkoh/bookstore-tui/internal/model"
	"github.com/tkoh/bookstore-tui/internal/store"
	"github.com/tkoh/bookstore-tui/internal/theme"
	"github.com/tkoh/bookstore-tui/internal/ui"
)

// ConversationsLoadedMsg is sent when the conversation list has been fetched.
type ConversationsLoadedMsg struct {
	Conversations []model.Conversation
}

// RoomOpenedMsg tells the root model to subscribe to the conversation topic.
type RoomOpenedMsg struct {
	ConversationID int64
}

// RoomClosedMsg tells the root model to drop the topic subscription.
type RoomClosedMsg struct {
	ConversationID int64
}

// RoomChangedMsg re-renders the open room; the root model sends it when a
// pushed message for the conversation has been appended.
type RoomChangedMsg struct {
	ConversationID int64
}

type historyLoadedMsg struct {
	conversationID int64
}

// roomInfoMsg carries the refetched conversation shown in the room header.
// A zero conversation means the fetch failed; the list row still has a
// usable subject, so the open proceeds without it.
type roomInfoMsg struct {
	conv model.Conversation
}

type sentMsg struct{}

type conversationItem struct {
	conv model.Conversation
}

func (i conversationItem) FilterValue() string { return i.conv.Subject }

type delegate struct{}

func (delegate) Height() int                             { return 1 }
func (delegate) Spacing() int                            { return 0 }
func (delegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (delegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ci, ok := item.(conversationItem)
	if !ok {
		return
	}
	c := ci.conv

	subject := c.Subject
	if subject == "" {
		subject = fmt.Sprintf("Conversation #%d", c.ID)
	}
	who := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render("  " + strings.Join(c.Participants, ", "))

	line := subject + who
	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}
	fmt.Fprint(w, line)
}

type mode int

const (
	modeList mode = iota
	modeRoom
	modeNew
)

type formBindings struct {
	subject        string
	participantIDs []int64
}

// Model is the messaging screen.
type Model struct {
	client *api.Client
	rooms  *chat.Rooms
	cache  *store.CacheStore
	keys   *keys.KeyMap

	// selfID marks own messages in the room rendering.
	selfID int64

	list     list.Model
	mode     mode
	open     int64 // conversation ID of the open room
	viewport viewport.Model
	input    textinput.Model

	form    *huh.Form
	fb      *formBindings
	people  []model.User
	convs   []model.Conversation

	width  int
	height int
}

// New creates the messaging screen. cache may be nil; when present it backs
// the conversation list and history while the server is unreachable.
func New(client *api.Client, rooms *chat.Rooms, cache *store.CacheStore, selfID int64, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, delegate{}, width, height-2)
	l.Title = "Messages"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	vp := viewport.New(width, height-3)

	in := textinput.New()
	in.Placeholder = "type a message..."
	in.Prompt = "> "
	in.CharLimit = 2000
	in.Width = width - 4

	return Model{
		client:   client,
		rooms:    rooms,
		cache:    cache,
		keys:     k,
		selfID:   selfID,
		list:     l,
		viewport: vp,
		input:    in,
		fb:       &formBindings{},
		width:    width,
		height:   height,
	}
}

// Init loads the conversation list.
func (m Model) Init() tea.Cmd {
	return m.loadConversations()
}

// SetSize updates the screen dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.viewport.Width = width
	m.viewport.Height = height - 3
	m.input.Width = width - 4
}

// OpenConversation returns the ID of the open room, or 0.
func (m Model) OpenConversation() int64 {
	if m.mode == modeRoom {
		return m.open
	}
	return 0
}

// CapturingInput reports whether the compose line or a form currently owns
// the keyboard.
func (m Model) CapturingInput() bool {
	return m.mode != modeList
}

// Update handles messages for the messaging screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ConversationsLoadedMsg:
		m.convs = msg.Conversations
		items := make([]list.Item, len(msg.Conversations))
		for i, c := range msg.Conversations {
			items[i] = conversationItem{conv: c}
		}
		return m, m.list.SetItems(items)

	case historyLoadedMsg:
		if m.mode == modeRoom && m.open == msg.conversationID {
			m.renderRoom()
			m.viewport.GotoBottom()
		}
		return m, nil

	case roomInfoMsg:
		if msg.conv.ID == 0 {
			return m, nil
		}
		found := false
		for i, c := range m.convs {
			if c.ID == msg.conv.ID {
				m.convs[i] = msg.conv
				found = true
				break
			}
		}
		if !found {
			m.convs = append(m.convs, msg.conv)
		}
		return m, nil

	case RoomChangedMsg:
		if m.mode == modeRoom && m.open == msg.ConversationID {
			m.renderRoom()
			m.viewport.GotoBottom()
		}
		return m, nil

	case sentMsg:
		// Nothing to render yet; the message shows up via its echo.
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeRoom:
			return m.handleRoomKeys(msg)
		case modeNew:
			return m.updateForm(msg)
		default:
			return m.handleListKeys(msg)
		}
	}

	switch m.mode {
	case modeRoom:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case modeNew:
		return m.updateForm(msg)
	default:
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
}

func (m Model) handleListKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadConversations()

	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(conversationItem)
		if !ok {
			return m, nil
		}
		return m.openRoom(item.conv.ID)

	case key.Matches(msg, m.keys.New):
		*m.fb = formBindings{}
		m.mode = modeNew
		m.form = m.buildNewForm()
		return m, tea.Batch(m.form.Init(), m.loadPeople())
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) openRoom(id int64) (Model, tea.Cmd) {
	m.mode = modeRoom
	m.open = id
	m.renderRoom()

	// History is refetched on every open: pushes that arrived while the
	// room was closed are only on the server.
	return m, tea.Batch(
		m.input.Focus(),
		func() tea.Msg { return RoomOpenedMsg{ConversationID: id} },
		m.loadHistory(id),
		m.loadRoomInfo(id),
	)
}

func (m Model) handleRoomKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		id := m.open
		m.mode = modeList
		m.open = 0
		m.input.Blur()
		m.input.Reset()
		return m, func() tea.Msg { return RoomClosedMsg{ConversationID: id} }

	case "enter":
		body := strings.TrimSpace(m.input.Value())
		if body == "" {
			return m, nil
		}
		m.input.Reset()
		return m, m.send(m.open, body)

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if pm, ok := msg.(peopleLoadedMsg); ok {
		m.people = pm.users
		m.form = m.buildNewForm()
		return m, m.form.Init()
	}

	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "esc" {
		m.mode = modeList
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.mode = modeList
	return m, m.startConversation()
}

type peopleLoadedMsg struct {
	users []model.User
}

func (m Model) loadPeople() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		page, err := client.ListUsers(context.Background(), api.Pageable{
			Page: 0, Size: 100, Sort: "nombreUsuario,asc",
		})
		if err != nil {
			return ui.ErrorMsg{Err: err}
		}
		return peopleLoadedMsg{users: page.Content}
	}
}

func (m Model) startConversation() tea.Cmd {
	fb := *m.fb
	client := m.client
	return func() tea.Msg {
		_, err := client.StartConversation(context.Background(), model.ConversationCreate{
			Subject:        strings.TrimSpace(fb.subject),
			ParticipantIDs: fb.participantIDs,
		})
		if err != nil {
			return ui.ErrorMsg{Err: err}
		}
		conversations, err := client.MyConversations(context.Background())
		if err != nil {
			return ui.ErrorMsg{Err: err}
		}
		return ConversationsLoadedMsg{Conversations: conversations}
	}
}

func (m Model) loadConversations() tea.Cmd {
	client := m.client
	cache := m.cache
	return func() tea.Msg {
		ctx := context.Background()
		conversations, err := client.MyConversations(ctx)
		if err != nil {
			if cache != nil {
				if cached, cacheErr := cache.GetConversations(ctx); cacheErr == nil && len(cached) > 0 {
					return ConversationsLoadedMsg{Conversations: cached}
				}
			}
			return ui.ErrorMsg{Err: err}
		}
		if cache != nil {
			_ = cache.UpsertConversations(ctx, conversations)
		}
		return ConversationsLoadedMsg{Conversations: conversations}
	}
}

func (m Model) loadHistory(id int64) tea.Cmd {
	client := m.client
	rooms := m.rooms
	cache := m.cache
	return func() tea.Msg {
		ctx := context.Background()
		msgs, err := client.GetMessages(ctx, id)
		if err != nil {
			if cache != nil {
				if cached, cacheErr := cache.GetMessages(ctx, id); cacheErr == nil && len(cached) > 0 {
					rooms.Get(id).LoadHistory(cached)
					return historyLoadedMsg{conversationID: id}
				}
			}
			return ui.ErrorMsg{Err: err}
		}
		rooms.Get(id).LoadHistory(msgs)
		if cache != nil {
			_ = cache.UpsertMessages(ctx, msgs)
		}
		return historyLoadedMsg{conversationID: id}
	}
}

func (m Model) loadRoomInfo(id int64) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		conv, err := client.GetConversation(context.Background(), id)
		if err != nil {
			return roomInfoMsg{}
		}
		return roomInfoMsg{conv: *conv}
	}
}

func (m Model) send(id int64, body string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		if _, err := client.SendMessage(context.Background(), id, body); err != nil {
			return ui.ErrorMsg{Err: err}
		}
		return sentMsg{}
	}
}

// renderRoom rebuilds the viewport content from the room's message list.
func (m *Model) renderRoom() {
	msgs := m.rooms.Get(m.open).Messages()

	var b strings.Builder
	for _, msg := range msgs {
		meta := theme.MessageMetaStyle.Render(fmt.Sprintf(
			"%s · %s", msg.SenderName, msg.SentAt.Format("15:04"),
		))
		if msg.SenderID == m.selfID {
			body := theme.OwnMessageStyle.Render(msg.Body)
			b.WriteString(lipgloss.NewStyle().
				Width(m.viewport.Width).
				Align(lipgloss.Right).
				Render(meta+"\n"+body) + "\n")
		} else {
			body := theme.OtherMessageStyle.Render(msg.Body)
			b.WriteString(meta + "\n" + body + "\n")
		}
	}
	if len(msgs) == 0 {
		b.WriteString(theme.HelpStyle.Render("No messages yet. Say hello."))
	}
	m.viewport.SetContent(b.String())
}

func (m *Model) buildNewForm() *huh.Form {
	opts := make([]huh.Option[int64], 0, len(m.people))
	for _, u := range m.people {
		if u.ID == m.selfID {
			continue
		}
		opts = append(opts, huh.NewOption(u.Username, u.ID))
	}

	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Subject").
			Placeholder("optional").
			Value(&m.fb.subject),
		huh.NewMultiSelect[int64]().
			Title("Participants").
			Options(opts...).
			Value(&m.fb.participantIDs).
			Validate(func(ids []int64) error {
				if len(ids) == 0 {
					return fmt.Errorf("pick at least one participant")
				}
				return nil
			}),
	)).WithShowHelp(false)
}

// View renders the active pane.
func (m Model) View() string {
	switch m.mode {
	case modeRoom:
		title := fmt.Sprintf("Conversation #%d", m.open)
		var who string
		for _, c := range m.convs {
			if c.ID == m.open {
				if c.Subject != "" {
					title = c.Subject
				}
				who = strings.Join(c.Participants, ", ")
				break
			}
		}
		header := theme.HeaderStyle.Render(title)
		if who != "" {
			header += lipgloss.NewStyle().
				Foreground(theme.ColorGray).
				Render("  " + who)
		}
		return lipgloss.JoinVertical(lipgloss.Left,
			header,
			m.viewport.View(),
			m.input.View(),
		)

	case modeNew:
		if m.form != nil {
			return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
				theme.PanelStyle.Render(m.form.View()))
		}
		return ""

	default:
		if len(m.list.Items()) == 0 {
			return lipgloss.NewStyle().
				Width(m.width).
				Height(m.height).
				Align(lipgloss.Center, lipgloss.Center).
				Foreground(theme.ColorGray).
				Render("No conversations.\n\nPress n to start one.")
		}
		return m.list.View()
	}
}
