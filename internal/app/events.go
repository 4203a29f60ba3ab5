package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tkoh/bookstore-tui/internal/realtime"
)

// Events bridges out-of-band callbacks (realtime pushes, credential
// transitions, connection state changes) into the Bubble Tea message loop.
// Callbacks push onto the channel; the root model keeps one waitForEvent
// command armed and re-arms it after every delivery.
type eventBridge struct {
	ch chan tea.Msg
}

func newEventBridge() *eventBridge {
	return &eventBridge{ch: make(chan tea.Msg, 64)}
}

// push delivers an event without ever blocking the caller. A full channel
// means the UI is hopelessly behind; dropping is the lesser evil.
func (b *eventBridge) push(msg tea.Msg) {
	select {
	case b.ch <- msg:
	default:
	}
}

// waitForEvent blocks until the next bridged event arrives.
func (b *eventBridge) waitForEvent() tea.Cmd {
	ch := b.ch
	return func() tea.Msg {
		return <-ch
	}
}

// connStateMsg reports a realtime connection state transition.
type connStateMsg struct {
	state realtime.State
}

// notifPushMsg reports that a pushed notification has been added to the
// shared state.
type notifPushMsg struct{}

// chatPushMsg reports that a pushed message has been routed to its room.
type chatPushMsg struct {
	conversationID int64
}

// credentialMsg reports a credential transition; token is empty on logout.
type credentialMsg struct {
	token string
}
