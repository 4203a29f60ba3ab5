package chat

import (
	"sync"

	"github.com/tkoh/bookstore-tui/internal/model"
)

// Room holds one conversation's message list. History is fetched from the
// REST API on every open and replaces the list; while the room stays open,
// realtime pushes are appended in arrival order. The client never reorders
// by timestamp and does not deduplicate a sent message against its own
// realtime echo; the echo is in fact the only way a sender sees their
// message appear.
type Room struct {
	mu             sync.Mutex
	conversationID int64
	messages       []model.Message
}

// NewRoom creates an empty room for the given conversation.
func NewRoom(conversationID int64) *Room {
	return &Room{conversationID: conversationID}
}

// ConversationID returns the conversation this room belongs to.
func (r *Room) ConversationID() int64 {
	return r.conversationID
}

// LoadHistory replaces the list with the fetched message history. The
// topic subscription is dropped while a room is closed, so anything that
// arrived in the meantime only exists on the server; the refetch on reopen
// is what brings it back.
func (r *Room) LoadHistory(msgs []model.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append([]model.Message{}, msgs...)
}

// Append adds a pushed message to the end of the list. Messages for other
// conversations are ignored.
func (r *Room) Append(msg model.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg.ConversationID != r.conversationID {
		return
	}
	r.messages = append(r.messages, msg)
}

// Messages returns a copy of the list in arrival order.
func (r *Room) Messages() []model.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Message{}, r.messages...)
}

// Rooms hands out one Room per conversation and routes inbound pushes.
type Rooms struct {
	mu    sync.Mutex
	rooms map[int64]*Room
}

// NewRooms creates an empty registry.
func NewRooms() *Rooms {
	return &Rooms{rooms: make(map[int64]*Room)}
}

// Get returns the room for the conversation, creating it on first use.
func (rs *Rooms) Get(conversationID int64) *Room {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	room, ok := rs.rooms[conversationID]
	if !ok {
		room = NewRoom(conversationID)
		rs.rooms[conversationID] = room
	}
	return room
}

// Dispatch routes a pushed message to its room, if the room is open.
// Messages for conversations never opened are dropped.
func (rs *Rooms) Dispatch(msg model.Message) {
	rs.mu.Lock()
	room, ok := rs.rooms[msg.ConversationID]
	rs.mu.Unlock()
	if ok {
		room.Append(msg)
	}
}

// Clear drops all rooms; invoked on logout.
func (rs *Rooms) Clear() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.rooms = make(map[int64]*Room)
}
