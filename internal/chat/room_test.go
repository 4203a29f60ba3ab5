package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkoh/bookstore-tui/internal/model"
)

func msg(id, conv int64, body string) model.Message {
	return model.Message{
		ID:             id,
		ConversationID: conv,
		Body:           body,
		SentAt:         time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestLoadHistoryReplacesList(t *testing.T) {
	r := NewRoom(7)
	r.LoadHistory([]model.Message{msg(1, 7, "first")})
	r.LoadHistory([]model.Message{msg(1, 7, "first"), msg(2, 7, "second")})

	msgs := r.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Body)
	assert.Equal(t, "second", msgs[1].Body)
}

func TestReopenPicksUpMessagesMissedWhileClosed(t *testing.T) {
	// Closing a room drops its topic subscription, so a message sent in
	// the meantime never reaches Append. The refetched history on reopen
	// is the only place it exists.
	r := NewRoom(7)
	r.LoadHistory([]model.Message{msg(1, 7, "hello")})
	r.Append(msg(2, 7, "pushed while open"))

	// Reopen: the server history now holds everything, including the
	// message that arrived while the room was closed.
	r.LoadHistory([]model.Message{
		msg(1, 7, "hello"),
		msg(2, 7, "pushed while open"),
		msg(3, 7, "sent while closed"),
	})

	msgs := r.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "sent while closed", msgs[2].Body)
}

func TestAppendKeepsArrivalOrder(t *testing.T) {
	r := NewRoom(7)
	r.LoadHistory([]model.Message{msg(1, 7, "history")})
	r.Append(msg(2, 7, "a"))
	r.Append(msg(3, 7, "b"))

	msgs := r.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "history", msgs[0].Body)
	assert.Equal(t, "a", msgs[1].Body)
	assert.Equal(t, "b", msgs[2].Body)
}

func TestAppendDoesNotDeduplicate(t *testing.T) {
	// The realtime echo of a sent message is the only way the sender sees
	// it; an identical push must still be appended.
	r := NewRoom(7)
	r.Append(msg(2, 7, "hello"))
	r.Append(msg(2, 7, "hello"))

	assert.Len(t, r.Messages(), 2)
}

func TestAppendIgnoresOtherConversations(t *testing.T) {
	r := NewRoom(7)
	r.Append(msg(1, 8, "stray"))

	assert.Empty(t, r.Messages())
}

func TestRoomsGetCreatesOnce(t *testing.T) {
	rs := NewRooms()
	a := rs.Get(1)
	b := rs.Get(1)

	assert.Same(t, a, b)
}

func TestDispatchRoutesToOpenRoomOnly(t *testing.T) {
	rs := NewRooms()
	room := rs.Get(1)

	rs.Dispatch(msg(1, 1, "kept"))
	rs.Dispatch(msg(2, 99, "dropped"))

	require.Len(t, room.Messages(), 1)
	assert.Equal(t, "kept", room.Messages()[0].Body)

	// The drop must not implicitly open a room.
	rs.mu.Lock()
	_, exists := rs.rooms[99]
	rs.mu.Unlock()
	assert.False(t, exists)
}

func TestClearDropsAllRooms(t *testing.T) {
	rs := NewRooms()
	rs.Get(1).Append(msg(1, 1, "x"))

	rs.Clear()

	assert.Empty(t, rs.Get(1).Messages())
}
