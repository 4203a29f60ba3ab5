package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkoh/bookstore-tui/internal/model"
)

func at(offset int) time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(offset) * time.Minute)
}

func TestInitializeSortsNewestFirstAndCountsUnread(t *testing.T) {
	s := New()
	s.Initialize([]model.Notification{
		{ID: 1, Message: "oldest", Read: true, CreatedAt: at(0)},
		{ID: 3, Message: "newest", Read: false, CreatedAt: at(20)},
		{ID: 2, Message: "middle", Read: false, CreatedAt: at(10)},
	})

	all := s.All()
	require.Len(t, all, 3)
	assert.Equal(t, int64(3), all[0].ID)
	assert.Equal(t, int64(2), all[1].ID)
	assert.Equal(t, int64(1), all[2].ID)
	assert.Equal(t, 2, s.Unread())
}

func TestInitializeReplacesPreviousContents(t *testing.T) {
	s := New()
	s.Initialize([]model.Notification{{ID: 1, CreatedAt: at(0)}})
	s.Initialize([]model.Notification{{ID: 2, CreatedAt: at(1)}, {ID: 3, CreatedAt: at(2)}})

	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, 2, s.Unread())
}

func TestAddPrependsAndIncrementsUnread(t *testing.T) {
	s := New()
	s.Initialize([]model.Notification{
		{ID: 1, Read: true, CreatedAt: at(0)},
	})
	require.Equal(t, 0, s.Unread())

	s.Add(model.Notification{ID: 5, Message: "pushed", CreatedAt: at(30)})

	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, int64(5), all[0].ID)
	assert.Equal(t, 1, s.Unread())
}

func TestMarkReadFlipsFlagAndRecomputes(t *testing.T) {
	s := New()
	s.Initialize([]model.Notification{
		{ID: 4, Read: false, CreatedAt: at(1)},
	})
	s.Add(model.Notification{ID: 5, CreatedAt: at(2)})
	require.Equal(t, 2, s.Unread())

	s.MarkRead(5)

	assert.Equal(t, 1, s.Unread())
	for _, n := range s.All() {
		if n.ID == 5 {
			assert.True(t, n.Read)
		}
	}
}

func TestMarkReadUnknownIDIsNoOp(t *testing.T) {
	s := New()
	s.Initialize([]model.Notification{{ID: 1, CreatedAt: at(0)}})

	s.MarkRead(99)

	assert.Equal(t, 1, s.Unread())
	assert.Len(t, s.All(), 1)
}

func TestRemoveDeletesAndRecomputes(t *testing.T) {
	s := New()
	s.Add(model.Notification{ID: 5, CreatedAt: at(1)})
	s.Add(model.Notification{ID: 6, CreatedAt: at(2)})
	require.Equal(t, 2, s.Unread())

	s.Remove(5)

	all := s.All()
	require.Len(t, all, 1)
	assert.Equal(t, int64(6), all[0].ID)
	assert.Equal(t, 1, s.Unread())
}

func TestMarkReadThenRemoveKeepsCounterConsistent(t *testing.T) {
	s := New()
	s.Add(model.Notification{ID: 5, CreatedAt: at(1)})
	s.Add(model.Notification{ID: 6, CreatedAt: at(2)})

	s.MarkRead(5)
	require.Equal(t, 1, s.Unread())

	s.Remove(5)
	assert.Equal(t, 1, s.Unread())

	s.Remove(6)
	assert.Equal(t, 0, s.Unread())
	assert.Empty(t, s.All())
}

func TestClearEmptiesEverything(t *testing.T) {
	s := New()
	s.Add(model.Notification{ID: 1, CreatedAt: at(0)})
	s.Add(model.Notification{ID: 2, CreatedAt: at(1)})

	s.Clear()

	assert.Empty(t, s.All())
	assert.Equal(t, 0, s.Unread())
}

func TestAllReturnsACopy(t *testing.T) {
	s := New()
	s.Add(model.Notification{ID: 1, Message: "original", CreatedAt: at(0)})

	all := s.All()
	all[0].Message = "mutated"

	assert.Equal(t, "original", s.All()[0].Message)
}
