package notify

import (
	"sort"
	"sync"

	"github.com/tkoh/bookstore-tui/internal/model"
)

// State is the in-memory notification collection plus its unread counter.
// It is fed from two directions: a bulk fetch at login/screen mount
// (Initialize) and realtime pushes (Add). Mutations of the read flag and
// deletions happen only after the server confirmed the corresponding
// request.
//
// Invariant: after every public call returns, Unread() equals the number of
// held records whose Read flag is false. Add takes the shortcut of a plain
// increment because pushed records are unread by construction.
type State struct {
	mu            sync.Mutex
	notifications []model.Notification
	unread        int
}

// New returns an empty notification state.
func New() *State {
	return &State{}
}

// Initialize replaces the collection with a server-provided list, sorted
// newest-first, and recomputes the unread counter.
func (s *State) Initialize(list []model.Notification) {
	sorted := append([]model.Notification{}, list...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = sorted
	s.unread = countUnread(sorted)
}

// Add prepends a pushed record and bumps the unread counter.
func (s *State) Add(n model.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append([]model.Notification{n}, s.notifications...)
	s.unread++
}

// MarkRead flips the read flag of the matching record; a missing id is a
// no-op. The counter is recomputed from scratch.
func (s *State) MarkRead(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].Read = true
			break
		}
	}
	s.unread = countUnread(s.notifications)
}

// Remove deletes the matching record and recomputes the counter.
func (s *State) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.notifications[:0]
	for _, n := range s.notifications {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	s.notifications = kept
	s.unread = countUnread(kept)
}

// Clear empties the collection; invoked on logout.
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = nil
	s.unread = 0
}

// All returns a copy of the collection, newest-first.
func (s *State) All() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Notification{}, s.notifications...)
}

// Unread returns the unread counter.
func (s *State) Unread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

func countUnread(list []model.Notification) int {
	count := 0
	for _, n := range list {
		if !n.Read {
			count++
		}
	}
	return count
}
