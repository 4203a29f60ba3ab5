package notifpanel

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkoh/bookstore-tui/internal/api"
	"github.com/tkoh/bookstore-tui/internal/keys"
	"github.com/tkoh/bookstore-tui/internal/model"
	"github.com/tkoh/bookstore-tui/internal/notify"
	"github.com/tkoh/bookstore-tui/tests/testutil"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestMarkReadAndRemoveWriteThroughCache(t *testing.T) {
	srv := testutil.NewBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			testutil.WriteEnvelope(t, w, model.Notification{ID: 5, Read: true})
		case http.MethodDelete:
			testutil.WriteEnvelope(t, w, nil)
		default:
			testutil.WriteEnvelope(t, w, []model.Notification{})
		}
	})
	client := api.NewClient(srv.URL, staticToken("T1"), zerolog.Nop())

	created := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	seed := []model.Notification{
		{ID: 5, Message: "pedido recibido", CreatedAt: created},
		{ID: 6, Message: "nuevo mensaje", CreatedAt: created.Add(time.Minute)},
	}
	cache := testutil.NewTestCache(t)
	ctx := context.Background()
	require.NoError(t, cache.UpsertNotifications(ctx, seed))

	state := notify.New()
	state.Initialize(seed)

	m := New(client, state, cache, keys.DefaultKeyMap(), 80, 24)

	// Mark-read reaches the cache, so an offline fallback cannot
	// resurrect the stale unread flag.
	msg := m.markRead(5)()
	_, ok := msg.(ChangedMsg)
	require.True(t, ok, "markRead returned %T", msg)

	cached, err := cache.GetNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, cached, 2)
	for _, n := range cached {
		if n.ID == 5 {
			assert.True(t, n.Read)
		}
	}

	// Delete reaches the cache, so the notification stays gone offline.
	msg = m.remove(6)()
	_, ok = msg.(ChangedMsg)
	require.True(t, ok, "remove returned %T", msg)

	cached, err = cache.GetNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, int64(5), cached[0].ID)
}
