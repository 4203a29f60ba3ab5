package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkoh/bookstore-tui/internal/model"
	"github.com/tkoh/bookstore-tui/tests/testutil"
)

func ts(offset int) time.Time {
	return time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC).
		Add(time.Duration(offset) * time.Minute)
}

func TestNotificationRoundtrip(t *testing.T) {
	cache := testutil.NewTestCache(t)
	ctx := context.Background()

	err := cache.UpsertNotifications(ctx, []model.Notification{
		{ID: 1, Message: "pedido recibido", Read: true, CreatedAt: ts(0)},
		{ID: 2, Message: "nuevo mensaje", CreatedAt: ts(5)},
	})
	require.NoError(t, err)

	got, err := cache.GetNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Newest first.
	assert.Equal(t, int64(2), got[0].ID)
	assert.Equal(t, "nuevo mensaje", got[0].Message)
	assert.False(t, got[0].Read)
	assert.True(t, got[0].CreatedAt.Equal(ts(5)))
	assert.Equal(t, int64(1), got[1].ID)
	assert.True(t, got[1].Read)
}

func TestNotificationUpsertReplaces(t *testing.T) {
	cache := testutil.NewTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.UpsertNotifications(ctx, []model.Notification{
		{ID: 1, Message: "primera versión", CreatedAt: ts(0)},
	}))
	require.NoError(t, cache.UpsertNotifications(ctx, []model.Notification{
		{ID: 1, Message: "segunda versión", Read: true, CreatedAt: ts(0)},
	}))

	got, err := cache.GetNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "segunda versión", got[0].Message)
	assert.True(t, got[0].Read)
}

func TestNotificationMarkReadAndDelete(t *testing.T) {
	cache := testutil.NewTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.UpsertNotifications(ctx, []model.Notification{
		{ID: 1, Message: "a", CreatedAt: ts(0)},
		{ID: 2, Message: "b", CreatedAt: ts(1)},
	}))

	require.NoError(t, cache.MarkNotificationRead(ctx, 1))
	require.NoError(t, cache.DeleteNotification(ctx, 2))

	got, err := cache.GetNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
	assert.True(t, got[0].Read)
}

func TestPurgeEmptiesEverything(t *testing.T) {
	cache := testutil.NewTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.UpsertNotifications(ctx, []model.Notification{
		{ID: 1, Message: "a", CreatedAt: ts(0)},
	}))
	require.NoError(t, cache.UpsertConversations(ctx, []model.Conversation{
		{ID: 10, Subject: "x", CreatedAt: ts(0)},
	}))
	require.NoError(t, cache.UpsertMessages(ctx, []model.Message{
		{ID: 1, ConversationID: 10, Body: "hola", SenderID: 1, SenderName: "ana", SentAt: ts(0)},
	}))

	require.NoError(t, cache.Purge(ctx))

	notifs, err := cache.GetNotifications(ctx)
	require.NoError(t, err)
	assert.Empty(t, notifs)
	convs, err := cache.GetConversations(ctx)
	require.NoError(t, err)
	assert.Empty(t, convs)
	msgs, err := cache.GetMessages(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestConversationRoundtrip(t *testing.T) {
	cache := testutil.NewTestCache(t)
	ctx := context.Background()

	err := cache.UpsertConversations(ctx, []model.Conversation{
		{ID: 10, Subject: "pedido #42", Participants: []string{"ana", "luis"}, CreatedAt: ts(0)},
		{ID: 11, Subject: "", Participants: nil, CreatedAt: ts(3)},
	})
	require.NoError(t, err)

	got, err := cache.GetConversations(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, int64(11), got[0].ID)
	assert.Equal(t, int64(10), got[1].ID)
	assert.Equal(t, "pedido #42", got[1].Subject)
	assert.Equal(t, []string{"ana", "luis"}, got[1].Participants)
}

func TestMessagesOrderedBySentTime(t *testing.T) {
	cache := testutil.NewTestCache(t)
	ctx := context.Background()

	// Inserted out of order on purpose.
	err := cache.UpsertMessages(ctx, []model.Message{
		{ID: 3, ConversationID: 10, Body: "tercero", SenderID: 1, SenderName: "ana", SentAt: ts(2)},
		{ID: 1, ConversationID: 10, Body: "primero", SenderID: 2, SenderName: "luis", SentAt: ts(0)},
		{ID: 2, ConversationID: 10, Body: "segundo", SenderID: 1, SenderName: "ana", SentAt: ts(1)},
		{ID: 4, ConversationID: 99, Body: "otra sala", SenderID: 1, SenderName: "ana", SentAt: ts(0)},
	})
	require.NoError(t, err)

	got, err := cache.GetMessages(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "primero", got[0].Body)
	assert.Equal(t, "segundo", got[1].Body)
	assert.Equal(t, "tercero", got[2].Body)
	assert.Equal(t, "luis", got[0].SenderName)
}

func TestMessageUpsertReplaces(t *testing.T) {
	cache := testutil.NewTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.UpsertMessages(ctx, []model.Message{
		{ID: 1, ConversationID: 10, Body: "hola", SenderID: 1, SenderName: "ana", SentAt: ts(0)},
	}))
	require.NoError(t, cache.UpsertMessages(ctx, []model.Message{
		{ID: 1, ConversationID: 10, Body: "hola editado", SenderID: 1, SenderName: "ana", SentAt: ts(0)},
	}))

	got, err := cache.GetMessages(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "hola editado", got[0].Body)
}
