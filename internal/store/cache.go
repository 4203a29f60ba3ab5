package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tkoh/bookstore-tui/internal/model"
)

// UpsertNotifications inserts or replaces a batch of notifications.
func (s *CacheStore) UpsertNotifications(ctx context.Context, list []model.Notification) error {
	if len(list) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT OR REPLACE INTO notifications (id, message, read, created_at)
		VALUES (?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing upsert statement: %w", err)
	}
	defer stmt.Close()

	for _, n := range list {
		if _, err := stmt.ExecContext(ctx, n.ID, n.Message, n.Read, n.CreatedAt); err != nil {
			return fmt.Errorf("upserting notification %d: %w", n.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// MarkNotificationRead flips the cached read flag.
func (s *CacheStore) MarkNotificationRead(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("marking notification %d read: %w", id, err)
	}
	return nil
}

// DeleteNotification removes a cached notification.
func (s *CacheStore) DeleteNotification(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM notifications WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting notification %d: %w", id, err)
	}
	return nil
}

// GetNotifications returns cached notifications newest-first.
func (s *CacheStore) GetNotifications(ctx context.Context) ([]model.Notification, error) {
	var list []model.Notification
	err := s.db.SelectContext(ctx, &list,
		"SELECT id, message, read, created_at FROM notifications ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("loading cached notifications: %w", err)
	}
	return list, nil
}

// Purge drops everything the cache holds. Runs on logout so the next
// session never sees the previous user's data through an offline fallback.
func (s *CacheStore) Purge(ctx context.Context) error {
	for _, table := range []string{"notifications", "conversations", "messages"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("purging cached %s: %w", table, err)
		}
	}
	return nil
}

// UpsertConversations inserts or replaces a batch of conversations.
func (s *CacheStore) UpsertConversations(ctx context.Context, list []model.Conversation) error {
	if len(list) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT OR REPLACE INTO conversations (id, subject, participants, created_at)
		VALUES (?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing upsert statement: %w", err)
	}
	defer stmt.Close()

	for _, conv := range list {
		participants, err := json.Marshal(conv.Participants)
		if err != nil {
			return fmt.Errorf("encoding participants for %d: %w", conv.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, conv.ID, conv.Subject, string(participants), conv.CreatedAt); err != nil {
			return fmt.Errorf("upserting conversation %d: %w", conv.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetConversations returns cached conversations newest-first.
func (s *CacheStore) GetConversations(ctx context.Context) ([]model.Conversation, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT id, subject, participants, created_at FROM conversations ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("loading cached conversations: %w", err)
	}
	defer rows.Close()

	var list []model.Conversation
	for rows.Next() {
		var conv model.Conversation
		var participants string
		if err := rows.Scan(&conv.ID, &conv.Subject, &participants, &conv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		if err := json.Unmarshal([]byte(participants), &conv.Participants); err != nil {
			conv.Participants = nil
		}
		list = append(list, conv)
	}
	return list, rows.Err()
}

// UpsertMessages inserts or replaces a batch of messages.
func (s *CacheStore) UpsertMessages(ctx context.Context, msgs []model.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT OR REPLACE INTO messages (
			id, conversation_id, body, sender_id, sender_name, sent_at
		) VALUES (?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing upsert statement: %w", err)
	}
	defer stmt.Close()

	for _, msg := range msgs {
		_, err := stmt.ExecContext(ctx,
			msg.ID, msg.ConversationID, msg.Body,
			msg.SenderID, msg.SenderName, msg.SentAt)
		if err != nil {
			return fmt.Errorf("upserting message %d: %w", msg.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetMessages returns a conversation's cached messages in sent order.
func (s *CacheStore) GetMessages(ctx context.Context, conversationID int64) ([]model.Message, error) {
	var msgs []model.Message
	err := s.db.SelectContext(ctx, &msgs, `
		SELECT id, conversation_id, body, sender_id, sender_name, sent_at
		FROM messages WHERE conversation_id = ? ORDER BY sent_at, id`,
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("loading cached messages for %d: %w", conversationID, err)
	}
	return msgs, nil
}
