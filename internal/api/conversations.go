package api

import (
	"context"
	"fmt"

	"github.com/tkoh/bookstore-tui/internal/model"
)

// MyConversations fetches the conversations the current user participates in.
func (c *Client) MyConversations(ctx context.Context) ([]model.Conversation, error) {
	var list []model.Conversation
	err := c.Get(ctx, "/api/v1/conversaciones/me", &list)
	return list, err
}

// GetConversation fetches a conversation with its participants.
func (c *Client) GetConversation(ctx context.Context, id int64) (*model.Conversation, error) {
	var conv model.Conversation
	if err := c.Get(ctx, fmt.Sprintf("/api/v1/conversaciones/%d", id), &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// GetMessages fetches the full message history of a conversation. This runs
// on every room open; while the room stays open, later messages arrive over
// the realtime channel.
func (c *Client) GetMessages(ctx context.Context, conversationID int64) ([]model.Message, error) {
	var msgs []model.Message
	err := c.Get(ctx, fmt.Sprintf("/api/v1/conversaciones/%d/mensajes", conversationID), &msgs)
	return msgs, err
}

// StartConversation creates a new conversation with the given participants.
func (c *Client) StartConversation(ctx context.Context, req model.ConversationCreate) (*model.Conversation, error) {
	var conv model.Conversation
	if err := c.Post(ctx, "/api/v1/conversaciones", req, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// SendMessage posts a message to a conversation. Delivery back to every
// participant, the sender included, happens via the realtime echo on
// /topic/conversacion/{id}; the response here only confirms acceptance.
func (c *Client) SendMessage(ctx context.Context, conversationID int64, body string) (*model.Message, error) {
	var msg model.Message
	req := model.MessageCreate{Body: body}
	path := fmt.Sprintf("/api/v1/conversaciones/%d/mensajes", conversationID)
	if err := c.Post(ctx, path, req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
