package api

import (
	"context"
	"fmt"

	"github.com/tkoh/bookstore-tui/internal/model"
)

// MyNotifications fetches all notifications addressed to the current user.
func (c *Client) MyNotifications(ctx context.Context) ([]model.Notification, error) {
	var list []model.Notification
	err := c.Get(ctx, "/api/v1/notificaciones/me", &list)
	return list, err
}

// MarkNotificationRead acknowledges a notification server-side. The local
// read flag is only flipped after this succeeds.
func (c *Client) MarkNotificationRead(ctx context.Context, id int64) (*model.Notification, error) {
	var n model.Notification
	if err := c.Put(ctx, fmt.Sprintf("/api/v1/notificaciones/%d/read", id), nil, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// DeleteNotification removes a notification server-side.
func (c *Client) DeleteNotification(ctx context.Context, id int64) error {
	return c.Delete(ctx, fmt.Sprintf("/api/v1/notificaciones/%d", id))
}
