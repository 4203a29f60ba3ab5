package api

import (
	"context"

	"github.com/tkoh/bookstore-tui/internal/model"
)

// ListAuditLogs fetches a page of the activity log (ADMIN/OWNER only).
func (c *Client) ListAuditLogs(ctx context.Context, p Pageable) (model.Page[model.AuditLog], error) {
	var page model.Page[model.AuditLog]
	err := c.Get(ctx, "/api/v1/logs"+p.query(), &page)
	return page, err
}
