package api

import (
	"context"
	"net/url"

	"github.com/tkoh/bookstore-tui/internal/model"
)

// ListBooks fetches a page of the catalog.
func (c *Client) ListBooks(ctx context.Context, p Pageable) (model.Page[model.Book], error) {
	var page model.Page[model.Book]
	err := c.Get(ctx, "/api/v1/libros"+p.query(), &page)
	return page, err
}

// GetBook fetches a single book by ISBN.
func (c *Client) GetBook(ctx context.Context, isbn string) (*model.Book, error) {
	var b model.Book
	if err := c.Get(ctx, "/api/v1/libros/"+url.PathEscape(isbn), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBook adds a catalog entry.
func (c *Client) CreateBook(ctx context.Context, req model.BookCreate) (*model.Book, error) {
	var b model.Book
	if err := c.Post(ctx, "/api/v1/libros", req, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// UpdateBook edits a catalog entry.
func (c *Client) UpdateBook(ctx context.Context, isbn string, req model.BookUpdate) (*model.Book, error) {
	var b model.Book
	if err := c.Put(ctx, "/api/v1/libros/"+url.PathEscape(isbn), req, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// DeleteBook removes a catalog entry.
func (c *Client) DeleteBook(ctx context.Context, isbn string) error {
	return c.Delete(ctx, "/api/v1/libros/"+url.PathEscape(isbn))
}
