package api

import (
	"context"
	"fmt"

	"github.com/tkoh/bookstore-tui/internal/model"
)

// Categories and publishers share the same {id, nombre} shape and CRUD
// surface; only the endpoint root differs.

// ListCategories fetches a page of categories.
func (c *Client) ListCategories(ctx context.Context, p Pageable) (model.Page[model.Category], error) {
	var page model.Page[model.Category]
	err := c.Get(ctx, "/api/v1/categorias"+p.query(), &page)
	return page, err
}

// CreateCategory adds a category.
func (c *Client) CreateCategory(ctx context.Context, name string) (*model.Category, error) {
	var out model.Category
	if err := c.Post(ctx, "/api/v1/categorias", map[string]string{"nombre": name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCategory renames a category.
func (c *Client) UpdateCategory(ctx context.Context, id int64, name string) (*model.Category, error) {
	body := map[string]interface{}{"id": id, "nombre": name}
	var out model.Category
	if err := c.Put(ctx, fmt.Sprintf("/api/v1/categorias/%d", id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCategory removes a category.
func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	return c.Delete(ctx, fmt.Sprintf("/api/v1/categorias/%d", id))
}

// ListPublishers fetches a page of publishers.
func (c *Client) ListPublishers(ctx context.Context, p Pageable) (model.Page[model.Publisher], error) {
	var page model.Page[model.Publisher]
	err := c.Get(ctx, "/api/v1/editoriales"+p.query(), &page)
	return page, err
}

// CreatePublisher adds a publisher.
func (c *Client) CreatePublisher(ctx context.Context, name string) (*model.Publisher, error) {
	var out model.Publisher
	if err := c.Post(ctx, "/api/v1/editoriales", map[string]string{"nombre": name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePublisher renames a publisher.
func (c *Client) UpdatePublisher(ctx context.Context, id int64, name string) (*model.Publisher, error) {
	body := map[string]interface{}{"id": id, "nombre": name}
	var out model.Publisher
	if err := c.Put(ctx, fmt.Sprintf("/api/v1/editoriales/%d", id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePublisher removes a publisher.
func (c *Client) DeletePublisher(ctx context.Context, id int64) error {
	return c.Delete(ctx, fmt.Sprintf("/api/v1/editoriales/%d", id))
}
