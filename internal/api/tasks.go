package api

import (
	"context"
	"fmt"

	"github.com/tkoh/bookstore-tui/internal/model"
)

// ListTasks fetches a page of all tasks (admin view).
func (c *Client) ListTasks(ctx context.Context, p Pageable) (model.Page[model.TaskItem], error) {
	var page model.Page[model.TaskItem]
	err := c.Get(ctx, "/api/v1/tareas"+p.query(), &page)
	return page, err
}

// MyTasks fetches the tasks assigned to the current user.
func (c *Client) MyTasks(ctx context.Context) ([]model.TaskItem, error) {
	var tasks []model.TaskItem
	err := c.Get(ctx, "/api/v1/tareas/me", &tasks)
	return tasks, err
}

// CreateTask assigns a new task.
func (c *Client) CreateTask(ctx context.Context, req model.TaskCreate) (*model.TaskItem, error) {
	var t model.TaskItem
	if err := c.Post(ctx, "/api/v1/tareas", req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTask edits a task, including toggling completion.
func (c *Client) UpdateTask(ctx context.Context, id int64, req model.TaskUpdate) (*model.TaskItem, error) {
	var t model.TaskItem
	if err := c.Put(ctx, fmt.Sprintf("/api/v1/tareas/%d", id), req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.Delete(ctx, fmt.Sprintf("/api/v1/tareas/%d", id))
}
