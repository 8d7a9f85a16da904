package store

import (
	"context"

	"taskboard/internal/task"
)

// ListQuery narrows the task listing. A nil ProjectIDs means no restriction;
// a non-nil (possibly empty) slice restricts results to those projects.
type ListQuery struct {
	ProjectID  *int64
	ProjectIDs []int64
}

type Store interface {
	Create(ctx context.Context, t *task.Task) error
	// FindByID returns sentinel.ErrNotFound for unknown or soft-deleted
	// tasks.
	FindByID(ctx context.Context, id int64) (task.Task, error)
	// List returns non-deleted tasks matching the query, newest first.
	List(ctx context.Context, q ListQuery) ([]task.Task, error)
	Update(ctx context.Context, t task.Task) error
	// TitleExists reports whether a non-deleted task other than excludeID
	// already uses the title.
	TitleExists(ctx context.Context, title string, excludeID int64) (bool, error)
}
