package store

import (
	"context"

	"taskboard/internal/comment"
)

type Store interface {
	Create(ctx context.Context, c *comment.Comment) error
	// FindByID returns sentinel.ErrNotFound for unknown or soft-deleted
	// comments.
	FindByID(ctx context.Context, id int64) (comment.Comment, error)
	// ListByTask returns the task's comments, oldest first.
	ListByTask(ctx context.Context, taskID int64) ([]comment.Comment, error)
	// Delete soft-deletes the comment.
	Delete(ctx context.Context, id int64) error
}
