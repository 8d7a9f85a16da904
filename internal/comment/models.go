package comment

import (
	"time"

	"taskboard/internal/identity"
)

// Comment is a remark attached to a task.
type Comment struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"task_id"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	IsDeleted bool      `json:"-"`
}

// Response is a comment enriched with the author's profile summary.
type Response struct {
	Comment
	User *identity.Profile `json:"user"`
}

// CreateRequest is the payload for POST /tasks/{id}/comments.
type CreateRequest struct {
	Content string `json:"content"`
}
