package project

import (
	"time"

	"taskboard/internal/identity"
)

// Project is a container for tasks. CreatedBy is nullable because user rows
// may be removed while their projects survive.
type Project struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	CreatedBy   *int64    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	IsDeleted   bool      `json:"is_deleted"`
}

// Member is a project membership row. A user appears at most once per project.
type Member struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// MemberWithProfile is the member listing shape, enriched with the member's
// profile summary when one can be resolved.
type MemberWithProfile struct {
	Member
	User *identity.Profile `json:"user"`
}

// WithMembers is returned by GET /projects/{id}.
type WithMembers struct {
	Project
	Members []MemberWithProfile `json:"members"`
}

// CreateRequest is the payload for POST /projects.
type CreateRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

// UpdateRequest is the payload for PUT /projects/{id}. Absent fields are left
// unchanged.
type UpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// AddMemberRequest is the payload for POST /projects/{id}/members.
type AddMemberRequest struct {
	UserID int64 `json:"user_id"`
}
