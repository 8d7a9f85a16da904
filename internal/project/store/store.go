package store

import (
	"context"

	"taskboard/internal/project"
)

type ProjectStore interface {
	Create(ctx context.Context, p *project.Project) error
	// FindByID returns sentinel.ErrNotFound for unknown or soft-deleted
	// projects.
	FindByID(ctx context.Context, id int64) (project.Project, error)
	// List returns all non-deleted projects, newest first.
	List(ctx context.Context) ([]project.Project, error)
	Update(ctx context.Context, p project.Project) error
	// Delete soft-deletes the project.
	Delete(ctx context.Context, id int64) error
	// IDsCreatedBy returns the IDs of non-deleted projects the user created.
	IDsCreatedBy(ctx context.Context, userID int64) ([]int64, error)
}

type MemberStore interface {
	// Add returns sentinel.ErrConflict when the user is already a member.
	Add(ctx context.Context, m *project.Member) error
	// Remove returns sentinel.ErrNotFound when no such membership exists.
	Remove(ctx context.Context, projectID, userID int64) error
	ListByProject(ctx context.Context, projectID int64) ([]project.Member, error)
	IsMember(ctx context.Context, projectID, userID int64) (bool, error)
	// ProjectIDsFor returns the IDs of projects the user is a member of.
	ProjectIDsFor(ctx context.Context, userID int64) ([]int64, error)
}
