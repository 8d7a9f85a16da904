// Package access decides whether a user may act within a project. Every task
// and comment mutation consults it before touching the store.
package access

import (
	"context"
	"errors"
	"fmt"

	"taskboard/internal/identity"
	"taskboard/internal/project"
	"taskboard/pkg/platform/sentinel"

	dErrors "taskboard/pkg/domain-errors"
)

type RoleLookup interface {
	RoleOf(ctx context.Context, userID int64) (string, error)
}

type ProjectLookup interface {
	FindByID(ctx context.Context, id int64) (project.Project, error)
}

type MembershipLookup interface {
	IsMember(ctx context.Context, projectID, userID int64) (bool, error)
}

// Guard evaluates project access. It performs reads only and never mutates
// state.
type Guard struct {
	roles    RoleLookup
	projects ProjectLookup
	members  MembershipLookup
}

func NewGuard(roles RoleLookup, projects ProjectLookup, members MembershipLookup) *Guard {
	return &Guard{roles: roles, projects: projects, members: members}
}

// CanAccess reports whether the user may act on the project. The checks
// short-circuit: admin role, then recorded creator, then membership. A missing
// project is a not-found error, not a denial.
func (g *Guard) CanAccess(ctx context.Context, userID, projectID int64) (bool, error) {
	role, err := g.roles.RoleOf(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("resolve role: %w", err)
	}
	if role == identity.RoleAdmin {
		return true, nil
	}

	p, err := g.projects.FindByID(ctx, projectID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, dErrors.New(dErrors.CodeNotFound, "project not found")
	}
	if err != nil {
		return false, fmt.Errorf("resolve project: %w", err)
	}
	if p.CreatedBy != nil && *p.CreatedBy == userID {
		return true, nil
	}

	member, err := g.members.IsMember(ctx, projectID, userID)
	if err != nil {
		return false, fmt.Errorf("resolve membership: %w", err)
	}
	return member, nil
}
