// Package service implements project CRUD and membership management.
package service

import (
	"context"
	"errors"
	"strings"

	"taskboard/internal/identity"
	identitystore "taskboard/internal/identity/store"
	"taskboard/internal/project"
	"taskboard/internal/project/store"
	"taskboard/internal/platform/middleware"
	dErrors "taskboard/pkg/domain-errors"
	"taskboard/pkg/platform/sentinel"
)

// Service orchestrates projects and their memberships.
type Service struct {
	projects store.ProjectStore
	members  store.MemberStore
	users    identitystore.UserStore
}

func New(projects store.ProjectStore, members store.MemberStore, users identitystore.UserStore) *Service {
	return &Service{projects: projects, members: members, users: users}
}

// List returns all non-deleted projects, newest first.
func (s *Service) List(ctx context.Context) ([]project.Project, error) {
	projects, err := s.projects.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list projects")
	}
	return projects, nil
}

// Get returns a project together with its members and their profiles.
func (s *Service) Get(ctx context.Context, id int64) (project.WithMembers, error) {
	p, err := s.projects.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return project.WithMembers{}, dErrors.New(dErrors.CodeNotFound, "project not found")
		}
		return project.WithMembers{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load project")
	}

	members, err := s.members.ListByProject(ctx, id)
	if err != nil {
		return project.WithMembers{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list members")
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	profiles, err := s.users.FindProfiles(ctx, ids)
	if err != nil {
		return project.WithMembers{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve member profiles")
	}

	enriched := make([]project.MemberWithProfile, 0, len(members))
	for _, m := range members {
		var profile *identity.Profile
		if p, ok := profiles[m.UserID]; ok {
			profile = &p
		}
		enriched = append(enriched, project.MemberWithProfile{Member: m, User: profile})
	}
	return project.WithMembers{Project: p, Members: enriched}, nil
}

// Create stores a new project owned by the caller.
func (s *Service) Create(ctx context.Context, actorID int64, req project.CreateRequest) (project.Project, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return project.Project{}, dErrors.New(dErrors.CodeBadRequest, "title is required")
	}

	now := middleware.Now(ctx)
	p := project.Project{
		Title:       req.Title,
		Description: req.Description,
		CreatedBy:   &actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.projects.Create(ctx, &p); err != nil {
		return project.Project{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create project")
	}
	return p, nil
}

// Update applies the provided fields, leaving absent ones unchanged.
func (s *Service) Update(ctx context.Context, id int64, req project.UpdateRequest) (project.Project, error) {
	p, err := s.projects.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return project.Project{}, dErrors.New(dErrors.CodeNotFound, "project not found")
		}
		return project.Project{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load project")
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return project.Project{}, dErrors.New(dErrors.CodeBadRequest, "title must not be empty")
		}
		p.Title = title
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	p.UpdatedAt = middleware.Now(ctx)

	if err := s.projects.Update(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return project.Project{}, dErrors.New(dErrors.CodeNotFound, "project not found")
		}
		return project.Project{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update project")
	}
	return p, nil
}

// Delete soft-deletes a project. Its tasks remain but are no longer reachable
// through project listings.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.projects.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "project not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete project")
	}
	return nil
}

// AddMember enrolls a user in a project.
func (s *Service) AddMember(ctx context.Context, projectID, userID int64) error {
	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "project not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load project")
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	m := project.Member{ProjectID: projectID, UserID: userID, CreatedAt: middleware.Now(ctx)}
	if err := s.members.Add(ctx, &m); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "user is already a member")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to add member")
	}
	return nil
}

// RemoveMember withdraws a user's membership.
func (s *Service) RemoveMember(ctx context.Context, projectID, userID int64) error {
	if err := s.members.Remove(ctx, projectID, userID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "member not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove member")
	}
	return nil
}
