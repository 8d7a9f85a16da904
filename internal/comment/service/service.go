// Package service implements comment listing, creation, and deletion.
package service

import (
	"context"
	"errors"
	"strings"

	"taskboard/internal/comment"
	"taskboard/internal/comment/store"
	"taskboard/internal/identity"
	identitystore "taskboard/internal/identity/store"
	"taskboard/internal/platform/middleware"
	"taskboard/internal/task"
	taskstore "taskboard/internal/task/store"
	dErrors "taskboard/pkg/domain-errors"
	"taskboard/pkg/platform/sentinel"
)

// AccessGuard authorizes a user to act within a project.
type AccessGuard interface {
	CanAccess(ctx context.Context, userID, projectID int64) (bool, error)
}

// Service orchestrates comments on tasks.
type Service struct {
	comments store.Store
	tasks    taskstore.Store
	users    identitystore.UserStore
	guard    AccessGuard
}

func New(comments store.Store, tasks taskstore.Store, users identitystore.UserStore, guard AccessGuard) *Service {
	return &Service{comments: comments, tasks: tasks, users: users, guard: guard}
}

// ListByTask returns a task's comments, oldest first, with author profiles
// resolved in one batch.
func (s *Service) ListByTask(ctx context.Context, taskID int64) ([]comment.Response, error) {
	if _, err := s.findTask(ctx, taskID); err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByTask(ctx, taskID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list comments")
	}

	ids := make([]int64, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.UserID)
	}
	profiles, err := s.users.FindProfiles(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve author profiles")
	}

	responses := make([]comment.Response, 0, len(comments))
	for _, c := range comments {
		var author *identity.Profile
		if p, ok := profiles[c.UserID]; ok {
			author = &p
		}
		responses = append(responses, comment.Response{Comment: c, User: author})
	}
	return responses, nil
}

// Create attaches a comment to a task. The task must exist and the caller
// must be able to access its project.
func (s *Service) Create(ctx context.Context, actorID, taskID int64, req comment.CreateRequest) (comment.Response, error) {
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		return comment.Response{}, dErrors.New(dErrors.CodeBadRequest, "content is required")
	}

	t, err := s.findTask(ctx, taskID)
	if err != nil {
		return comment.Response{}, err
	}
	allowed, err := s.guard.CanAccess(ctx, actorID, t.ProjectID)
	if err != nil {
		return comment.Response{}, err
	}
	if !allowed {
		return comment.Response{}, dErrors.New(dErrors.CodeForbidden, "not authorized to comment on this task")
	}

	now := middleware.Now(ctx)
	c := comment.Comment{
		TaskID:    taskID,
		UserID:    actorID,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.comments.Create(ctx, &c); err != nil {
		return comment.Response{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create comment")
	}

	profiles, err := s.users.FindProfiles(ctx, []int64{actorID})
	if err != nil {
		return comment.Response{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve author profile")
	}
	var author *identity.Profile
	if p, ok := profiles[actorID]; ok {
		author = &p
	}
	return comment.Response{Comment: c, User: author}, nil
}

// Delete removes a comment. Only its author may do so.
func (s *Service) Delete(ctx context.Context, actorID, commentID int64) error {
	c, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "comment not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load comment")
	}
	if c.UserID != actorID {
		return dErrors.New(dErrors.CodeForbidden, "not authorized")
	}

	if err := s.comments.Delete(ctx, commentID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "comment not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete comment")
	}
	return nil
}

func (s *Service) findTask(ctx context.Context, id int64) (task.Task, error) {
	t, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return task.Task{}, dErrors.New(dErrors.CodeNotFound, "task not found")
		}
		return task.Task{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load task")
	}
	return t, nil
}
