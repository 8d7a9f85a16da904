// Package service implements task CRUD. Every mutation is authorized through
// the project access guard and leaves an immutable audit record in the same
// transaction as the row it describes.
package service

import (
	"context"
	"errors"
	"strings"

	"taskboard/internal/audit"
	"taskboard/internal/identity"
	identitystore "taskboard/internal/identity/store"
	"taskboard/internal/platform/metrics"
	"taskboard/internal/platform/middleware"
	projectstore "taskboard/internal/project/store"
	"taskboard/internal/task"
	"taskboard/internal/task/store"
	dErrors "taskboard/pkg/domain-errors"
	"taskboard/pkg/platform/sentinel"
)

// AccessGuard authorizes a user to act within a project.
type AccessGuard interface {
	CanAccess(ctx context.Context, userID, projectID int64) (bool, error)
}

// TxRunner executes fn inside a transaction carried through the context, so
// the task write and its audit record commit or roll back together.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service orchestrates task mutations and their audit trail.
type Service struct {
	tasks    store.Store
	projects projectstore.ProjectStore
	members  projectstore.MemberStore
	roles    identitystore.RoleStore
	users    identitystore.UserStore
	guard    AccessGuard
	recorder *audit.Recorder
	tx       TxRunner
	metrics  *metrics.Metrics
}

func New(
	tasks store.Store,
	projects projectstore.ProjectStore,
	members projectstore.MemberStore,
	roles identitystore.RoleStore,
	users identitystore.UserStore,
	guard AccessGuard,
	recorder *audit.Recorder,
	tx TxRunner,
	m *metrics.Metrics,
) *Service {
	return &Service{
		tasks:    tasks,
		projects: projects,
		members:  members,
		roles:    roles,
		users:    users,
		guard:    guard,
		recorder: recorder,
		tx:       tx,
		metrics:  m,
	}
}

// List returns tasks visible to the caller, newest first. With a project
// filter the caller must be able to access that project; without one,
// non-admins see only tasks in projects they created or belong to.
func (s *Service) List(ctx context.Context, actorID int64, projectID *int64) ([]task.Response, error) {
	var q store.ListQuery
	switch {
	case projectID != nil:
		allowed, err := s.guard.CanAccess(ctx, actorID, *projectID)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, dErrors.New(dErrors.CodeForbidden, "not authorized to access this project")
		}
		q.ProjectID = projectID
	default:
		admin, err := s.isAdmin(ctx, actorID)
		if err != nil {
			return nil, err
		}
		if !admin {
			ids, err := s.accessibleProjectIDs(ctx, actorID)
			if err != nil {
				return nil, err
			}
			q.ProjectIDs = ids
		}
	}

	tasks, err := s.tasks.List(ctx, q)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list tasks")
	}
	return s.enrich(ctx, tasks)
}

// Get returns a single task with its profiles.
func (s *Service) Get(ctx context.Context, actorID, taskID int64) (task.Response, error) {
	t, err := s.findTask(ctx, taskID)
	if err != nil {
		return task.Response{}, err
	}
	if err := s.requireAccess(ctx, actorID, t.ProjectID, "not authorized to access this task"); err != nil {
		return task.Response{}, err
	}
	return s.enrichOne(ctx, t)
}

// Create stores a new task and its insert audit record atomically.
func (s *Service) Create(ctx context.Context, actorID int64, req task.CreateRequest) (task.Response, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return task.Response{}, dErrors.New(dErrors.CodeBadRequest, "title is required")
	}
	if req.ProjectID <= 0 {
		return task.Response{}, dErrors.New(dErrors.CodeBadRequest, "project_id is required")
	}
	if req.Status == "" {
		req.Status = task.StatusToDo
	}
	if !req.Status.Valid() {
		return task.Response{}, dErrors.New(dErrors.CodeValidation, "unknown status")
	}
	if req.Priority == "" {
		req.Priority = task.PriorityMedium
	}
	if !req.Priority.Valid() {
		return task.Response{}, dErrors.New(dErrors.CodeValidation, "unknown priority")
	}

	if err := s.requireAccess(ctx, actorID, req.ProjectID, "not authorized to create tasks in this project"); err != nil {
		return task.Response{}, err
	}

	taken, err := s.tasks.TitleExists(ctx, req.Title, 0)
	if err != nil {
		return task.Response{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check title")
	}
	if taken {
		return task.Response{}, dErrors.New(dErrors.CodeBadRequest, "task title must be unique")
	}

	now := middleware.Now(ctx)
	t := task.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		AssignedTo:  req.AssignedTo,
		ProjectID:   req.ProjectID,
		CreatedBy:   &actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.tasks.Create(ctx, &t); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create task")
		}
		changes := audit.Changes{}
		changes.Initial("title", audit.String(t.Title))
		changes.Initial("status", audit.String(string(t.Status)))
		return s.recorder.Record(ctx, audit.EntityTableTasks, t.ID, audit.OperationInsert, changes, &actorID)
	})
	if err != nil {
		return task.Response{}, err
	}
	s.metrics.IncrementTasksCreated()
	return s.enrichOne(ctx, t)
}

// Update applies the provided fields. Only fields whose value actually
// changed enter the audit document; when nothing changed, no record is
// written and the row is left untouched.
func (s *Service) Update(ctx context.Context, actorID, taskID int64, req task.UpdateRequest) (task.Response, error) {
	t, err := s.findTask(ctx, taskID)
	if err != nil {
		return task.Response{}, err
	}
	if err := s.requireAccess(ctx, actorID, t.ProjectID, "not authorized to update this task"); err != nil {
		return task.Response{}, err
	}

	changes := audit.Changes{}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return task.Response{}, dErrors.New(dErrors.CodeBadRequest, "title must not be empty")
		}
		if title != t.Title {
			taken, err := s.tasks.TitleExists(ctx, title, t.ID)
			if err != nil {
				return task.Response{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check title")
			}
			if taken {
				return task.Response{}, dErrors.New(dErrors.CodeBadRequest, "task title must be unique")
			}
		}
		changes.Update("title", audit.String(t.Title), audit.String(title))
		t.Title = title
	}
	if req.Description != nil {
		changes.Update("description", audit.NullableString(t.Description), audit.String(*req.Description))
		t.Description = req.Description
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return task.Response{}, dErrors.New(dErrors.CodeValidation, "unknown status")
		}
		changes.Update("status", audit.String(string(t.Status)), audit.String(string(*req.Status)))
		t.Status = *req.Status
	}
	if req.Priority != nil {
		if !req.Priority.Valid() {
			return task.Response{}, dErrors.New(dErrors.CodeValidation, "unknown priority")
		}
		changes.Update("priority", audit.String(string(t.Priority)), audit.String(string(*req.Priority)))
		t.Priority = *req.Priority
	}
	if req.DueDate != nil {
		changes.Update("due_date", dateValue(t.DueDate), audit.Date(req.DueDate.Time))
		t.DueDate = req.DueDate
	}
	if req.AssignedTo != nil {
		changes.Update(audit.FieldAssignedTo, audit.NullableInt(t.AssignedTo), audit.Int(*req.AssignedTo))
		t.AssignedTo = req.AssignedTo
	}

	if len(changes) == 0 {
		return s.enrichOne(ctx, t)
	}

	t.UpdatedBy = &actorID
	t.UpdatedAt = middleware.Now(ctx)

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.tasks.Update(ctx, t); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "task not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update task")
		}
		return s.recorder.Record(ctx, audit.EntityTableTasks, t.ID, audit.OperationUpdate, changes, &actorID)
	})
	if err != nil {
		return task.Response{}, err
	}
	return s.enrichOne(ctx, t)
}

// Delete soft-deletes a task and writes the delete marker record atomically.
// Admin only.
func (s *Service) Delete(ctx context.Context, actorID, taskID int64) error {
	admin, err := s.isAdmin(ctx, actorID)
	if err != nil {
		return err
	}
	if !admin {
		return dErrors.New(dErrors.CodeForbidden, "admin access required")
	}

	t, err := s.findTask(ctx, taskID)
	if err != nil {
		return err
	}

	t.IsDeleted = true
	t.UpdatedBy = &actorID
	t.UpdatedAt = middleware.Now(ctx)

	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.tasks.Update(ctx, t); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "task not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete task")
		}
		return s.recorder.Record(ctx, audit.EntityTableTasks, t.ID, audit.OperationDelete, audit.DeleteMarker(), &actorID)
	})
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

func (s *Service) requireAccess(ctx context.Context, userID, projectID int64, denial string) error {
	allowed, err := s.guard.CanAccess(ctx, userID, projectID)
	if err != nil {
		return err
	}
	if !allowed {
		return dErrors.New(dErrors.CodeForbidden, denial)
	}
	return nil
}

func (s *Service) isAdmin(ctx context.Context, userID int64) (bool, error) {
	role, err := s.roles.RoleOf(ctx, userID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve role")
	}
	return role == identity.RoleAdmin, nil
}

// accessibleProjectIDs unions the projects the user created with the ones
// they are a member of. The result is non-nil so an isolated user sees an
// empty listing, not everything.
func (s *Service) accessibleProjectIDs(ctx context.Context, userID int64) ([]int64, error) {
	created, err := s.projects.IDsCreatedBy(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list created projects")
	}
	member, err := s.members.ProjectIDsFor(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list memberships")
	}

	seen := make(map[int64]struct{}, len(created)+len(member))
	ids := make([]int64, 0, len(created)+len(member))
	for _, id := range append(created, member...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// enrich resolves assignee and creator profiles for a page of tasks with a
// single batch lookup.
func (s *Service) enrich(ctx context.Context, tasks []task.Task) ([]task.Response, error) {
	ids := make([]int64, 0, 2*len(tasks))
	for _, t := range tasks {
		if t.AssignedTo != nil {
			ids = append(ids, *t.AssignedTo)
		}
		if t.CreatedBy != nil {
			ids = append(ids, *t.CreatedBy)
		}
	}
	profiles, err := s.users.FindProfiles(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve profiles")
	}

	responses := make([]task.Response, 0, len(tasks))
	for _, t := range tasks {
		responses = append(responses, task.Response{
			Task:     t,
			Assignee: lookupProfile(profiles, t.AssignedTo),
			Creator:  lookupProfile(profiles, t.CreatedBy),
		})
	}
	return responses, nil
}

func (s *Service) enrichOne(ctx context.Context, t task.Task) (task.Response, error) {
	responses, err := s.enrich(ctx, []task.Task{t})
	if err != nil {
		return task.Response{}, err
	}
	return responses[0], nil
}

func lookupProfile(profiles map[int64]identity.Profile, id *int64) *identity.Profile {
	if id == nil {
		return nil
	}
	if p, ok := profiles[*id]; ok {
		return &p
	}
	return nil
}

func dateValue(d *task.Date) audit.Value {
	if d == nil {
		return audit.Null()
	}
	return audit.Date(d.Time)
}
