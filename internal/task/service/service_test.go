package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/audit"
	auditstore "taskboard/internal/audit/store"
	"taskboard/internal/identity"
	identitystore "taskboard/internal/identity/store"
	"taskboard/internal/platform/middleware"
	"taskboard/internal/project"
	"taskboard/internal/project/access"
	projectstore "taskboard/internal/project/store"
	"taskboard/internal/task"
	taskservice "taskboard/internal/task/service"
	taskstore "taskboard/internal/task/store"
	dErrors "taskboard/pkg/domain-errors"
	txcontext "taskboard/pkg/platform/tx"
)

type fixture struct {
	svc      *taskservice.Service
	users    *identitystore.InMemoryStore
	projects *projectstore.InMemoryStore
	tasks    *taskstore.InMemoryStore
	trail    *auditstore.InMemoryStore
}

func newFixture() *fixture {
	users := identitystore.NewInMemory()
	projects := projectstore.NewInMemory()
	tasks := taskstore.NewInMemory()
	trail := auditstore.NewInMemory()

	guard := access.NewGuard(users, projects, projects)
	recorder := audit.NewRecorder(trail, nil)
	svc := taskservice.New(tasks, projects, projects, users, users, guard, recorder, txcontext.PassRunner{}, nil)

	return &fixture{svc: svc, users: users, projects: projects, tasks: tasks, trail: trail}
}

func (f *fixture) addUser(t *testing.T, username string) int64 {
	t.Helper()
	u := &identity.User{Username: username, Email: username + "@example.com", CreatedAt: time.Now()}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u.ID
}

func (f *fixture) makeAdmin(t *testing.T, userID int64) {
	t.Helper()
	role, err := f.users.FindByName(context.Background(), identity.RoleAdmin)
	require.NoError(t, err)
	require.NoError(t, f.users.Assign(context.Background(), userID, role.ID))
}

func (f *fixture) addProject(t *testing.T, createdBy int64) int64 {
	t.Helper()
	p := &project.Project{Title: "board", CreatedBy: &createdBy, CreatedAt: time.Now()}
	require.NoError(t, f.projects.Create(context.Background(), p))
	return p.ID
}

func (f *fixture) auditRecords(t *testing.T) []audit.Record {
	t.Helper()
	records, err := f.trail.List(context.Background(), auditstore.Query{Limit: 100})
	require.NoError(t, err)
	return records
}

func ctxAt(t time.Time) context.Context {
	return middleware.WithTime(context.Background(), t)
}

func strPtr(s string) *string { return &s }
func statusPtr(s task.Status) *task.Status { return &s }

func TestCreate_WritesInsertAuditRecord(t *testing.T) {
	f := newFixture()
	owner := f.addUser(t, "owner")
	projectID := f.addProject(t, owner)

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	created, err := f.svc.Create(ctxAt(now), owner, task.CreateRequest{
		Title:     "write release notes",
		ProjectID: projectID,
	})
	require.NoError(t, err)
	assert.Equal(t, task.StatusToDo, created.Status)
	assert.Equal(t, task.PriorityMedium, created.Priority)
	require.NotNil(t, created.Creator)
	assert.Equal(t, "owner", created.Creator.Username)

	records := f.auditRecords(t)
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, audit.OperationInsert, rec.Operation)
	assert.Equal(t, created.ID, rec.EntityID)
	assert.Equal(t, now, rec.OccurredAt)
	require.NotNil(t, rec.ActorID)
	assert.Equal(t, owner, *rec.ActorID)
	assert.Equal(t, "write release notes", rec.Changes["title"].New.Str)
	assert.Equal(t, "to_do", rec.Changes["status"].New.Str)
}

func TestCreate_DeniedLeavesNoTaskAndNoAudit(t *testing.T) {
	f := newFixture()
	owner := f.addUser(t, "owner")
	outsider := f.addUser(t, "outsider")
	projectID := f.addProject(t, owner)

	_, err := f.svc.Create(context.Background(), outsider, task.CreateRequest{
		Title:     "sneaky task",
		ProjectID: projectID,
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	tasks, err := f.tasks.List(context.Background(), taskstore.ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, tasks, "denied mutation must not create a row")
	assert.Empty(t, f.auditRecords(t), "denied mutation must not write audit")
}

func TestCreate_DuplicateTitleRejected(t *testing.T) {
	f := newFixture()
	owner := f.addUser(t, "owner")
	projectID := f.addProject(t, owner)

	_, err := f.svc.Create(context.Background(), owner, task.CreateRequest{Title: "unique", ProjectID: projectID})
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), owner, task.CreateRequest{Title: "unique", ProjectID: projectID})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestUpdate_StatusChangeRecordsOldAndNew(t *testing.T) {
	f := newFixture()
	owner := f.addUser(t, "owner")
	projectID := f.addProject(t, owner)

	created, err := f.svc.Create(context.Background(), owner, task.CreateRequest{Title: "t", ProjectID: projectID})
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), owner, created.ID, task.UpdateRequest{
		Status: statusPtr(task.StatusInProgress),
	})
	require.NoError(t, err)

	records := f.auditRecords(t)
	require.Len(t, records, 2)
	rec := records[0]
	assert.Equal(t, audit.OperationUpdate, rec.Operation)
	require.Len(t, rec.Changes, 1, "unchanged fields stay out of the document")
	assert.Equal(t, "to_do", rec.Changes["status"].Old.Str)
	assert.Equal(t, "in_progress", rec.Changes["status"].New.Str)
}

func TestUpdate_NoChangesWritesNoRecord(t *testing.T) {
	f := newFixture()
	owner := f.addUser(t, "owner")
	projectID := f.addProject(t, owner)

	created, err := f.svc.Create(context.Background(), owner, task.CreateRequest{
		Title:       "steady",
		Description: strPtr("same"),
		ProjectID:   projectID,
	})
	require.NoError(t, err)

	// Every field restated with its current value.
	_, err = f.svc.Update(context.Background(), owner, created.ID, task.UpdateRequest{
		Title:       strPtr("steady"),
		Description: strPtr("same"),
		Status:      statusPtr(task.StatusToDo),
	})
	require.NoError(t, err)

	records := f.auditRecords(t)
	assert.Len(t, records, 1, "only the insert record exists after a no-op update")
}

func TestUpdate_AssigneeChangeStoresRawIDs(t *testing.T) {
	f := newFixture()
	owner := f.addUser(t, "owner")
	anna := f.addUser(t, "anna")
	bob := f.addUser(t, "bob")
	projectID := f.addProject(t, owner)

	created, err := f.svc.Create(context.Background(), owner, task.CreateRequest{
		Title: "handoff", ProjectID: projectID, AssignedTo: &anna,
	})
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), owner, created.ID, task.UpdateRequest{AssignedTo: &bob})
	require.NoError(t, err)

	records := f.auditRecords(t)
	require.Len(t, records, 2)
	change := records[0].Changes[audit.FieldAssignedTo]
	assert.Equal(t, anna, change.Old.Int)
	assert.Equal(t, bob, change.New.Int)
}

func TestUpdate_DeniedForOutsider(t *testing.T) {
	f := newFixture()
	owner := f.addUser(t, "owner")
	outsider := f.addUser(t, "outsider")
	projectID := f.addProject(t, owner)

	created, err := f.svc.Create(context.Background(), owner, task.CreateRequest{Title: "t", ProjectID: projectID})
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), outsider, created.ID, task.UpdateRequest{
		Status: statusPtr(task.StatusCompleted),
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	assert.Len(t, f.auditRecords(t), 1)
}

func TestDelete_AdminOnly(t *testing.T) {
	f := newFixture()
	owner := f.addUser(t, "owner")
	admin := f.addUser(t, "admin")
	f.makeAdmin(t, admin)
	projectID := f.addProject(t, owner)

	created, err := f.svc.Create(context.Background(), owner, task.CreateRequest{Title: "t", ProjectID: projectID})
	require.NoError(t, err)

	err = f.svc.Delete(context.Background(), owner, created.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden), "even the creator may not delete")

	require.NoError(t, f.svc.Delete(context.Background(), admin, created.ID))

	_, err = f.svc.Get(context.Background(), admin, created.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound), "soft-deleted tasks are gone from reads")

	records := f.auditRecords(t)
	require.Len(t, records, 2)
	rec := records[0]
	assert.Equal(t, audit.OperationDelete, rec.Operation)
	assert.Equal(t, true, rec.Changes["deleted"].New.Bool)
}

func TestList_NonAdminSeesOnlyAccessibleProjects(t *testing.T) {
	f := newFixture()
	owner := f.addUser(t, "owner")
	member := f.addUser(t, "member")
	stranger := f.addUser(t, "stranger")

	mine := f.addProject(t, owner)
	other := f.addProject(t, stranger)
	require.NoError(t, f.projects.Add(context.Background(), &project.Member{ProjectID: mine, UserID: member, CreatedAt: time.Now()}))

	_, err := f.svc.Create(context.Background(), owner, task.CreateRequest{Title: "visible", ProjectID: mine})
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), stranger, task.CreateRequest{Title: "hidden", ProjectID: other})
	require.NoError(t, err)

	visible, err := f.svc.List(context.Background(), member, nil)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "visible", visible[0].Title)

	admin := f.addUser(t, "root")
	f.makeAdmin(t, admin)
	all, err := f.svc.List(context.Background(), admin, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestList_ProjectFilterRequiresAccess(t *testing.T) {
	f := newFixture()
	owner := f.addUser(t, "owner")
	outsider := f.addUser(t, "outsider")
	projectID := f.addProject(t, owner)

	_, err := f.svc.List(context.Background(), outsider, &projectID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestGet_EnrichesAssigneeProfile(t *testing.T) {
	f := newFixture()
	owner := f.addUser(t, "owner")
	anna := f.addUser(t, "anna")
	projectID := f.addProject(t, owner)

	created, err := f.svc.Create(context.Background(), owner, task.CreateRequest{
		Title: "t", ProjectID: projectID, AssignedTo: &anna,
	})
	require.NoError(t, err)

	got, err := f.svc.Get(context.Background(), owner, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Assignee)
	assert.Equal(t, "anna", got.Assignee.Username)
	require.NotNil(t, got.Creator)
	assert.Equal(t, "owner", got.Creator.Username)
}

func TestUpdate_DueDateDiffUsesDateValues(t *testing.T) {
	f := newFixture()
	owner := f.addUser(t, "owner")
	projectID := f.addProject(t, owner)

	created, err := f.svc.Create(context.Background(), owner, task.CreateRequest{Title: "t", ProjectID: projectID})
	require.NoError(t, err)

	due := task.NewDate(2026, time.April, 1)
	_, err = f.svc.Update(context.Background(), owner, created.ID, task.UpdateRequest{DueDate: &due})
	require.NoError(t, err)

	records := f.auditRecords(t)
	require.Len(t, records, 2)
	change := records[0].Changes["due_date"]
	assert.True(t, change.Old.IsNull())
	assert.Equal(t, audit.KindDate, change.New.Kind)
	assert.Equal(t, "2026-04-01", change.New.Date.Format("2006-01-02"))
}
