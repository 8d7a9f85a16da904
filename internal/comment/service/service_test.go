package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/comment"
	"taskboard/internal/comment/service"
	commentstore "taskboard/internal/comment/store"
	"taskboard/internal/identity"
	identitystore "taskboard/internal/identity/store"
	"taskboard/internal/project"
	"taskboard/internal/project/access"
	projectstore "taskboard/internal/project/store"
	"taskboard/internal/task"
	taskstore "taskboard/internal/task/store"
	dErrors "taskboard/pkg/domain-errors"
)

type fixture struct {
	svc      *service.Service
	users    *identitystore.InMemoryStore
	projects *projectstore.InMemoryStore
	tasks    *taskstore.InMemoryStore
}

func newFixture() *fixture {
	users := identitystore.NewInMemory()
	projects := projectstore.NewInMemory()
	tasks := taskstore.NewInMemory()
	comments := commentstore.NewInMemory()
	guard := access.NewGuard(users, projects, projects)
	return &fixture{
		svc:      service.New(comments, tasks, users, guard),
		users:    users,
		projects: projects,
		tasks:    tasks,
	}
}

func (f *fixture) addUser(t *testing.T, username string) int64 {
	t.Helper()
	u := &identity.User{Username: username, Email: username + "@example.com", CreatedAt: time.Now()}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u.ID
}

func (f *fixture) addTask(t *testing.T, createdBy int64) int64 {
	t.Helper()
	p := &project.Project{Title: "board", CreatedBy: &createdBy, CreatedAt: time.Now()}
	require.NoError(t, f.projects.Create(context.Background(), p))
	tk := &task.Task{Title: "t", Status: task.StatusToDo, Priority: task.PriorityMedium, ProjectID: p.ID, CreatedBy: &createdBy, CreatedAt: time.Now()}
	require.NoError(t, f.tasks.Create(context.Background(), tk))
	return tk.ID
}

func TestCreateAndList(t *testing.T) {
	f := newFixture()
	owner := f.addUser(t, "owner")
	taskID := f.addTask(t, owner)

	first, err := f.svc.Create(context.Background(), owner, taskID, comment.CreateRequest{Content: "  first  "})
	require.NoError(t, err)
	assert.Equal(t, "first", first.Content)
	require.NotNil(t, first.User)
	assert.Equal(t, "owner", first.User.Username)

	_, err = f.svc.Create(context.Background(), owner, taskID, comment.CreateRequest{Content: "second"})
	require.NoError(t, err)

	listed, err := f.svc.ListByTask(context.Background(), taskID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "first", listed[0].Content, "comments read oldest first")
	assert.Equal(t, "second", listed[1].Content)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture()
	owner := f.addUser(t, "owner")
	taskID := f.addTask(t, owner)

	_, err := f.svc.Create(context.Background(), owner, taskID, comment.CreateRequest{Content: "   "})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	_, err = f.svc.Create(context.Background(), owner, 999, comment.CreateRequest{Content: "hello"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestCreate_RequiresProjectAccess(t *testing.T) {
	f := newFixture()
	owner := f.addUser(t, "owner")
	outsider := f.addUser(t, "outsider")
	taskID := f.addTask(t, owner)

	_, err := f.svc.Create(context.Background(), outsider, taskID, comment.CreateRequest{Content: "hello"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestListByTask_UnknownTask(t *testing.T) {
	f := newFixture()
	_, err := f.svc.ListByTask(context.Background(), 42)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestDelete_AuthorOnly(t *testing.T) {
	f := newFixture()
	owner := f.addUser(t, "owner")
	other := f.addUser(t, "other")
	taskID := f.addTask(t, owner)

	created, err := f.svc.Create(context.Background(), owner, taskID, comment.CreateRequest{Content: "mine"})
	require.NoError(t, err)

	err = f.svc.Delete(context.Background(), other, created.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	require.NoError(t, f.svc.Delete(context.Background(), owner, created.ID))

	listed, err := f.svc.ListByTask(context.Background(), taskID)
	require.NoError(t, err)
	assert.Empty(t, listed)

	err = f.svc.Delete(context.Background(), owner, created.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
