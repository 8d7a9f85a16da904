package audit_test

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
	dErrors "taskboard/pkg/domain-errors"
)

type trailFixture struct {
	store    *auditstore.InMemoryStore
	users    *identitystore.InMemoryStore
	recorder *audit.Recorder
	trail    *audit.Reconstructor
}

func newTrailFixture() *trailFixture {
	st := auditstore.NewInMemory()
	users := identitystore.NewInMemory()
	return &trailFixture{
		store:    st,
		users:    users,
		recorder: audit.NewRecorder(st, nil),
		trail:    audit.NewReconstructor(st, users),
	}
}

func (f *trailFixture) addUser(t *testing.T, username string) int64 {
	t.Helper()
	u := &identity.User{Username: username, Email: username + "@example.com", CreatedAt: time.Now()}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u.ID
}

func (f *trailFixture) record(t *testing.T, taskID int64, at time.Time, op audit.Operation, changes audit.Changes, actorID int64) {
	t.Helper()
	ctx := middleware.WithTime(context.Background(), at)
	require.NoError(t, f.recorder.Record(ctx, audit.EntityTableTasks, taskID, op, changes, &actorID))
}

func statusChange(from, to string) audit.Changes {
	changes := audit.Changes{}
	changes.Update("status", audit.String(from), audit.String(to))
	return changes
}

func TestList_OrderedMostRecentFirst(t *testing.T) {
	f := newTrailFixture()
	actor := f.addUser(t, "alice")

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f.record(t, 1, base, audit.OperationInsert, audit.Changes{"title": {New: audit.String("a")}}, actor)
	f.record(t, 1, base.Add(time.Hour), audit.OperationUpdate, statusChange("to_do", "in_progress"), actor)
	f.record(t, 1, base.Add(30*time.Minute), audit.OperationUpdate, statusChange("in_progress", "completed"), actor)

	entries, err := f.trail.List(context.Background(), audit.Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, base.Add(time.Hour), entries[0].OccurredAt)
	assert.Equal(t, base.Add(30*time.Minute), entries[1].OccurredAt)
	assert.Equal(t, base, entries[2].OccurredAt)
}

func TestList_TiesBreakByDescendingID(t *testing.T) {
	f := newTrailFixture()
	actor := f.addUser(t, "alice")

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f.record(t, 1, at, audit.OperationUpdate, statusChange("to_do", "in_progress"), actor)
	f.record(t, 1, at, audit.OperationUpdate, statusChange("in_progress", "under_review"), actor)
	f.record(t, 1, at, audit.OperationUpdate, statusChange("under_review", "completed"), actor)

	entries, err := f.trail.List(context.Background(), audit.Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Greater(t, entries[0].ID, entries[1].ID)
	assert.Greater(t, entries[1].ID, entries[2].ID)
}

func TestList_DefaultLimit(t *testing.T) {
	f := newTrailFixture()
	actor := f.addUser(t, "alice")

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < audit.DefaultListLimit+20; i++ {
		f.record(t, 1, base.Add(time.Duration(i)*time.Minute), audit.OperationUpdate, statusChange("to_do", "in_progress"), actor)
	}

	entries, err := f.trail.List(context.Background(), audit.Filter{})
	require.NoError(t, err)
	assert.Len(t, entries, audit.DefaultListLimit)
}

func TestList_LimitAboveCeilingClamped(t *testing.T) {
	f := newTrailFixture()
	actor := f.addUser(t, "alice")

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < audit.MaxListLimit+50; i++ {
		f.record(t, 1, base.Add(time.Duration(i)*time.Minute), audit.OperationUpdate, statusChange("to_do", "in_progress"), actor)
	}

	clamped, err := f.trail.List(context.Background(), audit.Filter{Limit: audit.MaxListLimit + 500})
	require.NoError(t, err)
	atCeiling, err := f.trail.List(context.Background(), audit.Filter{Limit: audit.MaxListLimit})
	require.NoError(t, err)

	assert.Len(t, clamped, audit.MaxListLimit)
	assert.Equal(t, atCeiling, clamped, "limit above the ceiling behaves exactly like the ceiling")
}

func TestList_TaskFilter(t *testing.T) {
	f := newTrailFixture()
	actor := f.addUser(t, "alice")

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f.record(t, 1, at, audit.OperationUpdate, statusChange("to_do", "in_progress"), actor)
	f.record(t, 2, at.Add(time.Minute), audit.OperationUpdate, statusChange("to_do", "completed"), actor)

	taskID := int64(2)
	entries, err := f.trail.List(context.Background(), audit.Filter{TaskID: &taskID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(2), entries[0].EntityID)
}

func TestList_RejectsMalformedFilter(t *testing.T) {
	f := newTrailFixture()

	bad := int64(0)
	_, err := f.trail.List(context.Background(), audit.Filter{TaskID: &bad})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = f.trail.List(context.Background(), audit.Filter{Limit: -1})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestList_ActorEnrichment(t *testing.T) {
	f := newTrailFixture()
	actor := f.addUser(t, "alice")

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f.record(t, 1, at, audit.OperationUpdate, statusChange("to_do", "in_progress"), actor)

	entries, err := f.trail.List(context.Background(), audit.Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Actor)
	assert.Equal(t, "alice", entries[0].Actor.Username)
	assert.Equal(t, "alice", entries[0].Actor.FullName)
}

func TestList_MissingActorYieldsNullProfile(t *testing.T) {
	f := newTrailFixture()
	actor := f.addUser(t, "ghost")

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f.record(t, 1, at, audit.OperationUpdate, statusChange("to_do", "in_progress"), actor)
	require.NoError(t, f.users.Delete(context.Background(), actor))

	entries, err := f.trail.List(context.Background(), audit.Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].ActorID, "the raw actor id survives on the record")
	assert.Nil(t, entries[0].Actor, "a missing profile is a null, not an error")
}

func TestList_AssigneeEnrichment_DeletedNewAssignee(t *testing.T) {
	f := newTrailFixture()
	actor := f.addUser(t, "alice")
	userA := f.addUser(t, "anna")
	userB := f.addUser(t, "bob")

	changes := audit.Changes{}
	changes.Update(audit.FieldAssignedTo, audit.Int(userA), audit.Int(userB))
	f.record(t, 1, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), audit.OperationUpdate, changes, actor)

	require.NoError(t, f.users.Delete(context.Background(), userB))

	entries, err := f.trail.List(context.Background(), audit.Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NotNil(t, entries[0].OldAssignee)
	assert.Equal(t, "anna", entries[0].OldAssignee.Username)
	assert.Nil(t, entries[0].NewAssignee, "deleted assignee renders as null")
}

func TestList_AssigneeNullSides(t *testing.T) {
	f := newTrailFixture()
	actor := f.addUser(t, "alice")
	userB := f.addUser(t, "bob")

	changes := audit.Changes{}
	changes.Update(audit.FieldAssignedTo, audit.Null(), audit.Int(userB))
	f.record(t, 1, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), audit.OperationUpdate, changes, actor)

	entries, err := f.trail.List(context.Background(), audit.Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].OldAssignee)
	require.NotNil(t, entries[0].NewAssignee)
	assert.Equal(t, "bob", entries[0].NewAssignee.Username)
}

func TestList_RepeatedCallsDoNotMutateRecords(t *testing.T) {
	f := newTrailFixture()
	actor := f.addUser(t, "alice")

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f.record(t, 1, at, audit.OperationUpdate, statusChange("to_do", "in_progress"), actor)

	first, err := f.trail.List(context.Background(), audit.Filter{})
	require.NoError(t, err)
	first[0].Changes["status"] = audit.FieldChange{New: audit.String("tampered")}

	second, err := f.trail.List(context.Background(), audit.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "in_progress", second[0].Changes["status"].New.Str)
}
