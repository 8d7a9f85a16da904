package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/audit"
	auditstore "taskboard/internal/audit/store"
	"taskboard/internal/platform/middleware"
	dErrors "taskboard/pkg/domain-errors"
)

func actor(id int64) *int64 { return &id }

func TestRecord_Insert(t *testing.T) {
	st := auditstore.NewInMemory()
	recorder := audit.NewRecorder(st, nil)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ctx := middleware.WithTime(context.Background(), now)

	changes := audit.Changes{}
	changes.Initial("title", audit.String("ship v2"))
	changes.Initial("status", audit.String("to_do"))
	require.NoError(t, recorder.Record(ctx, audit.EntityTableTasks, 1, audit.OperationInsert, changes, actor(9)))

	records, err := st.List(ctx, auditstore.Query{Limit: 10})
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, audit.EntityTableTasks, rec.EntityTable)
	assert.Equal(t, int64(1), rec.EntityID)
	assert.Equal(t, audit.OperationInsert, rec.Operation)
	assert.Equal(t, now, rec.OccurredAt)
	require.NotNil(t, rec.ActorID)
	assert.Equal(t, int64(9), *rec.ActorID)
	assert.Equal(t, "ship v2", rec.Changes["title"].New.Str)
}

func TestRecord_RejectsUnrecognizedOperation(t *testing.T) {
	recorder := audit.NewRecorder(auditstore.NewInMemory(), nil)

	err := recorder.Record(context.Background(), audit.EntityTableTasks, 1, audit.Operation("merge"), audit.Changes{}, nil)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestRecord_RejectsEmptyUpdate(t *testing.T) {
	st := auditstore.NewInMemory()
	recorder := audit.NewRecorder(st, nil)

	err := recorder.Record(context.Background(), audit.EntityTableTasks, 1, audit.OperationUpdate, audit.Changes{}, actor(1))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	records, err := st.List(context.Background(), auditstore.Query{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, records, "rejected input must not reach the store")
}

func TestRecord_RejectsNilChanges(t *testing.T) {
	recorder := audit.NewRecorder(auditstore.NewInMemory(), nil)

	err := recorder.Record(context.Background(), audit.EntityTableTasks, 1, audit.OperationInsert, nil, nil)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestRecord_RejectsMissingEntity(t *testing.T) {
	recorder := audit.NewRecorder(auditstore.NewInMemory(), nil)

	err := recorder.Record(context.Background(), "", 1, audit.OperationInsert, audit.Changes{}, nil)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	err = recorder.Record(context.Background(), audit.EntityTableTasks, 0, audit.OperationInsert, audit.Changes{}, nil)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestRecord_NilActorAllowed(t *testing.T) {
	st := auditstore.NewInMemory()
	recorder := audit.NewRecorder(st, nil)

	require.NoError(t, recorder.Record(context.Background(), audit.EntityTableTasks, 3, audit.OperationDelete, audit.DeleteMarker(), nil))

	records, err := st.List(context.Background(), auditstore.Query{Limit: 10})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].ActorID)
}
