package audit

import (
	"context"

	"taskboard/internal/platform/metrics"
	"taskboard/internal/platform/middleware"
	dErrors "taskboard/pkg/domain-errors"
)

// Recorder writes immutable audit records. Callers invoke Record inside the
// same transaction as the entity mutation, so a failed mutation never leaves
// a partial audit trail behind.
type Recorder struct {
	store   Store
	metrics *metrics.Metrics
}

func NewRecorder(st Store, m *metrics.Metrics) *Recorder {
	return &Recorder{store: st, metrics: m}
}

// Record validates and appends one audit record. Input is rejected before any
// store access. Updates must change at least one field; a no-op update is the
// caller's signal to not call Record at all.
func (r *Recorder) Record(ctx context.Context, entityTable string, entityID int64, op Operation, changes Changes, actorID *int64) error {
	if entityTable == "" {
		return dErrors.New(dErrors.CodeValidation, "entity table is required")
	}
	if entityID <= 0 {
		return dErrors.New(dErrors.CodeValidation, "entity id is required")
	}
	if !op.Valid() {
		return dErrors.New(dErrors.CodeValidation, "unrecognized operation kind")
	}
	if changes == nil {
		return dErrors.New(dErrors.CodeValidation, "changed fields must be a mapping")
	}
	if op == OperationUpdate && len(changes) == 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "update audit record must change at least one field")
	}

	record := &Record{
		EntityTable: entityTable,
		EntityID:    entityID,
		Operation:   op,
		Changes:     changes,
		OccurredAt:  middleware.Now(ctx),
		ActorID:     actorID,
	}
	if err := r.store.Append(ctx, record); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write audit record")
	}

	r.metrics.IncrementAuditRecords(string(op))
	return nil
}
