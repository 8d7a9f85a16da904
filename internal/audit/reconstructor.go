package audit

import (
	"context"
	"time"

	"taskboard/internal/identity"
	dErrors "taskboard/pkg/domain-errors"
)

const (
	// DefaultListLimit applies when callers do not specify a page size.
	DefaultListLimit = 100
	// MaxListLimit is the hard ceiling; larger requests are clamped, not
	// rejected.
	MaxListLimit = 1000
)

// ProfileResolver resolves user IDs to profile summaries in one batch. IDs
// with no matching user are simply absent from the result, never an error.
type ProfileResolver interface {
	FindProfiles(ctx context.Context, ids []int64) (map[int64]identity.Profile, error)
}

// Filter narrows a history listing.
type Filter struct {
	// TaskID restricts the listing to one task's history.
	TaskID *int64
	// Limit bounds the number of entries; zero means DefaultListLimit.
	Limit int
}

// Entry is one reconstructed audit record, enriched with profile summaries
// for the actor and, when the assignee changed, both sides of that change.
type Entry struct {
	ID          int64             `json:"id"`
	EntityTable string            `json:"table_name"`
	EntityID    int64             `json:"record_id"`
	Operation   Operation         `json:"operation"`
	Changes     Changes           `json:"changed_data"`
	OccurredAt  time.Time         `json:"changed_at"`
	ActorID     *int64            `json:"changed_by"`
	Actor       *identity.Profile `json:"user"`
	OldAssignee *identity.Profile `json:"old_assignee"`
	NewAssignee *identity.Profile `json:"new_assignee"`
}

// Reconstructor rehydrates persisted audit records into API-facing entries.
// It is read-only and safe for concurrent use.
type Reconstructor struct {
	store    Store
	profiles ProfileResolver
}

func NewReconstructor(st Store, profiles ProfileResolver) *Reconstructor {
	return &Reconstructor{store: st, profiles: profiles}
}

// List returns enriched audit entries, most recent first (occurrence time
// descending, insertion order breaking ties). Profiles are resolved in a
// single batch lookup per page rather than one query per record; a profile
// that no longer exists renders as null rather than failing the listing.
func (r *Reconstructor) List(ctx context.Context, filter Filter) ([]Entry, error) {
	if filter.TaskID != nil && *filter.TaskID <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "task id must be positive")
	}
	if filter.Limit < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "limit must not be negative")
	}

	limit := filter.Limit
	if limit == 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	q := Query{Limit: limit}
	if filter.TaskID != nil {
		q.EntityTable = EntityTableTasks
		q.EntityID = filter.TaskID
	}

	records, err := r.store.List(ctx, q)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit records")
	}

	profiles, err := r.resolveProfiles(ctx, records)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		entry := Entry{
			ID:          rec.ID,
			EntityTable: rec.EntityTable,
			EntityID:    rec.EntityID,
			Operation:   rec.Operation,
			Changes:     rec.Changes,
			OccurredAt:  rec.OccurredAt,
			ActorID:     rec.ActorID,
		}
		if rec.ActorID != nil {
			entry.Actor = lookupProfile(profiles, *rec.ActorID)
		}
		if change, ok := rec.Changes[FieldAssignedTo]; ok {
			if oldID := change.Old.UserID(); oldID != nil {
				entry.OldAssignee = lookupProfile(profiles, *oldID)
			}
			if newID := change.New.UserID(); newID != nil {
				entry.NewAssignee = lookupProfile(profiles, *newID)
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// resolveProfiles collects every user ID referenced by the page and fetches
// their profiles with one store call.
func (r *Reconstructor) resolveProfiles(ctx context.Context, records []Record) (map[int64]identity.Profile, error) {
	seen := make(map[int64]struct{})
	var ids []int64
	add := func(id *int64) {
		if id == nil {
			return
		}
		if _, ok := seen[*id]; ok {
			return
		}
		seen[*id] = struct{}{}
		ids = append(ids, *id)
	}

	for _, rec := range records {
		add(rec.ActorID)
		if change, ok := rec.Changes[FieldAssignedTo]; ok {
			add(change.Old.UserID())
			add(change.New.UserID())
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	profiles, err := r.profiles.FindProfiles(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve profiles")
	}
	return profiles, nil
}

func lookupProfile(profiles map[int64]identity.Profile, id int64) *identity.Profile {
	profile, ok := profiles[id]
	if !ok {
		return nil
	}
	return &profile
}
