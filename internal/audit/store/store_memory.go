package store

import (
	"context"
	"sort"
	"sync"

	"taskboard/internal/audit"
)

// InMemoryStore keeps audit records in process memory. Used by unit tests and
// local development; it mirrors the ordering semantics of the postgres store.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []audit.Record
	nextID  int64
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{nextID: 1}
}

func (s *InMemoryStore) Append(_ context.Context, record *audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.ID = s.nextID
	s.nextID++
	s.records = append(s.records, cloneRecord(*record))
	return nil
}

func (s *InMemoryStore) List(_ context.Context, q Query) ([]audit.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []audit.Record
	for _, rec := range s.records {
		if q.EntityID != nil && (rec.EntityTable != q.EntityTable || rec.EntityID != *q.EntityID) {
			continue
		}
		out = append(out, cloneRecord(rec))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.After(out[j].OccurredAt)
		}
		return out[i].ID > out[j].ID
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// cloneRecord deep-copies a record so callers can never mutate stored state.
func cloneRecord(rec audit.Record) audit.Record {
	out := rec
	if rec.ActorID != nil {
		actorID := *rec.ActorID
		out.ActorID = &actorID
	}
	out.Changes = make(audit.Changes, len(rec.Changes))
	for field, change := range rec.Changes {
		out.Changes[field] = change
	}
	return out
}
