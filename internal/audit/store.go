package audit

import "context"

// Query narrows and bounds a history listing. Limit is applied after
// ordering; callers are expected to have clamped it already.
type Query struct {
	// EntityTable and EntityID restrict the listing to one entity's history
	// when EntityID is set.
	EntityTable string
	EntityID    *int64
	Limit       int
}

// Store persists audit records. There are deliberately no update or delete
// methods: records are immutable once appended.
type Store interface {
	// Append writes one record and assigns its ID. It joins the transaction
	// in ctx when one is present.
	Append(ctx context.Context, record *Record) error
	// List returns records ordered by occurrence time descending, ties
	// broken by descending ID.
	List(ctx context.Context, q Query) ([]Record, error)
}
