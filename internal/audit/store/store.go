package store

import (
	"taskboard/internal/audit"
)

// Query narrows and bounds a history listing. Limit is applied after
// ordering; callers are expected to have clamped it already.
type Query = audit.Query

// Store persists audit records. There are deliberately no update or delete
// methods: records are immutable once appended.
type Store = audit.Store
