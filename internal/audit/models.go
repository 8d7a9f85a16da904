// Package audit records field-level diffs of entity mutations and
// reconstructs them later as enriched history entries. Records are written in
// the same transaction as the mutation they describe and are never updated or
// deleted afterwards.
package audit

import (
	"encoding/json"
	"fmt"
	"time"
)

// Operation is the kind of mutation an audit record describes.
type Operation string

const (
	OperationInsert Operation = "insert"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Valid reports whether the operation is a recognized kind.
func (op Operation) Valid() bool {
	switch op {
	case OperationInsert, OperationUpdate, OperationDelete:
		return true
	}
	return false
}

// EntityTableTasks is the only entity table currently tracked.
const EntityTableTasks = "tasks"

// FieldAssignedTo is the one field whose old/new values are user IDs and get
// expanded to profiles at read time.
const FieldAssignedTo = "assigned_to"

// ValueKind enumerates the closed set of primitive kinds a diff value can
// take. The zero kind means "absent" and is distinct from an explicit null.
type ValueKind string

const (
	KindNull   ValueKind = "null"
	KindString ValueKind = "string"
	KindInt    ValueKind = "int"
	KindBool   ValueKind = "bool"
	KindDate   ValueKind = "date"
)

const dateLayout = "2006-01-02"

// Value is a tagged union over the primitive kinds allowed in a changed-fields
// document. It marshals as the bare JSON primitive, so persisted documents
// stay readable: null, "to_do", 42, true, "2026-04-01".
type Value struct {
	Kind ValueKind
	Str  string
	Int  int64
	Bool bool
	Date time.Time
}

// Null returns the explicit null value (field present, value absent).
func Null() Value { return Value{Kind: KindNull} }

// String returns a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Int returns an integer value.
func Int(n int64) Value { return Value{Kind: KindInt, Int: n} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Date returns a calendar-date value; the time component is dropped.
func Date(t time.Time) Value {
	return Value{Kind: KindDate, Date: t.Truncate(24 * time.Hour)}
}

// NullableInt maps a nullable foreign key to an int or null value.
func NullableInt(p *int64) Value {
	if p == nil {
		return Null()
	}
	return Int(*p)
}

// NullableString maps a nullable text column to a string or null value.
func NullableString(p *string) Value {
	if p == nil {
		return Null()
	}
	return String(*p)
}

// NullableDate maps a nullable date column to a date or null value.
func NullableDate(p *time.Time) Value {
	if p == nil {
		return Null()
	}
	return Date(*p)
}

// IsZero reports whether the value is absent (unset, not null). Absent values
// are omitted from JSON via omitzero.
func (v Value) IsZero() bool { return v.Kind == "" }

// IsNull reports whether the value is an explicit null.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Equal reports kind-and-content equality.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindString:
		return v.Str == other.Str
	case KindInt:
		return v.Int == other.Int
	case KindBool:
		return v.Bool == other.Bool
	case KindDate:
		return v.Date.Equal(other.Date)
	default:
		return true
	}
}

// UserID returns the value as a user identifier, or nil for null/absent
// values. Used when expanding assignee diffs.
func (v Value) UserID() *int64 {
	if v.Kind != KindInt {
		return nil
	}
	id := v.Int
	return &id
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindInt:
		return json.Marshal(v.Int)
	case KindBool:
		return json.Marshal(v.Bool)
	case KindDate:
		return json.Marshal(v.Date.Format(dateLayout))
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case nil:
		*v = Null()
	case string:
		if d, err := time.Parse(dateLayout, t); err == nil {
			*v = Date(d)
		} else {
			*v = String(t)
		}
	case float64:
		*v = Int(int64(t))
	case bool:
		*v = Bool(t)
	default:
		return fmt.Errorf("unsupported value kind %T", raw)
	}
	return nil
}

// FieldChange is one entry of a changed-fields document. Updates carry both
// sides; inserts carry only the initial value and marshal as the bare value
// so insert documents stay flat, matching the persisted history produced by
// earlier versions of the schema.
type FieldChange struct {
	Old Value
	New Value
}

func (fc FieldChange) MarshalJSON() ([]byte, error) {
	if fc.Old.IsZero() {
		return fc.New.MarshalJSON()
	}
	type pair struct {
		Old Value `json:"old"`
		New Value `json:"new"`
	}
	return json.Marshal(pair{Old: fc.Old, New: fc.New})
}

func (fc *FieldChange) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err == nil {
		_, hasOld := probe["old"]
		_, hasNew := probe["new"]
		if hasOld || hasNew {
			var pair struct {
				Old Value `json:"old"`
				New Value `json:"new"`
			}
			if err := json.Unmarshal(data, &pair); err != nil {
				return err
			}
			fc.Old, fc.New = pair.Old, pair.New
			return nil
		}
	}
	var v Value
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*fc = FieldChange{New: v}
	return nil
}

// Changes maps field names to their diffs. Ordering is irrelevant.
type Changes map[string]FieldChange

// Update records an old/new pair for a field, but only when the two sides
// differ; unchanged fields never enter the document.
func (c Changes) Update(field string, oldValue, newValue Value) {
	if oldValue.Equal(newValue) {
		return
	}
	c[field] = FieldChange{Old: oldValue, New: newValue}
}

// Initial records the initial value of a field on insert.
func (c Changes) Initial(field string, value Value) {
	c[field] = FieldChange{New: value}
}

// DeleteMarker is the changed-fields document written for delete operations.
func DeleteMarker() Changes {
	return Changes{"deleted": {New: Bool(true)}}
}

// Record is one immutable audit row.
type Record struct {
	ID          int64
	EntityTable string
	EntityID    int64
	Operation   Operation
	Changes     Changes
	OccurredAt  time.Time
	// ActorID is a weak reference: the user may be deleted after the fact,
	// in which case enrichment yields a null profile.
	ActorID *int64
}
