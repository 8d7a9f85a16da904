package audit

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangesUpdate_SkipsEqualValues(t *testing.T) {
	changes := Changes{}
	changes.Update("status", String("to_do"), String("to_do"))
	changes.Update("priority", String("low"), String("high"))

	assert.Len(t, changes, 1)
	assert.NotContains(t, changes, "status")
	assert.Equal(t, FieldChange{Old: String("low"), New: String("high")}, changes["priority"])
}

func TestChangesUpdate_NullToValue(t *testing.T) {
	changes := Changes{}
	changes.Update("assigned_to", Null(), Int(7))

	require.Contains(t, changes, "assigned_to")
	assert.True(t, changes["assigned_to"].Old.IsNull())
	assert.Equal(t, int64(7), changes["assigned_to"].New.Int)
}

func TestValueEqual_DifferentKinds(t *testing.T) {
	assert.False(t, String("7").Equal(Int(7)))
	assert.False(t, Null().Equal(Bool(false)))
	assert.True(t, Null().Equal(Null()))
	assert.True(t, Date(time.Date(2026, 4, 1, 15, 0, 0, 0, time.UTC)).
		Equal(Date(time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC))),
		"same calendar day compares equal regardless of time of day")
}

func TestNullableConstructors(t *testing.T) {
	assert.True(t, NullableInt(nil).IsNull())
	assert.True(t, NullableString(nil).IsNull())
	assert.True(t, NullableDate(nil).IsNull())

	n := int64(12)
	assert.Equal(t, Int(12), NullableInt(&n))
}

func TestFieldChangeJSON_UpdatePair(t *testing.T) {
	fc := FieldChange{Old: String("to_do"), New: String("in_progress")}

	raw, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"old":"to_do","new":"in_progress"}`, string(raw))

	var decoded FieldChange
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, fc, decoded)
}

func TestFieldChangeJSON_InsertIsFlat(t *testing.T) {
	changes := Changes{}
	changes.Initial("title", String("write release notes"))
	changes.Initial("status", String("to_do"))

	raw, err := json.Marshal(changes)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"write release notes","status":"to_do"}`, string(raw))

	var decoded Changes
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.True(t, decoded["title"].Old.IsZero())
	assert.Equal(t, "write release notes", decoded["title"].New.Str)
}

func TestFieldChangeJSON_NullSides(t *testing.T) {
	fc := FieldChange{Old: Null(), New: Int(3)}

	raw, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"old":null,"new":3}`, string(raw))

	var decoded FieldChange
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.True(t, decoded.Old.IsNull())
	assert.Equal(t, int64(3), decoded.New.Int)
}

func TestFieldChangeJSON_Dates(t *testing.T) {
	fc := FieldChange{
		Old: Null(),
		New: Date(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)),
	}

	raw, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"old":null,"new":"2026-04-01"}`, string(raw))

	var decoded FieldChange
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, KindDate, decoded.New.Kind)
	assert.Equal(t, "2026-04-01", decoded.New.Date.Format("2006-01-02"))
}

func TestDeleteMarkerJSON(t *testing.T) {
	raw, err := json.Marshal(DeleteMarker())
	require.NoError(t, err)
	assert.JSONEq(t, `{"deleted":true}`, string(raw))
}

func TestValueUserID(t *testing.T) {
	assert.Nil(t, Null().UserID())
	assert.Nil(t, String("alice").UserID())

	id := Int(42).UserID()
	require.NotNil(t, id)
	assert.Equal(t, int64(42), *id)
}

func TestOperationValid(t *testing.T) {
	assert.True(t, OperationInsert.Valid())
	assert.True(t, OperationUpdate.Valid())
	assert.True(t, OperationDelete.Valid())
	assert.False(t, Operation("upsert").Valid())
	assert.False(t, Operation("").Valid())
}
