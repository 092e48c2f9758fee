package trip_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/tripmate/internal/trip"
)

func TestHistory_EmptyHasNoCurrent(t *testing.T) {
	var h trip.History

	assert.Nil(t, h.Current())
	assert.Equal(t, 0, h.Len())
	assert.False(t, h.Back())
	assert.False(t, h.Forward())
}

func TestHistory_RecordMovesCursorToNewest(t *testing.T) {
	var h trip.History
	h.Record(trip.Plan{To: "Auckland"})
	h.Record(trip.Plan{To: "Wellington"})

	require.NotNil(t, h.Current())
	assert.Equal(t, trip.Text("Wellington"), h.Current().To)
	assert.Equal(t, 1, h.Cursor)
}

func TestHistory_BackAndForwardStayInBounds(t *testing.T) {
	var h trip.History
	h.Record(trip.Plan{To: "Auckland"})
	h.Record(trip.Plan{To: "Wellington"})
	h.Record(trip.Plan{To: "Nelson"})

	assert.False(t, h.Forward())

	assert.True(t, h.Back())
	assert.True(t, h.Back())
	assert.Equal(t, trip.Text("Auckland"), h.Current().To)
	assert.False(t, h.Back())
	assert.Equal(t, 0, h.Cursor)

	assert.True(t, h.Forward())
	assert.Equal(t, trip.Text("Wellington"), h.Current().To)
}

func TestHistory_ReplaceOnEmptyRecords(t *testing.T) {
	var h trip.History
	h.Replace(trip.Plan{To: "Taupo"})

	assert.Equal(t, 1, h.Len())
	assert.Equal(t, trip.Text("Taupo"), h.Current().To)
}

// ---- Apply ----

func TestHistory_ApplyNewTripAppends(t *testing.T) {
	var h trip.History
	h.Record(trip.Plan{To: "Auckland", Hotels: []trip.Hotel{h1}})

	merged, isNew := h.Apply(trip.Plan{To: "Wellington", Hotels: []trip.Hotel{}})

	assert.True(t, isNew)
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, 1, h.Cursor)
	assert.Equal(t, merged, *h.Current())
	assert.Empty(t, h.Current().Hotels)
}

func TestHistory_ApplyFollowUpOverwritesInPlace(t *testing.T) {
	var h trip.History
	h.Record(trip.Plan{To: "Queenstown", Hotels: []trip.Hotel{h1, h2}, Activities: []trip.Activity{a1}})

	_, isNew := h.Apply(trip.Plan{To: "queenstown", Hotels: []trip.Hotel{}, Activities: []trip.Activity{a2}})

	assert.False(t, isNew)
	assert.Equal(t, 1, h.Len())
	assert.Equal(t, []trip.Hotel{h1, h2}, h.Current().Hotels)
	assert.Equal(t, []trip.Activity{a2}, h.Current().Activities)
}

func TestHistory_ApplyAfterBackMergesIntoViewedTrip(t *testing.T) {
	var h trip.History
	h.Record(trip.Plan{To: "Queenstown", Duration: "5 days"})
	h.Record(trip.Plan{To: "Dunedin"})
	require.True(t, h.Back())

	_, isNew := h.Apply(trip.Plan{To: "Queenstown", Duration: "6 days"})

	assert.False(t, isNew)
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, 0, h.Cursor)
	assert.Equal(t, trip.Text("6 days"), h.Trips[0].Duration)
	assert.Equal(t, trip.Text("Dunedin"), h.Trips[1].To)
}

func TestHistory_JSONRoundTrip(t *testing.T) {
	var h trip.History
	h.Record(trip.Plan{To: "Auckland"})
	h.Record(trip.Plan{To: "Hamilton"})
	h.Back()

	b, err := json.Marshal(h)
	require.NoError(t, err)

	var got trip.History
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, 0, got.Cursor)
	assert.Equal(t, trip.Text("Hamilton"), got.Trips[1].To)
}
