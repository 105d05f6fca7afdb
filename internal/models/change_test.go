package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChange_Clone(t *testing.T) {
	original := &Change{
		ID:            "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		ParticipantID: "user-1",
		Category:      CategoryStructuralA,
		Action:        ActionCreate,
		Payload:       json.RawMessage(`{"x":1}`),
		Version:       7,
		CreatedAt:     time.Now(),
	}

	clone := original.Clone()

	require.NotSame(t, original, clone)
	assert.Equal(t, original, clone)

	// Мутация payload клона не должна затрагивать оригинал
	clone.Payload[1] = 'y'
	assert.Equal(t, json.RawMessage(`{"x":1}`), original.Payload)
}

func TestChange_Clone_NilPayload(t *testing.T) {
	original := &Change{ID: "id1", Version: 1}

	clone := original.Clone()

	require.NotSame(t, original, clone)
	assert.Nil(t, clone.Payload)
}

func TestPresenceStatus_Valid(t *testing.T) {
	tests := []struct {
		status PresenceStatus
		valid  bool
	}{
		{PresenceActive, true},
		{PresenceIdle, true},
		{PresenceOffline, true},
		{PresenceStatus(""), false},
		{PresenceStatus("away"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.status.Valid())
		})
	}
}

func TestPresenceRecord_Clone(t *testing.T) {
	original := &PresenceRecord{
		ParticipantID: "user-1",
		Participant:   Participant{ID: "user-1", DisplayName: "Alice"},
		Cursor:        &Point{X: 10, Y: 20},
		Selection:     &Selection{EntityID: "clip-3", RangeStart: 0, RangeEnd: 42},
		LastSeenAt:    time.Now(),
		Status:        PresenceActive,
	}

	clone := original.Clone()

	require.NotSame(t, original, clone)
	assert.Equal(t, original, clone)

	// Указатели должны быть независимыми копиями
	clone.Cursor.X = 99
	clone.Selection.RangeEnd = 1
	assert.Equal(t, float64(10), original.Cursor.X)
	assert.Equal(t, int64(42), original.Selection.RangeEnd)
}
