package presence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framedeck/collab/internal/models"
)

func createTestRecord(participantID string, status models.PresenceStatus) *models.PresenceRecord {
	return &models.PresenceRecord{
		ParticipantID: participantID,
		Participant: models.Participant{
			ID:            participantID,
			DisplayName:   "User " + participantID,
			PresenceColor: "#ff0000",
		},
		LastSeenAt: time.Now(),
		Status:     status,
	}
}

func TestTracker_Upsert_Replace(t *testing.T) {
	tracker := NewTracker()

	first := createTestRecord("user-1", models.PresenceActive)
	first.Cursor = &models.Point{X: 1, Y: 2}
	tracker.Upsert(first)

	// Второй upsert того же участника: запись заменяется целиком,
	// в том числе поля, отсутствующие во втором снимке
	second := createTestRecord("user-1", models.PresenceIdle)
	tracker.Upsert(second)

	all := tracker.All()
	require.Len(t, all, 1, "same participant must yield exactly one record")
	assert.Equal(t, models.PresenceIdle, all[0].Status)
	assert.Nil(t, all[0].Cursor, "replace is wholesale, not a field merge")
}

func TestTracker_Upsert_CopiesRecord(t *testing.T) {
	tracker := NewTracker()

	record := createTestRecord("user-1", models.PresenceActive)
	record.Cursor = &models.Point{X: 1, Y: 2}
	tracker.Upsert(record)

	// Мутация исходной записи после upsert не должна влиять на трекер
	record.Cursor.X = 99
	record.Status = models.PresenceOffline

	stored := tracker.Get("user-1")
	require.NotNil(t, stored)
	assert.Equal(t, float64(1), stored.Cursor.X)
	assert.Equal(t, models.PresenceActive, stored.Status)
}

func TestTracker_Get_Unknown(t *testing.T) {
	tracker := NewTracker()
	assert.Nil(t, tracker.Get("nobody"))
}

func TestTracker_OfflineRecordRemains(t *testing.T) {
	tracker := NewTracker()

	tracker.Upsert(createTestRecord("user-1", models.PresenceActive))
	tracker.Upsert(createTestRecord("user-1", models.PresenceOffline))

	// Записи не удаляются: offline остается последней известной записью
	assert.Equal(t, 1, tracker.Size())
	assert.Empty(t, tracker.Active(0))

	stored := tracker.Get("user-1")
	require.NotNil(t, stored)
	assert.Equal(t, models.PresenceOffline, stored.Status)
}

func TestTracker_Active(t *testing.T) {
	tracker := NewTracker()

	tracker.Upsert(createTestRecord("user-1", models.PresenceActive))
	tracker.Upsert(createTestRecord("user-2", models.PresenceIdle))
	tracker.Upsert(createTestRecord("user-3", models.PresenceOffline))

	active := tracker.Active(0)
	require.Len(t, active, 1)
	assert.Equal(t, "user-1", active[0].ID)
}

func TestTracker_Active_StaleFiltered(t *testing.T) {
	tracker := NewTracker()

	fresh := createTestRecord("fresh", models.PresenceActive)
	tracker.Upsert(fresh)

	stale := createTestRecord("stale", models.PresenceActive)
	stale.LastSeenAt = time.Now().Add(-time.Hour)
	tracker.Upsert(stale)

	// Без порога оба считаются активными
	assert.Len(t, tracker.Active(0), 2)

	// С порогом устаревшая запись неявно offline
	active := tracker.Active(time.Minute)
	require.Len(t, active, 1)
	assert.Equal(t, "fresh", active[0].ID)
}
