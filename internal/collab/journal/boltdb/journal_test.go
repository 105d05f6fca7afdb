package boltdb

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framedeck/collab/internal/models"
)

func createTestJournal(t *testing.T) *Journal {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "journal.db")

	j, err := New(context.Background(), dbPath)
	require.NoError(t, err)
	require.NotNil(t, j)

	t.Cleanup(func() {
		require.NoError(t, j.Close())
	})

	return j
}

func createTestChange(id string, version int64) *models.Change {
	return &models.Change{
		ID:            id,
		ParticipantID: "user-1",
		CreatedAt:     time.Now().UTC(),
		Category:      models.CategoryStructuralA,
		Action:        models.ActionUpdate,
		Payload:       json.RawMessage(`{"clip":"` + id + `"}`),
		Version:       version,
	}
}

func TestJournal_AppendAndList(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()

	// Дописываем вразнобой: List обязан вернуть в порядке версий
	require.NoError(t, j.Append(ctx, createTestChange("c3", 3)))
	require.NoError(t, j.Append(ctx, createTestChange("c1", 1)))
	require.NoError(t, j.Append(ctx, createTestChange("c2", 2)))

	changes, err := j.List(ctx)
	require.NoError(t, err)
	require.Len(t, changes, 3)

	for i, change := range changes {
		assert.Equal(t, int64(i+1), change.Version)
	}
	assert.Equal(t, "c2", changes[1].ID)
}

func TestJournal_List_Empty(t *testing.T) {
	j := createTestJournal(t)

	changes, err := j.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestJournal_Replace(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Append(ctx, createTestChange("old-1", 1)))
	require.NoError(t, j.Append(ctx, createTestChange("old-2", 2)))

	authoritative := []models.Change{
		*createTestChange("new-5", 5),
		*createTestChange("new-6", 6),
		*createTestChange("new-7", 7),
	}
	require.NoError(t, j.Replace(ctx, authoritative))

	changes, err := j.List(ctx)
	require.NoError(t, err)
	require.Len(t, changes, 3)
	assert.Equal(t, "new-5", changes[0].ID)
	assert.Equal(t, int64(7), changes[2].Version)
}

func TestJournal_Replace_Empty(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Append(ctx, createTestChange("c1", 1)))
	require.NoError(t, j.Replace(ctx, nil))

	changes, err := j.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestJournal_SurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	j, err := New(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, j.Append(ctx, createTestChange("c1", 1)))
	require.NoError(t, j.Close())

	reopened, err := New(ctx, dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	changes, err := reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "c1", changes[0].ID)
}
