package sqlite

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framedeck/collab/internal/models"
	"github.com/framedeck/collab/internal/relay/storage"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	s, err := New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})

	return s
}

func testChange(version int64, participantID string) *models.Change {
	return &models.Change{
		// UnixMilli: время переживает round-trip через хранилище без потерь
		CreatedAt:     time.UnixMilli(1700000000123),
		ID:            "change-" + participantID,
		ParticipantID: participantID,
		Category:      models.CategoryStructuralA,
		Action:        models.ActionUpdate,
		Payload:       json.RawMessage(`{"clip":"intro","offset":120}`),
		Version:       version,
	}
}

func TestStorage_SaveAndListChanges(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	first := testChange(1, "alice")
	second := testChange(2, "bob")

	require.NoError(t, s.SaveChange(ctx, "project-1", first))
	require.NoError(t, s.SaveChange(ctx, "project-1", second))

	changes, err := s.ListChanges(ctx, "project-1")
	require.NoError(t, err)
	require.Len(t, changes, 2)

	assert.Equal(t, *first, changes[0])
	assert.Equal(t, *second, changes[1])
}

func TestStorage_SaveChange_DuplicateVersion(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveChange(ctx, "project-1", testChange(1, "alice")))

	err := s.SaveChange(ctx, "project-1", testChange(1, "bob"))
	require.ErrorIs(t, err, storage.ErrDuplicateVersion)

	// та же версия в другом проекте — не конфликт
	require.NoError(t, s.SaveChange(ctx, "project-2", testChange(1, "bob")))
}

func TestStorage_ListChanges_OrderedByVersion(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	// вставляем не по порядку
	require.NoError(t, s.SaveChange(ctx, "project-1", testChange(3, "carol")))
	require.NoError(t, s.SaveChange(ctx, "project-1", testChange(1, "alice")))
	require.NoError(t, s.SaveChange(ctx, "project-1", testChange(2, "bob")))

	changes, err := s.ListChanges(ctx, "project-1")
	require.NoError(t, err)
	require.Len(t, changes, 3)

	for i, change := range changes {
		assert.Equal(t, int64(i+1), change.Version)
	}
}

func TestStorage_ListChanges_EmptyProject(t *testing.T) {
	s := newTestStorage(t)

	changes, err := s.ListChanges(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestStorage_CurrentVersion(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	version, err := s.CurrentVersion(ctx, "project-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)

	require.NoError(t, s.SaveChange(ctx, "project-1", testChange(1, "alice")))
	require.NoError(t, s.SaveChange(ctx, "project-1", testChange(2, "bob")))

	version, err = s.CurrentVersion(ctx, "project-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	// чужой проект не влияет на границу
	version, err = s.CurrentVersion(ctx, "project-2")
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)
}
