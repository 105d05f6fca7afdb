package eventbus

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framedeck/collab/internal/models"
)

func newTestBus() *Bus {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBus_PublishDeliversToKind(t *testing.T) {
	bus := newTestBus()

	var got []Event
	bus.Subscribe(KindChange, func(ev Event) {
		got = append(got, ev)
	})

	var wrongKind int
	bus.Subscribe(KindPresence, func(ev Event) {
		wrongKind++
	})

	change := models.Change{ID: "c1", Version: 1}
	bus.Publish(ChangeEvent{Change: change})

	require.Len(t, got, 1)
	assert.Equal(t, change, got[0].(ChangeEvent).Change)
	assert.Zero(t, wrongKind, "listener of another kind must not fire")
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := newTestBus()

	var calls int
	unsubscribe := bus.Subscribe(KindError, func(Event) { calls++ })

	bus.Publish(ErrorEvent{Err: errors.New("boom")})
	require.Equal(t, 1, calls)

	unsubscribe()
	unsubscribe() // повторная отписка безопасна

	bus.Publish(ErrorEvent{Err: errors.New("boom")})
	assert.Equal(t, 1, calls, "unsubscribed listener must not fire")
}

func TestBus_PanickingListenerIsIsolated(t *testing.T) {
	bus := newTestBus()

	bus.Subscribe(KindSync, func(Event) {
		panic("listener bug")
	})

	var survived bool
	bus.Subscribe(KindSync, func(Event) {
		survived = true
	})

	require.NotPanics(t, func() {
		bus.Publish(SyncEvent{Version: 3})
	})
	assert.True(t, survived, "panic in one listener must not block others")

	// Шина остается рабочей для последующих событий
	bus.Publish(SyncEvent{Version: 4})
}

func TestBus_SubscribeFromListener(t *testing.T) {
	bus := newTestBus()

	var nested int
	bus.Subscribe(KindPresence, func(Event) {
		bus.Subscribe(KindPresence, func(Event) { nested++ })
	})

	require.NotPanics(t, func() {
		bus.Publish(PresenceEvent{})
	})

	bus.Publish(PresenceEvent{})
	assert.Equal(t, 1, nested)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "presence", KindPresence.String())
	assert.Equal(t, "conflict", KindConflict.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
