package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framedeck/collab/internal/collab/conn"
	"github.com/framedeck/collab/internal/collab/eventbus"
	"github.com/framedeck/collab/internal/collab/journal"
	"github.com/framedeck/collab/internal/models"
	"github.com/framedeck/collab/pkg/wire"
)

// fakeTransport управляемый транспорт для фасада: входящие сообщения
// подаются через канал in
type fakeTransport struct {
	mock   *conn.TransportMock
	in     chan []byte
	closed chan struct{}
	once   sync.Once
}

func newFakeTransport() *fakeTransport {
	f := &fakeTransport{
		in:     make(chan []byte, 16),
		closed: make(chan struct{}),
	}
	f.mock = &conn.TransportMock{
		ReadMessageFunc: func() ([]byte, error) {
			select {
			case msg := <-f.in:
				return msg, nil
			case <-f.closed:
				return nil, errors.New("transport closed")
			}
		},
		WriteMessageFunc: func([]byte) error { return nil },
		CloseFunc: func() error {
			f.once.Do(func() { close(f.closed) })
			return nil
		},
	}
	return f
}

type testRig struct {
	session *Session
	fake    *fakeTransport
	journal *journal.JournalMock
}

func newTestRig(t *testing.T, cfg Config) *testRig {
	t.Helper()

	fake := newFakeTransport()
	dialer := &conn.DialerMock{
		DialFunc: func(ctx context.Context, endpoint string) (conn.Transport, error) {
			return fake.mock, nil
		},
	}

	jour := &journal.JournalMock{
		AppendFunc:  func(context.Context, *models.Change) error { return nil },
		ReplaceFunc: func(context.Context, []models.Change) error { return nil },
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(cfg, dialer, jour, logger)

	t.Cleanup(s.Disconnect)

	return &testRig{session: s, fake: fake, journal: jour}
}

func (r *testRig) connect(t *testing.T) {
	t.Helper()

	err := r.session.Connect(context.Background(), "proj-1",
		models.Participant{ID: "user-a", DisplayName: "Alice", PresenceColor: "#3be"},
		"ws://relay/ws")
	require.NoError(t, err)
}

// sentMessages декодирует все записанные в транспорт конверты
func (r *testRig) sentMessages(t *testing.T) []*wire.Message {
	t.Helper()

	var result []*wire.Message
	for _, call := range r.fake.mock.WriteMessageCalls() {
		msg, err := wire.Decode(call.Data)
		require.NoError(t, err)
		result = append(result, msg)
	}
	return result
}

// feed подает входящее сообщение через транспорт
func (r *testRig) feed(t *testing.T, msgType string, payload any) {
	t.Helper()

	raw, err := wire.Encode(msgType, payload)
	require.NoError(t, err)
	r.fake.in <- raw
}

func waitEvent(t *testing.T, events <-chan eventbus.Event) eventbus.Event {
	t.Helper()

	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("expected event was not published")
		return nil
	}
}

func remoteChange(id string, version int64) models.Change {
	return models.Change{
		ID:            id,
		ParticipantID: "user-b",
		CreatedAt:     time.Now(),
		Category:      models.CategoryStructuralB,
		Action:        models.ActionUpdate,
		Payload:       json.RawMessage(`{"v":1}`),
		Version:       version,
	}
}

func TestSession_ConnectAnnouncesPresence(t *testing.T) {
	rig := newTestRig(t, Config{})
	rig.connect(t)

	sent := rig.sentMessages(t)
	require.Len(t, sent, 1)
	require.Equal(t, wire.TypePresence, sent[0].Type)

	var record models.PresenceRecord
	require.NoError(t, json.Unmarshal(sent[0].Data, &record))
	assert.Equal(t, "user-a", record.ParticipantID)
	assert.Equal(t, models.PresenceActive, record.Status)
	assert.Equal(t, "Alice", record.Participant.DisplayName)
}

func TestSession_ConnectRejectsInvalidIDs(t *testing.T) {
	rig := newTestRig(t, Config{})

	err := rig.session.Connect(context.Background(), "bad project!",
		models.Participant{ID: "user-a"}, "ws://relay/ws")
	require.Error(t, err)

	err = rig.session.Connect(context.Background(), "proj-1",
		models.Participant{ID: ""}, "ws://relay/ws")
	require.Error(t, err)

	assert.Equal(t, conn.StateDisconnected, rig.session.ConnectionState())
}

func TestSession_UpdatePresence_NoLocalMutation(t *testing.T) {
	rig := newTestRig(t, Config{})
	rig.connect(t)

	rig.session.UpdatePresence(PresenceUpdate{Cursor: &models.Point{X: 5, Y: 7}})

	// Объявление ушло в сеть, но локальный трекер не тронут:
	// единственный источник истины — сетевой round-trip
	assert.Empty(t, rig.session.Presences())

	// Relay отражает сообщение обратно — только теперь трекер обновляется
	events := make(chan eventbus.Event, 1)
	rig.session.Subscribe(eventbus.KindPresence, func(ev eventbus.Event) { events <- ev })

	echo := models.PresenceRecord{
		ParticipantID: "user-a",
		Participant:   models.Participant{ID: "user-a", DisplayName: "Alice"},
		Cursor:        &models.Point{X: 5, Y: 7},
		LastSeenAt:    time.Now(),
		Status:        models.PresenceActive,
	}
	rig.feed(t, wire.TypePresence, echo)

	ev := waitEvent(t, events)
	record := ev.(eventbus.PresenceEvent).Record
	assert.Equal(t, "user-a", record.ParticipantID)

	presences := rig.session.Presences()
	require.Len(t, presences, 1)
	assert.Equal(t, float64(5), presences[0].Cursor.X)
}

func TestSession_BroadcastChange(t *testing.T) {
	rig := newTestRig(t, Config{})
	rig.connect(t)

	change := rig.session.BroadcastChange(models.ChangeDraft{
		Category: models.CategoryStructuralA,
		Action:   models.ActionCreate,
		Payload:  json.RawMessage(`{"x":1}`),
	})

	assert.NotEmpty(t, change.ID)
	assert.Equal(t, "user-a", change.ParticipantID)
	assert.Equal(t, int64(1), change.Version)
	assert.Equal(t, int64(1), rig.session.CurrentVersion())

	sent := rig.sentMessages(t)
	require.Len(t, sent, 2) // presence при подключении + change
	assert.Equal(t, wire.TypeChange, sent[1].Type)

	// Принятое локальное изменение зеркалится в журнал
	require.Len(t, rig.journal.AppendCalls(), 1)
	assert.Equal(t, change.ID, rig.journal.AppendCalls()[0].Change.ID)
}

func TestSession_BroadcastChange_WhileDisconnected(t *testing.T) {
	rig := newTestRig(t, Config{})
	rig.connect(t)
	rig.session.Disconnect()

	writesBefore := len(rig.fake.mock.WriteMessageCalls())

	// Локальный лог продвигается, даже когда отправка молча дропается
	change := rig.session.BroadcastChange(models.ChangeDraft{
		Category: models.CategoryStructuralC,
		Action:   models.ActionDelete,
		Payload:  json.RawMessage(`{}`),
	})

	assert.Equal(t, int64(1), change.Version)
	assert.Equal(t, int64(1), rig.session.CurrentVersion())
	assert.Len(t, rig.fake.mock.WriteMessageCalls(), writesBefore)
}

func TestSession_InboundChangeAccepted(t *testing.T) {
	rig := newTestRig(t, Config{})
	rig.connect(t)

	events := make(chan eventbus.Event, 1)
	rig.session.Subscribe(eventbus.KindChange, func(ev eventbus.Event) { events <- ev })

	rig.feed(t, wire.TypeChange, remoteChange("r1", 1))

	ev := waitEvent(t, events)
	assert.Equal(t, "r1", ev.(eventbus.ChangeEvent).Change.ID)
	assert.Equal(t, int64(1), rig.session.CurrentVersion())
	require.Len(t, rig.session.Changes(), 1)
}

func TestSession_InboundChangeConflict(t *testing.T) {
	rig := newTestRig(t, Config{})
	rig.connect(t)

	accepted := make(chan eventbus.Event, 1)
	conflicts := make(chan eventbus.Event, 1)
	rig.session.Subscribe(eventbus.KindChange, func(ev eventbus.Event) { accepted <- ev })
	rig.session.Subscribe(eventbus.KindConflict, func(ev eventbus.Event) { conflicts <- ev })

	rig.feed(t, wire.TypeChange, remoteChange("r1", 2))
	waitEvent(t, accepted)

	// Версия на границе -> конфликт вместо change-события, лог не тронут
	rig.feed(t, wire.TypeChange, remoteChange("r2", 2))

	ev := waitEvent(t, conflicts)
	conflict := ev.(eventbus.ConflictEvent)
	assert.Equal(t, "r2", conflict.Change.ID)
	assert.Equal(t, models.StrategyLastWriteWins, conflict.Decision.Strategy)
	assert.Equal(t, "user-b", conflict.Decision.WinningParticipantID)

	assert.Equal(t, int64(2), rig.session.CurrentVersion())
	assert.Len(t, rig.session.Changes(), 1)
	assert.Empty(t, accepted)
}

func TestSession_InboundSync(t *testing.T) {
	rig := newTestRig(t, Config{})
	rig.connect(t)

	events := make(chan eventbus.Event, 1)
	rig.session.Subscribe(eventbus.KindSync, func(ev eventbus.Event) { events <- ev })

	authoritative := []models.Change{
		remoteChange("s1", 1),
		remoteChange("s2", 2),
		remoteChange("s3", 3),
	}
	rig.feed(t, wire.TypeSync, wire.SyncState{Changes: authoritative, Version: 3})

	ev := waitEvent(t, events)
	assert.Equal(t, int64(3), ev.(eventbus.SyncEvent).Version)

	assert.Equal(t, int64(3), rig.session.CurrentVersion())
	assert.Len(t, rig.session.Changes(), 3)

	// Журнал заменен целиком вместе с логом
	require.Len(t, rig.journal.ReplaceCalls(), 1)
	assert.Len(t, rig.journal.ReplaceCalls()[0].Changes, 3)
}

func TestSession_InboundConflictNotice(t *testing.T) {
	rig := newTestRig(t, Config{})
	rig.connect(t)

	conflicts := make(chan eventbus.Event, 1)
	rig.session.Subscribe(eventbus.KindConflict, func(ev eventbus.Event) { conflicts <- ev })

	rig.feed(t, wire.TypeConflict, wire.ConflictNotice{
		Change:       remoteChange("rejected", 4),
		LocalVersion: 9,
	})

	ev := waitEvent(t, conflicts)
	conflict := ev.(eventbus.ConflictEvent)
	assert.Equal(t, "rejected", conflict.Change.ID)
	assert.Equal(t, models.StrategyLastWriteWins, conflict.Decision.Strategy)

	// Уведомление секвенсера не мутирует локальный лог
	assert.Equal(t, int64(0), rig.session.CurrentVersion())
}

func TestSession_UnknownTypeDropped(t *testing.T) {
	rig := newTestRig(t, Config{})
	rig.connect(t)

	events := make(chan eventbus.Event, 4)
	for _, kind := range []eventbus.Kind{eventbus.KindPresence, eventbus.KindChange, eventbus.KindSync, eventbus.KindConflict} {
		rig.session.Subscribe(kind, func(ev eventbus.Event) { events <- ev })
	}

	rig.feed(t, "telemetry", map[string]int{"n": 1})
	rig.feed(t, wire.TypeHeartbeat, wire.Heartbeat{Timestamp: time.Now().UnixMilli()})

	// Маркер: после него ничего из предыдущих сообщений уже не придет
	rig.feed(t, wire.TypeChange, remoteChange("marker", 1))

	ev := waitEvent(t, events)
	assert.Equal(t, "marker", ev.(eventbus.ChangeEvent).Change.ID)
	assert.Empty(t, events)
}

func TestSession_RequestSync(t *testing.T) {
	rig := newTestRig(t, Config{})
	rig.connect(t)

	rig.session.BroadcastChange(models.ChangeDraft{
		Category: models.CategoryStructuralD,
		Action:   models.ActionCreate,
		Payload:  json.RawMessage(`{}`),
	})

	rig.session.RequestSync()

	sent := rig.sentMessages(t)
	last := sent[len(sent)-1]
	require.Equal(t, wire.TypeSync, last.Type)

	var req wire.SyncRequest
	require.NoError(t, json.Unmarshal(last.Data, &req))
	assert.Equal(t, int64(1), req.Version)
}

func TestSession_ReconnectAnnouncesPresence(t *testing.T) {
	first := newFakeTransport()
	second := newFakeTransport()

	var dialMu sync.Mutex
	dials := 0
	dialer := &conn.DialerMock{
		DialFunc: func(ctx context.Context, endpoint string) (conn.Transport, error) {
			dialMu.Lock()
			defer dialMu.Unlock()
			dials++
			if dials == 1 {
				return first.mock, nil
			}
			return second.mock, nil
		},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(Config{Conn: conn.Config{
		ReconnectBaseDelay: time.Millisecond,
		HeartbeatInterval:  time.Hour,
	}}, dialer, nil, logger)
	t.Cleanup(s.Disconnect)

	err := s.Connect(context.Background(), "proj-1",
		models.Participant{ID: "user-a", DisplayName: "Alice"}, "ws://relay/ws")
	require.NoError(t, err)

	// разрыв со стороны сети: relay разослал offline, после
	// переподключения сессия обязана объявить присутствие заново
	first.mock.Close()

	require.Eventually(t, func() bool {
		for _, call := range second.mock.WriteMessageCalls() {
			msg, err := wire.Decode(call.Data)
			if err != nil || msg.Type != wire.TypePresence {
				continue
			}

			var record models.PresenceRecord
			if json.Unmarshal(msg.Data, &record) != nil {
				continue
			}
			if record.ParticipantID == "user-a" && record.Status == models.PresenceActive {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond, "presence must be re-announced on the new transport")
}

func TestSession_DisconnectAnnouncesOffline(t *testing.T) {
	rig := newTestRig(t, Config{})
	rig.connect(t)

	rig.session.Disconnect()

	sent := rig.sentMessages(t)
	require.Len(t, sent, 2)
	require.Equal(t, wire.TypePresence, sent[1].Type)

	var record models.PresenceRecord
	require.NoError(t, json.Unmarshal(sent[1].Data, &record))
	assert.Equal(t, models.PresenceOffline, record.Status)
	assert.Equal(t, conn.StateDisconnected, rig.session.ConnectionState())
}

func TestSession_Status(t *testing.T) {
	rig := newTestRig(t, Config{})

	status := rig.session.Status()
	assert.False(t, status.Connected)
	assert.Zero(t, status.CurrentVersion)

	rig.connect(t)

	events := make(chan eventbus.Event, 1)
	rig.session.Subscribe(eventbus.KindPresence, func(ev eventbus.Event) { events <- ev })
	rig.feed(t, wire.TypePresence, models.PresenceRecord{
		ParticipantID: "user-b",
		Participant:   models.Participant{ID: "user-b"},
		LastSeenAt:    time.Now(),
		Status:        models.PresenceActive,
	})
	waitEvent(t, events)

	rig.session.BroadcastChange(models.ChangeDraft{
		Category: models.CategoryStructuralA,
		Action:   models.ActionCreate,
		Payload:  json.RawMessage(`{}`),
	})

	status = rig.session.Status()
	assert.True(t, status.Connected)
	assert.Equal(t, "proj-1", status.ProjectID)
	assert.Equal(t, "user-a", status.Participant.ID)
	assert.Equal(t, 1, status.ActiveParticipantCount)
	assert.Equal(t, int64(1), status.CurrentVersion)
}

func TestSession_MalformedInboundDropped(t *testing.T) {
	rig := newTestRig(t, Config{})
	rig.connect(t)

	events := make(chan eventbus.Event, 2)
	rig.session.Subscribe(eventbus.KindChange, func(ev eventbus.Event) { events <- ev })

	// Структурно некорректные payload дропаются без паники
	rig.fake.in <- []byte(`{"type":"change","data":"not an object"}`)
	rig.fake.in <- []byte(`{"type":"presence","data":{"participant_id":""}}`)

	rig.feed(t, wire.TypeChange, remoteChange("after", 1))

	ev := waitEvent(t, events)
	assert.Equal(t, "after", ev.(eventbus.ChangeEvent).Change.ID)
	assert.Empty(t, rig.session.Presences())
}
