// Package session реализует фасад ядра синхронизации — единственную
// публичную поверхность для приложения-хоста. Сессия владеет своим логом
// изменений, трекером присутствия и менеджером соединения; они никогда не
// разделяются между сессиями и демонтируются вместе при отключении.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/framedeck/collab/internal/collab/changelog"
	"github.com/framedeck/collab/internal/collab/conn"
	"github.com/framedeck/collab/internal/collab/eventbus"
	"github.com/framedeck/collab/internal/collab/journal"
	"github.com/framedeck/collab/internal/collab/presence"
	"github.com/framedeck/collab/internal/models"
	"github.com/framedeck/collab/internal/validation"
	"github.com/framedeck/collab/pkg/wire"
)

// Config параметры сессии
type Config struct {
	// Conn параметры соединения (таймауты, heartbeat, бэкофф)
	Conn conn.Config

	// Resolver стратегия разрешения конфликтов (по умолчанию LastWriteWins)
	Resolver changelog.Resolver

	// PresenceStaleAfter порог неявного устаревания присутствия.
	// Ноль отключает фильтрацию: ядро само не решает, когда участник
	// «протух» — это конфигурационная ручка хоста.
	PresenceStaleAfter time.Duration
}

// PresenceUpdate частичное обновление присутствия. Незаполненные поля
// мердж поверх дефолтов {participantID: self, lastSeenAt: now, status: active}.
type PresenceUpdate struct {
	Cursor    *models.Point
	Selection *models.Selection
	Status    models.PresenceStatus
}

// Session одна совместная сессия для пары (projectID, participant).
// Создается явно и передается по ссылке тому, кому нужна (dependency
// injection); жизненным циклом владеет создатель.
type Session struct {
	cfg     Config
	logger  *slog.Logger
	bus     *eventbus.Bus
	tracker *presence.Tracker
	log     *changelog.Log
	manager *conn.Manager
	journal journal.Journal

	mu          sync.RWMutex
	projectID   string
	participant models.Participant
}

// New создает сессию. jour опционален (nil — без локального журнала).
func New(cfg Config, dialer conn.Dialer, jour journal.Journal, logger *slog.Logger) *Session {
	s := &Session{
		cfg:     cfg,
		logger:  logger,
		bus:     eventbus.New(logger),
		tracker: presence.NewTracker(),
		log:     changelog.NewLog(cfg.Resolver),
		journal: jour,
	}

	s.manager = conn.NewManager(cfg.Conn, dialer, s.dispatch, func(err error) {
		s.bus.Publish(eventbus.ErrorEvent{Err: err})
	}, logger)

	// Разрыв соединения разносит offline всем остальным; после
	// автопереподключения присутствие нужно объявить заново, иначе
	// участник навсегда останется для них offline.
	s.manager.OnReconnected(func() {
		s.UpdatePresence(PresenceUpdate{Status: models.PresenceActive})
	})

	return s
}

// Connect открывает соединение с endpoint и сразу объявляет локальное
// присутствие со статусом active. Ошибка первичного подключения
// возвращается синхронно.
func (s *Session) Connect(ctx context.Context, projectID string, participant models.Participant, endpoint string) error {
	if err := validation.ValidateID(projectID); err != nil {
		return fmt.Errorf("invalid project id: %w", err)
	}
	if err := validation.ValidateID(participant.ID); err != nil {
		return fmt.Errorf("invalid participant id: %w", err)
	}

	s.mu.Lock()
	s.projectID = projectID
	s.participant = participant
	s.mu.Unlock()

	if err := s.manager.Connect(ctx, endpoint); err != nil {
		return err
	}

	s.UpdatePresence(PresenceUpdate{Status: models.PresenceActive})
	return nil
}

// Disconnect объявляет статус offline и закрывает соединение.
func (s *Session) Disconnect() {
	s.UpdatePresence(PresenceUpdate{Status: models.PresenceOffline})
	s.manager.Disconnect()
}

// UpdatePresence отправляет объявление присутствия. Это локальный
// broadcast, а не мутация локального состояния: собственный трекер
// обновится только когда relay отразит сообщение обратно через общий
// путь диспетчеризации — все участники, включая себя, наблюдают
// присутствие через один и тот же код.
func (s *Session) UpdatePresence(update PresenceUpdate) {
	s.mu.RLock()
	self := s.participant
	s.mu.RUnlock()

	if self.ID == "" {
		s.logger.Debug("presence update dropped: session never connected")
		return
	}

	status := update.Status
	if status == "" {
		status = models.PresenceActive
	}

	record := models.PresenceRecord{
		ParticipantID: self.ID,
		Participant:   self,
		Cursor:        update.Cursor,
		Selection:     update.Selection,
		LastSeenAt:    time.Now(),
		Status:        status,
	}

	s.manager.Send(wire.TypePresence, record)
}

// BroadcastChange принимает локальный черновик в лог и публикует собранное
// изменение. Лог продвигается даже если отправка молча дропнулась из-за
// отсутствия соединения — осознанный at-most-once компромисс, не баг.
func (s *Session) BroadcastChange(draft models.ChangeDraft) models.Change {
	s.mu.RLock()
	self := s.participant
	s.mu.RUnlock()

	change := s.log.ProposeLocal(self.ID, draft)
	s.journalAppend(&change)

	s.manager.Send(wire.TypeChange, change)
	return change
}

// RequestSync запрашивает у сервера сверку с локальной версией. Сервер
// отвечает либо ничем (версии совпали), либо sync-сообщением с авторитетной
// полной историей, которая применяется через ReplaceAll.
func (s *Session) RequestSync() {
	s.manager.Send(wire.TypeSync, wire.SyncRequest{Version: s.log.CurrentVersion()})
}

// Presences возвращает снимок всех известных записей присутствия.
func (s *Session) Presences() []models.PresenceRecord {
	return s.tracker.All()
}

// ActiveParticipants возвращает активных участников с учетом порога
// устаревания из конфигурации.
func (s *Session) ActiveParticipants() []models.Participant {
	return s.tracker.Active(s.cfg.PresenceStaleAfter)
}

// Changes возвращает снимок принятой истории изменений.
func (s *Session) Changes() []models.Change {
	return s.log.Changes()
}

// CurrentVersion возвращает текущую границу версий.
func (s *Session) CurrentVersion() int64 {
	return s.log.CurrentVersion()
}

// ConnectionState возвращает состояние машины соединения.
func (s *Session) ConnectionState() conn.State {
	return s.manager.State()
}

// Status собирает снимок состояния сессии. Вычисляется по требованию,
// никогда не кэшируется.
func (s *Session) Status() models.SessionStatus {
	s.mu.RLock()
	projectID := s.projectID
	participant := s.participant
	s.mu.RUnlock()

	return models.SessionStatus{
		Connected:              s.manager.State() == conn.StateConnected,
		ProjectID:              projectID,
		Participant:            participant,
		ActiveParticipantCount: len(s.ActiveParticipants()),
		CurrentVersion:         s.log.CurrentVersion(),
	}
}

// Subscribe регистрирует слушателя событий указанного вида.
// Возвращает функцию отписки.
func (s *Session) Subscribe(kind eventbus.Kind, fn func(eventbus.Event)) func() {
	return s.bus.Subscribe(kind, fn)
}

// dispatch разбирает входящее сообщение по типу и раздает его компонентам.
// Сетевые и протокольные сбои обрабатываются локально (лог + дроп) и
// эскалируются хосту только через события — из пути обработки сообщений
// ничего не бросается.
func (s *Session) dispatch(msg *wire.Message) {
	switch msg.Type {
	case wire.TypePresence:
		s.handlePresence(msg.Data)
	case wire.TypeChange:
		s.handleChange(msg.Data)
	case wire.TypeSync:
		s.handleSync(msg.Data)
	case wire.TypeConflict:
		s.handleConflict(msg.Data)
	case wire.TypeHeartbeat:
		// Транспортная живость, данных не несет
	default:
		s.logger.Warn("unrecognized message dropped", "type", msg.Type)
	}
}

func (s *Session) handlePresence(data json.RawMessage) {
	var record models.PresenceRecord
	if err := json.Unmarshal(data, &record); err != nil {
		s.logger.Warn("malformed presence dropped", "error", err)
		return
	}
	if record.ParticipantID == "" || !record.Status.Valid() {
		s.logger.Warn("invalid presence dropped",
			"participant_id", record.ParticipantID, "status", record.Status)
		return
	}

	s.tracker.Upsert(&record)
	s.bus.Publish(eventbus.PresenceEvent{Record: record})
}

func (s *Session) handleChange(data json.RawMessage) {
	var change models.Change
	if err := json.Unmarshal(data, &change); err != nil {
		s.logger.Warn("malformed change dropped", "error", err)
		return
	}

	accepted, decision := s.log.ReceiveRemote(change)
	if !accepted {
		s.bus.Publish(eventbus.ConflictEvent{Change: change, Decision: *decision})
		return
	}

	s.journalAppend(&change)
	s.bus.Publish(eventbus.ChangeEvent{Change: change})
}

func (s *Session) handleSync(data json.RawMessage) {
	var state wire.SyncState
	if err := json.Unmarshal(data, &state); err != nil {
		s.logger.Warn("malformed sync dropped", "error", err)
		return
	}

	s.log.ReplaceAll(state.Changes, state.Version)

	if s.journal != nil {
		if err := s.journal.Replace(context.Background(), state.Changes); err != nil {
			s.logger.Warn("journal replace failed", "error", err)
		}
	}

	s.bus.Publish(eventbus.SyncEvent{Changes: state.Changes, Version: state.Version})
}

func (s *Session) handleConflict(data json.RawMessage) {
	var notice wire.ConflictNotice
	if err := json.Unmarshal(data, &notice); err != nil {
		s.logger.Warn("malformed conflict notice dropped", "error", err)
		return
	}

	decision := s.log.Resolve(notice.Change, notice.LocalVersion)
	s.bus.Publish(eventbus.ConflictEvent{Change: notice.Change, Decision: decision})
}

// journalAppend дописывает принятое изменение в локальный журнал.
// Ошибка журнала не роняет прием: журнал — best-effort зеркало для
// последующего сброса хостом.
func (s *Session) journalAppend(change *models.Change) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Append(context.Background(), change); err != nil {
		s.logger.Warn("journal append failed", "change_id", change.ID, "error", err)
	}
}
