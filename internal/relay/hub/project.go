package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/framedeck/collab/internal/collab/changelog"
	"github.com/framedeck/collab/internal/collab/presence"
	"github.com/framedeck/collab/internal/models"
	"github.com/framedeck/collab/internal/relay/storage"
	"github.com/framedeck/collab/pkg/wire"
)

// Project одна активная сессия совместного редактирования.
//
// Канонический порядок версий проекта определяется здесь и только здесь:
// изменение либо принимается в seq и рассылается всем, либо отклоняется
// с уведомлением отправителю. Оба исхода проходят через handleChange
// под seqMu, поэтому два конкурирующих изменения за одну версию
// детерминированно упорядочиваются.
type Project struct {
	id      string
	log     *slog.Logger
	store   storage.ChangeStore
	seq     *changelog.Log
	tracker *presence.Tracker
	clients map[string]*Client
	release func()
	mu      sync.RWMutex
	seqMu   sync.Mutex
}

// Join регистрирует клиента и отправляет ему начальный снимок состояния:
// полный канонический лог плюс все известные записи присутствия.
func (p *Project) Join(client *Client) {
	p.mu.Lock()
	p.clients[client.id] = client
	p.mu.Unlock()

	p.log.Info("client joined",
		"client_id", client.id,
		"participant_id", client.participantID,
	)

	p.sendSyncState(client)

	for _, record := range p.tracker.All() {
		raw, err := wire.Encode(wire.TypePresence, record)
		if err != nil {
			p.log.Error("failed to encode presence snapshot", "error", err)
			continue
		}
		client.enqueue(raw)
	}
}

// Leave снимает клиента с учета. Если это было последнее соединение
// участника, остальным рассылается presence со статусом offline; если
// это был последний клиент проекта, проект возвращается hub'у.
func (p *Project) Leave(client *Client) {
	p.mu.Lock()
	_, known := p.clients[client.id]
	delete(p.clients, client.id)
	client.closeSend()

	empty := len(p.clients) == 0
	remaining := false
	for _, other := range p.clients {
		if other.participantID == client.participantID {
			remaining = true
			break
		}
	}
	p.mu.Unlock()

	if known {
		p.log.Info("client left",
			"client_id", client.id,
			"participant_id", client.participantID,
		)

		if !remaining {
			record := p.tracker.Get(client.participantID)
			if record == nil {
				record = &models.PresenceRecord{
					ParticipantID: client.participantID,
					Participant:   client.participant,
				}
			}
			record.Status = models.PresenceOffline
			record.LastSeenAt = time.Now()
			p.tracker.Upsert(record)

			p.broadcastPayload(wire.TypePresence, record, "")
		}
	}

	if empty && p.release != nil {
		p.release()
	}
}

// HandleMessage обрабатывает одно входящее сообщение клиента.
// Незнакомые и структурно некорректные payload'ы логируются и
// отбрасываются: relay никогда не рвет соединение из-за одного
// плохого сообщения.
func (p *Project) HandleMessage(ctx context.Context, client *Client, msg *wire.Message) {
	switch msg.Type {
	case wire.TypeChange:
		p.handleChange(ctx, client, msg.Data)
	case wire.TypePresence:
		p.handlePresence(client, msg.Data)
	case wire.TypeSync:
		p.handleSync(client, msg.Data)
	case wire.TypeHeartbeat:
		// сигнал живости, реакция не нужна
	default:
		p.log.Warn("unknown message type",
			"type", msg.Type,
			"client_id", client.id,
		)
	}
}

// handleChange прогоняет предложенное изменение через секвенсер.
// Принято — персистим и рассылаем всем, кроме соединения отправителя:
// его лог уже продвинулся при ProposeLocal, и каноническое эхо он счел
// бы конфликтом версий. Отклонено — отправитель строил изменение на
// устаревшей истории, он один получает ConflictNotice и должен
// запросить ресинк.
func (p *Project) handleChange(ctx context.Context, client *Client, data json.RawMessage) {
	var change models.Change
	if err := json.Unmarshal(data, &change); err != nil {
		p.log.Warn("malformed change payload", "error", err, "client_id", client.id)
		return
	}

	p.seqMu.Lock()
	accepted, _ := p.seq.ReceiveRemote(change)
	if accepted {
		if err := p.store.SaveChange(ctx, p.id, &change); err != nil {
			p.log.Error("failed to persist change",
				"error", err,
				"version", change.Version,
			)
		}
	}
	currentVersion := p.seq.CurrentVersion()
	p.seqMu.Unlock()

	if !accepted {
		p.log.Info("change rejected",
			"participant_id", change.ParticipantID,
			"stale_version", change.Version,
			"current_version", currentVersion,
		)
		p.sendPayload(client, wire.TypeConflict, wire.ConflictNotice{
			Change:       change,
			LocalVersion: currentVersion,
		})
		return
	}

	p.broadcastPayload(wire.TypeChange, change, client.id)
}

// handlePresence принимает снимок присутствия, проставляет серверное
// время последней активности и рассылает всем, включая отправителя:
// клиент обновляет собственный трекер только по сетевому эху.
func (p *Project) handlePresence(client *Client, data json.RawMessage) {
	var record models.PresenceRecord
	if err := json.Unmarshal(data, &record); err != nil {
		p.log.Warn("malformed presence payload", "error", err, "client_id", client.id)
		return
	}

	if !record.Status.Valid() {
		p.log.Warn("invalid presence status",
			"status", record.Status,
			"client_id", client.id,
		)
		return
	}

	record.LastSeenAt = time.Now()
	p.tracker.Upsert(&record)

	p.broadcastPayload(wire.TypePresence, record, "")
}

// handleSync отвечает полной авторитетной копией лога. Если клиент уже
// на текущей версии, ответа нет: пустой SyncState стер бы его историю.
func (p *Project) handleSync(client *Client, data json.RawMessage) {
	var req wire.SyncRequest
	if err := json.Unmarshal(data, &req); err != nil {
		p.log.Warn("malformed sync request", "error", err, "client_id", client.id)
		return
	}

	if req.Version == p.seq.CurrentVersion() {
		return
	}

	p.sendSyncState(client)
}

// sendSyncState отправляет клиенту полную авторитетную копию лога
func (p *Project) sendSyncState(client *Client) {
	p.seqMu.Lock()
	state := wire.SyncState{
		Changes: p.seq.Changes(),
		Version: p.seq.CurrentVersion(),
	}
	p.seqMu.Unlock()

	p.sendPayload(client, wire.TypeSync, state)
}

// sendPayload отправляет сообщение одному клиенту
func (p *Project) sendPayload(client *Client, msgType string, payload any) {
	raw, err := wire.Encode(msgType, payload)
	if err != nil {
		p.log.Error("failed to encode message", "type", msgType, "error", err)
		return
	}
	client.enqueue(raw)
}

// broadcastPayload рассылает сообщение всем клиентам проекта, кроме
// excludeID (пустая строка — всем без исключения). Клиент с
// переполненным буфером отправки отключается: медленный получатель не
// должен тормозить остальных.
func (p *Project) broadcastPayload(msgType string, payload any, excludeID string) {
	raw, err := wire.Encode(msgType, payload)
	if err != nil {
		p.log.Error("failed to encode broadcast", "type", msgType, "error", err)
		return
	}

	p.mu.Lock()
	for id, client := range p.clients {
		if id == excludeID {
			continue
		}
		if !client.trySend(raw) {
			p.log.Warn("dropping slow client", "client_id", id)
			delete(p.clients, id)
			client.closeSend()
		}
	}
	p.mu.Unlock()
}

// Presences возвращает снимок присутствия всех известных участников
func (p *Project) Presences() []models.PresenceRecord {
	return p.tracker.All()
}

// CurrentVersion возвращает каноническую границу версий проекта
func (p *Project) CurrentVersion() int64 {
	return p.seq.CurrentVersion()
}

// ClientCount возвращает количество подключенных клиентов
func (p *Project) ClientCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.clients)
}
