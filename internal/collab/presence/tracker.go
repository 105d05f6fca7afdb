// Package presence содержит latest-wins хранилище записей присутствия
// участников, ключованное по идентификатору участника.
package presence

import (
	"sync"
	"time"

	"github.com/framedeck/collab/internal/models"
)

// Tracker хранит последнюю известную запись присутствия каждого участника.
// Чистая структура данных без I/O; потокобезопасна.
type Tracker struct {
	records map[string]*models.PresenceRecord
	mu      sync.RWMutex
}

// NewTracker создает пустой трекер присутствия.
func NewTracker() *Tracker {
	return &Tracker{
		records: make(map[string]*models.PresenceRecord),
	}
}

// Upsert целиком заменяет запись для record.ParticipantID.
// Помердживания полей нет: каждое обновление присутствия — полный снимок.
func (t *Tracker) Upsert(record *models.PresenceRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.records[record.ParticipantID] = record.Clone()
}

// Get возвращает последнюю известную запись участника.
// Возвращает nil, если участник ни разу не объявлял присутствие.
func (t *Tracker) Get(participantID string) *models.PresenceRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	record, exists := t.records[participantID]
	if !exists {
		return nil
	}

	return record.Clone()
}

// All возвращает снимок всех текущих записей.
// Порядок не специфицирован — вызывающие не должны на него полагаться.
func (t *Tracker) All() []models.PresenceRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]models.PresenceRecord, 0, len(t.records))
	for _, record := range t.records {
		result = append(result, *record.Clone())
	}

	return result
}

// Active возвращает участников со статусом active. При ненулевом staleAfter
// записи, не обновлявшиеся дольше этого порога, считаются неявно offline и
// отфильтровываются: ядро само статусы не переписывает, политика устаревания
// остается конфигурационной ручкой вызывающей стороны.
func (t *Tracker) Active(staleAfter time.Duration) []models.Participant {
	t.mu.RLock()
	defer t.mu.RUnlock()

	now := time.Now()

	result := make([]models.Participant, 0, len(t.records))
	for _, record := range t.records {
		if record.Status != models.PresenceActive {
			continue
		}
		if staleAfter > 0 && now.Sub(record.LastSeenAt) > staleAfter {
			continue
		}
		result = append(result, record.Participant)
	}

	return result
}

// Size возвращает количество известных участников.
func (t *Tracker) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.records)
}
