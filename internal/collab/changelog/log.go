// Package changelog реализует append-only версионированный лог принятых
// изменений с детекцией конфликтов по границе версий (version frontier).
package changelog

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/framedeck/collab/internal/models"
)

// Log упорядоченная последовательность принятых изменений.
//
// Инварианты:
//   - версии соседних принятых изменений строго возрастают;
//   - CurrentVersion равна версии последнего принятого изменения,
//     0 для пустого лога.
//
// Потокобезопасен; принадлежит ровно одной сессии и никогда не разделяется.
type Log struct {
	resolver Resolver
	changes  []models.Change
	version  int64
	mu       sync.RWMutex
}

// NewLog создает пустой лог с указанной стратегией разрешения конфликтов.
// При nil используется LastWriteWins.
func NewLog(resolver Resolver) *Log {
	if resolver == nil {
		resolver = LastWriteWins{}
	}
	return &Log{resolver: resolver}
}

// ProposeLocal принимает локальный черновик изменения: присваивает новый ID
// и версию currentVersion+1, дописывает в лог и возвращает собранный Change.
// Этот путь по построению бесконфликтен — лог сам источник следующей версии.
func (l *Log) ProposeLocal(participantID string, draft models.ChangeDraft) models.Change {
	l.mu.Lock()
	defer l.mu.Unlock()

	change := models.Change{
		ID:            ulid.Make().String(),
		ParticipantID: participantID,
		CreatedAt:     time.Now(),
		Category:      draft.Category,
		Action:        draft.Action,
		Payload:       draft.Payload,
		Version:       l.version + 1,
	}

	l.changes = append(l.changes, *change.Clone())
	l.version = change.Version

	return change
}

// ReceiveRemote пытается принять удаленное изменение против текущей границы
// версий. Версия выше границы — изменение принимается и граница сдвигается.
// Версия на границе или ниже означает, что отправитель строил изменение на
// устаревшей истории: принять его значило бы молча нарушить инвариант строгого
// возрастания, поэтому лог не мутируется, а резолвер возвращает решение.
func (l *Log) ReceiveRemote(change models.Change) (bool, *models.ConflictDecision) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if change.Version > l.version {
		l.changes = append(l.changes, *change.Clone())
		l.version = change.Version
		return true, nil
	}

	decision := l.resolver.Resolve(change, l.version)
	return false, &decision
}

// ReplaceAll целиком заменяет содержимое лога авторитетной копией.
// Используется для полного ресинка после переподключения; повалидационная
// проверка каждого изменения пропускается — отправитель авторитетен.
func (l *Log) ReplaceAll(changes []models.Change, version int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.changes = make([]models.Change, 0, len(changes))
	for i := range changes {
		l.changes = append(l.changes, *changes[i].Clone())
	}
	l.version = version
}

// Changes возвращает снимок принятой истории в порядке принятия.
func (l *Log) Changes() []models.Change {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]models.Change, 0, len(l.changes))
	for i := range l.changes {
		result = append(result, *l.changes[i].Clone())
	}

	return result
}

// CurrentVersion возвращает текущую границу версий.
func (l *Log) CurrentVersion() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.version
}

// Len возвращает количество принятых изменений.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.changes)
}

// Resolve прогоняет изменение через стратегию лога, не трогая историю.
// Используется диспетчером для конфликтов, о которых сообщил секвенсер.
func (l *Log) Resolve(change models.Change, localVersion int64) models.ConflictDecision {
	return l.resolver.Resolve(change, localVersion)
}
