// Package eventbus реализует типизированный publish/subscribe реестр,
// через который ядро уведомляет приложение-хост о событиях сессии,
// не зная своих подписчиков.
package eventbus

import (
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/framedeck/collab/internal/models"
)

// Kind вид события. Подписки регистрируются по виду, что дает
// compile-time гарантию формы payload для каждого вида.
type Kind int

const (
	KindPresence Kind = iota
	KindChange
	KindSync
	KindConflict
	KindError
)

// String возвращает имя вида события для логов.
func (k Kind) String() string {
	switch k {
	case KindPresence:
		return "presence"
	case KindChange:
		return "change"
	case KindSync:
		return "sync"
	case KindConflict:
		return "conflict"
	case KindError:
		return "error"
	}
	return "unknown"
}

// Event общий интерфейс событий шины (tagged union)
type Event interface {
	Kind() Kind
}

// PresenceEvent запись присутствия принята диспетчером сессии
type PresenceEvent struct {
	Record models.PresenceRecord
}

func (PresenceEvent) Kind() Kind { return KindPresence }

// ChangeEvent удаленное изменение принято в локальный лог
type ChangeEvent struct {
	Change models.Change
}

func (ChangeEvent) Kind() Kind { return KindChange }

// SyncEvent лог заменен авторитетной копией
type SyncEvent struct {
	Changes []models.Change
	Version int64
}

func (SyncEvent) Kind() Kind { return KindSync }

// ConflictEvent обнаружен конфликт версий; решение — рекомендация,
// ядро ничего не переприменяет
type ConflictEvent struct {
	Change   models.Change
	Decision models.ConflictDecision
}

func (ConflictEvent) Kind() Kind { return KindConflict }

// ErrorEvent ошибка соединения, пережившая бюджет переподключений
type ErrorEvent struct {
	Err error
}

func (ErrorEvent) Kind() Kind { return KindError }

// Bus реестр подписчиков по видам событий. Доставка синхронная,
// в порядке подписки; каждая инвокация слушателя изолирована —
// паника одного слушателя логируется и не мешает остальным.
type Bus struct {
	logger    *slog.Logger
	listeners map[Kind]map[uint64]func(Event)
	nextID    uint64
	mu        sync.RWMutex
}

// New создает пустую шину событий.
func New(logger *slog.Logger) *Bus {
	return &Bus{
		logger:    logger,
		listeners: make(map[Kind]map[uint64]func(Event)),
	}
}

// Subscribe регистрирует слушателя на события указанного вида.
// Возвращает функцию отписки; отписка идемпотентна.
func (b *Bus) Subscribe(kind Kind, fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID

	if b.listeners[kind] == nil {
		b.listeners[kind] = make(map[uint64]func(Event))
	}
	b.listeners[kind][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.listeners[kind], id)
	}
}

// Publish доставляет событие всем слушателям его вида.
// Снимок слушателей берется под RLock, вызовы идут вне блокировки:
// слушатель может подписываться и отписываться из собственного колбэка.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	snapshot := make([]func(Event), 0, len(b.listeners[ev.Kind()]))
	for _, fn := range b.listeners[ev.Kind()] {
		snapshot = append(snapshot, fn)
	}
	b.mu.RUnlock()

	for _, fn := range snapshot {
		b.invoke(ev, fn)
	}
}

// invoke вызывает одного слушателя, перехватывая панику
func (b *Bus) invoke(ev Event, fn func(Event)) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event listener panicked",
				"kind", ev.Kind().String(),
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()

	fn(ev)
}
