package models

import "time"

// PresenceStatus статус участника в сессии
type PresenceStatus string

const (
	// PresenceActive участник активен (редактирует прямо сейчас)
	PresenceActive PresenceStatus = "active"
	// PresenceIdle участник подключен, но неактивен
	PresenceIdle PresenceStatus = "idle"
	// PresenceOffline участник отключился; запись остается как последняя известная
	PresenceOffline PresenceStatus = "offline"
)

// Valid проверяет, что статус является одним из известных значений.
func (s PresenceStatus) Valid() bool {
	switch s {
	case PresenceActive, PresenceIdle, PresenceOffline:
		return true
	}
	return false
}

// Point позиция курсора участника в координатах рабочей области
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Selection выделение участника: сущность проекта и диапазон внутри нее
type Selection struct {
	EntityID   string `json:"entity_id"`
	RangeStart int64  `json:"range_start"`
	RangeEnd   int64  `json:"range_end"`
}

// PresenceRecord представляет последнее известное состояние присутствия
// участника. Запись эфемерна и при каждом обновлении от участника
// перезаписывается целиком (без помердживания отдельных полей).
// Записи никогда не удаляются: статус offline остается как последняя
// известная запись, фильтрация — забота вызывающей стороны.
type PresenceRecord struct {
	LastSeenAt    time.Time      `json:"last_seen_at"`
	ParticipantID string         `json:"participant_id"`
	Participant   Participant    `json:"participant"`
	Cursor        *Point         `json:"cursor,omitempty"`
	Selection     *Selection     `json:"selection,omitempty"`
	Status        PresenceStatus `json:"status"`
}

// Clone создает глубокую копию записи присутствия
func (r *PresenceRecord) Clone() *PresenceRecord {
	out := *r
	if r.Cursor != nil {
		cursor := *r.Cursor
		out.Cursor = &cursor
	}
	if r.Selection != nil {
		selection := *r.Selection
		out.Selection = &selection
	}
	return &out
}
