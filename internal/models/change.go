package models

import (
	"encoding/json"
	"time"
)

// ChangeCategory категория изменения. Значения задаются доменом
// вызывающей стороны и непрозрачны для ядра синхронизации.
type ChangeCategory string

const (
	CategoryStructuralA ChangeCategory = "structural-a"
	CategoryStructuralB ChangeCategory = "structural-b"
	CategoryStructuralC ChangeCategory = "structural-c"
	CategoryStructuralD ChangeCategory = "structural-d"
)

// ChangeAction тип операции, которую описывает изменение
type ChangeAction string

const (
	ActionCreate ChangeAction = "create"
	ActionUpdate ChangeAction = "update"
	ActionDelete ChangeAction = "delete"
	ActionBatch  ChangeAction = "batch"
)

// Change представляет одно дискретное версионированное изменение общего
// документа. Payload непрозрачен для ядра: его интерпретация — забота
// вызывающей стороны. Запись неизменяема после создания.
//
// Version присваивается принимающей стороной (локальный лог для исходящих
// изменений, центральный секвенсер для канонического порядка) и строго
// возрастает внутри одного лога.
type Change struct {
	CreatedAt     time.Time       `json:"created_at"`
	ID            string          `json:"id"` // ID уникальный идентификатор изменения (ULID)
	ParticipantID string          `json:"participant_id"`
	Category      ChangeCategory  `json:"category"`
	Action        ChangeAction    `json:"action"`
	Payload       json.RawMessage `json:"payload"`
	Version       int64           `json:"version"`
}

// Clone создает глубокую копию изменения
func (c *Change) Clone() *Change {
	out := *c
	if c.Payload != nil {
		payload := make(json.RawMessage, len(c.Payload))
		copy(payload, c.Payload)
		out.Payload = payload
	}
	return &out
}

// ChangeDraft описывает изменение до принятия в лог: без ID, версии и
// автора. Полноценный Change из него собирает принимающая сторона.
type ChangeDraft struct {
	Category ChangeCategory  `json:"category"`
	Action   ChangeAction    `json:"action"`
	Payload  json.RawMessage `json:"payload"`
}
