// Package wire определяет транспортно-независимый конверт сообщений,
// общий для клиентского ядра и relay-сервера. Любой транспорт, доставляющий
// дискретные сообщения в порядке отправки по каждому направлению,
// удовлетворяет контракту.
package wire

import (
	"encoding/json"
	"fmt"

	"github.com/framedeck/collab/internal/models"
)

// Известные типы сообщений
const (
	TypePresence  = "presence"
	TypeChange    = "change"
	TypeSync      = "sync"
	TypeConflict  = "conflict"
	TypeHeartbeat = "heartbeat"
)

// Message конверт сообщения: тип плюс типоспецифичный payload.
// Data остается сырым JSON до диспетчеризации по типу.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// SyncRequest исходящий запрос синхронизации с локальной версией клиента
type SyncRequest struct {
	Version int64 `json:"version"`
}

// SyncState авторитетная копия лога изменений, присылаемая сервером
// в ответ на SyncRequest или при подключении
type SyncState struct {
	Changes []models.Change `json:"changes"`
	Version int64           `json:"version"`
}

// ConflictNotice уведомление секвенсера об отклоненном изменении.
// Приходит только входящим сообщением, отправителю устаревшего изменения.
type ConflictNotice struct {
	Change       models.Change `json:"change"`
	LocalVersion int64         `json:"local_version"`
}

// Heartbeat сигнал живости соединения; ответ не требуется
type Heartbeat struct {
	Timestamp int64 `json:"timestamp"`
}

// Encode собирает конверт с указанным типом и сериализованным payload.
func Encode(msgType string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", msgType, err)
	}

	raw, err := json.Marshal(Message{Type: msgType, Data: data})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}

	return raw, nil
}

// Decode разбирает сырое сообщение в конверт. Payload не разбирается:
// его интерпретация откладывается до диспетчеризации по типу.
// Сообщение без типа считается структурно некорректным.
func Decode(raw []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}

	if msg.Type == "" {
		return nil, fmt.Errorf("message has no type")
	}

	return &msg, nil
}
