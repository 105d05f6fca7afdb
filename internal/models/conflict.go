package models

import "encoding/json"

// ConflictStrategy стратегия разрешения конфликта версий
type ConflictStrategy string

const (
	// StrategyLastWriteWins номинальным победителем объявляется автор
	// входящего (более позднего) изменения
	StrategyLastWriteWins ConflictStrategy = "last-write-wins"
	// StrategyFirstWriteWins побеждает уже принятая локальная история
	StrategyFirstWriteWins ConflictStrategy = "first-write-wins"
	// StrategyMerge конфликтующие payload объединяются
	StrategyMerge ConflictStrategy = "merge"
	// StrategyManual разрешение откладывается до ручного вмешательства
	StrategyManual ConflictStrategy = "manual"
)

// ConflictDecision результат разрешения конфликта версий. Это чистое
// значение-рекомендация для слушателей: ядро само ничего не переприменяет
// и не откатывает. Решение не персистится.
type ConflictDecision struct {
	Strategy             ConflictStrategy `json:"strategy"`
	WinningParticipantID string           `json:"winning_participant_id,omitempty"`
	MergedPayload        json.RawMessage  `json:"merged_payload,omitempty"`
}
