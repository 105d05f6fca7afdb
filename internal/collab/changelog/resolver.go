package changelog

import (
	"encoding/json"

	"github.com/framedeck/collab/internal/models"
)

// Resolver отображает конфликтующее входящее изменение и локальную версию
// в решение. Чистая функция без побочных эффектов: решение — рекомендация
// для приложения-хоста, лог оно не мутирует. Реализации взаимозаменяемы,
// ChangeLog от конкретной стратегии не зависит.
type Resolver interface {
	Resolve(incoming models.Change, localVersion int64) models.ConflictDecision
}

// LastWriteWins стратегия по умолчанию: номинальным победителем объявляется
// автор входящего изменения (оно создано позже по его собственным часам).
// Изменение при этом не переприменяется — хост решает, что делать:
// перечитать полное состояние, показать merge UI или молча проигнорировать.
type LastWriteWins struct{}

// Resolve возвращает решение last-write-wins.
func (LastWriteWins) Resolve(incoming models.Change, _ int64) models.ConflictDecision {
	return models.ConflictDecision{
		Strategy:             models.StrategyLastWriteWins,
		WinningParticipantID: incoming.ParticipantID,
	}
}

// FirstWriteWins альтернативная стратегия: побеждает уже принятая локальная
// история, победитель-участник не назначается.
type FirstWriteWins struct{}

// Resolve возвращает решение first-write-wins.
func (FirstWriteWins) Resolve(models.Change, int64) models.ConflictDecision {
	return models.ConflictDecision{
		Strategy: models.StrategyFirstWriteWins,
	}
}

// MergeFunc объединяет payload конфликтующего изменения с локальным
// состоянием в новый payload. Семантика объединения — забота домена.
type MergeFunc func(incoming models.Change, localVersion int64) json.RawMessage

// Merge стратегия с доменной функцией объединения payload.
type Merge struct {
	Combine MergeFunc
}

// Resolve возвращает решение merge с объединенным payload.
func (m Merge) Resolve(incoming models.Change, localVersion int64) models.ConflictDecision {
	decision := models.ConflictDecision{
		Strategy:             models.StrategyMerge,
		WinningParticipantID: incoming.ParticipantID,
	}
	if m.Combine != nil {
		decision.MergedPayload = m.Combine(incoming, localVersion)
	}
	return decision
}

// Manual стратегия, откладывающая разрешение до ручного вмешательства.
type Manual struct{}

// Resolve возвращает решение manual.
func (Manual) Resolve(models.Change, int64) models.ConflictDecision {
	return models.ConflictDecision{
		Strategy: models.StrategyManual,
	}
}
