// Package journal определяет локальный журнал принятых изменений.
// Ядро только трекает версии и историю в памяти; журнал — интерфейс,
// через который хост-процесс может сбрасывать принятую историю в
// долговременное хранилище.
package journal

import (
	"context"
	"errors"

	"github.com/framedeck/collab/internal/models"
)

// Ошибки журнала
var (
	// ErrClosed журнал закрыт
	ErrClosed = errors.New("journal is closed")
)

//go:generate go tool moq -out journal_mock.go . Journal

// Journal хранит принятые изменения одной сессии в порядке версий.
type Journal interface {
	// Append дописывает одно принятое изменение
	Append(ctx context.Context, change *models.Change) error

	// Replace целиком заменяет содержимое журнала (полный ресинк)
	Replace(ctx context.Context, changes []models.Change) error

	// List возвращает все изменения в порядке возрастания версий
	List(ctx context.Context) ([]models.Change, error)

	// Close закрывает журнал
	Close() error
}
