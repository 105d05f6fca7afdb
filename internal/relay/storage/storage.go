// Package storage определяет интерфейс персистентности relay-сервера.
// Хранится только принятая история изменений: ресинк клиентов должен
// переживать рестарт relay.
package storage

import (
	"context"
	"errors"

	"github.com/framedeck/collab/internal/models"
)

// Ошибки хранилища
var (
	// ErrDuplicateVersion версия уже занята в логе проекта
	ErrDuplicateVersion = errors.New("change version already exists")
)

//go:generate go tool moq -out changestore_mock.go . ChangeStore

// ChangeStore хранит принятые изменения по проектам
type ChangeStore interface {
	// SaveChange сохраняет одно принятое изменение проекта.
	// Возвращает ErrDuplicateVersion при попытке занять занятую версию.
	SaveChange(ctx context.Context, projectID string, change *models.Change) error

	// ListChanges возвращает историю проекта в порядке возрастания версий
	ListChanges(ctx context.Context, projectID string) ([]models.Change, error)

	// CurrentVersion возвращает границу версий проекта (0 для пустого лога)
	CurrentVersion(ctx context.Context, projectID string) (int64, error)

	// Close закрывает хранилище
	Close() error
}
