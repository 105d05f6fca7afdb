package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/framedeck/collab/internal/models"
	"github.com/framedeck/collab/internal/relay/storage"
)

// SaveChange сохраняет одно принятое изменение проекта.
// Версия внутри проекта уникальна (первичный ключ): гонка двух записей
// за одну версию детерминированно проигрывается второй.
func (s *Storage) SaveChange(ctx context.Context, projectID string, change *models.Change) error {
	query := `
		INSERT INTO changes (
			project_id, version, id, participant_id,
			category, action, payload, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		projectID,
		change.Version,
		change.ID,
		change.ParticipantID,
		string(change.Category),
		string(change.Action),
		[]byte(change.Payload),
		change.CreatedAt.UnixMilli(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: project %s version %d", storage.ErrDuplicateVersion, projectID, change.Version)
		}
		return fmt.Errorf("failed to insert change: %w", err)
	}

	return nil
}

// ListChanges возвращает историю проекта в порядке возрастания версий
func (s *Storage) ListChanges(ctx context.Context, projectID string) ([]models.Change, error) {
	query := `
		SELECT version, id, participant_id, category, action, payload, created_at
		FROM changes
		WHERE project_id = ?
		ORDER BY version ASC
	`

	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query changes: %w", err)
	}
	defer rows.Close()

	var result []models.Change
	for rows.Next() {
		var change models.Change
		var category, action string
		var createdAt int64

		if err := rows.Scan(
			&change.Version,
			&change.ID,
			&change.ParticipantID,
			&category,
			&action,
			&change.Payload,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan change: %w", err)
		}

		change.Category = models.ChangeCategory(category)
		change.Action = models.ChangeAction(action)
		change.CreatedAt = time.UnixMilli(createdAt)
		result = append(result, change)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate changes: %w", err)
	}

	return result, nil
}

// CurrentVersion возвращает границу версий проекта (0 для пустого лога)
func (s *Storage) CurrentVersion(ctx context.Context, projectID string) (int64, error) {
	query := `SELECT COALESCE(MAX(version), 0) FROM changes WHERE project_id = ?`

	var version int64
	err := s.db.QueryRowContext(ctx, query, projectID).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to query current version: %w", err)
	}

	return version, nil
}

// isUniqueViolation распознает нарушение уникальности первичного ключа.
// modernc.org/sqlite не экспортирует типизированные ошибки для constraint
// violations, поэтому сверяемся с текстом.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
