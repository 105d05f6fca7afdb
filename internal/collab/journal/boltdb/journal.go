// Package boltdb реализует журнал изменений поверх BoltDB.
package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/framedeck/collab/internal/collab/journal"
	"github.com/framedeck/collab/internal/models"
)

var (
	// changesBucket хранит принятые изменения, ключ — версия big-endian:
	// курсор обходит записи в порядке возрастания версий
	changesBucket = []byte("changes")
)

// Journal представляет BoltDB-реализацию журнала изменений
type Journal struct {
	db *bbolt.DB
}

// New открывает журнал по указанному пути.
func New(ctx context.Context, dbPath string) (*Journal, error) {
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	j := &Journal{db: db}

	if err := j.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return j, nil
}

// Close закрывает журнал
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

func (j *Journal) initBuckets() error {
	return j.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(changesBucket); err != nil {
			return fmt.Errorf("failed to create changes bucket: %w", err)
		}
		return nil
	})
}

// Append дописывает одно принятое изменение
func (j *Journal) Append(ctx context.Context, change *models.Change) error {
	if j.db == nil {
		return journal.ErrClosed
	}

	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to marshal change: %w", err)
	}

	err = j.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(changesBucket)
		if err := bucket.Put(versionKey(change.Version), data); err != nil {
			return fmt.Errorf("failed to save change: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

// Replace целиком заменяет содержимое журнала авторитетной копией
func (j *Journal) Replace(ctx context.Context, changes []models.Change) error {
	if j.db == nil {
		return journal.ErrClosed
	}

	err := j.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(changesBucket); err != nil {
			return fmt.Errorf("failed to drop changes bucket: %w", err)
		}

		bucket, err := tx.CreateBucket(changesBucket)
		if err != nil {
			return fmt.Errorf("failed to recreate changes bucket: %w", err)
		}

		for i := range changes {
			data, err := json.Marshal(&changes[i])
			if err != nil {
				return fmt.Errorf("failed to marshal change: %w", err)
			}
			if err := bucket.Put(versionKey(changes[i].Version), data); err != nil {
				return fmt.Errorf("failed to save change: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

// List возвращает все изменения в порядке возрастания версий
func (j *Journal) List(ctx context.Context) ([]models.Change, error) {
	if j.db == nil {
		return nil, journal.ErrClosed
	}

	var result []models.Change

	err := j.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(changesBucket)
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			var change models.Change
			if err := json.Unmarshal(v, &change); err != nil {
				return fmt.Errorf("failed to unmarshal change: %w", err)
			}
			result = append(result, change)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list changes: %w", err)
	}

	return result, nil
}

// versionKey кодирует версию в big-endian для порядкового обхода
func versionKey(version int64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(version))
	return key
}
