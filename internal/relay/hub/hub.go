// Package hub реализует центральный секвенсер relay-сервера: по одному
// Project на проект, каждый со своим каноническим логом изменений и
// трекером присутствия. Relay — единственный источник канонического
// порядка версий; клиенты лишь предлагают изменения.
package hub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/framedeck/collab/internal/collab/changelog"
	"github.com/framedeck/collab/internal/collab/presence"
	"github.com/framedeck/collab/internal/relay/storage"
)

// Hub владеет всеми активными проектами
type Hub struct {
	log      *slog.Logger
	store    storage.ChangeStore
	projects map[string]*Project
	mu       sync.Mutex
}

// NewHub создает hub поверх хранилища принятых изменений
func NewHub(store storage.ChangeStore, logger *slog.Logger) *Hub {
	return &Hub{
		log:      logger,
		store:    store,
		projects: make(map[string]*Project),
	}
}

// Project возвращает существующий проект или создает новый,
// восстанавливая канонический лог из хранилища.
func (h *Hub) Project(ctx context.Context, projectID string) (*Project, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.projectLocked(ctx, projectID)
}

// Join атомарно регистрирует клиента в проекте: поиск-или-создание и
// регистрация проходят под одной блокировкой hub'а, поэтому клиент не
// может попасть в проект, который конкурентный Leave уже вернул hub'у.
func (h *Hub) Join(ctx context.Context, projectID string, client *Client) (*Project, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	project, err := h.projectLocked(ctx, projectID)
	if err != nil {
		return nil, err
	}

	client.project = project
	project.Join(client)

	return project, nil
}

// projectLocked выполняет поиск-или-создание под уже взятой h.mu.
// Граница версий восстанавливается из CurrentVersion хранилища —
// авторитетного источника, переживающего рестарты relay.
func (h *Hub) projectLocked(ctx context.Context, projectID string) (*Project, error) {
	if project, ok := h.projects[projectID]; ok {
		return project, nil
	}

	history, err := h.store.ListChanges(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project history: %w", err)
	}

	version, err := h.store.CurrentVersion(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project version: %w", err)
	}

	seq := changelog.NewLog(nil)
	if version > 0 {
		seq.ReplaceAll(history, version)
	}

	project := &Project{
		id:      projectID,
		log:     h.log.With("project_id", projectID),
		store:   h.store,
		seq:     seq,
		tracker: presence.NewTracker(),
		clients: make(map[string]*Client),
	}
	project.release = func() { h.releaseProject(project) }
	h.projects[projectID] = project

	h.log.Info("project activated",
		"project_id", projectID,
		"history_len", len(history),
		"version", version,
	)

	return project, nil
}

// releaseProject убирает проект из реестра, если у него не осталось
// клиентов. Проверка повторяется под h.mu: конкурентный Join, успевший
// раньше, оставляет проект на месте.
func (h *Hub) releaseProject(p *Project) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.projects[p.id] != p || p.ClientCount() != 0 {
		return
	}

	delete(h.projects, p.id)
	h.log.Info("project deactivated", "project_id", p.id)
}

// ProjectCount возвращает количество активных проектов
func (h *Hub) ProjectCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.projects)
}
