package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/framedeck/collab/internal/models"
	"github.com/framedeck/collab/internal/relay/middleware"
	"github.com/framedeck/collab/internal/relay/storage"
	"github.com/framedeck/collab/internal/validation"
)

// ProjectHandler отдает состояние проекта по HTTP: историю изменений
// из хранилища и текущую границу версий. Вебсокет для этого не нужен —
// endpoint'ы используются инструментами и для начальной загрузки.
type ProjectHandler struct {
	logger *slog.Logger
	store  storage.ChangeStore
}

// NewProjectHandler создает handler для read-only endpoint'ов проекта
func NewProjectHandler(logger *slog.Logger, store storage.ChangeStore) *ProjectHandler {
	return &ProjectHandler{
		logger: logger,
		store:  store,
	}
}

// ChangesResponse история изменений проекта
type ChangesResponse struct {
	Changes []models.Change `json:"changes"`
	Version int64           `json:"version"`
}

// Changes обрабатывает GET /api/v1/projects/{projectID}/changes
func (h *ProjectHandler) Changes(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectID"]
	if err := validation.ValidateID(projectID); err != nil {
		http.Error(w, "Invalid project ID", http.StatusBadRequest)
		return
	}

	// токен с привязкой к проекту открывает историю только этого проекта
	if claimed, ok := middleware.GetProjectID(r.Context()); ok && claimed != "" && claimed != projectID {
		http.Error(w, "Forbidden: token issued for another project", http.StatusForbidden)
		return
	}

	changes, err := h.store.ListChanges(r.Context(), projectID)
	if err != nil {
		h.logger.Error("failed to list changes", "error", err, "project_id", projectID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var version int64
	if len(changes) > 0 {
		version = changes[len(changes)-1].Version
	}

	resp := ChangesResponse{
		Changes: changes,
		Version: version,
	}
	if resp.Changes == nil {
		resp.Changes = []models.Change{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode changes response", slog.Any("error", err))
	}
}
