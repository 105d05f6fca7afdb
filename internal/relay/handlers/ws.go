// Package handlers содержит HTTP и WebSocket обработчики relay-сервера.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/framedeck/collab/internal/models"
	"github.com/framedeck/collab/internal/relay/hub"
	"github.com/framedeck/collab/internal/relay/middleware"
	"github.com/framedeck/collab/internal/validation"
)

// WSHandler поднимает websocket-соединения участников
type WSHandler struct {
	logger *slog.Logger
	hub    *hub.Hub
}

// NewWSHandler создает handler для websocket endpoint
func NewWSHandler(logger *slog.Logger, h *hub.Hub) *WSHandler {
	return &WSHandler{
		logger: logger,
		hub:    h,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// relay не отдает браузерного контента, CSRF через origin неприменим
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS обрабатывает GET /api/v1/projects/{projectID}/ws
// Идентификация участника передается query-параметрами: participant_id
// обязателен, display_name и presence_color опциональны. Когда запрос
// прошел через auth middleware, заявленная идентичность обязана
// совпадать с claims токена — иначе любой валидный токен позволял бы
// выдавать себя за кого угодно.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectID"]
	if err := validation.ValidateID(projectID); err != nil {
		http.Error(w, "Invalid project ID", http.StatusBadRequest)
		return
	}

	participantID := r.URL.Query().Get("participant_id")
	if err := validation.ValidateID(participantID); err != nil {
		http.Error(w, "Invalid participant ID", http.StatusBadRequest)
		return
	}

	if claimed, ok := middleware.GetParticipantID(r.Context()); ok && claimed != participantID {
		h.logger.Warn("participant id does not match token",
			"participant_id", participantID,
			"token_participant_id", claimed,
		)
		http.Error(w, "Forbidden: token issued for another participant", http.StatusForbidden)
		return
	}
	if claimed, ok := middleware.GetProjectID(r.Context()); ok && claimed != "" && claimed != projectID {
		h.logger.Warn("project id does not match token",
			"project_id", projectID,
			"token_project_id", claimed,
		)
		http.Error(w, "Forbidden: token issued for another project", http.StatusForbidden)
		return
	}

	participant := models.Participant{
		ID:            participantID,
		DisplayName:   r.URL.Query().Get("display_name"),
		PresenceColor: r.URL.Query().Get("presence_color"),
	}
	if participant.DisplayName == "" {
		participant.DisplayName = participantID
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам пишет ответ при ошибке рукопожатия
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := hub.NewClient(uuid.New().String(), participant, conn, h.logger)
	if _, err := h.hub.Join(r.Context(), projectID, client); err != nil {
		h.logger.Error("failed to activate project",
			"error", err,
			"project_id", projectID,
		)
		_ = conn.Close()
		return
	}

	// блокируемся до разрыва соединения
	client.Run(r.Context())
}
