// Package middleware содержит HTTP middleware relay-сервера.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/framedeck/collab/internal/relay/token"
)

// contextKey тип для ключей контекста
type contextKey string

const (
	// ParticipantIDKey ключ для хранения participant_id в контексте
	ParticipantIDKey contextKey = "participant_id"
	// ProjectIDKey ключ для хранения project_id из токена в контексте
	ProjectIDKey contextKey = "project_id"
)

// GetParticipantID извлекает participant_id из контекста запроса
func GetParticipantID(ctx context.Context) (string, bool) {
	participantID, ok := ctx.Value(ParticipantIDKey).(string)
	return participantID, ok
}

// GetProjectID извлекает project_id токена из контекста запроса.
// Пустое значение при ok == true означает токен без привязки к проекту.
func GetProjectID(ctx context.Context) (string, bool) {
	projectID, ok := ctx.Value(ProjectIDKey).(string)
	return projectID, ok
}

// AuthMiddleware создает middleware для проверки JWT токена.
// Токен принимается из заголовка Authorization (Bearer) или из
// query-параметра token: браузерный WebSocket API не умеет
// выставлять заголовки при рукопожатии.
func AuthMiddleware(logger *slog.Logger, cfg token.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				tokenString = r.URL.Query().Get("token")
			}
			if tokenString == "" {
				logger.Warn("missing access token", "path", r.URL.Path)
				http.Error(w, "Unauthorized: missing token", http.StatusUnauthorized)
				return
			}

			claims, err := token.Validate(cfg, tokenString)
			if err != nil {
				logger.Warn("invalid access token", "error", err)
				http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ParticipantIDKey, claims.ParticipantID)
			ctx = context.WithValue(ctx, ProjectIDKey, claims.ProjectID)

			logger.Debug("participant authenticated", "participant_id", claims.ParticipantID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken извлекает токен из заголовка Authorization
func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return parts[1]
}
