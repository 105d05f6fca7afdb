package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framedeck/collab/internal/relay/token"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func authConfig() token.Config {
	return token.Config{
		Secret: []byte("test-secret"),
		TTL:    time.Hour,
	}
}

func protectedEcho(t *testing.T) http.Handler {
	t.Helper()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		participantID, ok := GetParticipantID(r.Context())
		require.True(t, ok, "participant_id must be set in context")
		_, _ = w.Write([]byte(participantID))
	})
}

func TestAuthMiddleware_BearerHeader(t *testing.T) {
	cfg := authConfig()
	signed, err := token.Generate(cfg, "alice", "project-1")
	require.NoError(t, err)

	handler := AuthMiddleware(testLogger(), cfg)(protectedEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects/project-1/changes", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())
}

func TestAuthMiddleware_QueryToken(t *testing.T) {
	cfg := authConfig()
	signed, err := token.Generate(cfg, "bob", "")
	require.NoError(t, err)

	handler := AuthMiddleware(testLogger(), cfg)(protectedEcho(t))

	// браузерный websocket не умеет заголовки, токен идет в query
	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects/p/ws?token="+signed, nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bob", w.Body.String())
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	cfg := authConfig()

	expired := cfg
	expired.TTL = -time.Minute
	expiredToken, err := token.Generate(expired, "alice", "")
	require.NoError(t, err)

	otherSecret, err := token.Generate(token.Config{Secret: []byte("other"), TTL: time.Hour}, "alice", "")
	require.NoError(t, err)

	tests := []struct {
		name    string
		prepare func(r *http.Request)
	}{
		{
			name:    "no token at all",
			prepare: func(r *http.Request) {},
		},
		{
			name: "malformed header",
			prepare: func(r *http.Request) {
				r.Header.Set("Authorization", "Token abc")
			},
		},
		{
			name: "expired token",
			prepare: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+expiredToken)
			},
		},
		{
			name: "wrong secret",
			prepare: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+otherSecret)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := AuthMiddleware(testLogger(), cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
			tt.prepare(req)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.False(t, called, "protected handler must not run")
		})
	}
}
