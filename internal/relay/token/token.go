// Package token выпускает и проверяет JWT-токены доступа к проектам.
// Relay доверяет токенам, подписанным общим секретом: выпуск обычно
// происходит на основном backend'е, здесь он нужен для инструментов
// и тестов.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims представляет JWT claims токена доступа
type Claims struct {
	ParticipantID string `json:"participant_id"`
	ProjectID     string `json:"project_id,omitempty"`
	jwt.RegisteredClaims
}

// Config содержит конфигурацию для подписи и проверки токенов
type Config struct {
	Secret []byte
	TTL    time.Duration
}

// Generate создает подписанный токен доступа участника.
// Пустой projectID означает доступ ко всем проектам.
func Generate(cfg Config, participantID, projectID string) (string, error) {
	now := time.Now()

	claims := Claims{
		ParticipantID: participantID,
		ProjectID:     projectID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "framedeck-relay",
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Validate проверяет подпись и срок действия токена
func Validate(cfg Config, tokenString string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return cfg.Secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := tok.Claims.(*Claims); ok && tok.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
