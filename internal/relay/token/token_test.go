package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Secret: []byte("test-secret-key"),
		TTL:    time.Hour,
	}
}

func TestGenerateAndValidate(t *testing.T) {
	cfg := testConfig()

	signed, err := Generate(cfg, "alice", "project-1")
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := Validate(cfg, signed)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.ParticipantID)
	assert.Equal(t, "project-1", claims.ProjectID)
	assert.Equal(t, "framedeck-relay", claims.Issuer)
}

func TestValidate_WrongSecret(t *testing.T) {
	signed, err := Generate(testConfig(), "alice", "")
	require.NoError(t, err)

	_, err = Validate(Config{Secret: []byte("other-secret"), TTL: time.Hour}, signed)
	assert.Error(t, err)
}

func TestValidate_Expired(t *testing.T) {
	cfg := testConfig()
	cfg.TTL = -time.Minute

	signed, err := Generate(cfg, "alice", "")
	require.NoError(t, err)

	_, err = Validate(cfg, signed)
	assert.Error(t, err)
}

func TestValidate_Garbage(t *testing.T) {
	_, err := Validate(testConfig(), "not.a.token")
	assert.Error(t, err)
}
