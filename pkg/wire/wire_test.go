package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	raw, err := Encode(TypeSync, SyncRequest{Version: 7})
	require.NoError(t, err)

	msg, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, TypeSync, msg.Type)
	assert.JSONEq(t, `{"version":7}`, string(msg.Data))
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: "not json at all"},
		{name: "empty object", raw: "{}"},
		{name: "missing type", raw: `{"data":{"version":1}}`},
		{name: "wrong type kind", raw: `{"type":42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte(tt.raw))
			require.Error(t, err)
			assert.Nil(t, msg)
		})
	}
}

func TestDecode_UnknownTypePreserved(t *testing.T) {
	// Неизвестный тип — не ошибка декодирования: решение о дропе
	// принимает диспетчер, а не парсер
	msg, err := Decode([]byte(`{"type":"telemetry","data":{}}`))
	require.NoError(t, err)
	assert.Equal(t, "telemetry", msg.Type)
}
