package conn

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

//go:generate go tool moq -out transport_mock.go . Dialer Transport

// Transport одно установленное двунаправленное соединение, доставляющее
// дискретные сообщения в порядке отправки по каждому направлению.
type Transport interface {
	// ReadMessage блокируется до следующего входящего сообщения.
	// Возвращает ошибку при закрытии соединения.
	ReadMessage() ([]byte, error)

	// WriteMessage отправляет одно сообщение.
	WriteMessage(data []byte) error

	// Close закрывает соединение. Идемпотентен.
	Close() error
}

// Dialer открывает транспорт до endpoint синхронизации.
type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Transport, error)
}

// WebsocketDialer производственный Dialer поверх gorilla/websocket.
// Заголовки handshake (в т.ч. Authorization) задаются вызывающей стороной.
type WebsocketDialer struct {
	Header http.Header
}

// Dial открывает websocket-соединение до endpoint.
func (d *WebsocketDialer) Dial(ctx context.Context, endpoint string) (Transport, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, d.Header)
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", endpoint, err)
	}

	return &wsTransport{ws: ws}, nil
}

// wsTransport адаптирует *websocket.Conn под Transport.
// gorilla/websocket допускает не более одного конкурентного писателя,
// поэтому запись сериализуется мьютексом.
type wsTransport struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
}

func (t *wsTransport) ReadMessage() ([]byte, error) {
	_, data, err := t.ws.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("websocket read: %w", err)
	}
	return data, nil
}

func (t *wsTransport) WriteMessage(data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if err := t.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("websocket write: %w", err)
	}
	return nil
}

func (t *wsTransport) Close() error {
	return t.ws.Close()
}
