package hub

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/framedeck/collab/internal/models"
	"github.com/framedeck/collab/pkg/wire"
)

const (
	// writeWait максимальное время на запись одного сообщения
	writeWait = 10 * time.Second

	// pongWait время ожидания pong от клиента
	pongWait = 60 * time.Second

	// pingPeriod период отправки ping; должен быть меньше pongWait
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize лимит размера входящего сообщения
	maxMessageSize = 64 * 1024

	// sendBufferSize емкость буфера исходящих сообщений клиента
	sendBufferSize = 256
)

// Client одно websocket-соединение участника проекта.
// Несколько соединений одного участника (несколько вкладок) — это
// несколько клиентов с общим participantID.
type Client struct {
	id            string
	participantID string
	participant   models.Participant
	project       *Project
	log           *slog.Logger
	conn          *websocket.Conn
	send          chan []byte

	sendMu sync.Mutex
	closed bool
}

// NewClient создает клиента поверх установленного websocket-соединения.
// К проекту клиент привязывается в Hub.Join.
func NewClient(id string, participant models.Participant, conn *websocket.Conn, logger *slog.Logger) *Client {
	return &Client{
		id:            id,
		participantID: participant.ID,
		participant:   participant,
		log:           logger.With("client_id", id, "participant_id", participant.ID),
		conn:          conn,
		send:          make(chan []byte, sendBufferSize),
	}
}

// trySend ставит сообщение в очередь отправки без блокировки.
// false означает закрытую очередь или переполненный буфер; что с этим
// делать — решает вызывающая сторона (broadcastPayload снимает такого
// клиента с учета, enqueue просто теряет сообщение).
func (c *Client) trySend(raw []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- raw:
		return true
	default:
		return false
	}
}

// closeSend закрывает очередь отправки. Идемпотентен: клиента могут
// снимать с учета одновременно Leave из read pump и broadcastPayload,
// заметивший переполнение.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// enqueue отправляет сообщение одному клиенту, молча теряя его при
// переполнении: соединение доживает до следующего широковещательного
// прохода, который и решит его судьбу.
func (c *Client) enqueue(raw []byte) {
	c.trySend(raw)
}

// Run запускает насосы чтения и записи и блокируется до разрыва
// соединения. По выходу клиент гарантированно снят с учета проекта.
func (c *Client) Run(ctx context.Context) {
	go c.writePump()
	c.readPump(ctx)
}

// readPump читает входящие сообщения и передает их проекту.
// Некорректный кадр не рвет соединение, ошибка чтения — рвет.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.project.Leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("unexpected close", "error", err)
			}
			return
		}

		msg, err := wire.Decode(raw)
		if err != nil {
			c.log.Warn("malformed message dropped", "error", err)
			continue
		}

		c.project.HandleMessage(ctx, c, msg)
	}
}

// writePump пишет исходящие сообщения и поддерживает ping/pong.
// Закрытие канала send означает снятие клиента с учета.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case raw, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				c.log.Warn("write failed", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
