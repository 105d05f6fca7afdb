// Package conn владеет логическим соединением с endpoint синхронизации:
// установка, heartbeat, переподключение с экспоненциальной задержкой,
// доставка входящих сообщений диспетчеру. Вся churn переподключений
// скрыта от вызывающей стороны.
package conn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/framedeck/collab/pkg/wire"
)

// State состояние машины соединения
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StatePermanentlyFailed
)

// String возвращает имя состояния для логов.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StatePermanentlyFailed:
		return "permanently_failed"
	}
	return "unknown"
}

// Ошибки соединения
var (
	// ErrNotDisconnected соединение уже устанавливается или установлено
	ErrNotDisconnected = errors.New("connection is not in disconnected state")
	// ErrReconnectExhausted бюджет попыток переподключения исчерпан
	ErrReconnectExhausted = errors.New("reconnect attempts exhausted")
)

// Config параметры соединения. Нулевые значения заменяются дефолтами.
type Config struct {
	// ConnectTimeout ограничивает ожидание handshake (по умолчанию 10s)
	ConnectTimeout time.Duration
	// HeartbeatInterval период ping живости (по умолчанию 30s)
	HeartbeatInterval time.Duration
	// ReconnectBaseDelay база экспоненциальной задержки (по умолчанию 1s):
	// задержка перед попыткой n равна base * 2^(n-1)
	ReconnectBaseDelay time.Duration
	// MaxReconnectAttempts бюджет попыток переподключения (по умолчанию 5)
	MaxReconnectAttempts int
}

func (c Config) withDefaults() Config {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 30 * time.Second
	}
	if c.ReconnectBaseDelay <= 0 {
		c.ReconnectBaseDelay = time.Second
	}
	if c.MaxReconnectAttempts <= 0 {
		c.MaxReconnectAttempts = 5
	}
	return c
}

// Manager поддерживает ровно одно логическое соединение для пары
// (projectID, participantID).
//
// Переходы: Disconnected -> Connecting -> Connected -> (неожиданное
// закрытие) -> Reconnecting -> Connecting -> Connected | PermanentlyFailed.
// Явный Disconnect из любого состояния ведет в Disconnected без
// автопереподключения.
//
// Гонка между отменой и уже сработавшим таймером закрыта счетчиком
// поколений: Disconnect и новый Connect инкрементируют generation,
// каждый отложенный колбэк сверяет свое поколение перед действием.
type Manager struct {
	cfg      Config
	logger   *slog.Logger
	dialer   Dialer
	dispatch func(*wire.Message)
	onError  func(error)

	mu            sync.Mutex
	state         State
	transport     Transport
	endpoint      string
	generation    uint64
	stopC         chan struct{}
	onReconnected func()
}

// NewManager создает менеджер соединения.
// dispatch получает каждое декодированное входящее сообщение; onError
// вызывается при исчерпании бюджета переподключений. Оба опциональны.
func NewManager(cfg Config, dialer Dialer, dispatch func(*wire.Message), onError func(error), logger *slog.Logger) *Manager {
	return &Manager{
		cfg:      cfg.withDefaults(),
		logger:   logger,
		dialer:   dialer,
		dispatch: dispatch,
		onError:  onError,
		state:    StateDisconnected,
	}
}

// OnReconnected регистрирует колбэк, вызываемый после успешного
// автопереподключения. Первичный Connect его не вызывает: вызывающая
// сторона и так знает, что только что подключилась. Нужен сессии, чтобы
// заново объявить присутствие — relay уже разослал offline при разрыве.
func (m *Manager) OnReconnected(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReconnected = fn
}

// State возвращает текущее состояние машины соединения.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connect устанавливает соединение с endpoint. Блокирует вызывающего до
// завершения handshake, но не дольше ConnectTimeout. Ошибка первичного
// подключения возвращается синхронно, цикл переподключения не запускается —
// решение о повторе первичного Connect принимает вызывающая сторона.
func (m *Manager) Connect(ctx context.Context, endpoint string) error {
	m.mu.Lock()
	if m.state != StateDisconnected && m.state != StatePermanentlyFailed {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotDisconnected, m.state)
	}

	m.generation++
	gen := m.generation
	m.state = StateConnecting
	m.endpoint = endpoint
	m.stopC = make(chan struct{})
	m.mu.Unlock()

	transport, err := m.dial(ctx)
	if err != nil {
		m.mu.Lock()
		if m.generation == gen {
			m.state = StateDisconnected
		}
		m.mu.Unlock()
		return fmt.Errorf("connect failed: %w", err)
	}

	if !m.adopt(gen, transport) {
		// Disconnect успел сработать, пока шел handshake
		_ = transport.Close()
		return fmt.Errorf("connect failed: connection cancelled")
	}

	return nil
}

// Disconnect разрывает соединение и остается в Disconnected.
// Отменяет heartbeat и любой ожидающий таймер переподключения синхронно:
// после возврата ни одна отложенная попытка подключения не выполнится.
// Идемпотентен.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.generation++
	if m.stopC != nil {
		close(m.stopC)
		m.stopC = nil
	}
	transport := m.transport
	m.transport = nil
	m.state = StateDisconnected
	m.mu.Unlock()

	if transport != nil {
		_ = transport.Close()
	}
}

// Send отправляет сообщение указанного типа, если соединение установлено;
// иначе молча дропает. Буферизации нет — намеренная at-most-once,
// best-effort политика, не надежная очередь.
func (m *Manager) Send(msgType string, payload any) {
	m.mu.Lock()
	transport := m.transport
	connected := m.state == StateConnected
	m.mu.Unlock()

	if !connected || transport == nil {
		m.logger.Debug("send dropped: not connected", "type", msgType)
		return
	}

	raw, err := wire.Encode(msgType, payload)
	if err != nil {
		m.logger.Warn("send dropped: encode failed", "type", msgType, "error", err)
		return
	}

	if err := transport.WriteMessage(raw); err != nil {
		// Разрыв заметит read loop; здесь только логируем
		m.logger.Warn("send failed", "type", msgType, "error", err)
	}
}

// dial открывает транспорт с таймаутом handshake.
func (m *Manager) dial(ctx context.Context) (Transport, error) {
	dialCtx, cancel := context.WithTimeout(ctx, m.cfg.ConnectTimeout)
	defer cancel()

	return m.dialer.Dial(dialCtx, m.endpoint)
}

// adopt публикует установленный транспорт и запускает его циклы.
// Возвращает false, если поколение успело смениться (гонка с Disconnect).
func (m *Manager) adopt(gen uint64, transport Transport) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generation != gen {
		return false
	}

	m.transport = transport
	m.state = StateConnected

	go m.readLoop(gen, transport)
	go m.heartbeatLoop(gen, transport)

	return true
}

// readLoop читает входящие сообщения до разрыва транспорта.
// Некорректные сообщения логируются и дропаются — один сломанный пир
// не должен ронять сессию.
func (m *Manager) readLoop(gen uint64, transport Transport) {
	for {
		raw, err := transport.ReadMessage()
		if err != nil {
			m.handleClose(gen, err)
			return
		}

		msg, decodeErr := wire.Decode(raw)
		if decodeErr != nil {
			m.logger.Warn("malformed message dropped", "error", decodeErr)
			continue
		}

		if m.dispatch != nil {
			m.dispatch(msg)
		}
	}
}

// heartbeatLoop шлет ping живости каждые HeartbeatInterval, пока жив
// транспорт, к которому он привязан. Привязка к транспорту, а не только к
// поколению: после автопереподключения adopt запускает новый цикл, а старый
// должен завершиться, не плодя дублирующие ping.
func (m *Manager) heartbeatLoop(gen uint64, transport Transport) {
	ticker := time.NewTicker(m.cfg.HeartbeatInterval)
	defer ticker.Stop()

	m.mu.Lock()
	stopC := m.stopC
	m.mu.Unlock()
	if stopC == nil {
		return
	}

	for {
		select {
		case <-stopC:
			return
		case <-ticker.C:
			m.mu.Lock()
			alive := m.generation == gen && m.state == StateConnected && m.transport == transport
			m.mu.Unlock()
			if !alive {
				return
			}

			m.Send(wire.TypeHeartbeat, wire.Heartbeat{Timestamp: time.Now().UnixMilli()})
		}
	}
}

// handleClose обрабатывает неожиданное закрытие транспорта.
func (m *Manager) handleClose(gen uint64, cause error) {
	m.mu.Lock()
	if m.generation != gen || m.state != StateConnected {
		// Явный Disconnect или соединение уже заменено
		m.mu.Unlock()
		return
	}

	m.logger.Warn("connection lost, scheduling reconnect", "error", cause)
	m.state = StateReconnecting
	m.transport = nil
	stopC := m.stopC
	m.mu.Unlock()

	go m.reconnectLoop(gen, stopC)
}

// reconnectLoop выполняет до MaxReconnectAttempts попыток переподключения
// с задержкой base * 2^(n-1) перед попыткой n. Исчерпание бюджета переводит
// машину в PermanentlyFailed и сообщает об ошибке через onError; в чужие
// call sites ничего не бросается.
func (m *Manager) reconnectLoop(gen uint64, stopC chan struct{}) {
	for attempt := 1; attempt <= m.cfg.MaxReconnectAttempts; attempt++ {
		delay := m.cfg.ReconnectBaseDelay << (attempt - 1)

		timer := time.NewTimer(delay)
		select {
		case <-stopC:
			timer.Stop()
			return
		case <-timer.C:
		}

		m.mu.Lock()
		if m.generation != gen {
			m.mu.Unlock()
			return
		}
		m.state = StateConnecting
		m.mu.Unlock()

		m.logger.Info("reconnect attempt", "attempt", attempt, "delay", delay)

		transport, err := m.dial(context.Background())
		if err == nil {
			if m.adopt(gen, transport) {
				m.logger.Info("reconnected", "attempt", attempt)

				m.mu.Lock()
				onReconnected := m.onReconnected
				m.mu.Unlock()
				if onReconnected != nil {
					onReconnected()
				}
			} else {
				_ = transport.Close()
			}
			return
		}

		m.logger.Warn("reconnect attempt failed", "attempt", attempt, "error", err)

		m.mu.Lock()
		if m.generation != gen {
			m.mu.Unlock()
			return
		}
		m.state = StateReconnecting
		m.mu.Unlock()
	}

	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		return
	}
	m.state = StatePermanentlyFailed
	m.mu.Unlock()

	err := fmt.Errorf("%w after %d attempts", ErrReconnectExhausted, m.cfg.MaxReconnectAttempts)
	m.logger.Error("reconnect budget exhausted", "attempts", m.cfg.MaxReconnectAttempts)
	if m.onError != nil {
		m.onError(err)
	}
}
