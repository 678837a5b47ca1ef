package socket

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"lectern/internal/core/ports"
)

// Config tunes reconnection behavior. Reconnect delays grow exponentially
// from InitialDelay up to MaxDelay, drawn with full jitter so clients that
// lost the same hub do not stampede it.
type Config struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns the standard reconnection tuning.
func DefaultConfig() Config {
	return Config{
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// ReconnectingSocket is a websocket client that transparently reconnects
// after connection loss. Sends issued while disconnected fail; inbound
// messages resume once the socket is redialed.
type ReconnectingSocket struct {
	cfg    Config
	logger *zap.SugaredLogger

	mu      sync.Mutex
	conn    *websocket.Conn
	rawURL  string
	closed  bool
	pumping bool

	out  chan []byte
	done chan struct{}
}

var _ ports.MessagingSocket = (*ReconnectingSocket)(nil)

// New creates an unopened socket.
func New(cfg Config, logger *zap.SugaredLogger) *ReconnectingSocket {
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 10 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	return &ReconnectingSocket{
		cfg:    cfg,
		logger: logger,
		out:    make(chan []byte, 16),
		done:   make(chan struct{}),
	}
}

// Open dials the hub. It fails when the first connection attempt cannot be
// established before the context expires; reconnection after that is
// automatic.
func (s *ReconnectingSocket) Open(ctx context.Context, rawURL string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("socket is closed")
	}
	s.rawURL = rawURL
	s.mu.Unlock()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", rawURL, err)
	}

	s.mu.Lock()
	s.conn = conn
	s.pumping = true
	s.mu.Unlock()

	go s.readPump(conn)
	return nil
}

// Send writes one text frame.
func (s *ReconnectingSocket) Send(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("socket is closed")
	}
	if s.conn == nil {
		return fmt.Errorf("socket is reconnecting")
	}

	s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Messages returns the inbound frame stream. The channel closes when the
// socket is closed for good.
func (s *ReconnectingSocket) Messages() <-chan []byte {
	return s.out
}

// Close shuts the socket down and stops reconnecting. Safe to call more
// than once.
func (s *ReconnectingSocket) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conn := s.conn
	s.conn = nil
	pumping := s.pumping
	close(s.done)
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	// The read pump owns the outbound channel while it runs; closing it
	// here would race its sends.
	if !pumping {
		close(s.out)
	}
	return nil
}

func (s *ReconnectingSocket) readPump(conn *websocket.Conn) {
	defer close(s.out)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.conn = nil
			s.mu.Unlock()

			if closed {
				return
			}

			s.logger.Infow("hub connection lost, reconnecting", "error", err)
			conn = s.reconnect()
			if conn == nil {
				return
			}
			continue
		}

		select {
		case s.out <- data:
		case <-s.done:
			return
		}
	}
}

// reconnect redials until it succeeds or the socket is closed.
func (s *ReconnectingSocket) reconnect() *websocket.Conn {
	delay := s.cfg.InitialDelay

	for attempt := 1; ; attempt++ {
		select {
		case <-s.done:
			return nil
		case <-time.After(jitter(delay)):
		}

		s.mu.Lock()
		rawURL := s.rawURL
		s.mu.Unlock()

		conn, _, err := websocket.DefaultDialer.Dial(rawURL, nil)
		if err == nil {
			s.mu.Lock()
			if s.closed {
				s.mu.Unlock()
				conn.Close()
				return nil
			}
			s.conn = conn
			s.mu.Unlock()

			s.logger.Infow("hub connection restored", "attempts", attempt)
			return conn
		}

		s.logger.Debugw("reconnect attempt failed", "attempt", attempt, "error", err)
		delay *= 2
		if delay > s.cfg.MaxDelay {
			delay = s.cfg.MaxDelay
		}
	}
}

// jitter draws uniformly from [0, d] so reconnecting clients spread out.
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(d) + 1))
}
