package feed

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"anubis-watch/internal/config"
)

// WSSource consumes feed messages from a WebSocket endpoint. It owns
// the connection lifecycle: dropped connections reconnect with
// exponential backoff, and malformed messages are dropped with a
// counter rather than tearing the stream down.
type WSSource struct {
	url string
	cfg config.WSConfig
	log *zap.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	// events buffers decoded messages so a slow consumer absorbs
	// bursts without blocking the read loop.
	events chan Event
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewWSSource connects to the endpoint and starts the read and ping
// loops. The caller must Close the source to release the connection.
func NewWSSource(ctx context.Context, cfg config.WSConfig, log *zap.Logger) (*WSSource, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &WSSource{
		url:    cfg.URL,
		cfg:    cfg,
		log:    log,
		events: make(chan Event, 1024),
		done:   make(chan struct{}),
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	s.wg.Add(2)
	go s.readLoop()
	go s.pingLoop()
	return s, nil
}

func (s *WSSource) connect(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("websocket dial %s: %w", s.url, err)
	}
	s.conn = conn
	return nil
}

// Next returns the next decoded event.
func (s *WSSource) Next(ctx context.Context) (Event, error) {
	select {
	case ev, ok := <-s.events:
		if !ok {
			return Event{}, ErrEndOfStream
		}
		return ev, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// Close shuts the source down and closes the connection.
func (s *WSSource) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	close(s.done)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	close(s.events)
	return nil
}

func (s *WSSource) readLoop() {
	defer s.wg.Done()

	for !s.closed.Load() {
		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()
		if conn == nil {
			if !s.reconnect() {
				return
			}
			continue
		}

		conn.SetReadDeadline(time.Now().Add(time.Duration(s.cfg.ReadTimeoutSeconds) * time.Second))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}
			s.log.Warn("websocket read failed, reconnecting", zap.Error(err))
			s.connMu.Lock()
			s.conn.Close()
			s.conn = nil
			s.connMu.Unlock()
			continue
		}

		ev, err := Decode(raw)
		if err != nil {
			s.log.Warn("dropping malformed feed message", zap.Error(err))
			continue
		}

		// Block rather than drop: the buffer absorbs bursts and the
		// aggregator is the real rate limit.
		select {
		case s.events <- ev:
		case <-s.done:
			return
		}
	}
}

// reconnect dials with exponential backoff until it succeeds or the
// source is closed. Returns false on shutdown.
func (s *WSSource) reconnect() bool {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.MaxInterval = 30 * time.Second
	policy.MaxElapsedTime = 0 // retry until shutdown

	for {
		delay := policy.NextBackOff()
		select {
		case <-s.done:
			return false
		case <-time.After(delay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := s.connect(ctx)
		cancel()
		if err == nil {
			s.log.Info("websocket reconnected", zap.String("url", s.url))
			return true
		}
		s.log.Warn("websocket reconnect failed", zap.Error(err))
	}
}

func (s *WSSource) pingLoop() {
	defer s.wg.Done()

	interval := time.Duration(s.cfg.PingSeconds) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.connMu.Lock()
			if s.conn != nil {
				s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				// A failed ping surfaces as a read error; the read
				// loop owns reconnection.
				s.conn.WriteMessage(websocket.PingMessage, nil)
			}
			s.connMu.Unlock()
		}
	}
}
