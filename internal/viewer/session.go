// internal/viewer/session.go
package viewer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tamzrod/sim-bridge/internal/slot"
)

// ErrSessionClosed is returned by Send after the session tore down.
var ErrSessionClosed = errors.New("viewer: session closed")

// conn is the part of *websocket.Conn a session writes through.
type conn interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Session is one connected viewer.
// Send never blocks the relay: frames land in a latest-wins slot and a
// single writer goroutine owns every socket write.
type Session struct {
	id     string
	conn   conn
	out    *slot.Slot[[]byte]
	logger *slog.Logger

	writeTimeout time.Duration
	pingInterval time.Duration

	closeOnce sync.Once
}

func newSession(c conn, writeTimeout, pingInterval time.Duration, logger *slog.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:           id,
		conn:         c,
		out:          slot.New[[]byte](),
		logger:       logger.With("session", id),
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
	}
}

// ID is the session's uuid.
func (s *Session) ID() string { return s.id }

// Send queues buf as the next binary message, replacing an unsent one.
func (s *Session) Send(buf []byte) error {
	if _, err := s.out.Put(buf); err != nil {
		return ErrSessionClosed
	}
	return nil
}

// Dropped counts frames overwritten before the socket caught up.
func (s *Session) Dropped() uint64 { return s.out.Drops() }

// Done is closed when the session is closing.
func (s *Session) Done() <-chan struct{} { return s.out.Done() }

// close tears the session down. Idempotent.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		s.out.Close()
		_ = s.conn.Close()
	})
}

// writeLoop is the only goroutine that writes to the socket.
// Any write error closes the session; the read side then unregisters it.
func (s *Session) writeLoop(ctx context.Context) {
	var ping <-chan time.Time
	if s.pingInterval > 0 {
		t := time.NewTicker(s.pingInterval)
		defer t.Stop()
		ping = t.C
	}

	for {
		select {
		case <-ctx.Done():
			s.close()
			return
		case <-s.out.Done():
			return
		case buf := <-s.out.Ready():
			if err := s.write(websocket.BinaryMessage, buf); err != nil {
				s.logger.Debug("viewer write failed", "error", err)
				s.close()
				return
			}
		case <-ping:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				s.logger.Debug("viewer ping failed", "error", err)
				s.close()
				return
			}
		}
	}
}

func (s *Session) write(kind int, buf []byte) error {
	if s.writeTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	return s.conn.WriteMessage(kind, buf)
}
