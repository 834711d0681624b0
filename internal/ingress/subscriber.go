// internal/ingress/subscriber.go
package ingress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-zeromq/zmq4"

	"github.com/tamzrod/sim-bridge/internal/slot"
)

// Config is the upstream transport config.
type Config struct {
	Endpoint string

	// DialRetry / DialMaxRetries bound the transport's own connect retries.
	DialRetry      time.Duration
	DialMaxRetries int

	// ReconnectMin / ReconnectMax bound the re-dial backoff after a
	// receive failure at runtime.
	ReconnectMin time.Duration
	ReconnectMax time.Duration
}

// receiver is the part of a zmq4.Socket the subscriber needs.
type receiver interface {
	Recv() (zmq4.Msg, error)
	Close() error
}

// dialFunc makes ONE connection attempt.
type dialFunc func(ctx context.Context) (receiver, error)

// Subscriber is the upstream SUB side.
// Every received message overwrites the inbox: the relay only ever
// sees the newest pending frame.
type Subscriber struct {
	cfg    Config
	dial   dialFunc
	inbox  *slot.Slot[[]byte]
	logger *slog.Logger

	mu   sync.Mutex
	sock receiver
}

// Dial connects and subscribes to every topic.
// Failure here is a startup failure.
func Dial(ctx context.Context, cfg Config, logger *slog.Logger) (*Subscriber, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("ingress: endpoint required")
	}
	return newSubscriber(ctx, cfg, zmqDialer(cfg), logger)
}

func newSubscriber(ctx context.Context, cfg Config, dial dialFunc, logger *slog.Logger) (*Subscriber, error) {
	if cfg.ReconnectMin <= 0 {
		cfg.ReconnectMin = 100 * time.Millisecond
	}
	if cfg.ReconnectMax < cfg.ReconnectMin {
		cfg.ReconnectMax = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	// initial connection (fail fast at startup)
	sock, err := dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("ingress: connect %s: %w", cfg.Endpoint, err)
	}

	return &Subscriber{
		cfg:    cfg,
		dial:   dial,
		inbox:  slot.New[[]byte](),
		logger: logger,
		sock:   sock,
	}, nil
}

func zmqDialer(cfg Config) dialFunc {
	return func(ctx context.Context) (receiver, error) {
		var opts []zmq4.Option
		if cfg.DialRetry > 0 {
			opts = append(opts, zmq4.WithDialerRetry(cfg.DialRetry))
		}
		if cfg.DialMaxRetries != 0 {
			opts = append(opts, zmq4.WithDialerMaxRetries(cfg.DialMaxRetries))
		}

		sub := zmq4.NewSub(ctx, opts...)
		if err := sub.Dial(cfg.Endpoint); err != nil {
			_ = sub.Close()
			return nil, err
		}
		if err := sub.SetOption(zmq4.OptionSubscribe, ""); err != nil {
			_ = sub.Close()
			return nil, err
		}
		return sub, nil
	}
}

// Poll returns the newest pending frame without blocking.
func (s *Subscriber) Poll() ([]byte, bool) {
	return s.inbox.TryTake()
}

// Overwrites counts frames replaced before the relay pulled them.
func (s *Subscriber) Overwrites() uint64 {
	return s.inbox.Drops()
}

// Close releases the socket and the inbox.
func (s *Subscriber) Close() error {
	s.inbox.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sock == nil {
		return nil
	}
	err := s.sock.Close()
	s.sock = nil
	return err
}

// Run receives until ctx ends. A receive error drops the socket and
// re-dials with capped exponential backoff.
func (s *Subscriber) Run(ctx context.Context) {
	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	for {
		sock := s.current()
		if sock == nil {
			return
		}

		msg, err := sock.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("upstream receive failed", "endpoint", s.cfg.Endpoint, "error", err)
			if !s.reconnect(ctx) {
				return
			}
			continue
		}

		payload := payloadOf(msg)
		if payload == nil {
			continue
		}
		if _, err := s.inbox.Put(payload); err != nil {
			return
		}
	}
}

func (s *Subscriber) current() receiver {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sock
}

func (s *Subscriber) reconnect(ctx context.Context) bool {
	s.mu.Lock()
	if s.sock != nil {
		_ = s.sock.Close()
		s.sock = nil
	}
	s.mu.Unlock()

	backoff := s.cfg.ReconnectMin
	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return false
		case <-s.inbox.Done():
			return false
		case <-time.After(backoff):
		}

		sock, err := s.dial(ctx)
		if err == nil {
			s.mu.Lock()
			select {
			case <-s.inbox.Done():
				s.mu.Unlock()
				_ = sock.Close()
				return false
			default:
			}
			s.sock = sock
			s.mu.Unlock()
			s.logger.Info("upstream reconnected", "endpoint", s.cfg.Endpoint, "attempts", attempt)
			return true
		}

		s.logger.Warn("upstream reconnect failed", "endpoint", s.cfg.Endpoint, "attempt", attempt, "error", err)
		backoff *= 2
		if backoff > s.cfg.ReconnectMax {
			backoff = s.cfg.ReconnectMax
		}
	}
}

// payloadOf picks the frame body. Multipart messages carry the body
// in the last part (topic envelopes come first).
func payloadOf(msg zmq4.Msg) []byte {
	if len(msg.Frames) == 0 {
		return nil
	}
	return msg.Frames[len(msg.Frames)-1]
}
