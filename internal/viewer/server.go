// internal/viewer/server.go
package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tamzrod/sim-bridge/internal/registry"
)

// Defaults for a viewer endpoint.
const (
	DefaultPath         = "/ws"
	DefaultWriteTimeout = 2 * time.Second
	DefaultPingInterval = 25 * time.Second

	readLimit = 1 << 20 // viewers only send control traffic
)

// Registrar is the membership side of the client registry.
type Registrar interface {
	Register(registry.Session)
	Unregister(registry.Session)
}

// Config is the viewer server config.
type Config struct {
	Listen       string
	Path         string
	WriteTimeout time.Duration
	PingInterval time.Duration
}

// Server accepts viewer WebSocket connections.
type Server struct {
	cfg      Config
	clients  Registrar
	upgrader websocket.Upgrader
	mux      *http.ServeMux
	logger   *slog.Logger

	ln      net.Listener
	baseCtx context.Context
}

// New builds the HTTP handler tree without binding.
// extra mounts additional handlers (e.g. "/metrics").
func New(cfg Config, clients Registrar, logger *slog.Logger, extra map[string]http.Handler) (*Server, error) {
	if clients == nil {
		return nil, errors.New("viewer: registry required")
	}
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = DefaultPingInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:     cfg,
		clients: clients,
		upgrader: websocket.Upgrader{
			// Viewers are native clients on the lab network; they send no Origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		mux:     http.NewServeMux(),
		logger:  logger,
		baseCtx: context.Background(),
	}

	s.mux.HandleFunc(cfg.Path, s.handleWS)
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	for path, h := range extra {
		s.mux.Handle(path, h)
	}

	return s, nil
}

// Listen binds the TCP listener (fail fast at startup).
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("viewer: bind %s: %w", s.cfg.Listen, err)
	}
	s.ln = ln
	return nil
}

// Addr is the bound address, nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Handler exposes the mux (used by tests).
func (s *Server) Handler() http.Handler { return s.mux }

// Serve runs until ctx ends, then shuts the HTTP server down.
// Sessions are closed through ctx.
func (s *Server) Serve(ctx context.Context) error {
	if s.ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	s.baseCtx = ctx

	srv := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(s.ln) }()

	s.logger.Info("viewer server listening", "addr", s.ln.Addr().String(), "path", s.cfg.Path)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("viewer upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	sess := newSession(ws, s.cfg.WriteTimeout, s.cfg.PingInterval, s.logger)
	s.clients.Register(sess)
	s.logger.Info("viewer connected", "session", sess.ID(), "remote", r.RemoteAddr)

	defer func() {
		sess.close()
		s.clients.Unregister(sess)
		s.logger.Info("viewer disconnected", "session", sess.ID(), "dropped", sess.Dropped())
	}()

	go sess.writeLoop(s.baseCtx)

	// Wait for close. Inbound messages are discarded; pongs keep the
	// read deadline moving.
	readTimeout := 2*s.cfg.PingInterval + s.cfg.WriteTimeout
	ws.SetReadLimit(readLimit)
	_ = ws.SetReadDeadline(time.Now().Add(readTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("viewer read ended", "session", sess.ID(), "error", err)
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(readTimeout))
	}
}
