// internal/liveness/listener.go
package liveness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
)

// maxDatagram bounds the read buffer. Payload is ignored anyway.
const maxDatagram = 2048

// Listener owns the heartbeat UDP socket and drives a Tracker.
type Listener struct {
	conn    net.PacketConn
	tracker *Tracker
	logger  *slog.Logger
}

// Listen binds the heartbeat socket (fail fast at startup).
func Listen(addr string, tracker *Tracker, logger *slog.Logger) (*Listener, error) {
	if tracker == nil {
		return nil, errors.New("liveness: tracker required")
	}
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("liveness: bind %s: %w", addr, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{conn: conn, tracker: tracker, logger: logger}, nil
}

// Addr is the bound local address.
func (l *Listener) Addr() net.Addr { return l.conn.LocalAddr() }

// Close releases the socket. Run returns after Close.
func (l *Listener) Close() error { return l.conn.Close() }

// Run reads datagrams until ctx ends or the socket is closed.
// Each datagram is reduced to its source address.
func (l *Listener) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = l.conn.Close() })
	defer stop()

	buf := make([]byte, maxDatagram)
	for {
		_, from, err := l.conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			l.logger.Warn("heartbeat read failed", "error", err)
			continue
		}
		l.handle(from)
	}
}

func (l *Listener) handle(from net.Addr) {
	src, ok := sourceIP(from)
	if !ok {
		return
	}

	wasOnline := l.tracker.Online()
	if !l.tracker.Observe(src) {
		l.logger.Debug("heartbeat ignored", "source", src)
		return
	}
	if !wasOnline {
		l.logger.Info("peer online", "peer", src)
	}
}

func sourceIP(a net.Addr) (netip.Addr, bool) {
	switch v := a.(type) {
	case *net.UDPAddr:
		ip, ok := netip.AddrFromSlice(v.IP)
		return ip.Unmap(), ok
	default:
		ap, err := netip.ParseAddrPort(a.String())
		if err != nil {
			return netip.Addr{}, false
		}
		return ap.Addr().Unmap(), true
	}
}
