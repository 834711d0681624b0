// cmd/bridge/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/tamzrod/sim-bridge/internal/config"
	"github.com/tamzrod/sim-bridge/internal/ingress"
	"github.com/tamzrod/sim-bridge/internal/liveness"
	"github.com/tamzrod/sim-bridge/internal/metrics"
	"github.com/tamzrod/sim-bridge/internal/registry"
	"github.com/tamzrod/sim-bridge/internal/relay"
	"github.com/tamzrod/sim-bridge/internal/telemetry"
	"github.com/tamzrod/sim-bridge/internal/viewer"
	"github.com/tamzrod/sim-bridge/internal/writer"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	// --------------------
	// Load + validate config
	// --------------------

	flags := config.NewFlagSet("bridge")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(config.SourcesFromFlags(flags))
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Liveness (UDP bind is fatal)
	// --------------------

	peer, _ := netip.ParseAddr(cfg.Heartbeat.Peer) // validated
	tracker := liveness.NewTracker(peer, cfg.Heartbeat.Timeout())

	heartbeats, err := liveness.Listen(cfg.Heartbeat.Listen, tracker, logger.With("component", "heartbeat"))
	if err != nil {
		return err
	}
	defer heartbeats.Close()

	// --------------------
	// Upstream (initial dial is fatal)
	// --------------------

	sub, err := ingress.Dial(ctx, ingress.Config{
		Endpoint:       cfg.Upstream.Endpoint,
		DialRetry:      cfg.Upstream.DialRetry(),
		DialMaxRetries: cfg.Upstream.DialMaxRetries,
		ReconnectMin:   cfg.Upstream.ReconnectMin(),
		ReconnectMax:   cfg.Upstream.ReconnectMax(),
	}, logger.With("component", "ingress"))
	if err != nil {
		return err
	}
	defer sub.Close()

	// --------------------
	// Shared state
	// --------------------

	clients := registry.New()
	counters := &telemetry.Counters{}

	collector := metrics.New(nil)
	collector.WatchCounter("simbridge_upstream_overwrites_total",
		"Upstream frames replaced in the inbox before the relay pulled them.",
		sub.Overwrites)

	rl, err := relay.New(relay.Config{
		Layout:       cfg.Layout,
		PollInterval: cfg.Upstream.PollInterval(),
	}, sub, tracker, clients, counters, collector, logger.With("component", "relay"))
	if err != nil {
		return err
	}

	// --------------------
	// Status export (optional; Modbus connect is fatal when enabled)
	// --------------------

	sinks := []telemetry.Sink{collector}

	plan, err := writer.BuildStatusPlan(cfg.StatusExport)
	if err != nil {
		return err
	}
	var publisher *writer.Publisher
	if plan != nil {
		p, closeExport, err := writer.BuildPublisher(plan, logger.With("component", "status"))
		if err != nil {
			return fmt.Errorf("status export connect %s: %w", plan.Endpoint, err)
		}
		defer closeExport()
		publisher = p
		sinks = append(sinks, p)
	}

	reporter := telemetry.NewReporter(telemetry.Config{
		Interval: cfg.Telemetry.Interval(),
		Out:      os.Stdout,
	}, counters, tracker, clients, logger.With("component", "telemetry"), sinks...)

	// --------------------
	// Viewer server (TCP bind is fatal)
	// --------------------

	extra := map[string]http.Handler{}
	if cfg.Telemetry.Metrics {
		extra["/metrics"] = collector.Handler()
	}

	viewers, err := viewer.New(viewer.Config{
		Listen:       cfg.Viewers.Listen,
		Path:         cfg.Viewers.Path,
		WriteTimeout: cfg.Viewers.WriteTimeout(),
		PingInterval: cfg.Viewers.PingInterval(),
	}, clients, logger.With("component", "viewer"), extra)
	if err != nil {
		return err
	}
	if err := viewers.Listen(); err != nil {
		return err
	}

	logger.Info("bridge starting",
		"upstream", cfg.Upstream.Endpoint,
		"heartbeat", heartbeats.Addr().String(),
		"peer", peer.String(),
		"viewers", viewers.Addr().String(),
		"protocol", cfg.Layout.Name,
		"frame_size", cfg.Layout.ExpectedSize(),
		"status_export", plan != nil,
	)

	// --------------------
	// Run
	// --------------------

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, 4)

	spawn := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(runCtx); err != nil {
				errCh <- fmt.Errorf("%s: %w", name, err)
				cancel()
			}
		}()
	}

	spawn("heartbeat", heartbeats.Run)
	spawn("relay", rl.Run)
	spawn("viewers", viewers.Serve)
	spawn("ingress", func(ctx context.Context) error { sub.Run(ctx); return nil })
	spawn("telemetry", func(ctx context.Context) error { reporter.Run(ctx); return nil })
	if publisher != nil {
		spawn("status", func(ctx context.Context) error { publisher.Run(ctx); return nil })
	}

	<-runCtx.Done()
	wg.Wait()
	close(errCh)

	logger.Info("bridge stopped", "forwarded", counters.Forwarded(), "dropped", counters.Dropped())

	return <-errCh
}
