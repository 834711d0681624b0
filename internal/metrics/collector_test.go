// internal/metrics/collector_test.go
package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tamzrod/sim-bridge/internal/telemetry"
)

func TestCollector_Counters(t *testing.T) {
	c := New(nil)

	c.FrameReceived(100)
	c.FrameReceived(65576)
	c.FrameForwarded()
	c.FrameDropped(ReasonMagicMismatch)
	c.SendFailures(2)
	c.SendFailures(0)

	if got := testutil.ToFloat64(c.bytesReceived); got != 65676 {
		t.Fatalf("bytes=%v", got)
	}
	if got := testutil.ToFloat64(c.framesReceived); got != 2 {
		t.Fatalf("frames=%v", got)
	}
	if got := testutil.ToFloat64(c.framesDropped.WithLabelValues(ReasonMagicMismatch)); got != 1 {
		t.Fatalf("magic drops=%v", got)
	}
	if got := testutil.ToFloat64(c.framesDropped.WithLabelValues(ReasonSizeMismatch)); got != 0 {
		t.Fatalf("size drops=%v", got)
	}
	if got := testutil.ToFloat64(c.sendFailures); got != 2 {
		t.Fatalf("send failures=%v", got)
	}
}

func TestCollector_ObserveReport(t *testing.T) {
	c := New(nil)

	c.Observe(telemetry.Report{Mbps: 1.5, PeerOnline: true, Viewers: 3})
	if testutil.ToFloat64(c.peerOnline) != 1 || testutil.ToFloat64(c.viewers) != 3 {
		t.Fatalf("gauges not updated")
	}

	c.Observe(telemetry.Report{})
	if testutil.ToFloat64(c.peerOnline) != 0 {
		t.Fatalf("peer gauge not cleared")
	}
}

func TestCollector_Handler(t *testing.T) {
	c := New(nil)
	var drops uint64 = 7
	c.WatchCounter("simbridge_upstream_overwrites_total", "test", func() uint64 { return drops })
	c.FrameForwarded()

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		"simbridge_frames_forwarded_total 1",
		"simbridge_upstream_overwrites_total 7",
		`simbridge_frames_dropped_total{reason="no_viewers"} 0`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}
