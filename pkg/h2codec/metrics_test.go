package h2codec

import (
	"bytes"
	"testing"

	"github.com/albertbausili/h2codec/internal/metrics"
	"golang.org/x/net/http2"
)

// TestSetMetrics_WiresPrometheusCollector exercises internal/metrics.Collector
// through the codec's ordinary ingress/egress paths, confirming it satisfies
// the unexported metricsSink contract and doesn't panic under real traffic.
func TestSetMetrics_WiresPrometheusCollector(t *testing.T) {
	c := NewDownstreamCodec(&recordingSink{}, testOpts())
	c.needConnectionPreface = false
	c.SetMetrics(metrics.NewCollector())

	msg := &Message{StatusCode: 200}
	var buf bytes.Buffer
	c.GenerateHeader(&buf, 1, msg, 0, true)

	block := encodeHeaders(t, [][2]string{{":method", "GET"}, {":scheme", "http"}, {":path", "/"}})
	requestWire := writeFrame(t, func(fr *http2.Framer) {
		fr.WriteHeaders(http2.HeadersFrameParam{StreamID: 1, BlockFragment: block, EndHeaders: true, EndStream: true})
	})
	if _, err := c.OnIngress(requestWire); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A malformed SETTINGS value drives the ConnectionError metric path.
	c2 := NewDownstreamCodec(&recordingSink{}, testOpts())
	c2.needConnectionPreface = false
	c2.SetMetrics(metrics.NewCollector())
	badSettings := writeFrame(t, func(fr *http2.Framer) {
		fr.WriteSettings(http2.Setting{ID: http2.SettingEnablePush, Val: 2})
	})
	if _, err := c2.OnIngress(badSettings); err == nil {
		t.Fatal("expected a connection error to exercise the metrics path")
	}
}
