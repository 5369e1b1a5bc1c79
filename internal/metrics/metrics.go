// Package metrics is the codec's optional Prometheus collector: counters of
// frames parsed/generated by type, connection errors by code, and a
// histogram of HPACK-encoded header-block sizes. It is wired into
// pkg/h2codec.Codec via SetMetrics, which accepts any value satisfying its
// own narrow, unexported metricsSink interface — this package has no
// compile-time dependency on h2codec, and a nil *Collector is never passed
// since callers that don't want metrics simply don't call SetMetrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/net/http2"
)

var (
	framesParsedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "h2codec_frames_parsed_total",
			Help: "Total number of HTTP/2 frames parsed from ingress, by frame type.",
		},
		[]string{"frame_type"},
	)

	framesGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "h2codec_frames_generated_total",
			Help: "Total number of HTTP/2 frames written to egress, by frame type.",
		},
		[]string{"frame_type"},
	)

	connectionErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "h2codec_connection_errors_total",
			Help: "Total number of connection-level errors raised while parsing ingress, by error code.",
		},
		[]string{"code"},
	)

	headerBlockEncodedBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "h2codec_header_block_encoded_bytes",
			Help:    "Size in bytes of HPACK-encoded header blocks produced on egress.",
			Buckets: []float64{16, 64, 256, 1024, 4096, 16384, 65536},
		},
	)
)

// frameTypeNames mirrors the frame type byte values the ingress/egress
// paths tag metrics with (see pkg/h2codec's unexported frameType enum,
// RFC 7540 §11.2).
var frameTypeNames = [...]string{
	"DATA", "HEADERS", "PRIORITY", "RST_STREAM", "SETTINGS",
	"PUSH_PROMISE", "PING", "GOAWAY", "WINDOW_UPDATE", "CONTINUATION",
}

func frameTypeName(typ uint8) string {
	if int(typ) < len(frameTypeNames) {
		return frameTypeNames[typ]
	}
	return "UNKNOWN"
}

// Collector is a Prometheus-backed metrics sink for pkg/h2codec.Codec.
type Collector struct{}

// NewCollector returns a ready-to-use Collector. The underlying Prometheus
// series are package-level singletons registered once via promauto, so
// multiple Collectors observe the same series (matching the teacher's
// pkg/celeris/metrics.go pattern of package-level promauto vars).
func NewCollector() *Collector { return &Collector{} }

// FrameParsed records one ingress frame of the given wire type.
func (c *Collector) FrameParsed(typ uint8) {
	framesParsedTotal.WithLabelValues(frameTypeName(typ)).Inc()
}

// FrameGenerated records one egress frame of the given wire type.
func (c *Collector) FrameGenerated(typ uint8) {
	framesGeneratedTotal.WithLabelValues(frameTypeName(typ)).Inc()
}

// ConnectionError records one connection-level error escalation.
func (c *Collector) ConnectionError(code http2.ErrCode) {
	connectionErrorsTotal.WithLabelValues(code.String()).Inc()
}

// HeaderBlockEncoded records the size of one HPACK-encoded header block.
func (c *Collector) HeaderBlockEncoded(size int) {
	headerBlockEncodedBytes.Observe(float64(size))
}
