// Package h2codec implements a pure, non-blocking, incremental HTTP/2
// protocol codec: a bidirectional translator between wire bytes and HTTP/2
// semantic events. It owns no sockets, timers, or thread pools; callers
// drive it synchronously via OnIngress and the Generate* methods.
package h2codec

import (
	"bytes"

	"github.com/albertbausili/h2codec/internal/hpackadapter"
)

// frameHeader is the parsed 9-byte common frame header (spec §3/§6).
type frameHeader struct {
	length   uint32
	typ      frameType
	flags    frameFlags
	streamID uint32
}

// Codec owns the mutable state of one HTTP/2 connection endpoint. Field
// names mirror spec §3's Data Model exactly.
type Codec struct {
	direction Direction

	nextEgressStreamID         uint32
	lastIngressStreamID        uint32
	expectedContinuationStream uint32

	// accumulatedHeaderBlock buffers header-block fragments across
	// HEADERS/PUSH_PROMISE + CONTINUATION frames until END_HEADERS.
	accumulatedHeaderBlock bytes.Buffer

	// Set when a header block is in progress: the frame's own stream id,
	// the promised stream id (nonzero only for an in-progress
	// PUSH_PROMISE), and whether END_STREAM was set on the initiating
	// frame.
	openHeaderStreamID   uint32
	openHeaderPromisedID uint32
	openHeaderEndStream  bool
	openHeaderActive     bool
	openHeaderDropped    bool

	ingressSettings *settingsStore
	egressSettings  *settingsStore

	ingressGoawayAck uint32
	egressGoawayAck  uint32
	closingState     ClosingState

	needConnectionPreface bool
	needCommonHeader      bool
	currentHeader         frameHeader

	callback Sink

	opts CodecOptions

	hpackEncoder *hpackadapter.Encoder
	hpackDecoder *hpackadapter.Decoder

	metrics metricsSink
}

// metricsSink is the narrow slice of internal/metrics.Collector this
// package calls; defined here so metrics wiring stays optional (nil is a
// valid, no-op collector).
type metricsSink interface {
	FrameParsed(typ uint8)
	FrameGenerated(typ uint8)
	ConnectionError(code ErrCode)
	HeaderBlockEncoded(size int)
}

// NewCodec constructs a Codec for the given direction and callback. A
// downstream (server) codec expects to read the connection preface first;
// an upstream (client) codec does not write it on its own: the caller
// emits it with GenerateConnectionPreface before any other egress.
func NewCodec(direction Direction, callback Sink, opts CodecOptions) *Codec {
	opts.Validate()

	next := uint32(1)
	if direction == Downstream {
		next = 2
	}

	c := &Codec{
		direction:             direction,
		nextEgressStreamID:    next,
		ingressSettings:       newSettingsStore(),
		egressSettings:        newSettingsStore(),
		ingressGoawayAck:      goawayUnsetAck,
		egressGoawayAck:       goawayUnsetAck,
		closingState:          ClosingOpen,
		needConnectionPreface: direction == Downstream,
		needCommonHeader:      true,
		callback:              callback,
		opts:                  opts,
		hpackEncoder:          hpackadapter.NewEncoder(),
		hpackDecoder:          hpackadapter.NewDecoder(opts.HeaderTableSize),
	}
	c.egressSettings.set(SettingEnablePush, boolToUint32(opts.EnablePush))
	c.egressSettings.set(SettingHeaderTableSize, opts.HeaderTableSize)
	c.egressSettings.set(SettingInitialWindowSize, opts.InitialWindowSize)
	c.egressSettings.set(SettingMaxFrameSize, opts.MaxFrameSize)
	return c
}

// NewUpstreamCodec is a convenience constructor for a client-side codec.
func NewUpstreamCodec(callback Sink, opts CodecOptions) *Codec {
	return NewCodec(Upstream, callback, opts)
}

// NewDownstreamCodec is a convenience constructor for a server-side codec.
func NewDownstreamCodec(callback Sink, opts CodecOptions) *Codec {
	return NewCodec(Downstream, callback, opts)
}

// SetMetrics attaches an optional metrics collector (internal/metrics.Collector
// satisfies metricsSink). Passing nil disables metrics collection.
func (c *Codec) SetMetrics(m metricsSink) { c.metrics = m }

func (c *Codec) maxRecvFrameSize() uint32 {
	return c.opts.MaxFrameSize
}

func (c *Codec) maxSendFrameSize() uint32 {
	return c.ingressSettings.get(SettingMaxFrameSize, 16384)
}

// CreateStream allocates the next locally-initiated stream id.
func (c *Codec) CreateStream() uint32 {
	id := c.nextEgressStreamID
	c.nextEgressStreamID += 2
	return id
}

func boolToUint32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
