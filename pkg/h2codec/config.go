package h2codec

import (
	"io"
	"log"
)

// CodecOptions configures a Codec instance. All fields have protocol-legal
// defaults via DefaultCodecOptions; Validate clamps out-of-range values
// rather than returning an error, matching the teacher's config style.
type CodecOptions struct {
	// MaxFrameSize bounds the largest frame this codec will accept on
	// ingress (max_recv_frame_size in spec §4.1). Legal range
	// [16384, 16777215].
	MaxFrameSize uint32
	// HeaderTableSize is the initial HPACK dynamic table size advertised
	// to the peer via egress SETTINGS.
	HeaderTableSize uint32
	// InitialWindowSize is advertised via egress SETTINGS; the codec
	// itself performs no flow-control accounting (spec non-goal).
	InitialWindowSize uint32
	// EnablePush advertises (or withholds) server push support.
	EnablePush bool
	// HeaderSplitSize bounds the size of each HEADERS/CONTINUATION/
	// PUSH_PROMISE fragment emitted by GenerateHeader. This is a
	// per-instance override of proxygen's process-global
	// kHeaderSplitSize static, per Design Notes' guidance against global
	// mutable tunables; tests can set it low to force fragmentation.
	HeaderSplitSize uint32
	// Logger receives diagnostic output. A nil Logger is replaced with
	// one that discards output, so library consumers get silence unless
	// they opt in.
	Logger *log.Logger
}

func newSilentLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// DefaultCodecOptions returns the protocol's stated defaults (spec §6).
func DefaultCodecOptions() CodecOptions {
	return CodecOptions{
		MaxFrameSize:      16384,
		HeaderTableSize:   4096,
		InitialWindowSize: 65535,
		EnablePush:        true,
		HeaderSplitSize:   16384,
		Logger:            newSilentLogger(),
	}
}

// Validate clamps out-of-range values to protocol-legal bounds in place.
func (o *CodecOptions) Validate() {
	if o.MaxFrameSize < 16384 {
		o.MaxFrameSize = 16384
	}
	if o.MaxFrameSize > (1<<24)-1 {
		o.MaxFrameSize = (1 << 24) - 1
	}
	if o.HeaderTableSize == 0 {
		o.HeaderTableSize = 4096
	}
	if o.InitialWindowSize == 0 {
		o.InitialWindowSize = 65535
	}
	if o.HeaderSplitSize == 0 || o.HeaderSplitSize > o.MaxFrameSize {
		o.HeaderSplitSize = o.MaxFrameSize
	}
	if o.Logger == nil {
		o.Logger = newSilentLogger()
	}
}
