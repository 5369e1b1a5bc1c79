package h2codec

import (
	"bytes"
	"testing"

	"golang.org/x/net/http2"
)

// recordingSink implements Sink, appending every callback invocation in
// order so tests can assert both the event sequence and its contents.
type recordingSink struct {
	events []string

	lastMsg        *Message
	lastBody       []byte
	lastErr        error
	lastErrStream  uint32
	lastErrNewTxn  bool
	lastSettings   []Setting
	lastGoaway     uint32
	lastGoawayCode ErrCode
	lastAbortCode  ErrCode
	lastPing       [8]byte
	lastWindow     uint32
}

func (s *recordingSink) OnMessageBegin(stream uint32, msg *Message) {
	s.events = append(s.events, "message_begin")
	s.lastMsg = msg
}
func (s *recordingSink) OnPushMessageBegin(promised, assoc uint32, msg *Message) {
	s.events = append(s.events, "push_message_begin")
	s.lastMsg = msg
}
func (s *recordingSink) OnHeadersComplete(stream uint32, msg *Message) {
	s.events = append(s.events, "headers_complete")
	s.lastMsg = msg
}
func (s *recordingSink) OnBody(stream uint32, data []byte) {
	s.events = append(s.events, "body")
	s.lastBody = append([]byte{}, data...)
}
func (s *recordingSink) OnMessageComplete(stream uint32, upgrade bool) {
	s.events = append(s.events, "message_complete")
}
func (s *recordingSink) OnAbort(stream uint32, code ErrCode) {
	s.events = append(s.events, "abort")
	s.lastAbortCode = code
}
func (s *recordingSink) OnGoaway(lastGoodStream uint32, code ErrCode, debugData []byte) {
	s.events = append(s.events, "goaway")
	s.lastGoaway = lastGoodStream
	s.lastGoawayCode = code
}
func (s *recordingSink) OnPingRequest(opaque [8]byte) {
	s.events = append(s.events, "ping_request")
	s.lastPing = opaque
}
func (s *recordingSink) OnPingReply(opaque [8]byte) {
	s.events = append(s.events, "ping_reply")
	s.lastPing = opaque
}
func (s *recordingSink) OnSettings(settings []Setting) {
	s.events = append(s.events, "settings")
	s.lastSettings = settings
}
func (s *recordingSink) OnSettingsAck() {
	s.events = append(s.events, "settings_ack")
}
func (s *recordingSink) OnWindowUpdate(stream uint32, delta uint32) {
	s.events = append(s.events, "window_update")
	s.lastWindow = delta
}
func (s *recordingSink) OnError(stream uint32, err error, newTxn bool) {
	s.events = append(s.events, "error")
	s.lastErr = err
	s.lastErrStream = stream
	s.lastErrNewTxn = newTxn
}

func testOpts() CodecOptions {
	o := DefaultCodecOptions()
	o.Validate()
	return o
}

// writeFrame uses golang.org/x/net/http2.Framer, the same library the
// codec's own ingress path binds per-frame, to produce well-formed wire
// bytes for a single frame so tests exercise the real wire format rather
// than hand-rolled byte layouts.
func writeFrame(t *testing.T, fn func(fr *http2.Framer)) []byte {
	t.Helper()
	var buf bytes.Buffer
	fr := http2.NewFramer(&buf, nil)
	fn(fr)
	return buf.Bytes()
}

func TestNewCodec_StreamIDSeeding(t *testing.T) {
	up := NewUpstreamCodec(&recordingSink{}, testOpts())
	if got := up.CreateStream(); got != 1 {
		t.Errorf("upstream first stream id = %d, want 1", got)
	}
	if got := up.CreateStream(); got != 3 {
		t.Errorf("upstream second stream id = %d, want 3", got)
	}

	down := NewDownstreamCodec(&recordingSink{}, testOpts())
	if got := down.CreateStream(); got != 2 {
		t.Errorf("downstream first stream id = %d, want 2", got)
	}
	if got := down.CreateStream(); got != 4 {
		t.Errorf("downstream second stream id = %d, want 4", got)
	}
}

func TestCodec_ServerHandshake(t *testing.T) {
	sink := &recordingSink{}
	c := NewDownstreamCodec(sink, testOpts())

	var wire bytes.Buffer
	wire.WriteString(connectionPreface)
	wire.Write(writeFrame(t, func(fr *http2.Framer) {
		fr.WriteSettings() // empty SETTINGS
	}))

	n, err := c.OnIngress(wire.Bytes())
	if err != nil {
		t.Fatalf("OnIngress error: %v", err)
	}
	if n != wire.Len() {
		t.Errorf("consumed = %d, want %d", n, wire.Len())
	}
	if len(sink.events) != 1 || sink.events[0] != "settings" {
		t.Errorf("events = %v, want [settings]", sink.events)
	}
	if len(sink.lastSettings) != 0 {
		t.Errorf("expected empty settings list, got %v", sink.lastSettings)
	}
}

func TestCodec_OnIngress_ChunkingIsTransparent(t *testing.T) {
	// Build a stream: preface + SETTINGS + PING.
	var wire bytes.Buffer
	wire.WriteString(connectionPreface)
	wire.Write(writeFrame(t, func(fr *http2.Framer) {
		fr.WriteSettings(http2.Setting{ID: http2.SettingMaxFrameSize, Val: 16384})
	}))
	wire.Write(writeFrame(t, func(fr *http2.Framer) {
		fr.WritePing(false, [8]byte{1, 2, 3, 4, 5, 6, 7, 8})
	}))
	full := wire.Bytes()

	oneShot := &recordingSink{}
	cOne := NewDownstreamCodec(oneShot, testOpts())
	nOne, err := cOne.OnIngress(full)
	if err != nil {
		t.Fatalf("one-shot OnIngress error: %v", err)
	}

	chunked := &recordingSink{}
	cChunked := NewDownstreamCodec(chunked, testOpts())
	var pending []byte
	consumedTotal := 0
	for i := 0; i < len(full); i++ {
		pending = append(pending, full[i])
		n, err := cChunked.OnIngress(pending)
		if err != nil {
			t.Fatalf("chunked OnIngress error at byte %d: %v", i, err)
		}
		consumedTotal += n
		pending = pending[n:]
	}
	if consumedTotal != nOne {
		t.Errorf("chunked consumed total = %d, want %d", consumedTotal, nOne)
	}
	if len(pending) != 0 {
		t.Errorf("leftover unconsumed bytes: %d", len(pending))
	}
	if len(chunked.events) != len(oneShot.events) {
		t.Fatalf("event count mismatch: chunked=%v one-shot=%v", chunked.events, oneShot.events)
	}
	for i := range oneShot.events {
		if oneShot.events[i] != chunked.events[i] {
			t.Errorf("event[%d] = %q, want %q", i, chunked.events[i], oneShot.events[i])
		}
	}
}

func TestCodec_BadConnectionPreface(t *testing.T) {
	sink := &recordingSink{}
	c := NewDownstreamCodec(sink, testOpts())

	_, err := c.OnIngress([]byte("GET / HTTP/1.1\r\n\r\nxxxxxxxx"))
	if err == nil {
		t.Fatal("expected connection error for bad preface")
	}
	ce, ok := err.(*ConnError)
	if !ok || ce.Code != ErrCodeProtocol {
		t.Errorf("err = %v, want ConnError{ErrCodeProtocol}", err)
	}
	if len(sink.events) != 1 || sink.events[0] != "error" {
		t.Errorf("events = %v, want [error]", sink.events)
	}
	if sink.lastErrNewTxn {
		t.Error("connection error must report newTxn=false")
	}
}

func TestCodec_OversizedFrame_FrameSizeError(t *testing.T) {
	sink := &recordingSink{}
	c := NewDownstreamCodec(sink, testOpts())
	c.needConnectionPreface = false

	var hdr [9]byte
	length := c.maxRecvFrameSize() + 1
	hdr[0] = byte(length >> 16)
	hdr[1] = byte(length >> 8)
	hdr[2] = byte(length)
	hdr[3] = byte(frameTypeData)

	_, err := c.OnIngress(hdr[:])
	if err == nil {
		t.Fatal("expected FRAME_SIZE_ERROR")
	}
	ce, ok := err.(*ConnError)
	if !ok || ce.Code != ErrCodeFrameSize {
		t.Errorf("err = %v, want ConnError{ErrCodeFrameSize}", err)
	}
}
