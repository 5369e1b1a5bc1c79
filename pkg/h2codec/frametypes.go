package h2codec

// frameType and frameFlags mirror the HTTP/2 wire constants (RFC 7540
// §11.2). On ingress they drive the common-header-level decisions this
// package makes itself (continuation interlock, dispatch table,
// unknown-frame skip) and per-type payload parsing is delegated to
// golang.org/x/net/http2; on egress, egress.go writes every frame,
// header and payload, by hand with them.
type frameType uint8

const (
	frameTypeData         frameType = 0x0
	frameTypeHeaders      frameType = 0x1
	frameTypePriority     frameType = 0x2
	frameTypeRSTStream    frameType = 0x3
	frameTypeSettings     frameType = 0x4
	frameTypePushPromise  frameType = 0x5
	frameTypePing         frameType = 0x6
	frameTypeGoAway       frameType = 0x7
	frameTypeWindowUpdate frameType = 0x8
	frameTypeContinuation frameType = 0x9
)

type frameFlags uint8

const (
	flagEndStream  frameFlags = 0x1
	flagAck        frameFlags = 0x1
	flagEndHeaders frameFlags = 0x4
	flagPadded     frameFlags = 0x8
	flagPriority   frameFlags = 0x20
)

// frameAffectsCompression reports whether a frame type participates in
// the header-block continuation interlock (spec §4.1's continuation
// interlock and the per-dispatch update after it).
func frameAffectsCompression(t frameType) bool {
	return t == frameTypeHeaders || t == frameTypePushPromise || t == frameTypeContinuation
}

const connectionPreface = "PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n"

// clientPreface24 is the literal 24-byte connection preface (spec §6).
var clientPreface24 = []byte(connectionPreface)
