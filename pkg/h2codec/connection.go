package h2codec

import "math"

// ClosingState tracks the GOAWAY lifecycle of a connection (spec §4.5).
type ClosingState uint8

const (
	ClosingOpen ClosingState = iota
	ClosingFirstGoawaySent
	ClosingClosed
)

// goawayUnsetAck is the sentinel ingress_goaway_ack value meaning "no
// GOAWAY received yet" (spec §3: "initial value = maximum 32-bit
// unsigned").
const goawayUnsetAck = math.MaxUint32

// checkNewStream validates a newly observed ingress stream id against
// spec §4.5 and, on success, advances last_ingress_stream_id to the
// *validated* id — not curHeader_.stream, which is the fix for spec.md's
// second Open Question: for PUSH_PROMISE the promised id differs from the
// frame's own stream id, and it's the promised id that must be recorded.
func (c *Codec) checkNewStream(streamID uint32) *ConnError {
	if streamID == 0 || streamID <= c.lastIngressStreamID {
		return connErr(ErrCodeProtocol, "invalid new stream id")
	}
	odd := streamID&1 == 1
	// A downstream codec's peer is the client: peer-initiated streams
	// must be odd. An upstream codec's peer is the server: pushed
	// streams must be even.
	peerMustBeOdd := c.direction == Downstream
	if odd != peerMustBeOdd {
		return connErr(ErrCodeProtocol, "invalid new stream id parity")
	}
	c.lastIngressStreamID = streamID
	return nil
}

// IsReusable reports whether the connection may still accept new streams:
// this side is OPEN (or, on a downstream codec only, has sent the first
// of a graceful two-step GOAWAY), and the peer hasn't sent a GOAWAY.
func (c *Codec) IsReusable() bool {
	graceful := c.closingState == ClosingOpen ||
		(c.direction == Downstream && c.IsWaitingToDrain())
	return graceful && c.ingressGoawayAck == goawayUnsetAck
}

// IsWaitingToDrain reports whether this side has sent the first of a
// two-step graceful GOAWAY and is waiting to send the final one.
func (c *Codec) IsWaitingToDrain() bool {
	return c.closingState == ClosingFirstGoawaySent
}

// IsBusy always reports false: the codec buffers no egress beyond what the
// caller drains from each Generate call.
func (c *Codec) IsBusy() bool { return false }
