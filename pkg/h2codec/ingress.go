package h2codec

import (
	"bytes"
	"encoding/binary"
	"io"

	"golang.org/x/net/http2"
)

// parseCommonHeader decodes the 9-byte common frame header (spec §6). The
// caller guarantees len(b) >= 9.
func parseCommonHeader(b []byte) frameHeader {
	length := uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
	return frameHeader{
		length:   length,
		typ:      frameType(b[3]),
		flags:    frameFlags(b[4]),
		streamID: binary.BigEndian.Uint32(b[5:9]) & 0x7fffffff,
	}
}

// buildFrameBytes reconstructs a full 9-byte-header-plus-payload buffer
// from the already-parsed current header and a payload slice, so that a
// one-shot golang.org/x/net/http2.Framer can parse the per-type layout
// without the codec retaining raw bytes across OnIngress calls.
func (c *Codec) buildFrameBytes(payload []byte) []byte {
	buf := make([]byte, 9+len(payload))
	h := c.currentHeader
	buf[0] = byte(h.length >> 16)
	buf[1] = byte(h.length >> 8)
	buf[2] = byte(h.length)
	buf[3] = byte(h.typ)
	buf[4] = byte(h.flags)
	binary.BigEndian.PutUint32(buf[5:9], h.streamID)
	copy(buf[9:], payload)
	return buf
}

// OnIngress feeds an arbitrary byte slice to the codec. It consumes a
// prefix containing zero or more complete protocol units and returns how
// many bytes were consumed; the caller resubmits the unconsumed suffix
// together with more data. The codec never retains the slice beyond this
// call. A non-nil error is always a connection-level failure (also
// delivered via Sink.OnError(0, err, false)); stream-level failures never
// surface here, only through the Sink (spec §7 "two orthogonal channels").
func (c *Codec) OnIngress(data []byte) (int, error) {
	consumed := 0
	for {
		switch {
		case c.needConnectionPreface:
			if len(data)-consumed < len(clientPreface24) {
				return consumed, nil
			}
			if !bytes.Equal(data[consumed:consumed+len(clientPreface24)], clientPreface24) {
				return consumed, c.connectionError(connErr(ErrCodeProtocol, "bad connection preface"))
			}
			consumed += len(clientPreface24)
			c.needConnectionPreface = false

		case c.needCommonHeader:
			if len(data)-consumed < 9 {
				return consumed, nil
			}
			hdr := parseCommonHeader(data[consumed : consumed+9])
			consumed += 9
			if hdr.length > c.maxRecvFrameSize() {
				return consumed, c.connectionError(connErr(ErrCodeFrameSize, "frame exceeds max_recv_frame_size"))
			}
			c.currentHeader = hdr
			c.needCommonHeader = false

		default:
			need := int(c.currentHeader.length)
			if len(data)-consumed < need {
				return consumed, nil
			}
			payload := data[consumed : consumed+need]
			consumed += need
			c.needCommonHeader = true

			if err := c.checkContinuationInterlock(); err != nil {
				return consumed, c.connectionError(err)
			}
			if err := c.dispatchFrame(payload); err != nil {
				switch e := err.(type) {
				case *ConnError:
					return consumed, c.connectionError(e)
				case *StreamError:
					if c.callback != nil {
						c.callback.OnError(e.StreamID, e, true)
					}
				default:
					return consumed, c.connectionError(connErr(ErrCodeInternal, err.Error()))
				}
			}
			c.updateContinuationExpectation()
		}
	}
}

// checkContinuationInterlock enforces spec §4.1's continuation interlock,
// checked before dispatch using only the already-parsed common header.
func (c *Codec) checkContinuationInterlock() *ConnError {
	h := c.currentHeader
	if c.expectedContinuationStream != 0 {
		if h.typ != frameTypeContinuation || c.expectedContinuationStream != h.streamID {
			return connErr(ErrCodeProtocol, "expected CONTINUATION frame")
		}
		return nil
	}
	if h.typ == frameTypeContinuation {
		return connErr(ErrCodeProtocol, "unexpected CONTINUATION frame")
	}
	return nil
}

// updateContinuationExpectation runs after every dispatched frame.
func (c *Codec) updateContinuationExpectation() {
	h := c.currentHeader
	if frameAffectsCompression(h.typ) && h.flags&flagEndHeaders == 0 {
		c.expectedContinuationStream = h.streamID
	} else {
		c.expectedContinuationStream = 0
	}
}

// connectionError reports err via the Sink (stream=0, new_txn=false) per
// spec §4.6, counts it for metrics if attached, and returns it unchanged
// so OnIngress can also return it as a Go error.
func (c *Codec) connectionError(err *ConnError) error {
	if c.metrics != nil {
		c.metrics.ConnectionError(err.Code)
	}
	if c.callback != nil {
		c.callback.OnError(0, err, false)
	}
	return err
}

func (c *Codec) dispatchFrame(payload []byte) error {
	frameBytes := c.buildFrameBytes(payload)
	fr := http2.NewFramer(io.Discard, bytes.NewReader(frameBytes))
	fr.SetMaxReadFrameSize(1 << 24)
	// The codec enforces its own continuation interlock in
	// checkContinuationInterlock before dispatch; without this, Framer's
	// own lastHeaderStream bookkeeping (reset per one-shot Framer instance)
	// rejects every standalone CONTINUATION as "unexpected" on its own.
	fr.AllowIllegalReads = true

	f, err := fr.ReadFrame()
	if err != nil {
		// A zero-increment WINDOW_UPDATE on a nonzero stream is not a frame-
		// order problem (AllowIllegalReads doesn't touch it) -- the Framer's
		// own payload validation rejects it as a StreamError before a
		// WindowUpdateFrame is even constructed, so handleWindowUpdate never
		// runs. Per spec it's stream-local and silently dropped here instead.
		if se, ok := err.(http2.StreamError); ok {
			if c.currentHeader.typ == frameTypeWindowUpdate && se.StreamID == c.currentHeader.streamID && c.currentHeader.streamID != 0 {
				return nil
			}
			return streamErr(se.StreamID, "frame parse error")
		}
		if ce, ok := err.(http2.ConnectionError); ok {
			return connErr(http2.ErrCode(ce), "frame parse error")
		}
		return connErr(ErrCodeProtocol, "frame parse error: "+err.Error())
	}

	if c.metrics != nil {
		c.metrics.FrameParsed(uint8(c.currentHeader.typ))
	}

	switch frame := f.(type) {
	case *http2.DataFrame:
		return c.handleData(frame)
	case *http2.HeadersFrame:
		return c.handleHeaders(frame)
	case *http2.PriorityFrame:
		return c.handlePriority(frame)
	case *http2.RSTStreamFrame:
		return c.handleRSTStream(frame)
	case *http2.SettingsFrame:
		return c.handleSettings(frame)
	case *http2.PushPromiseFrame:
		return c.handlePushPromise(frame)
	case *http2.PingFrame:
		return c.handlePing(frame)
	case *http2.GoAwayFrame:
		return c.handleGoAway(frame)
	case *http2.WindowUpdateFrame:
		return c.handleWindowUpdate(frame)
	case *http2.ContinuationFrame:
		return c.handleContinuation(frame)
	default:
		// Unknown frame type or ALTSVC: the payload bytes are already
		// consumed by the outer loop, so there's nothing left to do.
		return nil
	}
}

func (c *Codec) handleData(f *http2.DataFrame) error {
	c.callback.OnBody(c.currentHeader.streamID, f.Data())
	return c.handleEndStream()
}

func (c *Codec) handleEndStream() error {
	if c.currentHeader.flags&flagEndStream != 0 {
		c.callback.OnMessageComplete(c.currentHeader.streamID, false)
	}
	return nil
}

func (c *Codec) handlePriority(f *http2.PriorityFrame) error {
	if f.StreamDep == c.currentHeader.streamID {
		return connErr(ErrCodeProtocol, "stream cannot depend on itself")
	}
	return nil
}

func (c *Codec) handleRSTStream(f *http2.RSTStreamFrame) error {
	c.callback.OnAbort(c.currentHeader.streamID, f.ErrCode)
	return nil
}

func (c *Codec) handleSettings(f *http2.SettingsFrame) error {
	if f.IsAck() {
		c.callback.OnSettingsAck()
		return nil
	}
	var applied []Setting
	err := f.ForeachSetting(func(s http2.Setting) error {
		if ve := validateIngressSetting(s.ID, s.Val); ve != nil {
			return ve
		}
		c.ingressSettings.set(s.ID, s.Val)
		if s.ID == SettingHeaderTableSize {
			c.hpackEncoder.SetTableSize(s.Val)
		}
		applied = append(applied, Setting{ID: s.ID, Value: s.Val})
		return nil
	})
	if err != nil {
		if ce, ok := err.(*ConnError); ok {
			return ce
		}
		return connErr(ErrCodeProtocol, err.Error())
	}
	c.callback.OnSettings(applied)
	return nil
}

func (c *Codec) handlePushPromise(f *http2.PushPromiseFrame) error {
	if c.direction != Upstream {
		return connErr(ErrCodeProtocol, "received PUSH_PROMISE on downstream codec")
	}
	if c.egressSettings.get(SettingEnablePush, 1) != 1 {
		return connErr(ErrCodeProtocol, "received PUSH_PROMISE with push disabled")
	}
	if ce := c.checkNewStream(f.PromiseID); ce != nil {
		return ce
	}

	c.openHeaderActive = true
	c.openHeaderStreamID = c.currentHeader.streamID
	c.openHeaderPromisedID = f.PromiseID
	c.openHeaderEndStream = false
	c.openHeaderDropped = c.closingState == ClosingClosed
	if c.openHeaderDropped {
		return nil
	}
	return c.appendHeaderFragment(f.HeaderBlockFragment(), f.HeadersEnded())
}

func (c *Codec) handleHeaders(f *http2.HeadersFrame) error {
	streamID := c.currentHeader.streamID
	if c.direction == Downstream {
		if ce := c.checkNewStream(streamID); ce != nil {
			return ce
		}
	} else if streamID&1 == 0 {
		return connErr(ErrCodeProtocol, "invalid HEADERS reply on even stream")
	}

	if f.HasPriority() && f.Priority.StreamDep == streamID {
		return connErr(ErrCodeProtocol, "stream cannot depend on itself")
	}

	c.openHeaderActive = true
	c.openHeaderStreamID = streamID
	c.openHeaderPromisedID = 0
	// END_STREAM is only meaningful on the initiating frame; capture it
	// here rather than re-reading curHeader at completion time, since the
	// frame that completes END_HEADERS may be a later CONTINUATION.
	c.openHeaderEndStream = f.StreamEnded()
	c.openHeaderDropped = c.direction == Downstream && c.closingState == ClosingClosed
	if c.openHeaderDropped {
		return nil
	}
	return c.appendHeaderFragment(f.HeaderBlockFragment(), f.HeadersEnded())
}

func (c *Codec) handleContinuation(f *http2.ContinuationFrame) error {
	if c.openHeaderDropped {
		if f.HeadersEnded() {
			c.openHeaderActive = false
			c.openHeaderDropped = false
		}
		return nil
	}
	return c.appendHeaderFragment(f.HeaderBlockFragment(), f.HeadersEnded())
}

func (c *Codec) handlePing(f *http2.PingFrame) error {
	if f.IsAck() {
		c.callback.OnPingReply(f.Data)
	} else {
		c.callback.OnPingRequest(f.Data)
	}
	return nil
}

func (c *Codec) handleGoAway(f *http2.GoAwayFrame) error {
	if f.LastStreamID < c.ingressGoawayAck {
		c.ingressGoawayAck = f.LastStreamID
		c.callback.OnGoaway(f.LastStreamID, f.ErrCode, f.DebugData())
	} else {
		c.opts.Logger.Printf("h2codec: received GOAWAY with non-decreasing last good stream=%d", f.LastStreamID)
	}
	return nil
}

// handleWindowUpdate only ever sees a nonzero Increment: the Framer itself
// rejects a zero increment before constructing a WindowUpdateFrame at all
// (dispatchFrame drops the nonzero-stream case, escalates the stream-0 case).
func (c *Codec) handleWindowUpdate(f *http2.WindowUpdateFrame) error {
	c.callback.OnWindowUpdate(c.currentHeader.streamID, f.Increment)
	return nil
}

// appendHeaderFragment accumulates one header-block fragment, appending it
// exactly once (spec.md's first Open Question: the original appends twice
// in one branch). On END_HEADERS it decodes, validates, and emits events.
func (c *Codec) appendHeaderFragment(fragment []byte, endHeaders bool) error {
	c.accumulatedHeaderBlock.Write(fragment)
	if !endHeaders {
		return nil
	}

	data := make([]byte, c.accumulatedHeaderBlock.Len())
	copy(data, c.accumulatedHeaderBlock.Bytes())
	c.accumulatedHeaderBlock.Reset()

	streamID := c.openHeaderStreamID
	promisedID := c.openHeaderPromisedID
	endStream := c.openHeaderEndStream
	c.openHeaderActive = false

	list, err := c.hpackDecoder.Decode(data)
	if err != nil {
		return connErr(ErrCodeCompression, "header block decode failed")
	}

	isRequest := c.direction == Downstream || promisedID != 0
	msg, herr := parseHeaderList(list, isRequest, streamID)
	if herr != nil {
		switch e := herr.(type) {
		case *ConnError:
			return e
		case *StreamError:
			c.callback.OnError(streamID, e, true)
			return nil
		default:
			return nil
		}
	}

	if promisedID != 0 {
		c.callback.OnPushMessageBegin(promisedID, streamID, msg)
		c.callback.OnHeadersComplete(promisedID, msg)
		return nil
	}

	c.callback.OnMessageBegin(streamID, msg)
	c.callback.OnHeadersComplete(streamID, msg)
	if endStream {
		c.callback.OnMessageComplete(streamID, false)
	}
	return nil
}
