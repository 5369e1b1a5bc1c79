package h2codec

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
)

// writeRawFrame appends a frame (header + payload) to buf. It never fails:
// callers are responsible for passing a legal length/type combination.
func writeRawFrame(buf *bytes.Buffer, typ frameType, flags frameFlags, streamID uint32, payload []byte) {
	var hdr [9]byte
	length := uint32(len(payload))
	hdr[0] = byte(length >> 16)
	hdr[1] = byte(length >> 8)
	hdr[2] = byte(length)
	hdr[3] = byte(typ)
	hdr[4] = byte(flags)
	binary.BigEndian.PutUint32(hdr[5:9], streamID&0x7fffffff)
	buf.Write(hdr[:])
	buf.Write(payload)
}

// GenerateConnectionPreface appends the literal 24-byte client preface.
func (c *Codec) GenerateConnectionPreface(buf *bytes.Buffer) int {
	buf.WriteString(connectionPreface)
	return len(connectionPreface)
}

// GenerateHeader assembles, encodes, and fragments msg's headers into a
// HEADERS (or PUSH_PROMISE, if assocStream != 0) frame followed by zero or
// more CONTINUATION frames. Fragment size is bounded by
// CodecOptions.HeaderSplitSize. eom sets END_STREAM on the initiating frame
// for a bodyless message; it has no effect on PUSH_PROMISE, which carries no
// END_STREAM flag. Returns the number of bytes appended.
func (c *Codec) GenerateHeader(buf *bytes.Buffer, stream uint32, msg *Message, assocStream uint32, eom bool) int {
	list := generateHeaderList(msg)
	encoded, err := c.hpackEncoder.Encode(list)
	if err != nil {
		// Encoding a well-formed header list cannot fail; surface nothing
		// to the caller per spec §4.4 ("generators never fail").
		return 0
	}
	if c.metrics != nil {
		c.metrics.HeaderBlockEncoded(c.hpackEncoder.LastEncodedSize())
	}

	start := buf.Len()
	splitSize := int(c.opts.HeaderSplitSize)
	if splitSize <= 0 {
		splitSize = len(encoded)
		if splitSize == 0 {
			splitSize = 1
		}
	}

	remaining := encoded
	first := true
	for {
		chunkLen := splitSize
		if chunkLen > len(remaining) {
			chunkLen = len(remaining)
		}
		chunk := remaining[:chunkLen]
		remaining = remaining[chunkLen:]
		endHeaders := len(remaining) == 0
		isFirst := first

		if isFirst {
			var flags frameFlags
			if endHeaders {
				flags |= flagEndHeaders
			}
			if assocStream == 0 {
				if eom {
					flags |= flagEndStream
				}
				writeRawFrame(buf, frameTypeHeaders, flags, stream, chunk)
			} else {
				promise := make([]byte, 4+len(chunk))
				binary.BigEndian.PutUint32(promise[:4], stream&0x7fffffff)
				copy(promise[4:], chunk)
				writeRawFrame(buf, frameTypePushPromise, flags, assocStream, promise)
			}
			first = false
		} else {
			var flags frameFlags
			if endHeaders {
				flags |= flagEndHeaders
			}
			// CONTINUATION stays on the stream of the frame that opened the
			// block: the associated stream for a PUSH_PROMISE.
			target := stream
			if assocStream != 0 {
				target = assocStream
			}
			writeRawFrame(buf, frameTypeContinuation, flags, target, chunk)
		}

		if c.metrics != nil {
			if isFirst {
				if assocStream == 0 {
					c.metrics.FrameGenerated(uint8(frameTypeHeaders))
				} else {
					c.metrics.FrameGenerated(uint8(frameTypePushPromise))
				}
			} else {
				c.metrics.FrameGenerated(uint8(frameTypeContinuation))
			}
		}

		if endHeaders {
			break
		}
	}
	return buf.Len() - start
}

// GenerateBody fragments data into DATA frames of at most
// max_send_frame_size, with eom applied to the final (possibly empty,
// zero-byte) segment.
func (c *Codec) GenerateBody(buf *bytes.Buffer, stream uint32, data []byte, eom bool) int {
	start := buf.Len()
	maxSize := int(c.maxSendFrameSize())
	if maxSize <= 0 {
		maxSize = 16384
	}
	for len(data) > maxSize {
		writeRawFrame(buf, frameTypeData, 0, stream, data[:maxSize])
		data = data[maxSize:]
		if c.metrics != nil {
			c.metrics.FrameGenerated(uint8(frameTypeData))
		}
	}
	var flags frameFlags
	if eom {
		flags |= flagEndStream
	}
	writeRawFrame(buf, frameTypeData, flags, stream, data)
	if c.metrics != nil {
		c.metrics.FrameGenerated(uint8(frameTypeData))
	}
	return buf.Len() - start
}

// GenerateEOM emits a zero-length DATA frame with END_STREAM set.
func (c *Codec) GenerateEOM(buf *bytes.Buffer, stream uint32) int {
	return c.GenerateBody(buf, stream, nil, true)
}

// GenerateRstStream emits a single RST_STREAM frame.
func (c *Codec) GenerateRstStream(buf *bytes.Buffer, stream uint32, code ErrCode) int {
	start := buf.Len()
	var payload [4]byte
	binary.BigEndian.PutUint32(payload[:], uint32(code))
	writeRawFrame(buf, frameTypeRSTStream, 0, stream, payload[:])
	if c.metrics != nil {
		c.metrics.FrameGenerated(uint8(frameTypeRSTStream))
	}
	return buf.Len() - start
}

// GenerateGoaway advances closing_state per spec §4.5 and, unless the
// connection is already CLOSED, emits a GOAWAY frame. debugData may be nil.
func (c *Codec) GenerateGoaway(buf *bytes.Buffer, lastStream uint32, code ErrCode, debugData []byte) int {
	if c.closingState == ClosingClosed {
		return 0
	}
	c.egressGoawayAck = lastStream

	switch c.closingState {
	case ClosingOpen:
		if lastStream == 0x7fffffff && code == ErrCodeNo {
			c.closingState = ClosingFirstGoawaySent
		} else {
			c.closingState = ClosingClosed
		}
	case ClosingFirstGoawaySent:
		c.closingState = ClosingClosed
	}

	start := buf.Len()
	payload := make([]byte, 8+len(debugData))
	binary.BigEndian.PutUint32(payload[0:4], lastStream&0x7fffffff)
	binary.BigEndian.PutUint32(payload[4:8], uint32(code))
	copy(payload[8:], debugData)
	writeRawFrame(buf, frameTypeGoAway, 0, 0, payload)
	if c.metrics != nil {
		c.metrics.FrameGenerated(uint8(frameTypeGoAway))
	}
	return buf.Len() - start
}

// GeneratePingRequest emits a PING with a random (non-cryptographic
// correlation only) opaque payload.
func (c *Codec) GeneratePingRequest(buf *bytes.Buffer) int {
	var opaque [8]byte
	_, _ = rand.Read(opaque[:])
	return c.generatePing(buf, opaque, false)
}

// GeneratePingReply emits a PING ACK echoing opaque.
func (c *Codec) GeneratePingReply(buf *bytes.Buffer, opaque [8]byte) int {
	return c.generatePing(buf, opaque, true)
}

func (c *Codec) generatePing(buf *bytes.Buffer, opaque [8]byte, ack bool) int {
	start := buf.Len()
	var flags frameFlags
	if ack {
		flags = flagAck
	}
	writeRawFrame(buf, frameTypePing, flags, 0, opaque[:])
	if c.metrics != nil {
		c.metrics.FrameGenerated(uint8(frameTypePing))
	}
	return buf.Len() - start
}

// GenerateSettings emits every explicitly-set egress setting as one
// SETTINGS frame.
func (c *Codec) GenerateSettings(buf *bytes.Buffer) int {
	start := buf.Len()
	ids := []SettingID{
		SettingHeaderTableSize, SettingEnablePush, SettingMaxConcurrentStreams,
		SettingInitialWindowSize, SettingMaxFrameSize, SettingMaxHeaderListSize,
	}
	var payload bytes.Buffer
	for _, id := range ids {
		if !c.egressSettings.isSet(id) {
			continue
		}
		v := c.egressSettings.get(id, 0)
		var entry [6]byte
		binary.BigEndian.PutUint16(entry[0:2], uint16(id))
		binary.BigEndian.PutUint32(entry[2:6], v)
		payload.Write(entry[:])
		if id == SettingHeaderTableSize {
			c.hpackDecoder.SetMaxTableSize(v)
		}
	}
	writeRawFrame(buf, frameTypeSettings, 0, 0, payload.Bytes())
	if c.metrics != nil {
		c.metrics.FrameGenerated(uint8(frameTypeSettings))
	}
	return buf.Len() - start
}

// GenerateSettingsAck emits a zero-length SETTINGS frame with the ACK flag.
func (c *Codec) GenerateSettingsAck(buf *bytes.Buffer) int {
	start := buf.Len()
	writeRawFrame(buf, frameTypeSettings, flagAck, 0, nil)
	if c.metrics != nil {
		c.metrics.FrameGenerated(uint8(frameTypeSettings))
	}
	return buf.Len() - start
}

// GenerateWindowUpdate emits a single WINDOW_UPDATE frame.
func (c *Codec) GenerateWindowUpdate(buf *bytes.Buffer, stream uint32, delta uint32) int {
	start := buf.Len()
	var payload [4]byte
	binary.BigEndian.PutUint32(payload[:], delta&0x7fffffff)
	writeRawFrame(buf, frameTypeWindowUpdate, 0, stream, payload[:])
	if c.metrics != nil {
		c.metrics.FrameGenerated(uint8(frameTypeWindowUpdate))
	}
	return buf.Len() - start
}

// GenerateChunkHeader is a no-op: HTTP/2 has no chunk framing.
func (c *Codec) GenerateChunkHeader(buf *bytes.Buffer, stream uint32, length int) int { return 0 }

// GenerateChunkTerminator is a no-op: HTTP/2 has no chunk framing.
func (c *Codec) GenerateChunkTerminator(buf *bytes.Buffer, stream uint32) int { return 0 }

// GenerateTrailers is a no-op in this codec; trailer support is left to the
// layer above (spec treats the HTTP message object model as presumed).
func (c *Codec) GenerateTrailers(buf *bytes.Buffer, stream uint32, trailers [][2]string) int {
	return 0
}
