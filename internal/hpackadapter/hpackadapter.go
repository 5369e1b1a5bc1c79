// Package hpackadapter adapts golang.org/x/net/http2/hpack into the small
// encode/decode contract an HTTP/2 codec expects from its header-block
// compression engine: opaque byte buffers in, flat name/value lists out,
// with independent table-size controls for encoder and decoder.
package hpackadapter

import (
	"bytes"
	"fmt"
	"sync"

	"golang.org/x/net/http2/hpack"
)

// headerBufPool reuses temporary buffers used during HPACK encoding to
// reduce allocations on the hot path (one encode per outbound HEADERS).
var headerBufPool = sync.Pool{New: func() any { return new(bytes.Buffer) }}

// Encoder encodes flat (name, value) header lists into an HPACK byte
// stream, tracking the size of the last encoded block for metrics.
type Encoder struct {
	enc        *hpack.Encoder
	buf        *bytes.Buffer
	lastEncLen int
}

// NewEncoder returns an Encoder with a borrowed, pooled output buffer.
func NewEncoder() *Encoder {
	bufAny := headerBufPool.Get()
	buf, ok := bufAny.(*bytes.Buffer)
	if !ok {
		buf = new(bytes.Buffer)
	}
	buf.Reset()
	return &Encoder{
		enc: hpack.NewEncoder(buf),
		buf: buf,
	}
}

// SetTableSize changes the dynamic table size this encoder will encode for.
func (e *Encoder) SetTableSize(n uint32) {
	e.enc.SetMaxDynamicTableSize(n)
}

// Encode HPACK-encodes headers and returns a private copy of the bytes; the
// returned slice remains valid regardless of subsequent Encode calls.
func (e *Encoder) Encode(headers [][2]string) ([]byte, error) {
	e.buf.Reset()
	for _, h := range headers {
		if err := e.enc.WriteField(hpack.HeaderField{Name: h[0], Value: h[1]}); err != nil {
			return nil, fmt.Errorf("hpack encode: %w", err)
		}
	}
	e.lastEncLen = e.buf.Len()
	out := make([]byte, e.buf.Len())
	copy(out, e.buf.Bytes())
	return out, nil
}

// LastEncodedSize returns the byte length of the most recent Encode call.
func (e *Encoder) LastEncodedSize() int { return e.lastEncLen }

// Close returns the encoder's buffer to the pool. The encoder must not be
// used afterward.
func (e *Encoder) Close() {
	if e.buf == nil {
		return
	}
	e.buf.Reset()
	headerBufPool.Put(e.buf)
	e.buf = nil
	e.enc = hpack.NewEncoder(new(bytes.Buffer))
}

// Decoder decodes an HPACK byte stream into a flat (name, value) list.
type Decoder struct {
	dec *hpack.Decoder
}

// NewDecoder returns a Decoder with the given initial dynamic table size.
func NewDecoder(maxTableSize uint32) *Decoder {
	return &Decoder{dec: hpack.NewDecoder(maxTableSize, nil)}
}

// SetMaxTableSize updates the maximum dynamic table size this decoder will
// honor, driven by the HEADER_TABLE_SIZE setting this side advertises.
func (d *Decoder) SetMaxTableSize(n uint32) {
	d.dec.SetAllowedMaxDynamicTableSize(n)
	d.dec.SetMaxDynamicTableSize(n)
}

// Decode HPACK-decodes data into a flat name/value list in wire order.
func (d *Decoder) Decode(data []byte) ([][2]string, error) {
	var out [][2]string
	d.dec.SetEmitFunc(func(hf hpack.HeaderField) {
		out = append(out, [2]string{hf.Name, hf.Value})
	})
	if _, err := d.dec.Write(data); err != nil {
		return nil, fmt.Errorf("hpack decode: %w", err)
	}
	if err := d.dec.Close(); err != nil {
		return nil, fmt.Errorf("hpack decode: %w", err)
	}
	return out, nil
}
