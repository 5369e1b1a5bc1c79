package h2codec

import (
	"strconv"
	"strings"
)

// perHopHeaders is the fixed, process-wide lookup table of HTTP/1.x
// per-hop headers that have no meaning in HTTP/2 egress (Design Notes
// "Per-hop header table"). Initialized once; never mutated after init.
var perHopHeaders = map[string]bool{
	"connection":        true,
	"host":              true,
	"keep-alive":        true,
	"proxy-connection":  true,
	"transfer-encoding": true,
	"upgrade":           true,
}

// requestVerifier accumulates pseudo-header values for one request/promise
// as they're seen, tracking which were set, and validates completeness at
// the end. It's a value type with builder-style setters returning
// success/failure, per Design Notes.
type requestVerifier struct {
	msg *Message

	hasMethod, hasPath, hasScheme, hasAuthority bool
	err                                         string
}

func newRequestVerifier(msg *Message) *requestVerifier {
	return &requestVerifier{msg: msg}
}

func (v *requestVerifier) setMethod(value string) bool {
	if v.hasMethod {
		v.err = "duplicate :method"
		return false
	}
	if !validToken(value) {
		v.err = "invalid :method"
		return false
	}
	v.hasMethod = true
	v.msg.Method = value
	return true
}

func (v *requestVerifier) setScheme(value string) bool {
	if v.hasScheme {
		v.err = "duplicate :scheme"
		return false
	}
	if !validAlpha(value) {
		v.err = "invalid :scheme"
		return false
	}
	v.hasScheme = true
	v.msg.Scheme = value
	v.msg.Secure = value == "https"
	return true
}

func (v *requestVerifier) setAuthority(value string) bool {
	if v.hasAuthority {
		v.err = "duplicate :authority"
		return false
	}
	v.hasAuthority = true
	v.msg.Authority = value
	// :authority is stored as a Host header too (spec §4.3), so a consumer
	// that only walks msg.Headers still sees it.
	v.msg.AddHeader("host", value)
	return true
}

func (v *requestVerifier) setPath(value string) bool {
	if v.hasPath {
		v.err = "duplicate :path"
		return false
	}
	if value == "" {
		v.err = "empty :path"
		return false
	}
	if value != "*" && value[0] != '/' {
		v.err = "invalid :path"
		return false
	}
	v.hasPath = true
	v.msg.Path = value
	return true
}

// validate checks request-shape completeness once all pseudo-headers have
// been seen. CONNECT requests require :method and :authority and forbid
// :scheme and :path; every other request requires all three of :method,
// :scheme, :path.
func (v *requestVerifier) validate() bool {
	if v.err != "" {
		return false
	}
	if v.msg.Method == "CONNECT" {
		if !v.hasMethod || !v.hasAuthority || v.hasScheme || v.hasPath {
			v.err = "malformed CONNECT request"
			return false
		}
		return true
	}
	if !v.hasMethod || !v.hasScheme || !v.hasPath {
		v.err = "malformed request, missing required pseudo-header"
		return false
	}
	return true
}

func validToken(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c <= ' ' || c == 0x7f {
			return false
		}
	}
	return true
}

func validAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
			return false
		}
	}
	return true
}

// validHeaderName enforces RFC 7540 §8.1.2: field names are lowercase
// token characters (HTTP/2 has no case-insensitive matching on the wire).
func validHeaderName(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case strings.ContainsRune("!#$%&'*+-.^_`|~", c):
		default:
			return false
		}
	}
	return true
}

// validHeaderValue rejects the bytes RFC 7230 §3.2 excludes from a
// field-value: bare CR, LF, and NUL. Leading/trailing whitespace is
// tolerated since HPACK transports values verbatim.
func validHeaderValue(s string) bool {
	for _, c := range s {
		if c == '\x00' || c == '\r' || c == '\n' {
			return false
		}
	}
	return true
}

// parseHeaderList validates a decoded flat (name, value) list per spec
// §4.3 and returns the assembled Message. A *ConnError return means the
// violation is connection-scoped (a bare "connection" header); a
// *StreamError return means it's scoped to this stream only and the codec
// should keep running.
func parseHeaderList(list [][2]string, isRequest bool, streamID uint32) (*Message, error) {
	msg := &Message{Request: isRequest}
	verifier := newRequestVerifier(msg)
	hasStatus := false
	regularHeaderSeen := false
	var cookies []string

	for _, h := range list {
		name, value := h[0], h[1]

		if strings.HasPrefix(name, ":") {
			if regularHeaderSeen {
				return nil, streamErr(streamID, "pseudo-header after regular header: "+name)
			}
			if isRequest {
				var ok bool
				switch name {
				case ":method":
					ok = verifier.setMethod(value)
				case ":scheme":
					ok = verifier.setScheme(value)
				case ":authority":
					ok = verifier.setAuthority(value)
				case ":path":
					ok = verifier.setPath(value)
				default:
					return nil, streamErr(streamID, "invalid pseudo-header: "+name)
				}
				if !ok {
					return nil, streamErr(streamID, verifier.err)
				}
			} else {
				if name != ":status" {
					return nil, streamErr(streamID, "invalid pseudo-header: "+name)
				}
				if hasStatus {
					return nil, streamErr(streamID, "duplicate :status")
				}
				hasStatus = true
				code, err := strconv.Atoi(value)
				if err != nil || code < 100 || code > 999 {
					return nil, streamErr(streamID, "malformed :status: "+value)
				}
				msg.StatusCode = code
			}
			continue
		}

		regularHeaderSeen = true
		lower := strings.ToLower(name)
		if lower == "connection" {
			return nil, connErr(ErrCodeProtocol, "HTTP/2 message with Connection header")
		}
		if !validHeaderName(name) {
			return nil, streamErr(streamID, "bad header name: "+name)
		}
		if !validHeaderValue(value) {
			return nil, streamErr(streamID, "bad header value for: "+name)
		}
		if lower == "cookie" {
			cookies = append(cookies, value)
			continue
		}
		msg.AddHeader(name, value)
	}

	if len(cookies) > 0 {
		msg.AddHeader("cookie", strings.Join(cookies, "; "))
	}

	if isRequest {
		if !verifier.validate() {
			return nil, streamErr(streamID, verifier.err)
		}
	} else if !hasStatus {
		return nil, streamErr(streamID, "malformed response, missing :status")
	}

	return msg, nil
}

// generateHeaderList assembles the flat (name, value) list for an outbound
// HEADERS/PUSH_PROMISE frame from msg, in the order HPACK compression
// benefits from staying stable across requests: method, scheme, path,
// authority (if non-empty) for requests; a bare :status for responses.
// Per-hop headers, empty names, and pseudo-header-shaped regular headers
// are skipped; the remaining regular header names are lowercased, as
// HTTP/2 requires.
func generateHeaderList(msg *Message) [][2]string {
	var out [][2]string
	if msg.Request {
		scheme := msg.Scheme
		if scheme == "" {
			if msg.Secure {
				scheme = "https"
			} else {
				scheme = "http"
			}
		}
		out = append(out,
			[2]string{":method", msg.Method},
			[2]string{":scheme", scheme},
			[2]string{":path", msg.Path},
		)
		host := msg.Authority
		if host == "" {
			host = msg.HeaderValue("host")
		}
		if host != "" {
			out = append(out, [2]string{":authority", host})
		}
	} else {
		out = append(out, [2]string{":status", strconv.Itoa(msg.StatusCode)})
	}

	for _, h := range msg.Headers {
		name := h[0]
		if name == "" || name[0] == ':' {
			continue
		}
		lower := strings.ToLower(name)
		if perHopHeaders[lower] {
			continue
		}
		out = append(out, [2]string{lower, h[1]})
	}
	return out
}
