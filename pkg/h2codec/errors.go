package h2codec

import "golang.org/x/net/http2"

// ConnError reports a connection-level failure: the ingress loop stops and
// the caller should close the transport. It is delivered to the Sink via
// OnError with stream 0 and also returned as OnIngress's error; OnIngress
// never returns stream-level failures — see StreamError.
type ConnError struct {
	Code    http2.ErrCode
	Message string
}

func (e *ConnError) Error() string {
	if e.Message != "" {
		return e.Code.String() + ": " + e.Message
	}
	return e.Code.String()
}

func connErr(code http2.ErrCode, msg string) *ConnError {
	return &ConnError{Code: code, Message: msg}
}

// StreamError reports a failure scoped to a single stream: malformed
// headers, invalid pseudo-headers, and the like. It never aborts the
// ingress loop; the codec reports it via Sink.OnError and continues.
type StreamError struct {
	StreamID   uint32
	HTTPStatus int
	Message    string
}

func (e *StreamError) Error() string {
	return e.Message
}

func streamErr(streamID uint32, msg string) *StreamError {
	return &StreamError{StreamID: streamID, HTTPStatus: 400, Message: msg}
}
