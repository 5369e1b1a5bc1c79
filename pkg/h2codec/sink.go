package h2codec

// Sink is the event sink a Codec delivers parsed protocol events to. All
// methods are fire-and-forget: the codec does not inspect return values and
// never blocks on them. Implementations must not call back into the Codec
// synchronously from within a Sink method (the codec is not reentrant).
type Sink interface {
	// OnMessageBegin fires when a new request/response's pseudo-headers
	// have validated successfully, before OnHeadersComplete.
	OnMessageBegin(stream uint32, msg *Message)
	// OnPushMessageBegin fires for a validated PUSH_PROMISE.
	OnPushMessageBegin(promised, assoc uint32, msg *Message)
	// OnHeadersComplete fires once the header block (HEADERS/PUSH_PROMISE
	// plus any CONTINUATIONs) is fully decoded and validated.
	OnHeadersComplete(stream uint32, msg *Message)
	// OnBody delivers a DATA frame's payload.
	OnBody(stream uint32, data []byte)
	// OnMessageComplete fires when END_STREAM is observed.
	OnMessageComplete(stream uint32, upgrade bool)
	// OnAbort fires on RST_STREAM.
	OnAbort(stream uint32, code ErrCode)
	// OnGoaway fires on a GOAWAY that decreases the ingress ack.
	OnGoaway(lastGoodStream uint32, code ErrCode, debugData []byte)
	// OnPingRequest fires on a PING without the ACK flag.
	OnPingRequest(opaque [8]byte)
	// OnPingReply fires on a PING with the ACK flag.
	OnPingReply(opaque [8]byte)
	// OnSettings fires once per non-ACK SETTINGS frame with every
	// (id, value) pair accepted into ingress_settings.
	OnSettings(settings []Setting)
	// OnSettingsAck fires on a SETTINGS frame with the ACK flag.
	OnSettingsAck()
	// OnWindowUpdate fires on WINDOW_UPDATE with nonzero delta.
	OnWindowUpdate(stream uint32, delta uint32)
	// OnError reports a connection error (stream==0, newTxn==false) or a
	// stream error (newTxn==true); see ConnError and StreamError.
	OnError(stream uint32, err error, newTxn bool)
}

// Setting is a single (id, value) settings-store entry exposed to OnSettings.
type Setting struct {
	ID    SettingID
	Value uint32
}
