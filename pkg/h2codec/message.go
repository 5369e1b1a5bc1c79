package h2codec

// Message is the minimal HTTP message object the codec reads and writes.
// It is intentionally narrow: only the fields the codec itself populates
// during parsing or consumes during generation. A full request/response
// object model is presumed to live above this package.
type Message struct {
	Request bool

	// Request-line fields, set from pseudo-headers on ingress or read
	// from on egress.
	Method    string
	Scheme    string
	Path      string
	Authority string
	Secure    bool

	// Response-line field.
	StatusCode int

	// Headers holds the regular (non-pseudo) header list in wire order,
	// after Cookie coalescing. Values are fully decoded strings.
	Headers [][2]string
}

// HeaderValue returns the first value for name (case-sensitive, as stored:
// callers should pass lowercase names since HTTP/2 requires them), or ""
// if absent.
func (m *Message) HeaderValue(name string) string {
	for _, h := range m.Headers {
		if h[0] == name {
			return h[1]
		}
	}
	return ""
}

// AddHeader appends a (name, value) pair to the header list.
func (m *Message) AddHeader(name, value string) {
	m.Headers = append(m.Headers, [2]string{name, value})
}
