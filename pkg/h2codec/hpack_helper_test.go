package h2codec

import (
	"testing"

	"golang.org/x/net/http2/hpack"
)

// newTestHPACKDecoder returns a one-shot HPACK decode function for
// asserting on the header-block bytes GenerateHeader produces.
func newTestHPACKDecoder(t *testing.T) func([]byte) [][2]string {
	t.Helper()
	return func(b []byte) [][2]string {
		var out [][2]string
		dec := hpack.NewDecoder(4096, func(hf hpack.HeaderField) {
			out = append(out, [2]string{hf.Name, hf.Value})
		})
		if _, err := dec.Write(b); err != nil {
			t.Fatalf("hpack decode: %v", err)
		}
		return out
	}
}
