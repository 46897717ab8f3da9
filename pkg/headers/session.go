package headers

import (
	"fmt"
	"strings"

	"github.com/aler9/raop/pkg/base"
)

// Session is a Session header. The RTSP server assigns this id on SETUP;
// it is distinct from both the SSRC and the RTSP session_id carried in the
// request URI (§9, "SSRC vs. RTSP session id").
type Session struct {
	Session string
	Timeout *uint
}

// Read decodes a Session header.
func (h *Session) Read(v base.HeaderValue) error {
	if len(v) == 0 {
		return fmt.Errorf("value not provided")
	}

	parts := strings.Split(v[0], ";")
	h.Session = parts[0]

	return nil
}

// Write encodes a Session header.
func (h Session) Write() base.HeaderValue {
	return base.HeaderValue{h.Session}
}
