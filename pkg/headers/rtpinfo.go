package headers

import (
	"fmt"

	"github.com/aler9/raop/pkg/base"
)

// RTPInfo is the RTP-Info header sent on RECORD and FLUSH: the seq/rtptime
// pair identifying the first (or last) packet of a phase of the stream.
type RTPInfo struct {
	Seq      uint16
	RTPTime  uint32
}

// Write encodes a RTP-Info header.
func (h RTPInfo) Write() base.HeaderValue {
	return base.HeaderValue{fmt.Sprintf("seq=%d;rtptime=%d", h.Seq, h.RTPTime)}
}
