// Package liberrors contains the typed errors the engine distinguishes, per
// the error kinds enumerated in §7 of the design: malformed wire data,
// protocol violations, timeouts, transport loss, capability mismatches and
// fatal internal failures. Single-session errors never tear down a whole
// ReceiverGroup; only FatalInternal kills the stream outright.
package liberrors

import "fmt"

// ErrMalformedPacket is returned by the packet codec when a datagram's
// length or payload type does not match any known shape. The caller drops
// the packet; it never propagates further. No count of dropped packets is
// kept.
type ErrMalformedPacket struct {
	Reason string
}

func (e ErrMalformedPacket) Error() string {
	return fmt.Sprintf("malformed packet: %s", e.Reason)
}

// ErrAuthRequired is surfaced only when Digest credentials are absent, or
// a second authenticated attempt is rejected.
type ErrAuthRequired struct {
	Err error
}

func (e ErrAuthRequired) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication required: %v", e.Err)
	}
	return "authentication required"
}

// ErrRtspProtocol covers malformed responses, unexpected status codes and
// session-state violations in the RTSP handshake.
type ErrRtspProtocol struct {
	Method  string
	Code    int
	Message string
}

func (e ErrRtspProtocol) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: unexpected status %d (%s)", e.Method, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Method, e.Message)
}

// ErrTimeout is returned when a RTSP request exceeds its per-request
// timeout (default 5s, §6).
type ErrTimeout struct {
	Method string
}

func (e ErrTimeout) Error() string {
	return fmt.Sprintf("%s: timed out", e.Method)
}

// ErrTransportDown covers TCP resets and ICMP-unreachable conditions on a
// session's RTSP connection.
type ErrTransportDown struct {
	Err error
}

func (e ErrTransportDown) Error() string {
	return fmt.Sprintf("transport down: %v", e.Err)
}

// ErrCapabilityMismatch is non-retryable: the receiver requires encryption
// but no key was configured, or the reverse.
type ErrCapabilityMismatch struct {
	Reason string
}

func (e ErrCapabilityMismatch) Error() string {
	return fmt.Sprintf("capability mismatch: %s", e.Reason)
}

// ErrFatalInternal covers codec or cipher failures that cannot be
// attributed to any one receiver and kill the entire stream.
type ErrFatalInternal struct {
	Err error
}

func (e ErrFatalInternal) Error() string {
	return fmt.Sprintf("fatal internal error: %v", e.Err)
}

// ErrSessionTerminated is returned by a Session's public methods once its
// controlling goroutine has exited.
type ErrSessionTerminated struct{}

func (e ErrSessionTerminated) Error() string {
	return "session terminated"
}
