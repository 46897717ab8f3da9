package raop

import (
	"net"
	"strconv"

	"golang.org/x/net/ipv4"

	"github.com/aler9/raop/pkg/liberrors"
	"github.com/aler9/raop/pkg/ringbuffer"
)

// udpSocketBufferSize tunes the OS receive buffer on the control and
// timing sockets, which must absorb bursts of resend/timing requests
// without drops (§4.6).
const udpSocketBufferSize = 1 << 20

// sessionUDP owns the three UDP sockets SETUP negotiates for one Session
// (§4.6): audio (write-only from this engine's perspective), control
// (bidirectional — resend requests in, resend retransmissions and sync
// packets out) and timing (bidirectional request/response).
type sessionUDP struct {
	audio   *net.UDPConn
	control *net.UDPConn
	timing  *net.UDPConn

	inbound *ringbuffer.RingBuffer
}

// dialSessionUDP opens the three sockets and connects each to the
// receiver's corresponding server-assigned port, so that Write needs no
// destination and reads are implicitly filtered to that one peer.
func dialSessionUDP(receiverIP string, serverPort, serverControlPort, serverTimingPort int) (*sessionUDP, error) {
	audio, err := net.Dial("udp", net.JoinHostPort(receiverIP, strconv.Itoa(serverPort)))
	if err != nil {
		return nil, liberrors.ErrTransportDown{Err: err}
	}

	control, err := net.Dial("udp", net.JoinHostPort(receiverIP, strconv.Itoa(serverControlPort)))
	if err != nil {
		audio.Close()
		return nil, liberrors.ErrTransportDown{Err: err}
	}

	timing, err := net.Dial("udp", net.JoinHostPort(receiverIP, strconv.Itoa(serverTimingPort)))
	if err != nil {
		audio.Close()
		control.Close()
		return nil, liberrors.ErrTransportDown{Err: err}
	}

	rb, err := ringbuffer.New(1024)
	if err != nil {
		audio.Close()
		control.Close()
		timing.Close()
		return nil, err
	}

	audioConn := audio.(*net.UDPConn)
	controlConn := control.(*net.UDPConn)
	timingConn := timing.(*net.UDPConn)

	// mark audio datagrams Expedited Forwarding so they keep priority
	// over best-effort traffic sharing the same link.
	_ = ipv4.NewConn(audioConn).SetTOS(dscpExpeditedForwarding)

	_ = controlConn.SetReadBuffer(udpSocketBufferSize)
	_ = timingConn.SetReadBuffer(udpSocketBufferSize)

	return &sessionUDP{
		audio:   audioConn,
		control: controlConn,
		timing:  timingConn,
		inbound: rb,
	}, nil
}

// dscpExpeditedForwarding is DSCP class EF (RFC 3246) shifted into the
// IPv4 TOS byte's top 6 bits.
const dscpExpeditedForwarding = 0x2e << 2

// Close closes all three sockets.
func (u *sessionUDP) Close() error {
	u.inbound.Close()
	u.audio.Close()
	u.control.Close()
	return u.timing.Close()
}

// WriteAudio sends one already-framed audio packet.
func (u *sessionUDP) WriteAudio(pkt []byte) error {
	if _, err := u.audio.Write(pkt); err != nil {
		return liberrors.ErrTransportDown{Err: err}
	}
	return nil
}

// WriteControl sends one already-framed control-channel packet (a resend
// retransmission or a SyncPacket).
func (u *sessionUDP) WriteControl(pkt []byte) error {
	if _, err := u.control.Write(pkt); err != nil {
		return liberrors.ErrTransportDown{Err: err}
	}
	return nil
}

// ReadControlLoop blocks reading inbound control-channel datagrams
// (resend requests, §4.4) and pushes them onto inbound for the session's
// actor goroutine to act on, so the socket read is never blocked behind
// backlog lookups or retransmission writes.
func (u *sessionUDP) ReadControlLoop() {
	buf := make([]byte, 2048)
	for {
		n, err := u.control.Read(buf)
		if err != nil {
			u.inbound.Close()
			return
		}

		cp := make([]byte, n)
		copy(cp, buf[:n])
		u.inbound.Push(cp)
	}
}

// PullControl blocks until the next inbound control-channel datagram, or
// returns false once the socket has been closed.
func (u *sessionUDP) PullControl() ([]byte, bool) {
	v, ok := u.inbound.Pull()
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}
