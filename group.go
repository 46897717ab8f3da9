package raop

import (
	"fmt"
	"sync"

	"github.com/aler9/raop/pkg/backlog"
	"github.com/aler9/raop/pkg/clock"
	"github.com/aler9/raop/pkg/rtppacket"
)

// receiverEndpoint bundles one Session's established UDP sockets and
// support state, everything the group's fan-out loop needs to address it
// once the handshake has completed (§3, §4.6).
type receiverEndpoint struct {
	session *Session
	udp     *sessionUDP
	backlog *backlog.Backlog
	rtsp    *rtspClient
}

// ReceiverGroup fans a single logical audio stream out to multiple
// Sessions sharing one RTP clock: every member transmits the same
// sequence number and the same RTP timestamp for a given audio frame,
// even though each member's SSRC, encryption key and therefore
// ciphertext bytes remain its own (§4.8, and the architectural
// resolution recorded in the design notes for the apparent tension
// between per-session audio_format and group-wide packet framing).
type ReceiverGroup struct {
	mu       sync.RWMutex
	members  map[string]*receiverEndpoint // keyed by Session.ID
	clock    *clock.Clock
	sync     *syncEngine
	pipeline *Pipeline

	seq       uint16
	timestamp uint32
	startTS   uint32

	controller *Controller
}

// NewReceiverGroup builds an empty group sharing clk and driven by
// pipeline. Sessions are added with AddSession once their RTSP handshake
// and SETUP have completed.
func NewReceiverGroup(clk *clock.Clock, pipeline *Pipeline) *ReceiverGroup {
	g := &ReceiverGroup{
		members:  make(map[string]*receiverEndpoint),
		clock:    clk,
		sync:     newSyncEngine(clk),
		pipeline: pipeline,
	}
	g.controller = newController(g)
	return g
}

// AddSession joins a fully set-up Session (post-RECORD) to
// the group. Its own backlog is allocated here; seq/timestamp numbering
// is never reset for sessions joining an already-streaming group, since
// the clock is shared (§4.8). rtsp is the session's own RTSP control
// connection, kept so the controller can later issue FLUSH/TEARDOWN or
// detect a dead connection without threading a separate lookup table.
func (g *ReceiverGroup) AddSession(s *Session, udp *sessionUDP, rtsp *rtspClient) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.members[s.ID] = &receiverEndpoint{
		session: s,
		udp:     udp,
		backlog: backlog.New(DefaultBacklogSize),
		rtsp:    rtsp,
	}
}

// RemoveSession drops a Session from the group, e.g. after its own
// TEARDOWN; it does not affect the clock or any other member (§4.8).
func (g *ReceiverGroup) RemoveSession(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.members, id)
}

// Len reports the number of sessions currently in the group.
func (g *ReceiverGroup) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.members)
}

// NextSeqTimestamp advances the group's shared RTP clock by one packet
// and returns the values every member transmits for it (§4.8).
func (g *ReceiverGroup) NextSeqTimestamp() (seq uint16, timestamp uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()

	seq, timestamp = g.seq, g.timestamp
	g.seq++
	g.timestamp += FramesPerPacket
	return seq, timestamp
}

// ResetClock reassigns the shared seq/timestamp pair, used on RECORD and
// on resuming from FLUSH (§4.8).
func (g *ReceiverGroup) ResetClock(seq uint16, timestamp uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = seq
	g.timestamp = timestamp
	g.startTS = timestamp
}

// Broadcast sends one audio frame to every member: seq/timestamp are
// identical across members, the payload bytes are computed per member
// from that member's own AudioFormat and, if applicable, its own AES
// key/IV (§4.3, §4.8). Each member's own backlog stores the exact
// datagram handed to WriteAudio, so a later resend re-sends those bytes
// verbatim rather than re-encoding them (§4.4). It returns the seq/
// timestamp this frame was assigned, for the caller's sync cadence.
func (g *ReceiverGroup) Broadcast(pcmBlock, alacBlock []byte, marker bool) (uint16, uint32, error) {
	seq, ts := g.NextSeqTimestamp()

	g.mu.RLock()
	defer g.mu.RUnlock()

	var firstErr error
	for _, ep := range g.members {
		caps := ep.session.Capabilities()

		payload, err := FramePayload(caps.AudioFormat, pcmBlock, alacBlock, ep.session.aesKey, ep.session.aesIV)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("session %s: %w", ep.session.ID, err)
			}
			continue
		}

		pkt, err := rtppacket.EncodeAudio(seq, ts, ep.session.SSRC, payload, marker, payloadTypeFor(caps.AudioFormat))
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		ep.backlog.Store(seq, ts, pkt)

		if ep.udp == nil {
			continue
		}

		if err := ep.udp.WriteAudio(pkt); err != nil {
			// a single session's transport loss never tears down the
			// whole group (§7); it is surfaced to the caller but the
			// fan-out continues to the remaining members.
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return seq, ts, firstErr
}

// sendSyncToAll emits one SyncPacket per member on that member's own
// control socket: the sync cadence and timestamp are shared group state,
// but each member's latency is its own negotiated Capabilities value
// (§4.7). One member's transport failure does not stop delivery to the
// rest.
func (g *ReceiverGroup) sendSyncToAll(nowTS uint32, first bool) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var firstErr error
	for _, ep := range g.members {
		if ep.udp == nil {
			continue
		}

		caps := ep.session.Capabilities()
		if err := g.sync.SendSync(ep.udp.control, nowTS, caps.AudioLatencyFrames, first); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// serveResends answers one session's resend requests from its own
// backlog until its control socket is closed (§4.4, §4.6). Each entry in
// range is re-emitted as the exact datagram Broadcast originally sent —
// never re-encoded — to the receiver's control port.
func (g *ReceiverGroup) serveResends(id string) {
	g.mu.RLock()
	ep, ok := g.members[id]
	g.mu.RUnlock()
	if !ok {
		return
	}

	for {
		b, ok := ep.udp.PullControl()
		if !ok {
			return
		}

		req, err := rtppacket.DecodeResendRequest(b)
		if err != nil {
			continue
		}

		for i := uint16(0); i < req.Count; i++ {
			entry, ok := ep.backlog.Fetch(req.MissedSeq + i)
			if !ok {
				continue
			}
			_ = ep.udp.WriteControl(entry.Payload)
		}
	}
}
