package raop

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/aler9/raop/pkg/liberrors"
	"github.com/aler9/raop/pkg/sdpbuilder"
)

// ControllerState is one of the Session Controller's five states (§4.8).
type ControllerState int

// controller states.
const (
	StateIdle ControllerState = iota
	StateConnecting
	StateStreaming
	StatePaused
	StateTornDown
)

func (s ControllerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StatePaused:
		return "paused"
	case StateTornDown:
		return "torn_down"
	default:
		return "unknown"
	}
}

// Controller drives a ReceiverGroup's Idle → Connecting → Streaming →
// Paused → TornDown lifecycle (§4.8). Pause auto-escalates to teardown
// if playback has not resumed within DefaultPauseTeardownTimeout.
type Controller struct {
	group *ReceiverGroup

	mu    sync.Mutex
	state ControllerState

	pauseTimer *time.Timer
}

func newController(g *ReceiverGroup) *Controller {
	return &Controller{group: g, state: StateIdle}
}

// State returns the controller's current state.
func (c *Controller) State() ControllerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// BeginConnecting transitions Idle -> Connecting, the state while RTSP
// handshakes are in flight for the group's sessions.
func (c *Controller) BeginConnecting() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return errInvalidTransition(c.state, StateConnecting)
	}
	c.state = StateConnecting
	return nil
}

// BeginStreaming transitions Connecting -> Streaming once every session
// in the group has completed RECORD, or Paused -> Streaming on resume
// (§4.8). Resuming cancels any pending pause-teardown timer.
func (c *Controller) BeginStreaming() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateConnecting && c.state != StatePaused {
		return errInvalidTransition(c.state, StateStreaming)
	}

	if c.pauseTimer != nil {
		c.pauseTimer.Stop()
		c.pauseTimer = nil
	}

	c.state = StateStreaming
	return nil
}

// Pause transitions Streaming -> Paused and arms the pause-teardown
// timer. If resume or explicit teardown has not happened once the timer
// fires, onTimeout is invoked with the group's full teardown (§4.8).
func (c *Controller) Pause(onTimeout func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateStreaming {
		return errInvalidTransition(c.state, StatePaused)
	}

	c.state = StatePaused
	c.pauseTimer = time.AfterFunc(DefaultPauseTeardownTimeout, func() {
		c.mu.Lock()
		stillPaused := c.state == StatePaused
		if stillPaused {
			c.state = StateTornDown
		}
		c.mu.Unlock()

		if stillPaused && onTimeout != nil {
			onTimeout()
		}
	})

	return nil
}

// Teardown transitions any non-terminal state to TornDown. It is the one
// transition always legal, matching TEARDOWN's unconditional handling in
// the RTSP handshake (§4.5, §4.8). Every connected session is issued its
// own TEARDOWN and has its sockets closed before being dropped from the
// group; a session's own TEARDOWN failing never stops the others.
func (c *Controller) Teardown() {
	c.mu.Lock()
	if c.pauseTimer != nil {
		c.pauseTimer.Stop()
		c.pauseTimer = nil
	}
	c.state = StateTornDown
	c.mu.Unlock()

	c.group.mu.Lock()
	defer c.group.mu.Unlock()
	for id, ep := range c.group.members {
		if ep.rtsp != nil {
			_ = ep.rtsp.teardown()
		}
		if ep.udp != nil {
			_ = ep.udp.Close()
		}
		delete(c.group.members, id)
	}
}

// Connect runs the RTSP handshake (§4.5) for every target receiver and,
// once all of them have completed RECORD, transitions Connecting ->
// Streaming. The group's shared RTP seq/timestamp pair is chosen once,
// per "initial seq/ts are uniform random" (§4.5), and every session
// RECORDs against that same pair so every member's clock truly starts in
// lockstep. If any target fails, the sessions already connected are torn
// down and the controller returns to TornDown rather than half-connect.
func (c *Controller) Connect(targets []SessionConfig) error {
	if err := c.BeginConnecting(); err != nil {
		return err
	}

	seq, err := randomUint16()
	if err != nil {
		return err
	}
	ts, err := randomUint32()
	if err != nil {
		return err
	}
	c.group.ResetClock(seq, ts)

	for _, cfg := range targets {
		if err := c.connectSession(cfg, seq, ts); err != nil {
			c.Teardown()
			return fmt.Errorf("connect %s: %w", cfg.Host, err)
		}
	}

	return c.BeginStreaming()
}

// connectSession runs OPTIONS -> ANNOUNCE -> SETUP -> RECORD for one
// receiver (§4.5), joins the resulting Session to the group at the
// group's shared seq/ts, and starts its control/timing service loops.
func (c *Controller) connectSession(cfg SessionConfig, seq uint16, ts uint32) error {
	s, err := NewSession(cfg)
	if err != nil {
		return err
	}

	// the RTSP session_id in the request URI and the SDP o= line is its
	// own 32-bit random value, distinct from both SSRC and Session.ID (§9).
	sessionID, err := randomUint32()
	if err != nil {
		return err
	}

	rc, err := newRTSPClient(cfg.Host, fmt.Sprint(sessionID), cfg.Username, cfg.Password)
	if err != nil {
		return err
	}

	optRes, err := rc.options()
	if err != nil {
		rc.Close()
		return err
	}

	caps := DeriveCapabilities(optRes.Header)
	if cfg.RequireEncryption {
		caps.AudioFormat = EncryptedALAC
	}
	if jack, ok := optRes.Header["Audio-Jack-Status"]; ok && len(jack) == 1 {
		caps.Speaker = SpeakerTypeFromJackStatus(jack[0])
	}
	s.setCapabilities(caps)

	receiverIP, _, err := net.SplitHostPort(cfg.Host)
	if err != nil {
		rc.Close()
		return fmt.Errorf("split receiver host: %w", err)
	}

	var rsaKeyB64, ivB64 string
	if caps.AudioFormat == EncryptedALAC {
		rsaKeyB64, err = s.AESKeyBase64()
		if err != nil {
			rc.Close()
			return err
		}
		ivB64 = s.AESIVBase64()
	}

	sdpBody, err := sdpbuilder.Build(sdpbuilder.Params{
		SessionID:    sessionID,
		LocalIP:      hostOf(rc.LocalAddr()),
		ServerIP:     receiverIP,
		Encrypted:    caps.AudioFormat == EncryptedALAC,
		RSAAESKeyB64: rsaKeyB64,
		AESIVB64:     ivB64,
	})
	if err != nil {
		rc.Close()
		return fmt.Errorf("build SDP: %w", err)
	}

	if _, err := rc.announce(sdpBody); err != nil {
		rc.Close()
		return err
	}

	serverPort, serverControlPort, serverTimingPort, err := rc.setup(PreferredAudioPort, PreferredControlPort, PreferredTimingPort)
	if err != nil {
		rc.Close()
		return err
	}

	udp, err := dialSessionUDP(receiverIP, serverPort, serverControlPort, serverTimingPort)
	if err != nil {
		rc.Close()
		return err
	}

	recRes, err := rc.record(seq, ts)
	if err != nil {
		udp.Close()
		rc.Close()
		return err
	}

	caps.AudioLatencyFrames = resolveLatency(recRes.Header, caps.HasBadLatencyHeader)
	s.setCapabilities(caps)

	c.group.AddSession(s, udp, rc)

	go udp.ReadControlLoop()
	go c.group.serveResends(s.ID)
	go c.serveTiming(udp)

	return nil
}

// serveTiming answers one session's inbound timing requests until its
// timing socket is closed (§4.7). Malformed datagrams are dropped.
func (c *Controller) serveTiming(udp *sessionUDP) {
	buf := make([]byte, 64)
	for {
		err := HandleTimingRequest(udp.timing, c.group.clock, buf)
		var malformed liberrors.ErrMalformedPacket
		if err != nil && !errors.As(err, &malformed) {
			return
		}
	}
}

// hostOf returns just the host part of addr, falling back to its full
// string form if it carries no port.
func hostOf(addr net.Addr) string {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

// Run paces the pipeline against wall-clock time — packet n is due at
// stream_start + n*TimePerPacket — and fans each one out through the
// group as it comes due (§4.8). When the loop falls behind, it drops the
// sleep for that packet rather than bursting to catch up. A sync packet
// is emitted immediately (marked First) and then at the sync engine's
// configured cadence. Run returns when ctx is cancelled or the pipeline
// is exhausted; per-member transport errors are never fatal to the loop
// (§7).
func (c *Controller) Run(ctx context.Context) error {
	if c.State() != StateStreaming {
		return errInvalidTransition(c.State(), StateStreaming)
	}

	start := time.Now()
	first := true
	var nextSync time.Time
	n := 0

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if d := time.Until(start.Add(time.Duration(n) * TimePerPacket)); d > 0 {
			time.Sleep(d)
		}

		// a finite source may return its zero-padded last block together
		// with io.EOF; that block is still sent before Run returns.
		pcmBlock, alacBlock, _, err := c.group.pipeline.NextBlock()
		if pcmBlock == nil {
			return err
		}

		_, ts, broadcastErr := c.group.Broadcast(pcmBlock, alacBlock, first)
		_ = broadcastErr // surfaced per-session transport errors never stop the stream (§7)

		if first || !time.Now().Before(nextSync) {
			if syncErr := c.group.sendSyncToAll(ts, first); syncErr == nil {
				nextSync = time.Now().Add(c.group.sync.Interval())
			}
		}

		first = false
		n++

		if err != nil {
			return err
		}
	}
}

// Resume leaves Paused and restarts streaming at a fresh FLUSH
// discontinuity: every connected session is sent FLUSH at the
// resumption seq/ts, and the next call to Run emits marker-first audio
// with an immediate first sync (§4.8).
func (c *Controller) Resume() error {
	if c.State() != StatePaused {
		return errInvalidTransition(c.State(), StateStreaming)
	}

	seq, ts := c.group.NextSeqTimestamp()
	c.group.ResetClock(seq, ts)

	c.group.mu.RLock()
	members := make([]*receiverEndpoint, 0, len(c.group.members))
	for _, ep := range c.group.members {
		members = append(members, ep)
	}
	c.group.mu.RUnlock()

	for _, ep := range members {
		if ep.rtsp == nil {
			continue
		}
		if err := ep.rtsp.flush(seq, ts); err != nil {
			return err
		}
	}

	return c.BeginStreaming()
}

// Reconnect drops an existing session (if still present) and redoes its
// handshake from scratch with the same config, rejoining the group at
// its current shared seq/timestamp rather than resetting the group's
// clock. Called when a session's RTSP connection reports
// liberrors.ErrTransportDown mid-stream (§4.8).
func (c *Controller) Reconnect(oldSessionID string, cfg SessionConfig) error {
	c.group.mu.Lock()
	if ep, ok := c.group.members[oldSessionID]; ok {
		if ep.rtsp != nil {
			_ = ep.rtsp.teardown()
		}
		if ep.udp != nil {
			_ = ep.udp.Close()
		}
		delete(c.group.members, oldSessionID)
	}
	c.group.mu.Unlock()

	c.group.mu.RLock()
	seq, ts := c.group.seq, c.group.timestamp
	c.group.mu.RUnlock()

	return c.connectSession(cfg, seq, ts)
}

func errInvalidTransition(from, to ControllerState) error {
	return invalidTransitionError{From: from, To: to}
}

// invalidTransitionError is returned when a caller requests a state
// change the controller's state machine does not allow from its current
// state (§4.8).
type invalidTransitionError struct {
	From ControllerState
	To   ControllerState
}

func (e invalidTransitionError) Error() string {
	return "invalid transition from " + e.From.String() + " to " + e.To.String()
}
