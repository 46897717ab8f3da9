package raop

import (
	"net"
	"time"

	"github.com/aler9/raop/pkg/clock"
	"github.com/aler9/raop/pkg/liberrors"
	"github.com/aler9/raop/pkg/rtppacket"
)

// syncEngine owns a ReceiverGroup's timing and control traffic (§4.7): it
// emits SyncPacket on every session's control socket at the configured
// cadence, and answers each session's inbound timing requests on its
// timing socket. One syncEngine instance backs a whole group — the
// cadence and the "first packet" flag are properties of the shared
// clock, not of any one session.
type syncEngine struct {
	clock *clock.Clock

	intervalFrames uint32

	lastSyncTS uint64 // NTP timestamp of the most recent sync, for time_last_sync
	sentFirst  bool
}

// newSyncEngine builds a syncEngine using the default cadence (§6); the
// sync cadence is shared across a group, but latency is negotiated per
// receiver and passed into BuildSync/SendSync at call time instead.
func newSyncEngine(c *clock.Clock) *syncEngine {
	return &syncEngine{
		clock:          c,
		intervalFrames: DefaultTimesyncIntervalFrames,
	}
}

// Interval is the wall-clock period between sync packets in steady
// state, the time intervalFrames spans at 44.1 kHz (§4.7).
func (s *syncEngine) Interval() time.Duration {
	return timePerIntervalFrames(s.intervalFrames)
}

// BuildSync constructs the SyncPacket for the current instant, marking
// it First on the stream's very first sync or the first one after a
// FLUSH. For that first sync, time_last_sync carries the NTP timestamp
// of this very emission rather than the zero value lastSyncTS still
// holds (§4.7) — there is no earlier sync to report.
func (s *syncEngine) BuildSync(nowTS, latencyFrames uint32, first bool) rtppacket.SyncPacket {
	now := s.clock.NowNTP()

	timeLastSync := s.lastSyncTS
	if first {
		timeLastSync = now
	}

	pkt := rtppacket.SyncPacket{
		NowTS:        nowTS,
		Latency:      latencyFrames,
		TimeLastSync: timeLastSync,
		First:        first,
	}
	s.lastSyncTS = now
	s.sentFirst = true
	return pkt
}

// SendSync writes a sync packet to conn (the session's control socket).
func (s *syncEngine) SendSync(conn net.Conn, nowTS, latencyFrames uint32, first bool) error {
	pkt := s.BuildSync(nowTS, latencyFrames, first)
	_, err := conn.Write(rtppacket.EncodeSync(pkt))
	if err != nil {
		return liberrors.ErrTransportDown{Err: err}
	}
	return nil
}

// HandleTimingRequest reads one timing request from conn (the session's
// timing socket) and writes back the response, timestamping as close to
// the read/write as possible so the gap reflects only this engine's own
// processing delay (§4.7).
func HandleTimingRequest(conn net.Conn, c *clock.Clock, buf []byte) error {
	n, err := conn.Read(buf)
	if err != nil {
		return liberrors.ErrTransportDown{Err: err}
	}
	received := c.NowNTP()

	req, err := rtppacket.DecodeTimingRequest(buf[:n])
	if err != nil {
		return err
	}

	sendTime := c.NowNTP()
	resp := rtppacket.EncodeTimingResponse(req.SendTime, received, sendTime)

	if _, err := conn.Write(resp); err != nil {
		return liberrors.ErrTransportDown{Err: err}
	}
	return nil
}

// timePerIntervalFrames converts a frame count into the wall-clock
// duration it spans at 44.1 kHz, used to pace the sync cadence loop.
func timePerIntervalFrames(frames uint32) time.Duration {
	return time.Second * time.Duration(frames) / TimestampsPerSecond
}
