// Package rtppacket implements byte-exact encode/decode for the four
// on-wire packet shapes of the AirTunes 2 control protocol: the audio RTP
// packet, SyncPacket, TimingPacket and ResendPacket (§4.1). It is pure and
// stateless: every function is a deterministic function of its arguments,
// so no package-level state or locking is required.
package rtppacket

import (
	"encoding/binary"
	"fmt"

	"github.com/pion/rtp"

	"github.com/aler9/raop/pkg/liberrors"
)

// AudioPayloadType is the generic dynamic RTP payload type AirTunes
// reuses for its ALAC and encrypted-ALAC streams.
const AudioPayloadType = 0x60

// RawPCMPayloadType is RTP's own static payload type for 16-bit linear
// PCM (RFC 3551 §6), used when a session's audio_format is Raw L16
// rather than ALAC (§4.3).
const RawPCMPayloadType = 0x0A

// EncodeAudio serializes an audio packet. The 12-byte header this produces
// is byte-identical to a standard RTP header with V=2, no CSRC: byte 0 is
// 0x80, byte 1 is payloadType with the marker bit (0x80) set for the first
// packet of a stream or of a post-FLUSH resumption.
func EncodeAudio(seq uint16, timestamp uint32, ssrc uint32, payload []byte, marker bool, payloadType byte) ([]byte, error) {
	pkt := rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			Marker:         marker,
			PayloadType:    payloadType,
			SequenceNumber: seq,
			Timestamp:      timestamp,
			SSRC:           ssrc,
		},
		Payload: payload,
	}
	return pkt.Marshal()
}

// DecodeAudio parses an audio packet previously produced by EncodeAudio.
// Used on the receiving side of tests; the resend path does not decode,
// it re-sends the stored datagram as is.
func DecodeAudio(b []byte) (seq uint16, timestamp uint32, ssrc uint32, payload []byte, marker bool, err error) {
	var pkt rtp.Packet
	if err := pkt.Unmarshal(b); err != nil {
		return 0, 0, 0, nil, false, liberrors.ErrMalformedPacket{Reason: err.Error()}
	}
	return pkt.SequenceNumber, pkt.Timestamp, pkt.SSRC, pkt.Payload, pkt.Marker, nil
}

// sync/timing/resend payload type bytes, carried in byte 1 low 7 bits.
const (
	syncPayloadType    = 0x54
	timingPayloadType  = 0x53
	timingReqPayload   = 0x52
	resendReqPayload   = 0x55
)

// syncPacketLen is the fixed length of a SyncPacket (§4.1).
const syncPacketLen = 20

// SyncPacket is the packet the timing engine emits on the control channel,
// at most once per TIMESYNC_INTERVAL frames and always at stream start and
// the first packet after a FLUSH (§4.7).
type SyncPacket struct {
	NowTS         uint32
	Latency       uint32
	TimeLastSync  uint64
	First         bool
}

// EncodeSync serializes a SyncPacket. now_minus_latency = now - latency is
// computed here rather than accepted as a parameter, since every caller
// needs exactly that relationship and computing it locally forecloses a
// whole class of off-by-one callers.
func EncodeSync(p SyncPacket) []byte {
	b := make([]byte, syncPacketLen)

	b[0] = 0x80
	if p.First {
		b[0] |= 0x10
	}
	b[1] = 0xD4 // marker (0x80) | payload type 0x54

	binary.BigEndian.PutUint16(b[2:4], 7) // seq is literally 7, see §9

	binary.BigEndian.PutUint32(b[4:8], p.NowTS-p.Latency)
	binary.BigEndian.PutUint64(b[8:16], p.TimeLastSync)
	binary.BigEndian.PutUint32(b[16:20], p.NowTS)

	return b
}

// DecodeSync parses a SyncPacket, validating its fixed length and header
// bytes. Used by tests exercising the round-trip property (§8).
func DecodeSync(b []byte) (SyncPacket, error) {
	if len(b) != syncPacketLen {
		return SyncPacket{}, liberrors.ErrMalformedPacket{Reason: fmt.Sprintf("sync packet length %d", len(b))}
	}
	if b[1] != 0xD4 {
		return SyncPacket{}, liberrors.ErrMalformedPacket{Reason: "sync packet payload type"}
	}

	nowMinusLatency := binary.BigEndian.Uint32(b[4:8])
	timeLastSync := binary.BigEndian.Uint64(b[8:16])
	now := binary.BigEndian.Uint32(b[16:20])

	return SyncPacket{
		NowTS:        now,
		Latency:      now - nowMinusLatency,
		TimeLastSync: timeLastSync,
		First:        b[0]&0x10 != 0,
	}, nil
}

// timingPacketLen is the fixed length of a TimingPacket request/response.
const timingPacketLen = 32

// TimingPacket models the request/response timing packet exchanged on the
// timing channel (§4.1, §4.7).
type TimingPacket struct {
	ReferenceTime uint64
	ReceivedTime  uint64
	SendTime      uint64
}

// DecodeTimingRequest validates and parses an inbound timing request.
func DecodeTimingRequest(b []byte) (TimingPacket, error) {
	if len(b) != timingPacketLen {
		return TimingPacket{}, liberrors.ErrMalformedPacket{Reason: fmt.Sprintf("timing packet length %d", len(b))}
	}
	if b[1]&0x7f != timingReqPayload {
		return TimingPacket{}, liberrors.ErrMalformedPacket{Reason: "timing request payload type"}
	}

	return TimingPacket{
		ReferenceTime: binary.BigEndian.Uint64(b[8:16]),
		ReceivedTime:  binary.BigEndian.Uint64(b[16:24]),
		SendTime:      binary.BigEndian.Uint64(b[24:32]),
	}, nil
}

// EncodeTimingResponse builds the 32-byte response to a timing request.
// referenceTime must equal req.SendTime; receivedTime and sendTime are two
// independent clock reads the caller captures as close to the socket read
// and write as possible — the gap between them is the value a receiver
// uses to estimate this engine's processing delay (§4.7).
func EncodeTimingResponse(referenceTime, receivedTime, sendTime uint64) []byte {
	b := make([]byte, timingPacketLen)

	b[0] = 0x80
	b[1] = 0x80 | timingPayloadType // marker set

	binary.BigEndian.PutUint64(b[8:16], referenceTime)
	binary.BigEndian.PutUint64(b[16:24], receivedTime)
	binary.BigEndian.PutUint64(b[24:32], sendTime)

	return b
}

// ResendPacket is the control-channel request a receiver sends to ask for
// retransmission of backlog entries (§4.1, §4.4).
type ResendPacket struct {
	MissedSeq uint16
	Count     uint16
}

// DecodeResendRequest validates and parses an inbound resend request.
func DecodeResendRequest(b []byte) (ResendPacket, error) {
	if len(b) < 8 {
		return ResendPacket{}, liberrors.ErrMalformedPacket{Reason: fmt.Sprintf("resend packet length %d", len(b))}
	}
	if b[1]&0x7f != resendReqPayload {
		return ResendPacket{}, liberrors.ErrMalformedPacket{Reason: "resend request payload type"}
	}

	return ResendPacket{
		MissedSeq: binary.BigEndian.Uint16(b[4:6]),
		Count:     binary.BigEndian.Uint16(b[6:8]),
	}, nil
}
