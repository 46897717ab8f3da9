package rtppacket

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAudioRoundTrip(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	enc, err := EncodeAudio(1234, 987654, 0xAABBCCDD, payload, true, AudioPayloadType)
	require.NoError(t, err)

	seq, ts, ssrc, got, marker, err := DecodeAudio(enc)
	require.NoError(t, err)
	require.Equal(t, uint16(1234), seq)
	require.Equal(t, uint32(987654), ts)
	require.Equal(t, uint32(0xAABBCCDD), ssrc)
	require.Equal(t, payload, got)
	require.True(t, marker)
}

func TestDecodeAudioMalformed(t *testing.T) {
	_, _, _, _, _, err := DecodeAudio([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestSyncRoundTrip(t *testing.T) {
	p := SyncPacket{
		NowTS:        100000,
		Latency:      11025,
		TimeLastSync: 0x1122334455667788,
		First:        true,
	}

	enc := EncodeSync(p)
	require.Len(t, enc, syncPacketLen)

	got, err := DecodeSync(enc)
	require.NoError(t, err)
	require.Equal(t, p, got)
}

func TestSyncNotFirst(t *testing.T) {
	p := SyncPacket{NowTS: 5000, Latency: 1000, TimeLastSync: 42}
	got, err := DecodeSync(EncodeSync(p))
	require.NoError(t, err)
	require.False(t, got.First)
	require.Equal(t, p.NowTS, got.NowTS)
	require.Equal(t, p.Latency, got.Latency)
}

func TestDecodeSyncMalformedLength(t *testing.T) {
	_, err := DecodeSync([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestDecodeTimingRequest(t *testing.T) {
	req := make([]byte, timingPacketLen)
	req[1] = timingReqPayload
	binary.BigEndian.PutUint64(req[8:16], 11)
	binary.BigEndian.PutUint64(req[16:24], 22)
	binary.BigEndian.PutUint64(req[24:32], 33)

	parsed, err := DecodeTimingRequest(req)
	require.NoError(t, err)
	require.Equal(t, uint64(11), parsed.ReferenceTime)
	require.Equal(t, uint64(22), parsed.ReceivedTime)
	require.Equal(t, uint64(33), parsed.SendTime)
}

func TestEncodeTimingResponse(t *testing.T) {
	resp := EncodeTimingResponse(33, 111, 222)
	require.Len(t, resp, timingPacketLen)
	require.Equal(t, uint64(33), binary.BigEndian.Uint64(resp[8:16]))
	require.Equal(t, uint64(111), binary.BigEndian.Uint64(resp[16:24]))
	require.Equal(t, uint64(222), binary.BigEndian.Uint64(resp[24:32]))
}

func TestResendRequest(t *testing.T) {
	b := make([]byte, 8)
	b[1] = resendReqPayload
	b[4] = 0x00
	b[5] = 0x07
	b[6] = 0x00
	b[7] = 0x03

	got, err := DecodeResendRequest(b)
	require.NoError(t, err)
	require.Equal(t, uint16(7), got.MissedSeq)
	require.Equal(t, uint16(3), got.Count)
}

func TestResendRequestTooShort(t *testing.T) {
	_, err := DecodeResendRequest([]byte{1, 2, 3})
	require.Error(t, err)
}
