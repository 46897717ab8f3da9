package raop

import (
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aler9/raop/pkg/clock"
	"github.com/aler9/raop/pkg/ringbuffer"
)

func TestNextSeqTimestampAdvances(t *testing.T) {
	g := NewReceiverGroup(clock.New(), NewPipeline(nil, nil))
	g.ResetClock(100, 44100)

	seq1, ts1 := g.NextSeqTimestamp()
	require.Equal(t, uint16(100), seq1)
	require.Equal(t, uint32(44100), ts1)

	seq2, ts2 := g.NextSeqTimestamp()
	require.Equal(t, uint16(101), seq2)
	require.Equal(t, uint32(44100+FramesPerPacket), ts2)
}

func TestSeqTimestampWraparound(t *testing.T) {
	g := NewReceiverGroup(clock.New(), NewPipeline(nil, nil))
	g.ResetClock(65535, 0)

	seq1, _ := g.NextSeqTimestamp()
	require.Equal(t, uint16(65535), seq1)

	seq2, _ := g.NextSeqTimestamp()
	require.Equal(t, uint16(0), seq2, "seq must wrap mod 2^16")
}

func TestAddRemoveSession(t *testing.T) {
	g := NewReceiverGroup(clock.New(), NewPipeline(nil, nil))
	require.Equal(t, 0, g.Len())

	s, err := NewSession(SessionConfig{Host: "127.0.0.1:5000"})
	require.NoError(t, err)

	g.AddSession(s, &sessionUDP{}, nil)
	require.Equal(t, 1, g.Len())

	g.RemoveSession(s.ID)
	require.Equal(t, 0, g.Len())
}

func TestBroadcastAndResendReplayVerbatimDatagram(t *testing.T) {
	audioLn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer audioLn.Close()

	controlLn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer controlLn.Close()

	audioConn, err := net.DialUDP("udp", nil, audioLn.LocalAddr().(*net.UDPAddr))
	require.NoError(t, err)
	defer audioConn.Close()

	controlConn, err := net.DialUDP("udp", nil, controlLn.LocalAddr().(*net.UDPAddr))
	require.NoError(t, err)
	defer controlConn.Close()

	rb, err := ringbuffer.New(8)
	require.NoError(t, err)
	defer rb.Close()

	udp := &sessionUDP{audio: audioConn, control: controlConn, inbound: rb}

	g := NewReceiverGroup(clock.New(), NewPipeline(nil, nil))
	s, err := NewSession(SessionConfig{Host: "127.0.0.1:5000"})
	require.NoError(t, err)
	s.setCapabilities(Capabilities{AudioFormat: UnencryptedALAC})
	g.AddSession(s, udp, nil)

	seq, _, err := g.Broadcast(nil, []byte{9, 9, 9}, true)
	require.NoError(t, err)

	sentBuf := make([]byte, 1500)
	require.NoError(t, audioLn.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := audioLn.ReadFromUDP(sentBuf)
	require.NoError(t, err)
	sent := append([]byte(nil), sentBuf[:n]...)

	go g.serveResends(s.ID)

	req := make([]byte, 8)
	req[1] = 0x55 // resend request payload type
	binary.BigEndian.PutUint16(req[4:6], seq)
	binary.BigEndian.PutUint16(req[6:8], 1)
	require.True(t, rb.Push(req))

	resendBuf := make([]byte, 1500)
	require.NoError(t, controlLn.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err = controlLn.ReadFromUDP(resendBuf)
	require.NoError(t, err)

	require.Equal(t, sent, resendBuf[:n], "resend must re-send the exact original datagram, not re-encode it")
}
