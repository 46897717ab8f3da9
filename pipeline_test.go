package raop

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aler9/raop/pkg/alac"
	"github.com/aler9/raop/pkg/pcm"
)

func TestPipelineNextBlockZeroPads(t *testing.T) {
	p := NewPipeline(pcm.NewSilence(10), alac.PassthroughEncoder{})

	pcmBlock, alacBlock, frames, err := p.NextBlock()
	require.NoError(t, err)
	require.Equal(t, 10, frames)
	require.Len(t, pcmBlock, alac.FramesPerPacket*pcm.FrameSize)
	require.Len(t, alacBlock, alac.FramesPerPacket*pcm.FrameSize)

	for _, b := range pcmBlock {
		require.Equal(t, byte(0), b)
	}
}

func TestPipelineExhaustion(t *testing.T) {
	p := NewPipeline(pcm.NewSilence(0), nil)
	_, _, _, err := p.NextBlock()
	require.ErrorIs(t, err, io.EOF)
}

func TestFramePayloadRawL16(t *testing.T) {
	pcmBlock := []byte{0x01, 0x02, 0x03, 0x04}
	got, err := FramePayload(RawL16, pcmBlock, nil, nil, nil)
	require.NoError(t, err)
	require.Equal(t, []byte{0x02, 0x01, 0x04, 0x03}, got)
}

func TestFramePayloadUnencryptedALAC(t *testing.T) {
	alacBlock := []byte{9, 9, 9}
	got, err := FramePayload(UnencryptedALAC, nil, alacBlock, nil, nil)
	require.NoError(t, err)
	require.Equal(t, alacBlock, got)
}

func TestFramePayloadEncryptedALAC(t *testing.T) {
	key := make([]byte, 16)
	iv := make([]byte, 16)
	alacBlock := make([]byte, 20) // one whole block + a 4-byte remainder

	got, err := FramePayload(EncryptedALAC, nil, alacBlock, key, iv)
	require.NoError(t, err)
	require.Len(t, got, 20)
}
