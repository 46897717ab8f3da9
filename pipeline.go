package raop

import (
	"fmt"

	"github.com/aler9/raop/pkg/alac"
	"github.com/aler9/raop/pkg/cryptokeys"
	"github.com/aler9/raop/pkg/pcm"
	"github.com/aler9/raop/pkg/rtppacket"
)

// Pipeline turns raw PCM into the wire payload for one audio packet at a
// time (§4.3): read FramesPerPacket frames (zero-padding the last, short
// block of a finite stream), run the configured Encoder, then — per
// session — select Raw L16, plain ALAC or AES-encrypted ALAC.
type Pipeline struct {
	Source  pcm.Source
	Encoder alac.Encoder

	pcmBuf [alac.FramesPerPacket * pcm.FrameSize]byte
}

// NewPipeline constructs a Pipeline over src using enc to compress each
// block. enc may be nil only for sessions that always resolve to RawL16.
func NewPipeline(src pcm.Source, enc alac.Encoder) *Pipeline {
	return &Pipeline{Source: src, Encoder: enc}
}

// NextBlock reads the next FramesPerPacket-sized block of PCM, padding
// the final short block of a finite source with silence (§4.3's "last
// packet of a stream" edge case), and runs it through Encoder. It
// returns io.EOF-wrapping errors unchanged so callers can distinguish
// stream-end from a real read failure.
func (p *Pipeline) NextBlock() (pcmBlock, alacBlock []byte, frames int, err error) {
	buf := p.pcmBuf[:]

	n, err := p.Source.ReadFrames(buf)
	if err != nil && n == 0 {
		return nil, nil, 0, err
	}

	if n < alac.FramesPerPacket {
		for i := n * pcm.FrameSize; i < len(buf); i++ {
			buf[i] = 0
		}
	}

	var encoded []byte
	if p.Encoder != nil {
		var encErr error
		encoded, encErr = p.Encoder.EncodeBlock(buf)
		if encErr != nil {
			return nil, nil, 0, fmt.Errorf("encode ALAC block: %w", encErr)
		}
	}

	return buf, encoded, n, err
}

// FramePayload selects the wire bytes for one session's copy of an audio
// packet, given the block this Pipeline already produced and that
// session's derived AudioFormat (§4.3). pcmBlock and alacBlock are the
// outputs of NextBlock; key/iv are only consulted for EncryptedALAC.
func FramePayload(format AudioFormat, pcmBlock, alacBlock []byte, key, iv []byte) ([]byte, error) {
	switch format {
	case RawL16:
		return bigEndianSwap(pcmBlock), nil

	case UnencryptedALAC:
		return alacBlock, nil

	case EncryptedALAC:
		return cryptokeys.EncryptPacket(key, iv, alacBlock)

	default:
		return nil, fmt.Errorf("unknown audio format %d", format)
	}
}

// payloadTypeFor selects the RTP payload-type byte EncodeAudio stamps
// into byte 1 of the header for a given AudioFormat: both ALAC variants
// reuse the generic dynamic type, Raw L16 uses RTP's own static L16 type
// (§4.3).
func payloadTypeFor(format AudioFormat) byte {
	if format == RawL16 {
		return rtppacket.RawPCMPayloadType
	}
	return rtppacket.AudioPayloadType
}

// bigEndianSwap converts little-endian 16-bit PCM samples to the
// big-endian shape Raw L16 carries on the wire.
func bigEndianSwap(pcm []byte) []byte {
	out := make([]byte, len(pcm))
	for i := 0; i+1 < len(pcm); i += 2 {
		out[i] = pcm[i+1]
		out[i+1] = pcm[i]
	}
	return out
}
