package raop

import (
	"strconv"
	"strings"

	"github.com/aler9/raop/pkg/base"
)

// AudioFormat is the wire encoding a session's audio packets use.
type AudioFormat int

const (
	// EncryptedALAC is ALAC with AES-128-CBC applied to whole 16-byte
	// blocks of the payload.
	EncryptedALAC AudioFormat = iota
	// UnencryptedALAC is plain ALAC.
	UnencryptedALAC
	// RawL16 is big-endian 16-bit PCM, no compression.
	RawL16
)

// AlbumArtFormat is the format a receiver wants album art delivered in.
type AlbumArtFormat int

// album art formats.
const (
	AlbumArtNone AlbumArtFormat = iota
	AlbumArtDAAP
	AlbumArtPList
)

// MetadataFormat is the format a receiver wants track metadata delivered in.
type MetadataFormat int

// metadata formats.
const (
	MetadataNone MetadataFormat = iota
	MetadataDAAP
)

// SpeakerType is derived from the Audio-Jack-Status header (§4.5).
type SpeakerType int

// speaker types.
const (
	SpeakerUnknown SpeakerType = iota
	SpeakerAnalog
	SpeakerDigital
	SpeakerUnplugged
)

// Capabilities is the set of receiver-specific behaviors derived from the
// OPTIONS response headers during the handshake, with AudioLatencyFrames
// then resolved from the RECORD response. It is not changed after RECORD
// (§3).
type Capabilities struct {
	AudioFormat         AudioFormat
	WantsAlbumArt       AlbumArtFormat
	WantsMetadata       MetadataFormat
	WantsProgress       bool
	LowercasePassword   bool
	HasBadLatencyHeader bool
	AudioLatencyFrames  uint32
	Speaker             SpeakerType
}

// DeriveCapabilities reproduces exactly the branching logic of §4.5's
// "Capability derivation" and the worked examples in §8. header is the
// response header set from OPTIONS (for Apple-Challenge/Apple-Response)
// merged with the RECORD response (for Server / Audio-Latency); callers
// pass whichever headers actually carried each field.
func DeriveCapabilities(header base.Header) Capabilities {
	var c Capabilities

	_, hasAppleResponse := header["Apple-Response"]
	_, hasServer := header["Server"]

	switch {
	case hasAppleResponse:
		c.LowercasePassword = false
		c.AudioFormat = EncryptedALAC
		c.WantsAlbumArt = AlbumArtNone
		c.WantsMetadata = MetadataNone
		c.WantsProgress = false
		c.HasBadLatencyHeader = false

		// a Server header alongside Apple-Response still marks this
		// receiver as one with the bad-latency quirk and a lowercased
		// password, even though Apple-Response wins for audio_format
		// and wants_* (§4.5, §8 third worked example).
		if hasServer {
			c.LowercasePassword = true
			c.HasBadLatencyHeader = true
		}

	case hasServer:
		c.LowercasePassword = true
		c.HasBadLatencyHeader = true
		c.AudioFormat = UnencryptedALAC
		c.WantsAlbumArt = AlbumArtDAAP
		c.WantsMetadata = MetadataDAAP
		c.WantsProgress = true
	}

	c.AudioLatencyFrames = resolveLatency(header, c.HasBadLatencyHeader)

	return c
}

// resolveLatency reproduces the open question recorded in §9: when
// HasBadLatencyHeader is set, the Audio-Latency value is parsed but then
// discarded in favor of the unconditional fallback of 11025 frames, even
// though an inner branch appears to read it first. This is preserved
// exactly as specified; it is not a bug in this implementation.
func resolveLatency(header base.Header, hasBadLatencyHeader bool) uint32 {
	v, ok := header["Audio-Latency"]

	if hasBadLatencyHeader {
		if ok && len(v) == 1 {
			_, _ = strconv.ParseUint(v[0], 10, 32) // parsed, then ignored — see §9
		}
		return DefaultLatencyFrames
	}

	if ok && len(v) == 1 {
		n, err := strconv.ParseUint(v[0], 10, 32)
		if err == nil {
			return uint32(n)
		}
	}

	return DefaultLatencyFrames
}

// SpeakerTypeFromJackStatus parses the Audio-Jack-Status header (§4.5).
func SpeakerTypeFromJackStatus(v string) SpeakerType {
	if v == "" {
		return SpeakerUnknown
	}

	parts := strings.SplitN(v, ";", 2)
	switch strings.TrimSpace(parts[0]) {
	case "disconnected":
		return SpeakerUnplugged
	case "connected":
		if len(parts) == 2 && strings.Contains(parts[1], "digital") {
			return SpeakerDigital
		}
		return SpeakerAnalog
	}
	return SpeakerUnknown
}
