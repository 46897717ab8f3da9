package raop

import (
	"encoding/base64"
	"fmt"

	"github.com/aler9/raop/pkg/base"
)

// Volume is expressed in the protocol's own scale: -30.0 (silence) to
// 0.0 (full), per the volume: line SET_PARAMETER carries (§4.9, §6).
type Volume float64

// MuteVolume is the sentinel value meaning "muted" rather than "quiet"
// (§4.9).
const MuteVolume Volume = -144.0

// TrackMetadata is the subset of now-playing information the protocol
// can carry (§4.9): DAAP receivers get title/artist/album as a DMAP
// blob, others get nothing (MetadataFormat == MetadataNone, §4.5).
type TrackMetadata struct {
	Title  string
	Artist string
	Album  string
}

// AlbumArt is artwork bytes plus its content type, only sent to
// receivers whose capabilities request DAAP or PList album art (§4.9).
type AlbumArt struct {
	ContentType string // "image/jpeg" or "image/png"
	Data        []byte
}

// metadataSurface drives one session's volume/progress/metadata/album
// art SET_PARAMETER traffic, gated by that session's own Capabilities
// (§4.9): a session with MetadataFormat == MetadataNone silently skips
// SetTrackMetadata rather than erroring, since "no metadata support" is
// an expected, common capability combination, not a fault.
type metadataSurface struct {
	rtsp *rtspClient
	caps Capabilities
}

func newMetadataSurface(rtsp *rtspClient, caps Capabilities) *metadataSurface {
	return &metadataSurface{rtsp: rtsp, caps: caps}
}

// SetVolume sends "volume: %f" (§4.9). Every receiver is assumed to
// support volume control; it is not gated by Capabilities.
func (m *metadataSurface) SetVolume(v Volume) error {
	return m.rtsp.setParameterText("volume", fmt.Sprintf("%.6f", float64(v)))
}

// SetProgress sends "progress: start/current/end" in RTP timestamp units
// (§4.9), but only to receivers whose Capabilities.WantsProgress is set
// (§4.5's Server-header branch); other receivers ignore or reject it.
func (m *metadataSurface) SetProgress(start, current, end uint32) error {
	if !m.caps.WantsProgress {
		return nil
	}
	return m.rtsp.setParameterText("progress", fmt.Sprintf("%d/%d/%d", start, current, end))
}

// SetTrackMetadata sends a DMAP-encoded metadata blob when the session's
// capabilities request DAAP metadata; it is a no-op otherwise (§4.5,
// §4.9).
func (m *metadataSurface) SetTrackMetadata(md TrackMetadata) error {
	if m.caps.WantsMetadata != MetadataDAAP {
		return nil
	}
	return m.rtsp.setParameterBinary("application/x-dmap-tagged", encodeDMAP(md))
}

// SetAlbumArt sends artwork via X_RA_SET_ALBUM_ART when the session's
// capabilities request DAAP or PList album art, and is a no-op for
// AlbumArtNone receivers (§4.5, §4.9).
func (m *metadataSurface) SetAlbumArt(art AlbumArt) error {
	if m.caps.WantsAlbumArt == AlbumArtNone {
		return nil
	}

	contentType := art.ContentType
	if m.caps.WantsAlbumArt == AlbumArtPList && contentType == "" {
		contentType = "image/jpeg"
	}

	_, err := m.rtsp.do(base.Request{
		Method: base.SetAlbumArt,
		Header: base.Header{"Content-Type": base.HeaderValue{contentType}},
		Body:   art.Data,
	})
	return err
}

// encodeDMAP builds the minimal DMAP-tagged blob covering title/artist/
// album, the three fields the protocol's "now playing" surface exposes
// (§4.9). DMAP itself (the binary tag format used by DAAP/iTunes) is
// explicitly out of scope as a general parser/encoder (§1); this is only
// the narrow triple of tags AirTunes clients send.
func encodeDMAP(md TrackMetadata) []byte {
	var out []byte
	out = appendDMAPString(out, "minm", md.Title)
	out = appendDMAPString(out, "asar", md.Artist)
	out = appendDMAPString(out, "asal", md.Album)
	return out
}

func appendDMAPString(out []byte, tag, value string) []byte {
	if value == "" {
		return out
	}
	length := len(value)
	out = append(out, tag...)
	out = append(out, byte(length>>24), byte(length>>16), byte(length>>8), byte(length))
	return append(out, value...)
}

// DecodeAlbumArtBase64 is a convenience for callers that only have
// artwork as a base64 string (e.g. from a PList-based control surface).
func DecodeAlbumArtBase64(contentType, b64 string) (AlbumArt, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return AlbumArt{}, fmt.Errorf("decode album art: %w", err)
	}
	return AlbumArt{ContentType: contentType, Data: data}, nil
}
