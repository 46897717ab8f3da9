package raop

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aler9/raop/pkg/base"
)

func TestDeriveCapabilities(t *testing.T) {
	for _, ca := range []struct {
		name   string
		header base.Header
		want   Capabilities
	}{
		{
			name:   "apple response only",
			header: base.Header{"Apple-Response": base.HeaderValue{"xyz"}},
			want: Capabilities{
				AudioFormat:         EncryptedALAC,
				WantsAlbumArt:       AlbumArtNone,
				WantsMetadata:       MetadataNone,
				WantsProgress:       false,
				LowercasePassword:   false,
				HasBadLatencyHeader: false,
				AudioLatencyFrames:  DefaultLatencyFrames,
			},
		},
		{
			name:   "server header only",
			header: base.Header{"Server": base.HeaderValue{"AirTunes/100.17"}},
			want: Capabilities{
				AudioFormat:         UnencryptedALAC,
				WantsAlbumArt:       AlbumArtDAAP,
				WantsMetadata:       MetadataDAAP,
				WantsProgress:       true,
				LowercasePassword:   true,
				HasBadLatencyHeader: true,
				AudioLatencyFrames:  DefaultLatencyFrames,
			},
		},
		{
			name: "both headers present",
			header: base.Header{
				"Apple-Response": base.HeaderValue{"xyz"},
				"Server":         base.HeaderValue{"AirTunes/100.17"},
			},
			want: Capabilities{
				AudioFormat:         EncryptedALAC,
				WantsAlbumArt:       AlbumArtNone,
				WantsMetadata:       MetadataNone,
				WantsProgress:       false,
				LowercasePassword:   true,
				HasBadLatencyHeader: true,
				AudioLatencyFrames:  DefaultLatencyFrames,
			},
		},
		{
			name:   "neither header present",
			header: base.Header{},
			want: Capabilities{
				AudioFormat:        EncryptedALAC,
				AudioLatencyFrames: DefaultLatencyFrames,
			},
		},
		{
			name: "server header with valid audio-latency is still forced to default",
			header: base.Header{
				"Server":        base.HeaderValue{"AirTunes/100.17"},
				"Audio-Latency": base.HeaderValue{"4410"},
			},
			want: Capabilities{
				AudioFormat:         UnencryptedALAC,
				WantsAlbumArt:       AlbumArtDAAP,
				WantsMetadata:       MetadataDAAP,
				WantsProgress:       true,
				LowercasePassword:   true,
				HasBadLatencyHeader: true,
				AudioLatencyFrames:  DefaultLatencyFrames,
			},
		},
		{
			name: "apple response only with valid audio-latency is honored",
			header: base.Header{
				"Apple-Response": base.HeaderValue{"xyz"},
				"Audio-Latency":  base.HeaderValue{"4410"},
			},
			want: Capabilities{
				AudioFormat:        EncryptedALAC,
				AudioLatencyFrames: 4410,
			},
		},
	} {
		t.Run(ca.name, func(t *testing.T) {
			got := DeriveCapabilities(ca.header)
			require.Equal(t, ca.want, got)
		})
	}
}

func TestSpeakerTypeFromJackStatus(t *testing.T) {
	require.Equal(t, SpeakerUnplugged, SpeakerTypeFromJackStatus("disconnected"))
	require.Equal(t, SpeakerAnalog, SpeakerTypeFromJackStatus("connected; type=analog"))
	require.Equal(t, SpeakerDigital, SpeakerTypeFromJackStatus("connected; type=digital"))
	require.Equal(t, SpeakerUnknown, SpeakerTypeFromJackStatus(""))
}
