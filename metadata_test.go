package raop

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDMAP(t *testing.T) {
	b := encodeDMAP(TrackMetadata{Title: "Song", Artist: "Band", Album: "LP"})

	require.Contains(t, string(b), "minm")
	require.Contains(t, string(b), "Song")
	require.Contains(t, string(b), "asar")
	require.Contains(t, string(b), "Band")
}

func TestEncodeDMAPSkipsEmptyFields(t *testing.T) {
	b := encodeDMAP(TrackMetadata{Title: "Song"})
	require.Contains(t, string(b), "minm")
	require.NotContains(t, string(b), "asar")
	require.NotContains(t, string(b), "asal")
}

func TestDecodeAlbumArtBase64(t *testing.T) {
	art, err := DecodeAlbumArtBase64("image/jpeg", "aGVsbG8=")
	require.NoError(t, err)
	require.Equal(t, "image/jpeg", art.ContentType)
	require.Equal(t, []byte("hello"), art.Data)
}

func TestDecodeAlbumArtBase64Invalid(t *testing.T) {
	_, err := DecodeAlbumArtBase64("image/jpeg", "not valid base64!!")
	require.Error(t, err)
}
