package raop

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSessionAssignsIdentity(t *testing.T) {
	s, err := NewSession(SessionConfig{Host: "127.0.0.1:5000"})
	require.NoError(t, err)
	require.NotEmpty(t, s.ID)
	require.NotZero(t, s.SSRC)

	s2, err := NewSession(SessionConfig{Host: "127.0.0.1:5000"})
	require.NoError(t, err)
	require.NotEqual(t, s.ID, s2.ID)
	require.NotEqual(t, s.SSRC, s2.SSRC, "two sessions must not share an SSRC")
}

func TestSessionAESKeyWrapping(t *testing.T) {
	s, err := NewSession(SessionConfig{Host: "127.0.0.1:5000", RequireEncryption: true})
	require.NoError(t, err)

	wrapped, err := s.AESKeyBase64()
	require.NoError(t, err)
	require.NotEmpty(t, wrapped)

	require.NotEmpty(t, s.AESIVBase64())
}

func TestSessionCapabilitiesDefaultZeroValue(t *testing.T) {
	s, err := NewSession(SessionConfig{Host: "127.0.0.1:5000"})
	require.NoError(t, err)
	require.Equal(t, Capabilities{}, s.Capabilities())
}
