package auth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aler9/raop/pkg/base"
)

func TestNewClientDigest(t *testing.T) {
	c, err := NewClient(
		base.HeaderValue{`Digest realm="raop", nonce="abc123"`},
		"user", "pass", false,
	)
	require.NoError(t, err)
	require.NotNil(t, c)
}

func TestNewClientDigestMissingRealm(t *testing.T) {
	_, err := NewClient(base.HeaderValue{`Digest nonce="abc123"`}, "u", "p", false)
	require.Error(t, err)
}

func TestNewClientBasic(t *testing.T) {
	c, err := NewClient(base.HeaderValue{`Basic realm="raop"`}, "user", "pass", false)
	require.NoError(t, err)
	require.NotNil(t, c)
}

func TestNewClientNoSupportedMethod(t *testing.T) {
	_, err := NewClient(base.HeaderValue{"Bearer xyz"}, "u", "p", false)
	require.Error(t, err)
}

func TestGenerateHeaderDigestIsDeterministic(t *testing.T) {
	c, err := NewClient(
		base.HeaderValue{`Digest realm="raop", nonce="abc123"`},
		"user", "pass", false,
	)
	require.NoError(t, err)

	u, err := base.ParseURL("rtsp://127.0.0.1:5000/1234")
	require.NoError(t, err)

	h1 := c.GenerateHeader(base.Announce, u)
	h2 := c.GenerateHeader(base.Announce, u)
	require.Equal(t, h1, h2)
	require.Contains(t, h1[0], `username="user"`)
	require.Contains(t, h1[0], `realm="raop"`)
}

func TestLowercasePasswordQuirk(t *testing.T) {
	c1, err := NewClient(base.HeaderValue{`Digest realm="raop", nonce="abc"`}, "u", "PASS", false)
	require.NoError(t, err)

	c2, err := NewClient(base.HeaderValue{`Digest realm="raop", nonce="abc"`}, "u", "PASS", true)
	require.NoError(t, err)

	u, err := base.ParseURL("rtsp://127.0.0.1:5000/1234")
	require.NoError(t, err)

	require.NotEqual(t, c1.GenerateHeader(base.Announce, u), c2.GenerateHeader(base.Announce, u))
}
