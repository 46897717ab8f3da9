package sdpbuilder

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildUnencrypted(t *testing.T) {
	b, err := Build(Params{
		SessionID: 42,
		LocalIP:   "192.168.1.2",
		ServerIP:  "192.168.1.3",
	})
	require.NoError(t, err)
	require.Contains(t, string(b), "AppleLossless")
	require.NotContains(t, string(b), "rsaaeskey")
}

func TestBuildEncrypted(t *testing.T) {
	b, err := Build(Params{
		SessionID:    42,
		LocalIP:      "192.168.1.2",
		ServerIP:     "192.168.1.3",
		Encrypted:    true,
		RSAAESKeyB64: "ZmFrZWtleQ",
		AESIVB64:     "ZmFrZWl2",
	})
	require.NoError(t, err)
	require.Contains(t, string(b), "rsaaeskey:ZmFrZWtleQ")
	require.Contains(t, string(b), "aesiv:ZmFrZWl2")
}
