package cryptokeys

import (
	"crypto/aes"
	"crypto/cipher"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncryptPacketWholeBlocksOnly(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	iv, err := GenerateIV()
	require.NoError(t, err)

	plaintext := make([]byte, 40) // two whole 16-byte blocks + 8-byte remainder
	for i := range plaintext {
		plaintext[i] = byte(i)
	}

	ciphertext, err := EncryptPacket(key, iv, plaintext)
	require.NoError(t, err)
	require.Len(t, ciphertext, len(plaintext))

	require.Equal(t, plaintext[32:], ciphertext[32:], "remainder must stay plaintext")
	require.NotEqual(t, plaintext[:32], ciphertext[:32], "whole blocks must be encrypted")

	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	decrypted := make([]byte, 32)
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(decrypted, ciphertext[:32])
	require.Equal(t, plaintext[:32], decrypted)
}

func TestEncryptPacketIVNotChained(t *testing.T) {
	key, _ := GenerateKey()
	iv, _ := GenerateIV()

	block := make([]byte, 32)

	c1, err := EncryptPacket(key, iv, block)
	require.NoError(t, err)
	c2, err := EncryptPacket(key, iv, block)
	require.NoError(t, err)

	require.Equal(t, c1, c2, "the same IV must be used per packet, never advanced across calls")
}

func TestWrapKeyProducesBase64(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	wrapped, err := WrapKey(key)
	require.NoError(t, err)
	require.NotEmpty(t, wrapped)
}
