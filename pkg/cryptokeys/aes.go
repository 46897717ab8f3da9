// Package cryptokeys wraps the AES and RSA primitives the Encrypted ALAC
// path depends on (§4.3, §4.5). AES and RSA themselves are explicitly
// out of scope as primitives (§1); this package only supplies the thin,
// AirTunes-specific framing around them: per-session key/IV generation,
// whole-block CBC encryption of an ALAC payload, and RSA wrapping of the
// AES key with the protocol's pinned public key.
package cryptokeys

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
)

// KeySize and IVSize are both 128 bits, per the AirTunes 2 reference.
const (
	KeySize = 16
	IVSize  = 16
)

// GenerateKey returns a fresh random 128-bit AES key. Production code must
// generate this per session (§9); the reference implementation's use of
// fixed demo constants is not reproduced here.
func GenerateKey() ([]byte, error) {
	k := make([]byte, KeySize)
	if _, err := rand.Read(k); err != nil {
		return nil, fmt.Errorf("generate AES key: %w", err)
	}
	return k, nil
}

// GenerateIV returns a fresh random 128-bit IV.
func GenerateIV() ([]byte, error) {
	iv := make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("generate AES IV: %w", err)
	}
	return iv, nil
}

// EncryptPacket AES-128-CBC encrypts only the complete 16-byte blocks of
// an ALAC payload, leaving a trailing remainder of less than 16 bytes as
// plaintext. The IV is always the session IV: CBC chaining runs within a
// single packet only, never across packets (§4.3).
func EncryptPacket(key, iv, alacPayload []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("encrypt packet: %w", err)
	}

	wholeBlocksLen := (len(alacPayload) / aes.BlockSize) * aes.BlockSize

	out := make([]byte, len(alacPayload))
	copy(out, alacPayload)

	if wholeBlocksLen > 0 {
		ivCopy := make([]byte, len(iv))
		copy(ivCopy, iv)

		mode := cipher.NewCBCEncrypter(block, ivCopy)
		mode.CryptBlocks(out[:wholeBlocksLen], alacPayload[:wholeBlocksLen])
	}

	// out[wholeBlocksLen:] stays plaintext, already copied above.
	return out, nil
}
