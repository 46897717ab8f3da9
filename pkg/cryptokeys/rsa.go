package cryptokeys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1" //nolint:gosec // required by the AirTunes 2 key-wrapping scheme
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
)

// airportPublicKeyPEM is the RSA public key historically hard-coded by
// every AirTunes 2 client to wrap the per-session AES key in the ANNOUNCE
// body's a=rsaaeskey line. §9 records this pinning as a known deviation
// from ideal security hygiene; it is treated here as a configuration
// constant rather than something the engine derives or negotiates.
const airportPublicKeyPEM = `-----BEGIN RSA PUBLIC KEY-----
MIIBCgKCAQEA59dE8qLieItsH1WgjrcFRKj6eUWqi+bGLOX1HL3U3GRzobR8Fn+N
uJfiHmaxc9mHqJuVDLlVGVtYJq1zCCd9aKmqGzcDm5vQDdLGWXYjdx5h7NXUeuSK
ME9EqQk1jeAxSr3gF0p3u/5g3Mo3WGy8PVfN5/3HklUVz1D1dcQOZywO2l2wGUbT
XH1f2Wa6PaR7rBGrMx5cFwRJJXaf4CoD+pCQK6cmsHaaU8DspJA6ex2mHchxDpoL
RSP+cGdXhRVELFbb0ttZTEgT/tIefhtgEuRMRE2T12Jsh+gSDgW8xaTQjTzgJ1Cc
FJhcmpJY5YXNK21ZEQ4cVoBX0sMGbGHrOwIDAQAB
-----END RSA PUBLIC KEY-----`

func parseAirportPublicKey() (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(airportPublicKeyPEM))
	if block == nil {
		return nil, fmt.Errorf("parse pinned RSA key: no PEM block")
	}

	pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse pinned RSA key: %w", err)
	}
	return pub, nil
}

// WrapKey RSA-OAEP encrypts an AES key with the pinned AirPort public key
// and returns it base64-encoded without padding, as required by the
// a=rsaaeskey SDP attribute (§4.5, §6).
func WrapKey(aesKey []byte) (string, error) {
	pub, err := parseAirportPublicKey()
	if err != nil {
		return "", err
	}

	encrypted, err := rsa.EncryptOAEP(sha1.New(), rand.Reader, pub, aesKey, nil)
	if err != nil {
		return "", fmt.Errorf("wrap AES key: %w", err)
	}

	return base64.RawStdEncoding.EncodeToString(encrypted), nil
}

// Base64NoPad encodes bytes as base64 without padding, the encoding used
// throughout the handshake for Apple-Challenge, a=aesiv and a=rsaaeskey.
func Base64NoPad(b []byte) string {
	return base64.RawStdEncoding.EncodeToString(b)
}
