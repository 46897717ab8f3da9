package raop

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/aler9/raop/pkg/cryptokeys"
)

// SessionConfig carries everything a Session needs to address one
// receiver and, if it requires encryption, the per-session key material
// (§3, §6).
type SessionConfig struct {
	// Host is the receiver's RTSP control address, "ip:port".
	Host string

	// Username/Password authenticate against receivers that challenge
	// with Digest or Basic (§4.5). Both may be empty.
	Username string
	Password string

	// RequireEncryption forces EncryptedALAC regardless of what
	// DeriveCapabilities would otherwise choose; it is a capability
	// mismatch for a receiver to then refuse Encrypted ALAC (§4.3).
	RequireEncryption bool
}

// Session is the per-receiver state described in §3's Data Model: stable
// identity (SSRC, session_id, AES key/IV) plus the Capabilities derived
// once from the handshake. A Session belongs to exactly one
// ReceiverGroup and is otherwise independent of its siblings: its RTSP
// connection, backlog and capabilities are its own.
type Session struct {
	cfg SessionConfig

	// SSRC identifies this session's RTP stream; unlike seq/timestamp it
	// is never shared across a ReceiverGroup (§4.8).
	SSRC uint32

	// ID is an opaque UUID string keying this Session inside its
	// ReceiverGroup. It is neither the 32-bit session_id of the RTSP
	// request URI and SDP o= line nor the Session header the receiver
	// assigns.
	ID string

	aesKey []byte
	aesIV  []byte

	caps Capabilities
}

// NewSession allocates the stable identity of a Session: a random SSRC,
// a UUID ID, and a fresh AES key and IV, generated for every session and
// used only if it ends up EncryptedALAC. Capabilities are not known yet;
// callers fill them in via setCapabilities once the handshake completes.
func NewSession(cfg SessionConfig) (*Session, error) {
	ssrc, err := randomUint32()
	if err != nil {
		return nil, fmt.Errorf("generate SSRC: %w", err)
	}

	key, err := cryptokeys.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate session key: %w", err)
	}

	iv, err := cryptokeys.GenerateIV()
	if err != nil {
		return nil, fmt.Errorf("generate session IV: %w", err)
	}

	return &Session{
		cfg:    cfg,
		SSRC:   ssrc,
		ID:     uuid.NewString(),
		aesKey: key,
		aesIV:  iv,
	}, nil
}

func randomUint32() (uint32, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

// randomUint16 generates the group's initial RTP sequence number: "initial
// seq is uniform random in [0, 2^16)" (§4.5).
func randomUint16() (uint16, error) {
	var b [2]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

// Capabilities returns the capabilities derived for this session. It is
// the zero value until setCapabilities has first run, i.e. before the
// OPTIONS response has been handled.
func (s *Session) Capabilities() Capabilities {
	return s.caps
}

func (s *Session) setCapabilities(c Capabilities) {
	s.caps = c
}

// AESKeyBase64 and AESIVBase64 are the values the ANNOUNCE SDP body's
// a=rsaaeskey and a=aesiv attributes carry (§6): the key wrapped with
// the protocol's pinned RSA public key, the IV plain.
func (s *Session) AESKeyBase64() (string, error) {
	return cryptokeys.WrapKey(s.aesKey)
}

func (s *Session) AESIVBase64() string {
	return cryptokeys.Base64NoPad(s.aesIV)
}
