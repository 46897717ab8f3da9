package headers

import (
	"fmt"
	"strings"

	"github.com/aler9/raop/pkg/base"
)

// AuthMethod is an authentication method.
type AuthMethod int

// authentication methods.
const (
	AuthBasic AuthMethod = iota
	AuthDigest
)

// Auth is a WWW-Authenticate or Authorization header.
type Auth struct {
	Method   AuthMethod
	Username *string
	Realm    *string
	Nonce    *string
	URI      *string
	Response *string
	Opaque   *string
}

func findAuthValue(v0 string) (string, string, error) {
	if v0 == "" {
		return "", "", nil
	}

	if v0[0] == '"' {
		i := 1
		for {
			if i >= len(v0) {
				return "", "", fmt.Errorf("apices not closed (%v)", v0)
			}
			if v0[i] == '"' {
				return v0[1:i], v0[i+1:], nil
			}
			i++
		}
	}

	i := 0
	for i < len(v0) && v0[i] != ',' {
		i++
	}
	return v0[:i], v0[i:], nil
}

// Read decodes a WWW-Authenticate or Authorization header.
func (h *Auth) Read(v base.HeaderValue) error {
	if len(v) == 0 {
		return fmt.Errorf("value not provided")
	}

	v0 := v[0]

	i := strings.IndexByte(v0, ' ')
	if i < 0 {
		return fmt.Errorf("unable to find method (%s)", v0)
	}

	switch v0[:i] {
	case "Basic":
		h.Method = AuthBasic
	case "Digest":
		h.Method = AuthDigest
	default:
		return fmt.Errorf("invalid method (%s)", v0[:i])
	}
	v0 = v0[i+1:]

	for len(v0) > 0 {
		i := strings.IndexByte(v0, '=')
		if i < 0 {
			return fmt.Errorf("unable to find key (%s)", v0)
		}
		var key string
		key, v0 = v0[:i], v0[i+1:]

		val, rest, err := findAuthValue(v0)
		if err != nil {
			return err
		}
		v0 = rest

		switch strings.TrimSpace(key) {
		case "username":
			h.Username = &val
		case "realm":
			h.Realm = &val
		case "nonce":
			h.Nonce = &val
		case "uri":
			h.URI = &val
		case "response":
			h.Response = &val
		case "opaque":
			h.Opaque = &val
		}

		if len(v0) > 0 && v0[0] == ',' {
			v0 = v0[1:]
		}
		for len(v0) > 0 && v0[0] == ' ' {
			v0 = v0[1:]
		}
	}

	return nil
}

// Write encodes a WWW-Authenticate or Authorization header.
func (h Auth) Write() base.HeaderValue {
	var ret string

	switch h.Method {
	case AuthBasic:
		ret = "Basic"
	case AuthDigest:
		ret = "Digest"
	}
	ret += " "

	var parts []string
	if h.Username != nil {
		parts = append(parts, `username="`+*h.Username+`"`)
	}
	if h.Realm != nil {
		parts = append(parts, `realm="`+*h.Realm+`"`)
	}
	if h.Nonce != nil {
		parts = append(parts, `nonce="`+*h.Nonce+`"`)
	}
	if h.URI != nil {
		parts = append(parts, `uri="`+*h.URI+`"`)
	}
	if h.Response != nil {
		parts = append(parts, `response="`+*h.Response+`"`)
	}
	if h.Opaque != nil {
		parts = append(parts, `opaque="`+*h.Opaque+`"`)
	}

	ret += strings.Join(parts, ", ")

	return base.HeaderValue{ret}
}
