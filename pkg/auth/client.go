// Package auth implements the client side of HTTP Digest authentication
// (RFC 2617) as used by the RTSP handshake's 401 retry (§4.5).
package auth

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/aler9/raop/pkg/base"
	"github.com/aler9/raop/pkg/headers"
)

// Client authenticates requests against a server once it has returned a
// WWW-Authenticate challenge.
type Client struct {
	user   string
	pass   string
	method headers.AuthMethod
	realm  string
	nonce  string
}

// NewClient builds a Client from a WWW-Authenticate header and a set of
// credentials. lowercasePassword reproduces the quirk of servers identified
// by capabilities.LowercasePassword in §4.5: they expect the password
// lowercased before hashing.
func NewClient(v base.HeaderValue, user string, pass string, lowercasePassword bool) (*Client, error) {
	if lowercasePassword {
		pass = strings.ToLower(pass)
	}

	var headerAuthDigest string
	for _, vi := range v {
		if strings.HasPrefix(vi, "Digest ") {
			headerAuthDigest = vi
			break
		}
	}

	if headerAuthDigest != "" {
		var auth headers.Auth
		if err := auth.Read(base.HeaderValue{headerAuthDigest}); err != nil {
			return nil, err
		}

		if auth.Realm == nil {
			return nil, fmt.Errorf("realm not provided")
		}
		if auth.Nonce == nil {
			return nil, fmt.Errorf("nonce not provided")
		}

		return &Client{
			user:   user,
			pass:   pass,
			method: headers.AuthDigest,
			realm:  *auth.Realm,
			nonce:  *auth.Nonce,
		}, nil
	}

	var headerAuthBasic string
	for _, vi := range v {
		if strings.HasPrefix(vi, "Basic ") {
			headerAuthBasic = vi
			break
		}
	}

	if headerAuthBasic != "" {
		var auth headers.Auth
		if err := auth.Read(base.HeaderValue{headerAuthBasic}); err != nil {
			return nil, err
		}
		if auth.Realm == nil {
			return nil, fmt.Errorf("realm not provided")
		}

		return &Client{
			user:   user,
			pass:   pass,
			method: headers.AuthBasic,
			realm:  *auth.Realm,
		}, nil
	}

	return nil, fmt.Errorf("no supported authentication methods in challenge")
}

func md5Hex(in string) string {
	h := md5.Sum([]byte(in))
	return hex.EncodeToString(h[:])
}

// GenerateHeader produces the Authorization header value for a request.
func (c *Client) GenerateHeader(method base.Method, u *base.URL) base.HeaderValue {
	uriStr := u.String()

	switch c.method {
	case headers.AuthBasic:
		response := base64.StdEncoding.EncodeToString([]byte(c.user + ":" + c.pass))
		return base.HeaderValue{"Basic " + response}

	case headers.AuthDigest:
		ha1 := md5Hex(c.user + ":" + c.realm + ":" + c.pass)
		ha2 := md5Hex(string(method) + ":" + uriStr)
		response := md5Hex(ha1 + ":" + c.nonce + ":" + ha2)

		username := c.user
		realm := c.realm
		nonce := c.nonce

		return (headers.Auth{
			Method:   headers.AuthDigest,
			Username: &username,
			Realm:    &realm,
			Nonce:    &nonce,
			URI:      &uriStr,
			Response: &response,
		}).Write()
	}

	return nil
}
