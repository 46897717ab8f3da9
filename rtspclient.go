package raop

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/aler9/raop/pkg/auth"
	"github.com/aler9/raop/pkg/base"
	"github.com/aler9/raop/pkg/headers"
	"github.com/aler9/raop/pkg/liberrors"
)

// rtspClient drives one Session's RTSP control connection: OPTIONS,
// ANNOUNCE, SETUP, RECORD, SET_PARAMETER, FLUSH and TEARDOWN,
// with transparent Digest/Basic retry on a single 401 (§4.5). It keeps a
// single TCP connection for the session's whole lifetime; callers
// serialize requests through do, matching the request/response
// discipline RTSP requires on one connection.
type rtspClient struct {
	url *base.URL

	mutex sync.Mutex
	conn  net.Conn
	br    *bufio.Reader
	bw    *bufio.Writer
	cseq  int

	auther   *auth.Client
	sessHdr  string
	username string
	password string
}

// newRTSPClient dials host (an "ip:port" pair) and builds the RTSP
// control-plane URL each request targets: rtsp://host/session_id (§4.5).
func newRTSPClient(host, sessionID, username, password string) (*rtspClient, error) {
	conn, err := net.DialTimeout("tcp", host, DefaultRTSPRequestTimeout)
	if err != nil {
		return nil, liberrors.ErrTransportDown{Err: err}
	}

	u, err := base.ParseURL(fmt.Sprintf("rtsp://%s/%s", host, sessionID))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("build control URL: %w", err)
	}

	return &rtspClient{
		url:      u,
		conn:     conn,
		br:       bufio.NewReader(conn),
		bw:       bufio.NewWriter(conn),
		username: username,
		password: password,
	}, nil
}

func (c *rtspClient) Close() error {
	return c.conn.Close()
}

// LocalAddr is the local endpoint of the control connection, the address
// ANNOUNCE's SDP origin line reports as this engine's IP (§4.5, §6).
func (c *rtspClient) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// do sends req and returns its response, retrying exactly once with
// Digest/Basic credentials if the first attempt is challenged with 401
// (§4.5). The Session header, once assigned, is attached to every
// subsequent request automatically. The password is used as configured;
// it is never lowercased, whatever Capabilities.LowercasePassword says.
func (c *rtspClient) do(req base.Request) (*base.Response, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	res, err := c.doOnce(req)
	if err != nil {
		return nil, err
	}

	if res.StatusCode == base.StatusUnauthorized {
		if c.auther == nil {
			wwwAuth, ok := res.Header["WWW-Authenticate"]
			if !ok {
				return nil, liberrors.ErrAuthRequired{}
			}

			a, aerr := auth.NewClient(wwwAuth, c.username, c.password, false)
			if aerr != nil {
				return nil, liberrors.ErrAuthRequired{Err: aerr}
			}
			c.auther = a
		}

		res, err = c.doOnce(req)
		if err != nil {
			return nil, err
		}

		if res.StatusCode == base.StatusUnauthorized {
			return nil, liberrors.ErrAuthRequired{Err: fmt.Errorf("rejected after authenticated retry")}
		}
	}

	if sess, ok := res.Header["Session"]; ok {
		var sh headers.Session
		if err := sh.Read(sess); err == nil {
			c.sessHdr = sh.Session
		}
	}

	return res, nil
}

func (c *rtspClient) doOnce(req base.Request) (*base.Response, error) {
	if req.Header == nil {
		req.Header = make(base.Header)
	}
	req.URL = c.url

	c.cseq++
	req.Header["CSeq"] = base.HeaderValue{strconv.Itoa(c.cseq)}
	req.Header["User-Agent"] = base.HeaderValue{userAgent}

	if c.sessHdr != "" {
		req.Header["Session"] = base.HeaderValue{c.sessHdr}
	}

	if c.auther != nil {
		req.Header["Authorization"] = c.auther.GenerateHeader(req.Method, req.URL)
	}

	if err := c.conn.SetDeadline(time.Now().Add(DefaultRTSPRequestTimeout)); err != nil {
		return nil, err
	}

	if err := req.Write(c.bw); err != nil {
		return nil, liberrors.ErrTransportDown{Err: err}
	}

	var res base.Response
	if err := res.Read(c.br); err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, liberrors.ErrTimeout{Method: string(req.Method)}
		}
		return nil, liberrors.ErrTransportDown{Err: err}
	}

	if res.StatusCode != base.StatusOK && res.StatusCode != base.StatusUnauthorized {
		return nil, liberrors.ErrRtspProtocol{
			Method:  string(req.Method),
			Code:    int(res.StatusCode),
			Message: res.StatusMessage,
		}
	}

	return &res, nil
}

// options issues OPTIONS, the first step of the handshake (§4.5): no
// body, used to probe Apple-Response/Server/Audio-Jack-Status before
// ANNOUNCE.
func (c *rtspClient) options() (*base.Response, error) {
	return c.do(base.Request{Method: base.Options})
}

// announce issues ANNOUNCE with the SDP body describing the session
// (§4.5, §6).
func (c *rtspClient) announce(sdp []byte) (*base.Response, error) {
	return c.do(base.Request{
		Method: base.Announce,
		Header: base.Header{"Content-Type": base.HeaderValue{"application/sdp"}},
		Body:   sdp,
	})
}

// setup issues SETUP with the client's three proposed UDP ports and
// returns the server's assigned ports, parsed from the Transport
// response header (§4.5, §4.6).
func (c *rtspClient) setup(clientPort, controlPort, timingPort int) (serverPort, serverControlPort, serverTimingPort int, err error) {
	mode := headers.TransportModeRecord
	t := headers.Transport{
		Unicast:     true,
		Mode:        &mode,
		ClientPort:  &clientPort,
		ControlPort: &controlPort,
		TimingPort:  &timingPort,
	}

	res, err := c.do(base.Request{
		Method: base.Setup,
		Header: base.Header{"Transport": t.Write()},
	})
	if err != nil {
		return 0, 0, 0, err
	}

	tv, ok := res.Header["Transport"]
	if !ok {
		return 0, 0, 0, liberrors.ErrRtspProtocol{Method: "SETUP", Message: "no Transport header in response"}
	}

	var rt headers.Transport
	if err := rt.Read(tv); err != nil {
		return 0, 0, 0, liberrors.ErrRtspProtocol{Method: "SETUP", Message: err.Error()}
	}

	if rt.ServerPort != nil {
		serverPort = *rt.ServerPort
	} else {
		serverPort = clientPort
	}
	if rt.ServerControlPort != nil {
		serverControlPort = *rt.ServerControlPort
	} else {
		serverControlPort = controlPort
	}
	if rt.ServerTimingPort != nil {
		serverTimingPort = *rt.ServerTimingPort
	} else {
		serverTimingPort = timingPort
	}

	return serverPort, serverControlPort, serverTimingPort, nil
}

// record issues RECORD carrying the starting seq/rtptime (§4.5, §4.8).
// The Range token is "ntp=0-", the literal form this protocol's spec
// gives (not RTSP's own "npt=", Normal Play Time) — see DESIGN.md.
func (c *rtspClient) record(seq uint16, rtpTime uint32) (*base.Response, error) {
	return c.do(base.Request{
		Method: base.Record,
		Header: base.Header{
			"Range":    base.HeaderValue{"ntp=0-"},
			"RTP-Info": (headers.RTPInfo{Seq: seq, RTPTime: rtpTime}).Write(),
		},
	})
}

// setParameterText sends a SET_PARAMETER request with a single
// "text/parameters" line (volume, progress; §4.9/§6).
func (c *rtspClient) setParameterText(key, value string) error {
	_, err := c.do(base.Request{
		Method: base.SetParameter,
		Header: base.Header{"Content-Type": base.HeaderValue{"text/parameters"}},
		Body:   []byte(fmt.Sprintf("%s: %s\r\n", key, value)),
	})
	return err
}

// setParameterBinary sends a SET_PARAMETER request with a raw body of
// the given content type — DAAP metadata (§4.9).
func (c *rtspClient) setParameterBinary(contentType string, body []byte) error {
	_, err := c.do(base.Request{
		Method: base.SetParameter,
		Header: base.Header{"Content-Type": base.HeaderValue{contentType}},
		Body:   body,
	})
	return err
}

// flush issues FLUSH with the seq/rtptime of the first packet after the
// discontinuity (§4.5, §4.8).
func (c *rtspClient) flush(seq uint16, rtpTime uint32) error {
	_, err := c.do(base.Request{
		Method: base.Flush,
		Header: base.Header{"RTP-Info": (headers.RTPInfo{Seq: seq, RTPTime: rtpTime}).Write()},
	})
	return err
}

// teardown issues TEARDOWN and closes the connection regardless of the
// response, matching the Session Controller's unconditional transition
// to TornDown (§4.8).
func (c *rtspClient) teardown() error {
	_, err := c.do(base.Request{Method: base.Teardown})
	c.conn.Close()
	return err
}
