// Package headers contains RTSP header codecs used by the AirTunes
// handshake: Transport, Session, RTP-Info and the Digest/Basic
// Authenticate family.
package headers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aler9/raop/pkg/base"
)

// TransportMode is the "mode" parameter of a Transport header.
type TransportMode int

// transport modes.
const (
	TransportModePlay TransportMode = iota
	TransportModeRecord
)

// Transport is a Transport header, restricted to what an AirTunes SETUP
// exchange exercises: unicast UDP, mode=record, and the triple of ports
// each side announces for audio/control/timing.
type Transport struct {
	Unicast bool
	Mode    *TransportMode

	// ports proposed by the client
	ClientPort   *int
	ControlPort  *int
	TimingPort   *int

	// ports assigned by the server
	ServerPort        *int
	ServerControlPort *int
	ServerTimingPort  *int
}

func splitTransportTokens(v string) []string {
	return strings.Split(v, ";")
}

// Read decodes a Transport header.
func (h *Transport) Read(v base.HeaderValue) error {
	if len(v) == 0 {
		return fmt.Errorf("value not provided")
	}

	for _, tok := range splitTransportTokens(v[0]) {
		tok = strings.TrimSpace(tok)

		switch {
		case tok == "unicast":
			h.Unicast = true

		case tok == "multicast":
			h.Unicast = false

		case strings.HasPrefix(tok, "mode="):
			switch strings.Trim(tok[len("mode="):], "\"") {
			case "record", "receive":
				m := TransportModeRecord
				h.Mode = &m
			case "play":
				m := TransportModePlay
				h.Mode = &m
			}

		case strings.HasPrefix(tok, "control_port="):
			p, err := strconv.Atoi(tok[len("control_port="):])
			if err != nil {
				return fmt.Errorf("invalid control_port (%v)", tok)
			}
			h.ControlPort = &p

		case strings.HasPrefix(tok, "timing_port="):
			p, err := strconv.Atoi(tok[len("timing_port="):])
			if err != nil {
				return fmt.Errorf("invalid timing_port (%v)", tok)
			}
			h.TimingPort = &p

		case strings.HasPrefix(tok, "server_port="):
			p, err := parseFirstPort(tok[len("server_port="):])
			if err != nil {
				return err
			}
			h.ServerPort = &p

		case strings.HasPrefix(tok, "server_control_port="):
			p, err := parseFirstPort(tok[len("server_control_port="):])
			if err != nil {
				return err
			}
			h.ServerControlPort = &p

		case strings.HasPrefix(tok, "server_timing_port="):
			p, err := parseFirstPort(tok[len("server_timing_port="):])
			if err != nil {
				return err
			}
			h.ServerTimingPort = &p

		default:
			// ignore unrecognized parameters (RTP/AVP, interleaved, etc.)
		}
	}

	return nil
}

// parseFirstPort accepts either "N" or "N-M" and returns N.
func parseFirstPort(v string) (int, error) {
	parts := strings.SplitN(v, "-", 2)
	p, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid port (%v)", v)
	}
	return p, nil
}

// Write encodes a Transport header for the client's SETUP request.
func (h Transport) Write() base.HeaderValue {
	rets := []string{"RTP/AVP/UDP"}

	if h.Unicast {
		rets = append(rets, "unicast")
	} else {
		rets = append(rets, "multicast")
	}

	if h.ClientPort != nil {
		rets = append(rets, fmt.Sprintf("client_port=%d", *h.ClientPort))
	}

	if h.ControlPort != nil {
		rets = append(rets, fmt.Sprintf("control_port=%d", *h.ControlPort))
	}

	if h.TimingPort != nil {
		rets = append(rets, fmt.Sprintf("timing_port=%d", *h.TimingPort))
	}

	if h.Mode != nil {
		if *h.Mode == TransportModeRecord {
			rets = append(rets, "mode=record")
		} else {
			rets = append(rets, "mode=play")
		}
	}

	return base.HeaderValue{strings.Join(rets, ";")}
}
