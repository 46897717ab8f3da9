// Package sdpbuilder builds the SDP body ANNOUNCE carries (§6): a single
// audio media line describing the fixed 44.1 kHz/16-bit/stereo/352-frame
// AppleLossless format, plus the encrypted-session rsaaeskey/aesiv
// attributes when the session requires them.
package sdpbuilder

import (
	"strconv"

	psdp "github.com/pion/sdp/v3"
)

// Params carries everything the ANNOUNCE body needs to describe one
// session (§6).
type Params struct {
	SessionID   uint32
	LocalIP     string
	ServerIP    string
	Encrypted   bool
	RSAAESKeyB64 string
	AESIVB64     string
}

const alacFmtp = "352 0 16 40 10 14 2 255 0 0 44100"

// Build renders the SDP body described in §6.
func Build(p Params) ([]byte, error) {
	attrs := []psdp.Attribute{
		{Key: "rtpmap", Value: "96 AppleLossless"},
		{Key: "fmtp", Value: "96 " + alacFmtp},
	}

	if p.Encrypted {
		attrs = append(attrs,
			psdp.Attribute{Key: "rsaaeskey", Value: p.RSAAESKeyB64},
			psdp.Attribute{Key: "aesiv", Value: p.AESIVB64},
		)
	}

	desc := &psdp.SessionDescription{
		Version: 0,
		Origin: psdp.Origin{
			Username:       "iTunes",
			SessionID:      uint64(p.SessionID),
			SessionVersion: 0,
			NetworkType:    "IN",
			AddressType:    "IP4",
			UnicastAddress: p.LocalIP,
		},
		SessionName: psdp.SessionName("iTunes"),
		ConnectionInformation: &psdp.ConnectionInformation{
			NetworkType: "IN",
			AddressType: "IP4",
			Address:     &psdp.Address{Address: p.ServerIP},
		},
		TimeDescriptions: []psdp.TimeDescription{
			{Timing: psdp.Timing{StartTime: 0, StopTime: 0}},
		},
		MediaDescriptions: []*psdp.MediaDescription{
			{
				MediaName: psdp.MediaName{
					Media:  "audio",
					Port:   psdp.RangedPort{Value: 0},
					Protos: []string{"RTP", "AVP"},
					Formats: []string{strconv.Itoa(96)},
				},
				Attributes: attrs,
			},
		},
	}

	return desc.Marshal()
}
