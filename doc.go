// Package raop implements the client-side core of an AirTunes v2
// streaming engine: a sender that delivers a stereo 44.1 kHz PCM audio
// stream, synchronized and reliably, to one or more AirPlay-compatible
// receivers over an RTSP control channel plus three UDP channels (audio,
// control/resend, timing).
//
// Discovery, on-disk audio decoding, the ALAC codec, the AES/RSA
// primitives and any user-facing control surface are treated as external
// collaborators with narrow interfaces (pkg/alac, pkg/pcm,
// pkg/cryptokeys) and are not implemented here.
package raop
