package raop

import "time"

// Protocol constants from §6 ("Configuration knobs") and the GLOSSARY.
const (
	// FramesPerPacket is the number of stereo PCM frames grouped into one
	// audio packet (352 frames, fixed by the ALAC fmtp line).
	FramesPerPacket = 352

	// TimestampsPerSecond is the rate the RTP timestamp ticks at.
	TimestampsPerSecond = 44100

	// TimePerPacket is the real-time duration one audio packet represents:
	// 352/44100 seconds, about 7.98ms.
	TimePerPacket = time.Second * FramesPerPacket / TimestampsPerSecond

	// DefaultBacklogSize is PACKET_BACKLOG.
	DefaultBacklogSize = 1000

	// DefaultTimesyncIntervalFrames is the frame count between outbound
	// sync packets in steady state.
	DefaultTimesyncIntervalFrames = 44100

	// DefaultPauseTeardownTimeout is how long a Paused stream tolerates
	// before the controller issues TEARDOWN.
	DefaultPauseTeardownTimeout = 2 * time.Second

	// DefaultRTSPRequestTimeout bounds every RTSP request/response.
	DefaultRTSPRequestTimeout = 5 * time.Second

	// DefaultLatencyFrames is the fallback audio latency, also the value
	// forced unconditionally when Capabilities.HasBadLatencyHeader is set
	// (§4.5, §9).
	DefaultLatencyFrames = 11025
)

// Preferred port numbers (§4.6); the engine must tolerate the receiver (or
// the OS) assigning different ones.
const (
	PreferredRTSPPort    = 5000
	PreferredAudioPort   = 6000
	PreferredControlPort = 6001
	PreferredTimingPort  = 6002
)

// userAgent is sent on every RTSP request (§6).
const userAgent = "iTunes/7.6.2 (Windows; N;)"
