// Package clock converts between wall-clock time, the NTP timestamp format
// carried on the wire (§4.2) and the RTP timestamp counter that ticks once
// per audio frame at 44100 Hz. It is backed by a monotonic source so that
// wall-clock adjustments never corrupt sync.
package clock

import (
	"math"
	"time"
)

// ntpEpochOffset is the number of seconds between the NTP epoch
// (1900-01-01) and the Unix epoch, i.e. 0x83AA7E80.
const ntpEpochOffset = 0x83AA7E80

// TimestampsPerSecond is the rate at which the RTP timestamp ticks: once
// per PCM frame at 44.1 kHz.
const TimestampsPerSecond = 44100

// Clock is a monotonic clock zeroed at process start. Every NTP timestamp
// it produces is the wall-clock instant captured by New plus the monotonic
// time elapsed since then, so wall-clock step changes (NTP adjustments,
// manual clock sets) do not perturb the timestamps or intervals Clock
// reports.
type Clock struct {
	start time.Time
}

// New creates a Clock zeroed at the current instant.
func New() *Clock {
	return &Clock{start: time.Now()}
}

// Now returns the current wall-clock instant.
func (c *Clock) Now() time.Time {
	return time.Now()
}

// NowNTP returns the current time as a 64-bit NTP timestamp: the integer
// part is seconds since the Unix epoch plus ntpEpochOffset, the fractional
// part maps [0,1) seconds onto [0, 2^32).
func (c *Clock) NowNTP() uint64 {
	return EncodeNTP(c.start.Add(time.Since(c.start)))
}

// EncodeNTP converts a time.Time to the 64-bit NTP format described in
// §4.2 and the GLOSSARY.
func EncodeNTP(t time.Time) uint64 {
	secs := uint64(t.Unix()) + ntpEpochOffset
	frac := uint64(math.Round(float64(t.Nanosecond()) * (1 << 32) / 1e9))
	if frac == 1<<32 {
		frac = 0
		secs++
	}
	return secs<<32 | frac
}

// DecodeNTP converts a 64-bit NTP timestamp back to a time.Time.
func DecodeNTP(v uint64) time.Time {
	secs := int64(v>>32) - ntpEpochOffset
	frac := v & 0xFFFFFFFF
	nanos := int64(math.Round(float64(frac) * 1e9 / (1 << 32)))
	return time.Unix(secs, nanos)
}

// NowRTP extrapolates the RTP timestamp that corresponds to the current
// instant, given the timestamp and instant recorded at some known point
// (typically stream or resume start): start_ts + floor((now - start) *
// TimestampsPerSecond).
func (c *Clock) NowRTP(startTS uint32, startInstant time.Time) uint32 {
	elapsed := time.Since(startInstant)
	ticks := uint32(elapsed.Seconds() * TimestampsPerSecond)
	return startTS + ticks
}
