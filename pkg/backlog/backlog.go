// Package backlog implements the bounded ring of recently transmitted
// audio packets described in §4.4: PACKET_BACKLOG (default 1000) slots
// keyed by RTP sequence number, evicted strictly FIFO by arrival, bounding
// the usable resend window to roughly PACKET_BACKLOG * TIME_PER_PACKET
// (about 8 seconds at the default size).
package backlog

import "sync"

// DefaultSize is PACKET_BACKLOG from §6.
const DefaultSize = 1000

// Entry is one transmitted audio packet retained for resend.
type Entry struct {
	Seq       uint16
	Timestamp uint32
	Payload   []byte
}

// Backlog is a single-writer, many-reader ring buffer. The writer is the
// audio pipeline's emit path; readers are each session's control-socket
// task answering resend requests (§5, "shared resources").
type Backlog struct {
	mu    sync.Mutex
	slots []Entry
	valid []bool
	size  uint16
}

// New allocates a Backlog of the given size (must fit in a uint16 index
// space; the default of 1000 does).
func New(size int) *Backlog {
	return &Backlog{
		slots: make([]Entry, size),
		valid: make([]bool, size),
		size:  uint16(size),
	}
}

func (b *Backlog) index(seq uint16) uint16 {
	return seq % b.size
}

// Store records a transmitted packet, overwriting the oldest slot when the
// backlog is full.
func (b *Backlog) Store(seq uint16, timestamp uint32, payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := b.index(seq)
	b.slots[idx] = Entry{Seq: seq, Timestamp: timestamp, Payload: payload}
	b.valid[idx] = true
}

// Fetch returns the packet stored for seq, if it is still present. A slot
// can be occupied by a different (more recent) sequence number after
// wraparound, in which case Fetch correctly reports a miss.
func (b *Backlog) Fetch(seq uint16) (Entry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := b.index(seq)
	if !b.valid[idx] || b.slots[idx].Seq != seq {
		return Entry{}, false
	}
	return b.slots[idx], true
}

// Clear discards all stored entries. Called on TEARDOWN (§4.4).
func (b *Backlog) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.valid {
		b.valid[i] = false
	}
}
