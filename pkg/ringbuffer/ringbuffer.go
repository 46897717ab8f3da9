// Package ringbuffer contains a generic blocking ring buffer, used to hand
// inbound control-socket datagrams (resend requests) from
// the UDP read loop to the goroutine that acts on them without blocking the
// socket read.
package ringbuffer

import (
	"fmt"
	"sync"
)

// RingBuffer is a fixed-size ring buffer with blocking Pull and
// non-blocking, drop-when-full Push.
type RingBuffer struct {
	size       uint64
	mutex      sync.Mutex
	cond       *sync.Cond
	buffer     []interface{}
	readIndex  uint64
	writeIndex uint64
	closed     bool
}

// New allocates a RingBuffer. size must be a power of two so that index
// wraparound via modulo stays exact.
func New(size uint64) (*RingBuffer, error) {
	if size == 0 || (size&(size-1)) != 0 {
		return nil, fmt.Errorf("size must be a power of two")
	}

	r := &RingBuffer{
		size:   size,
		buffer: make([]interface{}, size),
	}
	r.cond = sync.NewCond(&r.mutex)

	return r, nil
}

// Close makes Pull() return false and discards anything pending.
func (r *RingBuffer) Close() {
	r.mutex.Lock()
	r.closed = true
	for i := range r.buffer {
		r.buffer[i] = nil
	}
	r.mutex.Unlock()
	r.cond.Broadcast()
}

// Push appends data, returning false if the buffer is full.
func (r *RingBuffer) Push(data interface{}) bool {
	r.mutex.Lock()

	if r.buffer[r.writeIndex] != nil {
		r.mutex.Unlock()
		return false
	}

	r.buffer[r.writeIndex] = data
	r.writeIndex = (r.writeIndex + 1) % r.size

	r.mutex.Unlock()
	r.cond.Broadcast()

	return true
}

// Pull blocks until data is available or the buffer is closed.
func (r *RingBuffer) Pull() (interface{}, bool) {
	for {
		r.mutex.Lock()

		data := r.buffer[r.readIndex]
		if data != nil {
			r.buffer[r.readIndex] = nil
			r.readIndex = (r.readIndex + 1) % r.size
			r.mutex.Unlock()
			return data, true
		}

		if r.closed {
			r.mutex.Unlock()
			return nil, false
		}

		r.cond.Wait()
	}
}
