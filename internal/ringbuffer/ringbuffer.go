// Package ringbuffer implements the single-producer/single-consumer byte
// ring described in spec.md §3/§4.1: a reader goroutine (the ISR
// analogue) appends bytes, and the control loop (the sole consumer)
// drains complete lines. Synchronisation is via atomically published
// indices and counters rather than a mutex, per the design note that
// calls for the ecosystem's atomic/critical-section primitive standing
// in for `volatile` — a channel here would impose a buffering and
// backpressure model the original single fixed-size ring never had.
package ringbuffer

import (
	"sync/atomic"
)

// MinCapacity is the smallest capacity considered safe for the credible
// modem burst envelope (spec.md §3: "vastly exceed credible modem
// burst (≥ 10 KiB)").
const MinCapacity = 10 * 1024

const lineFeed byte = '\n'

// Buffer is a fixed-capacity ring buffer. Write is called only from the
// single reader goroutine; Read/PopLine/Len are called only from the
// control loop goroutine.
type Buffer struct {
	data []byte

	writePos int64 // atomic, producer-owned
	readPos  int64 // atomic, consumer-owned
	entries  int64 // atomic, producer increments, consumer decrements
	lfCount  int64 // atomic, producer increments, consumer decrements
}

// New creates a ring buffer of the given capacity. Capacity below
// MinCapacity is still accepted (useful for tests exercising wraparound)
// but production callers should respect MinCapacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = MinCapacity
	}
	return &Buffer{data: make([]byte, capacity)}
}

// WriteByte appends a single byte, as the reader goroutine does for
// every byte drained off the serial transport. There is no overflow
// check: per spec.md §4.1 the capacity is sized to make overflow
// impossible in the design envelope, and an overflow that nevertheless
// occurred would corrupt at most the oldest unread line, never the
// producer/consumer bookkeeping itself.
func (b *Buffer) WriteByte(c byte) {
	pos := atomic.LoadInt64(&b.writePos)
	b.data[pos] = c
	pos++
	if int(pos) == len(b.data) {
		pos = 0
	}
	atomic.StoreInt64(&b.writePos, pos)
	atomic.AddInt64(&b.entries, 1)
	if c == lineFeed {
		atomic.AddInt64(&b.lfCount, 1)
	}
}

// Write appends all bytes of p, in order.
func (b *Buffer) Write(p []byte) {
	for _, c := range p {
		b.WriteByte(c)
	}
}

// PendingLines reports how many complete (LF-terminated) lines are
// currently unread.
func (b *Buffer) PendingLines() int {
	return int(atomic.LoadInt64(&b.lfCount))
}

// Entries reports how many unread bytes are currently buffered.
func (b *Buffer) Entries() int {
	return int(atomic.LoadInt64(&b.entries))
}

// Capacity returns the buffer's fixed byte capacity.
func (b *Buffer) Capacity() int {
	return len(b.data)
}

// PopLine drains bytes up to and including the next LF, stripping CR and
// LF, and returns the line. ok is false if no complete line is
// currently buffered.
func (b *Buffer) PopLine(maxLen int) (line string, ok bool) {
	if atomic.LoadInt64(&b.lfCount) == 0 {
		return "", false
	}

	buf := make([]byte, 0, maxLen)
	readPos := b.readPos
	entries := atomic.LoadInt64(&b.entries)

	for entries > 0 {
		c := b.data[readPos]
		readPos++
		if int(readPos) == len(b.data) {
			readPos = 0
		}
		entries--

		if c == lineFeed {
			atomic.AddInt64(&b.lfCount, -1)
			b.readPos = readPos
			atomic.StoreInt64(&b.entries, entries)
			return string(buf), true
		}
		if c != '\r' && len(buf) < maxLen {
			buf = append(buf, c)
		}
	}

	// Should not happen if lfCount > 0 implies a terminated line is
	// present, but guard against a torn read rather than looping forever.
	b.readPos = readPos
	atomic.StoreInt64(&b.entries, entries)
	return string(buf), false
}
