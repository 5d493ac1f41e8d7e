package transport

import (
	"bytes"
	"io"
	"sync"
)

// FakeTransport is a test double simulating a blocking transport: reads
// block until data is queued via Feed, like a real serial port would,
// and every write is captured for assertions against what the control
// loop sent the modem.
type FakeTransport struct {
	mu       sync.Mutex
	readChan chan []byte
	closed   bool
	written  bytes.Buffer
}

// NewFakeTransport creates a FakeTransport ready for use in tests.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{readChan: make(chan []byte, 32)}
}

// Write records p and reports success, as a modem's UART would for any
// AT command the control loop sends.
func (f *FakeTransport) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written.Write(p)
	return len(p), nil
}

// Read blocks until data is queued via Feed or the transport is closed.
func (f *FakeTransport) Read(p []byte) (int, error) {
	data, ok := <-f.readChan
	if !ok {
		return 0, io.EOF
	}
	return copy(p, data), nil
}

// Close unblocks any pending Read with io.EOF.
func (f *FakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	close(f.readChan)
	return nil
}

// Feed queues data to be returned from Read, simulating bytes arriving
// from the modem.
func (f *FakeTransport) Feed(data string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.readChan <- []byte(data)
	}
}

// Written returns everything written to the transport so far.
func (f *FakeTransport) Written() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written.String()
}
