// Package transport abstracts the byte stream to the modem, playing
// the external-collaborator role spec.md §1 assigns to the low-level
// serial driver: Transport is assumed already open and ready, and
// everything above it deals only in bytes and lines.
package transport

import (
	"io"

	"go.bug.st/serial"
)

// Transport is a bidirectional byte stream to the modem.
type Transport interface {
	io.ReadWriteCloser
}

// SerialTransport wraps a go.bug.st/serial port as a Transport.
type SerialTransport struct {
	port serial.Port
}

// Open opens the named serial port at baud, 8N1, matching the modem's
// expected line configuration.
func Open(portName string, baud int) (*SerialTransport, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, err
	}
	return &SerialTransport{port: port}, nil
}

// Read reads from the underlying serial port.
func (t *SerialTransport) Read(p []byte) (int, error) {
	return t.port.Read(p)
}

// Write writes to the underlying serial port.
func (t *SerialTransport) Write(p []byte) (int, error) {
	return t.port.Write(p)
}

// Close closes the underlying serial port.
func (t *SerialTransport) Close() error {
	return t.port.Close()
}
