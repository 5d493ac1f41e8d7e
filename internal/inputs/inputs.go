// Package inputs implements the Input Scanner of spec.md §4.5: polls
// contact-closure inputs on the 1s scan cadence, debounces by only
// acting on an observed level change, and reports activate/deactivate
// transitions for the control loop to turn into notification SMS.
package inputs

import (
	"time"

	"github.com/stianeikeland/go-rpio/v4"
)

// Pin abstracts a single digital input so the scanner can be driven
// against real hardware or a fake in tests, matching the GPIO
// abstraction's role as an out-of-scope external collaborator
// (spec.md §1).
type Pin interface {
	// Read reports the raw electrical level: true for high, false for
	// low.
	Read() bool
}

// RPIOPin adapts a go-rpio input pin to the Pin interface.
type RPIOPin struct {
	pin rpio.Pin
}

// NewRPIOPin configures bcmPin as a pulled-up input and returns a Pin
// reading it, mirroring the GpIO driver's Setup step of putting every
// configured input into Input+PullUp mode before first read.
func NewRPIOPin(bcmPin int) RPIOPin {
	pin := rpio.Pin(bcmPin)
	pin.Input()
	pin.PullUp()
	return RPIOPin{pin: pin}
}

// Read reports the raw electrical level.
func (p RPIOPin) Read() bool {
	return p.pin.Read() == rpio.High
}

// Transition describes one observed edge on one input.
type Transition struct {
	Index     int
	Activated bool // true on rising edge of "activated" (negative logic: electrically low)
}

// Scanner holds the last observed logical level of each input, matching
// spec.md §3's "Input scan state": last observed logical level where
// low-on-the-pin means activated.
type Scanner struct {
	pins        []Pin
	lastStatus  []bool
	lastScan    time.Time
	scanCadence time.Duration
}

// New creates a Scanner over pins, with every input initially assumed
// not activated. The first Scan call after construction always runs
// regardless of cadence, so boot-time state is captured immediately.
func New(pins []Pin, scanCadence time.Duration) *Scanner {
	return &Scanner{
		pins:        pins,
		lastStatus:  make([]bool, len(pins)),
		scanCadence: scanCadence,
	}
}

// Due reports whether at least scanCadence has elapsed since the last
// scan, per spec.md §4.5's "at least 1s has elapsed" gate. The caller
// additionally gates on !busy before calling Scan.
func (s *Scanner) Due(now time.Time) bool {
	return now.Sub(s.lastScan) >= s.scanCadence
}

// Scan reads every input, inverts the raw level to form "activated"
// (negative logic), and returns a Transition for every input whose
// activated state differs from its last observed value. It updates
// lastStatus for every input, including ones that did not transition.
func (s *Scanner) Scan(now time.Time) []Transition {
	s.lastScan = now

	var transitions []Transition
	for i, p := range s.pins {
		activated := !p.Read()
		if activated != s.lastStatus[i] {
			transitions = append(transitions, Transition{Index: i, Activated: activated})
			s.lastStatus[i] = activated
		}
	}
	return transitions
}
