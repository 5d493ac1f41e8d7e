package main

import "github.com/stianeikeland/go-rpio/v4"

// heartbeatLED drives the GPIO pin that toggles at 1 Hz to indicate a
// healthy control loop (spec.md §6).
type heartbeatLED struct {
	pin rpio.Pin
}

func newHeartbeatLED(bcmPin int) *heartbeatLED {
	pin := rpio.Pin(bcmPin)
	pin.Output()
	return &heartbeatLED{pin: pin}
}

func (l *heartbeatLED) Set(on bool) {
	if on {
		l.pin.High()
	} else {
		l.pin.Low()
	}
}
