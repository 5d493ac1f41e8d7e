// Package dialogue implements the AT Dialogue State machine of spec.md
// §4.3: which response kinds are currently awaited, when each wait
// began, and the busy predicate that gates any new outbound AT command
// or SMS send.
package dialogue

import (
	"time"

	"github.com/daemonp/alarmdiald/internal/atprotocol"
)

// DefaultTimeout is the per-kind AT response deadline (spec.md §4.3),
// except for KindOK which legitimately takes longer after a multi-stage
// send.
const DefaultTimeout = 9 * time.Second

// OKTimeout is the deadline for KindOK specifically.
const OKTimeout = 60 * time.Second

type entry struct {
	awaiting    bool
	initiatedAt time.Time
	timeout     time.Duration
}

// State tracks, for every response kind, whether it is currently
// awaited and since when. It is mutated only by the control loop.
type State struct {
	entries map[atprotocol.ResponseKind]*entry
}

// New creates a dialogue State with the spec's default timeouts. Tests
// that need faster timeouts should use NewWithTimeouts.
func New() *State {
	return NewWithTimeouts(nil)
}

// NewWithTimeouts creates a dialogue State, overriding the default
// per-kind timeout for any kind present in overrides. This exists so
// tests can exercise timeout behaviour without waiting real seconds.
func NewWithTimeouts(overrides map[atprotocol.ResponseKind]time.Duration) *State {
	s := &State{entries: make(map[atprotocol.ResponseKind]*entry)}
	for _, k := range allKinds {
		timeout := DefaultTimeout
		if k == atprotocol.KindOK {
			timeout = OKTimeout
		}
		if overrides != nil {
			if d, ok := overrides[k]; ok {
				timeout = d
			}
		}
		s.entries[k] = &entry{timeout: timeout}
	}
	return s
}

var allKinds = []atprotocol.ResponseKind{
	atprotocol.KindOK,
	atprotocol.KindError,
	atprotocol.KindCPSI,
	atprotocol.KindCREG,
	atprotocol.KindCPMS,
	atprotocol.KindCSQ,
	atprotocol.KindCMGD,
	atprotocol.KindCMGS,
	atprotocol.KindCMTI,
	atprotocol.KindCMGR,
	atprotocol.KindCLCC,
}

// Dispatch marks expectedKind as awaited starting at now. The caller is
// responsible for writing the AT command to the modem transport; this
// call only records the expectation.
func (s *State) Dispatch(expectedKind atprotocol.ResponseKind, now time.Time) {
	e := s.entries[expectedKind]
	e.awaiting = true
	e.initiatedAt = now
}

// Clear resets the awaiting flag for kind, on arrival or timeout.
func (s *State) Clear(kind atprotocol.ResponseKind) {
	e := s.entries[kind]
	e.awaiting = false
}

// Awaiting reports whether kind is currently awaited.
func (s *State) Awaiting(kind atprotocol.ResponseKind) bool {
	return s.entries[kind].awaiting
}

// Busy is the aggregate predicate gating dispatch of any new outbound AT
// command or SMS send: true iff any kind is currently awaited.
func (s *State) Busy() bool {
	for _, k := range allKinds {
		if s.entries[k].awaiting {
			return true
		}
	}
	return false
}

// CheckTimeouts clears any awaited kind whose deadline has passed as of
// now, and returns the kinds that timed out this call, in enumeration
// order. Per spec.md §4.3, a CMGR timeout additionally signals the
// caller to abandon any pending multi-stage action — the caller (the
// sequencer) is responsible for that, by inspecting the returned slice.
func (s *State) CheckTimeouts(now time.Time) []atprotocol.ResponseKind {
	var timedOut []atprotocol.ResponseKind
	for _, k := range allKinds {
		e := s.entries[k]
		if e.awaiting && now.Sub(e.initiatedAt) > e.timeout {
			e.awaiting = false
			timedOut = append(timedOut, k)
		}
	}
	return timedOut
}
