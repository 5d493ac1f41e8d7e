// Package sequencer implements the Multi-Stage Sequencer of spec.md
// §4.4: action sequences that span several AT round-trips. The original
// firmware's sentinel-0 pending-action-kind plus a parallel array of
// staged strings becomes a closed ActionKind enumeration and a single
// Pending value carrying just the data its variant needs, per the
// design note in spec.md §9.
package sequencer

import "github.com/daemonp/alarmdiald/internal/atprotocol"

// ActionKind enumerates the multi-stage actions the sequencer can have
// pending. ActionNone means the slot is idle.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionSignalRequest
	ActionTelNo
	ActionPassword
	ActionPinAction
	ActionMessageText
	ActionDefaults
	ActionInvalidCommand
	ActionStatus
)

// Pending is the multi-stage action slot: at most one is ever pending,
// matching spec.md §3's "Tag 0 means idle" invariant, and is non-idle
// only while the dialogue is busy (spec.md §8 invariant).
type Pending struct {
	Kind       ActionKind
	StagedBody string
}

// Sequencer drives pending multi-stage actions to completion as OK,
// CSQ and CMGS responses arrive.
type Sequencer struct {
	pending Pending
}

// New creates an idle Sequencer.
func New() *Sequencer {
	return &Sequencer{}
}

// Pending returns the current pending action.
func (s *Sequencer) Pending() Pending {
	return s.pending
}

// IsPending reports whether a multi-stage action is in flight.
func (s *Sequencer) IsPending() bool {
	return s.pending.Kind != ActionNone
}

// Start stages a new multi-stage action. Per spec.md §3, only one action
// may be pending; staging a new one replaces any previous pending
// action, which should never happen in practice because the sequencer
// is only driven from contexts gated on dialogue busy/not-busy.
func (s *Sequencer) Start(kind ActionKind, stagedBody string) {
	s.pending = Pending{Kind: kind, StagedBody: stagedBody}
}

// Abandon clears the pending action without sending anything, used when
// the CMGR wait that would have completed it times out (spec.md §4.3).
func (s *Sequencer) Abandon() {
	s.pending = Pending{}
}

// Clear resets the slot to idle, used once an action's final SMS has
// been dispatched.
func (s *Sequencer) Clear() {
	s.pending = Pending{}
}

// NextStep describes what the control loop should do next for the
// pending action once an OK arrives. It is deliberately data-only: the
// control loop performs the actual transport I/O and dialogue dispatch.
type NextStep struct {
	// SendCommand is set when the next step is to issue another AT
	// command (only ActionSignalRequest does this, requesting +CSQ).
	SendCommand string
	// AwaitKind names the response kind the control loop should now
	// await after performing SendCommand or SendSMS.
	AwaitKind atprotocol.ResponseKind
	// SendSMS is true when the next step is to send the staged SMS
	// body to the configured destination.
	SendSMS bool
	// Body is the SMS text to send, when SendSMS is true.
	Body string
}

// AdvanceOnOK computes the next step for the pending action once the
// modem's OK arrives, per the script table in spec.md §4.4. It does not
// mutate the sequencer; the caller clears or keeps the pending slot
// based on whether the action is now fully complete (ActionSignalRequest
// stays pending across the CSQ round-trip; everything else completes
// after the SMS is staged for sending).
func (s *Sequencer) AdvanceOnOK() (step NextStep, stillPending bool) {
	switch s.pending.Kind {
	case ActionNone:
		return NextStep{}, false
	case ActionSignalRequest:
		if s.pending.StagedBody == "" {
			return NextStep{SendCommand: atprotocol.CmdSignalQuality, AwaitKind: atprotocol.KindCSQ}, true
		}
		return NextStep{SendSMS: true, Body: s.pending.StagedBody, AwaitKind: atprotocol.KindCMGS}, false
	default:
		return NextStep{SendSMS: true, Body: s.pending.StagedBody, AwaitKind: atprotocol.KindCMGS}, false
	}
}

// OnSignalQuality stages the signal-quality reply once +CSQ arrives
// while ActionSignalRequest is pending, per spec.md §4.4's row for
// SIGNAL_REQUEST: "on CSQ stage ... and await next OK".
func (s *Sequencer) OnSignalQuality(value string) {
	if s.pending.Kind != ActionSignalRequest {
		return
	}
	s.pending.StagedBody = "Signal quality is " + value
}

// OnModemOnline stages the periodic health-check status reply once
// +CPSI arrives containing "Online", starting ActionStatus.
func (s *Sequencer) OnModemOnline(rest string) {
	s.Start(ActionStatus, "Modem check: "+rest)
}
