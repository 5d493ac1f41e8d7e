// Package scheduler implements the Periodic Actions Scheduler of
// spec.md §4.8: three recurring duties driven on wall-clock intervals,
// each only fired when the control loop is not busy.
package scheduler

import "time"

// Default intervals, per spec.md §4.8/§4.9.
const (
	CPSIInterval = 28 * 24 * time.Hour // ≈ 4 weeks, modem health probe
	CREGInterval = 8 * time.Hour       // network registration probe
	CMGDInterval = 24 * time.Hour      // inbound SMS-store cleanup
)

// Duty names one of the three recurring duties.
type Duty int

const (
	DutyModemHealth Duty = iota
	DutyNetworkRegistration
	DutySMSCleanup
)

// Scheduler tracks when each duty last ran and reports which are due.
type Scheduler struct {
	lastRun map[Duty]time.Time
	interval map[Duty]time.Duration
}

// New creates a Scheduler with every duty's clock starting at epoch, so
// the first Due check after construction fires every duty immediately —
// mirroring the original firmware's behaviour of running its health and
// registration probes once on boot rather than waiting a full interval.
func New() *Scheduler {
	return &Scheduler{
		lastRun: map[Duty]time.Time{},
		interval: map[Duty]time.Duration{
			DutyModemHealth:         CPSIInterval,
			DutyNetworkRegistration: CREGInterval,
			DutySMSCleanup:          CMGDInterval,
		},
	}
}

// Due returns every duty whose interval has elapsed as of now, in a
// fixed order (health, registration, cleanup). The caller fires at most
// one per control-loop tick since each requires the dialogue to be
// idle; MarkRun should be called once that duty's AT command has
// actually been dispatched.
func (s *Scheduler) Due(now time.Time) []Duty {
	var due []Duty
	for _, d := range []Duty{DutyModemHealth, DutyNetworkRegistration, DutySMSCleanup} {
		if now.Sub(s.lastRun[d]) >= s.interval[d] {
			due = append(due, d)
		}
	}
	return due
}

// MarkRun records that duty was just dispatched at now, resetting its
// interval clock.
func (s *Scheduler) MarkRun(d Duty, now time.Time) {
	s.lastRun[d] = now
}
