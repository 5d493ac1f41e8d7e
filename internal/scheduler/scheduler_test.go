package scheduler

import (
	"testing"
	"time"
)

func TestAllDutiesDueImmediatelyAfterNew(t *testing.T) {
	s := New()
	due := s.Due(time.Now())
	if len(due) != 3 {
		t.Fatalf("expected all 3 duties due on a fresh scheduler, got %v", due)
	}
}

func TestMarkRunResetsClock(t *testing.T) {
	s := New()
	now := time.Now()
	s.MarkRun(DutyModemHealth, now)

	due := s.Due(now.Add(time.Hour))
	for _, d := range due {
		if d == DutyModemHealth {
			t.Fatal("modem health should not be due again after 1h out of a 4-week interval")
		}
	}

	due = s.Due(now.Add(CPSIInterval + time.Second))
	found := false
	for _, d := range due {
		if d == DutyModemHealth {
			found = true
		}
	}
	if !found {
		t.Fatal("modem health should be due again once its interval elapses")
	}
}

func TestDutiesAreIndependent(t *testing.T) {
	s := New()
	now := time.Now()
	s.MarkRun(DutyModemHealth, now)
	s.MarkRun(DutyNetworkRegistration, now)

	due := s.Due(now.Add(CMGDInterval + time.Second))
	if len(due) != 1 || due[0] != DutySMSCleanup {
		t.Fatalf("expected only SMS cleanup due, got %v", due)
	}
}
