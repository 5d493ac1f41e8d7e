package dialogue

import (
	"testing"
	"time"

	"github.com/daemonp/alarmdiald/internal/atprotocol"
)

func TestBusyInvariant(t *testing.T) {
	s := New()
	if s.Busy() {
		t.Fatal("fresh state should not be busy")
	}

	now := time.Now()
	s.Dispatch(atprotocol.KindCSQ, now)
	if !s.Busy() {
		t.Fatal("state with an awaited kind should be busy")
	}

	s.Clear(atprotocol.KindCSQ)
	if s.Busy() {
		t.Fatal("state should not be busy after clearing the only awaited kind")
	}
}

func TestOKConcurrentWithXXX(t *testing.T) {
	s := New()
	now := time.Now()
	s.Dispatch(atprotocol.KindCMGR, now)
	s.Dispatch(atprotocol.KindOK, now)
	if !s.Awaiting(atprotocol.KindCMGR) || !s.Awaiting(atprotocol.KindOK) {
		t.Fatal("OK must be awaitable concurrently with a +XXX expectation")
	}
}

func TestTimeout(t *testing.T) {
	s := NewWithTimeouts(map[atprotocol.ResponseKind]time.Duration{
		atprotocol.KindCSQ: 10 * time.Millisecond,
	})
	start := time.Now()
	s.Dispatch(atprotocol.KindCSQ, start)

	timedOut := s.CheckTimeouts(start.Add(5 * time.Millisecond))
	if len(timedOut) != 0 {
		t.Fatalf("should not time out before deadline, got %v", timedOut)
	}
	if !s.Awaiting(atprotocol.KindCSQ) {
		t.Fatal("should still be awaiting before deadline")
	}

	timedOut = s.CheckTimeouts(start.Add(20 * time.Millisecond))
	if len(timedOut) != 1 || timedOut[0] != atprotocol.KindCSQ {
		t.Fatalf("expected CSQ timeout, got %v", timedOut)
	}
	if s.Awaiting(atprotocol.KindCSQ) {
		t.Fatal("awaiting flag should be cleared after timeout")
	}
}

func TestOKTimeoutIsLonger(t *testing.T) {
	s := New()
	now := time.Now()
	s.Dispatch(atprotocol.KindOK, now)
	s.Dispatch(atprotocol.KindCSQ, now)

	// Just past the default 9s deadline but well short of OK's 60s.
	later := now.Add(10 * time.Second)
	timedOut := s.CheckTimeouts(later)

	foundCSQ, foundOK := false, false
	for _, k := range timedOut {
		if k == atprotocol.KindCSQ {
			foundCSQ = true
		}
		if k == atprotocol.KindOK {
			foundOK = true
		}
	}
	if !foundCSQ {
		t.Fatal("CSQ should have timed out after 10s")
	}
	if foundOK {
		t.Fatal("OK should not time out after only 10s")
	}
}
