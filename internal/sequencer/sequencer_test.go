package sequencer

import (
	"testing"

	"github.com/daemonp/alarmdiald/internal/atprotocol"
)

func TestIdleByDefault(t *testing.T) {
	s := New()
	if s.IsPending() {
		t.Fatal("fresh sequencer should be idle")
	}
	if p := s.Pending(); p.Kind != ActionNone {
		t.Fatalf("Kind = %v, want ActionNone", p.Kind)
	}
}

func TestSignalRequestTwoStage(t *testing.T) {
	s := New()
	s.Start(ActionSignalRequest, "")

	step, stillPending := s.AdvanceOnOK()
	if !stillPending {
		t.Fatal("signal request should still be pending after first OK")
	}
	if step.SendCommand != atprotocol.CmdSignalQuality || step.AwaitKind != atprotocol.KindCSQ {
		t.Fatalf("unexpected step %+v", step)
	}

	s.OnSignalQuality("17") // caller passes only the RSSI field, per spec.md §8 scenario 3
	step, stillPending = s.AdvanceOnOK()
	if stillPending {
		t.Fatal("signal request should complete after CSQ and second OK")
	}
	if !step.SendSMS || step.Body != "Signal quality is 17" {
		t.Fatalf("unexpected final step %+v", step)
	}
}

func TestSingleStageActionsSendImmediately(t *testing.T) {
	cases := []ActionKind{
		ActionTelNo, ActionPassword, ActionPinAction,
		ActionMessageText, ActionDefaults, ActionInvalidCommand, ActionStatus,
	}
	for _, kind := range cases {
		s := New()
		s.Start(kind, "reply body")
		step, stillPending := s.AdvanceOnOK()
		if stillPending {
			t.Fatalf("kind %v should complete on first OK", kind)
		}
		if !step.SendSMS || step.Body != "reply body" || step.AwaitKind != atprotocol.KindCMGS {
			t.Fatalf("kind %v: unexpected step %+v", kind, step)
		}
	}
}

func TestAbandonClearsPending(t *testing.T) {
	s := New()
	s.Start(ActionTelNo, "x")
	s.Abandon()
	if s.IsPending() {
		t.Fatal("Abandon should clear the pending action")
	}
}

func TestOnModemOnlineStartsStatus(t *testing.T) {
	s := New()
	s.OnModemOnline("Online,LTE,...")
	p := s.Pending()
	if p.Kind != ActionStatus || p.StagedBody != "Modem check: Online,LTE,..." {
		t.Fatalf("unexpected pending %+v", p)
	}
}
