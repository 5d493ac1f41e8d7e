package settings

import "testing"

func TestRoundTrip(t *testing.T) {
	rec := Default()
	rec.Password = "abc123"
	rec.DestinationNumber = "+447911123456"
	rec.Inputs[0] = PerInput{NotifyEnabled: true, MessageOnActivate: "Door open", MessageOnDeactivate: "Door closed"}

	raw, err := Serialize(rec)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	got, err := Deserialize(raw)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if got != rec {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, rec)
	}
}

func TestChecksumMismatchFallsBackToError(t *testing.T) {
	rec := Default()
	rec.Password = "abc123"
	raw, err := Serialize(rec)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	raw[0] ^= 0xFF // corrupt the checksum byte

	_, err = Deserialize(raw)
	if err != ErrChecksumMismatch {
		t.Fatalf("Deserialize with corrupted checksum = %v, want ErrChecksumMismatch", err)
	}
}

func TestEmptyRecordIsChecksumMismatch(t *testing.T) {
	_, err := Deserialize(nil)
	if err != ErrChecksumMismatch {
		t.Fatalf("Deserialize(nil) = %v, want ErrChecksumMismatch", err)
	}
}

func TestSerializeRejectsWrongPasswordLength(t *testing.T) {
	rec := Default()
	rec.Password = "short"
	if _, err := Serialize(rec); err == nil {
		t.Fatal("expected error for non-6-character password")
	}
}

func TestSerializeRejectsOverlongNumber(t *testing.T) {
	rec := Default()
	rec.Password = "abc123"
	long := ""
	for i := 0; i < 60; i++ {
		long += "9"
	}
	rec.DestinationNumber = long
	if _, err := Serialize(rec); err == nil {
		t.Fatal("expected error for overlong destination number")
	}
}

func TestDefaultMatchesFactoryTuple(t *testing.T) {
	rec := Default()
	if rec.Password != "674358" {
		t.Fatalf("Password = %q, want 674358", rec.Password)
	}
	if rec.DestinationNumber != "+447700900000" {
		t.Fatalf("DestinationNumber = %q, want +447700900000", rec.DestinationNumber)
	}
	for i, in := range rec.Inputs {
		if !in.NotifyEnabled {
			t.Fatalf("input %d: expected notifications enabled by default", i)
		}
		if in.MessageOnActivate == "" || in.MessageOnDeactivate == "" {
			t.Fatalf("input %d: expected non-empty default message text", i)
		}
	}
}
