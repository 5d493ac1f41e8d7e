package smscmd

import (
	"testing"

	"github.com/daemonp/alarmdiald/internal/settings"
	"github.com/daemonp/alarmdiald/internal/validator"
)

func freshRecord() settings.Record {
	rec := settings.Default()
	rec.Password = "abc123"
	return rec
}

func TestWrongPasswordIsIgnored(t *testing.T) {
	rec := freshRecord()
	_, err := Handle("wrongpw Signal?", rec.Password, &rec, validator.AcceptAll{})
	if _, ok := err.(Ignored); !ok {
		t.Fatalf("expected Ignored, got %v", err)
	}
}

func TestSignalTriggersTwoStage(t *testing.T) {
	rec := freshRecord()
	res, err := Handle("abc123 Signal?", rec.Password, &rec, validator.AcceptAll{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !res.IsSignal || !res.Recognized {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestTelephoneNumberChangesDestination(t *testing.T) {
	rec := freshRecord()
	res, err := Handle("abc123 TelephoneNumber!+447911123456", rec.Password, &rec, validator.AcceptAll{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !res.Dirty || res.Reply != "Ok. Changed telephone number" {
		t.Fatalf("unexpected result %+v", res)
	}
	if rec.DestinationNumber != "+447911123456" {
		t.Fatalf("DestinationNumber = %q", rec.DestinationNumber)
	}
}

func TestTelephoneNumberRejectedByValidator(t *testing.T) {
	rec := freshRecord()
	before := rec.DestinationNumber
	res, err := Handle("abc123 TelephoneNumber!07911", rec.Password, &rec, validator.UKMobile{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if res.Dirty {
		t.Fatal("rejected number should not mark config dirty")
	}
	if rec.DestinationNumber != before {
		t.Fatal("rejected number should not mutate the record")
	}
}

func TestPasswordMustBeSixCharacters(t *testing.T) {
	rec := freshRecord()
	res, err := Handle("abc123 Password!short", rec.Password, &rec, validator.AcceptAll{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if res.Reply != "Error. Invalid password (needs to be 6 characters)" || res.Dirty {
		t.Fatalf("unexpected result %+v", res)
	}

	res, err = Handle("abc123 Password!xyz999", rec.Password, &rec, validator.AcceptAll{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !res.Dirty || rec.Password != "xyz999" {
		t.Fatalf("password change did not apply: %+v rec=%+v", res, rec)
	}
}

func TestSMSonInputTogglesNotify(t *testing.T) {
	rec := freshRecord()
	// Default() enables notifications on every input, so the wire digit
	// "1" (1-based, targeting index 0) toggles input 0 off first.
	res, err := Handle("abc123 SMSonInput!1", rec.Password, &rec, validator.AcceptAll{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if rec.Inputs[0].NotifyEnabled {
		t.Fatal("expected input 0 notifications disabled after first toggle")
	}
	if res.Reply != "Ok. Input 1 will not trigger SMS from now on" {
		t.Fatalf("unexpected reply %q", res.Reply)
	}

	res, err = Handle("abc123 SMSonInput!1", rec.Password, &rec, validator.AcceptAll{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !rec.Inputs[0].NotifyEnabled {
		t.Fatal("expected input 0 notifications re-enabled after second toggle")
	}
	if res.Reply != "Ok. Input 1 will trigger SMS from now on" {
		t.Fatalf("unexpected reply %q", res.Reply)
	}
}

func TestSMSonInputDigitIsOneBased(t *testing.T) {
	rec := freshRecord()
	// Digit "0" has no corresponding input (wire digits start at 1).
	res, err := Handle("abc123 SMSonInput!0", rec.Password, &rec, validator.AcceptAll{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if res.Dirty || res.Reply != "Error. Invalid input number" {
		t.Fatalf("digit 0 should be rejected, got %+v", res)
	}

	// Digit "3" (the last pin, NumInputs == 3) must be accepted.
	res, err = Handle("abc123 SMSonInput!3", rec.Password, &rec, validator.AcceptAll{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !res.Dirty || res.Reply != "Ok. Input 3 will not trigger SMS from now on" {
		t.Fatalf("digit 3 should toggle the last input, got %+v", res)
	}
	if rec.Inputs[settings.NumInputs-1].NotifyEnabled {
		t.Fatal("expected last input notifications disabled after toggle")
	}
}

func TestSMSonInputOutOfRange(t *testing.T) {
	rec := freshRecord()
	res, err := Handle("abc123 SMSonInput!9", rec.Password, &rec, validator.AcceptAll{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if res.Dirty || res.Reply != "Error. Invalid input number" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestMessageTextUpdatesActivateAndDeactivate(t *testing.T) {
	rec := freshRecord()
	// Digit "1" is the wire's 1-based reference to input index 0.
	if _, err := Handle("abc123 MessageText!1!On!Door open", rec.Password, &rec, validator.AcceptAll{}); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if rec.Inputs[0].MessageOnActivate != "Door open" {
		t.Fatalf("MessageOnActivate = %q", rec.Inputs[0].MessageOnActivate)
	}

	if _, err := Handle("abc123 MessageText!1!Off!Door closed", rec.Password, &rec, validator.AcceptAll{}); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if rec.Inputs[0].MessageOnDeactivate != "Door closed" {
		t.Fatalf("MessageOnDeactivate = %q", rec.Inputs[0].MessageOnDeactivate)
	}
}

func TestMessageTextDigitZeroIsRejected(t *testing.T) {
	rec := freshRecord()
	res, err := Handle("abc123 MessageText!0!On!Door open", rec.Password, &rec, validator.AcceptAll{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if res.Dirty || res.Reply != "Error. Invalid input number" {
		t.Fatalf("digit 0 should be rejected, got %+v", res)
	}
}

func TestMessageTextTruncatesLongText(t *testing.T) {
	rec := freshRecord()
	long := ""
	for i := 0; i < 80; i++ {
		long += "x"
	}
	if _, err := Handle("abc123 MessageText!1!On!"+long, rec.Password, &rec, validator.AcceptAll{}); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(rec.Inputs[0].MessageOnActivate) != maxMessageLen {
		t.Fatalf("MessageOnActivate length = %d, want %d", len(rec.Inputs[0].MessageOnActivate), maxMessageLen)
	}
}

func TestDefaultsResetsRecordButKeepsPassword(t *testing.T) {
	rec := freshRecord()
	rec.DestinationNumber = "+447911123456"
	rec.Inputs[0].NotifyEnabled = false
	rec.Inputs[0].MessageOnActivate = "custom"

	res, err := Handle("abc123 Defaults!", rec.Password, &rec, validator.AcceptAll{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !res.Dirty || res.Reply != "Ok. Resetting settings to defaults" {
		t.Fatalf("unexpected result %+v", res)
	}
	want := settings.Default()
	if rec.DestinationNumber != want.DestinationNumber || rec.Inputs != want.Inputs {
		t.Fatalf("record not reset to factory defaults: %+v", rec)
	}
	if rec.Password != "abc123" {
		t.Fatalf("Defaults should not change the password used to authenticate, got %q", rec.Password)
	}
}

func TestUnrecognizedVerbStagesInvalidInstruction(t *testing.T) {
	rec := freshRecord()
	res, err := Handle("abc123 Frobnicate!x", rec.Password, &rec, validator.AcceptAll{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if res.Recognized || res.Reply != "Invalid instruction" {
		t.Fatalf("unexpected result %+v", res)
	}
}
