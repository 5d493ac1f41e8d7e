// Package smscmd implements the SMS Command Parser of spec.md §4.6: the
// `<password> <verb>[!<arg>...]` grammar the original firmware built by
// concatenating the live password to a literal verb string. Per the
// redesign note in spec.md §9, this parses the body into password and
// verb/argument tokens and dispatches against a static table instead of
// replicating the original's length-dependent prefix arithmetic.
package smscmd

import (
	"strconv"
	"strings"

	"github.com/daemonp/alarmdiald/internal/sequencer"
	"github.com/daemonp/alarmdiald/internal/settings"
	"github.com/daemonp/alarmdiald/internal/validator"
)

// Verb names the recognised command verbs.
type Verb string

const (
	VerbSignal          Verb = "Signal"
	VerbTelephoneNumber Verb = "TelephoneNumber"
	VerbPassword        Verb = "Password"
	VerbSMSonInput      Verb = "SMSonInput"
	VerbMessageText     Verb = "MessageText"
	VerbDefaults        Verb = "Defaults"
)

// Result describes the outcome of parsing and applying one SMS command
// body. Reply is the text the Multi-Stage Sequencer should stage; Dirty
// reports whether the mutation (if any) requires a configuration
// rewrite.
type Result struct {
	Reply      string
	Dirty      bool
	IsSignal   bool // triggers the two-stage SIGNAL_REQUEST action
	Recognized bool // false only for "password correct, verb unknown"
	Action     sequencer.ActionKind
}

// Ignored reports whether body should produce no reply at all, per
// spec.md §4.6's "password prefix wrong — silently ignored".
type Ignored struct{}

func (Ignored) Error() string { return "smscmd: password prefix did not match, command ignored" }

// Handle parses body against password and, if the password prefix
// matches, dispatches the verb, mutating rec in place. If the password
// prefix does not match, it returns Ignored{} and rec is untouched.
func Handle(body, password string, rec *settings.Record, v validator.NumberValidator) (Result, error) {
	prefix := password + " "
	if !strings.HasPrefix(body, prefix) {
		return Result{}, Ignored{}
	}
	rest := body[len(prefix):]

	verb, arg, hasArg := splitVerb(rest)

	switch Verb(verb) {
	case VerbSignal:
		return Result{IsSignal: true, Recognized: true, Action: sequencer.ActionSignalRequest}, nil

	case VerbTelephoneNumber:
		return handleTelephoneNumber(rec, arg, v), nil

	case VerbPassword:
		return handlePassword(rec, arg), nil

	case VerbSMSonInput:
		return handleSMSonInput(rec, arg), nil

	case VerbMessageText:
		return handleMessageText(rec, rest), nil

	case VerbDefaults:
		*rec = settings.Default()
		rec.Password = password
		return Result{Reply: "Ok. Resetting settings to defaults", Dirty: true, Recognized: true, Action: sequencer.ActionDefaults}, nil

	default:
		_ = hasArg
		return Result{Reply: "Invalid instruction", Recognized: false, Action: sequencer.ActionInvalidCommand}, nil
	}
}

// splitVerb splits "Verb!arg" (or bare "Verb", or "Verb?") into its verb
// token and the remainder after the first '!', if any.
func splitVerb(rest string) (verb, arg string, hasArg bool) {
	rest = strings.TrimSuffix(rest, "?")
	if idx := strings.Index(rest, "!"); idx >= 0 {
		return rest[:idx], rest[idx+1:], true
	}
	return rest, "", false
}

const (
	maxNumberLen  = 49
	maxMessageLen = 49
	passwordLen   = 6
)

func handleTelephoneNumber(rec *settings.Record, number string, v validator.NumberValidator) Result {
	if len(number) > maxNumberLen {
		number = number[:maxNumberLen]
	}
	if v != nil && !v.Valid(number) {
		return Result{Reply: "Error. Invalid telephone number", Recognized: true, Action: sequencer.ActionTelNo}
	}
	rec.DestinationNumber = number
	return Result{Reply: "Ok. Changed telephone number", Dirty: true, Recognized: true, Action: sequencer.ActionTelNo}
}

func handlePassword(rec *settings.Record, newPassword string) Result {
	if len(newPassword) != passwordLen {
		return Result{Reply: "Error. Invalid password (needs to be 6 characters)", Recognized: true, Action: sequencer.ActionPassword}
	}
	rec.Password = newPassword
	return Result{Reply: "Ok. Changed password", Dirty: true, Recognized: true, Action: sequencer.ActionPassword}
}

func handleSMSonInput(rec *settings.Record, digit string) Result {
	n, err := strconv.Atoi(digit)
	i := n - 1 // wire digit is 1-based, per AlarmDial.c:739 (received_sms_text[j] - '1')
	if err != nil || i < 0 || i >= settings.NumInputs {
		return Result{Reply: "Error. Invalid input number", Recognized: true, Action: sequencer.ActionPinAction}
	}
	rec.Inputs[i].NotifyEnabled = !rec.Inputs[i].NotifyEnabled

	state := "not "
	if rec.Inputs[i].NotifyEnabled {
		state = ""
	}
	return Result{
		Reply: "Ok. Input " + strconv.Itoa(i+1) + " will " + state + "trigger SMS from now on",
		Dirty: true, Recognized: true, Action: sequencer.ActionPinAction,
	}
}

// handleMessageText parses "MessageText!<digit>!<On|Off>!<text>" from
// the verb onward, since its payload itself contains '!' separators
// that splitVerb's single-split would otherwise truncate.
func handleMessageText(rec *settings.Record, rest string) Result {
	parts := strings.SplitN(rest, "!", 4)
	if len(parts) != 4 {
		return Result{Reply: "Error. Malformed MessageText command", Recognized: true, Action: sequencer.ActionMessageText}
	}
	digit, onOff, text := parts[1], parts[2], parts[3]

	n, err := strconv.Atoi(digit)
	i := n - 1 // wire digit is 1-based, per AlarmDial.c:739 (received_sms_text[j] - '1')
	if err != nil || i < 0 || i >= settings.NumInputs {
		return Result{Reply: "Error. Invalid input number", Recognized: true, Action: sequencer.ActionMessageText}
	}

	if len(text) > maxMessageLen {
		text = text[:maxMessageLen]
	}

	switch onOff {
	case "On":
		rec.Inputs[i].MessageOnActivate = text
	case "Off":
		rec.Inputs[i].MessageOnDeactivate = text
	default:
		return Result{Reply: "Error. Malformed MessageText command", Recognized: true, Action: sequencer.ActionMessageText}
	}

	return Result{Reply: "Ok. Changed message text", Dirty: true, Recognized: true, Action: sequencer.ActionMessageText}
}
