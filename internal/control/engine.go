// Package control implements the Control Loop of spec.md §4.10: the
// single cooperative loop composing every other component. This is the
// only place any mutation happens, matching the teacher's single
// top-level struct that owns every subsystem and is driven by one
// loop goroutine plus one reader goroutine, playing the role the
// original firmware split between its UART ISR and main loop.
package control

import (
	"strconv"
	"strings"
	"time"

	"github.com/daemonp/alarmdiald/internal/atprotocol"
	"github.com/daemonp/alarmdiald/internal/dialogue"
	"github.com/daemonp/alarmdiald/internal/inputs"
	"github.com/daemonp/alarmdiald/internal/log"
	"github.com/daemonp/alarmdiald/internal/persist"
	"github.com/daemonp/alarmdiald/internal/ringbuffer"
	"github.com/daemonp/alarmdiald/internal/scheduler"
	"github.com/daemonp/alarmdiald/internal/sequencer"
	"github.com/daemonp/alarmdiald/internal/settings"
	"github.com/daemonp/alarmdiald/internal/smscmd"
	"github.com/daemonp/alarmdiald/internal/telemetry"
	"github.com/daemonp/alarmdiald/internal/transport"
	"github.com/daemonp/alarmdiald/internal/validator"
	"github.com/daemonp/alarmdiald/internal/watchdog"
)

// LEDBlinkInterval is the heartbeat LED's half-period (spec.md §6: "one
// LED that toggles at 1 Hz").
const LEDBlinkInterval = 500 * time.Millisecond

// SMSStoreIndexFallback is used when a +CMTI line's index cannot be
// parsed, so the read is still attempted against the most recent SIM
// slot rather than silently dropped.
const SMSStoreIndexFallback = "1"

// SMSBodyDelay is the fixed gap the modem expects between the AT+CMGS
// header and the SMS body/Ctrl-Z terminator, matching send_sms's
// write_command / sleep_ms(500) / write_command pair in AlarmDial.c:188-192.
const SMSBodyDelay = 500 * time.Millisecond

// LED abstracts the heartbeat output so it can be faked in tests.
type LED interface {
	Set(on bool)
}

// pendingSend is a staged SMS body waiting out SMSBodyDelay before it is
// written, so the gap the modem expects after the AT+CMGS header never
// blocks the control loop.
type pendingSend struct {
	body   string
	sendAt time.Time
}

// Engine composes every component of the control core into the single
// cooperative loop described by spec.md §4.10. All fields are mutated
// only from Tick, matching the "all mutation happens in the control
// loop" invariant.
type Engine struct {
	log *log.Logger

	tr        transport.Transport
	rb        *ringbuffer.Buffer
	dlg       *dialogue.State
	seq       *sequencer.Sequencer
	sched     *scheduler.Scheduler
	scanner   *inputs.Scanner
	resetIn   *watchdog.ResetInput
	feeder    watchdog.Feeder
	led       LED
	store     *persist.Store
	validator validator.NumberValidator
	telemetry telemetry.Publisher // nil when telemetry is disabled

	rec   settings.Record
	dirty bool

	pendingSMSBody string

	// pendingSend holds an SMS body awaiting the SMSBodyDelay gap after
	// its AT+CMGS header has already been written, so the control loop
	// never blocks.
	pendingSend *pendingSend

	ledOn      bool
	lastBlink  time.Time
	rebooting  bool
	rebootHook func()
}

// Config bundles everything Engine needs to be constructed, letting
// main wire real hardware/transport while tests wire fakes.
type Config struct {
	Logger          *log.Logger
	Transport       transport.Transport
	RingBuffer      *ringbuffer.Buffer
	Scanner         *inputs.Scanner
	ResetInput      *watchdog.ResetInput
	Feeder          watchdog.Feeder
	LED             LED
	Store           *persist.Store
	Validator       validator.NumberValidator
	Telemetry       telemetry.Publisher
	InitialRecord   settings.Record
	InitiallyDirty  bool
	RebootHook      func()
}

// New constructs an Engine. If cfg.Validator is nil, validator.AcceptAll
// is used, matching the default resolved in spec.md §9's open question
// on number validation.
func New(cfg Config) *Engine {
	v := cfg.Validator
	if v == nil {
		v = validator.AcceptAll{}
	}
	rebootHook := cfg.RebootHook
	if rebootHook == nil {
		rebootHook = func() {}
	}
	return &Engine{
		log:        cfg.Logger,
		tr:         cfg.Transport,
		rb:         cfg.RingBuffer,
		dlg:        dialogue.New(),
		seq:        sequencer.New(),
		sched:      scheduler.New(),
		scanner:    cfg.Scanner,
		resetIn:    cfg.ResetInput,
		feeder:     cfg.Feeder,
		led:        cfg.LED,
		store:      cfg.Store,
		validator:  v,
		telemetry:  cfg.Telemetry,
		rec:        cfg.InitialRecord,
		dirty:      cfg.InitiallyDirty,
		rebootHook: rebootHook,
	}
}

// Record returns a copy of the current in-memory configuration record,
// for inspection by tests and by telemetry.
func (e *Engine) Record() settings.Record {
	return e.rec
}

// Rebooting reports whether the engine has diagnosed the modem as
// offline and is forcing a reboot.
func (e *Engine) Rebooting() bool {
	return e.rebooting
}

// Tick runs exactly one iteration of the control loop at wall-clock
// time now, per the ordered steps of spec.md §4.10.
func (e *Engine) Tick(now time.Time) {
	if e.rebooting {
		return
	}

	e.feed(now)

	e.flushPendingSMSBody(now)

	if line, ok := e.rb.PopLine(atprotocol.MaxLineLength); ok {
		e.onLine(line, now)
	}

	for _, k := range e.dlg.CheckTimeouts(now) {
		if k == atprotocol.KindCMGR {
			e.seq.Abandon()
			e.pendingSMSBody = ""
		}
	}

	busy := e.dlg.Busy() || e.pendingSend != nil

	for _, duty := range e.sched.Due(now) {
		if busy {
			break
		}
		e.fireDuty(duty, now)
		e.sched.MarkRun(duty, now)
	}

	if e.scanner != nil && !busy && e.scanner.Due(now) {
		for _, t := range e.scanner.Scan(now) {
			e.onInputTransition(t, now)
		}
	}

	e.blinkLED(now)

	if e.dirty && !busy {
		if err := e.store.Save(e.rec); err != nil {
			e.log.Error("persisting configuration: %v", err)
		} else {
			e.dirty = false
		}
	}
}

// flushPendingSMSBody writes the staged SMS body and Ctrl-Z once
// SMSBodyDelay has elapsed since the AT+CMGS header was sent, giving the
// modem the gap send_sms achieves with sleep_ms(500) without blocking
// the control loop.
func (e *Engine) flushPendingSMSBody(now time.Time) {
	if e.pendingSend == nil || now.Before(e.pendingSend.sendAt) {
		return
	}
	body := e.pendingSend.body
	e.pendingSend = nil
	e.tr.Write([]byte(body))
	e.tr.Write([]byte{atprotocol.CtrlZ})
	e.dlg.Dispatch(atprotocol.KindCMGS, now)
	e.dlg.Dispatch(atprotocol.KindOK, now)
}

// CheckResetInput evaluates the local password-reset input's debounced
// state (spec.md §4.9). It is separate from Tick because the caller
// supplies the already-read, negative-logic "asserted" boolean, the
// same shape inputs.Pin produces.
func (e *Engine) CheckResetInput(asserted bool, now time.Time) {
	if e.resetIn == nil {
		return
	}
	if !e.resetIn.Check(asserted, now) {
		return
	}
	e.rec.Password = settings.Default().Password
	e.dirty = true
	e.log.SMS("local reset input asserted: password restored to default")
	e.sendSMSDirect("Password reset to default", now)
}

func (e *Engine) feed(now time.Time) {
	if e.feeder == nil {
		return
	}
	e.feeder.Feed(watchdog.ArmDeadline)
}

func (e *Engine) blinkLED(now time.Time) {
	if e.led == nil {
		return
	}
	if now.Sub(e.lastBlink) < LEDBlinkInterval {
		return
	}
	e.ledOn = !e.ledOn
	e.led.Set(e.ledOn)
	e.lastBlink = now
}

func (e *Engine) onLine(raw string, now time.Time) {
	cl := atprotocol.Classify(raw, e.dlg.Awaiting(atprotocol.KindCMGR))
	e.log.Modem("<- %s", cl.Line)

	switch cl.Kind {
	case atprotocol.KindOK:
		e.onOK(now)

	case atprotocol.KindError:
		e.dlg.Clear(atprotocol.KindOK)
		if e.seq.IsPending() {
			e.seq.Abandon()
		}

	case atprotocol.KindCPSI:
		if !e.dlg.Awaiting(atprotocol.KindCPSI) {
			return
		}
		e.dlg.Clear(atprotocol.KindCPSI)
		e.onCPSI(cl.Line, now)

	case atprotocol.KindCREG:
		if e.dlg.Awaiting(atprotocol.KindCREG) {
			e.dlg.Clear(atprotocol.KindCREG)
		}

	case atprotocol.KindCPMS:
		if e.dlg.Awaiting(atprotocol.KindCPMS) {
			e.dlg.Clear(atprotocol.KindCPMS)
		}

	case atprotocol.KindCSQ:
		if !e.dlg.Awaiting(atprotocol.KindCSQ) {
			return
		}
		e.dlg.Clear(atprotocol.KindCSQ)
		e.seq.OnSignalQuality(parseCSQValue(cl.Line))

	case atprotocol.KindCMGD:
		if e.dlg.Awaiting(atprotocol.KindCMGD) {
			e.dlg.Clear(atprotocol.KindCMGD)
		}

	case atprotocol.KindCMGS:
		if e.dlg.Awaiting(atprotocol.KindCMGS) {
			e.dlg.Clear(atprotocol.KindCMGS)
		}

	case atprotocol.KindCMTI:
		idx := parseCMTIIndex(cl.Line)
		e.sendCommand(atprotocol.CmdReadSMS(idx), atprotocol.KindCMGR, now)

	case atprotocol.KindCMGR:
		// Header line: the body follows as a KindPayload line while
		// awaiting[CMGR] stays set; nothing to do yet.

	case atprotocol.KindCLCC:
		if !e.dlg.Busy() {
			e.sendCommand(atprotocol.CmdHangUp, atprotocol.KindOK, now)
		}

	case atprotocol.KindPayload:
		if !e.dlg.Awaiting(atprotocol.KindCMGR) {
			return
		}
		e.pendingSMSBody = cl.Line
		e.handleSMSBody(now)

	case atprotocol.KindUnknownPlus, atprotocol.KindIgnored:
		// discard
	}
}

func (e *Engine) onOK(now time.Time) {
	e.dlg.Clear(atprotocol.KindOK)
	if e.dlg.Awaiting(atprotocol.KindCMGR) {
		e.dlg.Clear(atprotocol.KindCMGR)
	}
	if !e.seq.IsPending() {
		return
	}
	step, stillPending := e.seq.AdvanceOnOK()
	if !stillPending {
		e.seq.Clear()
	}
	e.performStep(step, now)
}

func (e *Engine) performStep(step sequencer.NextStep, now time.Time) {
	if step.SendCommand != "" {
		e.sendCommand(step.SendCommand, step.AwaitKind, now)
	}
	if step.SendSMS {
		e.sendSMSDirect(step.Body, now)
	}
}

func (e *Engine) onCPSI(line string, now time.Time) {
	rest := strings.TrimPrefix(line, "+CPSI:")
	rest = strings.TrimSpace(rest)

	if strings.Contains(line, "Online") {
		e.seq.OnModemOnline(rest)
		return
	}
	e.forceReboot(now)
}

func (e *Engine) forceReboot(now time.Time) {
	e.log.Error("modem diagnosed offline, forcing reboot")
	e.rebooting = true
	e.rebootHook()
}

func (e *Engine) handleSMSBody(now time.Time) {
	result, err := smscmd.Handle(e.pendingSMSBody, e.rec.Password, &e.rec, e.validator)
	e.pendingSMSBody = ""

	if _, ignored := err.(smscmd.Ignored); ignored {
		return
	}
	if result.Dirty {
		e.dirty = true
	}
	e.seq.Start(result.Action, result.Reply)
}

func (e *Engine) onInputTransition(t inputs.Transition, now time.Time) {
	in := e.rec.Inputs[t.Index]
	if !in.NotifyEnabled {
		return
	}
	msg := in.MessageOnDeactivate
	if t.Activated {
		msg = in.MessageOnActivate
	}
	e.sendSMSDirect(msg, now)
	if e.telemetry != nil {
		state := "deactivated"
		if t.Activated {
			state = "activated"
		}
		e.telemetry.Publish(e.telemetry.Topics().Input(t.Index), state, true)
	}
}

func (e *Engine) fireDuty(duty scheduler.Duty, now time.Time) {
	switch duty {
	case scheduler.DutyModemHealth:
		e.sendCommand(atprotocol.CmdModemStatus, atprotocol.KindCPSI, now)
	case scheduler.DutyNetworkRegistration:
		e.sendCommand(atprotocol.CmdNetworkReg, atprotocol.KindCREG, now)
	case scheduler.DutySMSCleanup:
		e.sendCommand(atprotocol.CmdDeleteAllSMS, atprotocol.KindCMGD, now)
	}
}

func (e *Engine) sendCommand(cmd string, awaitKind atprotocol.ResponseKind, now time.Time) {
	e.log.Modem("-> %s", strings.TrimRight(cmd, "\r"))
	e.tr.Write([]byte(cmd))
	e.dlg.Dispatch(awaitKind, now)
	e.dlg.Dispatch(atprotocol.KindOK, now)
}

// sendSMSDirect issues an SMS send unconditionally: it writes the
// AT+CMGS header immediately and stages the body/Ctrl-Z to be written
// SMSBodyDelay later by flushPendingSMSBody, reproducing send_sms's
// write_command / sleep_ms(500) / write_command gap (AlarmDial.c:188-192)
// without blocking the control loop. It is used both by the sequencer's
// final step and by immediate, non-multi-stage sends (input
// notifications, the reset-to-defaults confirmation).
func (e *Engine) sendSMSDirect(body string, now time.Time) {
	e.log.SMS("-> %q to %s", body, e.rec.DestinationNumber)
	header := atprotocol.CmdSendSMSHeader(e.rec.DestinationNumber)
	e.tr.Write([]byte(header))
	e.pendingSend = &pendingSend{body: body, sendAt: now.Add(SMSBodyDelay)}
}

// parseCSQValue extracts just the RSSI field from a "+CSQ: <rssi>,<ber>"
// line, per spec.md §8 scenario 3 ("+CSQ: 17,99 ... sends SMS body
// 'Signal quality is 17'").
func parseCSQValue(line string) string {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return ""
	}
	rest := strings.TrimSpace(line[idx+1:])
	if comma := strings.Index(rest, ","); comma >= 0 {
		rest = rest[:comma]
	}
	return strings.TrimSpace(rest)
}

// parseCMTIIndex parses the SMS store index from a +CMTI line by
// taking the field after the final comma, per spec.md §9's resolution
// of the CMTI-offset open question (a robust port parses after the
// final comma rather than a fixed byte offset).
func parseCMTIIndex(line string) string {
	idx := strings.LastIndex(line, ",")
	if idx < 0 || idx+1 >= len(line) {
		return SMSStoreIndexFallback
	}
	field := strings.TrimSpace(line[idx+1:])
	if _, err := strconv.Atoi(field); err != nil {
		return SMSStoreIndexFallback
	}
	return field
}
