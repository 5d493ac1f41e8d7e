// Package settings implements the persisted Configuration Record of
// spec.md §3/§4.7: the password, destination number, and per-input
// notification settings, serialised with an 8-bit checksum.
package settings

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// NumInputs is the compile-time-fixed number of contact inputs (spec.md
// §3: "default 3").
const NumInputs = 3

const (
	maxPasswordLen = 6
	maxNumberLen   = 49
	maxMessageLen  = 49
)

// PerInput holds the notification settings for one contact-closure
// input.
type PerInput struct {
	NotifyEnabled        bool
	MessageOnActivate    string
	MessageOnDeactivate  string
}

// Record is the full persisted configuration record.
type Record struct {
	Password          string
	DestinationNumber string
	Inputs            [NumInputs]PerInput
}

// Default returns the factory-default record, matching spec.md §6 and
// the original firmware's default_passw/default_tel_no/default_sms_on_fall/
// default_sms_on_rise tables: password "674358", destination
// "+447700900000", notifications enabled on every input with the
// stock per-pin activate/deactivate message text.
func Default() Record {
	return Record{
		Password:          "674358",
		DestinationNumber: "+447700900000",
		Inputs: [NumInputs]PerInput{
			{NotifyEnabled: true, MessageOnActivate: "Intruder alarm triggered", MessageOnDeactivate: "Intruder alarm cleared"},
			{NotifyEnabled: true, MessageOnActivate: "Alarm system armed", MessageOnDeactivate: "Alarm system disarmed"},
			{NotifyEnabled: true, MessageOnActivate: "Panic button pressed", MessageOnDeactivate: "Panic button cleared"},
		},
	}
}

// ErrChecksumMismatch is returned by Deserialize when the stored
// checksum byte does not match the computed checksum of the record
// bytes that follow it.
var ErrChecksumMismatch = errors.New("settings: checksum mismatch")

// Serialize encodes rec into its on-disk representation: a leading
// checksum byte, then password, destination number, per-input activate
// messages, per-input deactivate messages, then per-input enabled
// flags — each string NUL-terminated, matching spec.md §3's field
// order exactly so a future reader cross-checking against the original
// firmware's struct layout can follow along field-by-field.
func Serialize(rec Record) ([]byte, error) {
	if len(rec.Password) != maxPasswordLen {
		return nil, fmt.Errorf("settings: password must be exactly %d characters, got %d", maxPasswordLen, len(rec.Password))
	}
	if len(rec.DestinationNumber) > maxNumberLen {
		return nil, fmt.Errorf("settings: destination number exceeds %d characters", maxNumberLen)
	}

	var body bytes.Buffer
	writeCString(&body, rec.Password)
	writeCString(&body, rec.DestinationNumber)
	for _, in := range rec.Inputs {
		if len(in.MessageOnActivate) > maxMessageLen || len(in.MessageOnDeactivate) > maxMessageLen {
			return nil, fmt.Errorf("settings: per-input message exceeds %d characters", maxMessageLen)
		}
		writeCString(&body, in.MessageOnActivate)
	}
	for _, in := range rec.Inputs {
		writeCString(&body, in.MessageOnDeactivate)
	}
	for _, in := range rec.Inputs {
		if in.NotifyEnabled {
			body.WriteByte(1)
		} else {
			body.WriteByte(0)
		}
	}

	sum := checksum(body.Bytes())
	out := make([]byte, 0, body.Len()+1)
	out = append(out, sum)
	out = append(out, body.Bytes()...)
	return out, nil
}

// Deserialize decodes raw into a Record, validating the checksum byte
// first. On mismatch it returns ErrChecksumMismatch and the zero
// Record; callers should fall back to Default() and mark config dirty,
// per spec.md §4.7.
func Deserialize(raw []byte) (Record, error) {
	if len(raw) < 1 {
		return Record{}, ErrChecksumMismatch
	}
	stored := raw[0]
	body := raw[1:]
	if checksum(body) != stored {
		return Record{}, ErrChecksumMismatch
	}

	r := bytes.NewReader(body)
	var rec Record

	password, err := readCString(r)
	if err != nil {
		return Record{}, fmt.Errorf("settings: reading password: %w", err)
	}
	rec.Password = password

	number, err := readCString(r)
	if err != nil {
		return Record{}, fmt.Errorf("settings: reading destination number: %w", err)
	}
	rec.DestinationNumber = number

	for i := 0; i < NumInputs; i++ {
		s, err := readCString(r)
		if err != nil {
			return Record{}, fmt.Errorf("settings: reading activate message %d: %w", i, err)
		}
		rec.Inputs[i].MessageOnActivate = s
	}
	for i := 0; i < NumInputs; i++ {
		s, err := readCString(r)
		if err != nil {
			return Record{}, fmt.Errorf("settings: reading deactivate message %d: %w", i, err)
		}
		rec.Inputs[i].MessageOnDeactivate = s
	}
	for i := 0; i < NumInputs; i++ {
		var flag byte
		if err := binary.Read(r, binary.LittleEndian, &flag); err != nil {
			return Record{}, fmt.Errorf("settings: reading notify flag %d: %w", i, err)
		}
		rec.Inputs[i].NotifyEnabled = flag != 0
	}

	return rec, nil
}

func checksum(b []byte) byte {
	var sum byte
	for _, c := range b {
		sum += c
	}
	return sum
}

func writeCString(buf *bytes.Buffer, s string) {
	buf.WriteString(s)
	buf.WriteByte(0)
}

func readCString(r *bytes.Reader) (string, error) {
	var out []byte
	for {
		c, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if c == 0 {
			return string(out), nil
		}
		out = append(out, c)
	}
}
