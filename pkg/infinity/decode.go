// SPDX-License-Identifier: Apache-2.0

package infinity

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMalformedPayload marks frames whose payload is shorter than the
// fields their register layout requires. Such frames are dropped by
// callers, never fatal.
var ErrMalformedPayload = errors.New("malformed payload")

// Attribute is one decoded register field, normalized for export.
// Numeric fields carry Number, text fields carry Text.
type Attribute struct {
	Name   string
	IsText bool
	Number float64
	Text   string
}

// Message is the decoded form of a frame. Immutable once constructed.
type Message struct {
	Source     uint16
	Dest       uint16
	Func       uint8
	Register   string // hex register key for register-bearing frames, else ""
	Table      string // register table name, "" if unknown
	Attributes []Attribute
	ReceivedAt time.Time
}

// PayloadDecoder interprets one function code's payload into message
// attributes
type PayloadDecoder func(payload []byte, msg *Message) error

// Decoder dispatches frames to per-function-code payload decoders.
// Unknown function codes produce a message with no attributes so that
// unrecognized device types never stall ingestion.
type Decoder struct {
	registry map[uint8]PayloadDecoder
}

// NewDecoder creates a decoder with the standard function codes
// registered
func NewDecoder() *Decoder {
	d := &Decoder{registry: make(map[uint8]PayloadDecoder)}
	d.Register(FuncAck06, decodeRegisterReply)
	d.Register(FuncAck02, decodeNothing)
	d.Register(FuncRead, decodeRegisterKeyOnly)
	d.Register(FuncWrite, decodeRegisterKeyOnly)
	d.Register(FuncNack, decodeNothing)
	return d
}

// Register installs or replaces the decoder for a function code
func (d *Decoder) Register(function uint8, dec PayloadDecoder) {
	d.registry[function] = dec
}

// Decode converts a validated frame into a Message. Decoding is pure:
// it retains no state and never mutates the frame.
func (d *Decoder) Decode(f *Frame) (*Message, error) {
	msg := &Message{
		Source:     f.Source(),
		Dest:       f.Dest(),
		Func:       f.Func(),
		ReceivedAt: f.Timestamp(),
	}
	dec, ok := d.registry[f.Func()]
	if !ok {
		return msg, nil
	}
	if err := dec(f.Payload(), msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func decodeNothing(payload []byte, msg *Message) error {
	return nil
}

// decodeRegisterKeyOnly records which register a READ or WRITE frame
// addresses without interpreting the data
func decodeRegisterKeyOnly(payload []byte, msg *Message) error {
	if len(payload) < 3 {
		return nil
	}
	msg.Register = hex.EncodeToString(payload[:3])
	return nil
}

// decodeRegisterReply handles ACK06 read replies: a 3-byte register
// key followed by the register data
func decodeRegisterReply(payload []byte, msg *Message) error {
	if len(payload) < 3 {
		return fmt.Errorf("%w: ACK06 with %d bytes", ErrMalformedPayload, len(payload))
	}
	msg.Register = hex.EncodeToString(payload[:3])
	table, ok := Registers[msg.Register]
	if !ok {
		// Unknown register: forward-compatible, no attributes
		return nil
	}
	msg.Table = table.Name
	attrs, err := parseFields(table.Fields, payload[3:])
	if err != nil {
		return fmt.Errorf("%w: register %s (%s): %v",
			ErrMalformedPayload, msg.Register, table.Name, err)
	}
	prefix := TablePrefix(table.Name)
	for i := range attrs {
		if prefix != "" {
			attrs[i].Name = prefix + "_" + attrs[i].Name
		}
	}
	msg.Attributes = attrs
	return nil
}

// parseFields walks a register layout over the data bytes. Trailing
// bytes beyond the layout are permitted (several registers carry
// undocumented tails); running out of data mid-layout is not.
func parseFields(fields []FieldDef, data []byte) ([]Attribute, error) {
	var attrs []Attribute
	for _, fd := range fields {
		reps := fd.Reps
		zoned := reps == RepeatedPerZone
		if zoned {
			reps = zoneCount
		}
		switch fd.Kind {
		case FieldPad:
			if len(data) < reps {
				return nil, fmt.Errorf("need %d padding bytes, have %d", reps, len(data))
			}
			data = data[reps:]

		case FieldUTF8:
			if len(data) < reps {
				return nil, fmt.Errorf("field %s: need %d bytes, have %d", fd.Name, reps, len(data))
			}
			attrs = append(attrs, textAttr(fd.Name, data[:reps]))
			data = data[reps:]

		case FieldName:
			for zone := 1; zone <= reps; zone++ {
				if len(data) < 12 {
					return nil, fmt.Errorf("field %s zone %d: need 12 bytes, have %d", fd.Name, zone, len(data))
				}
				a := textAttr(fd.Name, data[:12])
				a.Name = fmt.Sprintf("%s_zone%d", a.Name, zone)
				attrs = append(attrs, a)
				data = data[12:]
			}

		case FieldUint8, FieldInt8, FieldUint16:
			width := 1
			if fd.Kind == FieldUint16 {
				width = 2
			}
			for rep := 1; rep <= reps; rep++ {
				if len(data) < width {
					return nil, fmt.Errorf("field %s: need %d bytes, have %d", fd.Name, width, len(data))
				}
				var v float64
				switch fd.Kind {
				case FieldUint8:
					v = float64(data[0])
				case FieldInt8:
					v = float64(int8(data[0]))
				case FieldUint16:
					v = float64(binary.BigEndian.Uint16(data))
				}
				a := numberAttr(fd.Name, v)
				if zoned {
					a.Name = fmt.Sprintf("%s_zone%d", a.Name, rep)
				}
				attrs = append(attrs, a)
				data = data[width:]
			}
		}
	}
	return attrs, nil
}

func textAttr(field string, raw []byte) Attribute {
	name, _ := normalizeField(field)
	return Attribute{
		Name:   name,
		IsText: true,
		Text:   strings.TrimRight(string(raw), "\x00"),
	}
}

func numberAttr(field string, v float64) Attribute {
	name, divisor := normalizeField(field)
	return Attribute{Name: name, Number: v / divisor}
}

// normalizeField turns a register field name into a metric-safe
// attribute name. TimesN suffixes encode fixed-point scaling on the
// wire and become a divisor instead of part of the name.
func normalizeField(field string) (string, float64) {
	divisor := 1.0
	if strings.HasSuffix(field, "Times7") {
		field = strings.TrimSuffix(field, "Times7")
		divisor = 7
	} else if strings.HasSuffix(field, "Times16") {
		field = strings.TrimSuffix(field, "Times16")
		divisor = 16
	}
	return snakeCase(field), divisor
}

// snakeCase converts CamelCase register names to snake_case, keeping
// acronym runs like RPM and CFM as single words
func snakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if r >= 'A' && r <= 'Z' {
			prevLower := i > 0 && runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			prevUpper := i > 0 && runes[i-1] >= 'A' && runes[i-1] <= 'Z'
			if prevLower || (prevUpper && nextLower) {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
