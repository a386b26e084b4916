// SPDX-License-Identifier: Apache-2.0

package infinity

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Frame represents one validated bus frame
type Frame struct {
	dest      uint16
	source    uint16
	function  uint8
	payload   []byte
	checksum  uint16
	raw       []byte
	timestamp time.Time
}

// parseFrame builds a Frame from a full checksum-validated byte range.
// The caller guarantees buf holds exactly one frame.
func parseFrame(buf []byte, at time.Time) *Frame {
	raw := make([]byte, len(buf))
	copy(raw, buf)
	return &Frame{
		dest:      binary.BigEndian.Uint16(raw[offDest:]),
		source:    binary.BigEndian.Uint16(raw[offSource:]),
		function:  raw[offFunc],
		payload:   raw[HeaderSize : len(raw)-ChecksumSize],
		checksum:  binary.LittleEndian.Uint16(raw[len(raw)-ChecksumSize:]),
		raw:       raw,
		timestamp: at,
	}
}

// NewFrame constructs a frame from its fields and computes the
// checksum. Used by tests and the capture replay path.
func NewFrame(dest, source uint16, function uint8, payload []byte) *Frame {
	raw := make([]byte, HeaderSize+len(payload)+ChecksumSize)
	binary.BigEndian.PutUint16(raw[offDest:], dest)
	binary.BigEndian.PutUint16(raw[offSource:], source)
	raw[offLength] = byte(len(payload))
	raw[offFunc] = function
	copy(raw[HeaderSize:], payload)
	crc := CalculateCRC(raw[:HeaderSize+len(payload)])
	binary.LittleEndian.PutUint16(raw[HeaderSize+len(payload):], crc)
	return parseFrame(raw, time.Now())
}

// Dest returns the destination bus address
func (f *Frame) Dest() uint16 {
	return f.dest
}

// Source returns the source bus address
func (f *Frame) Source() uint16 {
	return f.source
}

// Func returns the frame's function code
func (f *Frame) Func() uint8 {
	return f.function
}

// Length returns the payload length in bytes
func (f *Frame) Length() int {
	return len(f.payload)
}

// Payload returns the frame's payload bytes
func (f *Frame) Payload() []byte {
	return f.payload
}

// Checksum returns the frame's trailing CRC value
func (f *Frame) Checksum() uint16 {
	return f.checksum
}

// Raw returns the full frame bytes including header and checksum
func (f *Frame) Raw() []byte {
	return f.raw
}

// Timestamp returns the frame's receive timestamp
func (f *Frame) Timestamp() time.Time {
	return f.timestamp
}

// AddressString formats a bus address the way installers see it,
// e.g. 0x2001 -> "2001"
func AddressString(addr uint16) string {
	return fmt.Sprintf("%04x", addr)
}

// DeviceClassName returns the well-known name for an address's device
// class, or "unknown"
func DeviceClassName(addr uint16) string {
	switch byte(addr >> 8) {
	case ClassBootstrap:
		return "bootstrap"
	case ClassThermostat:
		return "thermostat"
	case ClassAirHandler:
		return "airhandler"
	case ClassHeatPump:
		return "heatpump"
	case ClassDamperControl:
		return "damper"
	case ClassFurnace:
		return "furnace"
	case ClassSAM:
		return "sam"
	default:
		return "unknown"
	}
}

// HvacModeName returns the name of an HvacMode value (the low nybble
// of TStatCurrentParams.Mode)
func HvacModeName(mode uint8) string {
	switch mode {
	case ModeHeat:
		return "heat"
	case ModeCool:
		return "cool"
	case ModeAuto:
		return "auto"
	case ModeElectric:
		return "electric"
	case ModeHeatPump:
		return "heatpump"
	case ModeOff:
		return "off"
	default:
		return "unknown"
	}
}

// FanModeName returns the name of a FanMode value
func FanModeName(mode uint8) string {
	switch mode {
	case FanAuto:
		return "auto"
	case FanLow:
		return "low"
	case FanMedium:
		return "medium"
	case FanHigh:
		return "high"
	default:
		return "unknown"
	}
}

// FuncName returns the human-readable name for a function code
func FuncName(function uint8) string {
	switch function {
	case FuncAck02:
		return "ACK02"
	case FuncAck06:
		return "ACK06"
	case FuncRead:
		return "READ"
	case FuncWrite:
		return "WRITE"
	case FuncNack:
		return "NACK"
	default:
		return "UNKNOWN"
	}
}
