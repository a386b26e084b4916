// SPDX-License-Identifier: Apache-2.0

// Package infinity implements the framing and register layer of the
// Carrier Infinity / Bryant Evolution RS-485 bus (the "ABCD" bus).
//
// Frames carry a 2-byte destination, 2-byte source, payload length,
// two reserved bytes, a function code, the payload, and a trailing
// CRC-16 appended LSB first. This package provides frame
// synchronization over a raw byte stream, CRC validation, register
// table decoding, and capture/replay of validated frames.
package infinity

// Frame geometry. Header is dest(2) + source(2) + length(1) +
// reserved(2) + function(1); the checksum trails the payload.
const (
	HeaderSize   = 8
	ChecksumSize = 2
	MinFrameSize = HeaderSize + ChecksumSize

	// Offsets within the header
	offDest   = 0
	offSource = 2
	offLength = 4
	offFunc   = 7

	MaxPayloadSize = 240
	MaxFrameSize   = HeaderSize + MaxPayloadSize + ChecksumSize
)

// CRC-16/ARC configuration (poly 0x8005, bit-reflected)
const (
	crcPolynomial = 0xA001
	crcInitial    = 0x0000
)

// Function codes
const (
	FuncAck02 = 0x02
	FuncAck06 = 0x06
	FuncRead  = 0x0B
	FuncWrite = 0x0C
	FuncNack  = 0x15
)

// Device classes (high byte of a bus address)
const (
	ClassBootstrap     = 0x1F
	ClassThermostat    = 0x20
	ClassAirHandler    = 0x40
	ClassHeatPump      = 0x52
	ClassDamperControl = 0x60
	ClassFurnace       = 0x80
	ClassSAM           = 0x92
)

// Serial parameters of the bus. Fixed by the protocol, not configurable
// on real equipment.
const (
	DefaultBaudRate = 38400
)

// FanMode values in TStatZoneParams
const (
	FanAuto = iota
	FanLow
	FanMedium
	FanHigh
)

// HvacMode values in the low nybble of TStatCurrentParams.Mode; the
// high nybble is the stage number.
const (
	ModeHeat = iota
	ModeCool
	ModeAuto
	ModeElectric
	ModeHeatPump
	ModeOff
)
