// SPDX-License-Identifier: Apache-2.0

package infinity

// Register layouts observed on the bus. Register info largely matches
// what the Infinitive and Infinitude projects documented; unknown
// bytes are kept as padding so the known fields stay aligned.

// FieldKind identifies the wire type of a register field
type FieldKind int

const (
	FieldPad FieldKind = iota // unknown bytes, skipped
	FieldUint8
	FieldInt8
	FieldUint16 // big-endian
	FieldUTF8   // NUL-padded
	FieldName   // 12-byte NUL-padded UTF-8 zone name
)

// RepeatedPerZone marks a field that repeats once per zone (8 zones)
const RepeatedPerZone = -1

// zoneCount is fixed by the protocol
const zoneCount = 8

// FieldDef describes one field of a register table. Reps is the byte
// count for FieldPad and FieldUTF8, RepeatedPerZone for per-zone
// fields, and 1 otherwise.
type FieldDef struct {
	Reps int
	Kind FieldKind
	Name string
}

// Table names a register and its field layout
type Table struct {
	Name   string
	Fields []FieldDef
}

// Registers maps the 3-byte register key (hex-encoded) to its layout.
// Keys are table(2) + row(1), e.g. "003b02" is row 2 of table 0x3b.
var Registers = map[string]Table{
	"000102": {Name: "AddressInfo", Fields: []FieldDef{
		{1, FieldUint8, "DeviceClass"},
		{1, FieldUint8, "DeviceBus"},
		{1, FieldPad, ""},
	}},

	"000104": {Name: "DeviceInfo", Fields: []FieldDef{
		{48, FieldUTF8, "Module"},
		{16, FieldUTF8, "Firmware"},
		{20, FieldUTF8, "Model"},
		{36, FieldUTF8, "Serial"},
	}},

	// Thermostat broadcasts updated time and date every minute
	"000202": {Name: "SysTime", Fields: []FieldDef{
		{1, FieldUint8, "Hour"},
		{1, FieldUint8, "Minute"},
		{1, FieldUint8, "DayOfWeek"}, // 0 = Sunday
	}},
	"000203": {Name: "SysDate", Fields: []FieldDef{
		{1, FieldUint8, "Day"},
		{1, FieldUint8, "Month"},
		{1, FieldUint8, "Year"},
	}},

	"000306": {Name: "AirHandler06", Fields: []FieldDef{
		{1, FieldPad, ""},
		{1, FieldUint16, "BlowerRPM"},
		{6, FieldPad, ""},
		{1, FieldUint8, "State"}, // 0x00 blower off, 0x08 blower on
	}},

	"000316": {Name: "AirHandler16", Fields: []FieldDef{
		{1, FieldUint8, "State"}, // State & 0x03 != 0 when electric heat is on
		{3, FieldPad, ""},
		{1, FieldUint16, "AirflowCFM"},
	}},

	"000308": {Name: "DamperControl", Fields: []FieldDef{
		{RepeatedPerZone, FieldUint8, "DamperPosition"}, // 0 closed, 0xf full open
	}},
	"000319": {Name: "DamperState", Fields: []FieldDef{
		{RepeatedPerZone, FieldUint8, "DamperPosition"}, // 0xff for zone not present
	}},

	"00031c": {Name: "LastStatus", Fields: []FieldDef{
		{1, FieldUint8, "StatusCode"},
		{1, FieldUint8, "Severity"}, // 1 event, 2 fault, 3 malfunction
		{38, FieldUTF8, "Message"},
	}},

	"003b02": {Name: "TStatCurrentParams", Fields: []FieldDef{
		{1, FieldPad, ""}, // zone bitmap, Touch thermostats only
		{2, FieldPad, ""},
		{RepeatedPerZone, FieldUint8, "CurrentTemp"},
		{RepeatedPerZone, FieldUint8, "CurrentHumidity"},
		{1, FieldPad, ""},
		{1, FieldInt8, "OutdoorAirTemp"}, // -1 if sensor not present
		{1, FieldUint8, "ZonesUnoccupied"},
		{1, FieldUint8, "Mode"}, // high nybble stage, low nybble HvacMode
		{5, FieldPad, ""},
		{1, FieldUint8, "DisplayedZone"},
	}},

	"003b03": {Name: "TStatZoneParams", Fields: []FieldDef{
		{1, FieldPad, ""},
		{2, FieldPad, ""},
		{RepeatedPerZone, FieldUint8, "FanMode"},
		{1, FieldUint8, "ZonesHolding"},
		{RepeatedPerZone, FieldUint8, "CurrentHeatSetpoint"},
		{RepeatedPerZone, FieldUint8, "CurrentCoolSetpoint"},
		{RepeatedPerZone, FieldUint8, "CurrentHumidityTarget"},
		{1, FieldUint8, "FanAutoConfig"},
		{1, FieldPad, ""},
		{RepeatedPerZone, FieldUint16, "HoldDuration"},
		{RepeatedPerZone, FieldName, "Name"},
	}},

	"003b04": {Name: "TStatVacationParams", Fields: []FieldDef{
		{1, FieldUint8, "Active"},
		{1, FieldUint16, "Hours"},
		{1, FieldUint8, "MinTemp"},
		{1, FieldUint8, "MaxTemp"},
		{1, FieldUint8, "MinHumidity"},
		{1, FieldUint8, "MaxHumidity"},
		{1, FieldUint8, "FanMode"},
	}},

	"00060e": {Name: "HeatPump0e", Fields: []FieldDef{
		{1, FieldUint8, "CompressorStage"},
	}},

	"003e01": {Name: "LegacyHeatPumpTemperatures", Fields: []FieldDef{
		{1, FieldUint16, "OutsideTempTimes16"},
		{1, FieldUint16, "CoilTempTimes16"},
	}},

	"003e02": {Name: "LegacyHeatPumpStage", Fields: []FieldDef{
		// Shift right one bit for the stage number
		{1, FieldUint8, "StageShift1"},
	}},
}

// tableNameMap maps a register table name to the metric family prefix
// it exports under. An empty value means attributes export with no
// table prefix; absent tables use a snake_cased form of their name.
var tableNameMap = map[string]string{
	"AirHandler06":               "airhandler",
	"AirHandler16":               "airhandler",
	"TStatCurrentParams":         "",
	"TStatZoneParams":            "",
	"TStatVacationParams":        "vacation",
	"HeatPump0e":                 "heatpump",
	"LegacyHeatPumpTemperatures": "heatpump",
	"LegacyHeatPumpStage":        "heatpump",
}

// TablePrefix returns the exported metric prefix for a register table
func TablePrefix(table string) string {
	if p, ok := tableNameMap[table]; ok {
		return p
	}
	return snakeCase(table)
}
