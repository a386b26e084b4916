// SPDX-License-Identifier: Apache-2.0

package infinity

import (
	"fmt"
	"strings"
)

// FormatFrame formats a frame header into a human-readable line
func FormatFrame(f *Frame) string {
	return fmt.Sprintf("[%s] %s->%s %s (0x%02X) len=%d",
		f.Timestamp().Format("15:04:05.000"),
		AddressString(f.Source()), AddressString(f.Dest()),
		FuncName(f.Func()), f.Func(), f.Length())
}

// FormatMessage formats a decoded message, one attribute per line
func FormatMessage(f *Frame, msg *Message) string {
	var b strings.Builder
	b.WriteString(FormatFrame(f))
	b.WriteByte('\n')

	if msg.Register != "" {
		name := msg.Table
		if name == "" {
			name = "unknown register"
		}
		fmt.Fprintf(&b, "  %s (%s)\n", name, msg.Register)
	}

	for _, a := range msg.Attributes {
		if a.IsText {
			if a.Text != "" {
				fmt.Fprintf(&b, "  %s: %q\n", a.Name, a.Text)
			}
			continue
		}
		if note := attrNote(a.Name, a.Number); note != "" {
			fmt.Fprintf(&b, "  %s: %v (%s)\n", a.Name, a.Number, note)
			continue
		}
		fmt.Fprintf(&b, "  %s: %v\n", a.Name, a.Number)
	}

	if msg.Register == "" && len(msg.Attributes) == 0 && f.Length() > 0 {
		b.WriteString(hexDump(f.Payload()))
	}
	return b.String()
}

// attrNote decodes mode-carrying attributes into their named values.
// TStatCurrentParams.Mode packs the stage number in the high nybble
// and the HvacMode in the low nybble.
func attrNote(name string, v float64) string {
	switch {
	case name == "mode":
		m := uint8(v)
		return fmt.Sprintf("%s, stage %d", HvacModeName(m&0x0F), m>>4)
	case strings.Contains(name, "fan_mode"):
		return FanModeName(uint8(v))
	}
	return ""
}

// hexDump renders payload bytes 16 per line, matching the raw_log
// output of the analyzer
func hexDump(payload []byte) string {
	var b strings.Builder
	b.WriteString("  payload:")
	for i, by := range payload {
		if i > 0 && i%16 == 0 {
			b.WriteString("\n          ")
		}
		fmt.Fprintf(&b, " %02X", by)
	}
	b.WriteByte('\n')
	return b.String()
}
