// SPDX-License-Identifier: Apache-2.0

package infinity

import (
	"fmt"
	"time"
)

// Statistics tracks frame counts and error rates for the diagnostic
// commands. The serving daemon exposes the same signals as Prometheus
// counters instead.
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalFrames     uint64
	ValidFrames     uint64
	ChecksumErrors  uint64
	Desyncs         uint64
	MalformedFrames uint64
	UnknownFuncs    uint64
	UnknownRegs     uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update records one decoded frame or its decode failure
func (s *Statistics) Update(msg *Message, decodeErr error) {
	s.TotalFrames++
	s.LastUpdateTime = time.Now()

	if decodeErr != nil {
		s.MalformedFrames++
		return
	}
	if msg == nil {
		return
	}
	if FuncName(msg.Func) == "UNKNOWN" {
		s.UnknownFuncs++
	}
	if msg.Func == FuncAck06 && msg.Table == "" && msg.Register != "" {
		s.UnknownRegs++
	}
	s.ValidFrames++
}

// CalculateRates recomputes the frame and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.TotalFrames) / elapsed
		errorCount := s.ChecksumErrors + s.MalformedFrames
		s.ErrorRate = float64(errorCount) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	uptime := time.Since(s.StartTime).Round(time.Second)
	return fmt.Sprintf(
		"uptime=%s frames=%d valid=%d crc_errors=%d desyncs=%d malformed=%d unknown_funcs=%d unknown_regs=%d rate=%.1f/s",
		uptime, s.TotalFrames, s.ValidFrames, s.ChecksumErrors, s.Desyncs,
		s.MalformedFrames, s.UnknownFuncs, s.UnknownRegs, s.FrameRate)
}
