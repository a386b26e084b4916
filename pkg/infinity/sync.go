// SPDX-License-Identifier: Apache-2.0

package infinity

import (
	"encoding/binary"
	"io"
	"time"
)

// Synchronizer converts a raw byte stream into a sequence of
// checksum-validated frames. The bus has no start delimiter, so the
// synchronizer slides over the buffered bytes: at each position it
// reads the length field, waits until a full candidate is buffered,
// and accepts it only if the trailing CRC matches. On mismatch it
// advances a single byte and retries, which bounds resync cost and
// guarantees progress under corruption.
type Synchronizer struct {
	r       io.Reader
	buf     []byte
	readBuf []byte
	synced  bool

	// OnDesync is called once each time synchronization is lost after
	// having been established. May be nil.
	OnDesync func()

	// OnChecksumError is called for every candidate rejected by CRC.
	// May be nil.
	OnChecksumError func()
}

// NewSynchronizer creates a synchronizer reading from r
func NewSynchronizer(r io.Reader) *Synchronizer {
	return &Synchronizer{
		r:       r,
		buf:     make([]byte, 0, 4*MaxFrameSize),
		readBuf: make([]byte, 512),
	}
}

// Synchronized reports whether the last scan ended aligned on a valid
// frame boundary
func (s *Synchronizer) Synchronized() bool {
	return s.synced
}

// Next blocks until the next valid frame is available or the
// underlying stream fails. Read errors are returned verbatim; the
// synchronizer itself never fails on garbage bytes.
func (s *Synchronizer) Next() (*Frame, error) {
	for {
		if f := s.scan(false); f != nil {
			return f, nil
		}
		n, err := s.r.Read(s.readBuf)
		if n > 0 {
			s.buf = append(s.buf, s.readBuf[:n]...)
		}
		if err != nil {
			// Drain: a garbage candidate with a large length field may
			// be shadowing a complete frame further into the buffer.
			if f := s.scan(true); f != nil {
				return f, nil
			}
			return nil, err
		}
	}
}

// scan consumes buffered bytes until it either produces a frame or
// needs more input. With flush set, candidates that extend past the
// buffered bytes are skipped instead of waited on.
func (s *Synchronizer) scan(flush bool) *Frame {
	for len(s.buf) >= MinFrameSize {
		length := int(s.buf[offLength])
		if length > MaxPayloadSize {
			s.advance(1)
			continue
		}
		total := HeaderSize + length + ChecksumSize
		if len(s.buf) < total {
			if flush {
				s.advance(1)
				continue
			}
			// Candidate not fully buffered yet
			return nil
		}
		want := binary.LittleEndian.Uint16(s.buf[total-ChecksumSize:])
		if CalculateCRC(s.buf[:total-ChecksumSize]) != want {
			if s.OnChecksumError != nil {
				s.OnChecksumError()
			}
			s.advance(1)
			continue
		}
		frame := parseFrame(s.buf[:total], time.Now())
		s.buf = s.buf[:copy(s.buf, s.buf[total:])]
		s.synced = true
		return frame
	}
	return nil
}

// advance drops n leading bytes after a failed candidate
func (s *Synchronizer) advance(n int) {
	s.buf = s.buf[:copy(s.buf, s.buf[n:])]
	if s.synced {
		s.synced = false
		if s.OnDesync != nil {
			s.OnDesync()
		}
	}
}
