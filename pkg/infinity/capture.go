// SPDX-License-Identifier: Apache-2.0

package infinity

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Bus captures are a CBOR stream of capturedFrame records, one per
// validated frame. Replaying a capture feeds the raw frame bytes back
// through the synchronizer so the whole pipeline downstream of the
// serial port can run against recorded traffic.

type capturedFrame struct {
	At  time.Time `cbor:"1,keyasint"`
	Raw []byte    `cbor:"2,keyasint"`
}

// CaptureWriter appends validated frames to a capture stream
type CaptureWriter struct {
	enc *cbor.Encoder
}

// NewCaptureWriter creates a capture writer on w
func NewCaptureWriter(w io.Writer) *CaptureWriter {
	return &CaptureWriter{enc: cbor.NewEncoder(w)}
}

// WriteFrame appends one frame to the capture
func (c *CaptureWriter) WriteFrame(f *Frame) error {
	return c.enc.Encode(capturedFrame{At: f.Timestamp(), Raw: f.Raw()})
}

// CaptureReader replays a capture stream as raw bus bytes. It
// implements io.Reader so it can stand in for a serial port.
type CaptureReader struct {
	dec     *cbor.Decoder
	pending []byte
}

// NewCaptureReader creates a reader replaying the capture stream r
func NewCaptureReader(r io.Reader) *CaptureReader {
	return &CaptureReader{dec: cbor.NewDecoder(r)}
}

// Read returns the next chunk of recorded frame bytes, io.EOF at the
// end of the capture
func (c *CaptureReader) Read(p []byte) (int, error) {
	if len(c.pending) == 0 {
		var rec capturedFrame
		if err := c.dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return 0, io.EOF
			}
			return 0, fmt.Errorf("capture stream: %w", err)
		}
		c.pending = rec.Raw
	}
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}
