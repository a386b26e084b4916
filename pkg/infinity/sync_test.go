// SPDX-License-Identifier: Apache-2.0

package infinity

import (
	"bytes"
	"encoding/hex"
	"io"
	"testing"
)

// oneByteReader feeds its contents a single byte per Read call,
// exercising the buffering path the same way a slow serial port does.
type oneByteReader struct {
	data []byte
	pos  int
}

func (r *oneByteReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	p[0] = r.data[r.pos]
	r.pos++
	return 1, nil
}

func collectFrames(t *testing.T, s *Synchronizer) []*Frame {
	t.Helper()
	var frames []*Frame
	for {
		f, err := s.Next()
		if err == io.EOF {
			return frames
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		frames = append(frames, f)
	}
}

func TestSynchronizer_SingleFrame(t *testing.T) {
	raw := mustFrame(t, fixAirHandler06)
	s := NewSynchronizer(bytes.NewReader(raw))

	frames := collectFrames(t, s)
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if !bytes.Equal(frames[0].Raw(), raw) {
		t.Errorf("frame mismatch:\n got %x\nwant %x", frames[0].Raw(), raw)
	}
	if !s.Synchronized() {
		t.Error("should be synchronized after a valid frame")
	}
}

func TestSynchronizer_BackToBackFrames(t *testing.T) {
	f1 := mustFrame(t, fixAirHandler06)
	f2 := mustFrame(t, fixReadRequest)
	s := NewSynchronizer(bytes.NewReader(append(append([]byte{}, f1...), f2...)))

	frames := collectFrames(t, s)
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if !bytes.Equal(frames[0].Raw(), f1) || !bytes.Equal(frames[1].Raw(), f2) {
		t.Error("frames decoded out of order or corrupted")
	}
}

func TestSynchronizer_ByteAtATime(t *testing.T) {
	f1 := mustFrame(t, fixAirHandler06)
	stream := append(append([]byte{}, f1...), f1...)
	s := NewSynchronizer(&oneByteReader{data: stream})

	frames := collectFrames(t, s)
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
}

func TestSynchronizer_FrameSurroundedByNoise(t *testing.T) {
	raw := mustFrame(t, fixAirHandler06)
	noise := func(h string) []byte {
		b, _ := hex.DecodeString(h)
		return b
	}
	stream := append(noise("ffffffffffffffffffffffffffffffff"), raw...)
	stream = append(stream, noise("aa55aa55aa55aa55aa55aa55aa55aa55")...)

	var crcErrors int
	s := NewSynchronizer(bytes.NewReader(stream))
	s.OnChecksumError = func() { crcErrors++ }

	frames := collectFrames(t, s)
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if !bytes.Equal(frames[0].Raw(), raw) {
		t.Errorf("recovered frame mismatch: got %x", frames[0].Raw())
	}
	if crcErrors == 0 {
		t.Error("noise candidates should have been rejected by CRC")
	}
}

func TestSynchronizer_CorruptedChecksum(t *testing.T) {
	raw := mustFrame(t, fixAirHandler06)
	bad := append([]byte{}, raw...)
	bad[len(bad)-1] ^= 0xFF

	var crcErrors int
	s := NewSynchronizer(bytes.NewReader(bad))
	s.OnChecksumError = func() { crcErrors++ }

	frames := collectFrames(t, s)
	if len(frames) != 0 {
		t.Fatalf("got %d frames from corrupted input, want 0", len(frames))
	}
	if crcErrors == 0 {
		t.Error("expected at least one checksum rejection")
	}
	if s.Synchronized() {
		t.Error("should not report synchronized")
	}
}

func TestSynchronizer_ResyncAfterCorruption(t *testing.T) {
	good := mustFrame(t, fixAirHandler06)
	bad := append([]byte{}, good...)
	bad[len(bad)-1] ^= 0xFF
	stream := append(bad, good...)

	s := NewSynchronizer(bytes.NewReader(stream))
	frames := collectFrames(t, s)
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if !bytes.Equal(frames[0].Raw(), good) {
		t.Errorf("resynced frame mismatch: got %x", frames[0].Raw())
	}
}

func TestSynchronizer_DesyncFiresOncePerLoss(t *testing.T) {
	good := mustFrame(t, fixAirHandler06)
	bad := append([]byte{}, good...)
	bad[len(bad)-1] ^= 0xFF

	// good, corrupted, good: one loss of sync, regained once
	stream := append(append(append([]byte{}, good...), bad...), good...)

	var desyncs int
	s := NewSynchronizer(bytes.NewReader(stream))
	s.OnDesync = func() { desyncs++ }

	frames := collectFrames(t, s)
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if desyncs != 1 {
		t.Errorf("got %d desync events, want 1", desyncs)
	}
	if !s.Synchronized() {
		t.Error("should end synchronized")
	}
}

func TestSynchronizer_OversizedLengthField(t *testing.T) {
	// 0xFF in the length position can never form a valid candidate;
	// the scanner must skip it rather than wait for 255 payload bytes.
	stream := append(bytes.Repeat([]byte{0xFF}, MinFrameSize), mustFrame(t, fixReadRequest)...)
	s := NewSynchronizer(bytes.NewReader(stream))
	frames := collectFrames(t, s)
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
}

func TestSynchronizer_ReadError(t *testing.T) {
	s := NewSynchronizer(iotest{})
	if _, err := s.Next(); err == nil {
		t.Fatal("expected the stream error to propagate")
	}
}

type iotest struct{}

func (iotest) Read(p []byte) (int, error) { return 0, io.ErrUnexpectedEOF }
