// SPDX-License-Identifier: Apache-2.0

package store

import (
	"sync"
	"testing"
	"time"

	"github.com/shbatm/finitude/pkg/infinity"
)

func msgAt(source uint16, at time.Time, attrs ...infinity.Attribute) *infinity.Message {
	return &infinity.Message{
		Source:     source,
		Dest:       0x2001,
		Func:       infinity.FuncAck06,
		Attributes: attrs,
		ReceivedAt: at,
	}
}

func num(name string, v float64) infinity.Attribute {
	return infinity.Attribute{Name: name, Number: v}
}

func TestStore_ApplyCreatesDevice(t *testing.T) {
	s := New()
	now := time.Now()

	s.Apply(msgAt(0x4101, now, num("airhandler_blower_rpm", 650)))

	if s.DeviceCount() != 1 {
		t.Fatalf("DeviceCount = %d, want 1", s.DeviceCount())
	}
	snap := s.Snapshot()
	if len(snap) != 1 || snap[0].Address != 0x4101 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	v, ok := snap[0].Attributes["airhandler_blower_rpm"]
	if !ok || v.Number != 650 {
		t.Errorf("blower_rpm = %+v", v)
	}
	if !snap[0].LastSeen.Equal(now) {
		t.Errorf("LastSeen = %v, want %v", snap[0].LastSeen, now)
	}
}

func TestStore_ApplyIsIdempotent(t *testing.T) {
	s := New()
	t0 := time.Now()
	t1 := t0.Add(time.Second)

	once := New()
	once.Apply(msgAt(0x4101, t0, num("airhandler_blower_rpm", 650), num("airhandler_state", 8)))

	s.Apply(msgAt(0x4101, t0, num("airhandler_blower_rpm", 650), num("airhandler_state", 8)))
	s.Apply(msgAt(0x4101, t1, num("airhandler_blower_rpm", 650), num("airhandler_state", 8)))

	got, want := s.Snapshot()[0], once.Snapshot()[0]
	if len(got.Attributes) != len(want.Attributes) {
		t.Fatalf("reapplying changed the attribute set: %v", got.Attributes)
	}
	for k, v := range want.Attributes {
		if got.Attributes[k].Number != v.Number {
			t.Errorf("%s = %v after reapply, want %v", k, got.Attributes[k].Number, v.Number)
		}
	}
	if !got.LastSeen.Equal(t1) {
		t.Errorf("LastSeen = %v, want the later application's %v", got.LastSeen, t1)
	}
}

func TestStore_LastWriteWins(t *testing.T) {
	s := New()
	t0 := time.Now()
	t1 := t0.Add(time.Second)

	s.Apply(msgAt(0x4101, t0, num("airhandler_blower_rpm", 650)))
	s.Apply(msgAt(0x4101, t1, num("airhandler_blower_rpm", 0)))

	snap := s.Snapshot()
	v := snap[0].Attributes["airhandler_blower_rpm"]
	if v.Number != 0 {
		t.Errorf("blower_rpm = %v, want 0", v.Number)
	}
	if !v.UpdatedAt.Equal(t1) {
		t.Errorf("UpdatedAt = %v, want %v", v.UpdatedAt, t1)
	}
	if !snap[0].LastSeen.Equal(t1) {
		t.Errorf("LastSeen = %v, want %v", snap[0].LastSeen, t1)
	}
}

func TestStore_AttributesAccumulate(t *testing.T) {
	s := New()
	now := time.Now()

	// Different registers report at different times; fields merge
	s.Apply(msgAt(0x4101, now, num("airhandler_blower_rpm", 650)))
	s.Apply(msgAt(0x4101, now.Add(time.Second), num("airhandler_state", 8)))

	snap := s.Snapshot()
	if len(snap[0].Attributes) != 2 {
		t.Fatalf("attributes = %v, want both fields", snap[0].Attributes)
	}
}

func TestStore_MessageWithoutAttributesStillMarksSeen(t *testing.T) {
	s := New()
	now := time.Now()

	s.Apply(msgAt(0x9201, now))

	snap := s.Snapshot()
	if len(snap) != 1 || len(snap[0].Attributes) != 0 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if !snap[0].LastSeen.Equal(now) {
		t.Error("LastSeen should update for attribute-free messages")
	}
}

func TestStore_SnapshotSortedByAddress(t *testing.T) {
	s := New()
	now := time.Now()
	for _, addr := range []uint16{0x5201, 0x2001, 0x4101} {
		s.Apply(msgAt(addr, now))
	}

	snap := s.Snapshot()
	want := []uint16{0x2001, 0x4101, 0x5201}
	for i, addr := range want {
		if snap[i].Address != addr {
			t.Fatalf("snapshot order %v, want %v", snap, want)
		}
	}
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	s := New()
	now := time.Now()
	s.Apply(msgAt(0x4101, now, num("airhandler_state", 8)))

	snap := s.Snapshot()
	snap[0].Attributes["airhandler_state"] = Value{Number: 99}

	fresh := s.Snapshot()
	if fresh[0].Attributes["airhandler_state"].Number != 8 {
		t.Error("mutating a snapshot leaked into the store")
	}
}

func TestStore_ConcurrentApplyAndSnapshot(t *testing.T) {
	s := New()
	var wg sync.WaitGroup

	// Each message sets both fields to the same value; a snapshot that
	// sees them disagree caught a half-merged record.
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			v := float64(i)
			s.Apply(msgAt(uint16(0x4100+i%4), time.Now(),
				num("airhandler_blower_rpm", v), num("airhandler_state", v)))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			for _, rec := range s.Snapshot() {
				rpm, okA := rec.Attributes["airhandler_blower_rpm"]
				state, okB := rec.Attributes["airhandler_state"]
				if okA != okB || (okA && rpm.Number != state.Number) {
					t.Errorf("half-merged record for %04x: rpm=%v state=%v",
						rec.Address, rpm.Number, state.Number)
					return
				}
			}
		}
	}()
	wg.Wait()

	if s.DeviceCount() != 4 {
		t.Errorf("DeviceCount = %d, want 4", s.DeviceCount())
	}
}
