// SPDX-License-Identifier: Apache-2.0

// Package store keeps the last-known state of every device observed on
// the bus. A single mutex guards both updates and snapshots: the
// ingestion pipeline is the only writer, scrapes are readers, and a
// scrape can never observe a half-merged record.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/shbatm/finitude/pkg/infinity"
)

// Value is one attribute's current state
type Value struct {
	IsText    bool
	Number    float64
	Text      string
	UpdatedAt time.Time
}

// Record is the exported snapshot of one device. Attribute maps in a
// Record are copies owned by the caller.
type Record struct {
	Address    uint16
	LastSeen   time.Time
	Attributes map[string]Value
}

// Store owns all device records. Records are created on first sight
// of an address and never deleted; staleness shows through LastSeen.
type Store struct {
	mu      sync.RWMutex
	devices map[uint16]*Record
}

// New creates an empty store
func New() *Store {
	return &Store{devices: make(map[uint16]*Record)}
}

// Apply merges a decoded message into the record for its source
// address. Fields are last-write-wins; LastSeen never moves backward
// as long as messages arrive in receipt order.
func (s *Store) Apply(msg *infinity.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.devices[msg.Source]
	if !ok {
		rec = &Record{
			Address:    msg.Source,
			Attributes: make(map[string]Value),
		}
		s.devices[msg.Source] = rec
	}
	rec.LastSeen = msg.ReceivedAt
	for _, a := range msg.Attributes {
		rec.Attributes[a.Name] = Value{
			IsText:    a.IsText,
			Number:    a.Number,
			Text:      a.Text,
			UpdatedAt: msg.ReceivedAt,
		}
	}
}

// Snapshot returns a consistent point-in-time copy of every record,
// ordered by address
func (s *Store) Snapshot() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.devices))
	for _, rec := range s.devices {
		cp := Record{
			Address:    rec.Address,
			LastSeen:   rec.LastSeen,
			Attributes: make(map[string]Value, len(rec.Attributes)),
		}
		for k, v := range rec.Attributes {
			cp.Attributes[k] = v
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// DeviceCount returns the number of distinct addresses seen
func (s *Store) DeviceCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.devices)
}
