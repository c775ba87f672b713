package snapshot

import (
	"sync/atomic"
	"time"

	"github.com/tamzrod/modbusctl/internal/catalogue"
	"github.com/tamzrod/modbusctl/internal/codec"
)

// Store is exclusively mutated by the poll loop (client mode) or by the
// server request handler (server mode). Readers obtain a
// per-entry-consistent copy; no lock covers the whole snapshot.
type Store struct {
	cells      map[string]*atomic.Pointer[Entry]
	histories  map[string]*historyRing
	revision   atomic.Uint64
	historyLen int
}

// NewStore creates empty entries for every definition in the catalogue.
func NewStore(cat *catalogue.Catalogue, historyLen int) *Store {
	s := &Store{
		cells:      make(map[string]*atomic.Pointer[Entry]),
		histories:  make(map[string]*historyRing),
		historyLen: historyLen,
	}
	for _, d := range cat.Iter() {
		cell := &atomic.Pointer[Entry]{}
		cell.Store(&Entry{})
		s.cells[d.Name] = cell
		if d.Type.IsNumeric() {
			s.histories[d.Name] = newHistoryRing(historyLen)
		}
	}
	return s
}

// Update atomically swaps the entry for name, bumps the global revision,
// and appends to the per-register history ring if numeric and the value
// decoded successfully. A failed burst or decode must mark the entry
// errored rather than reuse the prior value, so the snapshot's error
// state stays truthful instead of showing silently stale data.
func (s *Store) Update(name string, v codec.Value, hasValue bool, raw []byte, err error, now time.Time) {
	cell, ok := s.cells[name]
	if !ok {
		return
	}
	rev := s.revision.Add(1)

	entry := &Entry{
		Value:     v,
		HasValue:  hasValue,
		Raw:       raw,
		Err:       err,
		Timestamp: now,
		Revision:  rev,
	}
	cell.Store(entry)

	if err == nil && hasValue {
		if ring, ok := s.histories[name]; ok {
			if f, ok := v.AsFloat(); ok {
				ring.push(HistoryPoint{At: now, Value: f})
			}
		}
	}
}

// Get returns a consistent copy of the named entry.
func (s *Store) Get(name string) (Entry, bool) {
	cell, ok := s.cells[name]
	if !ok {
		return Entry{}, false
	}
	return *cell.Load(), true
}

// GetAll returns a consistent copy of every entry, keyed by name.
func (s *Store) GetAll() map[string]Entry {
	out := make(map[string]Entry, len(s.cells))
	for name, cell := range s.cells {
		out[name] = *cell.Load()
	}
	return out
}

// History returns the numeric history ring for name, if it has one.
func (s *Store) History(name string) ([]HistoryPoint, bool) {
	ring, ok := s.histories[name]
	if !ok {
		return nil, false
	}
	return ring.snapshot(), true
}

// Revision returns the current global revision counter.
func (s *Store) Revision() uint64 {
	return s.revision.Load()
}
