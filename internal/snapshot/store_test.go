package snapshot

import (
	"errors"
	"testing"
	"time"

	"github.com/tamzrod/modbusctl/internal/catalogue"
	"github.com/tamzrod/modbusctl/internal/codec"
)

func buildStore(t *testing.T) *Store {
	t.Helper()
	defs := []*catalogue.Definition{
		{Name: "volts", SlaveID: 1, ReadCode: 4, Address: 0, Length: 2, Access: catalogue.ReadOnly, Type: codec.U32},
		{Name: "label", SlaveID: 1, ReadCode: 3, Address: 10, Length: 4, Access: catalogue.ReadOnly, Type: codec.PackedAscii},
	}
	cat, err := catalogue.Build(defs, nil)
	if err != nil {
		t.Fatalf("catalogue.Build: %v", err)
	}
	return NewStore(cat, 4)
}

func TestUpdateBumpsRevisionMonotonically(t *testing.T) {
	s := buildStore(t)
	s.Update("volts", codec.IntValue(nil), false, nil, nil, time.Now())
	r1 := s.Revision()
	s.Update("volts", codec.IntValue(nil), false, nil, nil, time.Now())
	r2 := s.Revision()
	if r2 <= r1 {
		t.Fatalf("revision did not strictly increase: %d -> %d", r1, r2)
	}
}

func TestUpdateErrorDoesNotReuseStaleValue(t *testing.T) {
	s := buildStore(t)
	now := time.Now()
	s.Update("volts", codec.IntValue(nil), true, []byte{0, 1}, nil, now)
	entry, _ := s.Get("volts")
	if !entry.HasValue {
		t.Fatalf("expected first update to carry a value")
	}

	s.Update("volts", codec.Value{}, false, nil, errors.New("boom"), now)
	entry, _ = s.Get("volts")
	if entry.HasValue {
		t.Fatalf("expected errored update to not carry a stale value")
	}
	if entry.Err == nil {
		t.Fatalf("expected error to be recorded")
	}
}

func TestHistoryRecordsNumericOnly(t *testing.T) {
	s := buildStore(t)
	now := time.Now()
	for i := 0; i < 3; i++ {
		s.Update("volts", codec.FloatValue(float64(i)), true, nil, nil, now)
	}
	points, ok := s.History("volts")
	if !ok || len(points) != 3 {
		t.Fatalf("expected 3 history points, got %d (ok=%v)", len(points), ok)
	}

	if _, ok := s.History("label"); ok {
		t.Fatalf("string register should have no history ring")
	}
}

func TestHistoryRingBounded(t *testing.T) {
	s := buildStore(t)
	now := time.Now()
	for i := 0; i < 10; i++ {
		s.Update("volts", codec.FloatValue(float64(i)), true, nil, nil, now)
	}
	points, _ := s.History("volts")
	if len(points) != 4 {
		t.Fatalf("expected ring bounded to size 4, got %d", len(points))
	}
	if points[0].Value != 6 {
		t.Fatalf("expected oldest points to be evicted, got first=%v", points[0].Value)
	}
}

func TestGetAllReturnsConsistentCopies(t *testing.T) {
	s := buildStore(t)
	s.Update("volts", codec.IntValue(nil), true, nil, nil, time.Now())
	all := s.GetAll()
	if len(all) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(all))
	}
}
