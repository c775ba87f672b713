package logging

import (
	"testing"

	"go.uber.org/zap"
)

func TestRing_BoundedSize(t *testing.T) {
	r := NewRing(2)
	r.push(Record{Message: "a"})
	r.push(Record{Message: "b"})
	r.push(Record{Message: "c"})

	got := r.Snapshot()
	if len(got) != 2 {
		t.Fatalf("expected ring capped at 2, got %d", len(got))
	}
	if got[0].Message != "b" || got[1].Message != "c" {
		t.Fatalf("expected oldest entry evicted, got %+v", got)
	}
}

func TestNew_FeedsRing(t *testing.T) {
	logger, ring := New(10)
	logger.Info("hello", zap.String("k", "v"))
	_ = logger.Sync()

	records := ring.Snapshot()
	if len(records) == 0 {
		t.Fatal("expected at least one record in the ring after logging")
	}
	if records[len(records)-1].Message != "hello" {
		t.Fatalf("expected last record message %q, got %q", "hello", records[len(records)-1].Message)
	}
}
