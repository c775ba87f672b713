// Package snapshot holds the current decoded value of every catalogued
// register, a monotonically increasing revision counter, per-register
// timestamps, and a bounded history ring for numeric trends.
package snapshot

import (
	"time"

	"github.com/tamzrod/modbusctl/internal/codec"
)

// Entry is the immutable, independently publishable state of one
// register at a point in time. A writer never mutates an Entry in
// place; it builds a new one and atomically swaps the pointer.
type Entry struct {
	Value     codec.Value
	HasValue  bool
	Raw       []byte
	Err       error
	Timestamp time.Time
	Revision  uint64
}
