package poll

import (
	"fmt"
	"sync"

	"github.com/tamzrod/modbusctl/internal/catalogue"
	"github.com/tamzrod/modbusctl/internal/codec"
	"github.com/tamzrod/modbusctl/internal/snapshot"
)

// pendingWrite is a write the script engine scheduled via C_Register.Set,
// held until the next poll boundary and then dispatched as a real burst.
type pendingWrite struct {
	def  *catalogue.Definition
	data []byte // fc 6/16 payload
	bit  bool   // fc 5 single-coil value
}

// scriptHost adapts the snapshot store and catalogue to the script.Host
// binding contract. Get* reads the live snapshot; Set enforces
// CheckWritable and queues the write rather than performing it inline,
// since the loop owns the transport and must serialize requests.
type scriptHost struct {
	cat   *catalogue.Catalogue
	store *snapshot.Store

	mu      sync.Mutex
	pending map[string]pendingWrite
}

func newScriptHost(cat *catalogue.Catalogue, store *snapshot.Store) *scriptHost {
	return &scriptHost{cat: cat, store: store, pending: make(map[string]pendingWrite)}
}

func (h *scriptHost) GetString(name string) (string, bool) {
	e, ok := h.store.Get(name)
	if !ok || !e.HasValue {
		return "", false
	}
	return e.Value.AsString(), true
}

func (h *scriptHost) GetInt(name string) (int64, bool) {
	e, ok := h.store.Get(name)
	if !ok || !e.HasValue {
		return 0, false
	}
	bi, ok := e.Value.AsInt()
	if !ok || bi == nil {
		return 0, false
	}
	return bi.Int64(), true
}

func (h *scriptHost) GetFloat(name string) (float64, bool) {
	e, ok := h.store.Get(name)
	if !ok || !e.HasValue {
		return 0, false
	}
	return e.Value.AsFloat()
}

func (h *scriptHost) GetBool(name string) (bool, bool) {
	e, ok := h.store.Get(name)
	if !ok || !e.HasValue {
		return false, false
	}
	return e.Value.AsBool()
}

func (h *scriptHost) Set(name, value string) error {
	d, ok := h.cat.LookupByName(name)
	if !ok {
		return fmt.Errorf("poll: script set: unknown register %q", name)
	}
	if err := d.CheckWritable(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if d.IsBitBased() {
		bit, ok := codec.StringValue(value).AsBool()
		if !ok {
			return fmt.Errorf("poll: script set %q: %q is not a valid bit value", name, value)
		}
		h.pending[name] = pendingWrite{def: d, bit: bit}
		return nil
	}

	regs, err := codec.Encode(d.Type, codec.StringValue(value), int(d.Length), d.Reverse)
	if err != nil {
		return fmt.Errorf("poll: script set %q: %w", name, err)
	}
	h.pending[name] = pendingWrite{def: d, data: regsToBytes(regs)}
	return nil
}

// drain returns every queued write and clears the queue. Called by the
// loop at the top of each polling cycle, before the read program runs.
func (h *scriptHost) drain() []pendingWrite {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.pending) == 0 {
		return nil
	}
	out := make([]pendingWrite, 0, len(h.pending))
	for _, w := range h.pending {
		out = append(out, w)
	}
	h.pending = make(map[string]pendingWrite)
	return out
}

func regsToBytes(regs []uint16) []byte {
	b := make([]byte, len(regs)*2)
	for i, r := range regs {
		b[i*2] = byte(r >> 8)
		b[i*2+1] = byte(r)
	}
	return b
}
