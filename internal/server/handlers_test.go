package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbrandon/mbserver"

	"github.com/tamzrod/modbusctl/internal/catalogue"
	"github.com/tamzrod/modbusctl/internal/codec"
	"github.com/tamzrod/modbusctl/internal/snapshot"
)

// fakeFramer is a hand-rolled stand-in for mbserver.Framer, since the real
// type can only be exercised by the actual TCP/RTU wire path.
type fakeFramer struct {
	slave uint8
	fn    uint8
	data  []byte
}

func (f *fakeFramer) GetAddress() uint8    { return f.slave }
func (f *fakeFramer) GetFunction() uint8   { return f.fn }
func (f *fakeFramer) GetData() []byte      { return f.data }
func (f *fakeFramer) SetData(b []byte)     { f.data = b }
func (f *fakeFramer) SetException(*mbserver.Exception) {}
func (f *fakeFramer) Bytes() []byte        { return f.data }
func (f *fakeFramer) Copy() mbserver.Framer {
	cp := *f
	return &cp
}

func beU16(v uint16) []byte { return []byte{byte(v >> 8), byte(v)} }

func newTestCatalogue(t *testing.T) *catalogue.Catalogue {
	t.Helper()
	defs := []*catalogue.Definition{
		{Name: "holding_a", SlaveID: 1, ReadCode: 3, Address: 100, Length: 1, Access: catalogue.ReadWrite, Type: codec.U16},
		{Name: "holding_ro", SlaveID: 1, ReadCode: 3, Address: 101, Length: 1, Access: catalogue.ReadOnly, Type: codec.U16},
		{Name: "coil_a", SlaveID: 1, ReadCode: 1, Address: 0, Length: 1, Access: catalogue.ReadWrite, Type: codec.U8},
	}
	cat, err := catalogue.Build(defs, nil)
	require.NoError(t, err)
	return cat
}

func TestServer_ReadRegisters_UncoveredAddress(t *testing.T) {
	cat := newTestCatalogue(t)
	store := snapshot.NewStore(cat, 1)
	SeedStore(cat, store)
	s := New(cat, store, FaultConfig{}, nil)

	data := append(beU16(500), beU16(1)...)
	frame := &fakeFramer{slave: 1, fn: 3, data: data}

	_, exc := s.handleReadRegisters(nil, frame)
	assert.Equal(t, &mbserver.IllegalDataAddress, exc)
}

func TestServer_ReadRegisters_ReturnsSeededValue(t *testing.T) {
	cat := newTestCatalogue(t)
	store := snapshot.NewStore(cat, 1)
	SeedStore(cat, store)
	s := New(cat, store, FaultConfig{}, nil)

	data := append(beU16(100), beU16(1)...)
	frame := &fakeFramer{slave: 1, fn: 3, data: data}

	out, exc := s.handleReadRegisters(nil, frame)
	require.Equal(t, &mbserver.Success, exc)
	require.Len(t, out, 3)
	assert.Equal(t, byte(2), out[0])
}

func TestServer_WriteMultipleRegisters_PartialSpanMismatch(t *testing.T) {
	cat := newTestCatalogue(t)
	store := snapshot.NewStore(cat, 1)
	SeedStore(cat, store)
	s := New(cat, store, FaultConfig{}, nil)

	// address 100 is a length-1 def; ask to write length 2 via multi-write.
	data := append(append(beU16(100), beU16(2)...), byte(4), 0, 1, 0, 2)
	frame := &fakeFramer{slave: 1, fn: 16, data: data}

	_, exc := s.handleWriteMultipleRegisters(nil, frame)
	assert.Equal(t, &mbserver.IllegalDataValue, exc)
}

func TestServer_WriteSingleRegister_ReadOnlyRejected(t *testing.T) {
	cat := newTestCatalogue(t)
	store := snapshot.NewStore(cat, 1)
	SeedStore(cat, store)
	s := New(cat, store, FaultConfig{}, nil)

	data := append(beU16(101), beU16(7)...)
	frame := &fakeFramer{slave: 1, fn: 6, data: data}

	_, exc := s.handleWriteSingleRegister(nil, frame)
	assert.Equal(t, &mbserver.IllegalDataAddress, exc)
}

func TestServer_WriteSingleRegister_UpdatesStore(t *testing.T) {
	cat := newTestCatalogue(t)
	store := snapshot.NewStore(cat, 1)
	SeedStore(cat, store)
	s := New(cat, store, FaultConfig{}, nil)

	data := append(beU16(100), beU16(42)...)
	frame := &fakeFramer{slave: 1, fn: 6, data: data}

	_, exc := s.handleWriteSingleRegister(nil, frame)
	require.Equal(t, &mbserver.Success, exc)

	entry, ok := store.Get("holding_a")
	require.True(t, ok)
	n, ok := entry.Value.AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(42), n.Int64())
}

func TestServer_WriteSingleCoil_RoundTrips(t *testing.T) {
	cat := newTestCatalogue(t)
	store := snapshot.NewStore(cat, 1)
	SeedStore(cat, store)
	s := New(cat, store, FaultConfig{}, nil)

	data := append(beU16(0), 0xFF, 0x00)
	frame := &fakeFramer{slave: 1, fn: 5, data: data}

	_, exc := s.handleWriteSingleCoil(nil, frame)
	require.Equal(t, &mbserver.Success, exc)

	entry, ok := store.Get("coil_a")
	require.True(t, ok)
	b, _ := entry.Value.AsBool()
	assert.True(t, b)
}
