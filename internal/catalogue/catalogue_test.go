package catalogue

import (
	"testing"

	"github.com/tamzrod/modbusctl/internal/codec"
)

func def(name string, slave, code uint8, addr, length uint16, typ codec.Type) *Definition {
	return &Definition{
		Name:     name,
		SlaveID:  slave,
		ReadCode: code,
		Address:  addr,
		Length:   length,
		Access:   ReadWrite,
		Type:     typ,
	}
}

func TestBuild_NoOverlapDifferentSlave(t *testing.T) {
	defs := []*Definition{
		def("a", 1, 4, 0, 4, codec.U64),
		def("b", 2, 4, 0, 4, codec.U64),
	}
	if _, err := Build(defs, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBuild_TouchingRangesAllowed(t *testing.T) {
	defs := []*Definition{
		def("a", 1, 4, 0, 10, codec.PackedAscii),
		def("b", 1, 4, 10, 10, codec.PackedAscii),
	}
	if _, err := Build(defs, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBuild_OverlapDetected(t *testing.T) {
	defs := []*Definition{
		def("a", 1, 4, 0, 10, codec.PackedAscii),
		def("b", 1, 4, 5, 10, codec.PackedAscii),
	}
	if _, err := Build(defs, nil); err == nil {
		t.Fatalf("expected overlap error, got nil")
	}
}

func TestBuild_VirtualNeverOverlapChecked(t *testing.T) {
	a := def("a", 1, 4, 0, 10, codec.PackedAscii)
	b := def("b", 1, 4, 5, 10, codec.PackedAscii)
	b.Virtual = true
	if _, err := Build([]*Definition{a, b}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBuild_AddressLengthBound(t *testing.T) {
	defs := []*Definition{def("a", 1, 4, 65530, 10, codec.PackedAscii)}
	if _, err := Build(defs, nil); err == nil {
		t.Fatalf("expected bound error, got nil")
	}
}

func TestBuild_NumericWidthMismatch(t *testing.T) {
	defs := []*Definition{def("a", 1, 4, 0, 1, codec.U32)}
	if _, err := Build(defs, nil); err == nil {
		t.Fatalf("expected width-mismatch error, got nil")
	}
}

func TestLookupByName(t *testing.T) {
	defs := []*Definition{def("a", 1, 4, 0, 2, codec.U32)}
	cat, err := Build(defs, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d, ok := cat.LookupByName("a")
	if !ok || d.Name != "a" {
		t.Fatalf("lookup failed")
	}
	if _, ok := cat.LookupByName("missing"); ok {
		t.Fatalf("expected missing lookup to fail")
	}
}

func TestRegionCovers(t *testing.T) {
	regions := []ContiguousRegion{{SlaveID: 1, ReadCode: 4, Start: 0x4000, End: 0x400A}}
	defs := []*Definition{def("a", 1, 4, 0x4000, 4, codec.U64)}
	cat, err := Build(defs, regions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cat.RegionCovers(1, 4, 0x4000, 0x400A) {
		t.Fatalf("expected region to cover requested span")
	}
	if cat.RegionCovers(1, 4, 0x3000, 0x3010) {
		t.Fatalf("region should not cover unrelated span")
	}
}

func TestCheckWritable(t *testing.T) {
	d := def("a", 1, 4, 0, 2, codec.U32)
	d.Access = ReadOnly
	if err := d.CheckWritable(); err == nil {
		t.Fatalf("expected ReadOnly write to be rejected")
	}
	d.Access = ReadWrite
	if err := d.CheckWritable(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
