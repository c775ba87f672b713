package server

import (
	"github.com/tamzrod/modbusctl/internal/catalogue"
	"github.com/tamzrod/modbusctl/internal/codec"
	"github.com/tamzrod/modbusctl/internal/snapshot"
)

// SeedStore populates every definition's snapshot entry with its
// configured initial value (the first preset, if any) before the
// server starts accepting connections, so a client's first read
// reflects the catalogue rather than zeroed memory.
func SeedStore(cat *catalogue.Catalogue, store *snapshot.Store) {
	for _, d := range cat.Iter() {
		seedOne(d, store)
	}
}

func seedOne(d *catalogue.Definition, store *snapshot.Store) {
	initial := "0"
	if d.Type.IsString() {
		initial = ""
	}
	if d.IsBitBased() {
		initial = "false"
	}
	if len(d.Values) > 0 {
		initial = d.Values[0].Value
	}

	now := clockNow()

	if d.IsBitBased() {
		bit, _ := codec.StringValue(initial).AsBool()
		store.Update(d.Name, codec.IntValue(boolBigInt(bit)), true, []byte{boolRegByte(bit)}, nil, now)
		return
	}

	v := codec.StringValue(initial)
	regs, err := codec.Encode(d.Type, v, int(d.Length), d.Reverse)
	if err != nil {
		store.Update(d.Name, codec.Value{}, false, nil, err, now)
		return
	}
	decoded, err := codec.Decode(d.Type, regs, d.Reverse)
	store.Update(d.Name, decoded, err == nil, regsToBytesBE(regs), err, now)
}

func regsToBytesBE(regs []uint16) []byte {
	b := make([]byte, len(regs)*2)
	for i, r := range regs {
		b[i*2] = byte(r >> 8)
		b[i*2+1] = byte(r)
	}
	return b
}
