// Package planner turns a catalogue into a minimal ordered list of
// Modbus read bursts.
package planner

import (
	"sort"

	"github.com/tamzrod/modbusctl/internal/catalogue"
)

// BurstEntry is one definition satisfied by a Burst, with its starting
// offset inside the burst's payload.
type BurstEntry struct {
	Def    *catalogue.Definition
	Offset uint16
}

// Burst is the planner's atomic unit of work: one Modbus read request.
type Burst struct {
	SlaveID  uint8
	ReadCode uint8
	Address  uint16
	Quantity uint16
	Entries  []BurstEntry
}

func quantityCap(code uint8) uint16 {
	if code == 1 || code == 2 {
		return 2000
	}
	return 125
}

type partitionKey struct {
	slave uint8
	code  uint8
}

// Plan builds the ordered read program: one partition pass per
// (slave, function code), greedily merging adjacent/contiguous-covered
// definitions left to right, then emits the bursts in slave-then-address
// order (bursts of different function codes at the same address keep
// function-code order).
func Plan(cat *catalogue.Catalogue) []Burst {
	partitions := make(map[partitionKey][]*catalogue.Definition)
	var keys []partitionKey

	for _, d := range cat.Iter() {
		if !d.Readable() {
			continue
		}
		key := partitionKey{slave: d.SlaveID, code: d.ReadCode}
		if _, seen := partitions[key]; !seen {
			keys = append(keys, key)
		}
		partitions[key] = append(partitions[key], d)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].slave != keys[j].slave {
			return keys[i].slave < keys[j].slave
		}
		return keys[i].code < keys[j].code
	})

	var bursts []Burst
	for _, key := range keys {
		defs := partitions[key]
		sort.Slice(defs, func(i, j int) bool { return defs[i].Address < defs[j].Address })
		bursts = append(bursts, planPartition(key, defs, cat)...)
	}
	sort.SliceStable(bursts, func(i, j int) bool {
		if bursts[i].SlaveID != bursts[j].SlaveID {
			return bursts[i].SlaveID < bursts[j].SlaveID
		}
		return bursts[i].Address < bursts[j].Address
	})
	return bursts
}

func planPartition(key partitionKey, defs []*catalogue.Definition, cat *catalogue.Catalogue) []Burst {
	var out []Burst
	capQty := quantityCap(key.code)

	var cur *Burst
	for _, d := range defs {
		if cur != nil {
			gap := d.Address - cur.Address - cur.Quantity
			extended := d.End() - cur.Address
			fits := extended <= capQty
			contiguous := gap == 0 || (gap > 0 && cat.RegionCovers(key.slave, key.code, cur.Address+cur.Quantity, d.Address))

			if fits && contiguous {
				cur.Entries = append(cur.Entries, BurstEntry{Def: d, Offset: d.Address - cur.Address})
				cur.Quantity = d.End() - cur.Address
				continue
			}
			out = append(out, *cur)
			cur = nil
		}
		cur = &Burst{
			SlaveID:  key.slave,
			ReadCode: key.code,
			Address:  d.Address,
			Quantity: d.Length,
			Entries:  []BurstEntry{{Def: d, Offset: 0}},
		}
	}
	if cur != nil {
		out = append(out, *cur)
	}
	return out
}
