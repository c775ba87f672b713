package catalogue

import (
	"fmt"
	"sort"
)

// ContiguousRegion declares an address span on a (slave, function code)
// that is legal on the device even where no definition claims it, so the
// planner may read across unlabeled gaps without risking Illegal Data
// Address from the real device.
type ContiguousRegion struct {
	SlaveID  uint8
	ReadCode uint8
	Start    uint16
	End      uint16
}

func (r ContiguousRegion) covers(start, end uint16) bool {
	return start >= r.Start && end <= r.End
}

// Catalogue is the parsed, validated collection of register definitions,
// built once at startup and never mutated thereafter.
type Catalogue struct {
	defs    []*Definition
	byName  map[string]*Definition
	regions []ContiguousRegion
}

// Build validates every structural invariant — names, address overlaps,
// length/width agreement — in one pass and returns the immutable
// catalogue, or the first ConfigError encountered. on_update script
// compilation is a separate invariant with its own failure mode (a
// script.SyntaxError, not a ConfigError) and is checked by the caller,
// config.BuildCatalogue, before Build ever runs; Build itself takes no
// script.Engine and never touches Definition.OnUpdate beyond storing it.
func Build(defs []*Definition, regions []ContiguousRegion) (*Catalogue, error) {
	byName := make(map[string]*Definition, len(defs))
	for i, d := range defs {
		if d.Name == "" {
			return nil, configErrf("definition at index %d has no name", i)
		}
		if _, exists := byName[d.Name]; exists {
			return nil, configErrf("duplicate definition name %q", d.Name)
		}
		d.index = i
		byName[d.Name] = d

		if err := validateDefinition(d); err != nil {
			return nil, err
		}
	}

	if err := checkOverlaps(defs); err != nil {
		return nil, err
	}

	sorted := make([]*Definition, len(defs))
	copy(sorted, defs)

	return &Catalogue{defs: sorted, byName: byName, regions: regions}, nil
}

func validateDefinition(d *Definition) error {
	if uint32(d.Address)+uint32(d.Length) > 65536 {
		return configErrf("definition %q: address %d + length %d exceeds 65536", d.Name, d.Address, d.Length)
	}
	if d.SlaveID > 247 {
		return configErrf("definition %q: slave id %d exceeds 247", d.Name, d.SlaveID)
	}
	if d.ReadCode < 1 || d.ReadCode > 4 {
		return configErrf("definition %q: read_code %d out of range 1-4", d.Name, d.ReadCode)
	}
	if d.Length == 0 {
		return configErrf("definition %q: length must be positive", d.Name)
	}

	maxLen := uint16(125)
	if d.IsBitBased() {
		maxLen = 2000
	}
	if !d.Virtual && d.Length > maxLen {
		return configErrf("definition %q: length %d exceeds protocol maximum %d", d.Name, d.Length, maxLen)
	}

	if d.Type.IsNumeric() {
		width := d.Type.RegisterWidth()
		if width != 0 && int(d.Length) != width && !d.IsBitBased() {
			return configErrf("definition %q: type %s requires length %d, got %d", d.Name, d.Type, width, d.Length)
		}
	}

	return nil
}

func checkOverlaps(defs []*Definition) error {
	type span struct {
		start, end uint16
		name       string
	}
	spans := make(map[string][]span)

	for _, d := range defs {
		if d.Virtual {
			continue
		}
		key := fmt.Sprintf("%d|%d", d.SlaveID, d.ReadCode)
		start, end := d.Address, d.End()
		for _, s := range spans[key] {
			if start < s.end && end > s.start {
				return configErrf("definition %q overlaps %q on slave=%d code=%d", d.Name, s.name, d.SlaveID, d.ReadCode)
			}
		}
		spans[key] = append(spans[key], span{start: start, end: end, name: d.Name})
	}
	return nil
}

// LookupByName returns the definition with the given name.
func (c *Catalogue) LookupByName(name string) (*Definition, bool) {
	d, ok := c.byName[name]
	return d, ok
}

// Iter returns all definitions in declaration order.
func (c *Catalogue) Iter() []*Definition {
	out := make([]*Definition, len(c.defs))
	copy(out, c.defs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].index < out[j].index })
	return out
}

// Regions returns the declared contiguous regions.
func (c *Catalogue) Regions() []ContiguousRegion {
	return c.regions
}

// Overlaps reports whether the address range [addr, addr+length) on
// (slave, code) intersects any non-virtual definition in the catalogue.
func (c *Catalogue) Overlaps(slave, code uint8, addr, length uint16) bool {
	end := addr + length
	for _, d := range c.defs {
		if d.Virtual || d.SlaveID != slave || d.ReadCode != code {
			continue
		}
		if addr < d.End() && end > d.Address {
			return true
		}
	}
	return false
}

// RegionCovers reports whether some declared contiguous region on
// (slave, code) covers [start, end).
func (c *Catalogue) RegionCovers(slave, code uint8, start, end uint16) bool {
	for _, r := range c.regions {
		if r.SlaveID == slave && r.ReadCode == code && r.covers(start, end) {
			return true
		}
	}
	return false
}

// LookupAddress finds the definition owning the given address on
// (slave, code), if any.
func (c *Catalogue) LookupAddress(slave, code uint8, addr uint16) (*Definition, bool) {
	for _, d := range c.defs {
		if d.Virtual || d.SlaveID != slave || d.ReadCode != code {
			continue
		}
		if addr >= d.Address && addr < d.End() {
			return d, true
		}
	}
	return nil, false
}
