// Package catalogue holds the parsed, validated collection of register
// definitions and contiguous-memory hints, and answers lookups by name
// and by (slave, function, address).
package catalogue

import "github.com/tamzrod/modbusctl/internal/codec"

// AccessMode controls whether a definition may be read, written, or both.
type AccessMode int

const (
	ReadOnly AccessMode = iota
	WriteOnly
	ReadWrite
)

func (a AccessMode) String() string {
	switch a {
	case ReadOnly:
		return "ReadOnly"
	case WriteOnly:
		return "WriteOnly"
	case ReadWrite:
		return "ReadWrite"
	default:
		return "Unknown"
	}
}

// PresetValue is one entry of a definition's optional value enumeration:
// either a bare value or a {name, value} pair.
type PresetValue struct {
	Name  string // empty for a bare value
	Value string
}

// Definition is immutable after the catalogue is built.
type Definition struct {
	Name     string
	SlaveID  uint8
	ReadCode uint8 // 1=coils 2=discrete inputs 3=holding 4=input
	Address  uint16
	Length   uint16 // in 16-bit registers (or bits for fc 1/2)
	Access   AccessMode
	Type     codec.Type
	Reverse  bool
	Values   []PresetValue
	OnUpdate string
	Virtual  bool

	// index records declaration order; scripts and snapshot iteration use
	// it so behavior is deterministic independent of map ordering.
	index int
}

// Index returns the definition's declaration order within its catalogue.
func (d *Definition) Index() int { return d.index }

// Readable reports whether the definition ever appears in a read burst.
func (d *Definition) Readable() bool {
	return !d.Virtual && d.Access != WriteOnly
}

// Writable reports whether writes to this definition are permitted.
func (d *Definition) Writable() bool {
	return d.Access == WriteOnly || d.Access == ReadWrite
}

// CheckWritable is the single choke point through which every write path
// (script binding, and any future UI edit path) must pass before mutating
// a register. It keeps "ReadOnly" meaning the same thing everywhere.
func (d *Definition) CheckWritable() error {
	if !d.Writable() {
		return &AccessError{Name: d.Name, Access: d.Access}
	}
	return nil
}

// IsBitBased reports whether the definition's read function code addresses
// individual bits (coils/discrete inputs) rather than 16-bit registers.
func (d *Definition) IsBitBased() bool {
	return d.ReadCode == 1 || d.ReadCode == 2
}

// End returns the address one past the last address/bit the definition
// occupies.
func (d *Definition) End() uint16 {
	return d.Address + d.Length
}
