package config

import (
	"fmt"
	"sort"

	"github.com/tamzrod/modbusctl/internal/catalogue"
	"github.com/tamzrod/modbusctl/internal/codec"
	"github.com/tamzrod/modbusctl/internal/script"
)

// BuildCatalogue converts the validated, normalized config into a
// catalogue.Catalogue, compiling every on_update script along the way
// via engine (spec: scripts must compile before the poll loop starts).
// Returns the compiled programs keyed by definition name.
func BuildCatalogue(cfg *Config, engine *script.Engine) (*catalogue.Catalogue, map[string]*script.Program, error) {
	names := make([]string, 0, len(cfg.Definitions))
	for name := range cfg.Definitions {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]*catalogue.Definition, 0, len(names))
	programs := make(map[string]*script.Program)

	for _, name := range names {
		dc := cfg.Definitions[name]
		typ, err := codec.ParseType(dc.Type)
		if err != nil {
			return nil, nil, fmt.Errorf("config: definition %q: %w", name, err)
		}
		access, err := parseAccess(dc.Access)
		if err != nil {
			return nil, nil, fmt.Errorf("config: definition %q: %w", name, err)
		}
		slave := uint8(0)
		if dc.SlaveID != nil {
			slave = *dc.SlaveID
		}

		d := &catalogue.Definition{
			Name:     name,
			SlaveID:  slave,
			ReadCode: dc.ReadCode,
			Address:  uint16(dc.Address),
			Length:   dc.Length,
			Access:   access,
			Type:     typ,
			Reverse:  dc.Reverse,
			OnUpdate: dc.OnUpdate,
			Virtual:  dc.Virtual,
		}
		for _, v := range dc.Values {
			d.Values = append(d.Values, catalogue.PresetValue{Name: v.Name, Value: v.Value})
		}
		defs = append(defs, d)

		if dc.OnUpdate != "" {
			prog, err := engine.Compile(dc.OnUpdate)
			if err != nil {
				return nil, nil, fmt.Errorf("config: definition %q: on_update: %w", name, err)
			}
			programs[name] = prog
		}
	}

	regions := make([]catalogue.ContiguousRegion, 0, len(cfg.ContiguousMemory))
	for _, r := range cfg.ContiguousMemory {
		slave := uint8(0)
		if r.SlaveID != nil {
			slave = *r.SlaveID
		}
		regions = append(regions, catalogue.ContiguousRegion{
			SlaveID:  slave,
			ReadCode: r.ReadCode,
			Start:    uint16(r.Range.Start),
			End:      uint16(r.Range.End),
		})
	}

	cat, err := catalogue.Build(defs, regions)
	if err != nil {
		return nil, nil, err
	}
	return cat, programs, nil
}

func parseAccess(s string) (catalogue.AccessMode, error) {
	switch s {
	case "ReadOnly":
		return catalogue.ReadOnly, nil
	case "WriteOnly":
		return catalogue.WriteOnly, nil
	case "ReadWrite":
		return catalogue.ReadWrite, nil
	default:
		return 0, fmt.Errorf("unknown access mode %q", s)
	}
}
