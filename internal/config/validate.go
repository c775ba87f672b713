package config

import "fmt"

// Validate checks configuration correctness. It performs declarative
// validation only and MUST NOT mutate configuration. Per-register
// width/overlap invariants are enforced later by catalogue.Build, which
// also requires a built Catalogue to report the offending definition
// names clearly; Validate catches structural mistakes earlier, before
// any of that machinery runs.
func Validate(cfg *Config) error {
	if cfg.Mode != "client" && cfg.Mode != "server" {
		return fmt.Errorf("config: mode must be %q or %q, got %q", "client", "server", cfg.Mode)
	}
	if cfg.HistoryLength < 0 {
		return fmt.Errorf("config: history_length must be non-negative")
	}

	switch cfg.Connection.Kind {
	case "tcp":
		if cfg.Connection.TCP == nil || cfg.Connection.TCP.Addr == "" {
			return fmt.Errorf("config: connection.kind=tcp requires connection.tcp.addr")
		}
	case "rtu":
		if cfg.Connection.RTU == nil || cfg.Connection.RTU.Device == "" {
			return fmt.Errorf("config: connection.kind=rtu requires connection.rtu.device")
		}
	default:
		return fmt.Errorf("config: connection.kind must be %q or %q, got %q", "tcp", "rtu", cfg.Connection.Kind)
	}

	if cfg.Mode == "client" {
		if cfg.IntervalMs <= 0 {
			return fmt.Errorf("config: interval_ms must be positive in client mode")
		}
		if cfg.TimeoutMs <= 0 {
			return fmt.Errorf("config: timeout_ms must be positive in client mode")
		}
	}

	for name, d := range cfg.Definitions {
		if d.ReadCode < 1 || d.ReadCode > 4 {
			return fmt.Errorf("config: definition %q: read_code must be 1-4, got %d", name, d.ReadCode)
		}
		switch d.Access {
		case "ReadOnly", "WriteOnly", "ReadWrite":
		default:
			return fmt.Errorf("config: definition %q: access must be ReadOnly, WriteOnly, or ReadWrite, got %q", name, d.Access)
		}
		if d.SlaveID != nil && *d.SlaveID > 247 {
			return fmt.Errorf("config: definition %q: slave_id %d exceeds 247", name, *d.SlaveID)
		}
	}

	for i, r := range cfg.ContiguousMemory {
		if r.Range.Start > r.Range.End {
			return fmt.Errorf("config: contiguous_memory[%d]: start %d > end %d", i, r.Range.Start, r.Range.End)
		}
	}

	return nil
}
