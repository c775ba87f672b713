package config

// Normalize applies post-validation defaults. It is allowed to mutate
// configuration and MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.HistoryLength == 0 {
		cfg.HistoryLength = 100
	}

	for name, d := range cfg.Definitions {
		if d.SlaveID == nil {
			zero := uint8(0)
			d.SlaveID = &zero
			cfg.Definitions[name] = d
		}
	}
	for i := range cfg.ContiguousMemory {
		if cfg.ContiguousMemory[i].SlaveID == nil {
			zero := uint8(0)
			cfg.ContiguousMemory[i].SlaveID = &zero
		}
	}
}
