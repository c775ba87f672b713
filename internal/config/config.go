package config

// Config is the root YAML document.
type Config struct {
	Mode                string                      `yaml:"mode"`
	HistoryLength       int                         `yaml:"history_length"`
	IntervalMs          int                         `yaml:"interval_ms"`
	DelayAfterConnectMs int                         `yaml:"delay_after_connect_ms"`
	TimeoutMs           int                         `yaml:"timeout_ms"`
	EnableScript        bool                        `yaml:"enable_script"`
	ContiguousMemory    []ContiguousMemoryConfig    `yaml:"contiguous_memory"`
	Definitions         map[string]DefinitionConfig `yaml:"definitions"`
	Connection          ConnectionConfig            `yaml:"connection"`
	Metrics             MetricsConfig               `yaml:"metrics"`
	Fault               FaultConfig                 `yaml:"fault"`
}

// ContiguousMemoryConfig declares one operator-asserted contiguous span.
type ContiguousMemoryConfig struct {
	SlaveID  *uint8      `yaml:"slave_id"`
	ReadCode uint8       `yaml:"read_code"`
	Range    RangeConfig `yaml:"range"`
}

type RangeConfig struct {
	Start Address `yaml:"start"`
	End   Address `yaml:"end"`
}

// ValueConfig is one entry of a definition's preset value enumeration:
// either a bare value (Value set, Name empty) or a {name, value} pair.
type ValueConfig struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// DefinitionConfig is one register definition as written in YAML.
type DefinitionConfig struct {
	SlaveID  *uint8        `yaml:"slave_id"`
	ReadCode uint8         `yaml:"read_code"`
	Address  Address       `yaml:"address"`
	Length   uint16        `yaml:"length"`
	Access   string        `yaml:"access"`
	Type     string        `yaml:"type"`
	Reverse  bool          `yaml:"reverse"`
	Values   []ValueConfig `yaml:"values"`
	OnUpdate string        `yaml:"on_update"`
	Virtual  bool          `yaml:"virtual"`
}

// ConnectionConfig selects and configures the transport.
type ConnectionConfig struct {
	Kind string     `yaml:"kind"` // "tcp" | "rtu"
	TCP  *TCPConfig `yaml:"tcp"`
	RTU  *RTUConfig `yaml:"rtu"`
}

type TCPConfig struct {
	Addr string `yaml:"addr"`
}

type RTUConfig struct {
	Device   string `yaml:"device"`
	BaudRate int    `yaml:"baud_rate"`
	DataBits int    `yaml:"data_bits"`
	Parity   string `yaml:"parity"`
	StopBits int    `yaml:"stop_bits"`
}

// MetricsConfig gates the optional status HTTP endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// FaultConfig gates Server Mode's optional jitter/packet-loss
// simulation, used to exercise Poll Loop's reconnect behavior against
// a local simulated device.
type FaultConfig struct {
	JitterMinMs    int     `yaml:"jitter_min_ms"`
	JitterMaxMs    int     `yaml:"jitter_max_ms"`
	PacketLossRate float64 `yaml:"packet_loss_rate"`
}
