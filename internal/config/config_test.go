package config

import (
	"testing"

	"github.com/tamzrod/modbusctl/internal/script"
	"gopkg.in/yaml.v3"
)

func TestAddressUnmarshalHexAndDecimal(t *testing.T) {
	var r RangeConfig
	if err := yaml.Unmarshal([]byte("start: 0x4000\nend: 16394\n"), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.Start != 0x4000 {
		t.Fatalf("hex address: got %d, want %d", r.Start, 0x4000)
	}
	if r.End != 16394 {
		t.Fatalf("decimal address: got %d, want 16394", r.End)
	}
}

func TestValidate_RejectsUnknownMode(t *testing.T) {
	cfg := &Config{Mode: "bogus", Connection: ConnectionConfig{Kind: "tcp", TCP: &TCPConfig{Addr: "x:1"}}}
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestValidate_RequiresTCPAddr(t *testing.T) {
	cfg := &Config{Mode: "server", Connection: ConnectionConfig{Kind: "tcp"}}
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for missing tcp addr")
	}
}

func TestValidate_ClientRequiresTiming(t *testing.T) {
	cfg := &Config{
		Mode:       "client",
		Connection: ConnectionConfig{Kind: "tcp", TCP: &TCPConfig{Addr: "x:1"}},
	}
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for missing interval_ms/timeout_ms")
	}
}

func TestValidate_RejectsBadAccess(t *testing.T) {
	cfg := &Config{
		Mode:       "server",
		Connection: ConnectionConfig{Kind: "tcp", TCP: &TCPConfig{Addr: "x:1"}},
		Definitions: map[string]DefinitionConfig{
			"a": {ReadCode: 3, Access: "Bogus"},
		},
	}
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for bad access mode")
	}
}

func TestNormalize_DefaultsHistoryLengthAndSlaveID(t *testing.T) {
	cfg := &Config{
		Definitions: map[string]DefinitionConfig{
			"a": {ReadCode: 3, Access: "ReadOnly"},
		},
	}
	Normalize(cfg)
	if cfg.HistoryLength != 100 {
		t.Fatalf("expected default history_length 100, got %d", cfg.HistoryLength)
	}
	if cfg.Definitions["a"].SlaveID == nil || *cfg.Definitions["a"].SlaveID != 0 {
		t.Fatalf("expected default slave_id 0")
	}
}

func TestBuildCatalogue_CompilesOnUpdateScripts(t *testing.T) {
	cfg := &Config{
		Definitions: map[string]DefinitionConfig{
			"volts": {ReadCode: 4, Address: 0, Length: 2, Access: "ReadOnly", Type: "U32"},
			"derived": {
				ReadCode: 4, Address: 100, Length: 2, Access: "ReadOnly", Type: "F32",
				Virtual:  true,
				OnUpdate: `x = C_Register.GetInt("volts")`,
			},
		},
	}
	Normalize(cfg)

	_, programs, err := BuildCatalogue(cfg, script.NewEngine(0))
	if err != nil {
		t.Fatalf("BuildCatalogue: %v", err)
	}
	if _, ok := programs["derived"]; !ok {
		t.Fatalf("expected compiled program for derived")
	}
}

func TestBuildCatalogue_RejectsBadScript(t *testing.T) {
	cfg := &Config{
		Definitions: map[string]DefinitionConfig{
			"derived": {
				ReadCode: 4, Address: 0, Length: 2, Access: "ReadOnly", Type: "F32",
				Virtual:  true,
				OnUpdate: `x = (1 +`,
			},
		},
	}
	Normalize(cfg)
	if _, _, err := BuildCatalogue(cfg, script.NewEngine(0)); err == nil {
		t.Fatalf("expected syntax error to surface as ConfigError")
	}
}
