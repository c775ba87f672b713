// Package config loads and validates the YAML configuration document:
// poll timing, the register catalogue, declared contiguous memory
// regions, and the connection target.
package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Address is a config scalar accepting either a decimal or a
// 0x-prefixed hex string, grounded on the original tool's Address
// enum (Hex(String)|Decimal(u16)).
type Address uint16

func (a *Address) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case int:
		*a = Address(v)
		return nil
	case string:
		n, err := parseAddress(v)
		if err != nil {
			return err
		}
		*a = Address(n)
		return nil
	default:
		return fmt.Errorf("config: address must be a number or string, got %T", raw)
	}
}

func parseAddress(s string) (uint16, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, err := strconv.ParseUint(s[2:], 16, 16)
		if err != nil {
			return 0, fmt.Errorf("config: invalid hex address %q: %w", s, err)
		}
		return uint16(n), nil
	}
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("config: invalid decimal address %q: %w", s, err)
	}
	return uint16(n), nil
}
