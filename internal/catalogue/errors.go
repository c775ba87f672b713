package catalogue

import "fmt"

// ConfigError is raised at load time, before any transport connection is
// attempted. It aborts startup.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return "catalogue: " + e.Msg }

func configErrf(format string, args ...interface{}) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// AccessError is returned when a write is attempted against a definition
// whose access mode forbids it.
type AccessError struct {
	Name   string
	Access AccessMode
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("catalogue: register %q is %s, write rejected", e.Name, e.Access)
}
