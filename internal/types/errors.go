package types

import "fmt"

// ConfigError reports invalid flags, rule definitions or configuration.
// It is fatal: no scan is attempted and the process exits with status 2.
type ConfigError struct{ Err error }

func (e *ConfigError) Error() string { return "config: " + e.Err.Error() }
func (e *ConfigError) Unwrap() error { return e.Err }

// ConfigErrorf builds a ConfigError from a format string.
func ConfigErrorf(format string, args ...any) error {
	return &ConfigError{Err: fmt.Errorf(format, args...)}
}

// IOError reports an unreadable input the scan cannot proceed without
// (resolver failures, a corrupt baseline). Per-file read problems inside a
// running scan degrade to notes instead. Exits with status 2.
type IOError struct{ Err error }

func (e *IOError) Error() string { return "io: " + e.Err.Error() }
func (e *IOError) Unwrap() error { return e.Err }

// IOErrorf builds an IOError from a format string.
func IOErrorf(format string, args ...any) error {
	return &IOError{Err: fmt.Errorf(format, args...)}
}
