package subghz

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField is wrapped by ParseError when a required header key is absent
	ErrMissingField = errors.New("missing field")
	// ErrInvalidValue is wrapped by ParseError when a header value cannot be interpreted
	ErrInvalidValue = errors.New("invalid value")
)

// ParseError reports a capture file whose header could not be parsed.
// The file is skipped and the run continues.
type ParseError struct {
	Path  string
	Field string // empty when the header itself was unreadable
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	msg := e.Err.Error()
	if e.Field != "" {
		msg = fmt.Sprintf("field %s: %s", e.Field, msg)
		if e.Value != "" {
			msg = fmt.Sprintf("%s %q", msg, e.Value)
		}
	}
	if e.Path == "" {
		return "parse header: " + msg
	}
	return fmt.Sprintf("parse %s: %s", e.Path, msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IOError reports a per-file filesystem failure during scanning or sorting
type IOError struct {
	Op   string // "read", "stat", "mkdir", "copy", "log"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ConfigurationError is a run-level failure detected before any file is touched
type ConfigurationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// IsConfigurationError reports whether err is, or wraps, a ConfigurationError
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
