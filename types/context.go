package types

import (
	"io"
	"os"

	"go.uber.org/zap"
)

// DefaultVersion is the fallback version when AppContext is nil
const DefaultVersion = "dev"

// AppContext holds application-wide context information passed to commands
type AppContext struct {
	Version string
	Logger  *zap.Logger
	// LogToFile is set when diagnostics go to a file and may stay on while a
	// full-screen UI owns the terminal
	LogToFile bool

	// Stdout and Stderr default to the process streams when nil
	Stdout io.Writer
	Stderr io.Writer
}

// VersionString returns the version, or DefaultVersion when unset
func (c *AppContext) VersionString() string {
	if c == nil || c.Version == "" {
		return DefaultVersion
	}
	return c.Version
}

// Log returns the diagnostic logger, never nil
func (c *AppContext) Log() *zap.Logger {
	if c == nil || c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// Out returns the writer for user-facing output
func (c *AppContext) Out() io.Writer {
	if c == nil || c.Stdout == nil {
		return os.Stdout
	}
	return c.Stdout
}

// Err returns the writer for progress bars and notices
func (c *AppContext) Err() io.Writer {
	if c == nil || c.Stderr == nil {
		return os.Stderr
	}
	return c.Stderr
}
