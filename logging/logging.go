// Package logging builds the structured diagnostic logger. User-facing
// output is styled text printed by the commands; this logger carries the
// machine-readable trail of a run.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Formats accepted by Options.Format
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options configures New
type Options struct {
	Level  string // debug, info, warn or error; info when empty
	Format string // console or json; console when empty
	File   string // output file, stderr when empty
}

// New creates a logger for opts
func New(opts Options) (*zap.Logger, error) {
	levelName := opts.Level
	if levelName == "" {
		levelName = "info"
	}
	level, err := zap.ParseAtomicLevel(strings.ToLower(levelName))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	format := strings.ToLower(opts.Format)
	switch format {
	case "":
		format = FormatConsole
	case FormatConsole, FormatJSON:
	default:
		return nil, fmt.Errorf("invalid log format %q (want %s or %s)", opts.Format, FormatConsole, FormatJSON)
	}

	output := "stderr"
	if opts.File != "" {
		output = opts.File
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = level
	cfg.Encoding = format
	cfg.Sampling = nil
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if format == FormatConsole {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	cfg.OutputPaths = []string{output}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
