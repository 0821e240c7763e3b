// Package config loads command defaults from a TOML file.
//
// Keys are flag names with dashes replaced by underscores:
//
//	frequency   = ["433.92", "315"]
//	protocol    = ["Princeton", "KeeLoq"]
//	recursive   = true
//	on_conflict = "skip"
//	log_file    = "logs/sort.txt"
//
// Values given on the command line take precedence.
package config

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/alecthomas/kong"

	"github.com/lepinkainen/subsorter/subghz"
)

// DefaultPaths are searched when no --config flag is given. Missing files are ignored.
var DefaultPaths = []string{
	"~/.config/subsorter/config.toml",
	".subsorter.toml",
}

// ignored flags never come from a file
var ignored = map[string]bool{
	"help":    true,
	"version": true,
	"config":  true,
}

// Resolver supplies flag values from a decoded TOML document
type Resolver struct {
	values map[string]any
}

var _ kong.Resolver = (*Resolver)(nil)

// Loader is a kong.ConfigurationLoader for TOML files
func Loader(r io.Reader) (kong.Resolver, error) {
	values := make(map[string]any)
	if _, err := toml.NewDecoder(r).Decode(&values); err != nil {
		return nil, &subghz.ConfigurationError{Field: "config", Reason: "cannot decode TOML", Err: err}
	}
	return &Resolver{values: values}, nil
}

// Keys returns the configured keys in sorted order
func (r *Resolver) Keys() []string {
	keys := make([]string, 0, len(r.values))
	for key := range r.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Validate rejects keys that do not name a flag of any command
func (r *Resolver) Validate(app *kong.Application) error {
	known := make(map[string]bool)
	collectFlags(app.Node, known)

	var unknown []string
	for _, key := range r.Keys() {
		if !known[key] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		return &subghz.ConfigurationError{
			Field:  "config",
			Reason: "unknown key(s) " + strings.Join(unknown, ", "),
		}
	}
	return nil
}

// Resolve returns the configured value for flag, or nil when it is not set
func (r *Resolver) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if ignored[flag.Name] {
		return nil, nil
	}
	raw, ok := r.values[keyFor(flag.Name)]
	if !ok {
		return nil, nil
	}
	value, err := stringify(raw)
	if err != nil {
		return nil, &subghz.ConfigurationError{Field: "config", Reason: "key " + keyFor(flag.Name), Err: err}
	}
	return value, nil
}

func keyFor(flagName string) string {
	return strings.ReplaceAll(flagName, "-", "_")
}

func collectFlags(node *kong.Node, known map[string]bool) {
	if node == nil {
		return
	}
	for _, flag := range node.Flags {
		if !ignored[flag.Name] {
			known[keyFor(flag.Name)] = true
		}
	}
	for _, child := range node.Children {
		collectFlags(child, known)
	}
}

// stringify renders TOML scalars and arrays the way they would be typed on
// the command line; arrays become comma separated lists
func stringify(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			s, err := stringify(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), nil
	default:
		return "", fmt.Errorf("unsupported value of type %T", raw)
	}
}
