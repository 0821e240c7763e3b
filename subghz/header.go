package subghz

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// Header keys recognised in a capture file
const (
	FieldFiletype  = "Filetype"
	FieldVersion   = "Version"
	FieldFrequency = "Frequency"
	FieldPreset    = "Preset"
	FieldProtocol  = "Protocol"
)

// MaxHeaderLines bounds how far into a file the parser looks for the required keys
const MaxHeaderLines = 64

const maxLineLength = 1 << 20

var knownFields = map[string]struct{}{
	FieldFiletype:  {},
	FieldVersion:   {},
	FieldFrequency: {},
	FieldPreset:    {},
	FieldProtocol:  {},
}

// Header holds the fields extracted from the top of a capture file
type Header struct {
	Filetype  string
	Version   string
	Frequency uint64 // Hz
	Preset    string
	Protocol  string
}

// ParseHeader reads "Key: Value" lines and extracts the capture metadata.
// The first occurrence of a key wins. Parsing stops once Frequency and
// Protocol are both known, after MaxHeaderLines lines, or at EOF.
func ParseHeader(r io.Reader) (*Header, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	fields := make(map[string]string, len(knownFields))
	for line := 0; line < MaxHeaderLines && scanner.Scan(); line++ {
		text := scanner.Text()
		if line == 0 {
			text = strings.TrimPrefix(text, "\ufeff")
		}

		key, value, ok := splitField(text)
		if !ok {
			continue
		}
		if _, known := knownFields[key]; !known {
			continue
		}
		if _, seen := fields[key]; seen {
			continue
		}
		fields[key] = value

		_, hasFreq := fields[FieldFrequency]
		_, hasProto := fields[FieldProtocol]
		if hasFreq && hasProto {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Err: err}
	}

	rawFreq, ok := fields[FieldFrequency]
	if !ok {
		return nil, &ParseError{Field: FieldFrequency, Err: ErrMissingField}
	}
	freq, err := strconv.ParseUint(rawFreq, 10, 64)
	if err != nil || freq == 0 {
		return nil, &ParseError{Field: FieldFrequency, Value: rawFreq, Err: ErrInvalidValue}
	}

	protocol, ok := fields[FieldProtocol]
	if !ok {
		return nil, &ParseError{Field: FieldProtocol, Err: ErrMissingField}
	}
	if protocol == "" {
		return nil, &ParseError{Field: FieldProtocol, Err: ErrInvalidValue}
	}

	return &Header{
		Filetype:  fields[FieldFiletype],
		Version:   fields[FieldVersion],
		Frequency: freq,
		Preset:    fields[FieldPreset],
		Protocol:  protocol,
	}, nil
}

// splitField splits a "Key: Value" line, trimming whitespace around both parts
func splitField(line string) (key, value string, ok bool) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:idx])
	if key == "" {
		return "", "", false
	}
	return key, strings.TrimSpace(line[idx+1:]), true
}
