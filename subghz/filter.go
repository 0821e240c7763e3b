package subghz

import (
	"sort"
	"strings"
)

// FilterSelection is the set of frequencies and protocols enabled for a run.
// An empty set means "all".
type FilterSelection struct {
	frequencies map[uint64]struct{}
	protocols   map[string]struct{}
}

// NewFilterSelection builds a selection. Protocols are compared case-insensitively.
func NewFilterSelection(frequencies []uint64, protocols []string) FilterSelection {
	var f FilterSelection
	if len(frequencies) > 0 {
		f.frequencies = make(map[uint64]struct{}, len(frequencies))
		for _, hz := range frequencies {
			f.frequencies[hz] = struct{}{}
		}
	}
	for _, p := range protocols {
		key := protocolKey(p)
		if key == "" {
			continue
		}
		if f.protocols == nil {
			f.protocols = make(map[string]struct{}, len(protocols))
		}
		f.protocols[key] = struct{}{}
	}
	return f
}

// AllFrequencies reports whether the frequency set is unrestricted
func (f FilterSelection) AllFrequencies() bool { return len(f.frequencies) == 0 }

// AllProtocols reports whether the protocol set is unrestricted
func (f FilterSelection) AllProtocols() bool { return len(f.protocols) == 0 }

// Matches reports whether a file's frequency and protocol are both selected
func (f FilterSelection) Matches(file SubFile) bool {
	if !f.AllFrequencies() {
		if _, ok := f.frequencies[file.Frequency]; !ok {
			return false
		}
	}
	if !f.AllProtocols() {
		if _, ok := f.protocols[protocolKey(file.Protocol)]; !ok {
			return false
		}
	}
	return true
}

func (f FilterSelection) String() string {
	freqs := "all"
	if !f.AllFrequencies() {
		hz := make([]uint64, 0, len(f.frequencies))
		for v := range f.frequencies {
			hz = append(hz, v)
		}
		sort.Slice(hz, func(i, j int) bool { return hz[i] < hz[j] })
		labels := make([]string, len(hz))
		for i, v := range hz {
			labels[i] = BucketLabel(v)
		}
		freqs = strings.Join(labels, ",")
	}

	protos := "all"
	if !f.AllProtocols() {
		names := make([]string, 0, len(f.protocols))
		for p := range f.protocols {
			names = append(names, p)
		}
		sort.Strings(names)
		protos = strings.Join(names, ",")
	}

	return "frequencies=" + freqs + " protocols=" + protos
}

func protocolKey(p string) string {
	return strings.ToLower(strings.TrimSpace(p))
}
