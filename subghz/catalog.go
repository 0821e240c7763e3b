package subghz

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// KnownFrequencies lists the frequencies, in Hz, most commonly captured with a Flipper Zero
var KnownFrequencies = []uint64{
	300000000,
	310000000,
	315000000,
	390000000,
	418000000,
	433420000,
	433920000,
	434420000,
	868350000,
	868800000,
	915000000,
}

// KnownProtocols lists the protocol names the Flipper firmware writes into .sub files
var KnownProtocols = []string{
	"Alutech AT-4N", "BETT", "CAME", "CAME Atomo", "CAME TWEE",
	"Faac SLH", "GangQi", "GateTX", "Hollarm", "Honeywell",
	"KeeLoq", "Linear", "Marantec24", "Mastercode", "Nice FLO",
	"Nice FloR-S", "Princeton", "RAW", "Security+ 1.0",
	"Security+ 2.0", "SMC5326", "Somfy Keytis", "Somfy Telis",
}

// MaxFrequency is the highest frequency, in Hz, accepted as a filter value
const MaxFrequency uint64 = 10_000_000_000

// mhzThreshold separates values given in MHz from values given in Hz
const mhzThreshold = 100000

// BucketLabel formats a frequency as MHz with two decimals, e.g. 433920000 -> "433.92"
func BucketLabel(hz uint64) string {
	centi := (hz + 5000) / 10000
	return fmt.Sprintf("%d.%02d", centi/100, centi%100)
}

// DisplayFrequency formats a frequency for humans, e.g. 433920000 -> "433.92 MHz"
func DisplayFrequency(hz uint64) string {
	return BucketLabel(hz) + " MHz"
}

// ParseFrequency accepts a frequency in Hz ("433920000") or MHz ("433.92", "315").
// Values with a decimal point or below 100000 are read as MHz.
func ParseFrequency(s string) (uint64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "MHz"))
	if s == "" {
		return 0, fmt.Errorf("empty frequency")
	}

	if !strings.Contains(s, ".") {
		if n, err := strconv.ParseUint(s, 10, 64); err == nil {
			if n == 0 {
				return 0, fmt.Errorf("frequency must be positive")
			}
			if n < mhzThreshold {
				n *= 1000000
			}
			if n > MaxFrequency {
				return 0, fmt.Errorf("frequency %q is above %s", s, DisplayFrequency(MaxFrequency))
			}
			return n, nil
		}
	}

	mhz, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frequency %q: %w", s, err)
	}
	if mhz <= 0 || math.IsInf(mhz, 0) || math.IsNaN(mhz) {
		return 0, fmt.Errorf("frequency must be positive: %q", s)
	}
	hz := math.Round(mhz * 1e6)
	if hz > float64(MaxFrequency) {
		return 0, fmt.Errorf("frequency %q is above %s", s, DisplayFrequency(MaxFrequency))
	}
	return uint64(hz), nil
}

// ProtocolLabel turns a protocol name into a safe directory name
func ProtocolLabel(protocol string) string {
	label := strings.Map(func(r rune) rune {
		switch {
		case r < 0x20 || r == 0x7f:
			return '_'
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		}
		return r
	}, strings.TrimSpace(protocol))

	label = strings.Trim(label, " .")
	if label == "" {
		return "_"
	}
	return label
}
