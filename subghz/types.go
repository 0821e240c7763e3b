// Package subghz scans Flipper Zero SubGHz capture files and sorts them into
// a destination tree grouped by frequency and protocol.
package subghz

import "time"

// SubFile contains the header fields parsed from a single .sub capture file
type SubFile struct {
	Path      string // relative to the source filesystem root
	Name      string
	Frequency uint64 // Hz
	Protocol  string
	Filetype  string
	Version   string
	Preset    string
	Size      int64
	ModTime   time.Time
}

// PlanEntry pairs a matched file with its destination directory
type PlanEntry struct {
	File    SubFile
	DestDir string // relative to the destination root
}

// SortPlan is the ordered work list produced by the Scanner and consumed once by the Sorter
type SortPlan struct {
	Entries []PlanEntry
}

// Len returns the number of planned copies
func (p SortPlan) Len() int {
	return len(p.Entries)
}

// Skip records a plan entry that was not copied because of the conflict policy
type Skip struct {
	Source      string
	Destination string
	Reason      string
}

// RunState is the lifecycle state of an organizer run
type RunState int

const (
	StateIdle RunState = iota
	StateScanning
	StateSorting
	StateDone
	StateDoneWithFailures
	StateCancelled
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateSorting:
		return "sorting"
	case StateDone:
		return "done"
	case StateDoneWithFailures:
		return "done with failures"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Summary is the outcome of a complete organizer run
type Summary struct {
	RunID    string
	State    RunState
	Scanned  int // candidate .sub files seen
	Matched  int // files in the sort plan
	Copied   int
	Skipped  []Skip
	Failures []*IOError
	Warnings []error // ParseError, or IOError for unreadable candidates
	LogPath  string  // empty when no log was written
	Started  time.Time
	Duration time.Duration
}

// Cancelled reports whether the run stopped before the plan was exhausted
func (s *Summary) Cancelled() bool {
	return s.State == StateCancelled
}

// OK reports whether every planned file was copied or deliberately skipped
func (s *Summary) OK() bool {
	return len(s.Failures) == 0 && s.State == StateDone
}
