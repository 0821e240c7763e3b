package subghz

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lepinkainen/subsorter/utils"
)

// Options configures a single organizer run
type Options struct {
	Source      string
	Destination string
	Filter      FilterSelection
	Recursive   bool
	Conflict    ConflictPolicy
	Log         bool
	LogFile     string // relative to Destination, DefaultLogFile when empty
	KeepEmpty   bool   // keep directories left empty by failed copies
}

// Organizer runs the scan and sort pipeline
type Organizer struct {
	logger *zap.Logger
	srcFS  billy.Filesystem
	dstFS  billy.Filesystem
}

// OrganizerOption configures an Organizer
type OrganizerOption func(*Organizer)

// WithLogger sets the diagnostic logger
func WithLogger(logger *zap.Logger) OrganizerOption {
	return func(o *Organizer) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithFilesystems replaces the OS-backed source and destination filesystems
func WithFilesystems(src, dst billy.Filesystem) OrganizerOption {
	return func(o *Organizer) {
		o.srcFS = src
		o.dstFS = dst
	}
}

// NewOrganizer creates an organizer
func NewOrganizer(opts ...OrganizerOption) *Organizer {
	o := &Organizer{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run validates the options, scans the source, sorts the matching files and
// writes the run log. Configuration problems are returned as a
// *ConfigurationError before anything is touched; per-file problems are
// reported in the summary. events, when not nil, is closed before Run returns;
// the caller must keep receiving until then.
func (o *Organizer) Run(ctx context.Context, opts Options, events chan<- Event) (*Summary, error) {
	if events != nil {
		defer close(events)
	}

	summary := &Summary{
		RunID:   uuid.NewString(),
		State:   StateIdle,
		Started: time.Now(),
	}
	logger := o.logger.With(zap.String("run_id", summary.RunID))

	src, dst, exclude, err := o.prepare(opts)
	if err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return nil, err
	}
	logger.Info("run started",
		zap.String("source", opts.Source),
		zap.String("destination", opts.Destination),
		zap.Stringer("filter", opts.Filter),
		zap.Bool("recursive", opts.Recursive),
		zap.String("conflict", string(opts.Conflict)))

	o.setState(events, summary, StateScanning)
	scanner := NewScanner(src, opts.Filter,
		WithRecursive(opts.Recursive),
		WithExcludedDir(exclude),
		WithScanLogger(logger),
		WithScanEvents(events))

	scan, err := scanner.Scan(ctx)
	if scan != nil {
		summary.Scanned = scan.Scanned
		summary.Warnings = scan.Warnings
	}
	if err != nil {
		if ctx.Err() != nil {
			o.finish(events, summary, StateCancelled, logger)
			return summary, nil
		}
		return nil, err
	}
	summary.Matched = scan.Count

	o.setState(events, summary, StateSorting)

	var runLog *RunLog
	if opts.Log {
		runLog = &RunLog{}
	}
	sorterOpts := []SorterOption{
		WithConflictPolicy(opts.Conflict),
		WithRunLog(runLog),
		WithDisplayRoots(opts.Source, opts.Destination),
		WithSorterLogger(logger),
	}
	if o.srcFS == nil && o.dstFS == nil {
		sorterOpts = append(sorterOpts, WithSameFileCheck(func(srcRel, dstRel string) bool {
			return utils.SameFile(filepath.Join(opts.Source, srcRel), filepath.Join(opts.Destination, dstRel))
		}))
	}
	sorter := NewSorter(src, dst, sorterOpts...)

	result := sorter.Sort(ctx, scan.Plan, events)
	summary.Copied = result.Copied
	summary.Skipped = result.Skipped
	summary.Failures = result.Failures

	if runLog != nil && runLog.Len() > 0 {
		name := logFileName(opts.LogFile)
		if err := writeRunLog(dst, name, runLog); err != nil {
			logger.Warn("could not write run log", zap.Error(err))
			summary.Warnings = append(summary.Warnings, err)
		} else {
			summary.LogPath = filepath.Join(opts.Destination, name)
		}
	}

	if !opts.KeepEmpty {
		for _, dir := range sorter.PruneCreatedDirs() {
			logger.Debug("removed empty directory", zap.String("path", dir))
		}
	}

	state := StateDone
	switch {
	case result.Cancelled:
		state = StateCancelled
	case len(result.Failures) > 0:
		state = StateDoneWithFailures
	}
	o.finish(events, summary, state, logger)
	return summary, nil
}

// prepare validates options and opens the filesystems.
// exclude is the destination relative to the source when it is nested inside it.
func (o *Organizer) prepare(opts Options) (src, dst billy.Filesystem, exclude string, err error) {
	if strings.TrimSpace(opts.Source) == "" {
		return nil, nil, "", &ConfigurationError{Field: "source", Reason: "no folder selected"}
	}
	if strings.TrimSpace(opts.Destination) == "" {
		return nil, nil, "", &ConfigurationError{Field: "destination", Reason: "no folder selected"}
	}
	if _, err := ParseConflictPolicy(string(opts.Conflict)); err != nil {
		return nil, nil, "", &ConfigurationError{Field: "conflict policy", Reason: string(opts.Conflict), Err: err}
	}
	if name := logFileName(opts.LogFile); filepath.IsAbs(name) || name == ".." ||
		strings.HasPrefix(name, ".."+string(filepath.Separator)) {
		return nil, nil, "", &ConfigurationError{Field: "log file", Reason: "must be a path inside the destination"}
	}
	if utils.SamePath(opts.Source, opts.Destination) {
		return nil, nil, "", &ConfigurationError{Field: "destination", Reason: "must differ from the source folder"}
	}
	if rel, ok := utils.IsWithin(opts.Source, opts.Destination); ok {
		exclude = rel
	}

	src, dst = o.srcFS, o.dstFS
	if src == nil {
		src = osfs.New(opts.Source)
	}
	if dst == nil {
		dst = osfs.New(opts.Destination)
	}

	info, err := src.Stat(".")
	if err != nil {
		return nil, nil, "", &ConfigurationError{Field: "source", Reason: "cannot access " + opts.Source, Err: err}
	}
	if !info.IsDir() {
		return nil, nil, "", &ConfigurationError{Field: "source", Reason: opts.Source + " is not a directory"}
	}

	info, err = dst.Stat(".")
	switch {
	case err == nil && !info.IsDir():
		return nil, nil, "", &ConfigurationError{Field: "destination", Reason: opts.Destination + " is not a directory"}
	case errors.Is(err, os.ErrNotExist):
		if err := dst.MkdirAll(".", 0o755); err != nil {
			return nil, nil, "", &ConfigurationError{Field: "destination", Reason: "cannot create " + opts.Destination, Err: err}
		}
	case err != nil:
		return nil, nil, "", &ConfigurationError{Field: "destination", Reason: "cannot access " + opts.Destination, Err: err}
	}

	return src, dst, exclude, nil
}

func (o *Organizer) setState(events chan<- Event, summary *Summary, state RunState) {
	summary.State = state
	emitState(events, state)
}

func (o *Organizer) finish(events chan<- Event, summary *Summary, state RunState, logger *zap.Logger) {
	summary.Duration = time.Since(summary.Started)
	o.setState(events, summary, state)
	logger.Info("run finished",
		zap.Stringer("state", state),
		zap.Int("scanned", summary.Scanned),
		zap.Int("matched", summary.Matched),
		zap.Int("copied", summary.Copied),
		zap.Int("skipped", len(summary.Skipped)),
		zap.Int("failed", len(summary.Failures)),
		zap.Int("warnings", len(summary.Warnings)),
		zap.Duration("duration", summary.Duration))
}

func logFileName(name string) string {
	if strings.TrimSpace(name) == "" {
		return DefaultLogFile
	}
	return filepath.Clean(name)
}

func writeRunLog(fs billy.Filesystem, name string, log *RunLog) error {
	if dir := filepath.Dir(name); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return &IOError{Op: "log", Path: name, Err: err}
		}
	}
	return log.Flush(fs, name)
}
