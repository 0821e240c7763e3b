package subghz

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"go.uber.org/zap"
)

// ConflictPolicy decides what happens when the destination name is taken
type ConflictPolicy string

const (
	// ConflictRename skips the copy when an identical file (same size and CRC32)
	// already exists under the name or a suffixed variant, and otherwise writes
	// to the first free name among name.sub, name_1.sub, name_2.sub, ...
	ConflictRename ConflictPolicy = "rename"
	// ConflictSkip leaves an existing destination file alone and records a skip
	ConflictSkip ConflictPolicy = "skip"
	// ConflictOverwrite replaces an existing destination file unless it already
	// holds identical content
	ConflictOverwrite ConflictPolicy = "overwrite"
)

// ConflictPolicies lists the accepted policy names
var ConflictPolicies = []ConflictPolicy{ConflictRename, ConflictSkip, ConflictOverwrite}

// ParseConflictPolicy validates a policy name; empty selects ConflictRename
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	if s == "" {
		return ConflictRename, nil
	}
	for _, p := range ConflictPolicies {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown conflict policy %q", s)
}

const maxRenameAttempts = 1000

// Skip reasons
const (
	ReasonIdentical = "identical file already sorted"
	ReasonExists    = "destination already exists"
	ReasonSameFile  = "destination is the source file"
)

// SortResult is the outcome of executing a plan
type SortResult struct {
	Copied    int
	Skipped   []Skip
	Failures  []*IOError
	Cancelled bool
}

// Sorter copies planned files from a source filesystem into a destination filesystem
type Sorter struct {
	src     billy.Filesystem
	dst     billy.Filesystem
	srcRoot string
	dstRoot string
	policy  ConflictPolicy
	runLog  *RunLog
	logger  *zap.Logger

	// sameFile reports whether a source path and a destination path name the same file
	sameFile func(srcRel, dstRel string) bool

	createdDirs []string
}

// SorterOption configures a Sorter
type SorterOption func(*Sorter)

// WithConflictPolicy sets the name collision policy
func WithConflictPolicy(policy ConflictPolicy) SorterOption {
	return func(s *Sorter) { s.policy = policy }
}

// WithRunLog records every successful copy into log
func WithRunLog(log *RunLog) SorterOption {
	return func(s *Sorter) { s.runLog = log }
}

// WithDisplayRoots sets the root paths prepended to relative paths in events, errors and logs
func WithDisplayRoots(srcRoot, dstRoot string) SorterOption {
	return func(s *Sorter) {
		s.srcRoot = srcRoot
		s.dstRoot = dstRoot
	}
}

// WithSameFileCheck detects a destination that is the source file itself,
// which happens when the source folder lies inside the destination tree
func WithSameFileCheck(check func(srcRel, dstRel string) bool) SorterOption {
	return func(s *Sorter) { s.sameFile = check }
}

// WithSorterLogger attaches a logger for per-file diagnostics
func WithSorterLogger(logger *zap.Logger) SorterOption {
	return func(s *Sorter) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSorter creates a sorter reading from src and writing into dst
func NewSorter(src, dst billy.Filesystem, opts ...SorterOption) *Sorter {
	s := &Sorter{
		src:    src,
		dst:    dst,
		policy: ConflictRename,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sort executes the plan one entry at a time. A failed entry is recorded and
// the next one is attempted. Cancellation is checked between entries and
// leaves already copied files in place. Events are sent on events when it is
// not nil.
func (s *Sorter) Sort(ctx context.Context, plan SortPlan, events chan<- Event) SortResult {
	var result SortResult
	total := plan.Len()

	emit(ctx, events, Event{Kind: EventStarted, Total: total})

	for i, entry := range plan.Entries {
		if ctx.Err() != nil {
			result.Cancelled = true
			s.logger.Info("sort cancelled", zap.Int("processed", i), zap.Int("total", total))
			break
		}

		index := i + 1
		source := s.sourcePath(entry.File.Path)
		target, reason, err := s.sortEntry(entry)

		switch {
		case err != nil:
			ioErr := toIOError(err, source)
			result.Failures = append(result.Failures, ioErr)
			s.logger.Error("copy failed", zap.String("source", source), zap.Error(ioErr))
			emit(ctx, events, Event{Kind: EventFailed, Index: index, Total: total, Source: source, Err: ioErr})

		case reason != "":
			skip := Skip{Source: source, Destination: s.destPath(target), Reason: reason}
			result.Skipped = append(result.Skipped, skip)
			s.logger.Info("copy skipped",
				zap.String("source", skip.Source),
				zap.String("destination", skip.Destination),
				zap.String("reason", reason))
			emit(ctx, events, Event{Kind: EventSkipped, Index: index, Total: total,
				Source: skip.Source, Destination: skip.Destination, Reason: reason})

		default:
			result.Copied++
			destination := s.destPath(target)
			if s.runLog != nil {
				s.runLog.Append(source, destination)
			}
			s.logger.Debug("copied", zap.String("source", source), zap.String("destination", destination))
			emit(ctx, events, Event{Kind: EventCopied, Index: index, Total: total,
				Source: source, Destination: destination})
		}
	}

	return result
}

// sortEntry creates the destination directory and copies one file.
// A non-empty reason means the copy was skipped on purpose.
func (s *Sorter) sortEntry(entry PlanEntry) (target, reason string, err error) {
	if err := s.ensureDir(entry.DestDir); err != nil {
		return "", "", err
	}

	target, reason, err = s.resolveTarget(entry)
	if err != nil || reason != "" {
		return target, reason, err
	}

	if err := s.copyFile(entry.File, target); err != nil {
		return "", "", err
	}
	return target, "", nil
}

// ensureDir creates dir and its parents, remembering which ones this run created
func (s *Sorter) ensureDir(dir string) error {
	var missing []string
	for d := dir; d != "." && d != "" && d != string(filepath.Separator); d = filepath.Dir(d) {
		if _, err := s.dst.Stat(d); err == nil {
			break
		}
		missing = append(missing, d)
	}

	if err := s.dst.MkdirAll(dir, 0o755); err != nil {
		return &IOError{Op: "mkdir", Path: s.destPath(dir), Err: err}
	}
	s.createdDirs = append(s.createdDirs, missing...)
	return nil
}

// resolveTarget applies the conflict policy and returns the path to write to
func (s *Sorter) resolveTarget(entry PlanEntry) (string, string, error) {
	name := entry.File.Name
	target := filepath.Join(entry.DestDir, name)

	if s.sameFile != nil && s.sameFile(entry.File.Path, target) {
		return target, ReasonSameFile, nil
	}

	var srcSum *uint32
	identical := func(candidate string, info os.FileInfo) (bool, error) {
		if info.IsDir() || info.Size() != entry.File.Size {
			return false, nil
		}
		if srcSum == nil {
			sum, err := CalculateCRC32(s.src, entry.File.Path)
			if err != nil {
				return false, &IOError{Op: "read", Path: s.sourcePath(entry.File.Path), Err: err}
			}
			srcSum = &sum
		}
		dstSum, err := CalculateCRC32(s.dst, candidate)
		if err != nil {
			return false, &IOError{Op: "read", Path: s.destPath(candidate), Err: err}
		}
		return dstSum == *srcSum, nil
	}

	switch s.policy {
	case ConflictSkip:
		_, err := s.dst.Stat(target)
		switch {
		case err == nil:
			return target, ReasonExists, nil
		case errors.Is(err, os.ErrNotExist):
			return target, "", nil
		default:
			return "", "", &IOError{Op: "stat", Path: s.destPath(target), Err: err}
		}

	case ConflictOverwrite:
		info, err := s.dst.Stat(target)
		switch {
		case errors.Is(err, os.ErrNotExist):
			return target, "", nil
		case err != nil:
			return "", "", &IOError{Op: "stat", Path: s.destPath(target), Err: err}
		}
		// an identical target may be the source itself; truncating it would lose the capture
		same, err := identical(target, info)
		if err != nil {
			return "", "", err
		}
		if same {
			return target, ReasonIdentical, nil
		}
		return target, "", nil
	}

	entries, err := s.dst.ReadDir(entry.DestDir)
	if err != nil {
		return "", "", &IOError{Op: "read", Path: s.destPath(entry.DestDir), Err: err}
	}
	existing := make(map[string]os.FileInfo, len(entries))
	for _, e := range entries {
		existing[e.Name()] = e
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	variant := func(n int) string {
		if n == 0 {
			return name
		}
		return fmt.Sprintf("%s_%d%s", stem, n, ext)
	}

	// any variant holding the same capture means it is already sorted, even
	// when an earlier name in the sequence is free
	for n := 0; n < maxRenameAttempts; n++ {
		info, ok := existing[variant(n)]
		if !ok {
			continue
		}
		candidate := filepath.Join(entry.DestDir, variant(n))
		same, err := identical(candidate, info)
		if err != nil {
			return "", "", err
		}
		if same {
			return candidate, ReasonIdentical, nil
		}
	}

	for n := 0; n < maxRenameAttempts; n++ {
		if _, ok := existing[variant(n)]; ok {
			continue
		}
		candidate := filepath.Join(entry.DestDir, variant(n))
		// listing names may differ in case from what the filesystem resolves
		_, err := s.dst.Stat(candidate)
		if errors.Is(err, os.ErrNotExist) {
			return candidate, "", nil
		}
		if err != nil {
			return "", "", &IOError{Op: "stat", Path: s.destPath(candidate), Err: err}
		}
	}

	return "", "", &IOError{Op: "copy", Path: s.destPath(target),
		Err: fmt.Errorf("no free file name after %d attempts", maxRenameAttempts)}
}

// copyFile streams the source into target. A partially written target is removed.
func (s *Sorter) copyFile(file SubFile, target string) error {
	in, err := s.src.Open(file.Path)
	if err != nil {
		return &IOError{Op: "read", Path: s.sourcePath(file.Path), Err: err}
	}
	defer func() { _ = in.Close() }()

	out, err := s.dst.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return &IOError{Op: "copy", Path: s.destPath(target), Err: err}
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = s.dst.Remove(target)
		return &IOError{Op: "copy", Path: s.destPath(target), Err: err}
	}
	if err := out.Close(); err != nil {
		_ = s.dst.Remove(target)
		return &IOError{Op: "copy", Path: s.destPath(target), Err: err}
	}

	if !file.ModTime.IsZero() {
		if ch, ok := s.dst.(billy.Change); ok {
			if err := ch.Chtimes(target, time.Now(), file.ModTime); err != nil {
				s.logger.Debug("could not preserve modification time", zap.String("path", target), zap.Error(err))
			}
		}
	}
	return nil
}

// PruneCreatedDirs removes directories created by this sorter that are still
// empty, deepest first, and returns the removed paths.
func (s *Sorter) PruneCreatedDirs() []string {
	dirs := make([]string, len(s.createdDirs))
	copy(dirs, s.createdDirs)
	sort.Slice(dirs, func(i, j int) bool {
		di := strings.Count(dirs[i], string(filepath.Separator))
		dj := strings.Count(dirs[j], string(filepath.Separator))
		if di != dj {
			return di > dj
		}
		return dirs[i] > dirs[j]
	})

	var removed []string
	for _, dir := range dirs {
		entries, err := s.dst.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			continue
		}
		if err := s.dst.Remove(dir); err != nil {
			s.logger.Debug("could not remove empty directory", zap.String("path", dir), zap.Error(err))
			continue
		}
		removed = append(removed, dir)
	}
	return removed
}

func (s *Sorter) sourcePath(rel string) string {
	if s.srcRoot == "" {
		return rel
	}
	return filepath.Join(s.srcRoot, rel)
}

func (s *Sorter) destPath(rel string) string {
	if s.dstRoot == "" {
		return rel
	}
	return filepath.Join(s.dstRoot, rel)
}

func toIOError(err error, path string) *IOError {
	var ioErr *IOError
	if errors.As(err, &ioErr) {
		return ioErr
	}
	return &IOError{Op: "copy", Path: path, Err: err}
}

// emitState delivers a state transition even after cancellation, so the
// final state always reaches a consumer that drains the channel
func emitState(events chan<- Event, state RunState) {
	if events == nil {
		return
	}
	events <- Event{Kind: EventStateChanged, State: state}
}

// emit delivers an event unless the context is cancelled first
func emit(ctx context.Context, events chan<- Event, ev Event) {
	if events == nil {
		return
	}
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}
