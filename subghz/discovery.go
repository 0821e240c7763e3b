package subghz

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"go.uber.org/zap"
)

// Extension is the file extension of SubGHz capture files
const Extension = ".sub"

// IsSubFile checks if the given path has the capture file extension
func IsSubFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), Extension)
}

// ScanResult is the output of a completed scan
type ScanResult struct {
	Plan     SortPlan
	Count    int     // always equal to Plan.Len()
	Scanned  int     // capture files examined, matching or not
	Warnings []error // per-file problems; the files are left out of the plan
}

// Scanner enumerates capture files in a source filesystem and classifies them
// against a FilterSelection. It never modifies the filesystem.
type Scanner struct {
	fs        billy.Filesystem
	filter    FilterSelection
	recursive bool
	exclude   map[string]struct{}
	logger    *zap.Logger
	events    chan<- Event
}

// ScanOption configures a Scanner
type ScanOption func(*Scanner)

// WithRecursive makes the scanner descend into subdirectories
func WithRecursive(recursive bool) ScanOption {
	return func(s *Scanner) { s.recursive = recursive }
}

// WithExcludedDir skips a directory, relative to the source root, during a recursive scan
func WithExcludedDir(dir string) ScanOption {
	return func(s *Scanner) {
		if dir != "" && dir != "." {
			s.exclude[filepath.Clean(dir)] = struct{}{}
		}
	}
}

// WithScanLogger attaches a logger for per-file diagnostics
func WithScanLogger(logger *zap.Logger) ScanOption {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithScanEvents sends an EventScanned for every examined file
func WithScanEvents(events chan<- Event) ScanOption {
	return func(s *Scanner) { s.events = events }
}

// NewScanner creates a scanner rooted at the given filesystem
func NewScanner(fs billy.Filesystem, filter FilterSelection, opts ...ScanOption) *Scanner {
	s := &Scanner{
		fs:      fs,
		filter:  filter,
		exclude: make(map[string]struct{}),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan lists candidate files, parses their headers and builds the sort plan.
// Only a failure to list the source root is returned as an error.
func (s *Scanner) Scan(ctx context.Context) (*ScanResult, error) {
	result := &ScanResult{}

	candidates, err := s.listDir(".", result)
	if err != nil {
		return nil, &IOError{Op: "read", Path: ".", Err: err}
	}

	for i, info := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Scanned++
		emit(ctx, s.events, Event{Kind: EventScanned, Index: i + 1, Total: len(candidates), Source: info.path})

		file, err := readSubFile(s.fs, info.path, info.FileInfo)
		if err != nil {
			s.logger.Warn("skipping unparsable file", zap.String("path", info.path), zap.Error(err))
			result.Warnings = append(result.Warnings, err)
			continue
		}

		if !s.filter.Matches(*file) {
			s.logger.Debug("file filtered out",
				zap.String("path", file.Path),
				zap.Uint64("frequency", file.Frequency),
				zap.String("protocol", file.Protocol))
			continue
		}

		result.Plan.Entries = append(result.Plan.Entries, PlanEntry{
			File:    *file,
			DestDir: DestinationDir(file.Frequency, file.Protocol),
		})
	}

	result.Count = result.Plan.Len()
	return result, nil
}

type candidate struct {
	os.FileInfo
	path string
}

// listDir returns capture files under dir sorted by path. Unreadable
// subdirectories are recorded as warnings rather than failing the scan.
func (s *Scanner) listDir(dir string, result *ScanResult) ([]candidate, error) {
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var files []candidate
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			if !s.recursive {
				continue
			}
			if _, skip := s.exclude[path]; skip {
				s.logger.Debug("skipping excluded directory", zap.String("path", path))
				continue
			}
			sub, err := s.listDir(path, result)
			if err != nil {
				result.Warnings = append(result.Warnings, &IOError{Op: "read", Path: path, Err: err})
				continue
			}
			files = append(files, sub...)
			continue
		}

		if !entry.Mode().IsRegular() || !IsSubFile(entry.Name()) {
			continue
		}
		files = append(files, candidate{FileInfo: entry, path: path})
	}

	return files, nil
}

// ReadSubFile parses a single capture file
func ReadSubFile(fs billy.Filesystem, path string) (*SubFile, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return nil, &IOError{Op: "stat", Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &IOError{Op: "read", Path: path, Err: errors.New("is a directory")}
	}
	return readSubFile(fs, path, info)
}

func readSubFile(fs billy.Filesystem, path string, info os.FileInfo) (*SubFile, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	header, err := ParseHeader(f)
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			parseErr.Path = path
			return nil, parseErr
		}
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return &SubFile{
		Path:      path,
		Name:      filepath.Base(path),
		Frequency: header.Frequency,
		Protocol:  header.Protocol,
		Filetype:  header.Filetype,
		Version:   header.Version,
		Preset:    header.Preset,
		Size:      info.Size(),
		ModTime:   info.ModTime(),
	}, nil
}

// DestinationDir returns the directory, relative to the destination root, for
// a frequency and protocol pair: <frequency-bucket>/<protocol>
func DestinationDir(frequency uint64, protocol string) string {
	return filepath.Join(BucketLabel(frequency), ProtocolLabel(protocol))
}
