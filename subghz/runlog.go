package subghz

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/go-git/go-billy/v5"
)

// DefaultLogFile is the run log name, relative to the destination root
const DefaultLogFile = "sort_log.txt"

// LogRecord is one copied file
type LogRecord struct {
	Source      string
	Destination string
}

func (r LogRecord) String() string {
	return r.Source + " -> " + r.Destination
}

// RunLog collects copy records in order and writes them out at the end of a run
type RunLog struct {
	records []LogRecord
}

// Append adds a record
func (l *RunLog) Append(source, destination string) {
	l.records = append(l.records, LogRecord{Source: source, Destination: destination})
}

// Len returns the number of records
func (l *RunLog) Len() int {
	return len(l.records)
}

// Records returns a copy of the collected records
func (l *RunLog) Records() []LogRecord {
	out := make([]LogRecord, len(l.records))
	copy(out, l.records)
	return out
}

// WriteTo writes one "<source> -> <destination>" line per record
func (l *RunLog) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var total int64
	for _, rec := range l.records {
		n, err := fmt.Fprintln(bw, rec.String())
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, bw.Flush()
}

// Flush writes the log to name inside fs, replacing any previous log
func (l *RunLog) Flush(fs billy.Filesystem, name string) error {
	f, err := fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return &IOError{Op: "log", Path: name, Err: err}
	}

	if _, err := l.WriteTo(f); err != nil {
		_ = f.Close()
		return &IOError{Op: "log", Path: name, Err: err}
	}
	if err := f.Close(); err != nil {
		return &IOError{Op: "log", Path: name, Err: err}
	}
	return nil
}
