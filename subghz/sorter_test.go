package subghz

import (
	"context"
	"fmt"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, fs billy.Filesystem) SortPlan {
	t.Helper()
	result, err := NewScanner(fs, NewFilterSelection(nil, nil)).Scan(context.Background())
	require.NoError(t, err)
	return result.Plan
}

func TestParseConflictPolicy(t *testing.T) {
	tests := []struct {
		input   string
		want    ConflictPolicy
		wantErr bool
	}{
		{"", ConflictRename, false},
		{"rename", ConflictRename, false},
		{"SKIP", ConflictSkip, false},
		{"overwrite", ConflictOverwrite, false},
		{"delete", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseConflictPolicy(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSort_CopiesIntoLayout(t *testing.T) {
	src := memfs.New()
	gate := captureFile("433920000", "Princeton")
	garage := captureFile("315000000", "Security+ 2.0")
	writeFile(t, src, "gate.sub", gate)
	writeFile(t, src, "garage.sub", garage)

	dst := memfs.New()
	result := NewSorter(src, dst).Sort(context.Background(), scanAll(t, src), nil)

	assert.Equal(t, 2, result.Copied)
	assert.Empty(t, result.Failures)
	assert.Equal(t, map[string]string{
		filepath.Join("433.92", "Princeton", "gate.sub"):       gate,
		filepath.Join("315.00", "Security+ 2.0", "garage.sub"): garage,
	}, snapshot(t, dst, "."))

	// source is untouched
	assert.Equal(t, gate, readFile(t, src, "gate.sub"))
}

func TestSort_Idempotent(t *testing.T) {
	for _, policy := range []ConflictPolicy{ConflictRename, ConflictSkip, ConflictOverwrite} {
		t.Run(string(policy), func(t *testing.T) {
			src := memfs.New()
			writeFile(t, src, "a.sub", captureFile("433920000", "Princeton"))
			writeFile(t, src, "b.sub", captureFile("433920000", "Princeton"))
			writeFile(t, src, "c.sub", captureFile("868350000", "KeeLoq"))
			plan := scanAll(t, src)

			dst := memfs.New()
			first := NewSorter(src, dst, WithConflictPolicy(policy)).Sort(context.Background(), plan, nil)
			require.Equal(t, 3, first.Copied)
			once := snapshot(t, dst, ".")

			second := NewSorter(src, dst, WithConflictPolicy(policy)).Sort(context.Background(), plan, nil)
			assert.Empty(t, second.Failures)
			assert.Equal(t, once, snapshot(t, dst, "."))
			assert.Zero(t, second.Copied)
			require.Len(t, second.Skipped, 3)

			want := ReasonIdentical
			if policy == ConflictSkip {
				want = ReasonExists
			}
			for _, skipped := range second.Skipped {
				assert.Equal(t, want, skipped.Reason)
			}
		})
	}
}

func TestSort_RenameOnConflict(t *testing.T) {
	src := memfs.New()
	writeFile(t, src, "gate.sub", captureFile("433920000", "Princeton"))

	dst := memfs.New()
	existing := filepath.Join("433.92", "Princeton", "gate.sub")
	writeFile(t, dst, existing, "a different capture")

	result := NewSorter(src, dst).Sort(context.Background(), scanAll(t, src), nil)
	require.Equal(t, 1, result.Copied)

	assert.Equal(t, "a different capture", readFile(t, dst, existing))
	assert.Equal(t, captureFile("433920000", "Princeton"),
		readFile(t, dst, filepath.Join("433.92", "Princeton", "gate_1.sub")))

	// running again finds the identical copy under the suffixed name
	again := NewSorter(src, dst).Sort(context.Background(), scanAll(t, src), nil)
	assert.Zero(t, again.Copied)
	require.Len(t, again.Skipped, 1)
	assert.Equal(t, ReasonIdentical, again.Skipped[0].Reason)
	assert.Equal(t, filepath.Join("433.92", "Princeton", "gate_1.sub"), again.Skipped[0].Destination)
}

func TestSort_RenameFindsIdenticalBehindDifferentVariant(t *testing.T) {
	src := memfs.New()
	content := captureFile("433920000", "Princeton")
	writeFile(t, src, "gate.sub", content)

	dst := memfs.New()
	dir := filepath.Join("433.92", "Princeton")
	writeFile(t, dst, filepath.Join(dir, "gate.sub"), "a different capture")
	writeFile(t, dst, filepath.Join(dir, "gate_2.sub"), content)

	result := NewSorter(src, dst).Sort(context.Background(), scanAll(t, src), nil)
	assert.Zero(t, result.Copied)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, ReasonIdentical, result.Skipped[0].Reason)
	assert.Equal(t, filepath.Join(dir, "gate_2.sub"), result.Skipped[0].Destination)
	assert.False(t, exists(dst, filepath.Join(dir, "gate_1.sub")))
}

func TestSort_RenameSameSizeDifferentContent(t *testing.T) {
	src := memfs.New()
	content := captureFile("433920000", "Princeton")
	writeFile(t, src, "gate.sub", content)

	dst := memfs.New()
	sameSize := make([]byte, len(content))
	for i := range sameSize {
		sameSize[i] = 'z'
	}
	writeFile(t, dst, filepath.Join("433.92", "Princeton", "gate.sub"), string(sameSize))

	result := NewSorter(src, dst).Sort(context.Background(), scanAll(t, src), nil)
	require.Equal(t, 1, result.Copied)
	assert.True(t, exists(dst, filepath.Join("433.92", "Princeton", "gate_1.sub")))
}

func TestSort_SkipPolicy(t *testing.T) {
	src := memfs.New()
	writeFile(t, src, "gate.sub", captureFile("433920000", "Princeton"))

	dst := memfs.New()
	existing := filepath.Join("433.92", "Princeton", "gate.sub")
	writeFile(t, dst, existing, "keep me")

	result := NewSorter(src, dst, WithConflictPolicy(ConflictSkip)).Sort(context.Background(), scanAll(t, src), nil)
	assert.Zero(t, result.Copied)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, ReasonExists, result.Skipped[0].Reason)
	assert.Equal(t, "keep me", readFile(t, dst, existing))
}

func TestSort_OverwritePolicy(t *testing.T) {
	src := memfs.New()
	writeFile(t, src, "gate.sub", captureFile("433920000", "Princeton"))

	dst := memfs.New()
	existing := filepath.Join("433.92", "Princeton", "gate.sub")
	writeFile(t, dst, existing, "replace me, I am a much longer file than the capture that replaces me")

	result := NewSorter(src, dst, WithConflictPolicy(ConflictOverwrite)).Sort(context.Background(), scanAll(t, src), nil)
	assert.Equal(t, 1, result.Copied)
	assert.Equal(t, captureFile("433920000", "Princeton"), readFile(t, dst, existing))
}

func TestSort_OverwriteSkipsIdenticalTarget(t *testing.T) {
	src := memfs.New()
	content := captureFile("433920000", "Princeton")
	writeFile(t, src, "gate.sub", content)

	dst := memfs.New()
	existing := filepath.Join("433.92", "Princeton", "gate.sub")
	writeFile(t, dst, existing, content)

	result := NewSorter(src, dst, WithConflictPolicy(ConflictOverwrite)).Sort(context.Background(), scanAll(t, src), nil)
	assert.Zero(t, result.Copied)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, ReasonIdentical, result.Skipped[0].Reason)
	assert.Equal(t, content, readFile(t, dst, existing))
}

func TestSort_SameFileGuard(t *testing.T) {
	fs := memfs.New()
	content := captureFile("433920000", "Princeton")
	source := filepath.Join("433.92", "Princeton", "gate.sub")
	writeFile(t, fs, source, content)

	sameFile := func(srcRel, dstRel string) bool { return srcRel == dstRel }
	for _, policy := range []ConflictPolicy{ConflictRename, ConflictSkip, ConflictOverwrite} {
		t.Run(string(policy), func(t *testing.T) {
			sorter := NewSorter(fs, fs, WithConflictPolicy(policy), WithSameFileCheck(sameFile))
			result := sorter.Sort(context.Background(), scanAll(t, fs), nil)

			assert.Zero(t, result.Copied)
			assert.Empty(t, result.Failures)
			require.Len(t, result.Skipped, 1)
			assert.Equal(t, ReasonSameFile, result.Skipped[0].Reason)
			assert.Equal(t, content, readFile(t, fs, source))
		})
	}
}

func TestSort_PartialCopyIsRemoved(t *testing.T) {
	src := memfs.New()
	writeFile(t, src, "gate.sub", captureFile("433920000", "Princeton"))

	dst := &shortWrites{Filesystem: memfs.New(), limit: 16}
	result := NewSorter(src, dst).Sort(context.Background(), scanAll(t, src), nil)

	assert.Zero(t, result.Copied)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "copy", result.Failures[0].Op)
	assert.ErrorIs(t, result.Failures[0], syscall.ENOSPC)
	assert.False(t, exists(dst, filepath.Join("433.92", "Princeton", "gate.sub")))
}

func TestSort_DiskFull(t *testing.T) {
	src := memfs.New()
	for i := 1; i <= 5; i++ {
		writeFile(t, src, fmt.Sprintf("capture%d.sub", i), captureFile("433920000", "Princeton"))
	}

	dst := &fullDisk{Filesystem: memfs.New(), remaining: 2}
	result := NewSorter(src, dst).Sort(context.Background(), scanAll(t, src), nil)

	assert.Equal(t, 2, result.Copied)
	require.Len(t, result.Failures, 3)
	for _, failure := range result.Failures {
		assert.Equal(t, "copy", failure.Op)
		assert.ErrorIs(t, failure, syscall.ENOSPC)
	}
	assert.False(t, result.Cancelled)
}

func TestSort_EventsAndRunLog(t *testing.T) {
	src := memfs.New()
	writeFile(t, src, "a.sub", captureFile("433920000", "Princeton"))
	writeFile(t, src, "b.sub", captureFile("433920000", "Princeton"))
	writeFile(t, src, "c.sub", captureFile("315000000", "RAW"))

	dst := &fullDisk{Filesystem: memfs.New(), remaining: 2}
	log := &RunLog{}
	events := make(chan Event, 16)

	result := NewSorter(src, dst,
		WithRunLog(log),
		WithDisplayRoots("/captures", "/sorted"),
	).Sort(context.Background(), scanAll(t, src), events)
	close(events)

	var got []Event
	for ev := range events {
		got = append(got, ev)
	}
	require.Len(t, got, 4)

	assert.Equal(t, EventStarted, got[0].Kind)
	assert.Equal(t, 3, got[0].Total)

	assert.Equal(t, EventCopied, got[1].Kind)
	assert.Equal(t, 1, got[1].Index)
	assert.Equal(t, filepath.Join("/captures", "a.sub"), got[1].Source)
	assert.Equal(t, filepath.Join("/sorted", "433.92", "Princeton", "a.sub"), got[1].Destination)

	assert.Equal(t, EventCopied, got[2].Kind)
	assert.Equal(t, 2, got[2].Index)

	assert.Equal(t, EventFailed, got[3].Kind)
	assert.Equal(t, 3, got[3].Index)
	assert.Equal(t, 3, got[3].Total)
	assert.Error(t, got[3].Err)

	assert.Equal(t, 2, result.Copied)
	assert.Equal(t, []LogRecord{
		{Source: filepath.Join("/captures", "a.sub"), Destination: filepath.Join("/sorted", "433.92", "Princeton", "a.sub")},
		{Source: filepath.Join("/captures", "b.sub"), Destination: filepath.Join("/sorted", "433.92", "Princeton", "b.sub")},
	}, log.Records())
}

func TestSort_CancelledBetweenCopies(t *testing.T) {
	src := memfs.New()
	for i := 1; i <= 3; i++ {
		writeFile(t, src, fmt.Sprintf("capture%d.sub", i), captureFile("433920000", "Princeton"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dst := &cancelAfterCreate{Filesystem: memfs.New(), cancel: cancel}

	result := NewSorter(src, dst).Sort(ctx, scanAll(t, src), nil)

	assert.True(t, result.Cancelled)
	assert.Equal(t, 1, result.Copied)
	assert.Empty(t, result.Failures)
	// the finished copy stays
	assert.True(t, exists(dst, filepath.Join("433.92", "Princeton", "capture1.sub")))
}

func TestSort_PruneCreatedDirs(t *testing.T) {
	src := memfs.New()
	writeFile(t, src, "a.sub", captureFile("433920000", "Princeton"))
	writeFile(t, src, "b.sub", captureFile("315000000", "RAW"))

	mem := memfs.New()
	require.NoError(t, mem.MkdirAll("keep", 0o755))
	dst := &fullDisk{Filesystem: mem, remaining: 1}

	sorter := NewSorter(src, dst)
	result := sorter.Sort(context.Background(), scanAll(t, src), nil)
	require.Equal(t, 1, result.Copied)
	require.Len(t, result.Failures, 1)

	removed := sorter.PruneCreatedDirs()
	assert.Equal(t, []string{filepath.Join("315.00", "RAW"), "315.00"}, removed)

	assert.True(t, exists(mem, filepath.Join("433.92", "Princeton", "a.sub")))
	assert.False(t, exists(mem, "315.00"))
	assert.True(t, exists(mem, "keep"), "pre-existing empty directories are left alone")
}
