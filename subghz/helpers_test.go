package subghz

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"
)

// captureFile renders a Flipper key file with the given frequency and protocol
func captureFile(frequency, protocol string) string {
	return fmt.Sprintf("Filetype: Flipper SubGhz Key File\n"+
		"Version: 1\n"+
		"Frequency: %s\n"+
		"Preset: FuriHalSubGhzPresetOok650Async\n"+
		"Protocol: %s\n"+
		"Bit: 24\n"+
		"Key: 00 00 00 00 00 95 D5 D4\n"+
		"TE: 400\n", frequency, protocol)
}

func writeFile(t *testing.T, fs billy.Filesystem, name, content string) {
	t.Helper()
	require.NoError(t, util.WriteFile(fs, name, []byte(content), 0o644))
}

func readFile(t *testing.T, fs billy.Filesystem, name string) string {
	t.Helper()
	data, err := util.ReadFile(fs, name)
	require.NoError(t, err)
	return string(data)
}

// snapshot returns every regular file below dir with its content
func snapshot(t *testing.T, fs billy.Filesystem, dir string) map[string]string {
	t.Helper()
	files := make(map[string]string)

	entries, err := fs.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			for k, v := range snapshot(t, fs, path) {
				files[k] = v
			}
			continue
		}
		files[path] = readFile(t, fs, path)
	}
	return files
}

func exists(fs billy.Filesystem, path string) bool {
	_, err := fs.Stat(path)
	return err == nil
}

// fullDisk refuses to create files once its quota is used up
type fullDisk struct {
	billy.Filesystem
	remaining int
}

func (f *fullDisk) OpenFile(name string, flag int, perm os.FileMode) (billy.File, error) {
	if flag&os.O_CREATE != 0 {
		if f.remaining <= 0 {
			return nil, &os.PathError{Op: "open", Path: name, Err: syscall.ENOSPC}
		}
		f.remaining--
	}
	return f.Filesystem.OpenFile(name, flag, perm)
}

// cancelAfterCreate cancels a context once the first file has been created
type cancelAfterCreate struct {
	billy.Filesystem
	cancel context.CancelFunc
}

func (c *cancelAfterCreate) OpenFile(name string, flag int, perm os.FileMode) (billy.File, error) {
	f, err := c.Filesystem.OpenFile(name, flag, perm)
	if flag&os.O_CREATE != 0 {
		c.cancel()
	}
	return f, err
}

// shortWrites lets each created file take limit bytes before the disk fills up
type shortWrites struct {
	billy.Filesystem
	limit int
}

func (s *shortWrites) OpenFile(name string, flag int, perm os.FileMode) (billy.File, error) {
	f, err := s.Filesystem.OpenFile(name, flag, perm)
	if err != nil || flag&os.O_CREATE == 0 {
		return f, err
	}
	return &shortFile{File: f, remaining: s.limit}, nil
}

type shortFile struct {
	billy.File
	remaining int
}

func (f *shortFile) Write(p []byte) (int, error) {
	if len(p) <= f.remaining {
		f.remaining -= len(p)
		return f.File.Write(p)
	}
	n, err := f.File.Write(p[:f.remaining])
	f.remaining -= n
	if err != nil {
		return n, err
	}
	return n, &os.PathError{Op: "write", Path: f.Name(), Err: syscall.ENOSPC}
}
