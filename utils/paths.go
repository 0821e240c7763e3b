package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// IsWithin reports whether child lies strictly inside parent and returns the
// relative path from parent to child. Both paths are made absolute first.
func IsWithin(parent, child string) (string, bool) {
	absParent, err := filepath.Abs(parent)
	if err != nil {
		return "", false
	}
	absChild, err := filepath.Abs(child)
	if err != nil {
		return "", false
	}

	rel, err := filepath.Rel(absParent, absChild)
	if err != nil || rel == "." {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", false
	}
	return rel, true
}

// SamePath reports whether two paths resolve to the same absolute location
func SamePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// SameFile reports whether two existing paths refer to the same file on
// disk, following links. Missing files are never the same.
func SameFile(a, b string) bool {
	infoA, err := os.Stat(a)
	if err != nil {
		return false
	}
	infoB, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(infoA, infoB)
}

// IsNetworkPath detects paths that are likely on a network mount, where
// copies are slower and timestamps may not be preserved
func IsNetworkPath(path string) bool {
	if strings.HasPrefix(path, "//") || strings.HasPrefix(path, `\\`) {
		return true
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	for _, prefix := range []string{"/mnt/", "/media/", "/Volumes/"} {
		if strings.HasPrefix(absPath, prefix) {
			return true
		}
	}

	lower := strings.ToLower(absPath)
	for _, marker := range []string{"nfs", "cifs", "smb", "webdav", "sftp"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
