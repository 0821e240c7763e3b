package subghz

import (
	"hash/crc32"
	"io"

	"github.com/go-git/go-billy/v5"
)

// CalculateCRC32 calculates the CRC32 checksum of a file in the given filesystem
func CalculateCRC32(fs billy.Filesystem, filename string) (uint32, error) {
	f, err := fs.Open(filename)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	h := crc32.NewIEEE()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}

	return h.Sum32(), nil
}
