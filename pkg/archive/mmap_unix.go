//go:build unix

package archive

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// mapFile maps path read-only. The returned function unmaps it; the bytes
// must not be used afterwards.
func mapFile(path string) ([]byte, func() error, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("opening archive %s: %w", path, err)
	}
	defer unix.Close(fd)

	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		return nil, nil, fmt.Errorf("stating archive %s: %w", path, err)
	}
	if stat.Size == 0 {
		return nil, func() error { return nil }, nil
	}

	data, err := unix.Mmap(fd, 0, int(stat.Size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, fmt.Errorf("memory-mapping archive %s: %w", path, err)
	}
	return data, func() error { return unix.Munmap(data) }, nil
}
