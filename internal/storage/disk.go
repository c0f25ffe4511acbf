package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// DatabaseFiles lists the files a backend keeps on disk for path.
// SQLite in WAL mode writes -wal and -shm files next to the database.
func DatabaseFiles(backend, path string) []string {
	switch backend {
	case BackendMemory:
		return nil
	case BackendBolt, "bbolt":
		return []string{path}
	default:
		if path == "" || path == ":memory:" {
			return nil
		}
		return []string{path, path + "-wal", path + "-shm"}
	}
}

// DiskUsage sums the size of the database files backend keeps for path.
// Files that do not exist yet count as zero.
func DiskUsage(backend, path string) (int64, error) {
	var total int64
	for _, name := range DatabaseFiles(backend, path) {
		info, err := os.Stat(name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("stat %s: %w", name, err)
		}
		if !info.Mode().IsRegular() {
			return 0, fmt.Errorf("%s is not a regular file", name)
		}
		total += info.Size()
	}
	return total, nil
}
