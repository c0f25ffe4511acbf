package storage

import (
	"fmt"
	"strings"
)

// Supported backend names.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
	BackendMemory = "memory"
)

// Open creates the storage backend named by backend. path is ignored for memory.
func Open(backend, path string) (Storage, error) {
	switch strings.ToLower(backend) {
	case "", BackendSQLite:
		return NewSQLiteStorage(path)
	case BackendBolt, "bbolt":
		return NewBoltStorage(path)
	case BackendMemory:
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", backend)
	}
}
