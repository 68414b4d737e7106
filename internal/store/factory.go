package store

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Backend names accepted by STORE_BACKEND.
const (
	BackendQdrant = "qdrant"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// BackendFromEnv opens the backend selected by STORE_BACKEND (default
// qdrant).
//
//	qdrant  QDRANT_HOST, QDRANT_PORT, QDRANT_COLLECTION, QDRANT_API_KEY, QDRANT_TLS
//	sqlite  SQLITE_PATH (default ~/.journal/journal.db)
//	memory  no settings; entries are lost on exit
func BackendFromEnv() (Backend, error) {
	name := strings.ToLower(strings.TrimSpace(os.Getenv("STORE_BACKEND")))
	switch name {
	case "", BackendQdrant:
		port := 0
		if v := os.Getenv("QDRANT_PORT"); v != "" {
			p, err := strconv.Atoi(v)
			if err != nil || p <= 0 {
				return nil, fmt.Errorf("store: QDRANT_PORT must be a positive integer, got %q", v)
			}
			port = p
		}
		b, err := NewQdrantBackend(&QdrantConfig{
			Host:       os.Getenv("QDRANT_HOST"),
			Port:       port,
			Collection: os.Getenv("QDRANT_COLLECTION"),
			APIKey:     os.Getenv("QDRANT_API_KEY"),
			UseTLS:     strings.EqualFold(os.Getenv("QDRANT_TLS"), "true"),
		})
		if err != nil {
			return nil, err
		}
		return b, nil

	case BackendSQLite:
		path := os.Getenv("SQLITE_PATH")
		if path == "" {
			p, err := DefaultSQLitePath()
			if err != nil {
				return nil, err
			}
			path = p
		}
		b, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return b, nil

	case BackendMemory:
		return NewMemoryBackend(), nil

	default:
		return nil, fmt.Errorf("store: unsupported STORE_BACKEND %q (want qdrant, sqlite or memory)", name)
	}
}

// ListLimitFromEnv reads STORE_LIST_LIMIT. Unset or invalid means
// DefaultListLimit.
func ListLimitFromEnv() int {
	if v := os.Getenv("STORE_LIST_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return DefaultListLimit
}
