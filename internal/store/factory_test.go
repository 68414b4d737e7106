package store

import (
	"path/filepath"
	"testing"
)

func Test_BackendFromEnv(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	b, err := BackendFromEnv()
	if err != nil || b.Name() != "memory" {
		t.Fatalf("memory: %v %v", b, err)
	}

	t.Setenv("STORE_BACKEND", "SQLite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "j.db"))
	b, err = BackendFromEnv()
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	if b.Name() != "sqlite" {
		t.Errorf("name = %q", b.Name())
	}
	_ = b.Close()

	t.Setenv("STORE_BACKEND", "qdrant")
	t.Setenv("QDRANT_PORT", "grpc")
	if _, err := BackendFromEnv(); err == nil {
		t.Error("expected error for non-numeric QDRANT_PORT")
	}

	t.Setenv("STORE_BACKEND", "postgres")
	if _, err := BackendFromEnv(); err == nil {
		t.Error("expected error for unsupported backend")
	}
}

func Test_ListLimitFromEnv(t *testing.T) {
	t.Setenv("STORE_LIST_LIMIT", "")
	if got := ListLimitFromEnv(); got != DefaultListLimit {
		t.Errorf("unset = %d", got)
	}
	t.Setenv("STORE_LIST_LIMIT", "25")
	if got := ListLimitFromEnv(); got != 25 {
		t.Errorf("25 = %d", got)
	}
	t.Setenv("STORE_LIST_LIMIT", "-3")
	if got := ListLimitFromEnv(); got != DefaultListLimit {
		t.Errorf("negative = %d", got)
	}
}
