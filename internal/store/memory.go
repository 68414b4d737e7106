package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Badar25/Journal-backend/internal/journal"
)

// MemoryBackend keeps records in a map guarded by a RWMutex and searches by
// brute-force cosine similarity. It is meant for tests and local runs.
type MemoryBackend struct {
	mu      sync.RWMutex
	records map[string]Record
	dims    int
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: make(map[string]Record)}
}

// Name implements Backend.
func (m *MemoryBackend) Name() string { return "memory" }

// Init implements Backend.
func (m *MemoryBackend) Init(_ context.Context, dims int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dims != 0 && m.dims != dims {
		return fmt.Errorf("%w: have %d, want %d", ErrDimensionMismatch, m.dims, dims)
	}
	m.dims = dims
	return nil
}

// Put implements Backend.
func (m *MemoryBackend) Put(_ context.Context, rec Record) error {
	vec := make([]float32, len(rec.Vector))
	copy(vec, rec.Vector)
	rec.Vector = vec

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = rec
	return nil
}

// Get implements Backend.
func (m *MemoryBackend) Get(_ context.Context, id string) (journal.Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	return rec.Entry, ok, nil
}

// List implements Backend.
func (m *MemoryBackend) List(_ context.Context, owner string, rng *journal.TimeRange, limit int) ([]journal.Entry, error) {
	m.mu.RLock()
	out := make([]journal.Entry, 0)
	for _, rec := range m.records {
		if rec.OwnerID != owner {
			continue
		}
		if rng != nil && !rng.Contains(rec.CreatedAt) {
			continue
		}
		out = append(out, rec.Entry)
	}
	m.mu.RUnlock()

	sortEntries(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Delete implements Backend.
func (m *MemoryBackend) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

// DeleteByOwner implements Backend.
func (m *MemoryBackend) DeleteByOwner(_ context.Context, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, rec := range m.records {
		if rec.OwnerID == owner {
			delete(m.records, id)
		}
	}
	return nil
}

// DeleteCreatedBefore implements Backend.
func (m *MemoryBackend) DeleteCreatedBefore(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, rec := range m.records {
		if rec.CreatedAt.Unix() < cutoff.Unix() {
			delete(m.records, id)
			n++
		}
	}
	return n, nil
}

// Search implements Backend.
func (m *MemoryBackend) Search(_ context.Context, vector []float32, owner string, limit int) ([]Match, error) {
	m.mu.RLock()
	matches := make([]Match, 0)
	for _, rec := range m.records {
		if rec.OwnerID != owner {
			continue
		}
		matches = append(matches, Match{
			Entry:      rec.Entry,
			Similarity: cosineSimilarity(vector, rec.Vector),
		})
	}
	m.mu.RUnlock()

	return rankMatches(matches, limit), nil
}

// Ping implements Backend.
func (m *MemoryBackend) Ping(context.Context) error { return nil }

// Close implements Backend.
func (m *MemoryBackend) Close() error { return nil }
