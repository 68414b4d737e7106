package store

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/Badar25/Journal-backend/internal/journal"
)

// ErrDimensionMismatch is returned by Backend.Init when the backend already
// holds vectors of a different size than the configured embedder produces.
var ErrDimensionMismatch = errors.New("store: vector dimension mismatch")

// Record is an entry together with the embedding of its content.
type Record struct {
	journal.Entry

	// Vector is the content embedding. Its length equals the store's
	// configured dimensionality.
	Vector []float32
}

// Match is a similarity-search hit.
type Match struct {
	journal.Entry

	// Similarity is the cosine similarity between the query and the entry.
	Similarity float32
}

// Backend is the persistence layer behind an EntryStore.
// Implementations must be safe for concurrent use, and every single-entry
// write must be atomic: a concurrent reader sees either the old or the new
// version of an entry, never a mix.
type Backend interface {
	// Name identifies the backend in logs and readiness checks.
	Name() string

	// Init prepares the backend for vectors of size dims, creating
	// collections or tables on first use. It returns ErrDimensionMismatch
	// when existing data was written with a different size.
	Init(ctx context.Context, dims int) error

	// Put inserts or fully replaces the record with the same ID.
	Put(ctx context.Context, rec Record) error

	// Get returns the entry with the given ID. found is false when absent.
	Get(ctx context.Context, id string) (e journal.Entry, found bool, err error)

	// List returns up to limit entries owned by owner, restricted to rng
	// when non-nil, ordered by CreatedAt then ID ascending.
	List(ctx context.Context, owner string, rng *journal.TimeRange, limit int) ([]journal.Entry, error)

	// Delete removes the entry with the given ID. Deleting an absent ID
	// succeeds.
	Delete(ctx context.Context, id string) error

	// DeleteByOwner removes every entry owned by owner.
	DeleteByOwner(ctx context.Context, owner string) error

	// DeleteCreatedBefore removes every entry with CreatedAt strictly before
	// cutoff and reports how many were removed.
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int, error)

	// Search returns up to limit entries owned by owner, ordered by cosine
	// similarity descending then ID ascending.
	Search(ctx context.Context, vector []float32, owner string, limit int) ([]Match, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the backend.
	Close() error
}

// cosineSimilarity computes the cosine of the angle between a and b.
// Mismatched lengths and zero vectors score 0.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// rankMatches orders matches by similarity descending, breaking ties by ID
// ascending, and truncates to limit.
func rankMatches(matches []Match, limit int) []Match {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].ID < matches[j].ID
	})
	if limit >= 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// sortEntries orders entries by CreatedAt then ID ascending.
func sortEntries(entries []journal.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		ti, tj := entries[i].CreatedAt.Unix(), entries[j].CreatedAt.Unix()
		if ti != tj {
			return ti < tj
		}
		return entries[i].ID < entries[j].ID
	})
}
