// Package store persists journal entries together with the embedding of
// their content and answers owner-scoped listing and similarity queries.
//
// EntryStore holds the write-time rules (required fields, word cap,
// timestamps, embedding) and converts backend failures into result kinds.
// Backends (memory, SQLite, Qdrant) only move records in and out.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Badar25/Journal-backend/internal/journal"
	"github.com/Badar25/Journal-backend/internal/rag"
	"github.com/Badar25/Journal-backend/internal/result"
)

const (
	// MaxContentWords caps the whitespace-separated words in an entry's content.
	MaxContentWords = 999

	// DefaultListLimit is the page size applied by ListByOwner.
	DefaultListLimit = 100
)

// Options tunes an EntryStore.
type Options struct {
	// Dimensions is the embedding size every stored vector must have.
	Dimensions int

	// ListLimit caps ListByOwner results. Zero means DefaultListLimit.
	ListLimit int

	// Now supplies write timestamps. Nil means time.Now.
	Now func() time.Time
}

// EntryStore is the single source of truth for journal entries.
// It is safe for concurrent use.
type EntryStore struct {
	// backend persists records.
	backend Backend

	// embedder produces content vectors on write.
	embedder rag.Embedder

	// dims is the required vector length.
	dims int

	// listLimit caps ListByOwner.
	listLimit int

	// now supplies CreatedAt.
	now func() time.Time
}

// New initialises backend for opts.Dimensions and returns an EntryStore.
// It fails when the backend already holds vectors of another size.
func New(ctx context.Context, backend Backend, embedder rag.Embedder, opts Options) (*EntryStore, error) {
	if backend == nil {
		return nil, fmt.Errorf("store: backend must not be nil")
	}
	if embedder == nil {
		return nil, fmt.Errorf("store: embedder must not be nil")
	}
	if opts.Dimensions <= 0 {
		return nil, fmt.Errorf("store: dimensions must be positive, got %d", opts.Dimensions)
	}
	if err := backend.Init(ctx, opts.Dimensions); err != nil {
		return nil, fmt.Errorf("store: init %s backend: %w", backend.Name(), err)
	}
	if opts.ListLimit <= 0 {
		opts.ListLimit = DefaultListLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &EntryStore{
		backend:   backend,
		embedder:  embedder,
		dims:      opts.Dimensions,
		listLimit: opts.ListLimit,
		now:       opts.Now,
	}, nil
}

// Backend returns the underlying backend, for readiness checks.
func (s *EntryStore) Backend() Backend { return s.backend }

// Dimensions returns the configured vector size.
func (s *EntryStore) Dimensions() int { return s.dims }

// Upsert validates e, embeds its content, stamps CreatedAt with the current
// time and writes it, fully replacing any entry with the same ID.
// Only the content is embedded; a title-only entry embeds the empty string.
func (s *EntryStore) Upsert(ctx context.Context, e journal.Entry) result.Result[string] {
	if e.ID == "" || e.OwnerID == "" {
		return result.Err[string](result.KindMissingFields, "Missing required fields",
			"entry_id", e.ID, "user_id", e.OwnerID)
	}
	if strings.TrimSpace(e.Title) == "" && strings.TrimSpace(e.Content) == "" {
		return result.Err[string](result.KindEmptyFields,
			"At least one field (title or content) must be provided", "entry_id", e.ID)
	}
	if n := len(strings.Fields(e.Content)); n > MaxContentWords {
		return result.Err[string](result.KindContentTooLong,
			fmt.Sprintf("Content exceeds %d words", MaxContentWords), "entry_id", e.ID, "words", n)
	}

	vec := rag.EmbedOne(ctx, s.embedder, e.Content, s.dims)
	if !vec.IsOk() {
		return result.Fail[string](vec)
	}

	e.CreatedAt = s.now().UTC().Truncate(time.Second)
	if err := s.backend.Put(ctx, Record{Entry: e, Vector: vec.Value()}); err != nil {
		return result.Wrap[string](result.KindSaveError, "Failed to save journal", err,
			"entry_id", e.ID, "backend", s.backend.Name())
	}
	return result.Ok(e.ID)
}

// Get returns the entry with the given ID.
func (s *EntryStore) Get(ctx context.Context, id string) result.Result[journal.Entry] {
	if id == "" {
		return result.Err[journal.Entry](result.KindMissingJournalID, "Journal ID is required")
	}
	e, found, err := s.backend.Get(ctx, id)
	if err != nil {
		return result.Wrap[journal.Entry](result.KindRetrievalError, "Failed to retrieve journal", err,
			"entry_id", id, "backend", s.backend.Name())
	}
	if !found {
		return result.Err[journal.Entry](result.KindJournalNotFound, "Journal not found", "entry_id", id)
	}
	return result.Ok(e)
}

// ListByOwner returns the owner's entries, optionally restricted to rng,
// capped at the configured list limit. Ordering is CreatedAt then ID
// ascending, though callers should not rely on it.
func (s *EntryStore) ListByOwner(ctx context.Context, owner string, rng *journal.TimeRange) result.Result[[]journal.Entry] {
	if owner == "" {
		return result.Err[[]journal.Entry](result.KindMissingUserID, "User ID is required")
	}
	entries, err := s.backend.List(ctx, owner, rng, s.listLimit)
	if err != nil {
		return result.Wrap[[]journal.Entry](result.KindRetrievalError, "Failed to retrieve journals", err,
			"user_id", owner, "backend", s.backend.Name())
	}
	return result.Ok(entries)
}

// DeleteByID removes one entry. Deleting an absent ID succeeds.
func (s *EntryStore) DeleteByID(ctx context.Context, id string) result.Result[struct{}] {
	if id == "" {
		return result.Err[struct{}](result.KindMissingJournalID, "Journal ID is required")
	}
	if err := s.backend.Delete(ctx, id); err != nil {
		return result.Wrap[struct{}](result.KindDeleteError, "Failed to delete journal", err,
			"entry_id", id, "backend", s.backend.Name())
	}
	return result.Ok(struct{}{})
}

// DeleteByOwner removes every entry owned by owner.
func (s *EntryStore) DeleteByOwner(ctx context.Context, owner string) result.Result[struct{}] {
	if owner == "" {
		return result.Err[struct{}](result.KindMissingUserID, "User ID is required")
	}
	if err := s.backend.DeleteByOwner(ctx, owner); err != nil {
		return result.Wrap[struct{}](result.KindDeleteError, "Failed to delete journals", err,
			"user_id", owner, "backend", s.backend.Name())
	}
	return result.Ok(struct{}{})
}

// DeleteOlderThan removes every entry created strictly before cutoff,
// across all owners, and reports how many were removed.
func (s *EntryStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) result.Result[int] {
	n, err := s.backend.DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		return result.Wrap[int](result.KindDeleteError, "Failed to delete expired journals", err,
			"cutoff", cutoff.Format(time.RFC3339), "backend", s.backend.Name())
	}
	return result.Ok(n)
}

// SimilaritySearch returns at most limit of owner's entries, most similar to
// vector first. Equal similarities are ordered by entry ID.
func (s *EntryStore) SimilaritySearch(ctx context.Context, vector []float32, owner string, limit int) result.Result[[]journal.Entry] {
	if owner == "" {
		return result.Err[[]journal.Entry](result.KindMissingUserID, "User ID is required")
	}
	if len(vector) != s.dims {
		return result.Err[[]journal.Entry](result.KindSearchError,
			fmt.Sprintf("Failed to search journals: query vector has %d dimensions, want %d", len(vector), s.dims))
	}
	if limit <= 0 {
		return result.Ok([]journal.Entry{})
	}
	matches, err := s.backend.Search(ctx, vector, owner, limit)
	if err != nil {
		return result.Wrap[[]journal.Entry](result.KindSearchError, "Failed to search journals", err,
			"user_id", owner, "backend", s.backend.Name())
	}
	out := make([]journal.Entry, len(matches))
	for i, m := range matches {
		out[i] = m.Entry
	}
	return result.Ok(out)
}

// Close releases the backend.
func (s *EntryStore) Close() error {
	return s.backend.Close()
}

// IsDimensionMismatch reports whether err came from a backend holding
// vectors of another size.
func IsDimensionMismatch(err error) bool {
	return errors.Is(err, ErrDimensionMismatch)
}
