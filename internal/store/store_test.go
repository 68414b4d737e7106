package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Badar25/Journal-backend/internal/journal"
	"github.com/Badar25/Journal-backend/internal/result"
)

const testDims = 3

// fakeEmbedder returns fixed vectors for known texts and a constant vector
// for anything else.
type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	err     error
	calls   []string
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, texts...)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := f.vectors[t]; ok {
			out[i] = v
			continue
		}
		out[i] = []float32{0.1, 0.1, 0.1}
	}
	return out, nil
}

// failingBackend wraps MemoryBackend and fails every operation once err is set.
type failingBackend struct {
	*MemoryBackend
	err error
}

func (f *failingBackend) Put(ctx context.Context, rec Record) error {
	if f.err != nil {
		return f.err
	}
	return f.MemoryBackend.Put(ctx, rec)
}

func (f *failingBackend) Get(ctx context.Context, id string) (journal.Entry, bool, error) {
	if f.err != nil {
		return journal.Entry{}, false, f.err
	}
	return f.MemoryBackend.Get(ctx, id)
}

func (f *failingBackend) Search(ctx context.Context, v []float32, owner string, limit int) ([]Match, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.MemoryBackend.Search(ctx, v, owner, limit)
}

// externalBackends is filled by build-tagged files with backends that need a
// running server.
var externalBackends = map[string]func(t *testing.T) Backend{}

// backends lists the backends every behavioural test runs against: the
// in-process ones plus any registered in externalBackends.
func backends() map[string]func(t *testing.T) Backend {
	all := map[string]func(t *testing.T) Backend{
		"memory": func(*testing.T) Backend { return NewMemoryBackend() },
		"sqlite": func(t *testing.T) Backend {
			t.Helper()
			b, err := OpenSQLite(":memory:")
			if err != nil {
				t.Fatalf("open in-memory sqlite: %v", err)
			}
			t.Cleanup(func() { _ = b.Close() })
			return b
		},
	}
	for name, mk := range externalBackends {
		all[name] = mk
	}
	return all
}

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newTestStore(t *testing.T, b Backend, emb *fakeEmbedder, clk *clock) *EntryStore {
	t.Helper()
	s, err := New(context.Background(), b, emb, Options{Dimensions: testDims, Now: clk.Now})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func Test_Store_UpsertAndGet(t *testing.T) {
	t.Parallel()
	for name, mk := range backends() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			clk := &clock{now: time.Date(2026, 5, 1, 9, 30, 15, 500, time.UTC)}
			emb := &fakeEmbedder{}
			s := newTestStore(t, mk(t), emb, clk)
			ctx := context.Background()

			r := s.Upsert(ctx, journal.Entry{ID: "e1", OwnerID: "u1", Title: "Walk", Content: "by the river"})
			if !r.IsOk() || r.Value() != "e1" {
				t.Fatalf("upsert: %s %s", r.Kind(), r.Message())
			}
			if len(emb.calls) != 1 || emb.calls[0] != "by the river" {
				t.Errorf("embedded %q, want content only", emb.calls)
			}

			got := s.Get(ctx, "e1")
			if !got.IsOk() {
				t.Fatalf("get: %s", got.Kind())
			}
			e := got.Value()
			if e.OwnerID != "u1" || e.Title != "Walk" || e.Content != "by the river" {
				t.Errorf("got %+v", e)
			}
			if !e.CreatedAt.Equal(time.Date(2026, 5, 1, 9, 30, 15, 0, time.UTC)) {
				t.Errorf("CreatedAt = %v, want second precision write time", e.CreatedAt)
			}
		})
	}
}

func Test_Store_UpsertReplacesAndRestamps(t *testing.T) {
	t.Parallel()
	for name, mk := range backends() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			clk := &clock{now: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}
			s := newTestStore(t, mk(t), &fakeEmbedder{}, clk)
			ctx := context.Background()

			s.Upsert(ctx, journal.Entry{ID: "e1", OwnerID: "u1", Title: "old", Content: "old body"})
			clk.Set(clk.Now().Add(48 * time.Hour))
			s.Upsert(ctx, journal.Entry{ID: "e1", OwnerID: "u1", Title: "new"})

			e := s.Get(ctx, "e1").Value()
			if e.Title != "new" || e.Content != "" {
				t.Errorf("want full replacement, got %+v", e)
			}
			if !e.CreatedAt.Equal(clk.Now()) {
				t.Errorf("CreatedAt = %v, want %v", e.CreatedAt, clk.Now())
			}
		})
	}
}

func Test_Store_UpsertValidation(t *testing.T) {
	t.Parallel()
	clk := &clock{now: time.Now()}
	emb := &fakeEmbedder{}
	s := newTestStore(t, NewMemoryBackend(), emb, clk)
	ctx := context.Background()

	cases := []struct {
		name string
		e    journal.Entry
		want result.Kind
	}{
		{"missing id", journal.Entry{OwnerID: "u1", Content: "x"}, result.KindMissingFields},
		{"missing owner", journal.Entry{ID: "e1", Content: "x"}, result.KindMissingFields},
		{"blank fields", journal.Entry{ID: "e1", OwnerID: "u1", Title: " ", Content: "\t"}, result.KindEmptyFields},
		{"too many words", journal.Entry{ID: "e1", OwnerID: "u1", Content: strings.Repeat("w ", 1000)}, result.KindContentTooLong},
	}
	for _, tc := range cases {
		r := s.Upsert(ctx, tc.e)
		if r.IsOk() || r.Kind() != tc.want {
			t.Errorf("%s: kind = %q, want %q", tc.name, r.Kind(), tc.want)
		}
	}
	if len(emb.calls) != 0 {
		t.Errorf("embedder called %d times for invalid input", len(emb.calls))
	}

	if r := s.Upsert(ctx, journal.Entry{ID: "e2", OwnerID: "u1", Content: strings.Repeat("w ", 999)}); !r.IsOk() {
		t.Errorf("999 words: want Ok, got %s", r.Kind())
	}
}

func Test_Store_UpsertEmbeddingFailure(t *testing.T) {
	t.Parallel()
	b := NewMemoryBackend()
	s := newTestStore(t, b, &fakeEmbedder{err: errors.New("model offline")}, &clock{now: time.Now()})
	ctx := context.Background()

	r := s.Upsert(ctx, journal.Entry{ID: "e1", OwnerID: "u1", Content: "x"})
	if r.Kind() != result.KindEmbeddingError {
		t.Fatalf("kind = %q, want EMBEDDING_ERROR", r.Kind())
	}
	if _, found, _ := b.Get(ctx, "e1"); found {
		t.Error("entry written despite embedding failure")
	}
}

func Test_Store_UpsertWrongDimensions(t *testing.T) {
	t.Parallel()
	emb := &fakeEmbedder{vectors: map[string][]float32{"x": {1, 2}}}
	s := newTestStore(t, NewMemoryBackend(), emb, &clock{now: time.Now()})
	r := s.Upsert(context.Background(), journal.Entry{ID: "e1", OwnerID: "u1", Content: "x"})
	if r.Kind() != result.KindEmbeddingError {
		t.Errorf("kind = %q, want EMBEDDING_ERROR", r.Kind())
	}
}

func Test_Store_BackendFailures(t *testing.T) {
	t.Parallel()
	b := &failingBackend{MemoryBackend: NewMemoryBackend()}
	s := newTestStore(t, b, &fakeEmbedder{}, &clock{now: time.Now()})
	b.err = errors.New("disk full")
	ctx := context.Background()

	if r := s.Upsert(ctx, journal.Entry{ID: "e1", OwnerID: "u1", Content: "x"}); r.Kind() != result.KindSaveError {
		t.Errorf("upsert kind = %q, want SAVE_ERROR", r.Kind())
	}
	if r := s.Get(ctx, "e1"); r.Kind() != result.KindRetrievalError {
		t.Errorf("get kind = %q, want RETRIEVAL_ERROR", r.Kind())
	}
	if r := s.SimilaritySearch(ctx, []float32{1, 0, 0}, "u1", 3); r.Kind() != result.KindSearchError {
		t.Errorf("search kind = %q, want SEARCH_ERROR", r.Kind())
	}
}

func Test_Store_GetMissing(t *testing.T) {
	t.Parallel()
	s := newTestStore(t, NewMemoryBackend(), &fakeEmbedder{}, &clock{now: time.Now()})
	ctx := context.Background()
	if r := s.Get(ctx, ""); r.Kind() != result.KindMissingJournalID {
		t.Errorf("empty id kind = %q", r.Kind())
	}
	if r := s.Get(ctx, "nope"); r.Kind() != result.KindJournalNotFound {
		t.Errorf("absent id kind = %q", r.Kind())
	}
}

func Test_Store_ListByOwner(t *testing.T) {
	t.Parallel()
	for name, mk := range backends() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			base := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
			clk := &clock{now: base}
			s := newTestStore(t, mk(t), &fakeEmbedder{}, clk)
			ctx := context.Background()

			for i, id := range []string{"a", "b", "c"} {
				clk.Set(base.Add(-time.Duration(i*3) * 24 * time.Hour))
				s.Upsert(ctx, journal.Entry{ID: id, OwnerID: "u1", Content: id})
			}
			clk.Set(base)
			s.Upsert(ctx, journal.Entry{ID: "other", OwnerID: "u2", Content: "x"})

			all := s.ListByOwner(ctx, "u1", nil)
			if !all.IsOk() || len(all.Value()) != 3 {
				t.Fatalf("list all: %s, %d entries", all.Kind(), len(all.Value()))
			}
			for _, e := range all.Value() {
				if e.OwnerID != "u1" {
					t.Errorf("leaked entry %+v", e)
				}
			}

			// a at base, b at base-3d, c at base-6d. A 5-day window keeps a and b.
			rng := journal.LastDays(base, 5)
			win := s.ListByOwner(ctx, "u1", &rng).Value()
			if len(win) != 2 {
				t.Fatalf("window: got %d entries, want 2", len(win))
			}

			// Inclusive boundary: start exactly at c's timestamp.
			edge := journal.TimeRange{Start: base.Add(-6 * 24 * time.Hour), End: base.Add(-6 * 24 * time.Hour)}
			if got := s.ListByOwner(ctx, "u1", &edge).Value(); len(got) != 1 || got[0].ID != "c" {
				t.Errorf("edge window: got %+v", got)
			}

			if r := s.ListByOwner(ctx, "", nil); r.Kind() != result.KindMissingUserID {
				t.Errorf("empty owner kind = %q", r.Kind())
			}
			if got := s.ListByOwner(ctx, "nobody", nil); !got.IsOk() || len(got.Value()) != 0 {
				t.Errorf("unknown owner: want empty Ok, got %s %d", got.Kind(), len(got.Value()))
			}
		})
	}
}

func Test_Store_ListLimit(t *testing.T) {
	t.Parallel()
	s, err := New(context.Background(), NewMemoryBackend(), &fakeEmbedder{}, Options{Dimensions: testDims, ListLimit: 2})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for i := range 5 {
		s.Upsert(ctx, journal.Entry{ID: fmt.Sprintf("e%d", i), OwnerID: "u1", Content: "x"})
	}
	if got := s.ListByOwner(ctx, "u1", nil).Value(); len(got) != 2 {
		t.Errorf("got %d entries, want 2", len(got))
	}
}

func Test_Store_Deletes(t *testing.T) {
	t.Parallel()
	for name, mk := range backends() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			base := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
			clk := &clock{now: base}
			s := newTestStore(t, mk(t), &fakeEmbedder{}, clk)
			ctx := context.Background()

			s.Upsert(ctx, journal.Entry{ID: "keep", OwnerID: "u1", Content: "x"})
			s.Upsert(ctx, journal.Entry{ID: "drop", OwnerID: "u1", Content: "x"})
			s.Upsert(ctx, journal.Entry{ID: "u2a", OwnerID: "u2", Content: "x"})
			s.Upsert(ctx, journal.Entry{ID: "u2b", OwnerID: "u2", Content: "x"})

			if r := s.DeleteByID(ctx, "drop"); !r.IsOk() {
				t.Fatalf("delete: %s", r.Kind())
			}
			if r := s.DeleteByID(ctx, "drop"); !r.IsOk() {
				t.Errorf("second delete must succeed, got %s", r.Kind())
			}
			if r := s.Get(ctx, "drop"); r.Kind() != result.KindJournalNotFound {
				t.Errorf("deleted entry still readable: %s", r.Kind())
			}

			if r := s.DeleteByOwner(ctx, "u2"); !r.IsOk() {
				t.Fatalf("delete by owner: %s", r.Kind())
			}
			if got := s.ListByOwner(ctx, "u2", nil).Value(); len(got) != 0 {
				t.Errorf("u2 still has %d entries", len(got))
			}
			if r := s.DeleteByOwner(ctx, "u2"); !r.IsOk() {
				t.Errorf("delete by owner with no matches must succeed, got %s", r.Kind())
			}
			if r := s.Get(ctx, "keep"); !r.IsOk() {
				t.Errorf("unrelated entry removed: %s", r.Kind())
			}
		})
	}
}

func Test_Store_DeleteOlderThan(t *testing.T) {
	t.Parallel()
	for name, mk := range backends() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			base := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
			clk := &clock{now: base.Add(-10 * 24 * time.Hour)}
			s := newTestStore(t, mk(t), &fakeEmbedder{}, clk)
			ctx := context.Background()

			s.Upsert(ctx, journal.Entry{ID: "old", OwnerID: "u1", Content: "x"})
			clk.Set(base.Add(-8 * 24 * time.Hour))
			s.Upsert(ctx, journal.Entry{ID: "edge", OwnerID: "u2", Content: "x"})
			clk.Set(base)
			s.Upsert(ctx, journal.Entry{ID: "new", OwnerID: "u1", Content: "x"})

			r := s.DeleteOlderThan(ctx, base.Add(-8*24*time.Hour))
			if !r.IsOk() || r.Value() != 1 {
				t.Fatalf("deleted %d (%s), want 1", r.Value(), r.Kind())
			}
			if s.Get(ctx, "old").IsOk() {
				t.Error("old entry survived")
			}
			if !s.Get(ctx, "edge").IsOk() || !s.Get(ctx, "new").IsOk() {
				t.Error("entries at or after cutoff removed")
			}
		})
	}
}

func Test_Store_SimilaritySearch(t *testing.T) {
	t.Parallel()
	for name, mk := range backends() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			emb := &fakeEmbedder{vectors: map[string][]float32{
				"dogs":     {1, 0, 0},
				"puppies":  {0.9, 0.1, 0},
				"taxes":    {0, 0, 1},
				"twin-a":   {0, 1, 0},
				"twin-b":   {0, 1, 0},
				"not-mine": {1, 0, 0},
			}}
			s := newTestStore(t, mk(t), emb, &clock{now: time.Now()})
			ctx := context.Background()

			for _, id := range []string{"dogs", "puppies", "taxes"} {
				s.Upsert(ctx, journal.Entry{ID: id, OwnerID: "u1", Content: id})
			}
			s.Upsert(ctx, journal.Entry{ID: "not-mine", OwnerID: "u2", Content: "not-mine"})

			r := s.SimilaritySearch(ctx, []float32{1, 0, 0}, "u1", 2)
			if !r.IsOk() {
				t.Fatalf("search: %s %s", r.Kind(), r.Message())
			}
			got := r.Value()
			if len(got) != 2 || got[0].ID != "dogs" || got[1].ID != "puppies" {
				t.Errorf("got %v, want [dogs puppies]", ids(got))
			}

			if got := s.SimilaritySearch(ctx, []float32{1, 0, 0}, "u1", 10).Value(); len(got) != 3 {
				t.Errorf("limit above count: got %d, want 3", len(got))
			}

			// Equal similarity is broken by ID ascending.
			s.Upsert(ctx, journal.Entry{ID: "twin-b", OwnerID: "u3", Content: "twin-b"})
			s.Upsert(ctx, journal.Entry{ID: "twin-a", OwnerID: "u3", Content: "twin-a"})
			for range 3 {
				got := s.SimilaritySearch(ctx, []float32{0, 1, 0}, "u3", 2).Value()
				if len(got) != 2 || got[0].ID != "twin-a" || got[1].ID != "twin-b" {
					t.Fatalf("tie order = %v, want [twin-a twin-b]", ids(got))
				}
			}

			if r := s.SimilaritySearch(ctx, []float32{1, 0}, "u1", 2); r.Kind() != result.KindSearchError {
				t.Errorf("short vector kind = %q, want SEARCH_ERROR", r.Kind())
			}
			if got := s.SimilaritySearch(ctx, []float32{1, 0, 0}, "empty", 3); !got.IsOk() || len(got.Value()) != 0 {
				t.Errorf("owner with no entries: %s %d", got.Kind(), len(got.Value()))
			}
		})
	}
}

func Test_Store_DimensionMismatchAtInit(t *testing.T) {
	t.Parallel()
	for name, mk := range backends() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			b := mk(t)
			ctx := context.Background()
			if _, err := New(ctx, b, &fakeEmbedder{}, Options{Dimensions: 3}); err != nil {
				t.Fatalf("first init: %v", err)
			}
			_, err := New(ctx, b, &fakeEmbedder{}, Options{Dimensions: 4})
			if !IsDimensionMismatch(err) {
				t.Errorf("err = %v, want dimension mismatch", err)
			}
		})
	}
}

func Test_Store_ConcurrentWriters(t *testing.T) {
	t.Parallel()
	s := newTestStore(t, NewMemoryBackend(), &fakeEmbedder{}, &clock{now: time.Now()})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Upsert(ctx, journal.Entry{ID: "shared", OwnerID: "u1", Title: fmt.Sprintf("t%d", i), Content: fmt.Sprintf("c%d", i)})
		}(i)
	}
	wg.Wait()

	e := s.Get(ctx, "shared").Value()
	// Last write wins, but title and content must come from the same write.
	if strings.TrimPrefix(e.Title, "t") != strings.TrimPrefix(e.Content, "c") {
		t.Errorf("torn write: %+v", e)
	}
}

func Test_SQLite_VectorRoundTrip(t *testing.T) {
	t.Parallel()
	in := []float32{0, -1.5, 3.25, 1e-7}
	out := decodeVector(encodeVector(in))
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("[%d] = %v, want %v", i, out[i], in[i])
		}
	}
}

func Test_CosineSimilarity(t *testing.T) {
	t.Parallel()
	if got := cosineSimilarity([]float32{1, 0}, []float32{1, 0}); got < 0.999 {
		t.Errorf("identical = %v", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{0, 1}); got != 0 {
		t.Errorf("orthogonal = %v", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{1}); got != 0 {
		t.Errorf("mismatched = %v", got)
	}
	if got := cosineSimilarity([]float32{0, 0}, []float32{1, 0}); got != 0 {
		t.Errorf("zero = %v", got)
	}
}

func ids(entries []journal.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}
