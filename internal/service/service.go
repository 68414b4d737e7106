// Package service is the journal application layer shared by the HTTP API
// and the CLI. It enforces ownership, assembles retrieval context and calls
// the generator for chat replies and summaries.
//
// Ownership checks read the entry, compare owners and then write. A
// concurrent writer can land between the read and the write; the store
// keeps per-entry writes atomic and last-write-wins, and nothing stronger
// is attempted here.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/Badar25/Journal-backend/internal/budget"
	"github.com/Badar25/Journal-backend/internal/journal"
	"github.com/Badar25/Journal-backend/internal/logging"
	"github.com/Badar25/Journal-backend/internal/result"
)

const (
	// DefaultChatTopK is how many entries ground a chat reply.
	DefaultChatTopK = 3

	// DefaultSummaryDays is the window used when a summary asks for none.
	DefaultSummaryDays = 7
)

// Store is the slice of store.EntryStore the service needs.
type Store interface {
	Upsert(ctx context.Context, e journal.Entry) result.Result[string]
	Get(ctx context.Context, id string) result.Result[journal.Entry]
	ListByOwner(ctx context.Context, owner string, rng *journal.TimeRange) result.Result[[]journal.Entry]
	DeleteByID(ctx context.Context, id string) result.Result[struct{}]
	DeleteByOwner(ctx context.Context, owner string) result.Result[struct{}]
}

// Retriever is satisfied by *rag.Pipeline.
type Retriever interface {
	Retrieve(ctx context.Context, query, owner string, finalLimit int) result.Result[[]journal.RetrievedEntry]
}

// Generator is satisfied by *provider.Generator.
type Generator interface {
	Generate(ctx context.Context, msgs []*schema.Message) result.Result[string]
}

// Config tunes a Service.
type Config struct {
	// ChatTopK is the number of entries retrieved for chat. Zero means
	// DefaultChatTopK.
	ChatTopK int

	// MaxContextTokens bounds the prompt. Zero means budget.DefaultMaxContextTokens.
	MaxContextTokens int

	// Now supplies the reference time for day windows. Nil means time.Now.
	Now func() time.Time

	// NewID mints entry IDs. Nil means uuid.NewString.
	NewID func() string
}

// Created is returned by Create and Update.
type Created struct {
	// ID is the entry ID.
	ID string `json:"id"`
}

// Reply is a generated chat answer or summary.
type Reply struct {
	// Response is the generated text, or a placeholder when no entries
	// were found.
	Response string `json:"response"`

	// Sources is the number of entries that grounded the response.
	Sources int `json:"sources"`
}

// Service implements the journal operations. It is safe for concurrent use.
type Service struct {
	// store persists entries.
	store Store

	// retriever finds entries relevant to a chat message.
	retriever Retriever

	// generator writes replies and summaries.
	generator Generator

	// cfg holds resolved settings.
	cfg Config
}

// New wires a Service. generator may be nil for deployments that only
// store and list entries; Chat and Summary then fail with GENERATION_ERROR
// once context is found.
func New(store Store, retriever Retriever, generator Generator, cfg Config) *Service {
	if cfg.ChatTopK <= 0 {
		cfg.ChatTopK = DefaultChatTopK
	}
	if cfg.MaxContextTokens <= 0 {
		cfg.MaxContextTokens = budget.DefaultMaxContextTokens
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	return &Service{store: store, retriever: retriever, generator: generator, cfg: cfg}
}

// Create validates d and stores it as a new entry owned by owner.
func (s *Service) Create(ctx context.Context, owner string, d journal.Draft) result.Result[Created] {
	if owner == "" {
		return result.Err[Created](result.KindMissingUserID, "User ID is required")
	}
	if v := journal.ValidateCreate(d); !v.IsOk() {
		return result.Fail[Created](v)
	}

	id := s.cfg.NewID()
	saved := s.store.Upsert(ctx, journal.Entry{ID: id, OwnerID: owner, Title: d.Title, Content: d.Content})
	if !saved.IsOk() {
		return fail[Created](ctx, "create", saved)
	}
	logging.FromContext(ctx).Info("journal created", slog.String("user_id", owner), slog.String("entry_id", id))
	return result.Ok(Created{ID: id})
}

// Get returns owner's entry id.
func (s *Service) Get(ctx context.Context, owner, id string) result.Result[journal.Entry] {
	got := s.owned(ctx, owner, id)
	if !got.IsOk() {
		return fail[journal.Entry](ctx, "get", got)
	}
	return got
}

// Update applies the supplied fields of p to owner's entry id. The store
// re-stamps CreatedAt on every write. An empty patch writes nothing, so it
// leaves the entry's age and retention window alone.
func (s *Service) Update(ctx context.Context, owner, id string, p journal.Patch) result.Result[Created] {
	if v := journal.ValidateUpdate(p); !v.IsOk() {
		return result.Fail[Created](v)
	}

	cur := s.owned(ctx, owner, id)
	if !cur.IsOk() {
		return fail[Created](ctx, "update", cur)
	}
	if p.Title == nil && p.Content == nil {
		return result.Ok(Created{ID: id})
	}

	e := cur.Value()
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Content != nil {
		e.Content = *p.Content
	}
	saved := s.store.Upsert(ctx, e)
	if !saved.IsOk() {
		return fail[Created](ctx, "update", saved)
	}
	logging.FromContext(ctx).Info("journal updated", slog.String("user_id", owner), slog.String("entry_id", id))
	return result.Ok(Created{ID: id})
}

// Delete removes owner's entry id.
func (s *Service) Delete(ctx context.Context, owner, id string) result.Result[struct{}] {
	cur := s.owned(ctx, owner, id)
	if !cur.IsOk() {
		return fail[struct{}](ctx, "delete", cur)
	}
	del := s.store.DeleteByID(ctx, id)
	if !del.IsOk() {
		return fail[struct{}](ctx, "delete", del)
	}
	logging.FromContext(ctx).Info("journal deleted", slog.String("user_id", owner), slog.String("entry_id", id))
	return del
}

// List returns owner's entries written in the last days days, or all of
// them when days <= 0.
func (s *Service) List(ctx context.Context, owner string, days int) result.Result[[]journal.Entry] {
	var rng *journal.TimeRange
	if days > 0 {
		r := journal.LastDays(s.cfg.Now(), days)
		rng = &r
	}
	got := s.store.ListByOwner(ctx, owner, rng)
	if !got.IsOk() {
		return fail[[]journal.Entry](ctx, "list", got)
	}
	return got
}

// DeleteAccount removes every entry owner has written.
func (s *Service) DeleteAccount(ctx context.Context, owner string) result.Result[struct{}] {
	del := s.store.DeleteByOwner(ctx, owner)
	if !del.IsOk() {
		return fail[struct{}](ctx, "delete_account", del)
	}
	logging.FromContext(ctx).Info("journals erased", slog.String("user_id", owner))
	return del
}

// Chat answers message from owner's most relevant entries. When no entry
// has usable text the placeholder is returned without calling the model.
func (s *Service) Chat(ctx context.Context, owner, message string) result.Result[Reply] {
	found := s.retriever.Retrieve(ctx, message, owner, s.cfg.ChatTopK)
	if !found.IsOk() {
		return fail[Reply](ctx, "chat", found)
	}

	jc := journal.BuildContext(journal.Entries(found.Value()), "relevant journals").Value()
	if !jc.Found {
		return result.Ok(Reply{Response: jc.Text})
	}

	fixed := budget.EstimateMessages(journal.ChatMessages("", message))
	lines := budget.TrimBack(jc.Lines, fixed, s.cfg.MaxContextTokens)
	return s.generate(ctx, "chat", owner, journal.ChatMessages(strings.Join(lines, "\n"), message), len(lines))
}

// Summary summarises owner's entries from the last days days. days <= 0
// means DefaultSummaryDays.
func (s *Service) Summary(ctx context.Context, owner string, days int) result.Result[Reply] {
	if days <= 0 {
		days = DefaultSummaryDays
	}
	rng := journal.LastDays(s.cfg.Now(), days)
	listed := s.store.ListByOwner(ctx, owner, &rng)
	if !listed.IsOk() {
		return fail[Reply](ctx, "summary", listed)
	}

	jc := journal.BuildContext(listed.Value(), "recent journals").Value()
	if !jc.Found {
		return result.Ok(Reply{Response: jc.Text})
	}

	fixed := budget.EstimateMessages(journal.SummaryMessages("", days))
	lines := budget.TrimFront(jc.Lines, fixed, s.cfg.MaxContextTokens)
	return s.generate(ctx, "summary", owner, journal.SummaryMessages(strings.Join(lines, "\n"), days), len(lines))
}

// generate runs the model and logs how much context survived trimming.
func (s *Service) generate(ctx context.Context, op, owner string, msgs []*schema.Message, sources int) result.Result[Reply] {
	if s.generator == nil {
		return fail[Reply](ctx, op, result.Err[Reply](result.KindGenerationError, "No generative model configured"))
	}
	out := s.generator.Generate(ctx, msgs)
	if !out.IsOk() {
		return fail[Reply](ctx, op, out)
	}
	logging.FromContext(ctx).Info("journal "+op+" generated",
		slog.String("user_id", owner),
		slog.Int("sources", sources),
	)
	return result.Ok(Reply{Response: out.Value(), Sources: sources})
}

// owned reads id and checks it belongs to owner.
func (s *Service) owned(ctx context.Context, owner, id string) result.Result[journal.Entry] {
	if owner == "" {
		return result.Err[journal.Entry](result.KindMissingUserID, "User ID is required")
	}
	got := s.store.Get(ctx, id)
	if !got.IsOk() {
		return got
	}
	if got.Value().OwnerID != owner {
		return result.Err[journal.Entry](result.KindUnauthorized, "Not authorized to access this journal",
			"user_id", owner, "entry_id", id)
	}
	return got
}

// fail logs r by severity and re-types it. Caller mistakes are debug
// noise; dependency failures are errors.
func fail[T, U any](ctx context.Context, op string, r result.Result[U]) result.Result[T] {
	log := logging.FromContext(ctx)
	attrs := []any{slog.String("op", op), slog.String("kind", string(r.Kind()))}
	switch {
	case r.Kind().IsUpstream():
		log.Error("journal operation failed", append(attrs, slog.Any("error", r.Err()))...)
	case r.Kind() == result.KindUnauthorized:
		log.Warn("journal ownership check failed", attrs...)
	default:
		log.Debug("journal request rejected", append(attrs, slog.String("message", r.Message()))...)
	}
	return result.Fail[T](r)
}
