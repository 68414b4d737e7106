package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Badar25/Journal-backend/internal/journal"
	"github.com/Badar25/Journal-backend/internal/logging"
	"github.com/Badar25/Journal-backend/internal/result"
)

const (
	// DefaultFinalLimit is the number of entries returned when the caller
	// passes a non-positive limit.
	DefaultFinalLimit = 3

	// DefaultOverfetchFactor multiplies the final limit to size the
	// similarity-search candidate pool handed to the reranker.
	DefaultOverfetchFactor = 2

	// DefaultRerankTimeout bounds a single reranker call.
	DefaultRerankTimeout = 10 * time.Second
)

// Config tunes a Pipeline.
type Config struct {
	// Dimensions is the expected query embedding size. Zero skips the check.
	Dimensions int

	// DefaultLimit replaces non-positive finalLimit arguments.
	DefaultLimit int

	// OverfetchFactor multiplies finalLimit for the candidate pool.
	OverfetchFactor int

	// RerankTimeout bounds each reranker call.
	RerankTimeout time.Duration

	// Registerer receives the pipeline metrics. Nil registers into a
	// private registry, which keeps tests hermetic.
	Registerer prometheus.Registerer
}

// Pipeline implements owner-scoped retrieve-and-rerank. It holds no mutable
// state and is safe for concurrent use.
type Pipeline struct {
	// embedder converts the query to a vector.
	embedder Embedder

	// searcher performs the owner-filtered similarity search.
	searcher Searcher

	// reranker rescores candidates. Nil keeps similarity order.
	reranker Reranker

	// cfg holds resolved settings.
	cfg Config

	// metrics records rerank outcomes and latency.
	metrics *pipelineMetrics
}

// NewPipeline constructs a Pipeline. reranker may be nil, in which case
// results are returned in similarity order with Reranked set to false.
func NewPipeline(embedder Embedder, searcher Searcher, reranker Reranker, cfg Config) (*Pipeline, error) {
	if embedder == nil {
		return nil, fmt.Errorf("rag: embedder must not be nil")
	}
	if searcher == nil {
		return nil, fmt.Errorf("rag: searcher must not be nil")
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultFinalLimit
	}
	if cfg.OverfetchFactor <= 0 {
		cfg.OverfetchFactor = DefaultOverfetchFactor
	}
	if cfg.RerankTimeout <= 0 {
		cfg.RerankTimeout = DefaultRerankTimeout
	}
	reg := cfg.Registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &Pipeline{
		embedder: embedder,
		searcher: searcher,
		reranker: reranker,
		cfg:      cfg,
		metrics:  newPipelineMetrics(reg),
	}, nil
}

// Retrieve returns up to finalLimit of owner's entries most relevant to
// query. Candidates come from similarity search over-fetched by the
// configured factor and are reranked when a reranker is available.
//
// A reranker failure, timeout or malformed response never fails the call:
// the candidates are returned in similarity order with Reranked false.
// Embedding and search failures are returned as Err results.
func (p *Pipeline) Retrieve(ctx context.Context, query, owner string, finalLimit int) result.Result[[]journal.RetrievedEntry] {
	start := time.Now()
	log := logging.FromContext(ctx)

	if strings.TrimSpace(query) == "" || owner == "" {
		return result.Err[[]journal.RetrievedEntry](result.KindMissingParameters, "Query and user ID are required")
	}
	if finalLimit <= 0 {
		finalLimit = p.cfg.DefaultLimit
	}

	vec := EmbedOne(ctx, p.embedder, query, p.cfg.Dimensions)
	if !vec.IsOk() {
		return result.Fail[[]journal.RetrievedEntry](vec)
	}

	found := p.searcher.SimilaritySearch(ctx, vec.Value(), owner, finalLimit*p.cfg.OverfetchFactor)
	if !found.IsOk() {
		return result.Fail[[]journal.RetrievedEntry](found)
	}
	candidates := found.Value()
	p.metrics.candidates.Observe(float64(len(candidates)))

	if len(candidates) == 0 {
		p.observe(outcomeEmpty, start)
		return result.Ok([]journal.RetrievedEntry{})
	}

	scores, outcome, err := p.rerank(ctx, query, candidates)
	if outcome != outcomeOK {
		if outcome != outcomeDisabled {
			log.Warn("rag: reranker unavailable, using similarity order",
				slog.String("outcome", outcome),
				slog.Int("candidates", len(candidates)),
				slog.Any("error", err),
			)
		}
		p.observe(outcome, start)
		return result.Ok(similarityOrder(candidates, finalLimit))
	}

	ranked := make([]journal.RetrievedEntry, len(candidates))
	for i, e := range candidates {
		ranked[i] = journal.RetrievedEntry{Entry: e, RelevanceScore: scores[i], Reranked: true}
	}
	// Stable so equal scores keep similarity order.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RelevanceScore > ranked[j].RelevanceScore
	})
	if len(ranked) > finalLimit {
		ranked = ranked[:finalLimit]
	}

	p.observe(outcomeOK, start)
	log.Debug("rag: retrieved",
		slog.Int("candidates", len(candidates)),
		slog.Int("returned", len(ranked)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return result.Ok(ranked)
}

// rerank scores candidates under the configured timeout and classifies the
// outcome. scores is only valid when outcome is outcomeOK.
func (p *Pipeline) rerank(ctx context.Context, query string, candidates []journal.Entry) ([]float32, string, error) {
	if p.reranker == nil {
		return nil, outcomeDisabled, nil
	}

	docs := make([]string, len(candidates))
	for i, e := range candidates {
		docs[i] = e.Content
	}

	rctx, cancel := context.WithTimeout(ctx, p.cfg.RerankTimeout)
	defer cancel()

	scores, err := p.reranker.Score(rctx, query, docs)
	switch {
	case err != nil && errors.Is(rctx.Err(), context.DeadlineExceeded):
		return nil, outcomeTimeout, err
	case err != nil:
		return nil, outcomeError, err
	case len(scores) != len(docs):
		return nil, outcomeMismatch, fmt.Errorf("rag: reranker returned %d scores for %d documents", len(scores), len(docs))
	}
	for i, s := range scores {
		if math.IsNaN(float64(s)) || math.IsInf(float64(s), 0) {
			return nil, outcomeMismatch, fmt.Errorf("rag: reranker returned non-finite score at %d", i)
		}
	}
	return scores, outcomeOK, nil
}

// observe records the outcome counter and latency histogram.
func (p *Pipeline) observe(outcome string, start time.Time) {
	p.metrics.rerankTotal.WithLabelValues(outcome).Inc()
	p.metrics.durationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

// similarityOrder wraps candidates unscored, keeping their order, truncated
// to limit.
func similarityOrder(candidates []journal.Entry, limit int) []journal.RetrievedEntry {
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]journal.RetrievedEntry, len(candidates))
	for i, e := range candidates {
		out[i] = journal.RetrievedEntry{Entry: e}
	}
	return out
}
