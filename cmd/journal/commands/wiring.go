package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Badar25/Journal-backend/internal/budget"
	"github.com/Badar25/Journal-backend/internal/embedder"
	"github.com/Badar25/Journal-backend/internal/provider"
	"github.com/Badar25/Journal-backend/internal/rag"
	"github.com/Badar25/Journal-backend/internal/reranker"
	"github.com/Badar25/Journal-backend/internal/service"
	"github.com/Badar25/Journal-backend/internal/store"
)

// probeTimeout bounds the startup embedding that checks the vector size.
const probeTimeout = 30 * time.Second

// app bundles the components a command needs. Build it with buildApp and
// release it with close.
type app struct {
	// backend is the storage engine, also used as a readiness pinger.
	backend store.Backend

	// store is the entry store over backend.
	store *store.EntryStore

	// embedder produces entry and query vectors.
	embedder rag.Embedder

	// providerCfg is the chat model configuration; nil without a model.
	providerCfg *provider.Config

	// pipeline performs retrieve-and-rerank.
	pipeline *rag.Pipeline

	// svc is the journal application layer.
	svc *service.Service
}

// appOptions selects optional components.
type appOptions struct {
	// withModel builds the chat model and generator.
	withModel bool

	// registerer receives pipeline metrics. Nil keeps them private.
	registerer prometheus.Registerer
}

// buildApp wires store, embedder, reranker, pipeline and service from the
// environment.
func buildApp(ctx context.Context, log *slog.Logger, opts appOptions) (*app, error) {
	if err := embedder.ValidateConfig(log); err != nil {
		return nil, err
	}
	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}
	dims := embedder.DefaultDimensions(embedder.Backend())
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	err = embedder.Probe(probeCtx, emb, dims)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to verify embedder: %w", err)
	}
	log.Info("embedder initialised",
		slog.String("provider", embedder.Backend()),
		slog.Int("dimensions", dims),
	)

	backend, err := store.BackendFromEnv()
	if err != nil {
		return nil, err
	}
	entries, err := store.New(ctx, backend, emb, store.Options{
		Dimensions: dims,
		ListLimit:  store.ListLimitFromEnv(),
	})
	if err != nil {
		_ = backend.Close()
		if store.IsDimensionMismatch(err) {
			return nil, fmt.Errorf("%w (check EMBEDDING_DIMENSIONS against the existing %s data)", err, backend.Name())
		}
		return nil, err
	}
	log.Info("store ready", slog.String("backend", backend.Name()))

	a := &app{backend: backend, store: entries, embedder: emb}

	// The llm reranker needs a chat model even when generation is off.
	needModel := opts.withModel || reranker.Provider() == reranker.ProviderLLM

	var chat model.BaseChatModel
	var gen service.Generator
	if needModel {
		a.providerCfg = provider.ConfigFromEnv()
		chat, err = provider.New(ctx, a.providerCfg)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to initialise model provider: %w", err)
		}
		gen = provider.NewGenerator(chat, string(a.providerCfg.Backend))
		log.Info("provider initialised", slog.String("provider", string(a.providerCfg.Backend)))
	}

	rr, err := reranker.NewFromEnv(chat)
	if err != nil {
		a.close()
		return nil, err
	}
	log.Info("reranker initialised", slog.String("provider", reranker.Provider()))

	topK := getEnvInt("RETRIEVAL_TOP_K", service.DefaultChatTopK)
	a.pipeline, err = rag.NewPipeline(emb, entries, rr, rag.Config{
		Dimensions:      dims,
		DefaultLimit:    topK,
		OverfetchFactor: getEnvInt("RETRIEVAL_OVERFETCH_FACTOR", rag.DefaultOverfetchFactor),
		Registerer:      opts.registerer,
	})
	if err != nil {
		a.close()
		return nil, err
	}

	a.svc = service.New(entries, a.pipeline, gen, service.Config{
		ChatTopK:         topK,
		MaxContextTokens: budget.MaxContextTokens(),
	})
	return a, nil
}

// close releases the store.
func (a *app) close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

// requireUser returns the trimmed --user flag or an error naming cmdName.
func requireUser(cmdName, user string) (string, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return "", fmt.Errorf("%s: --user is required", cmdName)
	}
	return user, nil
}

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the integer value of the named environment variable, or
// fallback if the variable is unset, empty, or not a positive integer.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

// getEnvFloat returns the float value of the named environment variable, or
// fallback if the variable is unset, empty, or not a positive number.
func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return fallback
}
