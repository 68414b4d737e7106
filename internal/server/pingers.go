package server

import (
	"context"
	"fmt"

	"github.com/Badar25/Journal-backend/internal/embedder"
	"github.com/Badar25/Journal-backend/internal/provider"
	"github.com/Badar25/Journal-backend/internal/rag"
)

// LLMPinger probes the generative backend through its zero-cost health
// check. Backends without one are not registered for readiness, so no
// tokens are spent on probes.
type LLMPinger struct {
	// healthCheck is the backend's health endpoint probe.
	healthCheck provider.HealthCheckConfig
	// name identifies the backend in readiness responses (e.g. "ollama").
	name string
}

// NewLLMPinger constructs an LLMPinger for a non-nil health check.
func NewLLMPinger(hc provider.HealthCheckConfig, name string) *LLMPinger {
	return &LLMPinger{healthCheck: hc, name: name}
}

// Name returns the backend label used in readiness responses.
func (p *LLMPinger) Name() string { return "llm:" + p.name }

// Ping runs the backend health check.
func (p *LLMPinger) Ping(ctx context.Context) error {
	if err := p.healthCheck.HealthCheck(ctx); err != nil {
		return fmt.Errorf("%s health check failed: %w", p.name, err)
	}
	return nil
}

// EmbedderPinger probes the embedding backend by embedding a fixed string
// and checking the vector size.
type EmbedderPinger struct {
	// embedder is the backend under test.
	embedder rag.Embedder
	// dims is the vector size the store was initialised with.
	dims int
}

// NewEmbedderPinger constructs an EmbedderPinger.
func NewEmbedderPinger(e rag.Embedder, dims int) *EmbedderPinger {
	return &EmbedderPinger{embedder: e, dims: dims}
}

// Name returns the dependency label used in readiness responses.
func (p *EmbedderPinger) Name() string { return "embedder" }

// Ping embeds a probe string.
func (p *EmbedderPinger) Ping(ctx context.Context) error {
	return embedder.Probe(ctx, p.embedder, p.dims)
}
