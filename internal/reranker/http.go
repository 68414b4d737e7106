// Package reranker scores candidate journal entries against a query.
// The HTTP client speaks the /rerank shape served by TEI, Jina and Cohere
// compatible cross-encoder services; the LLM scorer asks a chat model.
package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPConfig configures an HTTP cross-encoder client.
type HTTPConfig struct {
	// Endpoint is the full rerank URL (e.g. "http://localhost:8081/rerank").
	Endpoint string

	// Model is sent in the request body. Some servers ignore it.
	Model string

	// APIKey is sent as a bearer token when set.
	APIKey string

	// Timeout bounds each request. Zero means 30s. The pipeline applies
	// its own, usually shorter, deadline on top.
	Timeout time.Duration
}

// HTTPReranker implements rag.Reranker against a /rerank endpoint.
// It is safe for concurrent use.
type HTTPReranker struct {
	// cfg holds the resolved configuration.
	cfg HTTPConfig

	// client carries the request timeout.
	client *http.Client
}

// NewHTTPReranker validates cfg and returns a client.
func NewHTTPReranker(cfg HTTPConfig) (*HTTPReranker, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("reranker: RERANKER_ENDPOINT is required for http reranker")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &HTTPReranker{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}, nil
}

type rerankRequest struct {
	Model     string   `json:"model,omitempty"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type rerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float32 `json:"relevance_score"`
}

type rerankResponse struct {
	Results []rerankResult `json:"results"`
}

// Score implements rag.Reranker. Every document is requested (top_n equals
// the batch size) and results are mapped back to input order by index.
func (r *HTTPReranker) Score(ctx context.Context, query string, documents []string) ([]float32, error) {
	if len(documents) == 0 {
		return []float32{}, nil
	}

	payload, err := json.Marshal(rerankRequest{
		Model:     r.cfg.Model,
		Query:     query,
		Documents: documents,
		TopN:      len(documents),
	})
	if err != nil {
		return nil, fmt.Errorf("reranker: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("reranker: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reranker: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("reranker: HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var out rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("reranker: decode response: %w", err)
	}
	return scatter(out.Results, len(documents))
}

// scatter places each result's score at its document index. Every index
// in [0, n) must appear exactly once.
func scatter(results []rerankResult, n int) ([]float32, error) {
	if len(results) != n {
		return nil, fmt.Errorf("reranker: got %d results for %d documents", len(results), n)
	}
	scores := make([]float32, n)
	seen := make([]bool, n)
	for _, res := range results {
		if res.Index < 0 || res.Index >= n || seen[res.Index] {
			return nil, fmt.Errorf("reranker: bad or duplicate result index %d", res.Index)
		}
		seen[res.Index] = true
		scores[res.Index] = res.RelevanceScore
	}
	return scores, nil
}
