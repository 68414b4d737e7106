package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// OllamaHealthCheck probes GET /api/tags, which lists local models without
// running one.
type OllamaHealthCheck struct {
	// url is the full /api/tags URL.
	url string

	// client bounds each probe.
	client *http.Client
}

// NewOllamaHealthCheck returns a health check for the Ollama server at host.
func NewOllamaHealthCheck(host string) *OllamaHealthCheck {
	return &OllamaHealthCheck{
		url:    strings.TrimRight(host, "/") + "/api/tags",
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// HealthCheck implements HealthCheckConfig.
func (h *OllamaHealthCheck) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return fmt.Errorf("provider: ollama health request: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("provider: ollama unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider: ollama health returned HTTP %d", resp.StatusCode)
	}
	return nil
}
