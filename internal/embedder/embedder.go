// Package embedder turns journal text into dense vectors for the entry store
// and the retrieval pipeline. Backends (Ollama, OpenAI, Azure OpenAI) are
// reached over their JSON HTTP APIs.
package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody bounds how much of a failed response body is kept in the error.
const maxErrorBody = 512

// StatusError is returned when a backend answers with a non-2xx status.
type StatusError struct {
	// Backend names the embedder that made the call.
	Backend string

	// Code is the HTTP status code.
	Code int

	// Message is the backend's error message, or a truncated body.
	Message string
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s embedder: HTTP %d: %s", e.Backend, e.Code, e.Message)
}

// postJSON sends body as JSON to url and decodes a 2xx response into out.
// errMessage extracts a backend-specific message from a failed response.
func postJSON(ctx context.Context, client *http.Client, backend, url string, headers map[string]string, body, out any, errMessage func([]byte) string) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s embedder: marshal request: %w", backend, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s embedder: create request: %w", backend, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s embedder: request failed: %w", backend, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := errMessage(raw)
		if msg == "" {
			msg = string(bytes.TrimSpace(raw))
		}
		return &StatusError{Backend: backend, Code: resp.StatusCode, Message: msg}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s embedder: decode response: %w", backend, err)
	}
	return nil
}
