package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Badar25/Journal-backend/internal/store"
	"github.com/Badar25/Journal-backend/internal/version"
)

// ---------------------------------------------------------------------------
// Fake Pinger for readiness tests
// ---------------------------------------------------------------------------

// fakePinger is a test double for the Pinger interface.
type fakePinger struct {
	// name is returned by Name().
	name string
	// err is returned by Ping(); nil means healthy.
	err error
	// delay blocks Ping for this long, or until the context ends.
	delay time.Duration
}

func (f *fakePinger) Name() string { return f.name }

func (f *fakePinger) Ping(ctx context.Context) error {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

// newReadyTestServer builds a *Server with the given pingers wired in.
func newReadyTestServer(pingers ...Pinger) *Server {
	s := newTestServer()
	s.pingers = pingers
	return s
}

func decodeReady(t *testing.T, w *httptest.ResponseRecorder) readyResponse {
	t.Helper()
	var resp readyResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

// ---------------------------------------------------------------------------
// GET /api/health: liveness
// ---------------------------------------------------------------------------

// TestHandleHealth_OK verifies that GET /api/health returns 200 with the
// status and build version.
func TestHandleHealth_OK(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()

	s.handleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d, body: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: expected application/json, got %q", ct)
	}

	var body healthResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}
	if body.Status != "ok" || body.Version != version.Version {
		t.Errorf("body = %+v", body)
	}
}

// ---------------------------------------------------------------------------
// GET /api/ready: readiness
// ---------------------------------------------------------------------------

// TestHandleReady_NoPingers verifies that /api/ready returns 200 with
// ready:true and no checks when no pingers are registered.
func TestHandleReady_NoPingers(t *testing.T) {
	t.Parallel()

	s := newReadyTestServer()
	w := httptest.NewRecorder()
	s.handleReady(w, httptest.NewRequest(http.MethodGet, "/api/ready", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body: %s", w.Code, w.Body.String())
	}
	resp := decodeReady(t, w)
	if !resp.Ready || len(resp.Checks) != 0 {
		t.Errorf("resp = %+v", resp)
	}
}

// TestHandleReady_AllHealthy verifies 200 and ordered checks when every
// probe succeeds.
func TestHandleReady_AllHealthy(t *testing.T) {
	t.Parallel()

	s := newReadyTestServer(
		&fakePinger{name: "memory"},
		&fakePinger{name: "embedder"},
	)
	w := httptest.NewRecorder()
	s.handleReady(w, httptest.NewRequest(http.MethodGet, "/api/ready", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body: %s", w.Code, w.Body.String())
	}
	resp := decodeReady(t, w)
	if !resp.Ready || len(resp.Checks) != 2 {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Checks[0].Name != "memory" || resp.Checks[1].Name != "embedder" {
		t.Errorf("checks out of order: %+v", resp.Checks)
	}
}

// TestHandleReady_OneFailing verifies 503 and the failing check's error.
func TestHandleReady_OneFailing(t *testing.T) {
	t.Parallel()

	s := newReadyTestServer(
		&fakePinger{name: "llm:ollama"},
		&fakePinger{name: "qdrant", err: errors.New("connection refused")},
	)
	w := httptest.NewRecorder()
	s.handleReady(w, httptest.NewRequest(http.MethodGet, "/api/ready", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d, body: %s", w.Code, w.Body.String())
	}
	resp := decodeReady(t, w)
	if resp.Ready {
		t.Errorf("expected ready:false")
	}
	if c := resp.Checks[1]; c.OK || c.Error != "connection refused" {
		t.Errorf("qdrant check = %+v", c)
	}
	if !resp.Checks[0].OK {
		t.Errorf("llm check = %+v", resp.Checks[0])
	}
}

// TestHandleReady_ProbesRunConcurrently verifies that slow probes overlap
// instead of adding up.
func TestHandleReady_ProbesRunConcurrently(t *testing.T) {
	t.Parallel()

	s := newReadyTestServer(
		&fakePinger{name: "a", delay: 200 * time.Millisecond},
		&fakePinger{name: "b", delay: 200 * time.Millisecond},
		&fakePinger{name: "c", delay: 200 * time.Millisecond},
	)
	start := time.Now()
	w := httptest.NewRecorder()
	s.handleReady(w, httptest.NewRequest(http.MethodGet, "/api/ready", nil))

	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("readiness took %v; probes appear sequential", elapsed)
	}
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

// TestHandleReady_StoreBackend verifies that a store backend can be
// registered as a Pinger directly.
func TestHandleReady_StoreBackend(t *testing.T) {
	t.Parallel()

	s := newReadyTestServer(store.NewMemoryBackend())
	w := httptest.NewRecorder()
	s.handleReady(w, httptest.NewRequest(http.MethodGet, "/api/ready", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body: %s", w.Code, w.Body.String())
	}
	if resp := decodeReady(t, w); resp.Checks[0].Name != "memory" {
		t.Errorf("check name = %q", resp.Checks[0].Name)
	}
}

// TestEmbedderPinger verifies the embedder probe checks the vector size.
func TestEmbedderPinger(t *testing.T) {
	t.Parallel()

	if err := NewEmbedderPinger(wordEmbedder{}, 2).Ping(context.Background()); err != nil {
		t.Errorf("matching dims: %v", err)
	}
	if err := NewEmbedderPinger(wordEmbedder{}, 768).Ping(context.Background()); err == nil {
		t.Error("expected error for mismatched dims")
	}
}

// healthFunc adapts a function to provider.HealthCheckConfig.
type healthFunc func(context.Context) error

func (f healthFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

// TestLLMPinger verifies the pinger delegates to the health check and
// labels itself by backend.
func TestLLMPinger(t *testing.T) {
	t.Parallel()

	ok := NewLLMPinger(healthFunc(func(context.Context) error { return nil }), "ollama")
	if ok.Name() != "llm:ollama" {
		t.Errorf("name = %q", ok.Name())
	}
	if err := ok.Ping(context.Background()); err != nil {
		t.Errorf("healthy: %v", err)
	}

	down := NewLLMPinger(healthFunc(func(context.Context) error { return errors.New("refused") }), "ollama")
	if err := down.Ping(context.Background()); err == nil {
		t.Error("expected error from failing health check")
	}
}

// TestMultiPinger verifies the first failure is reported with its name.
func TestMultiPinger(t *testing.T) {
	t.Parallel()

	m := NewMultiPinger(&fakePinger{name: "a"}, &fakePinger{name: "b", err: errors.New("down")})
	err := m.Ping(context.Background())
	if err == nil || err.Error() != "b: down" {
		t.Errorf("err = %v", err)
	}
	if err := NewMultiPinger(&fakePinger{name: "a"}).Ping(context.Background()); err != nil {
		t.Errorf("healthy: %v", err)
	}
}
