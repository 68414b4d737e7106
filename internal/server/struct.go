package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Badar25/Journal-backend/internal/auth"
	"github.com/Badar25/Journal-backend/internal/journal"
	"github.com/Badar25/Journal-backend/internal/result"
	"github.com/Badar25/Journal-backend/internal/service"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response. It must
	// cover a full chat or summary generation.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per user on chat and
	// summary (requests/second). Defaults to 1 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per user. Defaults to 5 if zero.
	RateBurst int
	// Verifier resolves bearer tokens to user IDs on /v1/* routes.
	// If nil, authentication is disabled and the X-User-ID header names the
	// caller (development mode).
	Verifier auth.Verifier
	// MetricsRegistry receives the server metrics. Defaults to
	// prometheus.DefaultRegisterer.
	MetricsRegistry prometheus.Registerer
	// MetricsGatherer serves GET /metrics. Defaults to
	// prometheus.DefaultGatherer.
	MetricsGatherer prometheus.Gatherer
}

// journalService is the set of operations the handlers call.
// *service.Service satisfies it; tests inject a fake.
type journalService interface {
	Create(ctx context.Context, owner string, d journal.Draft) result.Result[service.Created]
	Get(ctx context.Context, owner, id string) result.Result[journal.Entry]
	Update(ctx context.Context, owner, id string, p journal.Patch) result.Result[service.Created]
	Delete(ctx context.Context, owner, id string) result.Result[struct{}]
	List(ctx context.Context, owner string, days int) result.Result[[]journal.Entry]
	DeleteAccount(ctx context.Context, owner string) result.Result[struct{}]
	Chat(ctx context.Context, owner, message string) result.Result[service.Reply]
	Summary(ctx context.Context, owner string, days int) result.Result[service.Reply]
}

// Server is the HTTP server that exposes the journal service.
type Server struct {
	// svc handles every /v1/journals operation.
	svc journalService
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds the Prometheus collectors owned by this server.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// envelope is the body of every /v1 response.
type envelope struct {
	// Success is true when the operation succeeded.
	Success bool `json:"success"`
	// Message is a human-readable outcome.
	Message string `json:"message"`
	// Data is the operation payload. Omitted on failure.
	Data any `json:"data,omitempty"`
	// Error is the failure kind (e.g. "JOURNAL_NOT_FOUND"). Omitted on success.
	Error string `json:"error,omitempty"`
}

// chatRequest is the JSON body for POST /v1/journals/chat.
type chatRequest struct {
	// Message is the user's question for their journals.
	Message string `json:"message"`
}

// listResponse is the data payload for GET /v1/journals.
type listResponse struct {
	// Journals is the caller's entries, oldest first.
	Journals []journal.Entry `json:"journals"`
}
