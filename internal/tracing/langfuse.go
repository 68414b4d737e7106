// Package tracing wires optional Langfuse tracing into model calls. When
// enabled, the handler is registered globally and every Generator call
// reports its prompt and reply as a trace.
package tracing

import (
	"fmt"
	"os"
	"strconv"

	"github.com/cloudwego/eino-ext/callbacks/langfuse"
	"github.com/cloudwego/eino/callbacks"

	"github.com/Badar25/Journal-backend/internal/version"
)

// defaultHost is used when LANGFUSE_HOST is unset.
const defaultHost = "http://localhost:3000"

// Config holds Langfuse settings.
type Config struct {
	// Host is the Langfuse API base URL.
	Host string

	// PublicKey and SecretKey authenticate the client. Tracing is disabled
	// unless both are set.
	PublicKey string
	SecretKey string

	// SampleRate is the fraction of traces kept, in (0, 1].
	SampleRate float64
}

// Enabled reports whether both keys are present.
func (c Config) Enabled() bool {
	return c.PublicKey != "" && c.SecretKey != ""
}

// ConfigFromEnv reads LANGFUSE_HOST, LANGFUSE_PUBLIC_KEY,
// LANGFUSE_SECRET_KEY and LANGFUSE_SAMPLE_RATE.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		Host:       os.Getenv("LANGFUSE_HOST"),
		PublicKey:  os.Getenv("LANGFUSE_PUBLIC_KEY"),
		SecretKey:  os.Getenv("LANGFUSE_SECRET_KEY"),
		SampleRate: 1,
	}
	if cfg.Host == "" {
		cfg.Host = defaultHost
	}
	if v := os.Getenv("LANGFUSE_SAMPLE_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil || rate <= 0 || rate > 1 {
			return Config{}, fmt.Errorf("tracing: LANGFUSE_SAMPLE_RATE must be in (0, 1], got %q", v)
		}
		cfg.SampleRate = rate
	}
	return cfg, nil
}

// Setup builds the Langfuse callback handler for cfg. The returned flush
// function must be called before process exit so queued traces are sent.
// When cfg is not enabled it returns nil, nil, false.
func Setup(cfg Config) (callbacks.Handler, func(), bool) {
	if !cfg.Enabled() {
		return nil, nil, false
	}

	handler, flusher := langfuse.NewLangfuseHandler(&langfuse.Config{
		Host:       cfg.Host,
		PublicKey:  cfg.PublicKey,
		SecretKey:  cfg.SecretKey,
		SampleRate: cfg.SampleRate,
		Name:       "journal",
		Release:    version.Version,
	})

	return handler, flusher, true
}
