package embedder

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Badar25/Journal-backend/internal/rag"
)

// Default embedding models per backend.
const (
	defaultOllamaModel = "nomic-embed-text"
	defaultOpenAIModel = "text-embedding-3-small"
	defaultOllamaHost  = "http://localhost:11434"

	// defaultOllamaDimensions is the output size of nomic-embed-text.
	defaultOllamaDimensions = 768

	// defaultOpenAIDimensions is the output size of text-embedding-3-small.
	defaultOpenAIDimensions = 1536
)

// DefaultDimensions returns the embedding vector size for the given backend
// name. The entry store is initialised with this value, so a Qdrant
// collection or SQLite file created with one model refuses to open with a
// model of another size. EMBEDDING_DIMENSIONS always takes precedence.
func DefaultDimensions(backend string) int {
	if v := getEnvInt("EMBEDDING_DIMENSIONS", 0); v > 0 {
		return v
	}
	switch backend {
	case "ollama":
		return defaultOllamaDimensions
	default:
		return defaultOpenAIDimensions
	}
}

// NewFromEnv constructs a rag.Embedder for journal content and queries,
// inheriting credentials from the chat provider configuration when
// embedding-specific overrides are not set.
//
// Keys, in resolution order:
//
//	EMBEDDING_PROVIDER    backend; see Backend
//	EMBEDDING_MODEL       overrides the backend's default model
//	EMBEDDING_API_KEY     overrides OPENAI_API_KEY / AZURE_OPENAI_API_KEY
//	EMBEDDING_ENDPOINT    overrides OLLAMA_HOST / AZURE_OPENAI_ENDPOINT
//	EMBEDDING_DIMENSIONS  overrides the default vector size
//	EMBEDDING_TIMEOUT     per-request timeout as a Go duration
func NewFromEnv() (rag.Embedder, error) {
	backend := Backend()
	if err := checkCredentials(backend); err != nil {
		return nil, err
	}
	timeout := getEnvDuration("EMBEDDING_TIMEOUT")

	if backend == "ollama" {
		host := firstEnv("EMBEDDING_ENDPOINT", "OLLAMA_HOST")
		if host == "" {
			host = defaultOllamaHost
		}
		return NewOllamaEmbedder(&OllamaConfig{
			Host:    host,
			Model:   getEnvOrDefault("EMBEDDING_MODEL", defaultOllamaModel),
			Timeout: timeout,
		}), nil
	}

	cfg := &OpenAIConfig{
		Model:      getEnvOrDefault("EMBEDDING_MODEL", defaultOpenAIModel),
		Dimensions: getEnvInt("EMBEDDING_DIMENSIONS", defaultOpenAIDimensions),
		Timeout:    timeout,
	}
	switch backend {
	case "openai":
		cfg.APIKey = firstEnv("EMBEDDING_API_KEY", "OPENAI_API_KEY")
		cfg.BaseURL = getEnvOrDefault("EMBEDDING_ENDPOINT", "https://api.openai.com/v1")
	case "azure":
		cfg.APIKey = firstEnv("EMBEDDING_API_KEY", "AZURE_OPENAI_API_KEY")
		cfg.BaseURL = strings.TrimRight(firstEnv("EMBEDDING_ENDPOINT", "AZURE_OPENAI_ENDPOINT"), "/") + "/openai"
		cfg.Azure = true
		cfg.APIVersion = getEnvOrDefault("AZURE_OPENAI_API_VERSION", "2025-04-01-preview")
	}
	return NewOpenAIEmbedder(cfg), nil
}

// checkCredentials reports missing keys or endpoints for backend.
func checkCredentials(backend string) error {
	switch backend {
	case "ollama":
	case "openai":
		if firstEnv("EMBEDDING_API_KEY", "OPENAI_API_KEY") == "" {
			return fmt.Errorf("embedder: openai backend needs OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
	case "azure":
		if firstEnv("EMBEDDING_API_KEY", "AZURE_OPENAI_API_KEY") == "" {
			return fmt.Errorf("embedder: azure backend needs AZURE_OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
		if firstEnv("EMBEDDING_ENDPOINT", "AZURE_OPENAI_ENDPOINT") == "" {
			return fmt.Errorf("embedder: azure backend needs AZURE_OPENAI_ENDPOINT or EMBEDDING_ENDPOINT")
		}
	default:
		return fmt.Errorf("embedder: unknown backend %q, valid values: ollama, openai, azure", backend)
	}
	return nil
}

// Backend resolves the embedding backend name: EMBEDDING_PROVIDER, then
// MODEL_PROVIDER when that is an embedding-capable backend, then ollama.
func Backend() string {
	if b := os.Getenv("EMBEDDING_PROVIDER"); b != "" {
		return b
	}
	switch p := os.Getenv("MODEL_PROVIDER"); p {
	case "ollama", "openai", "azure":
		return p
	}
	return "ollama"
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if i, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return i
	}
	return fallback
}

// getEnvDuration parses key as a Go duration. Unset or invalid means zero,
// which leaves the client default in place.
func getEnvDuration(key string) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d < 0 {
		return 0
	}
	return d
}
