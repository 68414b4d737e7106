// Package config provides layered configuration for the journal service.
// Precedence, lowest first: built-in defaults, YAML file, .env file, process
// environment. Every layer is applied as environment variables that are
// not already set, so the process environment always wins and the rest of
// the code reads plain env vars.
//
// YAML file search order:
//  1. --config CLI flag (explicit path)
//  2. JOURNAL_CONFIG environment variable
//  3. ~/.journal/config.yaml
//  4. ./journal.yaml
//
// If no file is found the service runs entirely from env vars.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration structure.
// Field names use yaml tags that mirror the env var naming (lowercase, underscored).
type Config struct {
	// Model configures the generative model provider.
	Model ModelConfig `yaml:"model"`

	// Embedding configures the embedding provider.
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Reranker configures the optional reranking model.
	Reranker RerankerConfig `yaml:"reranker"`

	// Retrieval tunes the retrieve-and-rerank pipeline.
	Retrieval RetrievalConfig `yaml:"retrieval"`

	// Store configures where entries are persisted.
	Store StoreConfig `yaml:"store"`

	// Auth configures bearer-token verification.
	Auth AuthConfig `yaml:"auth"`

	// Retention configures the expiry sweep.
	Retention RetentionConfig `yaml:"retention"`

	// Server configures the HTTP server.
	Server ServerConfig `yaml:"server"`

	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// Tracing configures Langfuse tracing integration.
	Tracing TracingConfig `yaml:"tracing"`
}

// ModelConfig holds generative model settings.
type ModelConfig struct {
	// Provider selects the backend: ollama, openai, azure, gemini, ark.
	Provider string `yaml:"provider"`
	// MaxTokens is the maximum number of tokens in the response.
	MaxTokens int `yaml:"max_tokens"`
	// Temperature controls response randomness (0.0 to 1.0).
	Temperature float32 `yaml:"temperature"`
	// MaxContextTokens bounds the prompt, including retrieved entries.
	MaxContextTokens int `yaml:"max_context_tokens"`
	// Ollama holds Ollama-specific settings.
	Ollama OllamaConfig `yaml:"ollama"`
	// OpenAI holds OpenAI-specific settings.
	OpenAI OpenAIConfig `yaml:"openai"`
	// Azure holds Azure OpenAI-specific settings.
	Azure AzureConfig `yaml:"azure"`
	// Gemini holds Google Gemini-specific settings.
	Gemini GeminiConfig `yaml:"gemini"`
	// Ark holds Volcengine Ark-specific settings.
	Ark ArkConfig `yaml:"ark"`
}

// OllamaConfig holds Ollama provider settings.
type OllamaConfig struct {
	// Host is the Ollama API endpoint.
	Host string `yaml:"host"`
	// Model is the Ollama model name.
	Model string `yaml:"model"`
}

// OpenAIConfig holds OpenAI provider settings.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key. Prefer env var OPENAI_API_KEY.
	APIKey string `yaml:"api_key"`
	// Model is the OpenAI model name.
	Model string `yaml:"model"`
	// BaseURL points at an OpenAI-compatible server.
	BaseURL string `yaml:"base_url"`
}

// AzureConfig holds Azure OpenAI provider settings.
type AzureConfig struct {
	// APIKey is the Azure OpenAI API key. Prefer env var AZURE_OPENAI_API_KEY.
	APIKey string `yaml:"api_key"`
	// Endpoint is the Azure OpenAI resource endpoint.
	Endpoint string `yaml:"endpoint"`
	// Deployment is the Azure OpenAI deployment name.
	Deployment string `yaml:"deployment"`
	// APIVersion is the Azure OpenAI API version.
	APIVersion string `yaml:"api_version"`
}

// GeminiConfig holds Google Gemini provider settings.
type GeminiConfig struct {
	// APIKey is the Google API key. Prefer env var GOOGLE_API_KEY.
	APIKey string `yaml:"api_key"`
	// Model is the Gemini model name.
	Model string `yaml:"model"`
}

// ArkConfig holds Volcengine Ark provider settings.
type ArkConfig struct {
	// APIKey is the Ark API key. Prefer env var ARK_API_KEY.
	APIKey string `yaml:"api_key"`
	// Model is the Ark endpoint or model ID.
	Model string `yaml:"model"`
	// BaseURL overrides the regional Ark endpoint.
	BaseURL string `yaml:"base_url"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	// Provider selects the embedding backend (ollama, openai, azure).
	Provider string `yaml:"provider"`
	// Model is the embedding model name.
	Model string `yaml:"model"`
	// Dimensions overrides the embedding vector size.
	Dimensions int `yaml:"dimensions"`
	// APIKey is the embedding API key. Prefer env var EMBEDDING_API_KEY.
	APIKey string `yaml:"api_key"`
	// Endpoint is the embedding API endpoint.
	Endpoint string `yaml:"endpoint"`
	// Timeout bounds each embedding request, as a Go duration (e.g. "20s").
	Timeout string `yaml:"timeout"`
}

// RerankerConfig holds reranker settings.
type RerankerConfig struct {
	// Provider selects http, llm or none.
	Provider string `yaml:"provider"`
	// Endpoint is the /rerank URL for the http provider.
	Endpoint string `yaml:"endpoint"`
	// Model is the reranking model name.
	Model string `yaml:"model"`
	// APIKey is the reranker API key. Prefer env var RERANKER_API_KEY.
	APIKey string `yaml:"api_key"`
	// TimeoutMS bounds each rerank call in milliseconds.
	TimeoutMS int `yaml:"timeout_ms"`
}

// RetrievalConfig tunes chat retrieval.
type RetrievalConfig struct {
	// TopK is the number of entries that ground a chat reply.
	TopK int `yaml:"top_k"`
	// OverfetchFactor multiplies TopK for the rerank candidate pool.
	OverfetchFactor int `yaml:"overfetch_factor"`
}

// StoreConfig holds persistence settings.
type StoreConfig struct {
	// Backend selects qdrant, sqlite or memory.
	Backend string `yaml:"backend"`
	// ListLimit caps list results.
	ListLimit int `yaml:"list_limit"`
	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string `yaml:"sqlite_path"`
	// Qdrant holds Qdrant connection settings.
	Qdrant QdrantConfig `yaml:"qdrant"`
}

// QdrantConfig holds Qdrant vector store settings.
type QdrantConfig struct {
	// Host is the Qdrant server hostname.
	Host string `yaml:"host"`
	// Port is the Qdrant gRPC port.
	Port int `yaml:"port"`
	// Collection is the Qdrant collection name.
	Collection string `yaml:"collection"`
	// APIKey is the Qdrant API key. Prefer env var QDRANT_API_KEY.
	APIKey string `yaml:"api_key"`
	// TLS enables TLS for the Qdrant connection.
	TLS bool `yaml:"tls"`
}

// AuthConfig holds token verification settings.
type AuthConfig struct {
	// Disabled turns authentication off for local development.
	Disabled bool `yaml:"disabled"`
	// JWTSecret is the HS256 secret. Prefer env var AUTH_JWT_SECRET.
	JWTSecret string `yaml:"jwt_secret"`
	// JWTPublicKeyFile is a PEM file holding the RS256 public key.
	JWTPublicKeyFile string `yaml:"jwt_public_key_file"`
	// Issuer is the required iss claim.
	Issuer string `yaml:"issuer"`
	// Audience is the required aud entry.
	Audience string `yaml:"audience"`
	// Leeway tolerates clock skew (Go duration).
	Leeway string `yaml:"leeway"`
	// RevokedTokenIDs lists revoked jti values.
	RevokedTokenIDs []string `yaml:"revoked_token_ids"`
}

// RetentionConfig holds expiry sweep settings. Durations use Go syntax.
type RetentionConfig struct {
	// Enabled runs the sweep inside `journal serve`. Nil keeps the default (on).
	Enabled *bool `yaml:"enabled"`
	// MaxAge is how long an entry is kept.
	MaxAge string `yaml:"max_age"`
	// Interval separates successful sweeps.
	Interval string `yaml:"interval"`
	// Cooldown separates a failed sweep from its retry.
	Cooldown string `yaml:"cooldown"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the bind address.
	Host string `yaml:"host"`
	// Port is the TCP port.
	Port int `yaml:"port"`
	// RateLimit is the sustained chat/summary rate per user (requests/second).
	RateLimit float64 `yaml:"rate_limit"`
	// RateBurst is the chat/summary burst per user.
	RateBurst int `yaml:"rate_burst"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is the log output format: json, text.
	Format string `yaml:"format"`
}

// TracingConfig holds Langfuse tracing settings.
type TracingConfig struct {
	// PublicKey is the Langfuse public key. Prefer env var LANGFUSE_PUBLIC_KEY.
	PublicKey string `yaml:"public_key"`
	// SecretKey is the Langfuse secret key. Prefer env var LANGFUSE_SECRET_KEY.
	SecretKey string `yaml:"secret_key"`
	// Host is the Langfuse API host.
	Host string `yaml:"host"`
}

// envMapping maps YAML config fields to their corresponding env var names.
// Only non-empty YAML values are applied; env vars always take precedence.
var envMapping = []struct {
	envKey string
	value  func(*Config) string
}{
	{"MODEL_PROVIDER", func(c *Config) string { return c.Model.Provider }},
	{"MODEL_MAX_TOKENS", func(c *Config) string { return intStr(c.Model.MaxTokens) }},
	{"MODEL_TEMPERATURE", func(c *Config) string { return floatStr(float64(c.Model.Temperature)) }},
	{"MODEL_MAX_CONTEXT_TOKENS", func(c *Config) string { return intStr(c.Model.MaxContextTokens) }},
	{"OLLAMA_HOST", func(c *Config) string { return c.Model.Ollama.Host }},
	{"OLLAMA_MODEL", func(c *Config) string { return c.Model.Ollama.Model }},
	{"OPENAI_API_KEY", func(c *Config) string { return c.Model.OpenAI.APIKey }},
	{"OPENAI_MODEL", func(c *Config) string { return c.Model.OpenAI.Model }},
	{"OPENAI_BASE_URL", func(c *Config) string { return c.Model.OpenAI.BaseURL }},
	{"AZURE_OPENAI_API_KEY", func(c *Config) string { return c.Model.Azure.APIKey }},
	{"AZURE_OPENAI_ENDPOINT", func(c *Config) string { return c.Model.Azure.Endpoint }},
	{"AZURE_OPENAI_DEPLOYMENT", func(c *Config) string { return c.Model.Azure.Deployment }},
	{"AZURE_OPENAI_API_VERSION", func(c *Config) string { return c.Model.Azure.APIVersion }},
	{"GOOGLE_API_KEY", func(c *Config) string { return c.Model.Gemini.APIKey }},
	{"GEMINI_MODEL", func(c *Config) string { return c.Model.Gemini.Model }},
	{"ARK_API_KEY", func(c *Config) string { return c.Model.Ark.APIKey }},
	{"ARK_MODEL", func(c *Config) string { return c.Model.Ark.Model }},
	{"ARK_BASE_URL", func(c *Config) string { return c.Model.Ark.BaseURL }},
	{"EMBEDDING_PROVIDER", func(c *Config) string { return c.Embedding.Provider }},
	{"EMBEDDING_MODEL", func(c *Config) string { return c.Embedding.Model }},
	{"EMBEDDING_DIMENSIONS", func(c *Config) string { return intStr(c.Embedding.Dimensions) }},
	{"EMBEDDING_API_KEY", func(c *Config) string { return c.Embedding.APIKey }},
	{"EMBEDDING_ENDPOINT", func(c *Config) string { return c.Embedding.Endpoint }},
	{"EMBEDDING_TIMEOUT", func(c *Config) string { return c.Embedding.Timeout }},
	{"RERANKER_PROVIDER", func(c *Config) string { return c.Reranker.Provider }},
	{"RERANKER_ENDPOINT", func(c *Config) string { return c.Reranker.Endpoint }},
	{"RERANKER_MODEL", func(c *Config) string { return c.Reranker.Model }},
	{"RERANKER_API_KEY", func(c *Config) string { return c.Reranker.APIKey }},
	{"RERANKER_TIMEOUT_MS", func(c *Config) string { return intStr(c.Reranker.TimeoutMS) }},
	{"RETRIEVAL_TOP_K", func(c *Config) string { return intStr(c.Retrieval.TopK) }},
	{"RETRIEVAL_OVERFETCH_FACTOR", func(c *Config) string { return intStr(c.Retrieval.OverfetchFactor) }},
	{"STORE_BACKEND", func(c *Config) string { return c.Store.Backend }},
	{"STORE_LIST_LIMIT", func(c *Config) string { return intStr(c.Store.ListLimit) }},
	{"SQLITE_PATH", func(c *Config) string { return c.Store.SQLitePath }},
	{"QDRANT_HOST", func(c *Config) string { return c.Store.Qdrant.Host }},
	{"QDRANT_PORT", func(c *Config) string { return intStr(c.Store.Qdrant.Port) }},
	{"QDRANT_COLLECTION", func(c *Config) string { return c.Store.Qdrant.Collection }},
	{"QDRANT_API_KEY", func(c *Config) string { return c.Store.Qdrant.APIKey }},
	{"QDRANT_TLS", func(c *Config) string { return boolStr(c.Store.Qdrant.TLS) }},
	{"AUTH_DISABLED", func(c *Config) string { return boolStr(c.Auth.Disabled) }},
	{"AUTH_JWT_SECRET", func(c *Config) string { return c.Auth.JWTSecret }},
	{"AUTH_JWT_PUBLIC_KEY_FILE", func(c *Config) string { return c.Auth.JWTPublicKeyFile }},
	{"AUTH_JWT_ISSUER", func(c *Config) string { return c.Auth.Issuer }},
	{"AUTH_JWT_AUDIENCE", func(c *Config) string { return c.Auth.Audience }},
	{"AUTH_JWT_LEEWAY", func(c *Config) string { return c.Auth.Leeway }},
	{"AUTH_REVOKED_TOKEN_IDS", func(c *Config) string { return strings.Join(c.Auth.RevokedTokenIDs, ",") }},
	{"RETENTION_ENABLED", func(c *Config) string { return optBoolStr(c.Retention.Enabled) }},
	{"RETENTION_MAX_AGE", func(c *Config) string { return c.Retention.MaxAge }},
	{"RETENTION_INTERVAL", func(c *Config) string { return c.Retention.Interval }},
	{"RETENTION_COOLDOWN", func(c *Config) string { return c.Retention.Cooldown }},
	{"SERVER_HOST", func(c *Config) string { return c.Server.Host }},
	{"SERVER_PORT", func(c *Config) string { return intStr(c.Server.Port) }},
	{"SERVER_RATE_LIMIT", func(c *Config) string { return floatStr(c.Server.RateLimit) }},
	{"SERVER_RATE_BURST", func(c *Config) string { return intStr(c.Server.RateBurst) }},
	{"LOG_LEVEL", func(c *Config) string { return c.Logging.Level }},
	{"LOG_FORMAT", func(c *Config) string { return c.Logging.Format }},
	{"LANGFUSE_PUBLIC_KEY", func(c *Config) string { return c.Tracing.PublicKey }},
	{"LANGFUSE_SECRET_KEY", func(c *Config) string { return c.Tracing.SecretKey }},
	{"LANGFUSE_HOST", func(c *Config) string { return c.Tracing.Host }},
}

// Load applies the .env file and then the YAML config file as environment
// variables, never overwriting a variable that is already set. It returns
// the YAML path that was loaded, or "" if none was found.
func Load(explicitPath string, log *slog.Logger) (string, error) {
	if err := loadDotEnv(".env", log); err != nil {
		return "", err
	}

	path := resolveConfigPath(explicitPath)
	if path == "" {
		if explicitPath != "" {
			log.Warn("config: explicit config file not found, using env vars only",
				slog.String("path", explicitPath),
			)
		} else {
			log.Debug("config: no YAML config file found, using env vars only")
		}
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return "", fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	applied := 0
	for _, m := range envMapping {
		yamlVal := m.value(&cfg)
		if yamlVal == "" {
			continue
		}
		if _, set := os.LookupEnv(m.envKey); set {
			continue
		}
		if err := os.Setenv(m.envKey, yamlVal); err != nil {
			return "", fmt.Errorf("config: set %s: %w", m.envKey, err)
		}
		applied++
	}

	log.Info("config: loaded YAML config",
		slog.String("path", path),
		slog.Int("keys_applied", applied),
	)

	return path, nil
}

// loadDotEnv applies path with godotenv, which never overrides variables
// already present. A missing file is not an error.
func loadDotEnv(path string, log *slog.Logger) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: failed to load %s: %w", path, err)
	}
	log.Debug("config: loaded dotenv file", slog.String("path", path))
	return nil
}

// resolveConfigPath returns the first config file path that exists.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	if envPath := os.Getenv("JOURNAL_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		p := filepath.Join(home, ".journal", "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if _, err := os.Stat("journal.yaml"); err == nil {
		return "journal.yaml"
	}

	return ""
}

// intStr converts an int to string, returning "" for zero values.
func intStr(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

// floatStr converts a float to its shortest string, returning "" for zero.
func floatStr(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 32)
}

// boolStr converts a bool to string, returning "" for false.
func boolStr(v bool) string {
	if !v {
		return ""
	}
	return "true"
}

// optBoolStr renders an explicitly set bool, returning "" when unset.
func optBoolStr(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}
