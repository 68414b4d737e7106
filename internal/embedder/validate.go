package embedder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Badar25/Journal-backend/internal/rag"
)

// probeText is embedded once at startup to learn the live vector size.
const probeText = "journal embedding probe"

// chatModelFragments identify chat/completion models, which produce poor or
// no embeddings when configured as EMBEDDING_MODEL.
var chatModelFragments = []string{
	"gpt-4", "gpt-3.5", "gpt-35", "o1", "o3",
	"llama3", "llama2", "llama-3", "llama-2",
	"mistral", "mixtral", "gemma", "phi-", "phi3",
	"claude", "command-r", "deepseek", "qwen",
}

// looksLikeChatModel reports whether model resembles a chat model name.
func looksLikeChatModel(model string) bool {
	lower := strings.ToLower(model)
	for _, frag := range chatModelFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

// ValidateConfig checks the embedding configuration before any store is
// opened. It returns an error for configuration that cannot work and logs a
// warning for configuration that probably will not work well.
func ValidateConfig(log *slog.Logger) error {
	backend := Backend()

	if err := checkCredentials(backend); err != nil {
		return err
	}

	if os.Getenv("EMBEDDING_PROVIDER") == "" && os.Getenv("MODEL_PROVIDER") != "" && backend != "ollama" {
		log.Info("embedder: inheriting MODEL_PROVIDER as embedding backend",
			slog.String("backend", backend),
		)
	}

	if model := os.Getenv("EMBEDDING_MODEL"); model != "" && looksLikeChatModel(model) {
		log.Warn("embedder: EMBEDDING_MODEL looks like a chat model",
			slog.String("model", model),
			slog.String("hint", "use an embedding model such as nomic-embed-text or text-embedding-3-small"),
		)
	}
	return nil
}

// Probe embeds a fixed string and fails unless the vector has dims
// components. Run it once at startup so a model swap is caught before the
// first write lands vectors of the wrong size.
func Probe(ctx context.Context, e rag.Embedder, dims int) error {
	r := rag.EmbedOne(ctx, e, probeText, 0)
	if !r.IsOk() {
		return fmt.Errorf("embedder: probe failed: %w", r.Err())
	}
	if got := len(r.Value()); got != dims {
		return fmt.Errorf("embedder: model returned %d dimensions, configured %d (set EMBEDDING_DIMENSIONS=%d or change the model)", got, dims, got)
	}
	return nil
}

// firstEnv returns the first non-empty value among keys.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
