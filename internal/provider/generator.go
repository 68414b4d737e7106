package provider

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/Badar25/Journal-backend/internal/logging"
	"github.com/Badar25/Journal-backend/internal/result"
)

// Generator produces a single text reply from a prompt. It is safe for
// concurrent use when the underlying chat model is.
type Generator struct {
	// model is the eino chat model that does the work.
	model model.BaseChatModel

	// name labels the backend in log lines.
	name string
}

// NewGenerator wraps m. name labels the backend in log lines.
func NewGenerator(m model.BaseChatModel, name string) *Generator {
	return &Generator{model: m, name: name}
}

// Name returns the backend label.
func (g *Generator) Name() string { return g.name }

// Generate sends msgs to the model and returns its trimmed text. A model
// error or a blank reply is a GENERATION_ERROR. Globally registered
// callback handlers, such as tracing, observe the call.
func (g *Generator) Generate(ctx context.Context, msgs []*schema.Message) result.Result[string] {
	start := time.Now()
	ctx = callbacks.InitCallbacks(ctx, &callbacks.RunInfo{
		Name:      "journal-" + g.name,
		Type:      g.name,
		Component: components.ComponentOfChatModel,
	})
	resp, err := g.model.Generate(ctx, msgs)
	if err != nil {
		return result.Wrap[string](result.KindGenerationError, "Failed to generate response", err,
			"backend", g.name)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return result.Err[string](result.KindGenerationError, "Model returned an empty response",
			"backend", g.name)
	}

	attrs := []any{
		slog.String("backend", g.name),
		slog.Duration("elapsed", time.Since(start)),
	}
	if resp.ResponseMeta != nil && resp.ResponseMeta.Usage != nil {
		attrs = append(attrs,
			slog.Int("prompt_tokens", resp.ResponseMeta.Usage.PromptTokens),
			slog.Int("completion_tokens", resp.ResponseMeta.Usage.CompletionTokens),
		)
	}
	logging.FromContext(ctx).Debug("provider: generated", attrs...)
	return result.Ok(strings.TrimSpace(resp.Content))
}
