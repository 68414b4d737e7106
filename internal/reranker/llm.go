package reranker

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// maxDocumentRunes truncates each document in the scoring prompt.
const maxDocumentRunes = 2000

const llmSystemPrompt = `You score how relevant journal entries are to a question.
Reply with only a JSON array of numbers between 0 and 1, one per entry, in the order given.
Do not add any other text.`

// LLMReranker implements rag.Reranker by asking a chat model for a JSON
// array of scores. It is slower and noisier than a cross-encoder and is
// meant for deployments that already run a chat model and nothing else.
type LLMReranker struct {
	// model answers the scoring prompt.
	model model.BaseChatModel
}

// NewLLMReranker returns an LLMReranker backed by m.
func NewLLMReranker(m model.BaseChatModel) (*LLMReranker, error) {
	if m == nil {
		return nil, fmt.Errorf("reranker: chat model must not be nil")
	}
	return &LLMReranker{model: m}, nil
}

// Score implements rag.Reranker.
func (r *LLMReranker) Score(ctx context.Context, query string, documents []string) ([]float32, error) {
	if len(documents) == 0 {
		return []float32{}, nil
	}

	resp, err := r.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(llmSystemPrompt),
		schema.UserMessage(scoringPrompt(query, documents)),
	})
	if err != nil {
		return nil, fmt.Errorf("reranker: llm generate: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("reranker: llm returned no message")
	}

	scores, err := parseScores(resp.Content)
	if err != nil {
		return nil, err
	}
	if len(scores) != len(documents) {
		return nil, fmt.Errorf("reranker: llm returned %d scores for %d documents", len(scores), len(documents))
	}
	return scores, nil
}

// scoringPrompt numbers the documents under the question.
func scoringPrompt(query string, documents []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nEntries:\n", query)
	for i, d := range documents {
		if rs := []rune(d); len(rs) > maxDocumentRunes {
			d = string(rs[:maxDocumentRunes])
		}
		fmt.Fprintf(&b, "[%d] %s\n", i, strconv.Quote(d))
	}
	fmt.Fprintf(&b, "\nReturn %d scores.", len(documents))
	return b.String()
}

// parseScores extracts the first JSON array in s. Models often wrap the
// answer in prose or a code fence.
func parseScores(s string) ([]float32, error) {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end < start {
		return nil, fmt.Errorf("reranker: no JSON array in llm reply")
	}
	var raw []float64
	if err := json.Unmarshal([]byte(s[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("reranker: parse llm scores: %w", err)
	}
	out := make([]float32, len(raw))
	for i, v := range raw {
		out[i] = float32(v)
	}
	return out, nil
}
