// Package budget keeps prompts inside the model's context window.
// Backends use different tokenizers, so estimates use a character
// heuristic of about 4 characters per token, which over-counts for
// English prose and leaves headroom for per-model overhead.
package budget

import (
	"os"
	"strconv"
	"unicode/utf8"

	"github.com/cloudwego/eino/schema"
)

const (
	// charsPerToken is the character-to-token ratio used for estimation.
	charsPerToken = 4

	// messageOverhead is the per-message framing cost in most chat APIs.
	messageOverhead = 4

	// DefaultMaxContextTokens is the default prompt budget in tokens. It fits
	// 8k-context models with room left for the reply.
	DefaultMaxContextTokens = 6000
)

// MaxContextTokens reads MODEL_MAX_CONTEXT_TOKENS, falling back to
// DefaultMaxContextTokens when unset or not a positive integer.
func MaxContextTokens() int {
	if v := os.Getenv("MODEL_MAX_CONTEXT_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return DefaultMaxContextTokens
}

// Estimate returns a rough token count for s. Characters are counted as
// code points so non-Latin journals are not over-trimmed.
func Estimate(s string) int {
	n := utf8.RuneCountInString(s)
	if n > 0 && n < charsPerToken {
		return 1
	}
	return n / charsPerToken
}

// EstimateMessages returns the estimated total token count of msgs,
// counting role, content and framing for each.
func EstimateMessages(msgs []*schema.Message) int {
	total := 0
	for _, m := range msgs {
		total += messageOverhead + Estimate(string(m.Role)) + Estimate(m.Content)
	}
	return total
}

// estimateLines counts lines as they are joined by newlines.
func estimateLines(lines []string) int {
	total := 0
	for _, l := range lines {
		total += Estimate(l) + 1
	}
	return total
}

// TrimFront drops lines from the start until fixedTokens plus the lines
// fit in maxTokens. Use it when lines are chronological and the oldest
// should go first.
func TrimFront(lines []string, fixedTokens, maxTokens int) []string {
	for len(lines) > 0 && fixedTokens+estimateLines(lines) > maxTokens {
		lines = lines[1:]
	}
	return lines
}

// TrimBack drops lines from the end until fixedTokens plus the lines fit
// in maxTokens. Use it when lines are ranked and the least relevant should
// go first.
func TrimBack(lines []string, fixedTokens, maxTokens int) []string {
	for len(lines) > 0 && fixedTokens+estimateLines(lines) > maxTokens {
		lines = lines[:len(lines)-1]
	}
	return lines
}
