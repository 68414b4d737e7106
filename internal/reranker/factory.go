package reranker

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cloudwego/eino/components/model"

	"github.com/Badar25/Journal-backend/internal/rag"
)

// Provider names accepted in RERANKER_PROVIDER.
const (
	ProviderHTTP = "http"
	ProviderLLM  = "llm"
	ProviderNone = "none"
)

// NewFromEnv builds the configured reranker. It returns (nil, nil) for the
// none provider, which the pipeline treats as similarity order only.
// chat is used by the llm provider and may be nil otherwise.
//
//	RERANKER_PROVIDER    = http | llm | none (default: http when RERANKER_ENDPOINT is set, else none)
//	RERANKER_ENDPOINT    full /rerank URL (http)
//	RERANKER_MODEL       model name sent to the service (http)
//	RERANKER_API_KEY     bearer token (http)
//	RERANKER_TIMEOUT_MS  client timeout in milliseconds (http)
func NewFromEnv(chat model.BaseChatModel) (rag.Reranker, error) {
	switch p := Provider(); p {
	case ProviderNone:
		return nil, nil
	case ProviderHTTP:
		r, err := NewHTTPReranker(HTTPConfig{
			Endpoint: os.Getenv("RERANKER_ENDPOINT"),
			Model:    os.Getenv("RERANKER_MODEL"),
			APIKey:   os.Getenv("RERANKER_API_KEY"),
			Timeout:  time.Duration(getEnvInt("RERANKER_TIMEOUT_MS", 0)) * time.Millisecond,
		})
		if err != nil {
			return nil, err
		}
		return r, nil
	case ProviderLLM:
		r, err := NewLLMReranker(chat)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("reranker: unknown provider %q, valid values: http, llm, none", p)
	}
}

// Provider resolves RERANKER_PROVIDER with its endpoint-based default.
func Provider() string {
	if p := os.Getenv("RERANKER_PROVIDER"); p != "" {
		return p
	}
	if os.Getenv("RERANKER_ENDPOINT") != "" {
		return ProviderHTTP
	}
	return ProviderNone
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
