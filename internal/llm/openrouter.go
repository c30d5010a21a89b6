package llm

import (
	"context"
	"net/http"
	"strings"

	"ankigen/internal/config"
)

// openRouterBackend posts structured conversations to the OpenRouter
// aggregator, which fronts many models behind an OpenAI-compatible API
// with bearer-token auth.
type openRouterBackend struct {
	cfg    config.OpenRouterConfig
	gen    config.GenerationConfig
	client *http.Client
}

func newOpenRouterBackend(cfg config.OpenRouterConfig, gen config.GenerationConfig) *openRouterBackend {
	return &openRouterBackend{
		cfg:    cfg,
		gen:    gen,
		client: &http.Client{Timeout: providerTimeout},
	}
}

func (b *openRouterBackend) name() string { return config.ProviderOpenRouter }

func (b *openRouterBackend) call(ctx context.Context, conversation []Message) (string, error) {
	endpoint := strings.TrimRight(b.cfg.BaseURL, "/") + "/chat/completions"
	return postChatCompletion(ctx, b.client, endpoint, b.cfg.APIKey, chatRequest{
		Model:       b.cfg.Model,
		Messages:    conversation,
		Temperature: b.gen.Temperature,
		MaxTokens:   b.gen.MaxTokens,
	})
}
