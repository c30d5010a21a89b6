package llm

import (
	"context"
	"net/http"
	"strings"

	"ankigen/internal/config"
)

// openAIBackend posts structured conversations to the hosted OpenAI
// chat completions API.
type openAIBackend struct {
	cfg    config.OpenAIConfig
	gen    config.GenerationConfig
	client *http.Client
}

func newOpenAIBackend(cfg config.OpenAIConfig, gen config.GenerationConfig) *openAIBackend {
	return &openAIBackend{
		cfg:    cfg,
		gen:    gen,
		client: &http.Client{Timeout: providerTimeout},
	}
}

func (b *openAIBackend) name() string { return config.ProviderOpenAI }

func (b *openAIBackend) call(ctx context.Context, conversation []Message) (string, error) {
	endpoint := strings.TrimRight(b.cfg.BaseURL, "/") + "/chat/completions"
	return postChatCompletion(ctx, b.client, endpoint, b.cfg.APIKey, chatRequest{
		Model:       b.cfg.Model,
		Messages:    conversation,
		Temperature: b.gen.Temperature,
		MaxTokens:   b.gen.MaxTokens,
	})
}
