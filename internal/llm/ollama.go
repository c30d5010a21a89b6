package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"ankigen/internal/config"
)

// ollamaBackend talks to a local Ollama daemon. The daemon exposes a
// single-prompt generate endpoint rather than a structured chat API, so
// conversations are flattened into a role-prefixed transcript first.
type ollamaBackend struct {
	client *api.Client
	model  string
	gen    config.GenerationConfig
}

func newOllamaBackend(cfg config.OllamaConfig, gen config.GenerationConfig) (*ollamaBackend, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base URL %q: %w", cfg.BaseURL, err)
	}

	return &ollamaBackend{
		client: api.NewClient(base, &http.Client{Timeout: providerTimeout}),
		model:  cfg.Model,
		gen:    gen,
	}, nil
}

func (b *ollamaBackend) name() string { return config.ProviderOllama }

func (b *ollamaBackend) call(ctx context.Context, conversation []Message) (string, error) {
	req := api.GenerateRequest{
		Model:  b.model,
		Prompt: flattenConversation(conversation),
		Options: map[string]interface{}{
			"temperature": b.gen.Temperature,
			"num_predict": b.gen.MaxTokens,
		},
	}

	var reply strings.Builder
	err := b.client.Generate(ctx, &req, func(resp api.GenerateResponse) error {
		_, err := reply.WriteString(resp.Response)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	if reply.Len() == 0 {
		return "", ErrEmptyResponse
	}

	return reply.String(), nil
}

// flattenConversation renders role-tagged turns as a "Role: content"
// transcript separated by blank lines, the format the generate endpoint
// expects in place of structured messages.
func flattenConversation(conversation []Message) string {
	var sb strings.Builder
	for _, msg := range conversation {
		switch msg.Role {
		case RoleSystem:
			sb.WriteString("System: ")
		case RoleUser:
			sb.WriteString("User: ")
		case RoleAssistant:
			sb.WriteString("Assistant: ")
		default:
			continue
		}
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n")
	}
	return sb.String()
}
