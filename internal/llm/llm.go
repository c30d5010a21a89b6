// Package llm provides a uniform gateway over the supported LLM
// backends. A backend is selected once at construction time from the
// provider configuration; every call goes through the shared retry
// policy. The supported set is closed: a local Ollama daemon, the hosted
// OpenAI chat API, and the hosted OpenRouter aggregator.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ankigen/internal/config"
)

// Conversation roles understood by every backend.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// providerTimeout bounds a single provider HTTP call. Generation against
// local models can be slow, so the timeout is generous.
const providerTimeout = 120 * time.Second

// Common errors returned by the llm package
var (
	// ErrUnsupportedProvider is returned when the configured provider
	// name is not one of the supported backends. This is a terminal
	// configuration error and is never retried.
	ErrUnsupportedProvider = errors.New("unsupported LLM provider")

	// ErrEmptyResponse is returned when a backend reply contains no
	// usable content.
	ErrEmptyResponse = errors.New("empty response from LLM provider")

	// ErrRequestFailed is returned when the HTTP exchange with a backend
	// fails or yields a non-2xx status.
	ErrRequestFailed = errors.New("LLM provider request failed")
)

// Message is a single role-tagged turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Service is the gateway interface the pipeline depends on. A call may
// block the invoking worker for the full timeout times the retry budget
// in the worst case; callers run it off any latency-sensitive path.
type Service interface {
	// CallWithRetry sends the conversation to the configured backend,
	// retrying failed attempts per the configured policy, and returns
	// the model's text reply.
	CallWithRetry(ctx context.Context, conversation []Message) (string, error)
}

// backend is one concrete provider transport. Exactly three
// implementations exist; selection happens once in New.
type backend interface {
	name() string
	call(ctx context.Context, conversation []Message) (string, error)
}

// New constructs the gateway for the provider selected in cfg. An
// unknown provider name is a configuration error reported immediately.
func New(cfg *config.Config, logger *slog.Logger) (Service, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	var (
		b   backend
		err error
	)

	switch cfg.Provider {
	case config.ProviderOllama:
		b, err = newOllamaBackend(cfg.Ollama, cfg.Generation)
	case config.ProviderOpenAI:
		b = newOpenAIBackend(cfg.OpenAI, cfg.Generation)
	case config.ProviderOpenRouter:
		b = newOpenRouterBackend(cfg.OpenRouter, cfg.Generation)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("LLM gateway initialized",
		"provider", b.name(),
		"max_retries", cfg.Generation.MaxRetries,
		"retry_delay_seconds", cfg.Generation.RetryDelaySeconds)

	return &retryingService{
		backend:   b,
		policy:    cfg.Generation,
		logger:    logger,
		sleepFunc: sleepWithContext,
	}, nil
}
