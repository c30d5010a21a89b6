package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ankigen/internal/config"
	"ankigen/internal/redact"
)

// retryingService wraps a backend with the shared retry policy: up to
// MaxRetries attempts total, sleeping RetryDelaySeconds * attemptNumber
// between attempts (linear backoff). The last failure is propagated
// after the budget is exhausted.
type retryingService struct {
	backend   backend
	policy    config.GenerationConfig
	logger    *slog.Logger
	sleepFunc func(ctx context.Context, d time.Duration) error
}

func (s *retryingService) CallWithRetry(ctx context.Context, conversation []Message) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= s.policy.MaxRetries; attempt++ {
		reply, err := s.backend.call(ctx, conversation)
		if err == nil {
			return reply, nil
		}
		lastErr = err

		s.logger.WarnContext(ctx, "LLM call failed",
			"provider", s.backend.name(),
			"attempt", attempt,
			"max_attempts", s.policy.MaxRetries,
			"error", redact.Error(err))

		if attempt == s.policy.MaxRetries {
			break
		}

		delay := time.Duration(s.policy.RetryDelaySeconds*attempt) * time.Second
		if err := s.sleepFunc(ctx, delay); err != nil {
			return "", fmt.Errorf("retry aborted: %w", err)
		}
	}

	return "", fmt.Errorf("%s call failed after %d attempts: %w",
		s.backend.name(), s.policy.MaxRetries, lastErr)
}

// sleepWithContext waits for d or until ctx is cancelled, whichever
// comes first.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
