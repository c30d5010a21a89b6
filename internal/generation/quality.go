package generation

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"sync/atomic"

	"ankigen/internal/domain"
	"ankigen/internal/llm"
)

// defaultQualityScore is the neutral score used when no judge is
// configured or a judgment cannot be obtained.
const defaultQualityScore = 0.5

var firstIntegerRe = regexp.MustCompile(`\d+`)

// DedupRegistry is a process-lifetime set of card content hashes. It is
// the only state mutated concurrently by section workers; Register is
// an atomic check-and-insert so two workers can never both accept the
// same card.
type DedupRegistry struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewDedupRegistry creates an empty registry.
func NewDedupRegistry() *DedupRegistry {
	return &DedupRegistry{seen: make(map[string]struct{})}
}

// Contains reports whether hash has already been registered.
func (r *DedupRegistry) Contains(hash string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.seen[hash]
	return ok
}

// Register inserts hash and reports whether it was newly added.
// First-seen wins: a false return means another card with the same
// content was accepted earlier.
func (r *DedupRegistry) Register(hash string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[hash]; ok {
		return false
	}
	r.seen[hash] = struct{}{}
	return true
}

// Judge scores a flashcard's quality in [0,1]. It is an explicit,
// optional capability of the quality gate: a gate constructed without a
// judge scores every card at the neutral default instead.
type Judge interface {
	ScoreCard(ctx context.Context, card *domain.Flashcard) (float64, error)
}

// LLMJudge implements Judge with a secondary single-turn evaluation
// call to the gateway. Policy: one judgment per card, no re-judging; a
// reply with no parsable integer scores the neutral default.
type LLMJudge struct {
	service llm.Service
}

// NewLLMJudge creates a Judge backed by the given gateway.
func NewLLMJudge(service llm.Service) *LLMJudge {
	return &LLMJudge{service: service}
}

// ScoreCard asks the model to rate the card 0-10, parses the first
// integer in the reply, and scales it to [0,1] with clamping.
func (j *LLMJudge) ScoreCard(ctx context.Context, card *domain.Flashcard) (float64, error) {
	prompt := fmt.Sprintf(`Rate the quality of the following flashcard with a score from 0 to 10.

Question: %s
Answer: %s

Criteria:
- Is the question clear and specific?
- Does the answer actually answer the question?
- Is the answer meaningful and useful for learning?
- Is the answer a non-answer such as "I don't know" or "not mentioned"?

Reply with the score as a single number (for example: 8).`, card.Question, card.Answer)

	reply, err := j.service.CallWithRetry(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: "You are an expert evaluator of educational content quality."},
		{Role: llm.RoleUser, Content: prompt},
	})
	if err != nil {
		return 0, err
	}

	match := firstIntegerRe.FindString(reply)
	if match == "" {
		return defaultQualityScore, nil
	}

	var score float64
	if _, err := fmt.Sscanf(match, "%f", &score); err != nil {
		return defaultQualityScore, nil
	}

	score /= 10.0
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, nil
}

// GateStats counts quality gate outcomes. Discards are deliberate,
// counted decisions rather than incidental control flow.
type GateStats struct {
	Accepted   int64
	Invalid    int64
	Duplicates int64
	LowQuality int64
}

// QualityGate filters parsed candidates: validity, then uniqueness
// against the dedup registry, then the LLM-judged quality score against
// the configured threshold. Rejections are logged and counted, never
// surfaced as errors.
type QualityGate struct {
	registry   *DedupRegistry
	judge      Judge // nil means no judge is configured
	minQuality float64
	logger     *slog.Logger

	accepted   atomic.Int64
	invalid    atomic.Int64
	duplicates atomic.Int64
	lowQuality atomic.Int64
}

// NewQualityGate creates a gate. judge may be nil, in which case every
// card receives the neutral default score.
func NewQualityGate(registry *DedupRegistry, judge Judge, minQuality float64, logger *slog.Logger) *QualityGate {
	return &QualityGate{
		registry:   registry,
		judge:      judge,
		minQuality: minQuality,
		logger:     logger,
	}
}

// Filter returns the candidates that pass all three stages, in input
// order. Safe for concurrent use by multiple section workers.
func (g *QualityGate) Filter(ctx context.Context, candidates []*domain.Flashcard) []*domain.Flashcard {
	accepted := make([]*domain.Flashcard, 0, len(candidates))

	for _, card := range candidates {
		if !card.IsValid() {
			g.invalid.Add(1)
			continue
		}

		hash := card.ContentHash()
		if g.registry.Contains(hash) {
			g.duplicates.Add(1)
			g.logger.DebugContext(ctx, "duplicate card discarded",
				"question", truncate(card.Question, 50))
			continue
		}

		score := g.score(ctx, card)
		if score < g.minQuality {
			g.lowQuality.Add(1)
			g.logger.WarnContext(ctx, "card rejected for low quality",
				"score", score,
				"min_quality", g.minQuality,
				"question", truncate(card.Question, 50))
			continue
		}

		// Registration is the acceptance point. A concurrent worker may
		// have registered the same content since the Contains check; the
		// loser of that race is a duplicate.
		if !g.registry.Register(hash) {
			g.duplicates.Add(1)
			continue
		}

		g.accepted.Add(1)
		accepted = append(accepted, card)
	}

	return accepted
}

func (g *QualityGate) score(ctx context.Context, card *domain.Flashcard) float64 {
	if g.judge == nil {
		return defaultQualityScore
	}

	score, err := g.judge.ScoreCard(ctx, card)
	if err != nil {
		g.logger.WarnContext(ctx, "quality judgment failed, using default score",
			"error", err,
			"default_score", defaultQualityScore)
		return defaultQualityScore
	}
	return score
}

// Stats returns a snapshot of the gate's counters.
func (g *QualityGate) Stats() GateStats {
	return GateStats{
		Accepted:   g.accepted.Load(),
		Invalid:    g.invalid.Load(),
		Duplicates: g.duplicates.Load(),
		LowQuality: g.lowQuality.Load(),
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
