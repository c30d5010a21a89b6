package generation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"ankigen/internal/config"
	"ankigen/internal/domain"
	"ankigen/internal/llm"
	"ankigen/internal/task"
	"ankigen/internal/textproc"
)

// previewSectionCount is how many sections are processed when the
// caller does not ask for the whole document. A deliberate cost bound:
// each section costs one generation call plus one judge call per card.
const previewSectionCount = 3

// State is the orchestrator's phase for the document being processed.
type State string

const (
	StateIdle        State = "idle"
	StateSegmenting  State = "segmenting"
	StateDispatching State = "dispatching"
	StateAggregating State = "aggregating"
	StateDone        State = "done"
	StateErrored     State = "errored"
)

// DocumentSource reads a document's full text and metadata. Implemented
// by internal/source; kept as an interface here so the pipeline can be
// driven by stubs in tests.
type DocumentSource interface {
	Read(path string) (string, domain.DocumentMetadata, error)
}

// Generator defines the interface for generating flashcards from a
// source document. It is the boundary between the application core and
// the pipeline implementation.
type Generator interface {
	// Generate reads the document at path, splits it into sections, and
	// returns the accepted flashcards. When processAll is false only
	// the first sections of the document are processed.
	Generate(ctx context.Context, path string, processAll bool) ([]*domain.Flashcard, error)
}

// RunStats summarizes one Generate run.
type RunStats struct {
	SectionsTotal     int64
	SectionsProcessed int64
	SectionsFailed    int64
	CardsParsed       int64
	CardsAccepted     int64
}

// Pipeline is the concrete Generator: DocumentSource -> segmentation ->
// bounded fan-out of prompt/gateway/parse/gate per section -> aggregate.
type Pipeline struct {
	source  DocumentSource
	gateway llm.Service
	gate    *QualityGate
	cfg     config.GenerationConfig
	logger  *slog.Logger

	mu    sync.Mutex
	state State
	stats RunStats
}

// NewPipeline wires the pipeline. judge may be nil; the quality gate
// then scores every card at the neutral default. The dedup registry
// lives for the pipeline's lifetime, so cards are deduplicated across
// all documents processed by one pipeline instance.
func NewPipeline(
	source DocumentSource,
	gateway llm.Service,
	judge Judge,
	cfg config.GenerationConfig,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		source:  source,
		gateway: gateway,
		gate:    NewQualityGate(NewDedupRegistry(), judge, cfg.MinCardQuality, logger),
		cfg:     cfg,
		logger:  logger,
		state:   StateIdle,
	}
}

// Generate implements Generator. Per-section failures are isolated:
// they are logged, counted, and contribute zero cards. A run producing
// zero cards is a normal outcome, distinct from a source read failure.
func (p *Pipeline) Generate(ctx context.Context, path string, processAll bool) ([]*domain.Flashcard, error) {
	p.setState(StateSegmenting)
	p.resetStats()

	text, meta, err := p.source.Read(path)
	if err != nil {
		p.setState(StateErrored)
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceRead, path, err)
	}

	p.logger.InfoContext(ctx, "document read",
		"file", meta.FileName,
		"type", meta.FileType,
		"title", meta.Title,
		"pages", meta.Pages)

	sections := textproc.Segment(text, p.cfg.SectionMaxTokens)
	p.logger.InfoContext(ctx, "document segmented",
		"sections", len(sections),
		"max_tokens", p.cfg.SectionMaxTokens)

	if !processAll && len(sections) > previewSectionCount {
		sections = sections[:previewSectionCount]
		p.logger.InfoContext(ctx, "processing preview sections only",
			"sections", len(sections))
	}

	atomic.StoreInt64(&p.stats.SectionsTotal, int64(len(sections)))

	if len(sections) == 0 {
		p.setState(StateDone)
		p.logger.InfoContext(ctx, "document produced no sections, nothing to generate")
		return []*domain.Flashcard{}, nil
	}

	p.setState(StateDispatching)
	results := make(chan []*domain.Flashcard, len(sections))

	queue := task.NewQueue(len(sections), p.logger)
	pool := task.NewWorkerPool(ctx, queue, task.WorkerPoolConfig{WorkerCount: p.cfg.WorkerCount}, p.logger)
	pool.SetErrorHandler(func(t task.Task, err error) {
		atomic.AddInt64(&p.stats.SectionsFailed, 1)
	})

	for _, section := range sections {
		if err := queue.Enqueue(&sectionTask{
			id:       uuid.New(),
			pipeline: p,
			section:  section,
			meta:     meta,
			results:  results,
		}); err != nil {
			// Queue is sized to the section count; this cannot happen.
			p.logger.ErrorContext(ctx, "failed to enqueue section", "error", err)
			atomic.AddInt64(&p.stats.SectionsFailed, 1)
		}
	}
	queue.Close()

	pool.Start()
	pool.Wait()
	close(results)

	p.setState(StateAggregating)

	// Aggregation order follows worker completion, not section order.
	var cards []*domain.Flashcard
	for sectionCards := range results {
		cards = append(cards, sectionCards...)
		atomic.AddInt64(&p.stats.SectionsProcessed, 1)
	}
	atomic.AddInt64(&p.stats.CardsAccepted, int64(len(cards)))

	p.setState(StateDone)

	gateStats := p.gate.Stats()
	p.logger.InfoContext(ctx, "generation run finished",
		"sections_total", atomic.LoadInt64(&p.stats.SectionsTotal),
		"sections_processed", atomic.LoadInt64(&p.stats.SectionsProcessed),
		"sections_failed", atomic.LoadInt64(&p.stats.SectionsFailed),
		"cards_parsed", atomic.LoadInt64(&p.stats.CardsParsed),
		"cards_accepted", len(cards),
		"rejected_invalid", gateStats.Invalid,
		"rejected_duplicate", gateStats.Duplicates,
		"rejected_low_quality", gateStats.LowQuality)

	return cards, nil
}

// generateForSection runs the per-section unit of work: prompt build,
// gateway call, parse, quality gate.
func (p *Pipeline) generateForSection(ctx context.Context, section textproc.Section, meta domain.DocumentMetadata) ([]*domain.Flashcard, error) {
	system, user := BuildGenerationPrompt(section, meta, p.cfg.CardsPerSection)

	raw, err := p.gateway.CallWithRetry(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: user},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: section %d: %v", ErrSectionFailed, section.Index, err)
	}

	candidates := ParseResponse(raw, meta)
	atomic.AddInt64(&p.stats.CardsParsed, int64(len(candidates)))

	accepted := p.gate.Filter(ctx, candidates)

	p.logger.InfoContext(ctx, "section processed",
		"section", section.Index,
		"candidates", len(candidates),
		"accepted", len(accepted))

	return accepted, nil
}

// State returns the orchestrator's current phase.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Stats returns a snapshot of the last run's counters.
func (p *Pipeline) Stats() RunStats {
	return RunStats{
		SectionsTotal:     atomic.LoadInt64(&p.stats.SectionsTotal),
		SectionsProcessed: atomic.LoadInt64(&p.stats.SectionsProcessed),
		SectionsFailed:    atomic.LoadInt64(&p.stats.SectionsFailed),
		CardsParsed:       atomic.LoadInt64(&p.stats.CardsParsed),
		CardsAccepted:     atomic.LoadInt64(&p.stats.CardsAccepted),
	}
}

// GateStats returns the quality gate's process-lifetime counters.
func (p *Pipeline) GateStats() GateStats {
	return p.gate.Stats()
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	prev := p.state
	p.state = s
	p.mu.Unlock()

	p.logger.Debug("pipeline state changed", "from", string(prev), "to", string(s))
}

func (p *Pipeline) resetStats() {
	atomic.StoreInt64(&p.stats.SectionsTotal, 0)
	atomic.StoreInt64(&p.stats.SectionsProcessed, 0)
	atomic.StoreInt64(&p.stats.SectionsFailed, 0)
	atomic.StoreInt64(&p.stats.CardsParsed, 0)
	atomic.StoreInt64(&p.stats.CardsAccepted, 0)
}

// sectionTask adapts one section's generation work to the task.Task
// interface consumed by the worker pool.
type sectionTask struct {
	id       uuid.UUID
	pipeline *Pipeline
	section  textproc.Section
	meta     domain.DocumentMetadata
	results  chan<- []*domain.Flashcard
}

func (t *sectionTask) ID() uuid.UUID { return t.id }

func (t *sectionTask) Type() string { return "section_generation" }

func (t *sectionTask) Execute(ctx context.Context) error {
	cards, err := t.pipeline.generateForSection(ctx, t.section, t.meta)
	if err != nil {
		return err
	}
	t.results <- cards
	return nil
}
