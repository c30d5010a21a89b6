package generation

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ankigen/internal/config"
	"ankigen/internal/domain"
	"ankigen/internal/llm"
)

// stubSource returns fixed text and metadata.
type stubSource struct {
	text string
	meta domain.DocumentMetadata
	err  error
}

func (s *stubSource) Read(path string) (string, domain.DocumentMetadata, error) {
	if s.err != nil {
		return "", domain.DocumentMetadata{}, s.err
	}
	return s.text, s.meta, nil
}

// scriptedGateway derives its reply from the user prompt, so each
// section deterministically yields its own cards.
type scriptedGateway struct {
	reply func(userPrompt string) (string, error)
}

func (g *scriptedGateway) CallWithRetry(ctx context.Context, conversation []llm.Message) (string, error) {
	user := conversation[len(conversation)-1].Content
	return g.reply(user)
}

func pipelineConfig() config.GenerationConfig {
	return config.GenerationConfig{
		MaxRetries:        3,
		RetryDelaySeconds: 0,
		Temperature:       0.3,
		MaxTokens:         2048,
		CardsPerSection:   5,
		MinCardQuality:    0.7,
		SectionMaxTokens:  1500,
		WorkerCount:       3,
	}
}

func TestGenerateEndToEnd(t *testing.T) {
	source := &stubSource{
		text: "Go was designed at Google. It compiles to native code. Gophers love it.",
		meta: domain.DocumentMetadata{Title: "Go Notes", FileName: "go.txt", FileType: "txt", Pages: 1},
	}
	gateway := &scriptedGateway{reply: func(string) (string, error) {
		return "Q: Where was Go designed?\nA: At Google.\nTags: go\n---\n" +
			"Q: What does Go compile to?\nA: Native code.\n---", nil
	}}

	pipeline := NewPipeline(source, gateway, &fixedJudge{score: 0.9}, pipelineConfig(), setupTestLogger())

	cards, err := pipeline.Generate(context.Background(), "go.txt", false)

	require.NoError(t, err)
	require.Len(t, cards, 2)
	for _, card := range cards {
		assert.True(t, card.IsValid())
		assert.Contains(t, card.Tags, "source:go.txt")
	}
	assert.LessOrEqual(t, len(cards), pipelineConfig().CardsPerSection)

	assert.Equal(t, StateDone, pipeline.State())
	stats := pipeline.Stats()
	assert.Equal(t, int64(1), stats.SectionsTotal, "three sentences under budget form one section")
	assert.Equal(t, int64(1), stats.SectionsProcessed)
	assert.Equal(t, int64(0), stats.SectionsFailed)
	assert.Equal(t, int64(2), stats.CardsAccepted)
}

func TestGeneratePreviewLimitsSections(t *testing.T) {
	// Every sentence exceeds half the tiny budget, forcing one section
	// per sentence.
	var sentences []string
	for i := 0; i < 8; i++ {
		sentences = append(sentences, fmt.Sprintf("Topic%02d is explained at length with many additional words of padding here.", i))
	}
	source := &stubSource{text: strings.Join(sentences, " "), meta: domain.DocumentMetadata{FileName: "doc.md"}}

	topicRe := regexp.MustCompile(`Topic\d\d`)
	gateway := &scriptedGateway{reply: func(user string) (string, error) {
		topic := topicRe.FindString(user)
		return fmt.Sprintf("Q: What is %s?\nA: %s is a topic.\n---", topic, topic), nil
	}}

	cfg := pipelineConfig()
	cfg.SectionMaxTokens = 12

	pipeline := NewPipeline(source, gateway, &fixedJudge{score: 1.0}, cfg, setupTestLogger())

	cards, err := pipeline.Generate(context.Background(), "doc.md", false)

	require.NoError(t, err)
	assert.Len(t, cards, previewSectionCount)
	assert.Equal(t, int64(previewSectionCount), pipeline.Stats().SectionsTotal)
}

func TestGenerateConcurrentSetEquality(t *testing.T) {
	var sentences []string
	for i := 0; i < 10; i++ {
		sentences = append(sentences, fmt.Sprintf("Topic%02d is explained at length with many additional words of padding here.", i))
	}
	text := strings.Join(sentences, " ")

	topicRe := regexp.MustCompile(`Topic\d\d`)
	newGateway := func() *scriptedGateway {
		return &scriptedGateway{reply: func(user string) (string, error) {
			topic := topicRe.FindString(user)
			return fmt.Sprintf("Q: What is %s?\nA: %s is a topic.\n---", topic, topic), nil
		}}
	}

	cfg := pipelineConfig()
	cfg.SectionMaxTokens = 12
	cfg.WorkerCount = 3

	run := func() []string {
		source := &stubSource{text: text, meta: domain.DocumentMetadata{FileName: "doc.txt"}}
		pipeline := NewPipeline(source, newGateway(), &fixedJudge{score: 1.0}, cfg, setupTestLogger())
		cards, err := pipeline.Generate(context.Background(), "doc.txt", true)
		require.NoError(t, err)

		var keys []string
		for _, c := range cards {
			keys = append(keys, c.Question+"|"+c.Answer)
		}
		sort.Strings(keys)
		return keys
	}

	first := run()
	require.Len(t, first, 10)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, run(), "accepted card set must not depend on scheduling order")
	}
}

func TestGenerateSectionFailureIsIsolated(t *testing.T) {
	var sentences []string
	for i := 0; i < 4; i++ {
		sentences = append(sentences, fmt.Sprintf("Topic%02d is explained at length with many additional words of padding here.", i))
	}
	source := &stubSource{text: strings.Join(sentences, " "), meta: domain.DocumentMetadata{FileName: "doc.txt"}}

	topicRe := regexp.MustCompile(`Topic\d\d`)
	gateway := &scriptedGateway{reply: func(user string) (string, error) {
		topic := topicRe.FindString(user)
		if topic == "Topic01" {
			return "", errors.New("provider exploded")
		}
		return fmt.Sprintf("Q: What is %s?\nA: %s is a topic.\n---", topic, topic), nil
	}}

	cfg := pipelineConfig()
	cfg.SectionMaxTokens = 12

	pipeline := NewPipeline(source, gateway, &fixedJudge{score: 1.0}, cfg, setupTestLogger())

	cards, err := pipeline.Generate(context.Background(), "doc.txt", true)

	require.NoError(t, err, "a failed section must not fail the run")
	assert.Len(t, cards, 3)

	stats := pipeline.Stats()
	assert.Equal(t, int64(4), stats.SectionsTotal)
	assert.Equal(t, int64(3), stats.SectionsProcessed)
	assert.Equal(t, int64(1), stats.SectionsFailed)
	assert.Equal(t, StateDone, pipeline.State())
}

func TestGenerateSourceReadFailureIsFatal(t *testing.T) {
	source := &stubSource{err: errors.New("no such file")}
	pipeline := NewPipeline(source, &scriptedGateway{reply: func(string) (string, error) {
		return "", nil
	}}, nil, pipelineConfig(), setupTestLogger())

	cards, err := pipeline.Generate(context.Background(), "missing.pdf", true)

	assert.Nil(t, cards)
	assert.ErrorIs(t, err, ErrSourceRead)
	assert.Equal(t, StateErrored, pipeline.State())
}

func TestGenerateZeroCardsIsNormal(t *testing.T) {
	source := &stubSource{text: "One lonely sentence.", meta: domain.DocumentMetadata{FileName: "tiny.txt"}}
	gateway := &scriptedGateway{reply: func(string) (string, error) {
		return "I cannot make cards from this.", nil
	}}

	pipeline := NewPipeline(source, gateway, &fixedJudge{score: 1.0}, pipelineConfig(), setupTestLogger())

	cards, err := pipeline.Generate(context.Background(), "tiny.txt", false)

	require.NoError(t, err)
	assert.Empty(t, cards)
	assert.Equal(t, StateDone, pipeline.State())
}
