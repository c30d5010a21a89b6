// Package textproc provides the text processing primitives of the
// generation pipeline: token estimation, sentence-bounded segmentation
// under a token budget, key concept extraction, and source text cleanup.
// Everything here is a pure function of its input.
package textproc

import (
	"regexp"
	"strings"
)

// defaultCharsPerToken is the general-purpose fallback ratio. Roughly
// four characters of English text per LLM token.
const defaultCharsPerToken = 4.0

// charsPerTokenByFamily maps model name prefixes to an approximate
// characters-per-token ratio for that tokenizer family.
var charsPerTokenByFamily = []struct {
	prefix string
	ratio  float64
}{
	{"gpt-", 4.0},
	{"llama", 3.5},
	{"meta-llama/", 3.5},
	{"mistral", 3.6},
	{"qwen", 3.5},
}

var (
	sentenceBoundary = regexp.MustCompile(`[.!?]\s+`)
	keyConceptRe     = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\b`)
	whitespaceRunRe  = regexp.MustCompile(`\s+`)
	brokenWordRe     = regexp.MustCompile(`(\w)-\s+(\w)`)
)

// maxKeyConcepts caps the number of concept hints fed into a prompt.
const maxKeyConcepts = 10

// Section is a contiguous run of sentences from the source document,
// bounded by an estimated token count. Sections are immutable and
// consumed independently by the orchestrator.
type Section struct {
	// Index is the section's zero-based position in the document.
	Index int

	// Text holds the section's sentences joined by single spaces.
	Text string

	// Tokens is the estimated token count of Text.
	Tokens int
}

// EstimateTokens approximates the number of LLM tokens text will consume.
// When the model hint matches a known tokenizer family a family-specific
// ratio is used, otherwise a general-purpose ratio applies. The estimate
// is deterministic for identical input and hint.
func EstimateTokens(text, modelHint string) int {
	if text == "" {
		return 0
	}

	ratio := defaultCharsPerToken
	hint := strings.ToLower(modelHint)
	for _, family := range charsPerTokenByFamily {
		if strings.HasPrefix(hint, family.prefix) {
			ratio = family.ratio
			break
		}
	}

	chars := len([]rune(text))
	estimate := int(float64(chars)/ratio) + 1

	// A token never spans a word boundary, so the word count is a floor.
	if words := len(strings.Fields(text)); words > estimate {
		estimate = words
	}

	return estimate
}

// SplitSentences splits text into sentences. A sentence ends at '.', '!'
// or '?' followed by whitespace; the terminating punctuation stays with
// its sentence.
func SplitSentences(text string) []string {
	var sentences []string
	prev := 0
	for _, m := range sentenceBoundary.FindAllStringIndex(text, -1) {
		sentences = append(sentences, text[prev:m[0]+1])
		prev = m[1]
	}
	if tail := text[prev:]; strings.TrimSpace(tail) != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// Segment splits text at sentence boundaries and greedily packs
// consecutive sentences into sections of at most maxTokens estimated
// tokens. A sentence that alone exceeds the budget becomes its own
// oversized section rather than being truncated mid-sentence; an empty
// section is never emitted. Output preserves original sentence order.
func Segment(text string, maxTokens int) []Section {
	sentences := SplitSentences(text)

	var sections []Section
	var current []string
	currentTokens := 0

	flush := func() {
		joined := strings.Join(current, " ")
		sections = append(sections, Section{
			Index:  len(sections),
			Text:   joined,
			Tokens: EstimateTokens(joined, ""),
		})
	}

	for _, sentence := range sentences {
		sentenceTokens := EstimateTokens(sentence, "")

		if currentTokens+sentenceTokens > maxTokens && len(current) > 0 {
			flush()
			current = []string{sentence}
			currentTokens = sentenceTokens
			continue
		}

		current = append(current, sentence)
		currentTokens += sentenceTokens
	}

	if len(current) > 0 {
		flush()
	}

	return sections
}

// ExtractKeyConcepts returns up to ten capitalized words and multi-word
// phrases from text in first-seen order. A cheap proper-noun detector
// used only to hint the generation prompt; not authoritative.
func ExtractKeyConcepts(text string) []string {
	matches := keyConceptRe.FindAllString(text, -1)

	seen := make(map[string]struct{}, len(matches))
	var concepts []string
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		concepts = append(concepts, m)
		if len(concepts) == maxKeyConcepts {
			break
		}
	}

	return concepts
}

// CleanText normalizes raw extracted text before segmentation: collapses
// all whitespace runs to a single space and rejoins words broken across
// lines by a hyphen.
func CleanText(text string) string {
	text = whitespaceRunRe.ReplaceAllString(text, " ")
	text = brokenWordRe.ReplaceAllString(text, "$1$2")
	return strings.TrimSpace(text)
}
