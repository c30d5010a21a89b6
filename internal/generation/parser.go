package generation

import (
	"regexp"
	"strings"

	"ankigen/internal/domain"
)

var (
	// cardSeparatorRe matches the line of three-or-more hyphens that
	// separates cards in the output grammar.
	cardSeparatorRe = regexp.MustCompile(`-{3,}`)

	// tagSeparatorRe splits tag lists on ASCII and full-width commas.
	tagSeparatorRe = regexp.MustCompile(`[,，]`)
)

// ParseResponse extracts flashcard candidates from raw LLM output.
//
// The response is split on runs of three-or-more hyphens; each non-blank
// block yields at most one candidate: the first "Q:" span up to the next
// "A:", the "A:" span up to an optional "Tags:", and the comma-separated
// tag list to end of block. Blocks missing either Q: or A: are skipped
// silently. The parser is best-effort and never fails on arbitrary text.
//
// When the metadata carries a file name, a synthetic "source:<file>"
// provenance tag is appended to every candidate.
func ParseResponse(raw string, meta domain.DocumentMetadata) []*domain.Flashcard {
	var cards []*domain.Flashcard

	for _, block := range cardSeparatorRe.Split(raw, -1) {
		if strings.TrimSpace(block) == "" {
			continue
		}

		question, answer, tags, ok := parseBlock(block)
		if !ok {
			continue
		}

		if meta.FileName != "" {
			tags = append(tags, "source:"+meta.FileName)
		}

		card, err := domain.NewFlashcard(question, answer, tags, "")
		if err != nil {
			// Blank after trimming; treat like a malformed block.
			continue
		}
		cards = append(cards, card)
	}

	return cards
}

// parseBlock pulls the Q/A/Tags spans out of one candidate block.
func parseBlock(block string) (question, answer string, tags []string, ok bool) {
	qIdx := strings.Index(block, "Q:")
	if qIdx < 0 {
		return "", "", nil, false
	}
	rest := block[qIdx+len("Q:"):]

	aIdx := strings.Index(rest, "A:")
	if aIdx < 0 {
		return "", "", nil, false
	}
	question = strings.TrimSpace(rest[:aIdx])

	rest = rest[aIdx+len("A:"):]
	if tIdx := strings.Index(rest, "Tags:"); tIdx >= 0 {
		answer = strings.TrimSpace(rest[:tIdx])
		tags = parseTags(rest[tIdx+len("Tags:"):])
	} else {
		answer = strings.TrimSpace(rest)
	}

	return question, answer, tags, true
}

func parseTags(raw string) []string {
	var tags []string
	for _, tag := range tagSeparatorRe.Split(raw, -1) {
		if t := strings.TrimSpace(tag); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
