package generation

import (
	"fmt"
	"strings"

	"ankigen/internal/domain"
	"ankigen/internal/textproc"
)

// systemPrompt fixes the authoring principles and the literal output
// grammar the parser expects. The grammar is part of the contract
// between prompt and parser; change both together.
const systemPrompt = `You are an expert at creating Anki flashcards for effective learning.

Principles for high-quality flashcards:
1. One concept per card (minimum information principle)
2. Clear and specific questions
3. Concise, accurate answers that can be found in the given text
4. Context-independent: each card must be understandable on its own
5. Questions that prompt active recall

Important: do not create a question unless its answer is clearly stated in the text.
Answers like "I don't know", "not stated in the text" or "no definition is given" are forbidden.

Format: write each card exactly as
Q: [question]
A: [answer]
Tags: [tag1, tag2, ...]
---`

// BuildGenerationPrompt renders the system/user prompt pair for one
// section. Pure function: identical inputs produce identical prompts.
func BuildGenerationPrompt(section textproc.Section, meta domain.DocumentMetadata, cardsPerSection int) (string, string) {
	concepts := textproc.ExtractKeyConcepts(section.Text)
	conceptHint := "detect automatically"
	if len(concepts) > 0 {
		conceptHint = strings.Join(concepts, ", ")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Create %d Anki flashcards from the following text.\n\n", cardsPerSection)
	if meta.Title != "" {
		fmt.Fprintf(&sb, "Document: %s\n", meta.Title)
	}
	fmt.Fprintf(&sb, "Key concepts: %s\n\n", conceptHint)
	fmt.Fprintf(&sb, "Text:\n%s\n\n", section.Text)
	sb.WriteString(`Important instructions:
1. Find the answer in the text first, then write the question for it
2. If the text does not state an answer explicitly, do not create that question
3. Every answer must be based on the given text
4. Never use answers like "I don't know" or "not mentioned"

Write each card exactly in the format described above.`)

	return systemPrompt, sb.String()
}
