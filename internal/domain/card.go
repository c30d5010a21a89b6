package domain

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Flashcard-specific validation errors
var (
	// ErrQuestionEmpty is returned when a card's question is blank.
	ErrQuestionEmpty = errors.New("flashcard question cannot be empty")

	// ErrAnswerEmpty is returned when a card's answer is blank.
	ErrAnswerEmpty = errors.New("flashcard answer cannot be empty")
)

// Flashcard represents a single question/answer card generated from a
// section of source text. Cards are immutable after creation: the
// pipeline either accepts them as-is or discards them.
type Flashcard struct {
	ID        uuid.UUID `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Tags      []string  `json:"tags"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

// NewFlashcard creates a Flashcard with the given content and returns an
// error if either the question or the answer is blank after trimming.
func NewFlashcard(question, answer string, tags []string, notes string) (*Flashcard, error) {
	card := &Flashcard{
		ID:        uuid.New(),
		Question:  question,
		Answer:    answer,
		Tags:      tags,
		Notes:     notes,
		CreatedAt: time.Now().UTC(),
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks the card's validity invariant: both question and
// answer must be non-blank after trimming.
func (c *Flashcard) Validate() error {
	if strings.TrimSpace(c.Question) == "" {
		return ErrQuestionEmpty
	}

	if strings.TrimSpace(c.Answer) == "" {
		return ErrAnswerEmpty
	}

	return nil
}

// IsValid reports whether the card satisfies the validity invariant.
func (c *Flashcard) IsValid() bool {
	return c.Validate() == nil
}

// ContentHash returns the card's deduplication identity: the hex MD5
// digest of "question:answer". Two cards with identical question and
// answer strings collide regardless of tags or notes. Comparison is
// case- and whitespace-sensitive.
func (c *Flashcard) ContentHash() string {
	sum := md5.Sum([]byte(c.Question + ":" + c.Answer))
	return hex.EncodeToString(sum[:])
}
