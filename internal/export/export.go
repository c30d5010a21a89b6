// Package export writes accepted flashcards to flat files: Anki
// importable tab-separated text, CSV, and JSON. All three writers take
// the same card list and are independent of one another.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ankigen/internal/domain"
)

// timestampLayout is the run timestamp embedded in output file names.
const timestampLayout = "20060102_150405"

// Paths holds the output file locations for one export run.
type Paths struct {
	AnkiTxt string
	CSV     string
	JSON    string
}

// OutputPaths builds the conventional output file names for a run:
// <base>_<YYYYMMDD_HHMMSS>_anki.txt, <base>_<timestamp>.csv and
// <base>_<timestamp>.json under dir.
func OutputPaths(dir, baseName string, now time.Time) Paths {
	ts := now.Format(timestampLayout)
	return Paths{
		AnkiTxt: filepath.Join(dir, fmt.Sprintf("%s_%s_anki.txt", baseName, ts)),
		CSV:     filepath.Join(dir, fmt.Sprintf("%s_%s.csv", baseName, ts)),
		JSON:    filepath.Join(dir, fmt.Sprintf("%s_%s.json", baseName, ts)),
	}
}

// WriteAnkiTxt writes one tab-separated line per card:
// question<TAB>answer<TAB>tags joined by spaces. The format imports
// directly into Anki.
func WriteAnkiTxt(cards []*domain.Flashcard, path string) error {
	var sb strings.Builder
	for _, card := range cards {
		sb.WriteString(card.Question)
		sb.WriteByte('\t')
		sb.WriteString(card.Answer)
		sb.WriteByte('\t')
		sb.WriteString(strings.Join(card.Tags, " "))
		sb.WriteByte('\n')
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write anki txt: %w", err)
	}
	return nil
}

// WriteCSV writes cards as CSV with a "Question,Answer,Tags" header;
// tags are joined by spaces.
func WriteCSV(cards []*domain.Flashcard, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Question", "Answer", "Tags"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, card := range cards {
		if err := w.Write([]string{card.Question, card.Answer, strings.Join(card.Tags, " ")}); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// cardJSON is the stable JSON export shape for one card.
type cardJSON struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Tags     []string `json:"tags"`
	Notes    string   `json:"notes"`
}

// WriteJSON writes cards as an indented UTF-8 JSON array of
// {question, answer, tags, notes} objects.
func WriteJSON(cards []*domain.Flashcard, path string) error {
	out := make([]cardJSON, 0, len(cards))
	for _, card := range cards {
		tags := card.Tags
		if tags == nil {
			tags = []string{}
		}
		out = append(out, cardJSON{
			Question: card.Question,
			Answer:   card.Answer,
			Tags:     tags,
			Notes:    card.Notes,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cards: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write json file: %w", err)
	}
	return nil
}
