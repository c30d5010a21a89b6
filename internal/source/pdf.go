package source

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"

	"ankigen/internal/domain"
)

// readPDF extracts plain text and document info from a PDF file.
func (r *FileReader) readPDF(path string, meta *domain.DocumentMetadata) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer func() { _ = f.Close() }()

	meta.Pages = reader.NumPage()

	if info := reader.Trailer().Key("Info"); info.Kind() == pdf.Dict {
		meta.Title = info.Key("Title").Text()
		meta.Author = info.Key("Author").Text()
	}

	body, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract plain text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(body); err != nil {
		return "", fmt.Errorf("failed to read text: %w", err)
	}

	return buf.String(), nil
}
