// Package source reads documents into plain text plus metadata for the
// generation pipeline. PDF, Markdown and plain text files are supported.
package source

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ankigen/internal/domain"
	"ankigen/internal/textproc"
)

// ErrUnsupportedFormat is returned for file extensions the reader does
// not understand.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// SupportedExtensions lists the file extensions the reader accepts, in
// lowercase, dot included.
var SupportedExtensions = []string{".pdf", ".md", ".markdown", ".txt", ".text"}

// charsPerUnit approximates one page worth of text for formats that
// have no native page structure.
const charsPerUnit = 2000

// FileReader reads documents from the local filesystem, dispatching on
// file extension.
type FileReader struct {
	logger *slog.Logger
}

// NewFileReader creates a FileReader.
func NewFileReader(logger *slog.Logger) *FileReader {
	return &FileReader{logger: logger}
}

// Read extracts the document's full text and metadata. The returned
// text is cleaned: whitespace runs collapsed, hyphen-broken words
// rejoined.
func (r *FileReader) Read(path string) (string, domain.DocumentMetadata, error) {
	ext := strings.ToLower(filepath.Ext(path))

	meta := domain.DocumentMetadata{
		FileName: filepath.Base(path),
		FileType: strings.TrimPrefix(ext, "."),
	}

	var (
		text string
		err  error
	)

	switch ext {
	case ".pdf":
		text, err = r.readPDF(path, &meta)
	case ".md", ".markdown":
		text, err = r.readMarkdown(path, &meta)
	case ".txt", ".text":
		text, err = r.readPlainText(path, &meta)
	default:
		return "", domain.DocumentMetadata{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return "", domain.DocumentMetadata{}, err
	}

	cleaned := textproc.CleanText(text)

	r.logger.Debug("document read",
		"file", meta.FileName,
		"type", meta.FileType,
		"raw_chars", len(text),
		"clean_chars", len(cleaned))

	return cleaned, meta, nil
}

// IsSupported reports whether path has a supported extension.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// readMarkdown reads a Markdown file. The title is the first heading
// line within the first five lines, if any.
func (r *FileReader) readMarkdown(path string, meta *domain.DocumentMetadata) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read markdown file: %w", err)
	}
	text := string(data)

	lines := strings.Split(text, "\n")
	for i := 0; i < len(lines) && i < 5; i++ {
		line := strings.TrimSpace(lines[i])
		if strings.HasPrefix(line, "#") {
			meta.Title = strings.TrimSpace(strings.TrimLeft(line, "#"))
			break
		}
	}

	meta.Pages = approximateUnits(text)
	return text, nil
}

func (r *FileReader) readPlainText(path string, meta *domain.DocumentMetadata) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read text file: %w", err)
	}

	meta.Pages = approximateUnits(string(data))
	return string(data), nil
}

func approximateUnits(text string) int {
	units := len(text) / charsPerUnit
	if units < 1 {
		units = 1
	}
	return units
}
