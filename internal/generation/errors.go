package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrSourceRead is returned when the source document cannot be read.
	// This is fatal for the document; no sections are processed.
	ErrSourceRead = errors.New("failed to read source document")

	// ErrSectionFailed wraps a per-section pipeline failure. Section
	// failures are isolated: they are logged, counted, and contribute
	// zero cards without aborting sibling sections.
	ErrSectionFailed = errors.New("section generation failed")
)
