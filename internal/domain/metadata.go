package domain

// DocumentMetadata describes a source document. It is extracted once by
// the document reader, threaded through every section's prompt, and
// attached to produced cards as a provenance tag. Read-only after
// extraction.
type DocumentMetadata struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Pages    int    `json:"pages"`
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`
}
