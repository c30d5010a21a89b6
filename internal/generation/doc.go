// Package generation implements the flashcard generation pipeline:
// prompt construction, LLM response parsing, deduplication and quality
// gating, and the orchestrator that fans sections out across a bounded
// worker pool.
package generation
