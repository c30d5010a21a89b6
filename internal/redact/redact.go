// Package redact strips credentials from strings before they are
// logged. Hosted provider error bodies occasionally echo request
// headers or key material back at the caller, so gateway errors pass
// through here on their way to the log.
package redact

import "regexp"

const RedactedKeyPlaceholder = "[REDACTED_KEY]"

var (
	// Explicit key assignments: api_key=..., token: "...", secret=...
	apiKeyRegex = regexp.MustCompile(
		`(?i)(api[_-]?key|token|secret|authorization)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`,
	)

	// Bearer header values.
	bearerRegex = regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9_\-.~+/]{8,}`)

	// Bare OpenAI/OpenRouter style keys.
	skKeyRegex = regexp.MustCompile(`\bsk-(?:or-)?[A-Za-z0-9_-]{16,}`)

	patterns = []*regexp.Regexp{apiKeyRegex, bearerRegex, skKeyRegex}
)

// String replaces anything that looks like a credential in input with
// a placeholder.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, pattern := range patterns {
		result = pattern.ReplaceAllString(result, RedactedKeyPlaceholder)
	}
	return result
}

// Error redacts an error's message. A nil error yields the empty
// string.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
