package redact_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"ankigen/internal/redact"
)

func TestStringRedactsKeyAssignments(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
	}{
		{"api key assignment", `request rejected: api_key=abcd1234efgh5678`},
		{"token colon", `{"error": "invalid token: tok_abcdef123456789"}`},
		{"bearer header", `authorization failed for Bearer abcdef1234567890`},
		{"openai style key", `provided key sk-abcdefghijklmnopqrst is invalid`},
		{"openrouter style key", `provided key sk-or-abcdefghijklmnopqrst is invalid`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := redact.String(tc.input)
			assert.Contains(t, got, redact.RedactedKeyPlaceholder)
			assert.NotContains(t, got, "abcdefghijklmnopqrst")
			assert.NotContains(t, got, "abcd1234efgh5678")
			assert.NotContains(t, got, "tok_abcdef123456789")
		})
	}
}

func TestStringLeavesPlainTextAlone(t *testing.T) {
	t.Parallel()

	input := "status 429: rate limit exceeded, retry after 20 seconds"
	assert.Equal(t, input, redact.String(input))
}

func TestStringEmptyInput(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", redact.String(""))
}

func TestError(t *testing.T) {
	t.Parallel()

	err := errors.New("upstream said: api_key=verysecret1234 is expired")
	got := redact.Error(err)
	assert.Contains(t, got, redact.RedactedKeyPlaceholder)
	assert.NotContains(t, got, "verysecret1234")

	assert.Equal(t, "", redact.Error(nil))
}
