package core

import (
	"strings"
	"unicode/utf8"
)

// Limits applied before values reach storage or the worker pool.
const (
	// MaxDiagnosticLength is the maximum length for stored error diagnostics.
	MaxDiagnosticLength = 4096

	// MaxConcurrency is the hard limit for scheduler concurrency.
	MaxConcurrency = 256
)

// SanitizeDiagnostic strips control characters (newlines and tabs excepted)
// from a diagnostic message and truncates it for storage.
func SanitizeDiagnostic(msg string) string {
	if msg == "" {
		return ""
	}

	var sanitized strings.Builder
	sanitized.Grow(len(msg))

	for _, r := range msg {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			sanitized.WriteRune(r)
		}
	}

	result := sanitized.String()

	if utf8.RuneCountInString(result) > MaxDiagnosticLength {
		runes := []rune(result)
		result = string(runes[:MaxDiagnosticLength-3]) + "..."
	}

	return result
}

// ClampConcurrency ensures a worker-pool size is within limits.
func ClampConcurrency(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxConcurrency {
		return MaxConcurrency
	}
	return n
}
