package utils

import (
	"strings"
	"unicode/utf8"
)

// CleanUTF8 strips NUL bytes and invalid UTF8 sequences from feed text.
// Postgres rejects NUL in text columns and portal feeds occasionally
// carry mis-encoded item names. Returns the cleaned string and whether
// any cleaning happened.
func CleanUTF8(input string) (string, bool) {
	needsCleaning := strings.Contains(input, "\x00") || !utf8.ValidString(input)

	if !needsCleaning {
		return input, false
	}

	cleaned := strings.ToValidUTF8(input, "")
	cleaned = strings.ReplaceAll(cleaned, "\x00", "")

	return cleaned, true
}
