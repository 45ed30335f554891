package invitations

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const (
	// CodeLength is the length of every invite code.
	CodeLength = 8

	// codeAlphabet is the 32-symbol alphabet invite codes are drawn from.
	// Visually ambiguous characters (0/O, 1/I) are excluded so codes can
	// be read aloud and retyped.
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// GenerateInviteCode returns a random 8-character invite code.
func GenerateInviteCode() (string, error) {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	code := make([]byte, CodeLength)
	for i, b := range buf {
		code[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}

	return string(code), nil
}

// NormalizeCode uppercases a code for lookup. Codes are case-insensitive
// on the wire; the stored form is always uppercase.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCodeFormat reports whether a normalized code could have been
// produced by GenerateInviteCode.
func ValidCodeFormat(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for _, c := range code {
		if !strings.ContainsRune(codeAlphabet, c) {
			return false
		}
	}
	return true
}
