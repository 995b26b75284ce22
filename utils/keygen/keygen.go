package keygen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

const (
	segmentCount = 4
	segmentBytes = 2 // 2 random bytes -> 4 hex characters per segment
)

var keyPattern = regexp.MustCompile(`^[0-9A-F]{4}-[0-9A-F]{4}-[0-9A-F]{4}-[0-9A-F]{4}$`)

// New returns a fresh access key token in the XXXX-XXXX-XXXX-XXXX format.
// Each segment is independently random, giving 16^16 possible keys.
func New() (string, error) {
	segments := make([]string, 0, segmentCount)
	for i := 0; i < segmentCount; i++ {
		buf := make([]byte, segmentBytes)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generate key segment: %w", err)
		}
		segments = append(segments, strings.ToUpper(hex.EncodeToString(buf)))
	}
	return strings.Join(segments, "-"), nil
}

// IsValid reports whether the string has the access key token shape.
func IsValid(value string) bool {
	return keyPattern.MatchString(value)
}

// Normalize uppercases and trims a user-entered key token.
func Normalize(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}
