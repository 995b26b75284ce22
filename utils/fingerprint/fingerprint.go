package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash maps a raw client fingerprint to a stable opaque identifier.
// SHA-256, hex encoded, unsalted: fingerprints are already
// client-specific and only non-reversibility is required.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(raw)))
	return hex.EncodeToString(sum[:])
}
