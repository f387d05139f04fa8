package knol

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// canonical cleans one content field for hashing. Case and surrounding
// whitespace do not change a fingerprint.
func canonical(part string) string {
	p := strings.ToLower(part)
	p = strings.ReplaceAll(p, "\r\n", "\n")
	return strings.TrimSpace(p)
}

// Fingerprint returns the SHA-256 of a card's content as a hex string.
// Fields are joined with a newline so that ("ab", "c") and ("a", "bc") hash
// differently.
func Fingerprint(prompt, answer, deck string) string {
	joined := strings.Join([]string{canonical(prompt), canonical(answer), canonical(deck)}, "\n")
	sum := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(sum[:])
}
