package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

const fingerprintLen = 12

// Fingerprint returns a short stable digest of input for log correlation
// without writing the input itself.
func Fingerprint(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}
