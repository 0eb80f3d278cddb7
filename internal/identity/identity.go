package identity

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// Resolve returns the stable external identity for a record. A non-empty
// source-provided id wins verbatim; otherwise the id is derived from
// (url, title) so re-fetching the same posting collapses to one identity
// across runs. Always returns a non-empty string.
func Resolve(externalID, url, title string) string {
	if id := strings.TrimSpace(externalID); id != "" {
		return id
	}
	return HashString(strings.TrimSpace(url) + "||" + strings.TrimSpace(title))
}

func HashString(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
