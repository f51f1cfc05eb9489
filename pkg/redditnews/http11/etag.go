package http11

import (
	"crypto/sha256"
	"encoding/base64"
)

// ETag returns the URL-safe base64 SHA-256 digest of content. The value is
// unquoted; responses quote it.
func ETag(content []byte) string {
	sum := sha256.Sum256(content)
	return base64.URLEncoding.EncodeToString(sum[:])
}
