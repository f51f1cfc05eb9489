package config

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
)

// CanonicalHash is the SHA-256 of the packaged defaults with every CR and LF
// removed. Update it together with default-config.ini.
const CanonicalHash = "42ca13cb7f7d3c30a61992ff1ce0ccf805877fd499f53f63e6f5eb3a2107d289"

// Hash returns the line-ending agnostic hash of a configuration file.
func Hash(data []byte) string {
	stripped := bytes.ReplaceAll(data, []byte{'\r'}, nil)
	stripped = bytes.ReplaceAll(stripped, []byte{'\n'}, nil)
	sum := sha256.Sum256(stripped)
	return hex.EncodeToString(sum[:])
}

// VerifyIntegrity checks defaults against CanonicalHash.
func VerifyIntegrity(defaults []byte) error {
	if got := Hash(defaults); got != CanonicalHash {
		return &IntegrityError{Want: CanonicalHash, Got: got}
	}
	return nil
}
