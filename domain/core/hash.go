package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// ConfigRevision identifies one immutable scoring configuration document.
// Declared revisions pass through untouched; undeclared ones are
// fingerprinted from the document contents so every audit trail can name
// the exact configuration it was produced under.
type ConfigRevision string

// String returns the string representation
func (r ConfigRevision) String() string { return string(r) }

// IsEmpty checks if the revision is empty
func (r ConfigRevision) IsEmpty() bool { return r == "" }

// FingerprintConfig derives a deterministic revision from raw document bytes.
func FingerprintConfig(raw []byte) ConfigRevision {
	return ConfigRevision("sha256:" + NewHash(raw).String()[:16])
}
