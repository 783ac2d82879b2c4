// File path: internal/fingerprint/fingerprint.go
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Digest is a 256-bit content digest used as the variable component of cache
// keys. Equal canonical inputs always produce equal digests; the hash is
// cryptographic because a collision would silently serve the wrong cached
// artifact.
type Digest [sha256.Size]byte

// Hex renders the digest in the persisted key format ({prefix}:{hex digest}).
func (d Digest) Hex() string {
	return hex.EncodeToString(d[:])
}

// Sum fingerprints an already-canonicalized byte payload.
func Sum(canonical []byte) Digest {
	return sha256.Sum256(canonical)
}

// Question canonicalizes a natural-language question: surrounding whitespace
// is stripped and the text lowercased, so that casing variants of the same
// question share one cache entry. Used by the gen and ans tiers.
func Question(question string) []byte {
	return []byte(strings.ToLower(strings.TrimSpace(question)))
}

// Text canonicalizes embedding input. Only surrounding whitespace is
// stripped: embeddings are case-sensitive, so the body is left untouched.
// Used by the emb tier.
func Text(text string) []byte {
	return []byte(strings.TrimSpace(text))
}

// Statement canonicalizes a SQL statement for result caching: interior runs
// of whitespace collapse to single spaces and the text is lowercased, so
// formatting variants of the same statement share one result entry.
// Used by the res tier.
func Statement(statement string) []byte {
	return []byte(strings.ToLower(strings.Join(strings.Fields(statement), " ")))
}
