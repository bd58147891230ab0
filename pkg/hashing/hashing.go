// Package hashing derives the deterministic identifiers that the rest of the
// pipeline treats as stable: payload content hashes, canonical document ids,
// and alert ids. All derivations are pure functions of their inputs.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// SHA256Hex returns the lowercase hex digest of the UTF-8 bytes of text.
func SHA256Hex(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ShortHash returns the first n hex characters of SHA-256(text).
func ShortHash(text string, n int) string {
	h := SHA256Hex(text)
	if n > len(h) {
		return h
	}
	return h[:n]
}

// CanonicalJSON renders payload as RFC 8785 canonical JSON: object keys
// sorted at every level, array order preserved, compact separators, no
// non-ASCII escaping.
func CanonicalJSON(payload map[string]any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize payload: %w", err)
	}
	return canonical, nil
}

// ContentHash returns the SHA-256 hex digest of the canonical JSON encoding
// of payload. It is the content-addressing key for raw events: key order in
// the input never changes the hash, array order does.
func ContentHash(payload map[string]any) (string, error) {
	canonical, err := CanonicalJSON(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// CanonicalDocID derives the short stable document id for a source system.
// Adapters that seed the hash differently still end in this form.
func CanonicalDocID(sourceSystem, contentHashHex string) string {
	return fmt.Sprintf("%s:%s", sourceSystem, contentHashHex[:16])
}

// SeededDocID builds a canonical doc id from a source-specific identity seed
// instead of the full content hash.
func SeededDocID(sourceSystem, seed string) string {
	return fmt.Sprintf("%s:%s", sourceSystem, ShortHash(seed, 16))
}

// AlertID derives the 24-hex stable alert identifier.
func AlertID(canonicalDocID, tier, eventType string) string {
	return ShortHash(fmt.Sprintf("%s|%s|%s", canonicalDocID, tier, eventType), 24)
}
