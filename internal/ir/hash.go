package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainGraph is the domain prefix of graph fingerprints. The version
// suffix enables future algorithm migration.
const DomainGraph = "qgraph/graph/v1"

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes the content-addressed identity of a graph. It is
// stable across serialization round trips and independent of handles,
// source ranges and debug names.
func Fingerprint(root Node) (string, error) {
	canonical, err := MarshalCanonical(root)
	if err != nil {
		return "", fmt.Errorf("Fingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainGraph, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when the graph is known to be valid.
func MustFingerprint(root Node) string {
	fp, err := Fingerprint(root)
	if err != nil {
		panic(err)
	}
	return fp
}
