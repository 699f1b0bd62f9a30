package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashing. The version suffix enables future
// algorithm migration without colliding with existing hashes.
const (
	DomainFact = "graft/fact/v1"
)

// HashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte prevents
// domain/data boundary ambiguity.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// FactIntegrityHash computes the integrity hash stamped on every ledger
// fact at append time. The hash covers the fact's identifying content, so
// any later tampering with a stored row is detectable by recomputation.
func FactIntegrityHash(subjectID, factType string, payload any, amends string, seq int64) (string, error) {
	obj := map[string]any{
		"subject_id": subjectID,
		"fact_type":  factType,
		"payload":    payload,
		"amends":     amends,
		"seq":        seq,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("FactIntegrityHash: failed to marshal: %w", err)
	}
	return HashWithDomain(DomainFact, canonical), nil
}

// MustFactIntegrityHash is like FactIntegrityHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustFactIntegrityHash(subjectID, factType string, payload any, amends string, seq int64) string {
	h, err := FactIntegrityHash(subjectID, factType, payload, amends, seq)
	if err != nil {
		panic(err)
	}
	return h
}
