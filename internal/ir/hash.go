package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix
// allows the encoding to change without colliding with old digests.
const (
	DomainProgram = "dual/program/v1"
	DomainQuery   = "dual/query/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the domain-separated digest of v's canonical encoding.
func Hash(domain string, v IRValue) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", domain, err)
	}
	return hashWithDomain(domain, canonical), nil
}

// QueryID is a stable identity for a raw query string, independent of
// the field catalog it is parsed against.
func QueryID(raw string) string {
	h, _ := Hash(DomainQuery, IRString(raw))
	return h
}
