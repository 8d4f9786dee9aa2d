// Package idhash computes deterministic record identifiers.
// Deterministic IDs make commits idempotent: re-running acquisition over
// the same source data produces the same entry_id and hits the unique
// constraint instead of duplicating rows.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// ComputeEntryID computes a deterministic entry_id from the canonical
// source URL using SHA256. Returns a hex-encoded hash (64 characters).
func ComputeEntryID(sourceURL string) string {
	hash := sha256.Sum256([]byte(CanonicalURL(sourceURL)))
	return hex.EncodeToString(hash[:])
}

// CanonicalURL normalizes a marketplace URL for identity comparison:
// lowercased scheme/host, no fragment, no query string, no trailing
// slash. Marketplaces append tracking parameters freely; two URLs that
// differ only in those must map to the same entry.
func CanonicalURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}
	u.Fragment = ""
	u.RawQuery = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String()
}
