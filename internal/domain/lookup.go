package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// LookupKey is the case-insensitive form of an id or search query.
func LookupKey(s string) string {
	return strings.ToLower(s)
}

// Find returns the first warehouse whose id matches query, ignoring case and
// the query's surrounding whitespace. An empty query never matches.
func Find(warehouses []Warehouse, query string) (Warehouse, bool) {
	key := LookupKey(strings.TrimSpace(query))
	if key == "" {
		return Warehouse{}, false
	}
	for _, w := range warehouses {
		if LookupKey(w.ID) == key {
			return w, true
		}
	}
	return Warehouse{}, false
}

// Fingerprint is a deterministic SHA-256 over the ordered warehouses. Two
// loads with the same content in the same order share a fingerprint.
func Fingerprint(warehouses []Warehouse) string {
	h := sha256.New()
	for _, w := range warehouses {
		for _, field := range [...]string{w.ID, w.City, w.Contact, w.Manager, w.Email, w.ChatLink} {
			h.Write([]byte(field))
			h.Write([]byte{0x1f})
		}
		h.Write([]byte{0x1e})
	}
	return hex.EncodeToString(h.Sum(nil))
}
