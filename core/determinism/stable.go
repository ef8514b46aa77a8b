// Package determinism provides primitives for hashing estimate inputs in a
// stable, order-independent way.
package determinism

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// ContentHash is a SHA-256 hash for content integrity
type ContentHash [32]byte

// ComputeHash computes a content hash from bytes
func ComputeHash(data []byte) ContentHash {
	return sha256.Sum256(data)
}

// Hex returns the hash as a hex string
func (h ContentHash) Hex() string {
	return hex.EncodeToString(h[:])
}

// String implements Stringer
func (h ContentHash) String() string {
	return h.Hex()[:16] + "..."
}

// Canonical re-encodes a JSON document with object keys sorted and
// insignificant whitespace removed. Numbers keep their literal text.
func Canonical(doc []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	return json.Marshal(v)
}

// InputHash hashes a set of named JSON documents. Each part is
// canonicalized so semantically equal inputs produce the same hash
// regardless of key order or formatting.
func InputHash(parts map[string][]byte) (ContentHash, error) {
	h := sha256.New()
	for _, name := range SortedKeys(parts) {
		canon, err := Canonical(parts[name])
		if err != nil {
			return ContentHash{}, fmt.Errorf("%s: %w", name, err)
		}
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write(canon)
		h.Write([]byte{0})
	}

	var out ContentHash
	copy(out[:], h.Sum(nil))
	return out, nil
}

// SortedKeys returns a sorted copy of map keys
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RangeMapSorted iterates over a map in sorted key order
func RangeMapSorted[V any](m map[string]V, fn func(string, V) bool) {
	for _, k := range SortedKeys(m) {
		if !fn(k, m[k]) {
			break
		}
	}
}
