// Package hash implements the string hash functions used to place lookup keys
// on a ring.
package hash

import "unicode/utf16"

// Func hashes a lookup key. Implementations of Func must be deterministic and
// goroutine safe.
type Func func(s string) uint32

var (
	_ Func = String
	_ Func = XXHash
)

// String is a PJW-style rolling hash over the UTF-16 code units of s. Runes
// outside of the Basic Multilingual Plane contribute their surrogate pair, so
// String produces the same result as implementations operating on UTF-16
// strings. Invalid UTF-8 hashes as U+FFFD. The empty string hashes to 0.
//
// Most of the entropy of String ends up in its low bits, and keys sharing a
// long prefix produce correlated values. Callers should reduce the result
// modulo their range rather than extract its high bits.
func String(s string) uint32 {
	var h uint32
	for _, r := range s {
		if r >= 0x10000 {
			r1, r2 := utf16.EncodeRune(r)
			h = step(step(h, uint32(r1)), uint32(r2))
			continue
		}
		h = step(h, uint32(r))
	}
	return h
}

// step folds one code unit into h. Whenever the top nibble of the 28-bit
// working word is set, it is cleared and mixed into the low byte.
func step(h, c uint32) uint32 {
	h = h<<4 + c
	if high := h & 0x0F000000; high != 0 {
		h ^= high
		h ^= high >> 24
	}
	return h
}
