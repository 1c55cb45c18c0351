// Package types holds the key types and comparators shared by the tree packages.
package types

import (
	"bytes"
	"cmp"
)

// Compare is a three-way comparator: negative when a < b, zero when equal,
// positive when a > b. It must be a total order that stays stable for the
// lifetime of any tree it is used with.
type Compare[K any] func(a, b K) int

// Uint32Compare orders unsigned 32-bit keys numerically.
func Uint32Compare(a, b uint32) int {
	return cmp.Compare(a, b)
}

// Uint64Compare orders unsigned 64-bit keys numerically.
func Uint64Compare(a, b uint64) int {
	return cmp.Compare(a, b)
}

// BytesCompare orders byte-string keys lexicographically.
func BytesCompare(a, b []byte) int {
	return bytes.Compare(a, b)
}

// ASCIICaseCompare orders byte-string keys lexicographically with ASCII
// letters folded to lower case. Bytes outside A-Z are compared as is, so the
// result does not depend on locale or on UTF-8 decoding.
func ASCIICaseCompare(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		ca, cb := asciiLower(a[i]), asciiLower(b[i])
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
	}
	return cmp.Compare(len(a), len(b))
}

func asciiLower(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

// StringFlags select how string keys are compared.
type StringFlags uint8

const (
	// CaseSensitive compares keys byte for byte.
	CaseSensitive StringFlags = 0
	// CaseInsensitive folds ASCII letters before comparing.
	CaseInsensitive StringFlags = 1
)

// StringCompare returns the comparator selected by flags.
func StringCompare(flags StringFlags) Compare[[]byte] {
	if flags&CaseInsensitive != 0 {
		return ASCIICaseCompare
	}
	return BytesCompare
}

// Segment is one level of a composite key, for example an address.
type Segment []uint32

// CompositeKey is an ordered list of segments. The key is resolved one 32-bit
// value at a time: every value but the last selects a nested subtree.
//
// An address-family-then-address-then-port key for an IPv4 endpoint is
//
//	CompositeKey{{2}, {0xC0A80001}, {443}}
type CompositeKey []Segment

// Len returns the number of 32-bit values across all segments.
func (k CompositeKey) Len() int {
	n := 0
	for _, seg := range k {
		n += len(seg)
	}
	return n
}

// Flatten returns every 32-bit value in order.
func (k CompositeKey) Flatten() []uint32 {
	out := make([]uint32, 0, k.Len())
	for _, seg := range k {
		out = append(out, seg...)
	}
	return out
}
