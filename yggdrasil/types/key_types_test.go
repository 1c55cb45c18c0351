package types

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUint32Compare(t *testing.T) {
	assert.Negative(t, Uint32Compare(1, 2))
	assert.Zero(t, Uint32Compare(7, 7))
	assert.Positive(t, Uint32Compare(0xFFFFFFFF, 0))
	assert.Positive(t, Uint64Compare(1<<40, 1))
}

func TestASCIICaseCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"Foo", "foo", 0},
		{"FOO", "fob", 1},
		{"abc", "ABD", -1},
		{"ab", "ABC", -1},
		{"", "", 0},
		{"[", "a", -1}, // '[' sits between 'Z' and 'a'; no folding applies
		{"\xc3\x84", "\xc3\xa4", -1},
	}
	for _, tc := range tests {
		got := ASCIICaseCompare([]byte(tc.a), []byte(tc.b))
		switch {
		case tc.want < 0:
			assert.Negative(t, got, "%q vs %q", tc.a, tc.b)
		case tc.want > 0:
			assert.Positive(t, got, "%q vs %q", tc.a, tc.b)
		default:
			assert.Zero(t, got, "%q vs %q", tc.a, tc.b)
		}
	}
}

func TestStringCompareFlags(t *testing.T) {
	assert.NotZero(t, StringCompare(CaseSensitive)([]byte("Foo"), []byte("foo")))
	assert.Zero(t, StringCompare(CaseInsensitive)([]byte("Foo"), []byte("foo")))
}

// TestASCIICaseCompareIsTotalOrder sorts with the comparator and checks the
// result is consistent with a folded byte comparison.
func TestASCIICaseCompareIsTotalOrder(t *testing.T) {
	words := []string{"delta", "Alpha", "charlie", "BRAVO", "alpha2", "Echo"}
	sort.Slice(words, func(i, j int) bool {
		return ASCIICaseCompare([]byte(words[i]), []byte(words[j])) < 0
	})
	assert.Equal(t, []string{"Alpha", "alpha2", "BRAVO", "charlie", "delta", "Echo"}, words)
}

func TestCompositeKeyFlatten(t *testing.T) {
	k := CompositeKey{{2}, {10, 0, 0, 1}, {443}}
	assert.Equal(t, 6, k.Len())
	assert.Equal(t, []uint32{2, 10, 0, 0, 1, 443}, k.Flatten())
	assert.Equal(t, 0, CompositeKey{}.Len())
	assert.Empty(t, CompositeKey{{}, {}}.Flatten())
}
