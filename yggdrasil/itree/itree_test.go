package itree

import (
	"bytes"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbehopkins/scopetree/allocator/testutil"
)

func ranges[V any](ivs []Interval[V]) []Range {
	out := make([]Range, len(ivs))
	for i, iv := range ivs {
		out[i] = iv.Range
	}
	return out
}

func TestFindIntervalsExample(t *testing.T) {
	tree := New[string](testutil.NewMockScope("example"))
	tree.Insert(1, 5, "a")
	tree.Insert(10, 15, "b")
	tree.Insert(3, 8, "c")

	got := tree.FindIntervals(4, 4)
	assert.Equal(t, []Range{{1, 5}, {3, 8}}, ranges(got))
	assert.Equal(t, "a", got[0].Value)
	assert.Equal(t, "c", got[1].Value)

	assert.Empty(t, tree.FindIntervals(9, 9))
	assert.Equal(t, []Range{{10, 15}}, ranges(tree.FindIntervals(15, 100)))
	assert.Len(t, tree.FindIntervals(0, 100), 3)

	edge, ok := tree.MaxEdge()
	require.True(t, ok)
	assert.Equal(t, uint64(15), edge)
	require.NoError(t, tree.Verify())
}

func TestFindIntervalsMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	tree := New[int](testutil.NewMockScope("random"))

	var all []Range
	for i := 0; i < 500; i++ {
		low := uint64(rng.Intn(10000))
		r := Range{Low: low, High: low + uint64(rng.Intn(300))}
		tree.Insert(r.Low, r.High, i)
		if !slices.Contains(all, r) {
			all = append(all, r)
		}
		if i%50 == 0 {
			require.NoError(t, tree.Verify())
		}
	}
	require.NoError(t, tree.Verify())
	assert.Equal(t, len(all), tree.Len())

	for i := 0; i < 200; i++ {
		low := uint64(rng.Intn(10500))
		q := Range{Low: low, High: low + uint64(rng.Intn(200))}

		var want []Range
		for _, r := range all {
			if r.Overlaps(q) {
				want = append(want, r)
			}
		}
		slices.SortFunc(want, compareRanges)
		got := ranges(tree.FindIntervals(q.Low, q.High))
		if len(want) == 0 {
			require.Empty(t, got, "query %v", q)
			continue
		}
		require.Equal(t, want, got, "query %v", q)
	}
}

func TestAugmentationAfterRotations(t *testing.T) {
	tree := New[int](testutil.NewMockScope("rotations"))

	// Ascending starts force rotations on nearly every insert, and
	// decreasing ends move the maximum around.
	for i := uint64(0); i < 256; i++ {
		tree.Insert(i, 1000-i, int(i))
		require.NoError(t, tree.Verify(), "after insert %d", i)
	}
	edge, _ := tree.MaxEdge()
	assert.Equal(t, uint64(1000), edge)

	for i := uint64(0); i < 256; i++ {
		tree.Insert(5000-i, 5000-i, 0)
	}
	require.NoError(t, tree.Verify())
	edge, _ = tree.MaxEdge()
	assert.Equal(t, uint64(5000), edge)
}

func TestSameLowDistinctHigh(t *testing.T) {
	tree := New[string](testutil.NewMockScope("same-low"))
	tree.Insert(5, 6, "short")
	tree.Insert(5, 50, "long")
	tree.Insert(5, 6, "short2")

	assert.Equal(t, 2, tree.Len())
	v, ok := tree.Lookup(5, 6)
	require.True(t, ok)
	assert.Equal(t, "short2", v)

	got := tree.FindIntervals(40, 40)
	require.Len(t, got, 1)
	assert.Equal(t, "long", got[0].Value)
	require.NoError(t, tree.Verify())
}

func TestPointIntervals(t *testing.T) {
	tree := New[int](testutil.NewMockScope("points"))
	tree.Insert(0, 0, 1)
	tree.Insert(^uint64(0), ^uint64(0), 2)

	assert.Len(t, tree.FindIntervals(0, 0), 1)
	assert.Len(t, tree.FindIntervals(^uint64(0), ^uint64(0)), 1)
	assert.Len(t, tree.FindIntervals(0, ^uint64(0)), 2)
	assert.Empty(t, tree.FindIntervals(1, 2))
}

func TestInvalidInterval(t *testing.T) {
	tree := New[int](testutil.NewMockScope("invalid"))
	testutil.RequireViolation(t, func() { tree.Insert(10, 5, 0) })
	testutil.RequireViolation(t, func() { tree.FindIntervals(10, 5) })
	assert.True(t, tree.IsEmpty())
}

func TestVisitIntervalsStops(t *testing.T) {
	tree := New[int](testutil.NewMockScope("visit"))
	for i := uint64(0); i < 10; i++ {
		tree.Insert(i, i+10, int(i))
	}

	var seen []int
	stopped := tree.VisitIntervals(5, 5, func(iv Interval[int]) bool {
		seen = append(seen, iv.Value)
		return len(seen) == 3
	})
	assert.True(t, stopped)
	assert.Equal(t, []int{0, 1, 2}, seen)

	count := 0
	assert.False(t, tree.Walk(func(Interval[int]) bool {
		count++
		return false
	}))
	assert.Equal(t, 10, count)
}

func TestDualScopeReset(t *testing.T) {
	control := testutil.NewMockScope("control")
	working := testutil.NewMockScope("working")
	tree := NewDualScope[string](control, working)

	tree.Insert(1, 10, "a")
	working.Reset()

	assert.True(t, tree.IsEmpty())
	assert.Empty(t, tree.FindIntervals(0, 100))
	_, ok := tree.MaxEdge()
	assert.False(t, ok)

	tree.Insert(20, 30, "b")
	assert.Len(t, tree.FindIntervals(25, 25), 1)
	require.NoError(t, tree.Verify())

	control.Destroy()
	assert.Equal(t, 0, working.Live())
	testutil.RequireViolation(t, func() { tree.Insert(1, 2, "c") })
}

func TestFormat(t *testing.T) {
	tree := New[string](testutil.NewMockScope("print"))
	tree.Insert(1, 5, "a")
	tree.Insert(3, 8, "c")

	var buf bytes.Buffer
	require.NoError(t, tree.Print(&buf))
	assert.Contains(t, buf.String(), "[1,5] = a (max 8)")
	assert.Contains(t, buf.String(), "[3,8] = c (max 8)")
	assert.Equal(t, 2, tree.Height())
}
