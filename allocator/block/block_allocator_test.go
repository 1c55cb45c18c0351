package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbehopkins/scopetree/allocator/types"
)

type testSlot struct {
	a, b int
}

// TestSlabBasicAllocation verifies handles start at 1 and slots are distinct.
func TestSlabBasicAllocation(t *testing.T) {
	s, err := New[testSlot](4)
	require.NoError(t, err)

	id1, p1 := s.Alloc()
	id2, p2 := s.Alloc()
	assert.Equal(t, types.ObjectId(1), id1)
	assert.Equal(t, types.ObjectId(2), id2)
	assert.NotSame(t, p1, p2)

	p1.a = 7
	assert.Equal(t, 7, s.Get(id1).a)
	assert.Equal(t, 0, s.Get(id2).a)
	assert.Equal(t, 2, s.Len())
}

func TestSlabNewInvalidCount(t *testing.T) {
	_, err := New[testSlot](-1)
	require.ErrorIs(t, err, ErrInvalidCount)

	s, err := New[testSlot](0)
	require.NoError(t, err)
	_, _, capacity := s.Stats()
	assert.Equal(t, 0, capacity)
	s.Alloc()
	_, _, capacity = s.Stats()
	assert.Equal(t, DefaultSlotsPerChunk, capacity)
}

// TestSlabPointersStable verifies pointers survive chunk growth.
func TestSlabPointersStable(t *testing.T) {
	s, err := New[testSlot](2)
	require.NoError(t, err)

	id, first := s.Alloc()
	first.b = 42
	for i := 0; i < 20; i++ {
		s.Alloc()
	}
	assert.Same(t, first, s.Get(id))
	assert.Equal(t, 42, first.b)
}

func TestSlabGetInvalid(t *testing.T) {
	s, err := New[testSlot](4)
	require.NoError(t, err)

	assert.Nil(t, s.Get(types.ObjectId(0)))
	assert.Nil(t, s.Get(types.ObjectId(3)))
	assert.False(t, s.Contains(types.ObjectId(1)))
}

func TestSlabFreeAndReuse(t *testing.T) {
	s, err := New[testSlot](4)
	require.NoError(t, err)

	id1, p1 := s.Alloc()
	p1.a = 99
	s.Alloc()

	require.NoError(t, s.Free(id1))
	assert.Nil(t, s.Get(id1))
	require.ErrorIs(t, s.Free(id1), ErrSlotNotFound)
	require.ErrorIs(t, s.Free(types.ObjectId(0)), ErrInvalidSlot)
	require.ErrorIs(t, s.Free(types.ObjectId(50)), ErrInvalidSlot)

	reused, p := s.Alloc()
	assert.Equal(t, id1, reused)
	assert.Equal(t, 0, p.a, "reused slot must be zeroed")

	allocated, free, _ := s.Stats()
	assert.Equal(t, 2, allocated)
	assert.Equal(t, 0, free)
}

func TestSlabReset(t *testing.T) {
	s, err := New[testSlot](4)
	require.NoError(t, err)

	var ids []types.ObjectId
	for i := 0; i < 10; i++ {
		id, p := s.Alloc()
		p.a = i + 1
		ids = append(ids, id)
	}
	s.Reset()
	assert.Equal(t, 0, s.Len())
	for _, id := range ids {
		assert.Nil(t, s.Get(id))
	}

	_, _, capacity := s.Stats()
	assert.Equal(t, 12, capacity, "chunks are retained across Reset")

	id, p := s.Alloc()
	assert.Equal(t, types.ObjectId(1), id)
	assert.Equal(t, 0, p.a)
}

func TestSlabRelease(t *testing.T) {
	s, err := New[testSlot](4)
	require.NoError(t, err)
	s.Alloc()
	s.Release()
	_, _, capacity := s.Stats()
	assert.Equal(t, 0, capacity)

	id, _ := s.Alloc()
	assert.Equal(t, types.ObjectId(1), id)
}

func TestSlabOnAllocateCallback(t *testing.T) {
	s, err := New[testSlot](4)
	require.NoError(t, err)

	var seen []types.ObjectId
	s.SetOnAllocate(func(id types.ObjectId) {
		seen = append(seen, id)
	})
	s.Alloc()
	s.Alloc()
	s.SetOnAllocate(nil)
	s.Alloc()
	assert.Equal(t, []types.ObjectId{1, 2}, seen)
}
