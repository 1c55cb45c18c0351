package block

import (
	"errors"

	"github.com/cbehopkins/scopetree/allocator/types"
)

var (
	// ErrInvalidSlot is returned for a handle the slab never issued.
	ErrInvalidSlot = errors.New("invalid slot handle")
	// ErrSlotNotFound is returned for a handle whose slot is free.
	ErrSlotNotFound = errors.New("slot not allocated")
	// ErrInvalidCount is returned by New for a negative slots-per-chunk.
	ErrInvalidCount = errors.New("slots per chunk must be positive")
)

// DefaultSlotsPerChunk is used when the caller passes 0.
const DefaultSlotsPerChunk = 256

// Slab manages fixed-size slots of T in chunks that are never reallocated, so a
// *T returned by Alloc or Get stays valid until Reset.
//
// Handles start at 1; types.ObjectId(0) is the nil handle.
// Memory overhead: one bool per slot (bitmap) plus the free list.
type Slab[T any] struct {
	slotsPerChunk int
	chunks        [][]T

	// Bitmap: one entry per issued slot (true = allocated, false = free)
	allocatedBitmap []bool

	// Freed slots are reused before the high-water mark grows.
	freeList []types.ObjectId

	// next is the number of slots ever issued in this generation.
	next int

	// Optional callback fired on each allocation
	onAllocate func(types.ObjectId)
}

// New creates a slab. A slotsPerChunk of 0 selects DefaultSlotsPerChunk.
func New[T any](slotsPerChunk int) (*Slab[T], error) {
	if slotsPerChunk < 0 {
		return nil, ErrInvalidCount
	}
	if slotsPerChunk == 0 {
		slotsPerChunk = DefaultSlotsPerChunk
	}
	return &Slab[T]{
		slotsPerChunk: slotsPerChunk,
	}, nil
}

// Alloc returns a zeroed slot and its handle.
func (s *Slab[T]) Alloc() (types.ObjectId, *T) {
	var id types.ObjectId
	if n := len(s.freeList); n > 0 {
		id = s.freeList[n-1]
		s.freeList = s.freeList[:n-1]
	} else {
		if s.next == len(s.chunks)*s.slotsPerChunk {
			s.chunks = append(s.chunks, make([]T, s.slotsPerChunk))
		}
		s.allocatedBitmap = append(s.allocatedBitmap, false)
		s.next++
		id = types.ObjectId(s.next)
	}
	s.allocatedBitmap[id-1] = true

	slot := s.slot(id)
	var zero T
	*slot = zero

	if s.onAllocate != nil {
		s.onAllocate(id)
	}
	return id, slot
}

func (s *Slab[T]) slot(id types.ObjectId) *T {
	idx := int(id - 1)
	return &s.chunks[idx/s.slotsPerChunk][idx%s.slotsPerChunk]
}

// Get resolves a handle. It returns nil for the nil handle, for handles never
// issued in this generation and for freed slots.
func (s *Slab[T]) Get(id types.ObjectId) *T {
	if !s.Contains(id) {
		return nil
	}
	return s.slot(id)
}

// Contains reports whether id is currently allocated.
func (s *Slab[T]) Contains(id types.ObjectId) bool {
	if !id.IsValid() || int(id) > s.next {
		return false
	}
	return s.allocatedBitmap[id-1]
}

// Free returns a slot to the slab.
func (s *Slab[T]) Free(id types.ObjectId) error {
	if !id.IsValid() || int(id) > s.next {
		return ErrInvalidSlot
	}
	if !s.allocatedBitmap[id-1] {
		return ErrSlotNotFound
	}
	s.allocatedBitmap[id-1] = false
	s.freeList = append(s.freeList, id)
	return nil
}

// Reset invalidates every handle in O(chunks). Chunk memory is retained for
// the next generation; slots are zeroed lazily by Alloc.
func (s *Slab[T]) Reset() {
	s.allocatedBitmap = s.allocatedBitmap[:0]
	s.freeList = s.freeList[:0]
	s.next = 0
}

// Release drops the chunk memory as well.
func (s *Slab[T]) Release() {
	s.Reset()
	s.chunks = nil
	s.allocatedBitmap = nil
	s.freeList = nil
}

// SetOnAllocate registers a callback invoked after each allocation.
// Pass nil to clear any previous callback.
func (s *Slab[T]) SetOnAllocate(callback func(types.ObjectId)) {
	s.onAllocate = callback
}

// Len returns the number of allocated slots.
func (s *Slab[T]) Len() int {
	return s.next - len(s.freeList)
}

// Stats returns allocated, free (reusable) and chunk capacity counts.
func (s *Slab[T]) Stats() (allocated, free, capacity int) {
	return s.Len(), len(s.freeList), len(s.chunks) * s.slotsPerChunk
}
