package basic

import (
	"errors"
)

var (
	// ErrInvalidSize is returned when an allocation asks for zero or fewer bytes.
	ErrInvalidSize = errors.New("allocation size must be positive")
	// ErrArenaReleased is returned by every allocation after Release.
	ErrArenaReleased = errors.New("arena released")
	// ErrInvalidChunkCfg is returned by New for a negative chunk size.
	ErrInvalidChunkCfg = errors.New("chunk size must be positive")
)

const (
	// DefaultChunkSize is used when the caller passes a chunk size of 0.
	DefaultChunkSize = 8 << 10

	// Allocations larger than chunkSize/oversizeDivisor get a dedicated chunk
	// so a single big key does not waste the tail of the current chunk.
	oversizeDivisor = 4
)

// chunk is one contiguous region handed out by bumping used.
type chunk struct {
	buf  []byte
	used int
}

func (c *chunk) free() int {
	return len(c.buf) - c.used
}

// Arena is a chunked bump allocator for variable-size byte allocations.
// Memory is never returned individually: Reset makes every allocation invalid
// at once, Release drops the chunks entirely.
//
// Arena is not safe for concurrent use.
type Arena struct {
	chunkSize int
	chunks    []*chunk
	oversize  [][]byte

	// strict gives every allocation its own backing array, which lets the race
	// detector and slice bounds catch code that holds memory across a Reset.
	strict bool

	bytesInUse int
	released   bool
}

// New creates an arena whose regular chunks are chunkSize bytes.
// A chunkSize of 0 selects DefaultChunkSize.
func New(chunkSize int, strict bool) (*Arena, error) {
	if chunkSize < 0 {
		return nil, ErrInvalidChunkCfg
	}
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	return &Arena{
		chunkSize: chunkSize,
		chunks:    make([]*chunk, 0, 1),
		strict:    strict,
	}, nil
}

// Alloc returns size zeroed bytes.
func (a *Arena) Alloc(size int) ([]byte, error) {
	if a.released {
		return nil, ErrArenaReleased
	}
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	a.bytesInUse += size

	if a.strict || size > a.chunkSize/oversizeDivisor {
		buf := make([]byte, size)
		a.oversize = append(a.oversize, buf)
		return buf, nil
	}

	c := a.current()
	if c == nil || c.free() < size {
		c = &chunk{buf: make([]byte, a.chunkSize)}
		a.chunks = append(a.chunks, c)
	}
	// Cap the slice so appends by the caller cannot run into the next allocation.
	buf := c.buf[c.used : c.used+size : c.used+size]
	c.used += size
	return buf, nil
}

// Dup copies b into arena memory.
func (a *Arena) Dup(b []byte) ([]byte, error) {
	if len(b) == 0 {
		if a.released {
			return nil, ErrArenaReleased
		}
		return []byte{}, nil
	}
	buf, err := a.Alloc(len(b))
	if err != nil {
		return nil, err
	}
	copy(buf, b)
	return buf, nil
}

func (a *Arena) current() *chunk {
	if len(a.chunks) == 0 {
		return nil
	}
	return a.chunks[len(a.chunks)-1]
}

// Reset invalidates every allocation. The first regular chunk is kept and
// zeroed so the next generation does not start by allocating.
func (a *Arena) Reset() {
	if a.released {
		return
	}
	if len(a.chunks) > 0 {
		first := a.chunks[0]
		clear(first.buf[:first.used])
		first.used = 0
		for i := 1; i < len(a.chunks); i++ {
			a.chunks[i] = nil
		}
		a.chunks = a.chunks[:1]
	}
	a.oversize = nil
	a.bytesInUse = 0
}

// Release drops all memory. Further allocations fail with ErrArenaReleased.
func (a *Arena) Release() {
	a.chunks = nil
	a.oversize = nil
	a.bytesInUse = 0
	a.released = true
}

// BytesInUse reports the bytes handed out since the last Reset.
func (a *Arena) BytesInUse() int {
	return a.bytesInUse
}

// Chunks reports the number of backing regions currently held, oversize
// allocations included.
func (a *Arena) Chunks() int {
	return len(a.chunks) + len(a.oversize)
}

// ChunkSize returns the configured regular chunk size.
func (a *Arena) ChunkSize() int {
	return a.chunkSize
}

// Released reports whether Release has been called.
func (a *Arena) Released() bool {
	return a.released
}
