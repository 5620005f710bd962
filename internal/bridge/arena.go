// Package bridge runs the in-memory decoders used for .rar and .tar.bz2
// archives behind an ownership boundary.
//
// The decoder side allocates every buffer it hands back from an Arena and
// reports its outcome as a Result of status code, error message and data.
// The caller side copies what it needs into slices it owns and gives each
// region back with Free exactly once, whether the call succeeded or not.
// ConvertRarToTar and DecompressBzip2 wrap that protocol for callers that
// only want bytes or an error.
package bridge

import (
	"errors"
	"sync"
	"sync/atomic"
)

var (
	// ErrFreed is returned when a region is used or freed after it was freed.
	ErrFreed = errors.New("region already freed")
	// ErrInvalidRegion is returned for regions that this arena did not
	// allocate or whose length does not fit the allocation.
	ErrInvalidRegion = errors.New("invalid region")
)

// Region is a pointer and length pair into memory owned by an Arena.
// The zero Region is invalid.
type Region struct {
	block  *block
	Length int
}

type block struct {
	arena *Arena
	buf   *[]byte
	freed atomic.Bool
}

// Arena hands out regions and takes them back. It is safe for concurrent
// use, though tarx only ever drives it from one goroutine.
type Arena struct {
	pool sync.Pool
	live atomic.Int64
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Live returns the number of regions allocated and not yet freed.
func (a *Arena) Live() int64 {
	return a.live.Load()
}

// Box copies b into a new region.
func (a *Arena) Box(b []byte) Region {
	r := a.alloc(len(b))
	copy(*r.block.buf, b)
	return r
}

func (a *Arena) alloc(n int) Region {
	var buf *[]byte
	if p, ok := a.pool.Get().(*[]byte); ok && cap(*p) >= n {
		*p = (*p)[:n]
		buf = p
	} else {
		b := make([]byte, n)
		buf = &b
	}
	a.live.Add(1)
	return Region{block: &block{arena: a, buf: buf}, Length: n}
}

// view returns the bytes behind r without copying them.
func (a *Arena) view(r Region) ([]byte, error) {
	if r.block == nil || r.block.arena != a {
		return nil, ErrInvalidRegion
	}
	if r.block.freed.Load() {
		return nil, ErrFreed
	}
	buf := *r.block.buf
	if r.Length < 0 || r.Length > len(buf) {
		return nil, ErrInvalidRegion
	}
	return buf[:r.Length], nil
}

// Free releases r. Freeing the same region twice returns ErrFreed and has
// no other effect.
func (a *Arena) Free(r Region) error {
	if r.block == nil || r.block.arena != a {
		return ErrInvalidRegion
	}
	if !r.block.freed.CompareAndSwap(false, true) {
		return ErrFreed
	}
	a.live.Add(-1)
	buf := r.block.buf
	// Regions carry passwords; wipe before reuse.
	clear(*buf)
	a.pool.Put(buf)
	return nil
}
