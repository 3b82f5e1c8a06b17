// Package spatial implements the fixed-radius, torus-hashed 2D container
// used for both the chunk circle and each frontier level's tile circle.
package spatial

import (
	"fmt"
	"math/bits"
	"sort"

	"github.com/brentp/intintmap"
	"github.com/voxelkit/world/internal/numeric"
)

// Coord is an integer 2D grid coordinate: a chunk or tile position.
type Coord struct{ X, Z int32 }

// Disposable is the minimum an element stored in a Circle must support: a
// hook called exactly once when the element falls outside the disk after a
// Recenter shift.
type Disposable interface{ Dispose() }

// Circle is a fixed-radius disk of (X,Z) cells backed by a power-of-two
// torus-hashed grid, giving O(1) Get/Set and eviction without a global
// rehash when the disk's center moves. The nearest-first point list is
// materialized once at construction so Each needs no heap.
type Circle[T Disposable] struct {
	radius int32
	points []Coord // sorted nearest-first, relative to center
	deltas []int32 // deltas[|i|] = max |j| such that (i,j) is inside the disk

	side  int32
	mask  int32
	shift uint

	slots    []slot[T]
	center   Coord
	centered bool
}

type slot[T Disposable] struct {
	used bool
	pos  Coord
	elem T
}

// NewCircle returns a Circle holding all integer points within radius of any
// center, i.e. points (i,j) with i²+j² ≤ radius².
func NewCircle[T Disposable](radius int32) *Circle[T] {
	if radius < 0 {
		radius = 0
	}
	c := &Circle[T]{
		radius: radius,
		points: enumerateDisk(radius),
		deltas: deltaTable(radius),
	}
	c.side = nextPow2(2*radius + 1)
	c.mask = c.side - 1
	c.shift = uint(bits.Len32(uint32(c.mask)))
	c.slots = make([]slot[T], c.side*c.side)
	return c
}

func enumerateDisk(radius int32) []Coord {
	r2 := int64(radius) * int64(radius)
	pts := make([]Coord, 0, (2*radius+1)*(2*radius+1))
	for i := -radius; i <= radius; i++ {
		for j := -radius; j <= radius; j++ {
			if int64(i)*int64(i)+int64(j)*int64(j) <= r2 {
				pts = append(pts, Coord{i, j})
			}
		}
	}
	sort.Slice(pts, func(a, b int) bool {
		da := int64(pts[a].X)*int64(pts[a].X) + int64(pts[a].Z)*int64(pts[a].Z)
		db := int64(pts[b].X)*int64(pts[b].X) + int64(pts[b].Z)*int64(pts[b].Z)
		return da < db
	})
	return pts
}

func deltaTable(radius int32) []int32 {
	r2 := int64(radius) * int64(radius)
	deltas := make([]int32, radius+1)
	for i := int32(0); i <= radius; i++ {
		var maxJ int32
		for j := radius; j >= 0; j-- {
			if int64(i)*int64(i)+int64(j)*int64(j) <= r2 {
				maxJ = j
				break
			}
		}
		deltas[i] = maxJ
	}
	return deltas
}

func nextPow2(n int32) int32 {
	p := int32(1)
	for p < n {
		p <<= 1
	}
	return p
}

// slotIndex computes the torus hash of an absolute coordinate. Two distinct
// live coordinates never collide because the grid is sized to fit the disk.
func (c *Circle[T]) slotIndex(cx, cz int32) int32 {
	return ((cz & c.mask) << c.shift) | (cx & c.mask)
}

// Radius returns the disk radius this Circle was constructed with.
func (c *Circle[T]) Radius() int32 { return c.radius }

// Points returns the disk's nearest-to-origin-first offset list, the same
// ordering Each walks live elements in. Callers that need the ordering
// without a live Circle of their own (e.g. to plan chunk admission before
// any chunk exists) can borrow it from a throwaway Circle of the element
// type they don't actually need.
func (c *Circle[T]) Points() []Coord { return c.points }

// Center returns the coordinate most recently passed to Recenter, or the zero
// Coord before Recenter has ever been called.
func (c *Circle[T]) Center() Coord { return c.center }

// Get returns the element stored at (cx,cz), if any. A slot may be occupied
// by a stale element from before the last Recenter shift; Get only returns a
// match whose stored coordinate is exactly (cx,cz).
func (c *Circle[T]) Get(cx, cz int32) (T, bool) {
	s := &c.slots[c.slotIndex(cx, cz)]
	if s.used && s.pos.X == cx && s.pos.Z == cz {
		return s.elem, true
	}
	var zero T
	return zero, false
}

// Set inserts elem at (cx,cz). It is an error to Set into a slot that
// already holds a live element — the caller must Get first or rely on
// Recenter having evicted the occupant.
func (c *Circle[T]) Set(cx, cz int32, elem T) error {
	s := &c.slots[c.slotIndex(cx, cz)]
	if s.used {
		return fmt.Errorf("spatial: slot for (%d,%d) already holds (%d,%d)", cx, cz, s.pos.X, s.pos.Z)
	}
	s.used, s.pos, s.elem = true, Coord{cx, cz}, elem
	return nil
}

// Each calls fn for every live element in nearest-to-center-first order.
// Iteration stops as soon as fn returns true.
func (c *Circle[T]) Each(fn func(pos Coord, elem T) (done bool)) {
	for _, d := range c.points {
		cx, cz := c.center.X+d.X, c.center.Z+d.Z
		if elem, ok := c.Get(cx, cz); ok {
			if fn(Coord{cx, cz}, elem) {
				return
			}
		}
	}
}

// Recenter shifts the disk to (cx,cz). Every live element that falls
// outside the new disk is disposed, cleared from its slot and returned.
// Calling Recenter with the coordinate already in effect is a no-op.
func (c *Circle[T]) Recenter(cx, cz int32) []T {
	if c.centered && c.center.X == cx && c.center.Z == cz {
		return nil
	}
	c.centered = true
	c.center = Coord{cx, cz}

	var evicted []T
	for i := range c.slots {
		s := &c.slots[i]
		if !s.used {
			continue
		}
		dx := numeric.Abs(s.pos.X - cx)
		dz := numeric.Abs(s.pos.Z - cz)
		if dx > c.radius || dz > c.deltas[dx] {
			s.elem.Dispose()
			evicted = append(evicted, s.elem)
			*s = slot[T]{}
		}
	}
	return evicted
}

// VerifyNoCollisions is a debug assertion: it re-derives the live coordinate
// set using an independent int64-keyed map and fails if any two live slots
// claim the same coordinate, which would indicate slotIndex's torus hash
// has been miscomputed for the current radius/side.
func (c *Circle[T]) VerifyNoCollisions() error {
	seen := intintmap.New(len(c.slots), 0.75)
	for i := range c.slots {
		s := &c.slots[i]
		if !s.used {
			continue
		}
		key := int64(s.pos.X)<<32 | int64(uint32(s.pos.Z))
		if _, ok := seen.Get(key); ok {
			return fmt.Errorf("spatial: duplicate live coordinate (%d,%d)", s.pos.X, s.pos.Z)
		}
		seen.Put(key, 1)
	}
	return nil
}
