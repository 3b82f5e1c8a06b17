package voxel

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/voxelkit/world/block"
	"github.com/voxelkit/world/internal/numeric"
)

// run is one layer of a Column's run-length stack: block fills cells from
// the previous run's top up to (not including) top.
type run struct {
	block block.ID
	top   int32
}

// decoration is a single-cell override applied after the run stack is laid
// down.
type decoration struct {
	block block.ID
	y     int32
}

// Column is the per-(x,z) scratch workspace a world-generator callback
// fills with Push and Overwrite calls. One Column instance is reused across
// all ChunkWidth² columns of a chunk: BeginChunk resets the reference used
// for equi-level comparison, Clear resets only the current column's runs
// and decorations between Fill calls.
type Column struct {
	runs        []run
	decorations []decoration

	refRuns []run
	refHash uint64

	// mismatchDelta accumulates the equi-level disruption signal across
	// every column of the current chunk: a +1/-1
	// pair bracketing each span of y where a column disagrees with the
	// reference column, or where a decoration disrupts a single row.
	mismatchDelta []int32
}

// NewColumn returns an empty Column scratch buffer.
func NewColumn() *Column {
	return &Column{mismatchDelta: make([]int32, WorldHeight)}
}

// Push appends a run. top is clamped to WorldHeight; the call is ignored
// entirely if top does not strictly exceed the current last run's top,
// preserving the "runs are strictly increasing in top" invariant.
func (c *Column) Push(b block.ID, top int32) {
	top = numeric.Min(top, int32(WorldHeight))
	last := int32(-1)
	if n := len(c.runs); n > 0 {
		last = c.runs[n-1].top
	}
	if top <= last {
		return
	}
	c.runs = append(c.runs, run{block: b, top: top})
}

// Overwrite records a point decoration at y, overwriting whatever the run
// stack would otherwise place there. Out-of-range y is ignored.
func (c *Column) Overwrite(b block.ID, y int32) {
	if y < 0 || y >= WorldHeight {
		return
	}
	c.decorations = append(c.decorations, decoration{block: b, y: y})
}

// BeginChunk resets the reference snapshot and mismatch accumulator. It
// must be called once before filling the first column of a new chunk.
func (c *Column) BeginChunk() {
	c.refRuns = nil
	c.refHash = 0
	for i := range c.mismatchDelta {
		c.mismatchDelta[i] = 0
	}
	c.Clear()
}

// Clear resets the run cursor and decorations for the next column, but
// retains the snapshotted reference and the accumulated mismatch signal
// across the rest of the current chunk's fill.
func (c *Column) Clear() {
	c.runs = c.runs[:0]
	c.decorations = c.decorations[:0]
}

// FillInto writes the current column's runs as a contiguous fill into
// voxels[base:base+WorldHeight], applies decorations, and folds this
// column's contribution into the chunk-wide equi-level mismatch signal.
// first must be true for exactly one call per chunk — the column that
// defines the reference every other column is compared against. The caller
// owns voxels and base; Column has no notion of a chunk's layout.
func (c *Column) FillInto(voxels []block.ID, base int, first bool) {
	pos := int32(0)
	for _, r := range c.runs {
		for y := pos; y < r.top; y++ {
			voxels[base+int(y)] = r.block
		}
		pos = r.top
	}
	for y := pos; y < WorldHeight; y++ {
		voxels[base+int(y)] = block.Empty
	}
	for _, d := range c.decorations {
		voxels[base+int(d.y)] = d.block
	}

	sealed := sealRuns(c.runs)
	if first {
		c.refRuns = sealed
		c.refHash = hashRuns(sealed)
	} else if hashRuns(sealed) != c.refHash {
		c.diffAgainstReference(sealed)
	}
	c.applyDecorationDeltas()
}

// FillEquilevels integrates the mismatch signal accumulated across every
// column of the chunk: out[y] = 1 iff the running sum of mismatchDelta
// through y is exactly zero, i.e. every column agreed at row y.
func (c *Column) FillEquilevels(out []uint8) {
	var sum int32
	for y := 0; y < WorldHeight; y++ {
		sum += c.mismatchDelta[y]
		if sum == 0 {
			out[y] = 1
		} else {
			out[y] = 0
		}
	}
}

// sealRuns returns a copy of runs guaranteed to cover [0, WorldHeight) by
// appending an implicit trailing Empty run if the caller never sealed the
// column itself.
func sealRuns(runs []run) []run {
	if len(runs) == 0 {
		return []run{{block: block.Empty, top: WorldHeight}}
	}
	if runs[len(runs)-1].top >= WorldHeight {
		out := make([]run, len(runs))
		copy(out, runs)
		return out
	}
	out := make([]run, len(runs)+1)
	copy(out, runs)
	out[len(runs)] = run{block: block.Empty, top: WorldHeight}
	return out
}

func hashRuns(runs []run) uint64 {
	buf := make([]byte, 6*len(runs))
	for i, r := range runs {
		binary.LittleEndian.PutUint16(buf[i*6:], uint16(r.block))
		binary.LittleEndian.PutUint32(buf[i*6+2:], uint32(r.top))
	}
	return xxhash.Sum64(buf)
}

// diffAgainstReference walks d and the reference run list in lockstep by
// top-y, emitting a +1 into mismatchDelta where the two diverge and a -1
// where they re-converge.
func (c *Column) diffAgainstReference(d []run) {
	r := c.refRuns
	di, ri := 0, 0
	dTop, rTop := d[0].top, r[0].top
	prevMatched := true
	pos := int32(0)
	for pos < WorldHeight {
		segEnd := dTop
		if rTop < segEnd {
			segEnd = rTop
		}
		curMatched := d[di].block == r[ri].block
		if curMatched != prevMatched {
			if prevMatched {
				c.mismatchDelta[pos]++
			} else {
				c.mismatchDelta[pos]--
			}
		}
		prevMatched = curMatched
		pos = segEnd
		if dTop == segEnd {
			di++
			if di < len(d) {
				dTop = d[di].top
			}
		}
		if rTop == segEnd {
			ri++
			if ri < len(r) {
				rTop = r[ri].top
			}
		}
	}
}

// applyDecorationDeltas folds each decoration's single-row disruption into
// mismatchDelta: +1 at y, -1 at y+1 (clipped to WorldHeight so a decoration
// landing exactly at WorldHeight-1 never writes out of bounds).
func (c *Column) applyDecorationDeltas() {
	for _, d := range c.decorations {
		c.mismatchDelta[d.y]++
		if d.y+1 < WorldHeight {
			c.mismatchDelta[d.y+1]--
		}
	}
}
