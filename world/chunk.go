package world

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/voxelkit/world/block"
	"github.com/voxelkit/world/internal/numeric"
	"github.com/voxelkit/world/world/mesh"
	"github.com/voxelkit/world/world/voxel"
)

// columnBase returns the offset of column (x,z)'s first voxel within a
// chunk's flattened Y-major voxel slice.
func columnBase(x, z int) int {
	return (x*voxel.ChunkWidth + z) * voxel.WorldHeight
}

// instanceSlot is one reserved instanced-sprite slot, keyed by the linear
// voxel index it was placed at so remesh and Dispose can release exactly the
// slots this chunk holds.
type instanceSlot struct {
	owner  mesh.InstancedMesh
	handle mesh.Handle
}

// Chunk is one ChunkWidth x WorldHeight x ChunkWidth column of voxels plus
// the incrementally maintained heightmap, light_map and equilevels a remesh
// needs. A Chunk never holds pointers to its neighbors; it reaches them
// on demand through its owning World's chunk circle.
type Chunk struct {
	w   *World
	pos ChunkPos

	voxels     []block.ID // flattened, Y-major per (x,z) column
	heightmap  []int32    // [ChunkWidth*ChunkWidth], smallest y with all-empty above
	lightMap   []int32    // [ChunkWidth*ChunkWidth], smallest y with all-unsolid above
	equilevels []uint8    // [WorldHeight]

	instances map[int]instanceSlot

	solid, water mesh.Mesh

	dirty     bool
	neighbors int8 // count of loaded 4-adjacent neighbors, range [0,4]
}

// newChunk allocates an empty Chunk bound to w at pos. The caller still owes
// it a Fill (via the World's loader) before it is usable.
func newChunk(w *World, pos ChunkPos) *Chunk {
	n := voxel.ChunkWidth * voxel.ChunkWidth
	c := &Chunk{
		w:          w,
		pos:        pos,
		voxels:     make([]block.ID, n*voxel.WorldHeight),
		heightmap:  make([]int32, n),
		lightMap:   make([]int32, n),
		equilevels: make([]uint8, voxel.WorldHeight),
		instances:  make(map[int]instanceSlot),
		dirty:      true,
	}
	return c
}

// Fill loads the chunk's voxels and equilevels from col, a Column the
// caller drives through the world's loader one (x,z) at a time, and
// derives the initial heightmap and light_map from the result.
func (c *Chunk) Fill(col *voxel.Column, load voxel.Loader) {
	col.BeginChunk()
	baseX := c.pos.X * voxel.ChunkWidth
	baseZ := c.pos.Z * voxel.ChunkWidth
	for x := 0; x < voxel.ChunkWidth; x++ {
		for z := 0; z < voxel.ChunkWidth; z++ {
			col.Clear()
			load(baseX+int32(x), baseZ+int32(z), col)
			col.FillInto(c.voxels, columnBase(x, z), x == 0 && z == 0)
		}
	}
	col.FillEquilevels(c.equilevels)
	for x := 0; x < voxel.ChunkWidth; x++ {
		for z := 0; z < voxel.ChunkWidth; z++ {
			c.recomputeColumnExtents(x, z)
		}
	}
}

func (c *Chunk) columnIndex(x, z int) int { return x*voxel.ChunkWidth + z }

// recomputeColumnExtents derives heightmap and light_map for column (x,z)
// from scratch by scanning downward, used at Fill time and by SetColumn.
func (c *Chunk) recomputeColumnExtents(x, z int) {
	base := columnBase(x, z)
	idx := c.columnIndex(x, z)
	top, lit := int32(0), int32(0)
	for y := voxel.WorldHeight - 1; y >= 0; y-- {
		id := c.voxels[base+y]
		d := c.w.registry.Block(id)
		if top == 0 && id != block.Empty {
			top = int32(y) + 1
		}
		if lit == 0 && d.Solid {
			lit = int32(y) + 1
		}
		if top != 0 && lit != 0 {
			break
		}
	}
	c.heightmap[idx] = top
	c.lightMap[idx] = lit
}

// GetBlock returns the block at the chunk-local voxel coordinate (x,y,z), or
// Empty if y falls outside [0, WorldHeight).
func (c *Chunk) GetBlock(x, y, z int) block.ID {
	if y < 0 || y >= voxel.WorldHeight {
		return block.Empty
	}
	return c.voxels[columnBase(x, z)+y]
}

// SetBlock writes b at the chunk-local voxel coordinate (x,y,z). It is a
// no-op if the cell already holds b; otherwise it updates heightmap and
// light_map incrementally, clears the equilevel bit for row y, marks the
// chunk dirty, and marks up to two edge-adjacent neighbors dirty.
func (c *Chunk) SetBlock(x, y, z int, b block.ID) {
	if y < 0 || y >= voxel.WorldHeight {
		return
	}
	i := columnBase(x, z) + y
	old := c.voxels[i]
	if old == b {
		return
	}
	c.voxels[i] = b
	c.updateExtents(x, y, z, old, b)
	c.equilevels[y] = 0
	c.dirty = true
	c.notifyEdgeNeighbors(x, z)
}

// SetColumn bulk-fills [start, start+count) of chunk-local column (x,z) with
// b. Used by the loader only; it updates heightmap and light_map once for
// the whole range rather than cell by cell.
func (c *Chunk) SetColumn(x, z int, start, count int, b block.ID) {
	base := columnBase(x, z)
	end := numeric.Clamp(start+count, 0, voxel.WorldHeight)
	start = numeric.Clamp(start, 0, voxel.WorldHeight)
	for y := start; y < end; y++ {
		if c.voxels[base+y] != b {
			c.equilevels[y] = 0
		}
		c.voxels[base+y] = b
	}
	c.recomputeColumnExtents(x, z)
	c.dirty = true
	c.notifyEdgeNeighbors(x, z)
}

// updateExtents applies the incremental heightmap/light_map update rule on
// a single-cell write from old to new at row y.
func (c *Chunk) updateExtents(x, y, z int, old, new block.ID) {
	idx := c.columnIndex(x, z)
	oldD, newD := c.w.registry.Block(old), c.w.registry.Block(new)

	if new == block.Empty && int32(y)+1 == c.heightmap[idx] {
		base := columnBase(x, z)
		top := int32(0)
		for yy := y - 1; yy >= 0; yy-- {
			if c.voxels[base+yy] != block.Empty {
				top = int32(yy) + 1
				break
			}
		}
		c.heightmap[idx] = top
	} else if new != block.Empty && int32(y) >= c.heightmap[idx] {
		c.heightmap[idx] = int32(y) + 1
	}

	if !newD.Solid && oldD.Solid && int32(y)+1 == c.lightMap[idx] {
		base := columnBase(x, z)
		lit := int32(0)
		for yy := y - 1; yy >= 0; yy-- {
			if c.w.registry.Block(c.voxels[base+yy]).Solid {
				lit = int32(yy) + 1
				break
			}
		}
		c.lightMap[idx] = lit
	} else if newD.Solid && int32(y) >= c.lightMap[idx] {
		c.lightMap[idx] = int32(y) + 1
	}
}

// notifyEdgeNeighbors marks dirty whichever of this chunk's up-to-two
// edge-adjacent neighbors chunk-local (x,z) touches.
func (c *Chunk) notifyEdgeNeighbors(x, z int) {
	if x == 0 {
		c.markNeighborDirty(c.pos.X-1, c.pos.Z)
	} else if x == voxel.ChunkWidth-1 {
		c.markNeighborDirty(c.pos.X+1, c.pos.Z)
	}
	if z == 0 {
		c.markNeighborDirty(c.pos.X, c.pos.Z-1)
	} else if z == voxel.ChunkWidth-1 {
		c.markNeighborDirty(c.pos.X, c.pos.Z+1)
	}
}

func (c *Chunk) markNeighborDirty(cx, cz int32) {
	if n, ok := c.w.chunks.Get(cx, cz); ok {
		n.dirty = true
	}
}

// needsRemesh reports whether remesh should process this chunk: it must be
// both dirty and ready (all four 4-adjacent neighbors loaded).
func (c *Chunk) needsRemesh() bool {
	return c.dirty && c.ready()
}

func (c *Chunk) ready() bool { return c.neighbors == 4 }

// onNeighborLoaded is called on c when a 4-adjacent neighbor finishes
// loading. It increments the live neighbor count; the transition to ready
// has no immediate effect, the next remesh tick picks it up.
func (c *Chunk) onNeighborLoaded() {
	c.neighbors++
}

// onNeighborUnloaded is called on c when a 4-adjacent neighbor is disposed.
// If c was ready and drops out of readiness, its meshes are dropped so it
// rebuilds with proper skirts once it becomes ready again.
func (c *Chunk) onNeighborUnloaded() {
	wasReady := c.ready()
	c.neighbors--
	if wasReady && !c.ready() {
		c.dropMeshes()
	}
}

// dropMeshes releases this chunk's current solid/water meshes and instanced
// slots without rebuilding them, marking frontier level 0 dirty if it had a
// mesh to lose.
func (c *Chunk) dropMeshes() {
	hadMesh := c.solid != nil
	if c.solid != nil {
		c.solid.Dispose()
		c.solid = nil
	}
	if c.water != nil {
		c.water.Dispose()
		c.water = nil
	}
	c.dropInstances()
	if hadMesh {
		c.w.frontier.MarkBaseDirty()
	}
	c.dirty = true
}

func (c *Chunk) dropInstances() {
	for _, s := range c.instances {
		s.owner.RemoveInstance(s.handle)
	}
	c.instances = make(map[int]instanceSlot)
}

// remesh rebuilds this chunk's instanced sprites and surface mesh. The
// caller (World.remesh) asserts dirty and ready before calling.
func (c *Chunk) remesh(mesher mesh.Mesher) {
	hadMesh := c.solid != nil
	c.remeshInstances()
	c.remeshSurface(mesher)
	c.dirty = false
	if !hadMesh && c.solid != nil {
		c.w.frontier.MarkBaseDirty()
	}
}

// remeshInstances drops previously recorded instances, then walks every
// non-equilevel row and every cell within it, asking the registry for a
// per-block instanced mesh and reserving an instance at each hit.
func (c *Chunk) remeshInstances() {
	c.dropInstances()
	baseX := float64(c.pos.X * voxel.ChunkWidth)
	baseZ := float64(c.pos.Z * voxel.ChunkWidth)
	for y := 0; y < voxel.WorldHeight; y++ {
		if c.equilevels[y] == 1 {
			continue
		}
		for x := 0; x < voxel.ChunkWidth; x++ {
			for z := 0; z < voxel.ChunkWidth; z++ {
				id := c.voxels[columnBase(x, z)+y]
				d := c.w.registry.Block(id)
				if !d.IsMesh() {
					continue
				}
				pos := mgl64.Vec3{baseX + float64(x) + 0.5, float64(y), baseZ + float64(z) + 0.5}
				h := d.Mesh.Handle.AddInstance(pos)
				c.instances[columnBase(x, z)+y] = instanceSlot{owner: d.Mesh.Handle, handle: h}
			}
		}
	}
}

// remeshSurface copies this chunk's interior plus the requested slab of
// each present neighbor into the World's shared padded scratch buffer (or
// zero-fills with bedrock below y=0 and empty elsewhere, for an absent
// neighbor), then invokes the mesher once.
func (c *Chunk) remeshSurface(mesher mesh.Mesher) {
	buf := c.w.scratch
	buf.fillFrom(c)

	old := mesh.ChunkInputs{
		Buffer:     buf.voxels,
		Heightmap:  buf.heightmap,
		LightMap:   buf.lightMap,
		Equilevels: buf.equilevels,
		OldSolid:   c.solid,
		OldWater:   c.water,
	}
	solid, water := mesher.MeshChunk(old)
	if c.solid != nil && c.solid != solid {
		c.solid.Dispose()
	}
	if c.water != nil && c.water != water {
		c.water.Dispose()
	}
	c.solid, c.water = solid, water
	wx := float64(c.pos.X * voxel.ChunkWidth)
	wz := float64(c.pos.Z * voxel.ChunkWidth)
	if c.solid != nil {
		c.solid.SetPosition(mgl64.Vec3{wx, 0, wz})
	}
	if c.water != nil {
		c.water.SetPosition(mgl64.Vec3{wx, 0, wz})
	}
}

// Dispose releases this chunk's meshes and instanced slots, marks frontier
// level 0 dirty if it had a mesh to lose, and notifies its loaded
// 4-adjacent neighbors that it is gone. It satisfies spatial.Disposable so
// *Chunk can be stored directly in a spatial.Circle.
func (c *Chunk) Dispose() {
	hadMesh := c.solid != nil
	if c.solid != nil {
		c.solid.Dispose()
	}
	if c.water != nil {
		c.water.Dispose()
	}
	c.dropInstances()
	if hadMesh {
		c.w.frontier.MarkBaseDirty()
	}
	c.w.metrics.loadedChunks.Dec()
	for _, d := range [4]ChunkPos{
		{X: c.pos.X - 1, Z: c.pos.Z},
		{X: c.pos.X + 1, Z: c.pos.Z},
		{X: c.pos.X, Z: c.pos.Z - 1},
		{X: c.pos.X, Z: c.pos.Z + 1},
	} {
		if n, ok := c.w.chunks.Get(d.X, d.Z); ok {
			n.onNeighborUnloaded()
		}
	}
}
