package world

import (
	"github.com/voxelkit/world/block"
	"github.com/voxelkit/world/world/voxel"
)

// padded{Width,Height} are the dimensions of the World's single shared
// scratch volume: one cell of skirt on every horizontal side, and one cell
// above and below the full vertical extent.
const (
	paddedWidth  = voxel.ChunkWidth + 2
	paddedHeight = voxel.WorldHeight + 2
)

// scratchBuffer is the World's one padded volume, reused across every
// chunk's remesh so no per-remesh allocation is needed. Row py=0 is the
// bedrock plane (world y=-1) and row py=paddedHeight-1 is the always-empty
// plane (world y=WorldHeight); both are written once at construction and
// never touched again.
type scratchBuffer struct {
	voxels     []uint16
	heightmap  []uint16
	lightMap   []uint16
	equilevels []uint8
}

func newScratchBuffer(bedrock block.ID) *scratchBuffer {
	b := &scratchBuffer{
		voxels:     make([]uint16, paddedWidth*paddedHeight*paddedWidth),
		heightmap:  make([]uint16, paddedWidth*paddedWidth),
		lightMap:   make([]uint16, paddedWidth*paddedWidth),
		equilevels: make([]uint8, paddedHeight),
	}
	for px := 0; px < paddedWidth; px++ {
		for pz := 0; pz < paddedWidth; pz++ {
			b.voxels[b.index(px, 0, pz)] = uint16(bedrock)
		}
	}
	b.equilevels[0] = 1
	b.equilevels[paddedHeight-1] = 1
	return b
}

func (b *scratchBuffer) index(px, py, pz int) int {
	return (px*paddedHeight+py)*paddedWidth + pz
}

// fillFrom repopulates the interior and the four skirts of the buffer for
// c's remesh: c's own voxels fill the interior, and a thickness-1 slab from
// each present 4-adjacent neighbor fills the matching skirt. An absent
// neighbor's skirt is zero-filled with Empty (the bedrock and empty planes
// at py=0 and py=paddedHeight-1 are left untouched, set up once at
// construction).
func (b *scratchBuffer) fillFrom(c *Chunk) {
	w := voxel.ChunkWidth
	for x := 0; x < w; x++ {
		for z := 0; z < w; z++ {
			idx := c.columnIndex(x, z)
			b.heightmap[b.stripIndex(x+1, z+1)] = uint16(c.heightmap[idx])
			b.lightMap[b.stripIndex(x+1, z+1)] = uint16(c.lightMap[idx])
			for y := 0; y < voxel.WorldHeight; y++ {
				b.voxels[b.index(x+1, y+1, z+1)] = uint16(c.GetBlock(x, y, z))
			}
		}
	}
	copy(b.equilevels[1:1+voxel.WorldHeight], c.equilevels)

	b.fillSkirt(c, -1, 0, w-1, 0)   // -X: neighbor's column w-1 goes to padded x=0
	b.fillSkirt(c, 1, 0, 0, w+1)    // +X: neighbor's column 0 goes to padded x=w+1
	b.fillSkirt(c, 0, -1, w-1, 0)   // -Z: neighbor's row w-1 goes to padded z=0
	b.fillSkirt(c, 0, 1, 0, w+1)    // +Z: neighbor's row 0 goes to padded z=w+1
}

func (b *scratchBuffer) stripIndex(px, pz int) int { return px*paddedWidth + pz }

// fillSkirt fills the skirt in direction (dx,dz) from the neighbor at
// (dx,dz). Along the axis of the offset, it reads the neighbor's fixed
// column/row srcFixed and writes padded index dstFixed; the other axis
// varies over the chunk's full width.
func (b *scratchBuffer) fillSkirt(c *Chunk, dx, dz int32, srcFixed, dstFixed int) {
	n, ok := c.w.chunks.Get(c.pos.X+dx, c.pos.Z+dz)
	w := voxel.ChunkWidth
	for i := 0; i < w; i++ {
		var px, pz, nx, nz int
		if dx != 0 {
			px, pz = dstFixed, i+1
			nx, nz = srcFixed, i
		} else {
			px, pz = i+1, dstFixed
			nx, nz = i, srcFixed
		}
		if !ok {
			for y := 0; y < voxel.WorldHeight; y++ {
				b.voxels[b.index(px, y+1, pz)] = uint16(block.Empty)
			}
			b.heightmap[b.stripIndex(px, pz)] = 0
			b.lightMap[b.stripIndex(px, pz)] = 0
			continue
		}
		for y := 0; y < voxel.WorldHeight; y++ {
			b.voxels[b.index(px, y+1, pz)] = uint16(n.GetBlock(nx, y, nz))
		}
		idx := n.columnIndex(nx, nz)
		b.heightmap[b.stripIndex(px, pz)] = uint16(n.heightmap[idx])
		b.lightMap[b.stripIndex(px, pz)] = uint16(n.lightMap[idx])
	}
}
