package world

import (
	"testing"

	"github.com/aquilax/go-perlin"
	"github.com/voxelkit/world/block"
	"github.com/voxelkit/world/world/voxel"
)

// perlinLoader returns a Loader producing deterministic synthetic terrain:
// a single stone run whose height is derived from 2D Perlin noise sampled
// at the column's world coordinate. It exists only for tests that need a
// loader with spatial variation instead of a flat plane.
func perlinLoader(seed int64, amplitude, base float64, stone block.ID) voxel.Loader {
	p := perlin.NewPerlin(2, 2, 3, seed)
	return func(ax, az int32, col *voxel.Column) {
		n := p.Noise2D(float64(ax)*0.1, float64(az)*0.1)
		height := int32(base + n*amplitude)
		if height < 1 {
			height = 1
		}
		if height > voxel.WorldHeight {
			height = voxel.WorldHeight
		}
		col.Push(stone, height)
	}
}

func TestPerlinLoaderProducesBoundedVaryingHeights(t *testing.T) {
	r, stone := testRegistry(t)
	load := perlinLoader(1, 20, 64, stone)
	w := testWorld(t, r, load)
	w.loadChunk(0, 0)
	c, _ := w.chunks.Get(0, 0)

	min, max := int32(voxel.WorldHeight), int32(0)
	for x := 0; x < voxel.ChunkWidth; x++ {
		for z := 0; z < voxel.ChunkWidth; z++ {
			h := c.heightmap[c.columnIndex(x, z)]
			if h < min {
				min = h
			}
			if h > max {
				max = h
			}
		}
	}
	if min < 1 || max > voxel.WorldHeight {
		t.Fatalf("expected heights within [1, WorldHeight], got [%d, %d]", min, max)
	}
	if min == max {
		t.Fatalf("expected Perlin noise to vary height across a 16x16 chunk, got a flat %d", min)
	}
}

func TestPerlinLoaderIsDeterministicForAGivenSeed(t *testing.T) {
	r, stone := testRegistry(t)
	a := testWorld(t, r, perlinLoader(7, 20, 64, stone))
	b := testWorld(t, r, perlinLoader(7, 20, 64, stone))
	a.loadChunk(2, -3)
	b.loadChunk(2, -3)
	ca, _ := a.chunks.Get(2, -3)
	cb, _ := b.chunks.Get(2, -3)
	for i := range ca.heightmap {
		if ca.heightmap[i] != cb.heightmap[i] {
			t.Fatalf("expected the same seed to reproduce identical heightmaps, diverged at column %d", i)
		}
	}
}
