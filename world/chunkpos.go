package world

import "github.com/voxelkit/world/world/spatial"

// ChunkPos identifies a chunk by its integer (cx,cz) coordinate. It is a
// thin alias over spatial.Coord so the chunk circle and frontier circles
// share one coordinate type.
type ChunkPos = spatial.Coord

// chunkPosAt returns the ChunkPos containing the world-space column (x,z),
// matching the (⌊x⌋>>4, ⌊z⌋>>4) definition: floor to an integer, then an
// arithmetic right shift, which floors towards -∞ for negative coordinates
// too since ChunkWidth is a power of two.
func chunkPosAt(x, z float64) ChunkPos {
	return ChunkPos{X: int32(floorInt(x) >> 4), Z: int32(floorInt(z) >> 4)}
}

// chunkPosAtInt is chunkPosAt for already-integer voxel coordinates,
// avoiding a float round-trip on the GetBlock/SetBlock/IsBlockLit hot path.
func chunkPosAtInt(x, z int) ChunkPos {
	return ChunkPos{X: int32(x >> 4), Z: int32(z >> 4)}
}

func floorInt(v float64) int {
	i := int(v)
	if v < float64(i) {
		i--
	}
	return i
}
