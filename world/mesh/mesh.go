// Package mesh declares the contracts the streaming core consumes from (and
// exposes to) an external mesh producer and renderer. Nothing in this
// package implements surface extraction, GPU buffers or shaders — those are
// collaborators supplied by the embedding application.
package mesh

import "github.com/go-gl/mathgl/mgl64"

// Mesh is a renderer-owned geometry object. The core positions it, toggles
// its visibility and disposes it; it never inspects the geometry itself.
type Mesh interface {
	// SetPosition moves the mesh to world-space position.
	SetPosition(pos mgl64.Vec3)
	// Show toggles visibility for the bits set in mask, used by frontier
	// multi-meshes to mask individual quadrants within a shared mesh.
	Show(mask uint64, shown bool)
	// Dispose releases any GPU resources owned by the mesh.
	Dispose()
}

// InstancedMesh is a renderer-owned collection of sprite instances sharing
// one base mesh (e.g. grass tufts).
type InstancedMesh interface {
	// AddInstance reserves an instance slot at world-space position and
	// returns an opaque handle used to remove it later.
	AddInstance(pos mgl64.Vec3) Handle
	// RemoveInstance releases the slot held by handle.
	RemoveInstance(handle Handle)
}

// Handle is an opaque instanced-mesh slot reservation. The core never reads
// its contents; it only stores and returns it for later removal.
type Handle any

// ChunkInputs are the buffers Chunk.remesh hands to Mesher.MeshChunk. Buffer
// is a padded (W+2)x(H+2)x(W+2) voxel volume; Heightmap and LightMap are
// padded (W+2)x(W+2) strips; Equilevels is padded by one row on the Y axis
// as well. OldSolid/OldWater are the chunk's current meshes, passed so the
// mesher may reuse their GPU buffers instead of allocating fresh ones.
type ChunkInputs struct {
	Buffer     []uint16 // flattened [W+2][H+2][W+2], Y-major within each XZ column
	Heightmap  []uint16 // flattened [W+2][W+2]
	LightMap   []uint16 // flattened [W+2][W+2]
	Equilevels []uint8  // length H+2
	OldSolid   Mesh
	OldWater   Mesh
}

// Mesher is the external surface-extraction collaborator.
type Mesher interface {
	// MeshChunk extracts solid and (liquid) water geometry from a padded
	// chunk volume. Either return value may be nil if that mesh has no
	// geometry (e.g. an all-empty chunk produces a nil solid mesh).
	MeshChunk(in ChunkInputs) (solid, water Mesh)

	// MeshFrontier extracts geometry for one quadrant of a frontier tile
	// from a padded heightmap strip. maskIndex selects which quadrant of
	// the shared multi-mesh this geometry is written into. lod is the
	// frontier level's horizontal sampling stride in voxels
	// (FrontierLOD << level). old, if non-nil, is reused instead
	// of allocating a new mesh.
	MeshFrontier(heightmapStrip []uint16, maskIndex int, px, pz, nx, nz, lod int, old Mesh, isSolid bool) Mesh
}
