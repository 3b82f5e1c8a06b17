// Package voxel holds the chunk-shape constants and the per-column scratch
// buffer shared by the world and frontier packages. It is
// deliberately kept free of any dependency on the World or Frontier types
// themselves so that both can depend on it without a cycle.
package voxel

// Fixed boundary constants from the external interface contract.
// These are not tuning knobs: changing them changes the shape of the
// padded scratch volume, the frontier pyramid, or the wire contract with
// the mesher, and is not supported at runtime.
const (
	ChunkWidth  = 16
	WorldHeight = 256

	FrontierLOD    = 2
	FrontierLevels = 6
	MultiMeshSide  = 2

	TicksPerSecond = 60
	TicksPerFrame  = 4
	TickResolution = 4
)

// Default per-frame budgets and radii; overridable via world.Config.
const (
	DefaultChunkRadius            = 12
	DefaultFrontierRadius         = 8
	DefaultChunksPerFrameToLoad   = 1
	DefaultChunksPerFrameToMesh   = 1
	DefaultLODTilesPerFrameToMesh = 1

	// CoreVisits is the 3x3-chunk neighborhood around the viewer that is
	// always allowed to remesh regardless of the per-frame mesh budget.
	CoreVisits = 9
)
