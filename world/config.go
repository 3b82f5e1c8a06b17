package world

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml"
	"github.com/voxelkit/world/block"
	"github.com/voxelkit/world/world/mesh"
	"github.com/voxelkit/world/world/voxel"
)

// Config holds the tunables a World is built from. The zero Config is not
// usable; call New to fill in defaults for anything left unset.
type Config struct {
	// Log receives structured diagnostics: assertion failures and, for a
	// Timing built with World.NewTiming, quarantined callback errors. If
	// nil, New sets it to slog.Default().
	Log *slog.Logger

	// ChunkRadius is the radius, in chunks, of the loaded chunk circle.
	ChunkRadius int32
	// FrontierRadius extends the LOD pyramid's level-0 ring beyond
	// ChunkRadius.
	FrontierRadius int32
	// FrontierLevels is the number of concentric LOD rings.
	FrontierLevels int

	// ChunksPerFrameToLoad caps how many new chunks Recenter admits in one
	// call.
	ChunksPerFrameToLoad int
	// ChunksPerFrameToMesh caps how many chunks past the 3x3 core are
	// remeshed in one Remesh call.
	ChunksPerFrameToMesh int
	// LODTilesPerFrameToMesh caps how many new tile meshes each frontier
	// level produces per Remesh call.
	LODTilesPerFrameToMesh int

	// Bedrock is written into the World's padded scratch buffer at y=-1
	// once at construction.
	Bedrock block.ID

	// Registry supplies the block/material table. It must already be
	// fully populated; a World never mutates it.
	Registry *block.Registry
	// Mesher is the external surface-extraction collaborator.
	Mesher mesh.Mesher

	// LoadChunk fills a base chunk's Column. It must be set.
	LoadChunk voxel.Loader
	// LoadFrontier fills a frontier tile's Column. If nil, LoadChunk is
	// used for both.
	LoadFrontier voxel.Loader

	// OnFatal is invoked, synchronously, with the AssertionError when the
	// World detects a broken core invariant. If nil, the World panics with
	// that error instead.
	OnFatal func(error)
}

// New returns a Config with every unset field given its documented
// default, validating that the required collaborators are present.
func (c Config) New() (Config, error) {
	if c.Log == nil {
		c.Log = slog.Default()
	}
	if c.ChunkRadius <= 0 {
		c.ChunkRadius = voxel.DefaultChunkRadius
	}
	if c.FrontierRadius <= 0 {
		c.FrontierRadius = voxel.DefaultFrontierRadius
	}
	if c.FrontierLevels <= 0 {
		c.FrontierLevels = voxel.FrontierLevels
	}
	if c.ChunksPerFrameToLoad <= 0 {
		c.ChunksPerFrameToLoad = voxel.DefaultChunksPerFrameToLoad
	}
	if c.ChunksPerFrameToMesh <= 0 {
		c.ChunksPerFrameToMesh = voxel.DefaultChunksPerFrameToMesh
	}
	if c.LODTilesPerFrameToMesh <= 0 {
		c.LODTilesPerFrameToMesh = voxel.DefaultLODTilesPerFrameToMesh
	}
	if c.Registry == nil {
		return c, fmt.Errorf("world: config: Registry must be set")
	}
	if c.Mesher == nil {
		return c, fmt.Errorf("world: config: Mesher must be set")
	}
	if c.LoadChunk == nil {
		return c, fmt.Errorf("world: config: LoadChunk must be set")
	}
	if c.LoadFrontier == nil {
		c.LoadFrontier = c.LoadChunk
	}
	return c, nil
}

// fileConfig mirrors the subset of Config that can be overridden from a
// TOML file; collaborators (Registry, Mesher, loaders) are always supplied
// in code.
type fileConfig struct {
	ChunkRadius            int32
	FrontierRadius         int32
	FrontierLevels         int
	ChunksPerFrameToLoad   int
	ChunksPerFrameToMesh   int
	LODTilesPerFrameToMesh int
}

// LoadConfigFile reads TOML overrides from path into c's numeric tunables,
// leaving every other field untouched.
func LoadConfigFile(c Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("world: load config file: %w", err)
	}
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return c, fmt.Errorf("world: load config file: %w", err)
	}
	if fc.ChunkRadius != 0 {
		c.ChunkRadius = fc.ChunkRadius
	}
	if fc.FrontierRadius != 0 {
		c.FrontierRadius = fc.FrontierRadius
	}
	if fc.FrontierLevels != 0 {
		c.FrontierLevels = fc.FrontierLevels
	}
	if fc.ChunksPerFrameToLoad != 0 {
		c.ChunksPerFrameToLoad = fc.ChunksPerFrameToLoad
	}
	if fc.ChunksPerFrameToMesh != 0 {
		c.ChunksPerFrameToMesh = fc.ChunksPerFrameToMesh
	}
	if fc.LODTilesPerFrameToMesh != 0 {
		c.LODTilesPerFrameToMesh = fc.LODTilesPerFrameToMesh
	}
	return c, nil
}
