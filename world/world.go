// Package world implements the streaming core: a circular chunk index
// around a moving viewer, per-chunk voxel storage with incremental
// heightmap/light-map maintenance, and a hierarchical LOD frontier beyond
// the loaded radius. It never touches the network, disk or GPU directly;
// those are external collaborators supplied through Config.
package world

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/voxelkit/world/block"
	"github.com/voxelkit/world/world/frontier"
	"github.com/voxelkit/world/world/spatial"
	"github.com/voxelkit/world/world/voxel"
)

// World owns the chunk circle, the frontier and the registry, and is the
// entry point the embedding application drives once per frame.
type World struct {
	conf     Config
	registry *block.Registry

	chunks   *spatial.Circle[*Chunk]
	frontier *frontier.Frontier
	scratch  *scratchBuffer
	metrics  *metrics

	col *voxel.Column

	center ChunkPos
}

// New builds a World from conf, which must already have passed Config.New.
func New(conf Config) *World {
	w := &World{
		conf:     conf,
		registry: conf.Registry,
		chunks:   spatial.NewCircle[*Chunk](conf.ChunkRadius),
		scratch:  newScratchBuffer(conf.Bedrock),
		metrics:  newMetrics(),
		col:      voxel.NewColumn(),
	}
	w.frontier = frontier.New(frontier.Config{
		ChunkRadius:    conf.ChunkRadius,
		FrontierRadius: conf.FrontierRadius,
		Levels:         conf.FrontierLevels,
		Load:           conf.LoadFrontier,
		Mesher:         conf.Mesher,
		Registry:       conf.Registry,
		TilesPerFrame:  conf.LODTilesPerFrameToMesh,
	})
	return w
}

// Registry returns the block/material table this World was built with.
func (w *World) Registry() *block.Registry { return w.registry }

// Metrics returns the Prometheus registry this World publishes to. Nothing
// in this package exports it over HTTP; the embedding application decides
// whether and how to scrape it.
func (w *World) Metrics() *prometheus.Registry { return w.metrics.Registry }

// Recenter computes the chunk coordinate containing (x,y,z) — y is accepted
// for call-site symmetry with GetBlock/SetBlock but does not affect the
// horizontal recenter — shifts the chunk circle and every frontier level
// (evicting whatever falls out of range), then admits up to
// ChunksPerFrameToLoad new chunks in nearest-first order. When prime is
// true the per-frame admission cap is lifted for this call, so an initial
// load can fill the whole radius in one pass instead of trickling in over
// several frames.
func (w *World) Recenter(x, y, z float64, prime bool) {
	pos := chunkPosAt(x, z)
	w.center = pos
	w.chunks.Recenter(pos.X, pos.Z)
	w.frontier.Recenter(pos.X, pos.Z)
	w.admitChunks(pos, prime)
}

// admitChunks loads up to ChunksPerFrameToLoad not-yet-present chunks,
// nearest the center first, or every chunk in range when prime is true.
func (w *World) admitChunks(center ChunkPos, prime bool) {
	loaded := 0
	budget := w.conf.ChunksPerFrameToLoad
	if prime {
		budget = len(w.chunks.Points())
	}
	for _, d := range w.chunks.Points() {
		if loaded >= budget {
			return
		}
		cx, cz := center.X+d.X, center.Z+d.Z
		if _, ok := w.chunks.Get(cx, cz); ok {
			continue
		}
		w.loadChunk(cx, cz)
		loaded++
	}
}

// loadChunk builds and fills a new chunk at (cx,cz), registers it in the
// circle, and notifies its 4-adjacent neighbors it has arrived.
func (w *World) loadChunk(cx, cz int32) {
	pos := ChunkPos{X: cx, Z: cz}
	c := newChunk(w, pos)
	c.Fill(w.col, w.conf.LoadChunk)
	if err := w.chunks.Set(cx, cz, c); err != nil {
		w.fail(assertionErr("load chunk", "%v", err))
		return
	}
	w.metrics.chunksLoaded.Inc()
	w.metrics.loadedChunks.Inc()
	for _, d := range [4]ChunkPos{
		{X: cx - 1, Z: cz}, {X: cx + 1, Z: cz}, {X: cx, Z: cz - 1}, {X: cx, Z: cz + 1},
	} {
		if n, ok := w.chunks.Get(d.X, d.Z); ok {
			n.onNeighborLoaded()
			c.onNeighborLoaded()
		}
	}
}

// Remesh walks the chunk circle in nearest-first order, remeshing any
// chunk that needs it. The first 9 visits (the 3x3 core around the viewer)
// are exempt from ChunksPerFrameToMesh; after that the budget is enforced.
// Any chunk that gains a mesh for the first time marks frontier level 0
// dirty. The frontier is remeshed last.
func (w *World) Remesh() {
	visits, meshed := 0, 0
	w.chunks.Each(func(_ spatial.Coord, c *Chunk) bool {
		visits++
		if visits > voxel.CoreVisits && meshed >= w.conf.ChunksPerFrameToMesh {
			return true
		}
		if c.needsRemesh() {
			c.remesh(w.conf.Mesher)
			meshed++
			w.metrics.chunksMeshed.Inc()
		}
		return false
	})
	w.metrics.tilesMeshed.Add(float64(w.frontier.Remesh()))
}

// GetBlock returns the block at world-space voxel coordinate (x,y,z):
// bedrock below y=0, Empty above WorldHeight, Unknown for a
// not-yet-loaded chunk, and the stored value otherwise.
func (w *World) GetBlock(x, y, z int) block.ID {
	if y < 0 {
		return w.conf.Bedrock
	}
	if y >= voxel.WorldHeight {
		return block.Empty
	}
	pos := chunkPosAtInt(x, z)
	c, ok := w.chunks.Get(pos.X, pos.Z)
	if !ok {
		return block.Unknown
	}
	lx := int(x - int(pos.X)*voxel.ChunkWidth)
	lz := int(z - int(pos.Z)*voxel.ChunkWidth)
	return c.GetBlock(lx, y, lz)
}

// SetBlock writes b at world-space voxel coordinate (x,y,z). It is a no-op
// if the coordinate is out of the vertical range or the chunk is not
// loaded.
func (w *World) SetBlock(x, y, z int, b block.ID) {
	if y < 0 || y >= voxel.WorldHeight {
		return
	}
	pos := chunkPosAtInt(x, z)
	c, ok := w.chunks.Get(pos.X, pos.Z)
	if !ok {
		return
	}
	lx := int(x - int(pos.X)*voxel.ChunkWidth)
	lz := int(z - int(pos.Z)*voxel.ChunkWidth)
	c.SetBlock(lx, y, lz, b)
}

// IsBlockLit reports whether world-space voxel coordinate (x,y,z) is lit:
// either it sits at or above the chunk's recorded light_map cutoff for its
// column (not shadowed by any solid cell above it), or the cell itself
// holds a light-emitting block. This is a simple cutoff, not a lighting
// simulation: a light-emitting block does not illuminate its neighbors.
func (w *World) IsBlockLit(x, y, z int) bool {
	if y < 0 {
		return false
	}
	if y >= voxel.WorldHeight {
		return true
	}
	pos := chunkPosAtInt(x, z)
	c, ok := w.chunks.Get(pos.X, pos.Z)
	if !ok {
		return false
	}
	lx := int(x - int(pos.X)*voxel.ChunkWidth)
	lz := int(z - int(pos.Z)*voxel.ChunkWidth)
	idx := c.columnIndex(lx, lz)
	if int32(y) >= c.lightMap[idx] {
		return true
	}
	return w.registry.Block(c.GetBlock(lx, y, lz)).Light > 0
}
