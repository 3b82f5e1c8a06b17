// Package frontier implements the hierarchical level-of-detail pyramid that
// sits beyond the loaded chunk circle: concentric rings of
// progressively coarser tiles, each pack of four sharing one GPU multi-mesh
// and a 4-bit child-coverage visibility mask.
package frontier

import (
	"github.com/voxelkit/world/block"
	"github.com/voxelkit/world/internal/numeric"
	"github.com/voxelkit/world/world/mesh"
	"github.com/voxelkit/world/world/spatial"
	"github.com/voxelkit/world/world/voxel"
)

// packShift is log2(kMultiMeshSide): tiles are grouped into 2x2 packs, so a
// pack key is a tile coordinate shifted right by one bit.
const packShift = 1

// tile is one LOD cell at a given level. Its mesh is a view into its pack's
// shared multi-mesh rather than an independently owned object; disposing a
// tile only clears its quadrant of that multi-mesh.
type tile struct {
	pos      spatial.Coord
	level    int
	frontier *Frontier
	pack     *pack
	slot     int // index within pack's 2x2 quadrant, 0..3
	hasSolid bool
	hasWater bool
	mask     uint8 // 4-bit child-coverage mask
}

// Dispose releases this tile's pack slot and, if it had contributed a mesh,
// clears the corresponding bit in its parent tile's coverage mask — the
// reverse of the set that happens when a tile first gains a mesh, so a
// tile going out of range doesn't leave its parent believing the quadrant
// is still covered.
func (t *tile) Dispose() {
	if t.pack != nil {
		t.pack.release(t.slot)
	}
	if t.hasSolid || t.hasWater {
		t.frontier.clearParentMask(t.level, t.pos)
	}
}

// packKey identifies a 2x2 group of tiles sharing one multi-mesh.
type packKey struct {
	x, z  int32
	level int
}

// pack is the shared GPU multi-mesh backing up to four tiles. It
// self-destructs (disposes its meshes) once its enabled set becomes empty.
type pack struct {
	key     packKey
	solid   mesh.Mesh
	water   mesh.Mesh
	enabled uint8 // bitset of occupied slots, 0..15
	mask    uint64
}

func (p *pack) release(slot int) {
	p.enabled &^= 1 << slot
	p.setMask(slot, 0)
	if p.enabled == 0 {
		if p.solid != nil {
			p.solid.Dispose()
			p.solid = nil
		}
		if p.water != nil {
			p.water.Dispose()
			p.water = nil
		}
	}
}

func (p *pack) setMask(slot int, mask uint8) {
	shift := uint(slot) * 4
	p.mask &^= uint64(0xF) << shift
	p.mask |= uint64(mask) << shift
	if p.solid != nil {
		p.solid.Show(p.mask, p.mask != 0xFFFFFFFFFFFFFFFF)
	}
	if p.water != nil {
		p.water.Show(p.mask, true)
	}
}

// level is one ring of the pyramid: a tile circle at resolution
// (kFrontierLOD << L) relative to base chunks, plus a dirty flag and the
// packs currently backing its live tiles.
type level struct {
	index  int
	lod    int32 // horizontal stride relative to base-chunk voxels
	circle *spatial.Circle[*tile]
	packs  map[packKey]*pack
	dirty  bool
}

// Frontier owns the full LOD pyramid for a World. It never holds pointers
// into the chunk circle; it reaches the loader exactly as a chunk does.
type Frontier struct {
	levels   []*level
	load     voxel.Loader
	mesher   mesh.Mesher
	registry *block.Registry
	budget   int
}

// Config bundles the construction-time parameters a Frontier needs from its
// owning World.
type Config struct {
	ChunkRadius    int32
	FrontierRadius int32
	Levels         int
	Load           voxel.Loader
	Mesher         mesh.Mesher
	Registry       *block.Registry
	TilesPerFrame  int
}

// New builds a Frontier with Levels concentric rings, the first blending
// ChunkRadius geometrically with FrontierRadius and halving in tile
// radius at each subsequent level.
func New(cfg Config) *Frontier {
	f := &Frontier{load: cfg.Load, mesher: cfg.Mesher, registry: cfg.Registry, budget: cfg.TilesPerFrame}
	radius := blendedRadius(cfg.ChunkRadius, cfg.FrontierRadius)
	lod := int32(voxel.FrontierLOD)
	for l := 0; l < cfg.Levels; l++ {
		f.levels = append(f.levels, &level{
			index:  l,
			lod:    lod,
			circle: spatial.NewCircle[*tile](radius),
			packs:  make(map[packKey]*pack),
			dirty:  true,
		})
		radius = numeric.Max(radius/2, 1)
		lod *= 2
	}
	return f
}

// blendedRadius geometrically blends the two configured radii into the
// level-0 tile radius: the frontier begins exactly where the chunk circle
// ends, extended outward by the configured frontier radius.
func blendedRadius(chunkRadius, frontierRadius int32) int32 {
	return (chunkRadius + frontierRadius) / voxel.FrontierLOD
}

// MarkBaseDirty marks level 0 dirty. Called by World whenever a chunk
// acquires or loses a mesh.
func (f *Frontier) MarkBaseDirty() {
	if len(f.levels) > 0 {
		f.levels[0].dirty = true
	}
}

// Recenter shifts every level's tile circle to the coordinate appropriate
// for (cx,cz) at that level's scale, each level at half the preceding
// coordinate scale, and disposes whatever falls out of range.
func (f *Frontier) Recenter(cx, cz int32) {
	x, z := cx, cz
	for _, lvl := range f.levels {
		x, z = x/voxel.FrontierLOD, z/voxel.FrontierLOD
		lvl.circle.Recenter(x, z)
	}
}

// Remesh processes each level coarsest-first, spending at most f.budget new
// tile meshes per level; a level that still has pending work stays dirty.
// Coarsest-first ordering matters: when a level's tile first gains a mesh,
// it sets a bit in its already-one-level-coarser parent's coverage mask, and
// that parent must already exist for the bit to land anywhere. Processing
// parents before children guarantees that, instead of only catching up a
// frame late. It returns the total number of tiles freshly meshed across
// all levels, for the caller's metrics.
func (f *Frontier) Remesh() int {
	total := 0
	for i := len(f.levels) - 1; i >= 0; i-- {
		lvl := f.levels[i]
		if !lvl.dirty {
			continue
		}
		total += f.remeshLevel(lvl)
	}
	return total
}

// remeshLevel walks every position in lvl's disk, nearest-center-first,
// admitting and meshing tiles that don't have a pack slot yet. It iterates
// by offset from lvl.circle.Points rather than lvl.circle.Each because Each
// only visits positions already backed by a live element — admitting a
// brand new tile needs the full disk, the same way World.admitChunks walks
// its chunk circle's offsets rather than Each to admit new chunks.
func (f *Frontier) remeshLevel(lvl *level) int {
	spent := 0
	pending := false
	center := lvl.circle.Center()
	for _, d := range lvl.circle.Points() {
		if spent >= f.budget {
			pending = true
			break
		}
		pos := spatial.Coord{X: center.X + d.X, Z: center.Z + d.Z}
		if f.ensureTile(lvl, pos) {
			spent++
		}
	}
	lvl.dirty = pending
	return spent
}

// ensureTile loads a tile at pos if it is not yet backed by a pack slot,
// meshing both its opaque and water quadrant geometry. It returns true if
// it did any meshing work this call (counts against the per-frame budget).
func (f *Frontier) ensureTile(lvl *level, pos spatial.Coord) bool {
	t, ok := lvl.circle.Get(pos.X, pos.Z)
	if !ok {
		t = &tile{pos: pos, level: lvl.index, frontier: f}
		lvl.circle.Set(pos.X, pos.Z, t)
	}
	if t.hasSolid || t.hasWater {
		return false
	}

	pk := packKey{x: pos.X >> packShift, z: pos.Z >> packShift, level: lvl.index}
	p, ok := lvl.packs[pk]
	if !ok {
		p = &pack{key: pk}
		lvl.packs[pk] = p
	}
	t.pack = p
	t.slot = packSlot(pos)

	side := voxel.ChunkWidth / voxel.FrontierLOD
	strip := buildHeightStrip(f, lvl, pos, side)

	px, pz := tileOrigin(pos, lvl.lod)
	solid := f.mesher.MeshFrontier(strip.solid, t.slot, px, pz, px+side, pz+side, int(lvl.lod), p.solid, true)
	water := f.mesher.MeshFrontier(strip.water, t.slot, px, pz, px+side, pz+side, int(lvl.lod), p.water, false)
	p.solid, p.water = solid, water
	t.hasSolid, t.hasWater = solid != nil, water != nil
	p.enabled |= 1 << t.slot
	p.setMask(t.slot, t.mask)

	if t.hasSolid || t.hasWater {
		if lvl.index+1 < len(f.levels) {
			f.levels[lvl.index+1].dirty = true
			f.updateParentMask(lvl.index, pos)
		}
	}
	return true
}

// parentOf looks up the live parent tile of child tile pos at childLevel, if
// one exists and is already backed by a pack slot.
func (f *Frontier) parentOf(childLevel int, pos spatial.Coord) *tile {
	parentLevel := childLevel + 1
	if parentLevel >= len(f.levels) {
		return nil
	}
	parentPos := spatial.Coord{X: pos.X >> 1, Z: pos.Z >> 1}
	parent, ok := f.levels[parentLevel].circle.Get(parentPos.X, parentPos.Z)
	if !ok || parent.pack == nil {
		return nil
	}
	return parent
}

// updateParentMask sets the bit for child tile pos (at level childLevel) in
// its parent tile's 4-bit coverage mask, if the parent already exists. A
// parent fully covered by its 4 children (mask==15) is hidden by its own
// pack's Show call; it is drawn whenever mask != 15.
func (f *Frontier) updateParentMask(childLevel int, pos spatial.Coord) {
	parent := f.parentOf(childLevel, pos)
	if parent == nil {
		return
	}
	parent.mask |= 1 << uint8(packSlot(pos))
	parent.pack.setMask(parent.slot, parent.mask)
}

// clearParentMask clears the bit for child tile pos (at level childLevel) in
// its parent tile's 4-bit coverage mask, if the parent still exists. Mirrors
// updateParentMask's set path so a child tile evicted by Recenter does not
// leave its parent believing the quadrant is still covered.
func (f *Frontier) clearParentMask(childLevel int, pos spatial.Coord) {
	parent := f.parentOf(childLevel, pos)
	if parent == nil {
		return
	}
	parent.mask &^= 1 << uint8(packSlot(pos))
	parent.pack.setMask(parent.slot, parent.mask)
}

func packSlot(pos spatial.Coord) int {
	x := pos.X & 1
	z := pos.Z & 1
	return int(x<<1 | z)
}

// tileOrigin returns the world-space base-chunk coordinate of the tile's
// negative corner, used as the mesher's px,pz parameters.
func tileOrigin(pos spatial.Coord, lod int32) (int, int) {
	side := int32(voxel.ChunkWidth) / voxel.FrontierLOD
	return int(pos.X * side * lod / voxel.FrontierLOD), int(pos.Z * side * lod / voxel.FrontierLOD)
}

type heightStrip struct {
	solid []uint16
	water []uint16
}

// buildHeightStrip samples the loader on a (side+2)^2 grid with a one-cell
// skirt, at stride kFrontierLOD<<level, producing the tallest-solid and
// tallest-nonsolid-over-water cell per column the mesher needs.
func buildHeightStrip(f *Frontier, lvl *level, pos spatial.Coord, side int) heightStrip {
	n := side + 2
	strip := heightStrip{solid: make([]uint16, n*n), water: make([]uint16, n*n)}
	stride := voxel.FrontierLOD << uint(lvl.index)
	baseX, baseZ := tileOrigin(pos, lvl.lod)
	col := voxel.NewColumn()
	for ix := 0; ix < n; ix++ {
		for iz := 0; iz < n; iz++ {
			ax := int32(baseX + (ix-1)*stride)
			az := int32(baseZ + (iz-1)*stride)
			col.Clear()
			f.load(ax, az, col)
			solidTop, waterTop := sampleColumn(f.registry, col)
			strip.solid[ix*n+iz] = solidTop
			strip.water[ix*n+iz] = waterTop
		}
	}
	return strip
}

// sampleColumn walks col's runs from the top down looking for the tallest
// solid cell and the tallest cell whose top face is a liquid material,
// mirroring what a fully filled Column would report without paying for a
// full WorldHeight fill.
func sampleColumn(registry *block.Registry, col *voxel.Column) (solidTop, waterTop uint16) {
	voxels := make([]block.ID, voxel.WorldHeight)
	col.FillInto(voxels, 0, true)
	for y := voxel.WorldHeight - 1; y >= 0; y-- {
		d := registry.Block(voxels[y])
		if solidTop == 0 && d.Solid {
			solidTop = uint16(y + 1)
		}
		if waterTop == 0 && voxels[y] != block.Empty && isLiquidTop(registry, d) {
			waterTop = uint16(y + 1)
		}
		if solidTop != 0 && waterTop != 0 {
			break
		}
	}
	return
}

// isLiquidTop reports whether d's top face references a liquid material. A
// mesh-based block's faces are always NoMaterial, so it is never water.
// Empty is excluded by sampleColumn's own caller-side check, not here: its
// zero-value Data has Faces[PosY] == 0, an ordinary MaterialID, not
// NoMaterial.
func isLiquidTop(registry *block.Registry, d block.Data) bool {
	top := d.Faces[block.PosY]
	if top == block.NoMaterial {
		return false
	}
	return registry.Material(top).Liquid
}
