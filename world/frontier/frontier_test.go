package frontier

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/voxelkit/world/block"
	"github.com/voxelkit/world/world/mesh"
	"github.com/voxelkit/world/world/spatial"
	"github.com/voxelkit/world/world/voxel"
)

type fakeMesh struct {
	disposed bool
	mask     uint64
}

func (m *fakeMesh) SetPosition(mgl64.Vec3)       {}
func (m *fakeMesh) Show(mask uint64, shown bool) { m.mask = mask }
func (m *fakeMesh) Dispose()                     { m.disposed = true }

// fakeMesher returns a *fakeMesh for solid geometry (reusing old when one is
// passed in) and never
// produces water, so tests can assert on mask/dirty-propagation behavior
// without worrying about liquid geometry.
type fakeMesher struct{}

func (fakeMesher) MeshChunk(mesh.ChunkInputs) (solid, water mesh.Mesh) { return nil, nil }

func (fakeMesher) MeshFrontier(strip []uint16, maskIndex, px, pz, nx, nz, lod int, old mesh.Mesh, isSolid bool) mesh.Mesh {
	if !isSolid {
		return nil
	}
	if old != nil {
		return old
	}
	return &fakeMesh{}
}

func flatLoad(height int32) voxel.Loader {
	return func(ax, az int32, col *voxel.Column) {
		col.Push(block.ID(2), height)
	}
}

type fakeInstancedMesh struct{}

func (fakeInstancedMesh) AddInstance(mgl64.Vec3) mesh.Handle { return nil }
func (fakeInstancedMesh) RemoveInstance(mesh.Handle)         {}

func testFrontier(t *testing.T) *Frontier {
	t.Helper()
	r := block.NewRegistry()
	if _, err := r.AddMaterialOfColor("stone", [4]float64{0.5, 0.5, 0.5, 1}, false); err != nil {
		t.Fatalf("AddMaterialOfColor: %v", err)
	}
	if _, err := r.AddBlock("stone", []string{"stone"}, true); err != nil {
		t.Fatalf("AddBlock: %v", err)
	}
	return New(Config{
		ChunkRadius:    2,
		FrontierRadius: 2,
		Levels:         3,
		Load:           flatLoad(8),
		Mesher:         fakeMesher{},
		Registry:       r,
		TilesPerFrame:  1000,
	})
}

func TestNewBuildsOneLevelPerConfiguredDepth(t *testing.T) {
	f := testFrontier(t)
	if len(f.levels) != 3 {
		t.Fatalf("expected 3 levels, got %d", len(f.levels))
	}
	for i := 1; i < len(f.levels); i++ {
		if f.levels[i].lod != f.levels[i-1].lod*2 {
			t.Fatalf("expected level %d lod to double the previous", i)
		}
	}
}

func TestRecenterIsIdempotentOnSameChunkCoord(t *testing.T) {
	f := testFrontier(t)
	f.Recenter(0, 0)
	c0 := f.levels[0].circle.Center()
	f.Recenter(1, 1) // still maps to the same level-0 tile coordinate
	if f.levels[0].circle.Center() != c0 {
		t.Fatalf("expected level-0 center to stay put for a sub-tile move")
	}
}

func TestRemeshProducesSolidTilesAndClearsDirty(t *testing.T) {
	f := testFrontier(t)
	f.Recenter(0, 0)
	f.Remesh()

	produced := 0
	f.levels[0].circle.Each(func(_ spatial.Coord, tl *tile) bool {
		if tl.hasSolid {
			produced++
		}
		return false
	})
	if produced == 0 {
		t.Fatalf("expected at least one tile to have produced solid geometry")
	}
	if f.levels[0].dirty {
		t.Fatalf("expected level 0 to be clean after a budget-unconstrained remesh")
	}
}

func TestRemeshStaysDirtyWhenBudgetExhausted(t *testing.T) {
	r := block.NewRegistry()
	r.AddMaterialOfColor("stone", [4]float64{0.5, 0.5, 0.5, 1}, false)
	r.AddBlock("stone", []string{"stone"}, true)
	f := New(Config{
		ChunkRadius:    4,
		FrontierRadius: 4,
		Levels:         2,
		Load:           flatLoad(8),
		Mesher:         fakeMesher{},
		Registry:       r,
		TilesPerFrame:  1,
	})
	f.Recenter(0, 0)
	f.Remesh()
	if !f.levels[0].dirty {
		t.Fatalf("expected level 0 to stay dirty when more than 1 tile needed meshing")
	}
}

func TestMarkBaseDirtyOnlyAffectsLevelZero(t *testing.T) {
	f := testFrontier(t)
	for _, lvl := range f.levels {
		lvl.dirty = false
	}
	f.MarkBaseDirty()
	if !f.levels[0].dirty {
		t.Fatalf("expected level 0 to be marked dirty")
	}
	for i := 1; i < len(f.levels); i++ {
		if f.levels[i].dirty {
			t.Fatalf("expected level %d to be untouched by MarkBaseDirty", i)
		}
	}
}

func TestSampleColumnWaterTopTracksLiquidMaterial(t *testing.T) {
	r := block.NewRegistry()
	if _, err := r.AddMaterialOfColor("stone", [4]float64{0.5, 0.5, 0.5, 1}, false); err != nil {
		t.Fatalf("AddMaterialOfColor: %v", err)
	}
	if _, err := r.AddMaterialOfColor("water", [4]float64{0, 0, 1, 0.5}, true); err != nil {
		t.Fatalf("AddMaterialOfColor: %v", err)
	}
	stone, _ := r.AddBlock("stone", []string{"stone"}, true)
	water, _ := r.AddBlock("water", []string{"water"}, false)

	col := voxel.NewColumn()
	col.BeginChunk()
	col.Push(stone, 4)
	col.Push(water, 6)

	solidTop, waterTop := sampleColumn(r, col)
	if solidTop != 4 {
		t.Fatalf("expected solidTop 4, got %d", solidTop)
	}
	if waterTop != 6 {
		t.Fatalf("expected waterTop 6 for a liquid-tagged material above the solid run, got %d", waterTop)
	}
}

func TestSampleColumnMeshBlockIsNeverWater(t *testing.T) {
	r := block.NewRegistry()
	if _, err := r.AddMaterialOfColor("stone", [4]float64{0.5, 0.5, 0.5, 1}, false); err != nil {
		t.Fatalf("AddMaterialOfColor: %v", err)
	}
	stone, _ := r.AddBlock("stone", []string{"stone"}, true)
	tuft, err := r.AddBlockMesh("grass_tuft", block.InstancedMeshRef{Handle: fakeInstancedMesh{}}, false)
	if err != nil {
		t.Fatalf("AddBlockMesh: %v", err)
	}

	col := voxel.NewColumn()
	col.BeginChunk()
	col.Push(stone, 4)
	col.Push(tuft, 5)

	_, waterTop := sampleColumn(r, col)
	if waterTop != 0 {
		t.Fatalf("expected a non-solid mesh block to never be classified as water, got waterTop %d", waterTop)
	}
}

func TestUpdateParentMaskSetsBitOnFirstMesh(t *testing.T) {
	f := testFrontier(t)
	f.Recenter(0, 0)
	f.Remesh()

	child, ok := f.levels[0].circle.Get(2, 0)
	if !ok || !child.hasSolid {
		t.Fatalf("expected level-0 tile (2,0) to exist and have a mesh")
	}
	parent, ok := f.levels[1].circle.Get(1, 0)
	if !ok || parent.pack == nil {
		t.Fatalf("expected level-1 tile (1,0) to exist and be packed")
	}
	bit := uint8(1) << uint8(packSlot(spatial.Coord{X: 2, Z: 0}))
	if parent.mask&bit == 0 {
		t.Fatalf("expected parent mask bit for child (2,0) to be set, got mask %#x", parent.mask)
	}
}

func TestTileEvictionClearsParentMaskBit(t *testing.T) {
	f := testFrontier(t)
	f.Recenter(0, 0)
	f.Remesh()

	parent, ok := f.levels[1].circle.Get(1, 0)
	if !ok || parent.pack == nil {
		t.Fatalf("expected level-1 tile (1,0) to exist and be packed")
	}
	bit := uint8(1) << uint8(packSlot(spatial.Coord{X: 2, Z: 0}))
	if parent.mask&bit == 0 {
		t.Fatalf("expected parent mask bit to be set before eviction, got mask %#x", parent.mask)
	}

	// Recenter far enough that level 0's radius-2 disk evicts tile (2,0),
	// while level 1's radius-1 disk still retains its parent (1,0).
	f.Recenter(10, 0)

	if _, ok := f.levels[0].circle.Get(2, 0); ok {
		t.Fatalf("expected tile (2,0) to have been evicted")
	}
	if _, ok := f.levels[1].circle.Get(1, 0); !ok {
		t.Fatalf("expected parent tile (1,0) to still be live")
	}
	if parent.mask&bit != 0 {
		t.Fatalf("expected evicted child's parent mask bit to be cleared, got mask %#x", parent.mask)
	}
}

func TestPackSlotCoversAllFourQuadrants(t *testing.T) {
	seen := map[int]bool{}
	for _, pos := range []spatial.Coord{{X: 0, Z: 0}, {X: 0, Z: 1}, {X: 1, Z: 0}, {X: 1, Z: 1}} {
		seen[packSlot(pos)] = true
	}
	if len(seen) != 4 {
		t.Fatalf("expected 4 distinct pack slots, got %d", len(seen))
	}
}
