package world

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/voxelkit/world/block"
	"github.com/voxelkit/world/world/mesh"
	"github.com/voxelkit/world/world/voxel"
)

type fakeMesh struct {
	disposed bool
	shown    bool
	mask     uint64
	pos      mgl64.Vec3
}

func (m *fakeMesh) SetPosition(pos mgl64.Vec3)  { m.pos = pos }
func (m *fakeMesh) Show(mask uint64, shown bool) { m.mask, m.shown = mask, shown }
func (m *fakeMesh) Dispose()                     { m.disposed = true }

type fakeInstancedMesh struct {
	next int
}

func (f *fakeInstancedMesh) AddInstance(mgl64.Vec3) mesh.Handle {
	f.next++
	return f.next
}
func (f *fakeInstancedMesh) RemoveInstance(mesh.Handle) {}

// fakeMesher always returns a fresh non-nil solid mesh for a chunk with
// any non-empty voxel, nil otherwise, and never produces water.
type fakeMesher struct{}

func (fakeMesher) MeshChunk(in mesh.ChunkInputs) (solid, water mesh.Mesh) {
	for _, v := range in.Buffer {
		if v != uint16(block.Empty) {
			return &fakeMesh{}, nil
		}
	}
	return nil, nil
}

func (fakeMesher) MeshFrontier(strip []uint16, maskIndex, px, pz, nx, nz, lod int, old mesh.Mesh, isSolid bool) mesh.Mesh {
	return old
}

func testRegistry(t *testing.T) (*block.Registry, block.ID) {
	t.Helper()
	r := block.NewRegistry()
	if _, err := r.AddMaterialOfColor("stone", [4]float64{0.5, 0.5, 0.5, 1}, false); err != nil {
		t.Fatalf("AddMaterialOfColor: %v", err)
	}
	id, err := r.AddBlock("stone", []string{"stone"}, true)
	if err != nil {
		t.Fatalf("AddBlock: %v", err)
	}
	return r, id
}

func flatLoader(height int32, stone block.ID) voxel.Loader {
	return func(ax, az int32, col *voxel.Column) {
		col.Push(stone, height)
	}
}

func testWorld(t *testing.T, registry *block.Registry, load voxel.Loader) *World {
	t.Helper()
	conf, err := Config{
		ChunkRadius:    2,
		FrontierRadius: 2,
		FrontierLevels: 1,
		Registry:       registry,
		Mesher:         fakeMesher{},
		LoadChunk:      load,
	}.New()
	if err != nil {
		t.Fatalf("Config.New: %v", err)
	}
	return New(conf)
}

func TestSetBlockIsNoOpWhenUnchanged(t *testing.T) {
	r, stone := testRegistry(t)
	w := testWorld(t, r, flatLoader(4, stone))
	w.loadChunk(0, 0)
	c, _ := w.chunks.Get(0, 0)
	c.dirty = false

	c.SetBlock(3, 2, 3, stone) // already stone
	if c.dirty {
		t.Fatalf("expected no-op SetBlock to leave dirty unset")
	}
}

func TestSetBlockUpdatesHeightmapDownward(t *testing.T) {
	r, stone := testRegistry(t)
	w := testWorld(t, r, flatLoader(4, stone))
	w.loadChunk(0, 0)
	c, _ := w.chunks.Get(0, 0)

	idx := c.columnIndex(3, 3)
	if c.heightmap[idx] != 4 {
		t.Fatalf("expected initial heightmap 4, got %d", c.heightmap[idx])
	}
	c.SetBlock(3, 3, 3, block.Empty) // remove the top cell
	if c.heightmap[idx] != 3 {
		t.Fatalf("expected heightmap to drop to 3, got %d", c.heightmap[idx])
	}
}

func TestSetBlockUpdatesHeightmapUpward(t *testing.T) {
	r, stone := testRegistry(t)
	w := testWorld(t, r, flatLoader(4, stone))
	w.loadChunk(0, 0)
	c, _ := w.chunks.Get(0, 0)

	idx := c.columnIndex(3, 3)
	c.SetBlock(3, 10, 3, stone)
	if c.heightmap[idx] != 11 {
		t.Fatalf("expected heightmap to rise to 11, got %d", c.heightmap[idx])
	}
}

func TestSetBlockMarksEdgeNeighborDirty(t *testing.T) {
	r, stone := testRegistry(t)
	w := testWorld(t, r, flatLoader(4, stone))
	w.loadChunk(0, 0)
	w.loadChunk(1, 0)
	east, _ := w.chunks.Get(1, 0)
	east.dirty = false

	self, _ := w.chunks.Get(0, 0)
	self.SetBlock(voxel.ChunkWidth-1, 1, 3, block.Empty)
	if !east.dirty {
		t.Fatalf("expected east neighbor to be marked dirty by an edge write")
	}
}

func TestNeedsRemeshRequiresAllFourNeighbors(t *testing.T) {
	r, stone := testRegistry(t)
	w := testWorld(t, r, flatLoader(4, stone))
	w.loadChunk(0, 0)
	c, _ := w.chunks.Get(0, 0)
	if c.needsRemesh() {
		t.Fatalf("a chunk with no loaded neighbors must not be ready")
	}
	w.loadChunk(1, 0)
	w.loadChunk(-1, 0)
	w.loadChunk(0, 1)
	w.loadChunk(0, -1)
	if !c.needsRemesh() {
		t.Fatalf("expected chunk to be ready once all 4 neighbors are loaded")
	}
}

func TestDisposeDecrementsNeighborCount(t *testing.T) {
	r, stone := testRegistry(t)
	w := testWorld(t, r, flatLoader(4, stone))
	w.loadChunk(0, 0)
	w.loadChunk(1, 0)
	east, _ := w.chunks.Get(1, 0)
	if east.neighbors != 1 {
		t.Fatalf("expected east to count 1 neighbor, got %d", east.neighbors)
	}

	self, _ := w.chunks.Get(0, 0)
	self.Dispose()
	if east.neighbors != 0 {
		t.Fatalf("expected east's neighbor count to drop to 0 after dispose, got %d", east.neighbors)
	}
}

func TestRemeshInstancesReservesSlotsForMeshBlocks(t *testing.T) {
	r := block.NewRegistry()
	inst := &fakeInstancedMesh{}
	tuftID, err := r.AddBlockMesh("tuft", block.InstancedMeshRef{Handle: inst}, false)
	if err != nil {
		t.Fatalf("AddBlockMesh: %v", err)
	}
	w := testWorld(t, r, func(ax, az int32, col *voxel.Column) {
		col.Overwrite(tuftID, 0)
		col.Push(block.Empty, voxel.WorldHeight)
	})
	w.loadChunk(0, 0)
	c, _ := w.chunks.Get(0, 0)
	c.remeshInstances()
	if len(c.instances) != voxel.ChunkWidth*voxel.ChunkWidth {
		t.Fatalf("expected one instance per column, got %d", len(c.instances))
	}
}
