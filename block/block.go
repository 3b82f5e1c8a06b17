package block

import "github.com/voxelkit/world/world/mesh"

// ID identifies a registered block. ID 0 is always Empty and ID 1 is always
// Unknown; both are reserved by the Registry and never reassigned.
type ID uint16

const (
	// Empty is air: not solid, not opaque, no faces.
	Empty ID = 0
	// Unknown is the sentinel returned for cells in not-yet-loaded chunks.
	Unknown ID = 1
)

// Face indexes the six cube faces in the fixed order the mesher expects:
// +X, -X, +Y, -Y, +Z, -Z.
type Face int

const (
	PosX Face = iota
	NegX
	PosY
	NegY
	PosZ
	NegZ
)

const numFaces = 6

// Data is the per-block record consulted by the mesher and by picking and
// overlay logic. It is a tagged variant: a block is either face-based (its
// Faces array drives cube-face meshing) or mesh-based (Mesh names an
// instanced sprite and Faces is entirely NoMaterial).
type Data struct {
	// Opaque reports whether this block fully occludes its neighbors for
	// face-culling purposes.
	Opaque bool
	// Solid reports whether this block blocks light and collision.
	Solid bool
	// Light is the light level this block itself emits, 0 for non-emissive
	// blocks. It is a source for World.IsBlockLit alongside the top-solid
	// height cutoff.
	Light int8
	// Faces holds the MaterialID for each of the six faces, or NoMaterial.
	Faces [numFaces]MaterialID
	// Mesh is the instanced-sprite handle for a mesh-based block, or the
	// zero value for a face-based block.
	Mesh InstancedMeshRef
}

// InstancedMeshRef names the renderer-owned instanced mesh (e.g. a grass
// tuft) a mesh-based block reserves slots in.
type InstancedMeshRef struct {
	Handle mesh.InstancedMesh
}

// IsMesh reports whether d describes an instanced-mesh block rather than a
// face-based one.
func (d Data) IsMesh() bool {
	return d.Mesh.Handle != nil
}
