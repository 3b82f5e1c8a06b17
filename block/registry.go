package block

import (
	"fmt"

	"github.com/voxelkit/world/internal/names"
	"golang.org/x/text/cases"
)

// ConfigError reports a problem discovered while building a Registry: an
// unknown material name, a duplicate name, an unexpected face-count
// shorthand, or an empty name. ConfigErrors are fatal at registry build
// time and never occur during steady-state operation.
type ConfigError struct {
	Op  string
	Err error
}

func (e *ConfigError) Error() string { return fmt.Sprintf("block registry: %s: %v", e.Op, e.Err) }
func (e *ConfigError) Unwrap() error { return e.Err }

func configErr(op string, format string, args ...any) error {
	return &ConfigError{Op: op, Err: fmt.Errorf(format, args...)}
}

var foldCaser = cases.Fold()

func normalizeName(name string) string {
	return foldCaser.String(name)
}

// Registry is the flat block/material table consulted by the mesher and by
// picking and overlay logic. Block 0 (Empty) and block 1 (Unknown) are
// reserved and registered automatically by NewRegistry.
type Registry struct {
	blocks    []Data
	materials []Material

	blockNames    *names.Table
	materialNames *names.Table
}

// NewRegistry returns a Registry with Empty and Unknown already registered.
func NewRegistry() *Registry {
	r := &Registry{
		blockNames:    names.NewTable(),
		materialNames: names.NewTable(),
	}
	r.blocks = append(r.blocks, Data{}, Data{})
	r.blockNames.Intern("empty")
	r.blockNames.Intern("unknown")
	return r
}

// AddMaterialOfColor registers a flat-color Material and returns its id.
func (r *Registry) AddMaterialOfColor(name string, rgba [4]float64, liquid bool) (MaterialID, error) {
	return r.addMaterial(name, Material{Color: rgba, Liquid: liquid})
}

// AddMaterialOfTexture registers a textured Material and returns its id. If
// rgba is the zero value, opaque white is assumed as the texture tint.
func (r *Registry) AddMaterialOfTexture(name string, tex TextureRef, rgba [4]float64, liquid bool) (MaterialID, error) {
	if rgba == [4]float64{} {
		rgba = [4]float64{1, 1, 1, 1}
	}
	return r.addMaterial(name, Material{Color: rgba, Liquid: liquid, Texture: tex})
}

func (r *Registry) addMaterial(name string, m Material) (MaterialID, error) {
	if name == "" {
		return 0, configErr("add material", "material name must not be empty")
	}
	key := normalizeName(name)
	if _, ok := r.materialNames.Lookup(key); ok {
		return 0, configErr("add material", "duplicate material name %q", name)
	}
	m.Name = name
	id := MaterialID(len(r.materials))
	r.materials = append(r.materials, m)
	r.materialNames.Intern(key)
	return id, nil
}

// MaterialByName returns the id of a previously registered material.
func (r *Registry) MaterialByName(name string) (MaterialID, bool) {
	id, ok := r.materialNames.Lookup(normalizeName(name))
	return MaterialID(id), ok
}

// Material returns the Material data for id.
func (r *Registry) Material(id MaterialID) Material {
	return r.materials[id]
}

// AddBlock expands a 1, 2, 3 or 6 entry material-name shorthand to the six
// cube faces and registers a face-based block. The shorthand follows the
// +x,-x,+y,-y,+z,-z ordering:
//
//	1 entry:  all six faces use it
//	2 entries: [0]=top/bottom (+y,-y), [1]=sides (+x,-x,+z,-z)
//	3 entries: [0]=+y, [1]=-y, [2]=sides (+x,-x,+z,-z)
//	6 entries: one per face, in +x,-x,+y,-y,+z,-z order
func (r *Registry) AddBlock(name string, materialNames []string, solid bool) (ID, error) {
	faces, err := r.expandFaces(materialNames)
	if err != nil {
		return 0, err
	}
	opaque := true
	for _, f := range faces {
		if f == NoMaterial {
			opaque = false
			continue
		}
		if !r.materials[f].opaque() {
			opaque = false
		}
	}
	return r.addBlock(name, Data{Opaque: opaque, Solid: solid, Faces: faces})
}

// AddBlockLit is AddBlock for a block that itself emits light, such as a
// lantern or glowstone equivalent.
func (r *Registry) AddBlockLit(name string, materialNames []string, solid bool, light int8) (ID, error) {
	id, err := r.AddBlock(name, materialNames, solid)
	if err != nil {
		return 0, err
	}
	r.blocks[id].Light = light
	return id, nil
}

// AddBlockMesh registers an instanced-sprite block (e.g. grass tufts) with
// no face materials.
func (r *Registry) AddBlockMesh(name string, mesh InstancedMeshRef, solid bool) (ID, error) {
	if mesh.Handle == nil {
		return 0, configErr("add block mesh", "mesh handle must not be nil")
	}
	faces := [numFaces]MaterialID{NoMaterial, NoMaterial, NoMaterial, NoMaterial, NoMaterial, NoMaterial}
	return r.addBlock(name, Data{Solid: solid, Faces: faces, Mesh: mesh})
}

func (r *Registry) addBlock(name string, d Data) (ID, error) {
	if name == "" {
		return 0, configErr("add block", "block name must not be empty")
	}
	key := normalizeName(name)
	if _, ok := r.blockNames.Lookup(key); ok {
		return 0, configErr("add block", "duplicate block name %q", name)
	}
	id := ID(len(r.blocks))
	r.blocks = append(r.blocks, d)
	r.blockNames.Intern(key)
	return id, nil
}

func (r *Registry) expandFaces(materialNames []string) ([numFaces]MaterialID, error) {
	var out [numFaces]MaterialID
	ids := make([]MaterialID, len(materialNames))
	for i, n := range materialNames {
		id, ok := r.MaterialByName(n)
		if !ok {
			return out, configErr("add block", "unknown material %q", n)
		}
		ids[i] = id
	}
	switch len(ids) {
	case 1:
		for i := range out {
			out[i] = ids[0]
		}
	case 2:
		out[PosY], out[NegY] = ids[0], ids[0]
		out[PosX], out[NegX], out[PosZ], out[NegZ] = ids[1], ids[1], ids[1], ids[1]
	case 3:
		out[PosY], out[NegY] = ids[0], ids[1]
		out[PosX], out[NegX], out[PosZ], out[NegZ] = ids[2], ids[2], ids[2], ids[2]
	case 6:
		copy(out[:], ids)
	default:
		return out, configErr("add block", "expected 1, 2, 3 or 6 material names, got %d", len(ids))
	}
	return out, nil
}

// Block returns the Data registered under id.
func (r *Registry) Block(id ID) Data {
	return r.blocks[id]
}

// BlockByName returns the id of a previously registered block.
func (r *Registry) BlockByName(name string) (ID, bool) {
	id, ok := r.blockNames.Lookup(normalizeName(name))
	return ID(id), ok
}

// Len returns the number of registered blocks, including Empty and Unknown.
func (r *Registry) Len() int {
	return len(r.blocks)
}
