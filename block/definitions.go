package block

import (
	"os"

	"gopkg.in/yaml.v3"
)

// materialDef and blockDef mirror the shape of a block/material definitions
// file. A definitions file lets an application describe its block table
// declaratively instead of calling the Registry builder methods by hand.
type materialDef struct {
	Name    string     `yaml:"name"`
	Color   [4]float64 `yaml:"color"`
	Liquid  bool       `yaml:"liquid"`
	Texture string     `yaml:"texture,omitempty"`
}

type blockDef struct {
	Name     string   `yaml:"name"`
	Solid    bool     `yaml:"solid"`
	Light    int8     `yaml:"light,omitempty"`
	Faces    []string `yaml:"faces"`
	MeshOnly string   `yaml:"mesh,omitempty"`
}

// Definitions is the top-level shape of a YAML block/material definitions
// file loaded by LoadDefinitions.
type Definitions struct {
	Materials []materialDef `yaml:"materials"`
	Blocks    []blockDef    `yaml:"blocks"`
}

// TextureResolver maps a definitions file's texture name to a renderer
// TextureRef. Applications that load block tables declaratively supply one
// so LoadDefinitions can resolve string texture names to GPU handles.
type TextureResolver func(name string) (TextureRef, error)

// LoadDefinitions parses a YAML definitions file and applies it to r. meshes
// resolves a mesh-only block's "mesh" name to an InstancedMeshRef; it may be
// nil if the definitions file registers no mesh-only blocks.
func LoadDefinitions(r *Registry, path string, textures TextureResolver, meshes func(name string) (InstancedMeshRef, error)) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return configErr("load definitions", "read %s: %w", path, err)
	}
	var defs Definitions
	if err := yaml.Unmarshal(raw, &defs); err != nil {
		return configErr("load definitions", "parse %s: %w", path, err)
	}
	for _, m := range defs.Materials {
		if m.Texture == "" {
			if _, err := r.AddMaterialOfColor(m.Name, m.Color, m.Liquid); err != nil {
				return err
			}
			continue
		}
		if textures == nil {
			return configErr("load definitions", "material %q references a texture but no TextureResolver was given", m.Name)
		}
		tex, err := textures(m.Texture)
		if err != nil {
			return configErr("load definitions", "resolve texture %q: %w", m.Texture, err)
		}
		if _, err := r.AddMaterialOfTexture(m.Name, tex, m.Color, m.Liquid); err != nil {
			return err
		}
	}
	for _, b := range defs.Blocks {
		if b.MeshOnly != "" {
			if meshes == nil {
				return configErr("load definitions", "block %q references a mesh but no mesh resolver was given", b.Name)
			}
			mesh, err := meshes(b.MeshOnly)
			if err != nil {
				return configErr("load definitions", "resolve mesh %q: %w", b.MeshOnly, err)
			}
			if _, err := r.AddBlockMesh(b.Name, mesh, b.Solid); err != nil {
				return err
			}
			continue
		}
		if b.Light != 0 {
			if _, err := r.AddBlockLit(b.Name, b.Faces, b.Solid, b.Light); err != nil {
				return err
			}
			continue
		}
		if _, err := r.AddBlock(b.Name, b.Faces, b.Solid); err != nil {
			return err
		}
	}
	return nil
}
