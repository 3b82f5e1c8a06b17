package block

// MaterialID identifies a Material registered with a Registry. NoMaterial is
// a valid MaterialID meaning "emit no face for this slot" — used by blocks
// whose geometry comes from an instanced mesh rather than cube faces.
type MaterialID int32

// NoMaterial is the sentinel MaterialID a Block face may reference to tell
// the mesher to skip emitting a quad for that face entirely.
const NoMaterial MaterialID = -1

// TextureRef is an opaque handle to a GPU texture, owned by the renderer.
// The core never inspects Handle; it only forwards it to the mesher.
type TextureRef struct {
	// Handle is the renderer-defined texture object. Nil means "untextured,
	// use Color only".
	Handle any
	// AlphaTest marks a texture that uses a binary alpha cutout (e.g. leaves)
	// rather than a smooth alpha blend. A textured material with AlphaTest
	// or with a non-opaque blend disables Block.Opaque for any block that
	// references it.
	AlphaTest bool
	// Blend marks a texture that blends translucently (e.g. glass, water).
	Blend bool
	// Layer is the texture array layer this material samples.
	Layer int
}

// Material describes one renderable surface: a base color, an optional
// texture, and whether the surface is a liquid (used by the mesher to route
// geometry to the translucent/water mesh instead of the solid mesh).
type Material struct {
	Name    string
	Color   [4]float64
	Liquid  bool
	Texture TextureRef
}

// opaque reports whether a surface made of this material fully occludes
// whatever is behind it.
func (m Material) opaque() bool {
	if m.Texture.Handle == nil {
		return m.Color[3] >= 1
	}
	return !m.Texture.AlphaTest && !m.Texture.Blend
}
