package voxel

// Loader fills Column for the world-space column (ax,az). The same
// signature serves both base chunks and frontier tiles; a Loader must
// only call col.Push and col.Overwrite, and must not assume any state
// carries across calls.
type Loader func(ax, az int32, col *Column)
