// Package printmaker converts textured 3D assets into print-ready flat
// artwork. The sampler subpackage bakes one diffuse color per scene triangle
// and the flatten subpackage rasterizes the result as seen from an arbitrary
// orthographic view direction. This package holds the value types shared by
// both stages and their serialized output formats.
package printmaker

import (
	"github.com/stickerforge/printmaker/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// ColoredTriangle is a single world-space triangle with its baked diffuse
// color. It is produced once by the sampler and consumed read-only by the
// flattener; the sampler emits triangles ordered by (Mesh, Tri) ascending.
type ColoredTriangle struct {
	// Mesh identifies the primitive that produced the triangle. It counts
	// primitives in scene traversal order, not scene nodes.
	Mesh int
	// Tri is the triangle's position within its primitive's index list.
	Tri int
	// A, B, C are the vertex positions in world space.
	A, B, C r3.Vec
	// Color is the averaged diffuse color, sRGB-encoded with channels
	// in [0,1].
	Color Color
}

// Normal returns the unit face normal following the (B-A)x(C-A) winding.
// Degenerate triangles return the zero vector.
func (t ColoredTriangle) Normal() r3.Vec {
	n := r3.Cross(r3.Sub(t.B, t.A), r3.Sub(t.C, t.A))
	if r3.Norm2(n) == 0 {
		return r3.Vec{}
	}
	return r3.Unit(n)
}

// Centroid returns the triangle barycenter.
func (t ColoredTriangle) Centroid() r3.Vec {
	return r3.Scale(1./3., r3.Add(r3.Add(t.A, t.B), t.C))
}

// Degenerate returns true if any two vertices coincide within tol.
func (t ColoredTriangle) Degenerate(tol float64) bool {
	return d3.EqualWithin(t.A, t.B, tol) ||
		d3.EqualWithin(t.B, t.C, tol) ||
		d3.EqualWithin(t.C, t.A, tol)
}

// Bounds returns the axis-aligned bounding box of a triangle set.
func Bounds(tris []ColoredTriangle) d3.Box {
	var bb d3.Box
	for i, t := range tris {
		if i == 0 {
			bb = d3.Box{Min: t.A, Max: t.A}
		}
		bb = bb.Include(t.A)
		bb = bb.Include(t.B)
		bb = bb.Include(t.C)
	}
	return bb
}
