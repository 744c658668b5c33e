// Package flatten renders a baked triangle sequence as a flat orthographic
// raster seen from an arbitrary view direction. Occlusion uses a painter's
// algorithm over per-triangle depths, so the output is a solid-color decal
// rather than a shaded render.
package flatten

import (
	"errors"
	"image/color"
	"math"
	"sort"

	"github.com/stickerforge/printmaker"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrNoTriangles is returned when the input sequence is empty.
	ErrNoTriangles = errors.New("flatten: no triangles to render")
	// ErrNoFrontFacing is returned when back-face culling drops every
	// triangle. The caller should pick a different view direction.
	ErrNoFrontFacing = errors.New("flatten: no front-facing triangles for view direction")
)

// Options configures one render.
type Options struct {
	// View is the direction the camera looks along. It need not be
	// normalized but must be nonzero.
	View r3.Vec
	// Width and Height are the output canvas dimensions in pixels.
	Width, Height int
	// Padding is the margin in pixels kept clear on every canvas edge.
	Padding float64
	// Background fills the canvas before any triangle is painted. Nil
	// leaves the canvas fully transparent.
	Background color.Color
	// Supersample renders at an integer multiple of the canvas size and
	// downsamples bilinearly. Values below 2 render at native resolution.
	Supersample int
}

// projected is one front-facing triangle in 2D paint space.
type projected struct {
	a, b, c r2.Vec
	depth   float64
	fill    color.NRGBA
}

// basis derives the deterministic right/up projection axes for a normalized
// view direction. The up hint switches to world X near vertical views to keep
// the cross product well conditioned.
func basis(v r3.Vec) (right, up r3.Vec) {
	hint := r3.Vec{Y: 1}
	if math.Abs(v.Y) > 0.99 {
		hint = r3.Vec{X: 1}
	}
	right = r3.Unit(r3.Cross(v, hint))
	up = r3.Unit(r3.Cross(right, v))
	return right, up
}

// cullProject drops back-facing triangles and projects the survivors onto
// the view plane. Depth is the centroid's distance along the view direction
// and orders painting only.
func cullProject(tris []printmaker.ColoredTriangle, v r3.Vec) []projected {
	right, up := basis(v)
	out := make([]projected, 0, len(tris))
	for _, t := range tris {
		n := t.Normal()
		if r3.Dot(n, v) >= 0 {
			// Back-facing or degenerate. Dropped entirely, including
			// from the fitting bounds.
			continue
		}
		out = append(out, projected{
			a:     project(t.A, right, up),
			b:     project(t.B, right, up),
			c:     project(t.C, right, up),
			depth: r3.Dot(t.Centroid(), v),
			fill:  t.Color.NRGBA(),
		})
	}
	return out
}

func project(p, right, up r3.Vec) r2.Vec {
	return r2.Vec{X: r3.Dot(p, right), Y: r3.Dot(p, up)}
}

// spanEpsilon floors degenerate projected extents so a single-point or
// axis-aligned-edge projection still maps to finite pixel coordinates.
const spanEpsilon = 1e-6

// fit maps projected coordinates to pixel space: uniform scale chosen so the
// content fits inside the padded canvas on both axes, with the Y axis flipped
// for a top-left image origin.
func fit(tris []projected, width, height int, padding float64) func(r2.Vec) r2.Vec {
	min := tris[0].a
	max := tris[0].a
	for _, t := range tris {
		for _, p := range [3]r2.Vec{t.a, t.b, t.c} {
			min = r2.Vec{X: math.Min(min.X, p.X), Y: math.Min(min.Y, p.Y)}
			max = r2.Vec{X: math.Max(max.X, p.X), Y: math.Max(max.Y, p.Y)}
		}
	}
	spanX := math.Max(max.X-min.X, spanEpsilon)
	spanY := math.Max(max.Y-min.Y, spanEpsilon)
	scale := math.Min(
		(float64(width)-2*padding)/spanX,
		(float64(height)-2*padding)/spanY,
	)
	return func(p r2.Vec) r2.Vec {
		return r2.Vec{
			X: (p.X-min.X)*scale + padding,
			Y: float64(height) - ((p.Y-min.Y)*scale + padding),
		}
	}
}

// sortByDepth orders triangles farthest first. The sort is stable so depth
// ties keep their traversal order.
func sortByDepth(tris []projected) {
	sort.SliceStable(tris, func(i, j int) bool {
		return tris[i].depth > tris[j].depth
	})
}
