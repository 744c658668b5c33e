// Package sampler walks a glTF 2.0 scene asset and bakes one averaged
// diffuse color per rendered triangle by Monte-Carlo sampling of
// texture, vertex color and material base-color factor in linear light.
package sampler

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stickerforge/printmaker"
	"github.com/stickerforge/printmaker/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultSamplesPerTriangle is the sample count used when Options leaves
// SamplesPerTriangle unset.
const DefaultSamplesPerTriangle = 16

// Options configures one analysis call.
type Options struct {
	// SamplesPerTriangle is the number of Monte-Carlo samples taken per
	// textured triangle. Defaults to DefaultSamplesPerTriangle. Untextured
	// primitives without UVs always take exactly one sample.
	SamplesPerTriangle int
	// Concurrency is the number of worker goroutines baking triangles.
	// Values below 2 bake sequentially. Output is identical either way
	// because sampling is seeded per triangle.
	Concurrency int
	// Progress, when non-nil, is called after each baked triangle with the
	// running and total counts. It must be safe for concurrent use when
	// Concurrency > 1.
	Progress func(done, total int)
}

// Analyze reads the scene asset at path and returns one ColoredTriangle per
// rendered triangle, ordered by (Mesh, Tri) ascending. An unreadable or
// structurally invalid asset and a primitive without POSITION data are fatal;
// missing UVs, vertex colors, textures and factors degrade to defaults.
func Analyze(path string, opts Options) ([]printmaker.ColoredTriangle, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scene asset %q: %w", path, err)
	}
	return analyzeDocument(doc, filepath.Dir(path), opts)
}

func analyzeDocument(doc *gltf.Document, dir string, opts Options) ([]printmaker.ColoredTriangle, error) {
	if opts.SamplesPerTriangle <= 0 {
		opts.SamplesPerTriangle = DefaultSamplesPerTriangle
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	cache := newTextureCache(doc, dir)
	// Decoded pixel buffers are scoped to this call, success or failure.
	defer cache.release()

	a := &analysis{doc: doc, cache: cache}
	for _, scene := range doc.Scenes {
		a.visited = make(map[int]bool)
		for _, root := range scene.Nodes {
			if err := a.node(int(root), d3.Transform{}); err != nil {
				return nil, err
			}
		}
	}
	tris := a.bake(opts)
	if len(tris) > 0 {
		bb := printmaker.Bounds(tris)
		printmaker.Logger().Debug("scene analyzed",
			"primitives", a.meshCount, "triangles", len(tris),
			"center", bb.Center(), "size", bb.Size())
	}
	return tris, nil
}

// analysis accumulates extracted primitives during traversal. Baking runs
// afterwards over the flat primitive list so it can fan out to workers.
type analysis struct {
	doc       *gltf.Document
	cache     *textureCache
	meshCount int
	prims     []*primitive
	visited   map[int]bool
}

// primitive holds everything needed to bake one glTF primitive's triangles.
type primitive struct {
	mesh   int
	world  d3.Transform
	pos    [][3]float32
	idx    []uint32
	uv     [][2]float32 // nil when the primitive has no usable UV set
	col    [][4]uint16  // nil when the primitive has no COLOR_0
	factor [4]float64   // base-color factor, sRGB-encoded RGBA
	tex    *texture     // nil when the material has no base-color texture
}

func (a *analysis) node(idx int, parent d3.Transform) error {
	if idx < 0 || idx >= len(a.doc.Nodes) {
		return fmt.Errorf("scene references node %d out of range", idx)
	}
	// glTF node hierarchies are disjoint trees; a repeat visit means the
	// asset has a cycle or a multiply-parented node.
	if a.visited[idx] {
		return fmt.Errorf("node %d visited twice, scene graph is not a tree", idx)
	}
	a.visited[idx] = true
	node := a.doc.Nodes[idx]
	world := parent.Mul(localTransform(node))
	if node.Mesh != nil {
		if int(*node.Mesh) >= len(a.doc.Meshes) {
			return fmt.Errorf("node %q references mesh %d out of range", node.Name, *node.Mesh)
		}
		mesh := a.doc.Meshes[*node.Mesh]
		for pi, prim := range mesh.Primitives {
			p, err := a.primitive(prim, world)
			if err != nil {
				return fmt.Errorf("mesh %q primitive %d: %w", mesh.Name, pi, err)
			}
			if p != nil {
				a.prims = append(a.prims, p)
			}
		}
	}
	for _, child := range node.Children {
		if err := a.node(int(child), world); err != nil {
			return err
		}
	}
	return nil
}

var identityMatrix = [16]float32{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// localTransform builds the node's local transform, preferring the explicit
// matrix over TRS. Zero-valued TRS fields take their glTF defaults.
func localTransform(n *gltf.Node) d3.Transform {
	if n.Matrix != identityMatrix && n.Matrix != ([16]float32{}) {
		// glTF matrices are column-major, Transform wants row-major.
		m := n.Matrix
		return d3.NewTransform([]float64{
			float64(m[0]), float64(m[4]), float64(m[8]), float64(m[12]),
			float64(m[1]), float64(m[5]), float64(m[9]), float64(m[13]),
			float64(m[2]), float64(m[6]), float64(m[10]), float64(m[14]),
			float64(m[3]), float64(m[7]), float64(m[11]), float64(m[15]),
		})
	}
	pos := vec(n.Translation)
	scale := vec(n.Scale)
	if scale == (r3.Vec{}) {
		scale = d3.Elem(1)
	}
	// glTF rotation is x,y,z,w.
	rot := r3.Rotation{
		Real: float64(n.Rotation[3]),
		Imag: float64(n.Rotation[0]),
		Jmag: float64(n.Rotation[1]),
		Kmag: float64(n.Rotation[2]),
	}
	if rot == (r3.Rotation{}) {
		rot = r3.Rotation{Real: 1}
	}
	return d3.ComposeTransform(pos, scale, rot)
}

func (a *analysis) primitive(prim *gltf.Primitive, world d3.Transform) (*primitive, error) {
	if prim.Mode != gltf.PrimitiveTriangles {
		printmaker.Logger().Debug("skipping non-triangle primitive", "mode", prim.Mode)
		return nil, nil
	}
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, errors.New("primitive has no POSITION attribute")
	}
	pos, err := modeler.ReadPosition(a.doc, a.doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("read POSITION: %w", err)
	}
	p := &primitive{
		mesh:   a.meshCount,
		world:  world,
		pos:    pos,
		factor: [4]float64{1, 1, 1, 1},
	}
	a.meshCount++

	if prim.Indices != nil {
		p.idx, err = modeler.ReadIndices(a.doc, a.doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
		for _, i := range p.idx {
			if int(i) >= len(pos) {
				return nil, fmt.Errorf("index %d out of range for %d vertices", i, len(pos))
			}
		}
	} else {
		p.idx = make([]uint32, len(pos))
		for i := range p.idx {
			p.idx[i] = uint32(i)
		}
	}

	uvSet := 0
	if prim.Material != nil && int(*prim.Material) < len(a.doc.Materials) {
		mat := a.doc.Materials[*prim.Material]
		if pbr := mat.PBRMetallicRoughness; pbr != nil {
			if pbr.BaseColorFactor != nil {
				f := *pbr.BaseColorFactor
				p.factor = [4]float64{
					float64(f[0]), float64(f[1]), float64(f[2]), float64(f[3]),
				}
			}
			if pbr.BaseColorTexture != nil {
				uvSet = int(pbr.BaseColorTexture.TexCoord)
				p.tex, err = a.cache.texture(int(pbr.BaseColorTexture.Index))
				if err != nil {
					// Degraded: bake continues on factor and vertex color.
					printmaker.Logger().Warn("base-color texture unavailable",
						"material", mat.Name, "err", err)
					p.tex = nil
				}
			}
		}
	}

	if acc, ok := prim.Attributes[texCoordAttr(uvSet)]; ok {
		p.uv, err = modeler.ReadTextureCoord(a.doc, a.doc.Accessors[acc], nil)
		if err != nil || len(p.uv) < len(pos) {
			printmaker.Logger().Warn("unusable UV set, defaulting to origin", "set", uvSet, "err", err)
			p.uv = nil
		}
	}
	if acc, ok := prim.Attributes[gltf.COLOR_0]; ok {
		p.col, err = modeler.ReadColor64(a.doc, a.doc.Accessors[acc], nil)
		if err != nil || len(p.col) < len(pos) {
			printmaker.Logger().Warn("unusable vertex colors, defaulting to white", "err", err)
			p.col = nil
		}
	}
	return p, nil
}

func texCoordAttr(set int) string {
	if set == 0 {
		return gltf.TEXCOORD_0
	}
	return fmt.Sprintf("TEXCOORD_%d", set)
}
