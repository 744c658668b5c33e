package sampler

import (
	"math"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/stickerforge/printmaker"
	"gonum.org/v1/gonum/spatial/r3"
)

// Seed mixing constants. Each (primitive, triangle) pair gets its own
// random stream so results do not depend on worker scheduling.
const (
	seedMeshMix = 0x9E3779B97F4A7C15
	seedTriMix  = 0x2545F4914F6CDD1D
)

func triangleSeed(mesh, tri int) int64 {
	return int64(uint64(mesh+1)*seedMeshMix ^ uint64(tri)*seedTriMix)
}

// job addresses one triangle of one primitive plus its output slot.
type job struct {
	prim *primitive
	tri  int
	out  int
}

// bake converts the extracted primitives into colored world-space triangles.
// The output order is (Mesh, Tri) ascending regardless of Concurrency.
func (a *analysis) bake(opts Options) []printmaker.ColoredTriangle {
	var jobs []job
	for _, p := range a.prims {
		for t := 0; t < len(p.idx)/3; t++ {
			jobs = append(jobs, job{prim: p, tri: t, out: len(jobs)})
		}
	}
	out := make([]printmaker.ColoredTriangle, len(jobs))
	if len(jobs) == 0 {
		return out
	}

	var done atomic.Int64
	run := func(j job) {
		out[j.out] = bakeTriangle(j.prim, j.tri, opts.SamplesPerTriangle)
		if opts.Progress != nil {
			opts.Progress(int(done.Add(1)), len(jobs))
		}
	}

	if opts.Concurrency < 2 {
		for _, j := range jobs {
			run(j)
		}
		return out
	}
	var wg sync.WaitGroup
	chunk := (len(jobs) + opts.Concurrency - 1) / opts.Concurrency
	for lo := 0; lo < len(jobs); lo += chunk {
		hi := lo + chunk
		if hi > len(jobs) {
			hi = len(jobs)
		}
		wg.Add(1)
		go func(batch []job) {
			defer wg.Done()
			for _, j := range batch {
				run(j)
			}
		}(jobs[lo:hi])
	}
	wg.Wait()
	return out
}

// bakeTriangle averages the triangle's diffuse color in linear light and
// returns the result sRGB-encoded alongside the world-space vertices.
func bakeTriangle(p *primitive, tri, samples int) printmaker.ColoredTriangle {
	i0, i1, i2 := p.idx[3*tri], p.idx[3*tri+1], p.idx[3*tri+2]
	out := printmaker.ColoredTriangle{
		Mesh: p.mesh,
		Tri:  tri,
		A:    p.world.Transform(vec(p.pos[i0])),
		B:    p.world.Transform(vec(p.pos[i1])),
		C:    p.world.Transform(vec(p.pos[i2])),
	}

	factor := printmaker.Color{R: p.factor[0], G: p.factor[1], B: p.factor[2]}.Linear()
	c0, c1, c2 := vertexColor(p, i0), vertexColor(p, i1), vertexColor(p, i2)

	// With neither texture nor UV set the bake reduces to a single centroid
	// sample, making the result independent of the sample count.
	constant := p.tex == nil && p.uv == nil
	if constant {
		samples = 1
	}
	rng := rand.New(rand.NewSource(triangleSeed(p.mesh, tri)))
	var acc printmaker.Color
	for s := 0; s < samples; s++ {
		var su, sv, sw float64
		if constant {
			su, sv, sw = 1./3., 1./3., 1./3.
		} else {
			// Square-root warp yields area-uniform barycentric points.
			u1, u2 := rng.Float64(), rng.Float64()
			r := math.Sqrt(u1)
			su = 1 - r
			sv = r * (1 - u2)
			sw = r * u2
		}
		c := printmaker.White
		if p.tex != nil {
			var u, v float64
			if p.uv != nil {
				u = su*float64(p.uv[i0][0]) + sv*float64(p.uv[i1][0]) + sw*float64(p.uv[i2][0])
				v = su*float64(p.uv[i0][1]) + sv*float64(p.uv[i1][1]) + sw*float64(p.uv[i2][1])
			}
			c = p.tex.sample(u, v)
		}
		vc := c0.Scale(su).Add(c1.Scale(sv)).Add(c2.Scale(sw)).Linear()
		acc = acc.Add(c.Mul(vc).Mul(factor))
	}
	out.Color = acc.Scale(1 / float64(samples)).SRGB()
	return out
}

// vertexColor returns the vertex's COLOR_0 value still sRGB-encoded, or white
// when the primitive carries none. Conversion to linear happens after
// barycentric interpolation.
func vertexColor(p *primitive, i uint32) printmaker.Color {
	if p.col == nil {
		return printmaker.White
	}
	c := p.col[i]
	return printmaker.Color{
		R: float64(c[0]) / 0xffff,
		G: float64(c[1]) / 0xffff,
		B: float64(c[2]) / 0xffff,
	}
}

func vec(v [3]float32) r3.Vec {
	return r3.Vec{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
}
