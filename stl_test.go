package printmaker

import (
	"bytes"
	"math"
	"testing"

	"github.com/stickerforge/printmaker/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestSTLRoundTrip(t *testing.T) {
	tris := testTriangles()
	var buf bytes.Buffer
	if err := WriteSTL(&buf, tris); err != nil {
		t.Fatalf("write: %v", err)
	}
	wantLen := 84 + 50*len(tris)
	if buf.Len() != wantLen {
		t.Errorf("encoded %d bytes, want %d", buf.Len(), wantLen)
	}
	got, err := readBinarySTL(&buf)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(got) != len(tris) {
		t.Fatalf("read %d triangles, wrote %d", len(got), len(tris))
	}
	// Vertices survive through the float32 encoding.
	const tol = 1e-6
	for i := range tris {
		if !d3.EqualWithin(got[i].A, tris[i].A, tol) ||
			!d3.EqualWithin(got[i].B, tris[i].B, tol) ||
			!d3.EqualWithin(got[i].C, tris[i].C, tol) {
			t.Errorf("triangle %d: got %+v, want %+v", i, got[i], tris[i])
		}
	}
}

func TestSTLEmptyInput(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSTL(&buf, nil); err == nil {
		t.Error("expected error for empty triangle slice")
	}
}

func TestSTLRejectsNonFinite(t *testing.T) {
	tris := testTriangles()[:1]
	tris[0].A.X = math.Inf(1)
	var buf bytes.Buffer
	if err := WriteSTL(&buf, tris); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := readBinarySTL(&buf); err == nil {
		t.Error("expected validation error for non-finite vertex")
	}
}

func TestTriangleNormal(t *testing.T) {
	tri := ColoredTriangle{
		B: r3.Vec{X: 1},
		C: r3.Vec{Y: 1},
	}
	if n := tri.Normal(); !d3.EqualWithin(n, r3.Vec{Z: 1}, 1e-12) {
		t.Errorf("Normal() = %+v, want +Z", n)
	}
	degen := ColoredTriangle{A: r3.Vec{X: 1}, B: r3.Vec{X: 1}, C: r3.Vec{Y: 2}}
	if n := degen.Normal(); n != (r3.Vec{}) {
		t.Errorf("degenerate Normal() = %+v, want zero", n)
	}
	if !degen.Degenerate(1e-9) {
		t.Error("Degenerate() = false for coincident vertices")
	}
}

func TestBounds(t *testing.T) {
	bb := Bounds(testTriangles())
	wantMin := r3.Vec{X: -7, Y: -3, Z: 0}
	wantMax := r3.Vec{X: 11, Y: 11, Z: 10}
	if !d3.EqualWithin(bb.Min, wantMin, 1e-12) || !d3.EqualWithin(bb.Max, wantMax, 1e-12) {
		t.Errorf("Bounds = %+v, want min %+v max %+v", bb, wantMin, wantMax)
	}
}
