package printmaker

import (
	"bytes"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func testTriangles() []ColoredTriangle {
	return []ColoredTriangle{
		{
			Mesh: 0, Tri: 0,
			A:     r3.Vec{X: 0, Y: 0, Z: 0},
			B:     r3.Vec{X: 1, Y: 0, Z: 0},
			C:     r3.Vec{X: 0, Y: 1, Z: 0},
			Color: Color{1, 0, 0},
		},
		{
			Mesh: 0, Tri: 1,
			A:     r3.Vec{X: 1.25, Y: -3, Z: 0.5},
			B:     r3.Vec{X: 0, Y: 2, Z: 1e-9},
			C:     r3.Vec{X: -7, Y: 0.125, Z: 4},
			Color: Color{0.25, 0.5, 0.75},
		},
		{
			Mesh: 2, Tri: 0,
			A:     r3.Vec{X: 10, Y: 10, Z: 10},
			B:     r3.Vec{X: 11, Y: 10, Z: 10},
			C:     r3.Vec{X: 10, Y: 11, Z: 10},
			Color: Color{0, 0, 0},
		},
	}
}

func TestTableRoundTrip(t *testing.T) {
	tris := testTriangles()
	var buf bytes.Buffer
	if err := WriteTable(&buf, tris); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := readTable(&buf)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(got) != len(tris) {
		t.Fatalf("read %d triangles, wrote %d", len(got), len(tris))
	}
	for i := range tris {
		if got[i] != tris[i] {
			t.Errorf("triangle %d: got %+v, want %+v", i, got[i], tris[i])
		}
	}
}

func TestTableHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, testTriangles()[:1]); err != nil {
		t.Fatalf("write: %v", err)
	}
	first, _, ok := strings.Cut(buf.String(), "\n")
	if !ok {
		t.Fatal("table has no header line")
	}
	const want = "meshIndex,triIndex,ax,ay,az,bx,by,bz,cx,cy,cz,r,g,b"
	if first != want {
		t.Errorf("header = %q, want %q", first, want)
	}
}

func TestTableEmptyInput(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, nil); err == nil {
		t.Error("expected error for empty triangle slice")
	}
}

func TestTableRejectsForeignHeader(t *testing.T) {
	in := strings.NewReader("a,b,c\n1,2,3\n")
	if _, err := readTable(in); err == nil {
		t.Error("expected error for wrong header")
	}
}
