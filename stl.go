package printmaker

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/spatial/r3"
)

// WriteSTL writes the sampled world-space geometry to w in binary STL format.
// Face normals are recomputed from the vertex winding; the baked colors are
// not representable in STL and are dropped.
func WriteSTL(w io.Writer, tris []ColoredTriangle) error {
	if len(tris) == 0 {
		return errors.New("empty triangle slice")
	}
	header := stlHeader{Count: uint32(len(tris))}
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return err
	}
	var d stlTriangle
	for _, t := range tris {
		n := t.Normal()
		d.Normal = [3]float32{float32(n.X), float32(n.Y), float32(n.Z)}
		d.Vertex1 = [3]float32{float32(t.A.X), float32(t.A.Y), float32(t.A.Z)}
		d.Vertex2 = [3]float32{float32(t.B.X), float32(t.B.Y), float32(t.B.Z)}
		d.Vertex3 = [3]float32{float32(t.C.X), float32(t.C.Y), float32(t.C.Z)}
		if err := binary.Write(w, binary.LittleEndian, &d); err != nil {
			return err
		}
	}
	return nil
}

// CreateSTL writes the triangle geometry to an STL file at path.
func CreateSTL(path string, tris []ColoredTriangle) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteSTL(file, tris)
}

// stlHeader defines the STL file header.
type stlHeader struct {
	_     [80]uint8 // Header
	Count uint32    // Number of triangles
}

// stlTriangle defines the 50 byte triangle record within an STL file.
type stlTriangle struct {
	Normal  [3]float32
	Vertex1 [3]float32
	Vertex2 [3]float32
	Vertex3 [3]float32
	_       uint16 // Attribute byte count
}

// readBinarySTL reads back geometry written by WriteSTL. Used to validate
// outputs in tests.
func readBinarySTL(r io.Reader) ([]ColoredTriangle, error) {
	var header stlHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, errors.New("STL header read failed: " + err.Error())
	}
	if header.Count == 0 {
		return nil, errors.New("STL header indicates 0 triangles present")
	}
	out := make([]ColoredTriangle, 0, header.Count)
	var d stlTriangle
	for i := 0; i < int(header.Count); i++ {
		if err := binary.Read(r, binary.LittleEndian, &d); err != nil {
			return nil, fmt.Errorf("%d/%d STL triangles read: %w", i, header.Count, err)
		}
		if err := d.validate(); err != nil {
			return nil, fmt.Errorf("STL triangle %d: %w", i, err)
		}
		out = append(out, ColoredTriangle{
			Tri: i,
			A:   r3From3F32(d.Vertex1),
			B:   r3From3F32(d.Vertex2),
			C:   r3From3F32(d.Vertex3),
		})
	}
	return out, nil
}

func (t stlTriangle) validate() error {
	if bad3F32(t.Normal) {
		return errors.New("inf/NaN STL triangle normal")
	}
	if bad3F32(t.Vertex1) || bad3F32(t.Vertex2) || bad3F32(t.Vertex3) {
		return errors.New("inf/NaN STL triangle vertex")
	}
	return nil
}

func bad3F32(f [3]float32) bool {
	return math32.IsNaN(f[0]) || math32.IsInf(f[0], 0) ||
		math32.IsNaN(f[1]) || math32.IsInf(f[1], 0) ||
		math32.IsNaN(f[2]) || math32.IsInf(f[2], 0)
}

func r3From3F32(f [3]float32) (v r3.Vec) {
	v.X = float64(f[0])
	v.Y = float64(f[1])
	v.Z = float64(f[2])
	return v
}
