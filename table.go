package printmaker

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// tableHeader is the fixed column layout of the triangle table.
var tableHeader = []string{
	"meshIndex", "triIndex",
	"ax", "ay", "az", "bx", "by", "bz", "cx", "cy", "cz",
	"r", "g", "b",
}

// WriteTable writes triangles as a comma separated table with one header row.
// Column order is meshIndex, triIndex, the three vertices and the sRGB color.
func WriteTable(w io.Writer, tris []ColoredTriangle) error {
	if len(tris) == 0 {
		return errors.New("empty triangle slice")
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(tableHeader); err != nil {
		return err
	}
	rec := make([]string, len(tableHeader))
	for _, t := range tris {
		rec[0] = strconv.Itoa(t.Mesh)
		rec[1] = strconv.Itoa(t.Tri)
		rec[2] = ftoa(t.A.X)
		rec[3] = ftoa(t.A.Y)
		rec[4] = ftoa(t.A.Z)
		rec[5] = ftoa(t.B.X)
		rec[6] = ftoa(t.B.Y)
		rec[7] = ftoa(t.B.Z)
		rec[8] = ftoa(t.C.X)
		rec[9] = ftoa(t.C.Y)
		rec[10] = ftoa(t.C.Z)
		rec[11] = ftoa(t.Color.R)
		rec[12] = ftoa(t.Color.G)
		rec[13] = ftoa(t.Color.B)
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CreateTable writes the triangle table to a file at path.
func CreateTable(path string, tris []ColoredTriangle) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteTable(file, tris)
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// readTable parses a table written by WriteTable. Used to validate outputs.
func readTable(r io.Reader) ([]ColoredTriangle, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(tableHeader)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("table header read failed: %w", err)
	}
	for i, name := range tableHeader {
		if header[i] != name {
			return nil, fmt.Errorf("table header column %d is %q, want %q", i, header[i], name)
		}
	}
	var out []ColoredTriangle
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%d triangles read: %w", len(out), err)
		}
		var t ColoredTriangle
		t.Mesh, err = strconv.Atoi(rec[0])
		if err != nil {
			return nil, err
		}
		t.Tri, err = strconv.Atoi(rec[1])
		if err != nil {
			return nil, err
		}
		f := make([]float64, 12)
		for i := range f {
			f[i], err = strconv.ParseFloat(rec[2+i], 64)
			if err != nil {
				return nil, err
			}
		}
		t.A.X, t.A.Y, t.A.Z = f[0], f[1], f[2]
		t.B.X, t.B.Y, t.B.Z = f[3], f[4], f[5]
		t.C.X, t.C.Y, t.C.Z = f[6], f[7], f[8]
		t.Color = Color{R: f[9], G: f[10], B: f[11]}
		out = append(out, t)
	}
}
