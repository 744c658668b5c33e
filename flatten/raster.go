package flatten

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/fogleman/fauxgl"
	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/nfnt/resize"
	"github.com/stickerforge/printmaker"
	"gonum.org/v1/gonum/spatial/r3"
)

// Render projects, sorts and paints the triangle sequence and returns the
// finished canvas. It fails with ErrNoTriangles on an empty sequence and
// ErrNoFrontFacing when culling removes everything.
func Render(tris []printmaker.ColoredTriangle, opts Options) (*image.RGBA, error) {
	if len(tris) == 0 {
		return nil, ErrNoTriangles
	}
	if opts.View == (r3.Vec{}) {
		return nil, errors.New("flatten: view direction must be nonzero")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("flatten: invalid canvas %dx%d", opts.Width, opts.Height)
	}
	if opts.Padding < 0 || 2*opts.Padding >= float64(opts.Width) || 2*opts.Padding >= float64(opts.Height) {
		return nil, fmt.Errorf("flatten: padding %g leaves no content area on a %dx%d canvas",
			opts.Padding, opts.Width, opts.Height)
	}
	view := r3.Unit(opts.View)
	proj := cullProject(tris, view)
	if len(proj) == 0 {
		return nil, ErrNoFrontFacing
	}
	sortByDepth(proj)
	printmaker.Logger().Debug("flattening",
		"triangles", len(tris), "painted", len(proj), "view", view)

	ss := opts.Supersample
	if ss < 2 {
		return paint(proj, opts.Width, opts.Height, opts.Padding, opts), nil
	}
	big := paint(proj, opts.Width*ss, opts.Height*ss, opts.Padding*float64(ss), opts)
	small := resize.Resize(uint(opts.Width), uint(opts.Height), big, resize.Bilinear)
	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(img, img.Bounds(), small, image.Point{}, draw.Src)
	return img, nil
}

// paint fills sorted triangles onto a fresh canvas, nearest last so the
// painter's ordering resolves occlusion.
func paint(proj []projected, width, height int, padding float64, opts Options) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if opts.Background != nil {
		draw.Draw(img, img.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)
	}
	toPixel := fit(proj, width, height, padding)
	gc := draw2dimg.NewGraphicContext(img)
	for _, t := range proj {
		a, b, c := toPixel(t.a), toPixel(t.b), toPixel(t.c)
		gc.SetFillColor(t.fill)
		gc.BeginPath()
		gc.MoveTo(a.X, a.Y)
		gc.LineTo(b.X, b.Y)
		gc.LineTo(c.X, c.Y)
		gc.Close()
		gc.Fill()
	}
	return img
}

// CreatePNG renders the sequence and writes the canvas to path as PNG.
func CreatePNG(path string, tris []printmaker.ColoredTriangle, opts Options) error {
	img, err := Render(tris, opts)
	if err != nil {
		return err
	}
	return fauxgl.SavePNG(path, img)
}
