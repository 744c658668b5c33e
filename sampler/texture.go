package sampler

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	// Base-color textures in the wild are PNG or JPEG.
	_ "image/jpeg"
	_ "image/png"

	"github.com/chewxy/math32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stickerforge/printmaker"
)

// texture is a decoded base-color image with texels pre-converted to
// linear light so per-sample lookups avoid the transfer curve.
type texture struct {
	w, h   int
	texels []printmaker.Color
}

// sample returns the linear-light texel nearest to (u,v). Coordinates
// outside [0,1) wrap, matching the glTF REPEAT default.
func (t *texture) sample(u, v float64) printmaker.Color {
	u -= math.Floor(u)
	v -= math.Floor(v)
	x := clampIndex(int(math.Floor(u*float64(t.w))), t.w)
	y := clampIndex(int(math.Floor(v*float64(t.h))), t.h)
	return t.texels[y*t.w+x]
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// textureCache decodes each referenced texture at most once per analysis
// call. It is not safe for concurrent use; all lookups happen during the
// single-goroutine traversal, before baking fans out.
type textureCache struct {
	doc  *gltf.Document
	dir  string
	byID map[int]*texture
}

func newTextureCache(doc *gltf.Document, dir string) *textureCache {
	return &textureCache{doc: doc, dir: dir, byID: make(map[int]*texture)}
}

// release drops all decoded pixel data. Full-resolution textures dominate
// the sampler's footprint, so the cache never outlives one analysis.
func (c *textureCache) release() {
	c.byID = nil
}

func (c *textureCache) texture(idx int) (*texture, error) {
	if t, ok := c.byID[idx]; ok {
		return t, nil
	}
	if idx < 0 || idx >= len(c.doc.Textures) {
		return nil, fmt.Errorf("texture %d out of range", idx)
	}
	src := c.doc.Textures[idx].Source
	if src == nil || int(*src) >= len(c.doc.Images) {
		return nil, fmt.Errorf("texture %d has no image source", idx)
	}
	raw, err := c.imageBytes(c.doc.Images[*src])
	if err != nil {
		return nil, fmt.Errorf("texture %d: %w", idx, err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("texture %d: decode: %w", idx, err)
	}
	t := linearize(img)
	c.byID[idx] = t
	printmaker.Logger().Debug("texture decoded", "index", idx, "width", t.w, "height", t.h)
	return t, nil
}

func (c *textureCache) imageBytes(img *gltf.Image) ([]byte, error) {
	if img.BufferView != nil {
		return modeler.ReadBufferView(c.doc, c.doc.BufferViews[*img.BufferView])
	}
	if img.IsEmbeddedResource() {
		return img.MarshalData()
	}
	if img.URI != "" {
		return os.ReadFile(filepath.Join(c.dir, filepath.FromSlash(img.URI)))
	}
	return nil, fmt.Errorf("image %q has no data source", img.Name)
}

// linearize flattens a decoded image into linear-light RGB texels. Alpha is
// ignored; textures contribute opaque diffuse color only, so texels go
// through the non-premultiplied NRGBA model to keep RGB independent of
// transparency.
func linearize(img image.Image) *texture {
	b := img.Bounds()
	t := &texture{
		w:      b.Dx(),
		h:      b.Dy(),
		texels: make([]printmaker.Color, b.Dx()*b.Dy()),
	}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			t.texels[i] = printmaker.Color{
				R: srgb8ToLinear(float32(c.R) / 0xff),
				G: srgb8ToLinear(float32(c.G) / 0xff),
				B: srgb8ToLinear(float32(c.B) / 0xff),
			}
			i++
		}
	}
	return t
}

// srgb8ToLinear is the float32 fast path of printmaker.SRGBToLinear, enough
// precision for 8-bit texel sources.
func srgb8ToLinear(c float32) float64 {
	if c <= 0.04045 {
		return float64(c / 12.92)
	}
	return float64(math32.Pow((c+0.055)/1.055, 2.4))
}
