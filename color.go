package printmaker

import (
	"image/color"
	"math"
)

// Color is an RGB triple with float64 channels. ColoredTriangle stores
// sRGB-encoded values; the sampler works on linear-light values internally
// and converts at the boundaries. Channels are clamped to [0,1] before every
// space conversion.
type Color struct {
	R, G, B float64
}

// White is opaque white, the default for missing vertex colors and
// material factors.
var White = Color{1, 1, 1}

// SRGBToLinear converts one sRGB-encoded channel to linear light using the
// exact IEC 61966-2-1 transfer curve.
func SRGBToLinear(c float64) float64 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

// LinearToSRGB converts one linear-light channel to sRGB encoding.
func LinearToSRGB(c float64) float64 {
	if c <= 0.0031308 {
		return 12.92 * c
	}
	return 1.055*math.Pow(c, 1./2.4) - 0.055
}

// Linear converts an sRGB-encoded color to linear light.
func (c Color) Linear() Color {
	c = c.Clamp()
	return Color{SRGBToLinear(c.R), SRGBToLinear(c.G), SRGBToLinear(c.B)}
}

// SRGB converts a linear-light color to sRGB encoding.
func (c Color) SRGB() Color {
	c = c.Clamp()
	return Color{LinearToSRGB(c.R), LinearToSRGB(c.G), LinearToSRGB(c.B)}
}

// Mul returns the component-wise product of two colors. Only meaningful in
// linear light.
func (c Color) Mul(o Color) Color {
	return Color{c.R * o.R, c.G * o.G, c.B * o.B}
}

// Add returns the component-wise sum of two colors.
func (c Color) Add(o Color) Color {
	return Color{c.R + o.R, c.G + o.G, c.B + o.B}
}

// Scale returns the color with all channels multiplied by k.
func (c Color) Scale(k float64) Color {
	return Color{k * c.R, k * c.G, k * c.B}
}

// Clamp limits all channels to [0,1].
func (c Color) Clamp() Color {
	return Color{clamp01(c.R), clamp01(c.G), clamp01(c.B)}
}

// NRGBA quantizes the color to 8 bits per channel with full opacity,
// clamping each channel to [0,255].
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: quantize(c.R), G: quantize(c.G), B: quantize(c.B), A: 0xff}
}

func quantize(v float64) uint8 {
	q := math.Round(v * 255)
	if q < 0 {
		return 0
	}
	if q > 255 {
		return 255
	}
	return uint8(q)
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
