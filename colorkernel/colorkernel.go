/*
DESCRIPTION
  colorkernel.go implements the sRGB <-> linear-light and linear-RGB <->
  HSP (Hue, Saturation, Perceived brightness) conversions used throughout
  the CGA rendering pipeline, plus the color distance and clamp/lerp
  helpers built on top of them.

  The HSP forward and inverse transforms are Darel Rex Finley's public
  domain formulation (see alienryderflex.com/hsp.html), reproduced here
  with the luma weights Pr=.299, Pg=.587, Pb=.114.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package colorkernel provides the sRGB/linear-light/HSP color conversions,
// Euclidean distance and clamp/lerp primitives shared by the palette,
// dither and pass-library packages.
package colorkernel

import "math"

// Luma weights used by the HSP perceived-brightness transform.
const (
	Pr = 0.299
	Pg = 0.587
	Pb = 0.114
)

// RGB is a 3-channel color, interpreted as sRGB or linear-light depending
// on context.
type RGB [3]float64

// ToLinear converts a single sRGB channel value to linear light using the
// IEC 61966-2-1 piecewise curve.
func ToLinear(c float64) float64 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

// ToSRGB is the inverse of ToLinear.
func ToSRGB(c float64) float64 {
	if c <= 0.0031308 {
		return c * 12.92
	}
	return 1.055*math.Pow(c, 1/2.4) - 0.055
}

// LinearOf converts an sRGB triple to linear light.
func LinearOf(c RGB) RGB {
	return RGB{ToLinear(c[0]), ToLinear(c[1]), ToLinear(c[2])}
}

// SRGBOf converts a linear-light triple to sRGB.
func SRGBOf(c RGB) RGB {
	return RGB{ToSRGB(c[0]), ToSRGB(c[1]), ToSRGB(c[2])}
}

// Distance is the Euclidean distance between two linear-light colors.
func Distance(a, b RGB) float64 {
	dr, dg, db := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// Clamp clamps each channel of c to [0,1].
func Clamp(c RGB) RGB {
	return RGB{clamp1(c[0]), clamp1(c[1]), clamp1(c[2])}
}

func clamp1(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Lerp linearly interpolates between a and b by t in [0,1].
func Lerp(a, b RGB, t float64) RGB {
	return RGB{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
	}
}

// Add returns the per-channel sum of a and b.
func Add(a, b RGB) RGB {
	return RGB{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// Sub returns the per-channel difference a-b.
func Sub(a, b RGB) RGB {
	return RGB{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// HSP is a Hue/Saturation/Perceived-brightness triple; H is normalized to
// [0,1), S and P to [0,1] (P may exceed 1 for very bright linear inputs).
type HSP [3]float64

// RGBToHSP converts a linear-light RGB triple to HSP, reproducing the six
// sector cases of Finley's reference implementation.
func RGBToHSP(c RGB) HSP {
	r, g, b := c[0], c[1], c[2]
	p := math.Sqrt(r*r*Pr + g*g*Pg + b*b*Pb)

	if r == g && r == b {
		return HSP{0, 0, p}
	}

	var h, s float64
	switch {
	case r >= g && r >= b: // R is largest.
		if b >= g {
			h = 6.0/6.0 - 1.0/6.0*(b-g)/(r-g)
			s = 1 - g/r
		} else {
			h = 0.0/6.0 + 1.0/6.0*(g-b)/(r-b)
			s = 1 - b/r
		}
	case g >= r && g >= b: // G is largest.
		if r >= b {
			h = 2.0/6.0 - 1.0/6.0*(r-b)/(g-b)
			s = 1 - b/g
		} else {
			h = 2.0/6.0 + 1.0/6.0*(b-r)/(g-r)
			s = 1 - r/g
		}
	default: // B is largest.
		if g >= r {
			h = 4.0/6.0 - 1.0/6.0*(g-r)/(b-r)
			s = 1 - r/b
		} else {
			h = 4.0/6.0 + 1.0/6.0*(r-g)/(b-g)
			s = 1 - g/b
		}
	}

	return HSP{h, s, p}
}

// HSPToRGB is the inverse of RGBToHSP. Extreme HSP inputs (P close to 1
// with S also close to 1) may yield RGB components greater than 1; callers
// must clamp.
func HSPToRGB(c HSP) RGB {
	h, s, p := c[0], c[1], c[2]
	minOverMax := 1 - s

	if minOverMax > 0 {
		var part, r, g, b float64
		switch {
		case h < 1.0/6.0: // R>G>B
			hh := 6 * (h - 0.0/6.0)
			part = 1 + hh*(1/minOverMax-1)
			b = p / math.Sqrt(Pr/minOverMax/minOverMax+Pg*part*part+Pb)
			r = b / minOverMax
			g = b + hh*(r-b)
		case h < 2.0/6.0: // G>R>B
			hh := 6 * (-h + 2.0/6.0)
			part = 1 + hh*(1/minOverMax-1)
			b = p / math.Sqrt(Pg/minOverMax/minOverMax+Pr*part*part+Pb)
			g = b / minOverMax
			r = b + hh*(g-b)
		case h < 3.0/6.0: // G>B>R
			hh := 6 * (h - 2.0/6.0)
			part = 1 + hh*(1/minOverMax-1)
			r = p / math.Sqrt(Pg/minOverMax/minOverMax+Pb*part*part+Pr)
			g = r / minOverMax
			b = r + hh*(g-r)
		case h < 4.0/6.0: // B>G>R
			hh := 6 * (-h + 4.0/6.0)
			part = 1 + hh*(1/minOverMax-1)
			r = p / math.Sqrt(Pb/minOverMax/minOverMax+Pg*part*part+Pr)
			b = r / minOverMax
			g = r + hh*(b-r)
		case h < 5.0/6.0: // B>R>G
			hh := 6 * (h - 4.0/6.0)
			part = 1 + hh*(1/minOverMax-1)
			g = p / math.Sqrt(Pb/minOverMax/minOverMax+Pr*part*part+Pg)
			b = g / minOverMax
			r = g + hh*(b-g)
		default: // R>B>G
			hh := 6 * (-h + 6.0/6.0)
			part = 1 + hh*(1/minOverMax-1)
			g = p / math.Sqrt(Pr/minOverMax/minOverMax+Pb*part*part+Pg)
			r = g / minOverMax
			b = g + hh*(r-g)
		}
		return RGB{r, g, b}
	}

	// S == 1 limit: one channel is exactly zero.
	var r, g, b float64
	switch {
	case h < 1.0/6.0: // R>G>B
		hh := 6 * (h - 0.0/6.0)
		r = math.Sqrt(p * p / (Pr + Pg*hh*hh))
		g = r * hh
	case h < 2.0/6.0: // G>R>B
		hh := 6 * (-h + 2.0/6.0)
		g = math.Sqrt(p * p / (Pg + Pr*hh*hh))
		r = g * hh
	case h < 3.0/6.0: // G>B>R
		hh := 6 * (h - 2.0/6.0)
		g = math.Sqrt(p * p / (Pg + Pb*hh*hh))
		b = g * hh
	case h < 4.0/6.0: // B>G>R
		hh := 6 * (-h + 4.0/6.0)
		b = math.Sqrt(p * p / (Pb + Pg*hh*hh))
		g = b * hh
	case h < 5.0/6.0: // B>R>G
		hh := 6 * (h - 4.0/6.0)
		b = math.Sqrt(p * p / (Pb + Pr*hh*hh))
		r = b * hh
	default: // R>B>G
		hh := 6 * (-h + 6.0/6.0)
		r = math.Sqrt(p * p / (Pr + Pb*hh*hh))
		b = r * hh
	}
	return RGB{r, g, b}
}

// Smootherstep is Ken Perlin's quintic smoothing polynomial on x clamped
// to the [edge0,edge1] interval, rescaled to [0,1] first.
func Smootherstep(edge0, edge1, x float64) float64 {
	t := clamp1((x - edge0) / (edge1 - edge0))
	return t * t * t * (t*(t*6-15) + 10)
}
