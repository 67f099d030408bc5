/*
DESCRIPTION
  cgapalette.go generates the 16-entry RGBI CGA palette and expands it into
  the 136-entry "combined" palette used when two physical colors are blended
  over time (temporal dithering) or as a spatial dither pair.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package cgapalette generates the 16-color RGBI CGA palette, in both sRGB
// and linear-light form, and its pairwise-combined expansion used by the
// dither packages.
package cgapalette

import "github.com/ausocean/cgacast/colorkernel"

const (
	major = 2.0 / 3.0
	minor = 1.0 / 3.0
)

// Generate returns the 16 standard CGA RGBI colors in sRGB space, indexed by
// the 4-bit intensity/red/green/blue code (bit3=I, bit2=R, bit1=G, bit0=B).
//
// Color 6 (brown, code 0110) halves its green channel relative to the
// general formula; this is the one documented deviation from the uniform
// major/minor scaling and is carried over verbatim from the hardware's
// actual RGBI-to-analog behavior.
func Generate() [16]colorkernel.RGB {
	var p [16]colorkernel.RGB
	for c := 0; c < 16; c++ {
		p[c] = colorkernel.RGB{
			major*float64((c&4)>>2) + minor*float64((c&8)>>3),
			major*float64((c&2)>>1) + minor*float64((c&8)>>3),
			major*float64(c&1) + minor*float64((c&8)>>3),
		}
		if c == 6 {
			p[c][1] /= 2
		}
	}
	return p
}

// Linear returns the 16 CGA colors converted to linear light; this is the
// palette every distance/nearest-color computation in the dither packages
// operates on.
func Linear() [16]colorkernel.RGB {
	srgb := Generate()
	var lin [16]colorkernel.RGB
	for i, c := range srgb {
		lin[i] = colorkernel.LinearOf(c)
	}
	return lin
}

// Pair is an (i,j) index into a base palette; i<=j, and i==j denotes a solid
// (unpaired) color rather than a blend.
type Pair struct {
	A, B int
}

// Combine expands a base palette of n colors into the n*(n+1)/2 pairwise
// averages of every (i,j) with i<=j, in linear-light space. The returned
// slice is ordered the same way the C-style nested loop produces it:
// (0,0),(0,1),...,(0,n-1),(1,1),(1,2),...,(n-1,n-1). Pairs reports the
// source indices of every entry.
func Combine(base []colorkernel.RGB) (combined []colorkernel.RGB, pairs []Pair) {
	n := len(base)
	combined = make([]colorkernel.RGB, 0, n*(n+1)/2)
	pairs = make([]Pair, 0, n*(n+1)/2)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			combined = append(combined, colorkernel.Lerp(base[i], base[j], 0.5))
			pairs = append(pairs, Pair{A: i, B: j})
		}
	}
	return combined, pairs
}
