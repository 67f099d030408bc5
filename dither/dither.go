/*
DESCRIPTION
  dither.go implements nearest-color and nearest-dithered-color lookup
  against a linear-light palette, the solid/dithered-pair compatibility
  rules, and a precomputed r5g6b5-keyed lookup table used to make that
  lookup affordable per-pixel at frame rate.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package dither implements nearest-color and nearest-dithered-pair
// lookup against a linear-light palette, and a precomputed lookup table
// that makes that search affordable at frame rate.
package dither

import (
	"math"
	"runtime"
	"sync"

	"github.com/ausocean/cgacast/colorkernel"
	"github.com/ausocean/cgacast/frame"
)

// DitheredColor is either a solid palette entry (Left==Right) or a pair
// to be resolved per-pixel against a threshold map.
type DitheredColor struct {
	Left, Right uint8
	Mix         float64
}

// Resolve picks Left or Right for pixel (x,y) according to m's threshold
// at the DitheredColor's Mix level.
func (c DitheredColor) Resolve(m interface {
	IsOn(x, y int, mixLevel float64) bool
}, x, y int) uint8 {
	if m.IsOn(x, y, c.Mix) {
		return c.Right
	}
	return c.Left
}

// AllowedDither reports whether palette entries left and right may be
// used together as a dithered pair. It encodes the hue-family
// compatibility rules of the CGA RGBI palette: colors sharing a hue
// family (blue, green, cyan, red, magenta, yellow) may not mix with an
// incompatible family, black may only mix with dark colors, light black
// cannot mix with bright colors, and a few specific pairs (dark
// red/bright yellow, any dark color with white) are excluded outright.
func AllowedDither(left, right int) bool {
	if left == right {
		return true
	}
	if right < left {
		left, right = right, left
	}
	if left == 0 {
		return (right >= 1 && right <= 6) || right == 8
	}
	if left == 8 {
		return false
	}

	isBlue := left == 1 || right == 1 || left == 9 || right == 9
	isGreen := left == 2 || right == 2 || left == 10 || right == 10
	isCyan := left == 3 || right == 3 || left == 11 || right == 11
	isRed := left == 4 || right == 4 || left == 12 || right == 12
	isMagenta := left == 5 || right == 5 || left == 13 || right == 13
	isYellow := left == 6 || right == 6 || left == 14 || right == 14

	switch {
	case isBlue && (isGreen || isYellow || isRed):
		return false
	case isGreen && (isBlue || isRed || isMagenta):
		return false
	case isCyan && (isRed || isMagenta || isYellow):
		return false
	case isRed && (isGreen || isBlue || isCyan):
		return false
	case isMagenta && (isGreen || isCyan || isYellow):
		return false
	case isYellow && (isBlue || isCyan || isMagenta):
		return false
	}

	if left == 4 && right == 14 {
		return false
	}
	if left >= 0 && left <= 6 && right == 15 {
		return false
	}
	return true
}

// AllowedPredicate is the signature AllowedDither and its temporal-dither
// variants (compatibility judged on HSP hue/value distance rather than
// fixed index rules) both satisfy.
type AllowedPredicate func(left, right int) bool

// EvalNearestColor returns the index of the palette entry nearest to c in
// linear-light Euclidean distance, along with that distance.
func EvalNearestColor(palette []colorkernel.RGB, c colorkernel.RGB) (idx int, dist float64) {
	best := math.MaxFloat64
	bestIdx := -1
	for i, candidate := range palette {
		d := colorkernel.Distance(c, candidate)
		if d >= best {
			continue
		}
		best = d
		bestIdx = i
	}
	return bestIdx, best
}

// EvalDitherMix projects target onto the line from left to right and
// returns the clamped [0,1] fractional position, i.e. how much of right
// to blend with left to best approximate target.
func EvalDitherMix(target, left, right colorkernel.RGB) float64 {
	targetFromLeft := colorkernel.Sub(target, left)
	delta := colorkernel.Sub(right, left)
	deltaLen := math.Sqrt(delta[0]*delta[0] + delta[1]*delta[1] + delta[2]*delta[2])
	if deltaLen == 0 {
		return 0
	}
	dir := colorkernel.RGB{delta[0] / deltaLen, delta[1] / deltaLen, delta[2] / deltaLen}
	t := targetFromLeft[0]*dir[0] + targetFromLeft[1]*dir[1] + targetFromLeft[2]*dir[2]
	t /= deltaLen
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// EvalNearestDitheredColor finds the best solid color or allowed pair
// approximating c: it first scans every solid palette entry, then every
// allowed (i,j) pair's projected mix point, keeping whichever candidate
// lies closest to c in linear-light distance.
func EvalNearestDitheredColor(palette []colorkernel.RGB, allowed AllowedPredicate, c colorkernel.RGB) (best DitheredColor, dist float64) {
	bestDist := math.MaxFloat64

	for i, left := range palette {
		d := colorkernel.Distance(c, left)
		if d >= bestDist {
			continue
		}
		bestDist = d
		best = DitheredColor{Left: uint8(i), Right: uint8(i), Mix: 0}
	}

	for i, left := range palette {
		for j := i + 1; j < len(palette); j++ {
			if !allowed(i, j) {
				continue
			}
			right := palette[j]
			mix := EvalDitherMix(c, left, right)
			mixPoint := colorkernel.Lerp(left, right, mix)
			d := colorkernel.Distance(c, mixPoint)
			if d >= bestDist {
				continue
			}
			bestDist = d
			best = DitheredColor{Left: uint8(i), Right: uint8(j), Mix: mix}
		}
	}

	return best, bestDist
}

// LUT is a precomputed dither lookup table keyed on an r5g6b5-quantized
// sRGB color. Building it is the one place the full O(n^2) pair search
// runs; Get only re-derives the Mix fraction (the lookup's cached value
// may have come from an inexact quantized key) and is cheap enough for
// per-pixel use.
type LUT struct {
	Palette []colorkernel.RGB
	lookup  []DitheredColor
}

// NewLUT builds a LUT by invoking lookup once per possible r5g6b5 value,
// split across GOMAXPROCS-sized row ranges, matching the teacher's
// thread-pool-over-a-flat-range construction.
func NewLUT(palette []colorkernel.RGB, lookup func(c colorkernel.RGB) DitheredColor) *LUT {
	size := 1 << frame.R5G6B5.VisibleBits()
	l := &LUT{Palette: palette, lookup: make([]DitheredColor, size)}

	workers := runtime.GOMAXPROCS(0)
	if workers > size {
		workers = size
	}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		begin := size * w / workers
		end := size * (w + 1) / workers
		wg.Add(1)
		go func(begin, end int) {
			defer wg.Done()
			for r := begin; r < end; r++ {
				srgb := frame.ToFloatSRGB(frame.R5G6B5, uint32(r))
				l.lookup[r] = lookup(colorkernel.LinearOf(srgb))
			}
		}(begin, end)
	}
	wg.Wait()
	return l
}

// Get quantizes c to r5g6b5 to index the precomputed table, then
// recomputes the Mix fraction against the unquantized color so that the
// returned DitheredColor reflects the true input rather than the
// rounding of its table key.
func (l *LUT) Get(c colorkernel.RGB) DitheredColor {
	key := frame.FromFloatSRGB(frame.R5G6B5, colorkernel.SRGBOf(c))
	result := l.lookup[key]
	result.Mix = EvalDitherMix(c, l.Palette[result.Left], l.Palette[result.Right])
	return result
}
