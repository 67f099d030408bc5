/*
DESCRIPTION
  output.go implements the three pixel-packing strategies a quantizer pass
  can target: a plain packed-nibble frame, a frame-alternating temporal
  dither that halves apparent color error by flickering between two CGA
  indices every other frame, and an "async" variant that instead packs
  both candidate indices into one byte for a downstream device to
  alternate at its own rate.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package output implements the pixel-packing strategies a quantizer
// pass writes through: plain 4bpp nibbles, frame-alternating temporal
// dither, and an async variant packing both dither candidates per byte.
package output

import "github.com/ausocean/cgacast/frame"

// Algorithm is the packing strategy a quantizer pass writes its chosen
// color index through.
type Algorithm interface {
	// NewFrame sizes out for one output frame derived from in's shape.
	NewFrame(in, out *frame.Data)
	// PP packs the color chosen for pixel (x,y) into out.
	PP(out *frame.Data, x, y int, color uint8)
}

// Normal packs one 4-bit CGA index per pixel, two pixels per byte, even
// pixel in the low nibble.
type Normal struct{}

func (Normal) NewFrame(in, out *frame.Data) {
	out.Resize(in.Width, in.Height, frame.BPP4)
	out.AspectRatio = in.AspectRatio
}

func (Normal) PP(out *frame.Data, x, y int, color uint8) {
	o := out.U8(x, y)
	shl := 0
	if x%2 == 1 {
		shl = 4
	}
	*o &^= 0xF << shl
	*o |= color << shl
}

// Pair is a (first, second) pair of CGA palette indices a combined
// palette entry resolves to when alternated across frames.
type Pair struct {
	First, Second int
}

// Temporal alternates, every other frame, between the two CGA indices
// that make up the combined-palette entry chosen for each pixel,
// reproducing a 136-entry blended palette from the monitor's own
// phosphor persistence. Staggered checkerboards which half of each pair
// appears first, halving visible flicker at the cost of spatial
// resolution in the blend.
type Temporal struct {
	Indices    []Pair
	Staggered  bool
	frameCount int
}

func (t *Temporal) NewFrame(in, out *frame.Data) {
	out.Resize(in.Width, in.Height, frame.BPP4)
	out.AspectRatio = in.AspectRatio
	t.frameCount++
}

func (t *Temporal) PP(out *frame.Data, x, y int, color uint8) {
	p := t.Indices[color]
	if t.Staggered && (x%2) != (y%2) {
		p.First, p.Second = p.Second, p.First
	}
	sel := p.First
	if t.frameCount%2 != 0 {
		sel = p.Second
	}
	Normal{}.PP(out, x, y, uint8(sel))
}

// Async packs both candidate indices of a combined-palette entry into a
// single byte (first in the high nibble), leaving the choice of which to
// display on a given frame to the receiving device.
type Async struct {
	Indices    []Pair
	Staggered  bool
	frameCount int
}

func (a *Async) NewFrame(in, out *frame.Data) {
	out.Resize(in.Width, in.Height, frame.BPP8)
	out.AspectRatio = in.AspectRatio
	a.frameCount++
}

func (a *Async) PP(out *frame.Data, x, y int, color uint8) {
	p := a.Indices[color]
	o := out.U8(x, y)
	if !a.Staggered || (x%2) == (y%2) {
		*o = byte(p.First<<4) + byte(p.Second)
	} else {
		*o = byte(p.Second<<4) + byte(p.First)
	}
}
