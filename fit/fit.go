/*
DESCRIPTION
  fit.go implements aspect-preserving integer scaling and a centered,
  row-banded blit of a packed CGA/r5g6b5/a8r8g8b8 frame into an a8r8g8b8
  destination surface (a Linux framebuffer or SDL texture owned by an
  external display sink).

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package fit computes the aspect-preserving integer scale factors between
// a source CGA framebuffer and a destination display surface, and blits a
// packed CGA/r5g6b5/a8r8g8b8 source frame into an a8r8g8b8 destination,
// replicating pixels to the chosen scale and clipping/centering as needed.
package fit

import (
	"math"

	"github.com/ausocean/cgacast/colorkernel"
	"github.com/ausocean/cgacast/frame"
)

// BestFit returns the largest (w,h), each no greater than (W,H), that
// preserves srcAR within a destination whose pixels are not square
// (corrected by W/(H*dstAR)).
func BestFit(srcAR float64, w, h int, dstAR float64) (int, int) {
	fw := srcAR * float64(h)
	fh := float64(h)

	if ratio := dstAR / srcAR; ratio < 1 {
		fw *= ratio
		fh *= ratio
	}

	pixelAspect := float64(w) / (float64(h) * dstAR)
	fw *= pixelAspect

	rw := int(math.Round(fw))
	rh := int(math.Round(fh))
	if rw > w {
		rw = w
	}
	if rh > h {
		rh = h
	}
	if rw < 1 {
		rw = 1
	}
	if rh < 1 {
		rh = 1
	}
	return rw, rh
}

// GetScalingFactors returns the integer scale factors that map a
// srcW x srcH source of aspect ratio srcAR onto a dstW x dstH destination
// of aspect ratio dstAR. xs is always a positive pixel-replication factor.
// ys is a positive replication factor unless the fitted height is smaller
// than srcH (source taller than the container, e.g. a 640x400 source
// inside a 640x200 destination), in which case ys is negative
// and denotes a line-skip factor for the caller to drop rows by.
func GetScalingFactors(srcW, srcH int, srcAR float64, dstW, dstH int, dstAR float64) (xs, ys int) {
	w, h := BestFit(srcAR, dstW, dstH, dstAR)

	xs = w / srcW
	if xs < 1 {
		xs = 1
	}

	if h < srcH {
		ys = -(srcH / h)
		if ys == 0 {
			ys = -1
		}
		return xs, ys
	}

	ys = h / srcH
	if ys < 1 {
		ys = 1
	}
	return xs, ys
}

// Blitter converts packed CGA (4/8bpp), r5g6b5 and a8r8g8b8 source frames
// to a destination a8r8g8b8 surface, replicating each source pixel over
// the requested scale block.
//
// Palette is the sRGB CGA palette (see cgapalette.Generate) used to decode
// 4bpp/8bpp indices. FrameCounter selects which half of an async (8bpp)
// temporal pair is shown on a given call; FlickerSelect, when >= 0,
// overrides that choice for both the current and subsequent calls until
// cleared (set back to -1), reproducing the "force a subframe" debug hook
// the monitor-side companion board exposes.
type Blitter struct {
	Palette       [16]colorkernel.RGB
	FrameCounter  int
	FlickerSelect int // -1 disables the override.
}

// NewBlitter returns a Blitter with FlickerSelect disabled.
func NewBlitter(palette [16]colorkernel.RGB) *Blitter {
	return &Blitter{Palette: palette, FlickerSelect: -1}
}

func (b *Blitter) subframe() int {
	if b.FlickerSelect >= 0 {
		return b.FlickerSelect
	}
	return b.FrameCounter % 2
}

// decode returns the sRGB color of source pixel (x,y), choosing the
// correct nibble/index/packed-format interpretation for src's BPP.
func (b *Blitter) decode(src *frame.Data, x, y int) colorkernel.RGB {
	switch src.BPP {
	case frame.BPP4:
		o := *src.U8(x, y)
		idx := o & 0xF
		if x%2 == 1 {
			idx = o >> 4
		}
		return b.Palette[idx]
	case frame.BPP8:
		o := *src.U8(x, y)
		first, second := o>>4, o&0xF
		idx := first
		if b.subframe() != 0 {
			idx = second
		}
		return b.Palette[idx]
	case frame.BPP16:
		return frame.ToFloatSRGB(frame.R5G6B5, src.GetPacked(x, y))
	case frame.BPP32:
		return frame.ToFloatSRGB(frame.A8R8G8B8, src.GetPacked(x, y))
	default:
		panic("fit: Blt on unsupported source bpp")
	}
}

func packARGB(c colorkernel.RGB) uint32 {
	return 0xFF000000 | frame.FromFloatSRGB(frame.A8R8G8B8, c)
}

// Blt writes src into dst (an a8r8g8b8 surface of dstW x dstH pixels with
// pitch dstPitch bytes), centered and clipped, replicating each source
// pixel xs times horizontally and |ys| times vertically (ys < 0 means
// "skip every |ys|-1 of every |ys| source rows" rather than replicate).
// offsetX/offsetY nudge the centered placement. Only destination rows in
// [dstH*yDiv/yDivs, dstH*(yDiv+1)/yDivs) are written, allowing independent
// parallel dispatch across row bands without tearing.
//
// When emulateCGA is false and either xs < 3 or src.BPP is not 4 or 8, Blt
// is a safety no-op: the downstream monitor-clock hack that makes the
// bit-banged analog path viable requires at least 3x horizontal scale, and
// only packed CGA sources are meaningful there.
func (b *Blitter) Blt(dst *frame.Data, dstW, dstH int, src *frame.Data, srcAR, dstAR float64, offsetX, offsetY, yDiv, yDivs int, emulateCGA bool) {
	xs, ys := GetScalingFactors(src.Width, src.Height, srcAR, dstW, dstH, dstAR)

	if !emulateCGA && (xs < 3 || (src.BPP != frame.BPP4 && src.BPP != frame.BPP8)) {
		return
	}

	scaledW := src.Width * xs
	var scaledH int
	rowStep := 1
	if ys < 0 {
		scaledH = src.Height / (-ys)
		rowStep = -ys
	} else {
		scaledH = src.Height * ys
	}

	originX := dstW/2 - scaledW/2 + offsetX
	originY := dstH/2 - scaledH/2 + offsetY

	bandBegin := dstH * yDiv / yDivs
	bandEnd := dstH * (yDiv + 1) / yDivs

	for sy := 0; sy*rowStep < src.Height; sy++ {
		vScale := ys
		if ys < 0 {
			vScale = 1
		}
		for v := 0; v < vScale; v++ {
			dy := originY + sy*vScale + v
			if dy < 0 || dy >= dstH || dy < bandBegin || dy >= bandEnd {
				continue
			}
			for sx := 0; sx < src.Width; sx++ {
				c := packARGB(b.decode(src, sx, sy*rowStep))
				for h := 0; h < xs; h++ {
					dx := originX + sx*xs + h
					if dx < 0 || dx >= dstW {
						continue
					}
					dst.SetPacked(dx, dy, c)
				}
			}
		}
	}
}
