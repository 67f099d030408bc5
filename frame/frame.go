/*
DESCRIPTION
  frame.go defines the Data type: a rectangular pixel buffer of variable
  pixel format, pitch and aspect ratio, used throughout the CGA rendering
  pipeline as the unit of work passed between render passes.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package frame provides the Data type used to pass pixel buffers of
// varying pixel format, pitch and aspect ratio between render passes, along
// with the pixel format descriptors used to decode/encode pixels within it.
package frame

import (
	"fmt"
	"unsafe"

	"github.com/ausocean/cgacast/colorkernel"
)

// Recognised storage bits-per-pixel values. Linear and Linear2 are
// intermediate formats used internally by the pipeline and never appear on
// the wire.
const (
	BPP4       = 4   // Packed CGA index, two pixels per byte.
	BPP8       = 8   // Packed CGA index pair (temporal dither), one per byte.
	BPP16      = 16  // r5g6b5.
	BPP24      = 24  // unused but recognised; visible bits of a8r8g8b8 minus alpha.
	BPP32      = 32  // a8r8g8b8.
	BPPLinear  = 192 // 3 x float64, linear-light RGB.
	BPPLinear2 = 128 // 2 x float64, used by the local-contrast blur side-channel.
)

// Data is a rectangular pixel grid. It does not own its buffer unless
// constructed via NewOwned/Resize; a Data built with Borrow aliases the
// caller's memory and must not be resized.
//
// Invariant: Pitch >= ceil(Width*BPP/8) and len(Buf) == Pitch*Height.
type Data struct {
	Width, Height int
	BPP           int
	Pitch         int
	AspectRatio   float64
	Buf           []byte

	// borrowed is true when Buf is owned elsewhere; Resize panics on a
	// borrowed frame.
	borrowed bool
}

// minPitch returns the minimum pitch in bytes required to hold width
// pixels at the given bpp.
func minPitch(width, bpp int) int {
	return (width*bpp + 7) / 8
}

// Borrow wraps an externally-owned buffer in a read-oriented Data. The
// caller retains ownership; Resize on the result panics.
func Borrow(width, height, bpp, pitch int, ar float64, buf []byte) Data {
	if pitch == 0 {
		pitch = minPitch(width, bpp)
	}
	return Data{Width: width, Height: height, BPP: bpp, Pitch: pitch, AspectRatio: ar, Buf: buf, borrowed: true}
}

// NewOwned allocates a zeroed, owned Data of the given shape.
func NewOwned(width, height, bpp int) *Data {
	d := &Data{}
	d.Resize(width, height, bpp)
	return d
}

// Resize reshapes d, reusing its buffer when it is already large enough.
// It panics if d was constructed with Borrow.
func (d *Data) Resize(width, height, bpp int) {
	d.ResizePitch(width, height, minPitch(width, bpp), bpp)
}

// ResizePitch is Resize with an explicit pitch, which must be at least the
// minimum required for width/bpp.
func (d *Data) ResizePitch(width, height, pitch, bpp int) {
	if d.borrowed {
		panic("frame: Resize called on a borrowed frame")
	}
	if pitch < minPitch(width, bpp) {
		panic("frame: pitch too small for width/bpp")
	}
	need := pitch * height
	if cap(d.Buf) < need {
		d.Buf = make([]byte, need)
	} else {
		d.Buf = d.Buf[:need]
		for i := range d.Buf {
			d.Buf[i] = 0
		}
	}
	d.Width, d.Height, d.BPP, d.Pitch = width, height, bpp, pitch
}

// CopyFrom replaces d's contents with a copy of src, resizing as needed.
func (d *Data) CopyFrom(src Data) {
	d.ResizePitch(src.Width, src.Height, src.Pitch, src.BPP)
	d.AspectRatio = src.AspectRatio
	copy(d.Buf, src.Buf)
}

// Swap exchanges the contents of d and other in place; used by the pass
// scheduler to hand a pass's owned storage to the caller's output frame and
// back without copying.
func Swap(a, b *Data) {
	*a, *b = *b, *a
}

// byteOffset returns the byte offset of pixel (x,y) within the buffer.
func (d *Data) byteOffset(x, y int) int {
	return y*d.Pitch + x*d.BPP/8
}

// U8 returns a pointer to the single byte backing pixel (x,y) for 4/8bpp
// frames. The caller is responsible for any further nibble decoding.
func (d *Data) U8(x, y int) *byte {
	return &d.Buf[d.byteOffset(x, y)]
}

// U16 returns a pointer to the r5g6b5 pixel at (x,y).
func (d *Data) U16(x, y int) *uint16 {
	off := d.byteOffset(x, y)
	return (*uint16)(unsafe.Pointer(&d.Buf[off]))
}

// U32 returns a pointer to the a8r8g8b8 pixel at (x,y).
func (d *Data) U32(x, y int) *uint32 {
	off := d.byteOffset(x, y)
	return (*uint32)(unsafe.Pointer(&d.Buf[off]))
}

// RGB is a linear-light (or srgb, depending on context) triple; it is an
// alias of colorkernel.RGB so pixel views can be handed directly to the
// color-kernel functions without conversion.
type RGB = colorkernel.RGB

// Linear returns a pointer to the linear-light RGB triple at (x,y) for a
// BPPLinear frame.
func (d *Data) Linear(x, y int) *RGB {
	off := d.byteOffset(x, y)
	return (*RGB)(unsafe.Pointer(&d.Buf[off]))
}

// MomentPair is the (value, value^2) running-moment sample used by the
// local-contrast blur passes.
type MomentPair [2]float64

// Moments returns a pointer to the moment pair at (x,y) for a BPPLinear2
// frame.
func (d *Data) Moments(x, y int) *MomentPair {
	off := d.byteOffset(x, y)
	return (*MomentPair)(unsafe.Pointer(&d.Buf[off]))
}

// GetPacked reads the packed pixel at (x,y) as a uint32, for 16bpp or
// 32bpp frames; it panics for any other BPP.
func (d *Data) GetPacked(x, y int) uint32 {
	switch d.BPP {
	case BPP16:
		return uint32(*d.U16(x, y))
	case BPP32:
		return *d.U32(x, y)
	default:
		panic("frame: GetPacked on unsupported bpp")
	}
}

// SetPacked writes v as the packed pixel at (x,y), for 16bpp or 32bpp
// frames; it panics for any other BPP.
func (d *Data) SetPacked(x, y int, v uint32) {
	switch d.BPP {
	case BPP16:
		*d.U16(x, y) = uint16(v)
	case BPP32:
		*d.U32(x, y) = v
	default:
		panic("frame: SetPacked on unsupported bpp")
	}
}

func (d Data) String() string {
	return fmt.Sprintf("frame %dx%d bpp=%d pitch=%d ar=%.4f", d.Width, d.Height, d.BPP, d.Pitch, d.AspectRatio)
}

// PixelFormat describes how to unpack/pack a fixed-width integer pixel into
// per-channel bit depths and offsets, MSB-first within the int.
type PixelFormat struct {
	Name                       string
	Bits                       int // storage width: 16 for r5g6b5, 32 for a8r8g8b8.
	RBits, GBits, BBits, ABits int
	ROff, GOff, BOff, AOff     int
}

// VisibleBits is the number of bits used by the color channels, excluding
// alpha; it sizes a dither LUT keyed on this format.
func (f PixelFormat) VisibleBits() int {
	return f.RBits + f.GBits + f.BBits
}

// R5G6B5 and A8R8G8B8 are the two packed formats the pipeline recognises on
// its input/output boundary.
var (
	R5G6B5   = PixelFormat{Name: "r5g6b5", Bits: 16, RBits: 5, GBits: 6, BBits: 5, ROff: 11, GOff: 5, BOff: 0}
	A8R8G8B8 = PixelFormat{Name: "a8r8g8b8", Bits: 32, ABits: 8, RBits: 8, GBits: 8, BBits: 8, AOff: 24, ROff: 16, GOff: 8, BOff: 0}
)

func channel(v uint32, bits, off int) float64 {
	mask := uint32(1)<<uint(bits) - 1
	c := (v >> uint(off)) & mask
	return float64(c) / float64(mask)
}

func packChannel(f float64, bits, off int) uint32 {
	mask := uint32(1)<<uint(bits) - 1
	v := uint32(f*float64(mask) + 0.5)
	if v > mask {
		v = mask
	}
	return v << uint(off)
}

// ToFloatSRGB decodes an integer pixel k under format fmt into an sRGB
// triple with channels in [0,1].
func ToFloatSRGB(f PixelFormat, k uint32) RGB {
	return RGB{
		channel(k, f.RBits, f.ROff),
		channel(k, f.GBits, f.GOff),
		channel(k, f.BBits, f.BOff),
	}
}

// FromFloatSRGB packs an sRGB triple into format fmt, rounding each channel
// to the nearest representable value.
func FromFloatSRGB(f PixelFormat, c RGB) uint32 {
	return packChannel(c[0], f.RBits, f.ROff) | packChannel(c[1], f.GBits, f.GOff) | packChannel(c[2], f.BBits, f.BOff)
}
