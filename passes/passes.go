/*
DESCRIPTION
  passes.go implements the render passes that make up a downsampling
  pipeline: color-space conversion, nearest-neighbour upscaling, a
  three-stage separable local-contrast blur, black-crush and
  local-contrast grading, and the three quantizer passes (nearest-color,
  ordered Bayer dither, and temporal error diffusion) that reduce a
  linear-light frame to CGA indices through a pluggable output.Algorithm.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package passes implements the pipeline.Pass stages of the downsampling
// pipeline: color-space conversion, scaling, local-contrast grading and
// the quantizer passes that reduce a frame to CGA indices.
package passes

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"github.com/ausocean/cgacast/bayer"
	"github.com/ausocean/cgacast/colorkernel"
	"github.com/ausocean/cgacast/dither"
	"github.com/ausocean/cgacast/frame"
	"github.com/ausocean/cgacast/output"
	"github.com/ausocean/cgacast/pipeline"
)

func srgbFromImage(in *frame.Data, x, y int) colorkernel.RGB {
	switch in.BPP {
	case frame.BPP16:
		return frame.ToFloatSRGB(frame.R5G6B5, in.GetPacked(x, y))
	case frame.BPP32:
		return frame.ToFloatSRGB(frame.A8R8G8B8, in.GetPacked(x, y))
	default:
		panic("passes: srgbFromImage on unsupported bpp")
	}
}

// Linearize converts an r5g6b5 or a8r8g8b8 frame to linear-light RGB.
type Linearize struct {
	own frame.Data
}

func (p *Linearize) Own() *frame.Data { return &p.own }
func (p *Linearize) NoOutput() bool   { return false }

func (p *Linearize) Init(in *frame.Data) {
	p.own.Resize(in.Width, in.Height, frame.BPPLinear)
	p.own.AspectRatio = in.AspectRatio
}

func (p *Linearize) Render(in, out *frame.Data, ctx pipeline.Context) {
	begin, end := ctx.Rows(in.Height)
	for y := begin; y < end; y++ {
		for x := 0; x < in.Width; x++ {
			*out.Linear(x, y) = colorkernel.LinearOf(srgbFromImage(in, x, y))
		}
	}
}

// Unlinearize converts a linear-light frame back to a packed sRGB format.
type Unlinearize struct {
	Format frame.PixelFormat
	own    frame.Data
}

func (p *Unlinearize) Own() *frame.Data { return &p.own }
func (p *Unlinearize) NoOutput() bool   { return false }

func (p *Unlinearize) Init(in *frame.Data) {
	p.own.Resize(in.Width, in.Height, p.Format.Bits)
	p.own.AspectRatio = in.AspectRatio
}

func (p *Unlinearize) Render(in, out *frame.Data, ctx pipeline.Context) {
	begin, end := ctx.Rows(in.Height)
	for y := begin; y < end; y++ {
		for x := 0; x < in.Width; x++ {
			srgb := colorkernel.SRGBOf(*in.Linear(x, y))
			out.SetPacked(x, y, frame.FromFloatSRGB(p.Format, srgb))
		}
	}
}

// NearestScale replicates each input pixel into a w x h block of output
// pixels, used to restore the CGA framebuffer's square-pixel output to the
// display's native aspect before the monitor signal generator consumes it.
type NearestScale struct {
	W, H int
	own  frame.Data
}

func (p *NearestScale) Own() *frame.Data { return &p.own }
func (p *NearestScale) NoOutput() bool   { return false }

func (p *NearestScale) Init(in *frame.Data) {
	p.own.Resize(in.Width*p.W, in.Height*p.H, frame.BPPLinear)
	p.own.AspectRatio = in.AspectRatio
}

func (p *NearestScale) Render(in, out *frame.Data, ctx pipeline.Context) {
	begin, end := ctx.Rows(in.Height)
	for y := begin; y < end; y++ {
		for x := 0; x < in.Width; x++ {
			c := *in.Linear(x, y)
			for j := 0; j < p.H; j++ {
				for i := 0; i < p.W; i++ {
					*out.Linear(x*p.W+i, y*p.H+j) = c
				}
			}
		}
	}
}

// BlackCrush attenuates shadow detail below blackCrushHigh using a
// smootherstep ramp anchored at blackCrushLow, leaving highlights
// untouched.
type BlackCrush struct {
	Low, High float64
	own       frame.Data
}

func (p *BlackCrush) Own() *frame.Data { return &p.own }
func (p *BlackCrush) NoOutput() bool   { return false }

func (p *BlackCrush) Init(in *frame.Data) {
	p.own.Resize(in.Width, in.Height, frame.BPPLinear)
	p.own.AspectRatio = in.AspectRatio
}

func (p *BlackCrush) Render(in, out *frame.Data, ctx pipeline.Context) {
	begin, end := ctx.Rows(in.Height)
	for y := begin; y < end; y++ {
		for x := 0; x < in.Width; x++ {
			hsp := colorkernel.RGBToHSP(*in.Linear(x, y))
			hsp[2] *= colorkernel.Smootherstep(p.Low, p.High, hsp[2])
			*out.Linear(x, y) = colorkernel.HSPToRGB(hsp)
		}
	}
}

func gaussianKernel(x, stddev float64) float64 {
	s2 := 2 * stddev * stddev
	return math.Exp(-(x * x) / s2)
}

func calcLocalContrast(avg, variance float64, c colorkernel.RGB, gain, blackCrushLow, blackCrushHigh float64) colorkernel.RGB {
	const stddevMultiplier = 1.0 / 3.0
	stddev := math.Sqrt(variance)
	halfInterval := stddevMultiplier * stddev
	if halfInterval < 3e-3 {
		halfInterval = 3e-3
	}

	minimum := avg - halfInterval
	maximum := avg + halfInterval

	// The reference implementation scales minimum by a smootherstep ramp
	// then immediately overwrites it with zero; the ramp has no visible
	// effect. We keep the zero floor and drop the dead computation.
	minimum = 0

	hsp := colorkernel.RGBToHSP(c)
	newVal := (hsp[2] - minimum) / (maximum - minimum)
	hsp[2] = hsp[2] + (newVal-hsp[2])*gain

	ret := colorkernel.HSPToRGB(colorkernel.HSP{clamp01(hsp[0]), clamp01(hsp[1]), clamp01(hsp[2])})
	return colorkernel.Clamp(ret)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// momentPair holds (value, value^2) used by the separable blur stages to
// derive a running mean/variance.
type momentPair = frame.MomentPair

func gaussianRadius(stddev float64) int {
	return int(math.Ceil(stddev * 6))
}

// blur1D applies a 1-D Gaussian blur of the given stddev along a row
// (horizontal) or column (vertical) of a BPPLinear2 moment frame,
// clamping the sample window to the frame's extent.
func blur1D(img *frame.Data, x, y int, horizontal bool, stddev float64) momentPair {
	radius := gaussianRadius(stddev)
	kernelSize := radius*2 + 1
	half := kernelSize / 2

	ud := y
	maxD := img.Height
	if horizontal {
		ud = x
		maxD = img.Width
	}

	lo := half - ud
	if lo < 0 {
		lo = 0
	}
	hi := maxD + half - ud
	if hi > kernelSize {
		hi = kernelSize
	}

	n := hi - lo
	if n <= 0 {
		return momentPair{}
	}
	values := make([]float64, n)
	squares := make([]float64, n)
	weights := make([]float64, n)
	for k, i := 0, lo; i < hi; k, i = k+1, i+1 {
		d := ud + i - half
		var sx, sy int
		if horizontal {
			sx, sy = d, y
		} else {
			sx, sy = x, d
		}
		s := *img.Moments(sx, sy)
		values[k] = s[0]
		squares[k] = s[1]
		weights[k] = gaussianKernel(float64(i-half), stddev)
	}
	return momentPair{stat.Mean(values, weights), stat.Mean(squares, weights)}
}

// lcBlurPre is the first stage of the three-stage separable local-contrast
// blur: it samples HSP perceived brightness (and its square) from the
// linearized frame into a moment side-channel.
type lcBlurPre struct {
	own frame.Data
}

func (p *lcBlurPre) Own() *frame.Data { return &p.own }
func (p *lcBlurPre) NoOutput() bool   { return true }

func (p *lcBlurPre) Init(in *frame.Data) {
	p.own.ResizePitch(in.Width, in.Height, in.Pitch, in.BPP)
}

func (p *lcBlurPre) Render(in, out *frame.Data, ctx pipeline.Context) {
	begin, end := ctx.Rows(in.Height)
	for y := begin; y < end; y++ {
		for x := 0; x < in.Width; x++ {
			hsp := colorkernel.RGBToHSP(*in.Linear(x, y))
			*p.own.Moments(x, y) = momentPair{hsp[2], hsp[2] * hsp[2]}
		}
	}
}

// lcBlurHorizontal is the second stage: a horizontal pass over the moment
// side-channel, with its stddev adjusted for the frame's aspect ratio so
// the blur is isotropic in display space rather than pixel space.
type lcBlurHorizontal struct {
	stddev float64
	src    *lcBlurPre
	own    frame.Data

	effective float64
}

func (p *lcBlurHorizontal) Own() *frame.Data { return &p.own }
func (p *lcBlurHorizontal) NoOutput() bool   { return true }

func (p *lcBlurHorizontal) Init(in *frame.Data) {
	p.own.ResizePitch(in.Width, in.Height, in.Pitch, in.BPP)
	p.effective = p.stddev * float64(in.Width) / (float64(in.Height) * in.AspectRatio)
}

func (p *lcBlurHorizontal) Render(in, out *frame.Data, ctx pipeline.Context) {
	begin, end := ctx.Rows(in.Height)
	for y := begin; y < end; y++ {
		for x := 0; x < in.Width; x++ {
			*p.own.Moments(x, y) = blur1D(&p.src.own, x, y, true, p.effective)
		}
	}
}

// lcBlurVertical is the third stage: a vertical pass producing the final
// (avg, avg-of-squares) moment frame, optionally written to an external
// destination when the blur feeds add_local_contrast rather than a
// caller's output frame directly.
type lcBlurVertical struct {
	stddev float64
	src    *lcBlurHorizontal
	dest   *frame.Data
	own    frame.Data
}

func (p *lcBlurVertical) Own() *frame.Data { return &p.own }
func (p *lcBlurVertical) NoOutput() bool   { return p.dest != nil }

func (p *lcBlurVertical) Init(in *frame.Data) {
	p.own.ResizePitch(in.Width, in.Height, in.Pitch, frame.BPPLinear2)
	if p.dest != nil {
		p.dest.Resize(in.Width, in.Height, frame.BPPLinear2)
	}
}

func (p *lcBlurVertical) Render(in, out *frame.Data, ctx pipeline.Context) {
	begin, end := ctx.Rows(in.Height)
	dst := &p.own
	if p.dest != nil {
		dst = p.dest
	}
	for y := begin; y < end; y++ {
		for x := 0; x < in.Width; x++ {
			*dst.Moments(x, y) = blur1D(&p.src.own, x, y, false, p.stddev)
		}
	}
}

// LCBlur appends the three-stage separable local-contrast blur to passes,
// writing its (avg, avg-of-squares) moment result to dest when non-nil, or
// to the pass chain's own output otherwise.
func LCBlur(passes []pipeline.Pass, stddev float64, dest *frame.Data) []pipeline.Pass {
	pre := &lcBlurPre{}
	horiz := &lcBlurHorizontal{stddev: stddev, src: pre}
	vert := &lcBlurVertical{stddev: stddev, src: horiz, dest: dest}
	return append(passes, pre, horiz, vert)
}

// localContrast is the final stage of AddLocalContrast: it recombines the
// blurred moment frame with the linearized input to push each pixel's
// perceived brightness toward its local neighbourhood average, then
// re-applies black crush.
type localContrast struct {
	blur                     *frame.Data
	gain, low, high          float64
	own                      frame.Data
}

func (p *localContrast) Own() *frame.Data { return &p.own }
func (p *localContrast) NoOutput() bool   { return false }

func (p *localContrast) Init(in *frame.Data) {
	p.own.Resize(in.Width, in.Height, frame.BPPLinear)
	p.own.AspectRatio = in.AspectRatio
}

func (p *localContrast) Render(in, out *frame.Data, ctx pipeline.Context) {
	begin, end := ctx.Rows(in.Height)
	for y := begin; y < end; y++ {
		for x := 0; x < in.Width; x++ {
			avgVar := *p.blur.Moments(x, y)
			avg := avgVar[0]
			variance := avgVar[1] - avg*avg
			if variance < 0 {
				variance = 0
			}

			hsp := colorkernel.RGBToHSP(*in.Linear(x, y))
			hsp[1] = math.Pow(hsp[1], 0.75)
			c := colorkernel.HSPToRGB(hsp)

			*out.Linear(x, y) = calcLocalContrast(avg, variance, c, p.gain, p.low, p.high)
		}
	}
}

// AddLocalContrast appends a local-contrast blur-and-grade stage to
// passes: pixels are pulled toward their blurred local brightness average
// by gain, with blackCrushLow/High shaping the shadow rolloff of the
// result.
func AddLocalContrast(passes []pipeline.Pass, stddev, gain, blackCrushLow, blackCrushHigh float64) []pipeline.Pass {
	blur := &frame.Data{}
	passes = LCBlur(passes, stddev, blur)
	return append(passes, &localContrast{blur: blur, gain: gain, low: blackCrushLow, high: blackCrushHigh})
}

// Nearest quantizes each pixel independently to its nearest palette
// color, with no dithering.
type Nearest struct {
	Palette   []colorkernel.RGB
	Algorithm output.Algorithm
	own       frame.Data
}

func (p *Nearest) Own() *frame.Data { return &p.own }
func (p *Nearest) NoOutput() bool   { return false }

func (p *Nearest) Init(in *frame.Data) {
	p.Algorithm.NewFrame(in, &p.own)
}

func (p *Nearest) Render(in, out *frame.Data, ctx pipeline.Context) {
	begin, end := ctx.Rows(in.Height)
	for y := begin; y < end; y++ {
		for x := 0; x < in.Width; x++ {
			idx, _ := dither.EvalNearestColor(p.Palette, *in.Linear(x, y))
			p.Algorithm.PP(out, x, y, uint8(idx))
		}
	}
}

// BayerR quantizes each pixel via a precomputed dither LUT, resolving the
// candidate (solid or paired) color against an ordered Bayer threshold
// map rather than random noise.
type BayerR struct {
	Map       bayer.Map
	LUT       *dither.LUT
	Algorithm output.Algorithm
	own       frame.Data
}

func (p *BayerR) Own() *frame.Data { return &p.own }
func (p *BayerR) NoOutput() bool   { return false }

func (p *BayerR) Init(in *frame.Data) {
	p.Algorithm.NewFrame(in, &p.own)
}

func (p *BayerR) Render(in, out *frame.Data, ctx pipeline.Context) {
	begin, end := ctx.Rows(in.Height)
	for y := begin; y < end; y++ {
		for x := 0; x < in.Width; x++ {
			dc := p.LUT.Get(*in.Linear(x, y))
			c := dc.Resolve(p.Map, x, y)
			p.Algorithm.PP(out, x, y, c)
		}
	}
}

// TemporalErrorDiffusion quantizes each pixel to its nearest solid color
// after adding a per-pixel running error accumulator, then feeds the
// quantization error back into that accumulator (classic Floyd-Steinberg
// style error diffusion, but diffused across frames at a fixed pixel
// location rather than across neighbouring pixels within one frame).
// When the incoming color at a pixel changes from the previous frame, a
// random fraction of the new error is folded in immediately so static
// detail converges without visible per-frame noise while moving content
// still dithers.
//
// The random fraction is drawn from a per-row generator seeded
// deterministically from the frame counter and row index, so a given
// frame's output is reproducible independent of goroutine scheduling.
type TemporalErrorDiffusion struct {
	Palette   []colorkernel.RGB
	Algorithm output.Algorithm

	own       frame.Data
	error     frame.Data
	prevPixel frame.Data
	frameID   int64
}

func (p *TemporalErrorDiffusion) Own() *frame.Data { return &p.own }
func (p *TemporalErrorDiffusion) NoOutput() bool   { return false }

func (p *TemporalErrorDiffusion) Init(in *frame.Data) {
	p.Algorithm.NewFrame(in, &p.own)
	p.error.ResizePitch(in.Width, in.Height, in.Pitch, frame.BPPLinear)
	p.prevPixel.ResizePitch(in.Width, in.Height, in.Pitch, frame.BPPLinear)
	p.frameID++
}

func (p *TemporalErrorDiffusion) Render(in, out *frame.Data, ctx pipeline.Context) {
	begin, end := ctx.Rows(in.Height)
	for y := begin; y < end; y++ {
		rng := rowRand(p.frameID, y)
		for x := 0; x < in.Width; x++ {
			c := *in.Linear(x, y)
			errP := p.error.Linear(x, y)
			prevP := p.prevPixel.Linear(x, y)

			candidate := colorkernel.Clamp(colorkernel.Add(c, *errP))
			idx, _ := dither.EvalNearestColor(p.Palette, candidate)

			p.Algorithm.PP(out, x, y, uint8(idx))

			currentError := colorkernel.Sub(c, p.Palette[idx])
			*errP = colorkernel.Add(*errP, currentError)

			if *prevP != c {
				for i := 0; i < 3; i++ {
					errP[i] += rng.Float64() * currentError[i]
				}
				*prevP = c
			}

			*errP = colorkernel.Clamp(*errP)
		}
	}
}

func rowRand(frameID int64, row int) *rand.Rand {
	seed := frameID*2654435761 + int64(row)*40503
	return rand.New(rand.NewSource(seed))
}

// DOSBoxCompensate drops every second scanline of a frame, turning
// DOSBox's 640x400 line-doubled output back into the original 640x200
// CGA framebuffer. The downsample package's pipeline does not include
// it: 640x400 frames are processed at their received size.
type DOSBoxCompensate struct {
	own frame.Data
}

func (p *DOSBoxCompensate) Own() *frame.Data { return &p.own }
func (p *DOSBoxCompensate) NoOutput() bool   { return false }

func (p *DOSBoxCompensate) Init(in *frame.Data) {
	p.own.Resize(in.Width, in.Height/2, in.BPP)
	p.own.AspectRatio = in.AspectRatio
}

func (p *DOSBoxCompensate) Render(in, out *frame.Data, ctx pipeline.Context) {
	begin, end := ctx.Rows(out.Height)
	for y := begin; y < end; y++ {
		for x := 0; x < in.Width; x++ {
			out.SetPacked(x, y, in.GetPacked(x, y*2))
		}
	}
}
