/*
DESCRIPTION
  scangen.go implements the real-time row/field scan generator that
  drives a CGA monitor's six analog input lines (R, G, B, I, HSYNC,
  VSYNC) directly from a packed 4bpp framebuffer, bit-banging the
  monitor's horizontal and vertical blanking/sync intervals in
  lock-step with the pixel clock.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package scangen drives a CGA monitor's analog RGBI/HSYNC/VSYNC
// lines directly from a packed framebuffer, bit-banging the horizontal
// and vertical blanking/sync intervals the monitor expects at its
// fixed 14.31818 MHz pixel clock. It must run on a single OS thread at
// elevated scheduling priority with no cooperative suspension points
// inside a row; any missed deadline is observable as picture tearing.
package scangen

import (
	"github.com/ausocean/cgacast/frame"
	"github.com/ausocean/cgacast/monitorclock"
)

// Timing holds the CGA monitor's fixed horizontal and vertical
// blanking/overscan/sync interval widths, in pixel counts, as adapted
// from http://www.paradigmlift.net/projects/teensy_cga.html.
type Timing struct {
	// Horizontal, in native (640-wide) pixels.
	HScanLeftBlanking  int
	HScanLeftOverscan  int
	HScanVisible       int
	HScanRightOverscan int
	HScanRightBlanking int
	HScanSync          int

	// Vertical, in rows.
	VScanTopBlanking    int
	VScanTopOverscan    int
	VScanVisible        int
	VScanBottomOverscan int
	VScanBottomBlanking int
	VScanSync           int

	// FramebufferPixelWidth is the number of native pixels a single
	// source pixel occupies; 320-wide CGA framebuffers are 2.
	FramebufferPixelWidth int
}

// DefaultTiming is the standard CGA monitor timing for a 320x200
// framebuffer displayed at 640 native pixels wide.
var DefaultTiming = Timing{
	HScanLeftBlanking:     56,
	HScanLeftOverscan:     40,
	HScanVisible:          640,
	HScanRightOverscan:    72,
	HScanRightBlanking:    40,
	HScanSync:             64,
	VScanTopBlanking:      239 - 228,
	VScanTopOverscan:      261 - 239,
	VScanVisible:          200,
	VScanBottomOverscan:   223 - 200,
	VScanBottomBlanking:   225 - 223,
	VScanSync:             228 - 225,
	FramebufferPixelWidth: 2,
}

// Lines is the set of output lines a Generator drives, plus an
// optional input acknowledge line; hwio.Lines satisfies it.
type Lines interface {
	SetRGBI(r, g, b, i bool)
	SetHSync(on bool)
	SetVSync(on bool)
	Acked() bool
}

// Generator drives Lines from successive packed 4bpp framebuffers
// according to Timing, using Clock to meet the monitor's row and
// pixel timing.
type Generator struct {
	Lines  Lines
	Clock  *monitorclock.Clock
	Timing Timing
}

// New returns a Generator using monitorclock.New and DefaultTiming.
func New(lines Lines) *Generator {
	return &Generator{Lines: lines, Clock: monitorclock.New(), Timing: DefaultTiming}
}

// waitRowsHSync waits rows row intervals, each the full horizontal
// scan width, pulsing HSYNC at the end of every row; used for the
// vertical blanking/overscan intervals that still require HSYNC.
func (g *Generator) waitRowsHSync(rows int) {
	t := g.Timing
	full := t.HScanLeftBlanking + t.HScanLeftOverscan + t.HScanVisible + t.HScanRightOverscan + t.HScanRightBlanking
	for r := 0; r < rows; r++ {
		g.Clock.AccumulatePixels(int64(full))
		g.Clock.Wait()

		g.Lines.SetHSync(true)
		g.Clock.AccumulatePixels(int64(t.HScanSync))
		g.Clock.BusyWait()
		g.Lines.SetHSync(false)
	}
}

// Start anchors the generator's clock; call once before the first
// RunFrame.
func (g *Generator) Start() {
	g.Clock.Start()
}

// RunFrame scans fb (a packed BPP4 framebuffer, Width*Height matching
// Timing.VScanVisible rows of source pixels) once: top vertical
// blanking, 200 visible rows each decoded and clocked out pixel by
// pixel, bottom vertical blanking, then a VSYNC pulse.
func (g *Generator) RunFrame(fb *frame.Data) {
	t := g.Timing

	g.waitRowsHSync(t.VScanTopBlanking + t.VScanTopOverscan)

	for row := 0; row < t.VScanVisible && row < fb.Height; row++ {
		g.Clock.AccumulatePixels(int64(t.HScanLeftBlanking + t.HScanLeftOverscan))
		g.Clock.Wait()

		for col := 0; col < fb.Width; col++ {
			o := *fb.U8(col, row)
			if col%2 == 1 {
				o >>= 4
			}
			// Nibble bit layout is bit0=B, bit1=G, bit2=R, bit3=I
			// (cgapalette.Generate encodes the CGA palette the same way).
			b := o&1 != 0
			gr := o&2 != 0
			r := o&4 != 0
			i := o&8 != 0

			g.Lines.SetRGBI(r, gr, b, i)

			g.Clock.AccumulatePixels(int64(t.FramebufferPixelWidth))
			g.Clock.BusyWait()
		}

		g.Clock.AccumulatePixels(int64(t.HScanRightOverscan + t.HScanRightBlanking))
		g.Clock.Wait()

		g.Lines.SetHSync(true)
		g.Clock.AccumulatePixels(int64(t.HScanSync))
		g.Clock.BusyWait()
		g.Lines.SetHSync(false)
	}

	g.waitRowsHSync(t.VScanBottomOverscan + t.VScanBottomBlanking)

	g.Lines.SetVSync(true)
	g.waitRowsHSync(t.VScanSync)
	g.Lines.SetVSync(false)
}

// Run scans frames from next until it returns false, stopping
// immediately (without scanning a partial frame) if stop is closed
// between frames. next should block until the next framebuffer is
// ready and report ok=false when the generator should shut down.
func (g *Generator) Run(stop <-chan struct{}, next func() (fb *frame.Data, ok bool)) {
	g.Start()
	for {
		select {
		case <-stop:
			return
		default:
		}
		fb, ok := next()
		if !ok {
			return
		}
		g.RunFrame(fb)
	}
}
