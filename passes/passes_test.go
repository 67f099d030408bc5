/*
DESCRIPTION
  passes_test.go tests the color-space conversion round trip, nearest-
  neighbour upscaling, black crush, DOSBox row-drop compensation, and
  the nearest-color quantizer pass.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package passes

import (
	"math"
	"testing"

	"github.com/ausocean/cgacast/cgapalette"
	"github.com/ausocean/cgacast/colorkernel"
	"github.com/ausocean/cgacast/frame"
	"github.com/ausocean/cgacast/output"
	"github.com/ausocean/cgacast/pipeline"
)

var single = pipeline.Context{ThreadIdx: 0, NumThreads: 1}

func TestLinearizeUnlinearizeRoundTrip(t *testing.T) {
	in := frame.NewOwned(4, 4, frame.BPP16)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			in.SetPacked(x, y, uint32(x*1000+y*37))
		}
	}

	var lin Linearize
	lin.Init(in)
	lin.Render(in, lin.Own(), single)

	var unlin Unlinearize
	unlin.Format = frame.R5G6B5
	unlin.Init(lin.Own())
	unlin.Render(lin.Own(), unlin.Own(), single)

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := in.GetPacked(x, y)
			got := unlin.Own().GetPacked(x, y)
			if got != want {
				t.Errorf("(%d,%d): got %#x, want %#x", x, y, got, want)
			}
		}
	}
}

func TestNearestScaleReplicatesBlock(t *testing.T) {
	in := frame.NewOwned(2, 2, frame.BPPLinear)
	c00 := colorkernel.RGB{0.1, 0.2, 0.3}
	*in.Linear(0, 0) = c00

	var ns NearestScale
	ns.W, ns.H = 3, 2
	ns.Init(in)
	ns.Render(in, ns.Own(), single)

	for j := 0; j < 2; j++ {
		for i := 0; i < 3; i++ {
			if got := *ns.Own().Linear(i, j); got != c00 {
				t.Errorf("replicated block (%d,%d) = %v, want %v", i, j, got, c00)
			}
		}
	}
}

func TestBlackCrushAttenuatesShadows(t *testing.T) {
	in := frame.NewOwned(1, 1, frame.BPPLinear)
	dark := colorkernel.RGB{0.01, 0.01, 0.01}
	*in.Linear(0, 0) = dark

	var bc BlackCrush
	bc.Low, bc.High = 0, 0.5
	bc.Init(in)
	bc.Render(in, bc.Own(), single)

	origP := colorkernel.RGBToHSP(dark)[2]
	gotP := colorkernel.RGBToHSP(*bc.Own().Linear(0, 0))[2]
	if gotP >= origP {
		t.Errorf("black crush did not attenuate shadow brightness: got %v, want < %v", gotP, origP)
	}
}

func TestBlackCrushLeavesHighlightsUntouched(t *testing.T) {
	in := frame.NewOwned(1, 1, frame.BPPLinear)
	bright := colorkernel.RGB{1, 1, 1}
	*in.Linear(0, 0) = bright

	var bc BlackCrush
	bc.Low, bc.High = 0, 0.5
	bc.Init(in)
	bc.Render(in, bc.Own(), single)

	got := *bc.Own().Linear(0, 0)
	for i := range got {
		if math.Abs(got[i]-bright[i]) > 1e-9 {
			t.Errorf("highlight channel %d = %v, want unchanged %v", i, got[i], bright[i])
		}
	}
}

func TestDOSBoxCompensateDropsOddRows(t *testing.T) {
	in := frame.NewOwned(2, 4, frame.BPP32)
	for y := 0; y < 4; y++ {
		in.SetPacked(0, y, uint32(y))
		in.SetPacked(1, y, uint32(y))
	}

	var p DOSBoxCompensate
	p.Init(in)
	if p.Own().Height != 2 {
		t.Fatalf("Own().Height = %d, want 2", p.Own().Height)
	}
	p.Render(in, p.Own(), single)

	for y := 0; y < 2; y++ {
		want := uint32(y * 2)
		if got := p.Own().GetPacked(0, y); got != want {
			t.Errorf("row %d: got %d, want %d (source row %d)", y, got, want, y*2)
		}
	}
}

func TestNearestQuantizerExactPaletteColors(t *testing.T) {
	palette := cgapalette.Linear()
	in := frame.NewOwned(4, 4, frame.BPPLinear)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			idx := (y*4 + x) % 16
			*in.Linear(x, y) = palette[idx]
		}
	}

	q := &Nearest{Palette: palette[:], Algorithm: output.Normal{}}
	q.Init(in)
	q.Render(in, q.Own(), single)

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := uint8((y*4 + x) % 16)
			o := *q.Own().U8(x, y)
			got := o & 0xF
			if x%2 == 1 {
				got = o >> 4
			}
			if got != want {
				t.Errorf("(%d,%d): got index %d, want %d", x, y, got, want)
			}
		}
	}
}
