/*
DESCRIPTION
  pipeline_test.go tests Context.Rows' disjoint/exhaustive row
  partitioning invariant and Pipeline.Run's barrier/swap/NoOutput
  semantics against a minimal fake Pass.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pipeline

import (
	"testing"

	"github.com/ausocean/cgacast/frame"
)

func TestContextRowsCoversExactlyOnce(t *testing.T) {
	const height = 37
	for n := 1; n <= 8; n++ {
		covered := make([]int, height)
		for w := 0; w < n; w++ {
			ctx := Context{ThreadIdx: w, NumThreads: n}
			begin, end := ctx.Rows(height)
			for r := begin; r < end; r++ {
				covered[r]++
			}
		}
		for r, c := range covered {
			if c != 1 {
				t.Fatalf("workers=%d: row %d covered %d times, want exactly 1", n, r, c)
			}
		}
	}
}

// addOnePass adds 1 to every pixel of a BPP32 frame, same shape as input.
type addOnePass struct {
	out frame.Data
}

func (p *addOnePass) Init(in *frame.Data) { p.out.Resize(in.Width, in.Height, frame.BPP32) }
func (p *addOnePass) Own() *frame.Data    { return &p.out }
func (p *addOnePass) NoOutput() bool      { return false }
func (p *addOnePass) Render(in, out *frame.Data, ctx Context) {
	begin, end := ctx.Rows(out.Height)
	for y := begin; y < end; y++ {
		for x := 0; x < out.Width; x++ {
			*out.U32(x, y) = *in.U32(x, y) + 1
		}
	}
}

// noOutputPass writes to a side buffer and reports NoOutput, so the next
// pass must still see the previous pass's output as its input.
type noOutputPass struct {
	out frame.Data
}

func (p *noOutputPass) Init(in *frame.Data) { p.out.Resize(in.Width, in.Height, frame.BPP32) }
func (p *noOutputPass) Own() *frame.Data    { return &p.out }
func (p *noOutputPass) NoOutput() bool      { return true }
func (p *noOutputPass) Render(in, out *frame.Data, ctx Context) {
	begin, end := ctx.Rows(out.Height)
	for y := begin; y < end; y++ {
		for x := 0; x < out.Width; x++ {
			*out.U32(x, y) = 0xDEADBEEF // Side channel; must not propagate.
		}
	}
}

func TestPipelineRunChainsPasses(t *testing.T) {
	in := frame.NewOwned(4, 4, frame.BPP32)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			in.SetPacked(x, y, 10)
		}
	}

	p := New(&addOnePass{}, &addOnePass{})
	var out frame.Data
	p.Run(in, &out)

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if got := out.GetPacked(x, y); got != 12 {
				t.Errorf("out(%d,%d) = %d, want 12 (10 + 1 + 1)", x, y, got)
			}
		}
	}
}

func TestPipelineRunSkipsNoOutputPass(t *testing.T) {
	in := frame.NewOwned(4, 4, frame.BPP32)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			in.SetPacked(x, y, 5)
		}
	}

	// noOutputPass writes garbage to a side channel; the final addOnePass
	// must still see in's original values, not noOutputPass's output.
	p := New(&noOutputPass{}, &addOnePass{})
	var out frame.Data
	p.Run(in, &out)

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if got := out.GetPacked(x, y); got != 6 {
				t.Errorf("out(%d,%d) = %d, want 6 (5 + 1, noOutputPass output discarded)", x, y, got)
			}
		}
	}
}
