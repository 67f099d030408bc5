/*
DESCRIPTION
  pipeline.go implements the render-pass scheduler: a fixed-size worker
  pool that runs each pass of a pipeline across a barrier-synchronized set
  of goroutines, one goroutine per disjoint row range, before advancing to
  the next pass.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package pipeline runs a sequence of render Passes against a frame,
// partitioning each pass's work across a fixed pool of goroutines and
// barrier-synchronizing between passes.
package pipeline

import (
	"runtime"
	"sync"

	"github.com/ausocean/cgacast/frame"
)

// Context describes one worker's share of a pass: ThreadIdx identifies the
// worker among NumThreads peers, used to derive a disjoint row range via
// Rows.
type Context struct {
	ThreadIdx  int
	NumThreads int
}

// Rows partitions [0,height) into NumThreads disjoint, contiguous ranges
// and returns the one belonging to ThreadIdx.
func (c Context) Rows(height int) (begin, end int) {
	begin = height * c.ThreadIdx / c.NumThreads
	end = height * (c.ThreadIdx + 1) / c.NumThreads
	return begin, end
}

// Pass is one stage of the pipeline. Init runs once per frame, single
// threaded, and is responsible for sizing Own() to the pass's output
// shape. Render runs once per worker with a disjoint row range of the
// pass's output frame; it must only touch rows in ctx.Rows(out.Height).
type Pass interface {
	Init(in *frame.Data)
	Render(in, out *frame.Data, ctx Context)
	// Own returns the pass's owned output storage, resized by Init.
	Own() *frame.Data
	// NoOutput reports whether this pass's output should be skipped when
	// feeding the next pass (used by passes that write to a side channel,
	// e.g. a local-contrast moment buffer, rather than the main chain).
	NoOutput() bool
}

// Pipeline is a fixed sequence of passes executed by a pool of workers
// sized to GOMAXPROCS.
type Pipeline struct {
	Passes  []Pass
	Workers int
}

// New returns a Pipeline with Workers defaulted to runtime.GOMAXPROCS(0).
func New(passes ...Pass) *Pipeline {
	return &Pipeline{Passes: passes, Workers: runtime.GOMAXPROCS(0)}
}

// Run executes every pass of p against in, leaving the final pass's
// output in out. out is swapped with the last pass's own storage before
// and after that pass runs, so the final result lands in out without an
// extra copy while the pass keeps a reusable buffer for its next frame.
func (p *Pipeline) Run(in *frame.Data, out *frame.Data) {
	currentIn := in
	for i, pass := range p.Passes {
		last := i == len(p.Passes)-1
		if last {
			frame.Swap(pass.Own(), out)
		}

		pass.Init(currentIn)

		workers := p.Workers
		if workers < 1 {
			workers = 1
		}

		var wg sync.WaitGroup
		wg.Add(workers)
		for w := 0; w < workers; w++ {
			ctx := Context{ThreadIdx: w, NumThreads: workers}
			go func(ctx Context) {
				defer wg.Done()
				pass.Render(currentIn, pass.Own(), ctx)
			}(ctx)
		}
		wg.Wait()

		if last {
			frame.Swap(pass.Own(), out)
		}

		if !pass.NoOutput() {
			currentIn = pass.Own()
		}
	}
}
