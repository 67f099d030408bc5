/*
DESCRIPTION
  clock.go implements the dual-clock timing primitive the scan generator
  uses to hit the CGA monitor's pixel-accurate timing: a monotonic wall
  clock for coarse, sleep-based waits during horizontal/vertical blanking,
  and a cycle-counter-driven busy spin for the sub-microsecond accuracy
  needed inside a visible row.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package monitorclock implements the dual monotonic-clock/cycle-counter
// timing primitive the CGA scan generator uses to meet the monitor's
// horizontal/vertical blanking and pixel-width timing.
package monitorclock

import (
	"time"

	"periph.io/x/periph/host/cpu"
)

// PixelClockHz is the CGA pixel clock frequency the scan timing constants
// in the monitor spec are derived from.
const PixelClockHz = 14318180 // 14.31818 MHz.

// PixelIntervalNs returns the duration, in nanoseconds, of p pixel
// intervals at width pixels each, at the CGA pixel clock rate.
func PixelIntervalNs(p, width int64) int64 {
	return p * width * 1e9 / PixelClockHz
}

// Clock composes a monotonic wall-clock deadline (for coarse waits
// spanning tens of microseconds or more) with a cycle-counter deadline
// (for busy-spinning to sub-microsecond accuracy inside a visible row).
// The zero value is not ready for use; call Start first.
type Clock struct {
	freqHz int64 // cycles/second, from cpu.MaxSpeed(); 0 disables cycle accounting.

	wallDeadline  time.Time
	cycleDeadline int64 // cycles, relative to an arbitrary epoch.
	cycleEpoch    time.Time
}

// New returns a Clock that derives its cycle-counter frequency from
// periph's reported CPU max speed. If that can't be determined (e.g. not
// running on Linux), cycle accounting degrades gracefully to the wall
// clock alone.
func New() *Clock {
	return &Clock{freqHz: cpu.MaxSpeed()}
}

// Start anchors both the wall-clock and cycle-counter deadlines to now.
func (c *Clock) Start() {
	now := time.Now()
	c.wallDeadline = now
	c.cycleEpoch = now
	c.cycleDeadline = 0
}

// Accumulate advances both deadlines by ns nanoseconds.
func (c *Clock) Accumulate(ns int64) {
	c.wallDeadline = c.wallDeadline.Add(time.Duration(ns))
	c.cycleDeadline += c.nsToCycles(ns)
}

// AccumulatePixels advances both deadlines by the time p pixels (at
// 1-pixel width) take at the CGA pixel clock.
func (c *Clock) AccumulatePixels(p int64) {
	c.Accumulate(PixelIntervalNs(p, 1))
}

func (c *Clock) nsToCycles(ns int64) int64 {
	if c.freqHz == 0 {
		return 0
	}
	return ns * c.freqHz / 1e9
}

// Wait sleeps until the accumulated wall-clock deadline.
func (c *Clock) Wait() {
	if d := time.Until(c.wallDeadline); d > 0 {
		time.Sleep(d)
	}
}

// WaitNs accumulates ns nanoseconds and then sleeps until that deadline.
func (c *Clock) WaitNs(ns int64) {
	c.Accumulate(ns)
	c.Wait()
}

// cyclesSince returns the number of cycles elapsed since cycleEpoch, at
// freqHz, or 0 if the frequency could not be determined.
func (c *Clock) cyclesSince(now time.Time) int64 {
	if c.freqHz == 0 {
		return 0
	}
	return c.nsToCycles(int64(now.Sub(c.cycleEpoch)))
}

// BusyWait spins on the cycle counter until the accumulated cycle
// deadline, then re-anchors the wall clock to the actual finish time so
// that drift accumulated during the spin doesn't compound into the next
// coarse wait. If the cycle frequency is unknown, it falls back to
// spinning against the wall clock directly.
func (c *Clock) BusyWait() {
	if c.freqHz == 0 {
		for time.Now().Before(c.wallDeadline) {
		}
		return
	}
	for c.cyclesSince(time.Now()) < c.cycleDeadline {
	}
	c.wallDeadline = time.Now()
}

// BusyWaitNs accumulates ns nanoseconds and then busy-spins until that
// deadline.
func (c *Clock) BusyWaitNs(ns int64) {
	c.Accumulate(ns)
	c.BusyWait()
}
