/*
DESCRIPTION
  clock_test.go tests the pixel-interval math and the Accumulate/Wait/
  BusyWait deadline bookkeeping, using an explicit freqHz rather than
  the CPU-probed value so results are deterministic under test.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package monitorclock

import (
	"testing"
	"time"
)

func TestPixelIntervalNs(t *testing.T) {
	// One full 640-pixel visible row at 1x pixel width.
	got := PixelIntervalNs(640, 1)
	want := int64(640) * 1e9 / PixelClockHz
	if got != want {
		t.Errorf("PixelIntervalNs(640,1) = %d, want %d", got, want)
	}
}

func TestAccumulateAdvancesWallDeadline(t *testing.T) {
	c := &Clock{freqHz: 1000000000} // 1 GHz, for exact ns<->cycle math.
	c.Start()
	before := c.wallDeadline
	c.Accumulate(1000)
	if got := c.wallDeadline.Sub(before); got != 1000*time.Nanosecond {
		t.Errorf("wallDeadline advanced by %v, want 1000ns", got)
	}
	if c.cycleDeadline != 1000 {
		t.Errorf("cycleDeadline = %d, want 1000 (1 cycle/ns at 1GHz)", c.cycleDeadline)
	}
}

func TestAccumulateZeroFreqSkipsCycleAccounting(t *testing.T) {
	c := &Clock{freqHz: 0}
	c.Start()
	c.Accumulate(5000)
	if c.cycleDeadline != 0 {
		t.Errorf("cycleDeadline = %d, want 0 when freqHz is unknown", c.cycleDeadline)
	}
}

func TestWaitReturnsImmediatelyForPastDeadline(t *testing.T) {
	c := &Clock{freqHz: 0}
	c.Start()
	c.wallDeadline = time.Now().Add(-time.Hour)
	done := make(chan struct{})
	go func() {
		c.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return promptly for a past deadline")
	}
}

func TestBusyWaitFallsBackToWallClockWhenFreqUnknown(t *testing.T) {
	c := &Clock{freqHz: 0}
	c.Start()
	c.wallDeadline = time.Now().Add(-time.Millisecond)
	done := make(chan struct{})
	go func() {
		c.BusyWait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("BusyWait did not return promptly for a past deadline")
	}
}
