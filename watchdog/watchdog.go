/*
DESCRIPTION
  watchdog.go implements the 333ms periodic VSYNC-acknowledge watchdog:
  if the monitor-side companion board hasn't acknowledged a vsync
  pulse within the interval, the last sent frame is retransmitted and
  a warning counter is incremented. When run under systemd, the
  watchdog also services the unit's own supervisor ping.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package watchdog implements the periodic vsync-acknowledge check
// described by the --vsync-signal option: absent an ack within the
// interval, the last frame is retransmitted and a warning counter is
// bumped. It also forwards systemd watchdog keepalive pings when
// supervised.
package watchdog

import (
	"sync/atomic"
	"time"

	"github.com/coreos/go-systemd/daemon"

	"github.com/ausocean/utils/logging"
)

// Interval is the vsync-acknowledge poll period; a var rather than a
// const so tests can shrink it.
var Interval = 333 * time.Millisecond

// AckSource reports whether a vsync acknowledge arrived since the last
// call; hwio.Lines.Acked satisfies this when wrapped to latch-and-clear,
// see NewLatch.
type AckSource func() bool

// Watchdog polls an AckSource every Interval; on a miss it calls Resend
// and increments Misses. It is safe to read Misses concurrently with
// Run via atomic access.
type Watchdog struct {
	Ack    AckSource
	Resend func()
	Log    logging.Logger

	Misses int64 // read via atomic.LoadInt64.

	systemd bool
}

// New returns a Watchdog that retransmits via resend whenever ack
// reports no acknowledge was seen during the preceding interval. If
// the process is running under systemd's watchdog supervision (per
// WATCHDOG_USEC in the environment), New also pings the systemd
// watchdog on every healthy (acknowledged) tick.
func New(ack AckSource, resend func(), log logging.Logger) *Watchdog {
	interval, err := daemon.SdWatchdogEnabled(false)
	w := &Watchdog{Ack: ack, Resend: resend, Log: log}
	w.systemd = err == nil && interval > 0
	return w
}

// Run polls Ack every Interval until stop is closed, calling Resend
// and incrementing Misses on every interval with no acknowledge.
func (w *Watchdog) Run(stop <-chan struct{}) {
	t := time.NewTicker(Interval)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C:
			if w.Ack() {
				if w.systemd {
					daemon.SdNotify(false, daemon.SdNotifyWatchdog)
				}
				continue
			}
			atomic.AddInt64(&w.Misses, 1)
			w.Log.Warning("vsync ack missed, resending last frame", "misses", atomic.LoadInt64(&w.Misses))
			w.Resend()
		}
	}
}

// Latch adapts a level-triggered acknowledge line (true = acked) into
// an edge-latched AckSource suitable for Watchdog: each call to the
// returned AckSource reports whether read has returned true since the
// previous call, then clears the latch. Sample must be called more
// often than Interval (e.g. once per scanned frame) for a brief ack
// pulse to be reliably caught.
type Latch struct {
	read func() bool
	seen int32
}

// NewLatch returns a Latch wrapping read.
func NewLatch(read func() bool) *Latch {
	return &Latch{read: read}
}

// Sample polls the underlying line and records a hit if it is high.
// Call this from the scan generator's per-frame loop.
func (l *Latch) Sample() {
	if l.read() {
		atomic.StoreInt32(&l.seen, 1)
	}
}

// AckSource returns the Watchdog-compatible accessor: true if Sample
// observed a hit since the last call, after which the latch clears.
func (l *Latch) AckSource() bool {
	return atomic.SwapInt32(&l.seen, 0) != 0
}
