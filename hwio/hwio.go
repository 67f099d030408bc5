/*
DESCRIPTION
  hwio.go adapts periph.io's GPIO pin registry to the narrow Lines
  interface the scan generator drives: a set of named, independently
  settable output lines plus one input acknowledge line, with pin
  numbers matching the CGA companion board's wiring loom.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package hwio binds periph.io/x/periph GPIO pins to the scan
// generator's Lines interface, and declares the CGA companion board's
// pin assignments.
package hwio

import (
	"fmt"

	"github.com/pkg/errors"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"
)

// Pin numbers on the companion board's GPIO header, ported unchanged
// from the monitor driver's wiring loom.
const (
	PinVSync     = 8
	PinHSync     = 7
	PinRed       = 10
	PinGreen     = 9
	PinBlue      = 11
	PinIntensity = 4
	PinVSyncAck  = 17 // --vsync-signal: monitor-side acknowledge line.
)

// Lines is the set of output lines the scan generator toggles each
// pixel/row/field, plus the one input line it may poll for a
// monitor-side vsync acknowledge.
type Lines struct {
	VSync, HSync             gpio.PinOut
	Red, Green, Blue, Intens gpio.PinOut
	Ack                      gpio.PinIn // nil if --vsync-signal is unset.
}

// Open initialises periph's host drivers and resolves the CGA output
// lines by BCM GPIO number. withAck also resolves the vsync
// acknowledge input line; callers that don't use --vsync-signal should
// pass false to avoid claiming a pin they don't own.
func Open(withAck bool) (*Lines, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "hwio: periph host init failed")
	}

	l := &Lines{}
	var err error
	for _, p := range []struct {
		num  int
		dst  *gpio.PinOut
	}{
		{PinVSync, &l.VSync},
		{PinHSync, &l.HSync},
		{PinRed, &l.Red},
		{PinGreen, &l.Green},
		{PinBlue, &l.Blue},
		{PinIntensity, &l.Intens},
	} {
		pin := gpioreg.ByName(fmt.Sprintf("GPIO%d", p.num))
		if pin == nil {
			return nil, errors.Errorf("hwio: pin GPIO%d not found", p.num)
		}
		if err = pin.Out(gpio.Low); err != nil {
			return nil, errors.Wrapf(err, "hwio: failed to configure GPIO%d as output", p.num)
		}
		*p.dst = pin
	}

	if withAck {
		ackPin := gpioreg.ByName(fmt.Sprintf("GPIO%d", PinVSyncAck))
		if ackPin == nil {
			return nil, errors.Errorf("hwio: ack pin GPIO%d not found", PinVSyncAck)
		}
		in, ok := ackPin.(gpio.PinIn)
		if !ok {
			return nil, errors.Errorf("hwio: GPIO%d does not support input", PinVSyncAck)
		}
		if err = in.In(gpio.PullDown, gpio.NoEdge); err != nil {
			return nil, errors.Wrapf(err, "hwio: failed to configure GPIO%d as input", PinVSyncAck)
		}
		l.Ack = in
	}

	return l, nil
}

// SetRGBI drives the four color lines directly, matching the source
// monitor driver's per-pixel gpio_set/gpio_clr idiom of writing every
// line on every pixel rather than only the ones that changed.
func (l *Lines) SetRGBI(r, g, b, i bool) {
	l.Red.Out(gpio.Level(r))
	l.Green.Out(gpio.Level(g))
	l.Blue.Out(gpio.Level(b))
	l.Intens.Out(gpio.Level(i))
}

// SetHSync drives the horizontal sync line.
func (l *Lines) SetHSync(on bool) { l.HSync.Out(gpio.Level(on)) }

// SetVSync drives the vertical sync line.
func (l *Lines) SetVSync(on bool) { l.VSync.Out(gpio.Level(on)) }

// Acked reports the current level of the vsync acknowledge line. It
// always returns true if no ack line was opened, so callers that don't
// use --vsync-signal never see a spurious watchdog trip.
func (l *Lines) Acked() bool {
	if l.Ack == nil {
		return true
	}
	return l.Ack.Read() == gpio.High
}
