/*
NAME
  config.go

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config contains the configuration settings for downsample.
package config

import (
	"github.com/ausocean/utils/logging"
)

// Downsampling algorithms.
const (
	AlgorithmNearest = iota
	AlgorithmBayer
	AlgorithmTemporalErrorDiffusion
	AlgorithmPassthrough
)

// TemporalDithering modes; TemporalDitheringNone means the
// --temporal-dithering flag was not given at all.
const (
	TemporalDitheringNone = iota
	TemporalDitheringClient
	TemporalDitheringServer
)

// Config provides parameters relevant to a downsample instance. A new
// config must be passed to the constructor. Default values for these
// fields are defined as consts in variables.go.
type Config struct {
	// Recv is the <ip:port> UDP address downsample listens on for
	// incoming frame_data datagrams.
	Recv string

	// Send is the <ip:port> UDP address downsample transmits packed
	// frames to.
	Send string

	// Algorithm selects the downsampling algorithm: one of
	// AlgorithmNearest, AlgorithmBayer, AlgorithmTemporalErrorDiffusion
	// or AlgorithmPassthrough.
	Algorithm uint8

	// BayerRows and BayerCols define the ordered-dither threshold map
	// size used by AlgorithmBayer. A single N on the CLI sets both.
	BayerRows, BayerCols uint

	// TemporalDithering selects how the 136-entry combined palette is
	// sent: server packs both candidate indices of each pixel into one
	// byte (8bpp) for the receiving device to alternate between, client
	// alternates between them on this device and sends plain 4bpp frames.
	TemporalDithering uint8

	// StaggeredTemporalDithering checkerboards which half of a
	// combined-palette pair is shown/sent first, halving visible
	// flicker at the cost of spatial blend resolution.
	StaggeredTemporalDithering bool

	// LocalContrastGain and LocalContrastStddev control the unsharp-mask
	// style local contrast boost applied before quantization. A gain of
	// 0 disables the pass entirely.
	LocalContrastGain   float64
	LocalContrastStddev float64

	// BlackCrushLow and BlackCrushHigh bound a smootherstep ramp that
	// attenuates shadow detail; the pass is skipped unless
	// BlackCrushHigh > 0.
	BlackCrushLow, BlackCrushHigh float64

	// ScaleX and ScaleY replicate each input pixel into an X by Y block
	// before quantization, without affecting aspect ratio; useful for
	// doubling dithering resolution on a 320x200 source.
	ScaleX, ScaleY uint

	// VSyncSignal, when true, runs a watchdog that re-sends the last
	// frame if no VSYNC acknowledgement from the monitor companion board
	// arrives within the watchdog interval. Frames are still sent as
	// soon as each one is processed.
	VSyncSignal bool

	// EmulateCGA is parsed and stored but not read by the downsample
	// pipeline; the analog blit safety no-op is controlled by the
	// emulateCGA argument of fit.Blitter.Blt.
	EmulateCGA bool

	// PoolCapacity, PoolStartElementSize and PoolWriteTimeout configure
	// the outgoing frame pool buffer used to decouple frame processing
	// from the (potentially blocking) UDP send.
	PoolCapacity         uint
	PoolStartElementSize uint
	PoolWriteTimeout     uint

	// Logger holds an implementation of the Logger interface. This must
	// be set for downsample to work correctly.
	Logger logging.Logger

	// LogLevel is the downsample logging verbosity level. Valid values
	// are defined by enums from the logger package: logging.Debug,
	// logging.Info, logging.Warning, logging.Error, logging.Fatal.
	LogLevel int8

	Suppress bool // Holds logger suppression state.
}

// Validate checks for any errors in the config fields and defaults
// settings if particular parameters have not been defined.
func (c *Config) Validate() error {
	for _, v := range Variables {
		if v.Validate != nil {
			v.Validate(c)
		}
	}
	return nil
}

// Update takes a map of configuration variable names and their
// corresponding values, parses the string values converting into the
// correct type, and then sets the config struct fields as appropriate.
func (c *Config) Update(vars map[string]string) {
	for _, value := range Variables {
		if v, ok := vars[value.Name]; ok && value.Update != nil {
			value.Update(c, v)
		}
	}
}

func (c *Config) LogInvalidField(name string, def interface{}) {
	c.Logger.Info(name+" bad or unset, defaulting", name, def)
}
