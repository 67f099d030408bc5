/*
DESCRIPTION
  variables.go contains a list of structs that provide a variable Name, type in
  a string format, a function for updating the variable in the Config struct
  from a string, and finally, a validation function to check the validity of the
  corresponding field value in the Config.

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

package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config map Keys.
const (
	KeyRecv                       = "Recv"
	KeySend                       = "Send"
	KeyAlgorithm                  = "Algorithm"
	KeyBayerLevel                 = "BayerLevel"
	KeyTemporalDithering          = "TemporalDithering"
	KeyStaggeredTemporalDithering = "StaggeredTemporalDithering"
	KeyLocalContrastGain          = "LocalContrastGain"
	KeyLocalContrastStddev        = "LocalContrastStddev"
	KeyBlackCrushLow              = "BlackCrushLow"
	KeyBlackCrushHigh             = "BlackCrushHigh"
	KeyScale                      = "Scale"
	KeyVSyncSignal                = "VSyncSignal"
	KeyEmulateCGA                 = "EmulateCGA"
	KeyPoolCapacity               = "PoolCapacity"
	KeyPoolStartElementSize       = "PoolStartElementSize"
	KeyPoolWriteTimeout           = "PoolWriteTimeout"
	KeyLogging                    = "logging"
	KeySuppress                   = "Suppress"
)

// Config map parameter types.
const (
	typeString = "string"
	typeUint   = "uint"
	typeFloat  = "float"
	typeBool   = "bool"
)

// Default variable values.
const (
	defaultAlgorithm           = AlgorithmNearest
	defaultBayerRows           = 8
	defaultBayerCols           = 8
	defaultTemporalDithering   = TemporalDitheringNone
	defaultLocalContrastStddev = 0.5
	defaultScaleX              = 1
	defaultScaleY              = 1

	// Ring buffer defaults, as used by the outgoing frame pool.
	defaultPoolCapacity         = 50000000 // => 50MB
	defaultPoolStartElementSize = 1000     // bytes
	defaultPoolWriteTimeout     = 5        // Seconds.
)

// Variables describes the variables that can be used for downsample
// control. These structs provide the name and type of variable, a
// function for updating this variable in a Config, and a function for
// validating the value of the variable.
var Variables = []struct {
	Name     string
	Type     string
	Update   func(*Config, string)
	Validate func(*Config)
}{
	{
		Name:   KeyRecv,
		Type:   typeString,
		Update: func(c *Config, v string) { c.Recv = v },
		Validate: func(c *Config) {
			if c.Recv == "" {
				c.Logger.Fatal("Recv address must be set")
			}
		},
	},
	{
		Name:   KeySend,
		Type:   typeString,
		Update: func(c *Config, v string) { c.Send = v },
		Validate: func(c *Config) {
			if c.Send == "" {
				c.Logger.Fatal("Send address must be set")
			}
		},
	},
	{
		Name: KeyAlgorithm,
		Type: "enum:nearest,bayer,temporal-error-diffusion,passthrough",
		Update: func(c *Config, v string) {
			switch strings.ToLower(v) {
			case "nearest":
				c.Algorithm = AlgorithmNearest
			case "bayer":
				c.Algorithm = AlgorithmBayer
			case "temporal-error-diffusion":
				c.Algorithm = AlgorithmTemporalErrorDiffusion
			case "passthrough":
				c.Algorithm = AlgorithmPassthrough
			default:
				c.Logger.Warning("invalid Algorithm param", "value", v)
			}
		},
		Validate: func(c *Config) {
			switch c.Algorithm {
			case AlgorithmNearest, AlgorithmBayer, AlgorithmTemporalErrorDiffusion, AlgorithmPassthrough:
			default:
				c.LogInvalidField(KeyAlgorithm, defaultAlgorithm)
				c.Algorithm = defaultAlgorithm
			}
		},
	},
	{
		Name: KeyBayerLevel,
		Type: typeString,
		Update: func(c *Config, v string) {
			rows, cols, err := parseIntPair(v)
			if err != nil {
				c.Logger.Warning("invalid BayerLevel param", "value", v)
				return
			}
			c.BayerRows, c.BayerCols = rows, cols
		},
		Validate: func(c *Config) {
			if c.BayerRows == 0 || c.BayerCols == 0 {
				c.LogInvalidField(KeyBayerLevel, fmt.Sprintf("%d,%d", defaultBayerRows, defaultBayerCols))
				c.BayerRows, c.BayerCols = defaultBayerRows, defaultBayerCols
			}
		},
	},
	{
		Name: KeyTemporalDithering,
		Type: "enum:,client,server",
		Update: func(c *Config, v string) {
			switch strings.ToLower(v) {
			case "", "none":
				c.TemporalDithering = TemporalDitheringNone
			case "client":
				c.TemporalDithering = TemporalDitheringClient
			case "server":
				c.TemporalDithering = TemporalDitheringServer
			default:
				c.Logger.Warning("invalid TemporalDithering param", "value", v)
			}
		},
	},
	{
		Name:   KeyStaggeredTemporalDithering,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.StaggeredTemporalDithering = parseBool(KeyStaggeredTemporalDithering, v, c) },
	},
	{
		Name:   KeyLocalContrastGain,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.LocalContrastGain = parseFloat(KeyLocalContrastGain, v, c) },
	},
	{
		Name:   KeyLocalContrastStddev,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.LocalContrastStddev = parseFloat(KeyLocalContrastStddev, v, c) },
		Validate: func(c *Config) {
			if c.LocalContrastStddev <= 0 {
				c.LogInvalidField(KeyLocalContrastStddev, defaultLocalContrastStddev)
				c.LocalContrastStddev = defaultLocalContrastStddev
			}
		},
	},
	{
		Name:   KeyBlackCrushLow,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.BlackCrushLow = parseFloat(KeyBlackCrushLow, v, c) },
	},
	{
		Name:   KeyBlackCrushHigh,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.BlackCrushHigh = parseFloat(KeyBlackCrushHigh, v, c) },
	},
	{
		Name: KeyScale,
		Type: typeString,
		Update: func(c *Config, v string) {
			x, y, err := parseUintPair(v)
			if err != nil {
				c.Logger.Warning("invalid Scale param", "value", v)
				return
			}
			c.ScaleX, c.ScaleY = x, y
		},
		Validate: func(c *Config) {
			if c.ScaleX == 0 {
				c.ScaleX = defaultScaleX
			}
			if c.ScaleY == 0 {
				c.ScaleY = defaultScaleY
			}
		},
	},
	{
		Name:   KeyVSyncSignal,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.VSyncSignal = parseBool(KeyVSyncSignal, v, c) },
	},
	{
		Name:   KeyEmulateCGA,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.EmulateCGA = parseBool(KeyEmulateCGA, v, c) },
	},
	{
		Name:   KeyPoolCapacity,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.PoolCapacity = parseUint(KeyPoolCapacity, v, c) },
		Validate: func(c *Config) {
			if c.PoolCapacity == 0 {
				c.LogInvalidField(KeyPoolCapacity, defaultPoolCapacity)
				c.PoolCapacity = defaultPoolCapacity
			}
		},
	},
	{
		Name:   KeyPoolStartElementSize,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.PoolStartElementSize = parseUint(KeyPoolStartElementSize, v, c) },
		Validate: func(c *Config) {
			if c.PoolStartElementSize == 0 {
				c.LogInvalidField(KeyPoolStartElementSize, defaultPoolStartElementSize)
				c.PoolStartElementSize = defaultPoolStartElementSize
			}
		},
	},
	{
		Name:   KeyPoolWriteTimeout,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.PoolWriteTimeout = parseUint(KeyPoolWriteTimeout, v, c) },
		Validate: func(c *Config) {
			if c.PoolWriteTimeout == 0 {
				c.LogInvalidField(KeyPoolWriteTimeout, defaultPoolWriteTimeout)
				c.PoolWriteTimeout = defaultPoolWriteTimeout
			}
		},
	},
	{
		Name: KeySuppress,
		Type: typeBool,
		Update: func(c *Config, v string) {
			c.Suppress = parseBool(KeySuppress, v, c)
		},
	},
}

func parseUint(n, v string, c *Config) uint {
	_v, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected unsigned int for param %s", n), "value", v)
	}
	return uint(_v)
}

func parseFloat(n, v string, c *Config) float64 {
	_v, err := strconv.ParseFloat(v, 64)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected float for param %s", n), "value", v)
	}
	return _v
}

func parseBool(n, v string, c *Config) (b bool) {
	switch strings.ToLower(v) {
	case "true":
		b = true
	case "false":
		b = false
	default:
		c.Logger.Warning(fmt.Sprintf("expect bool for param %s", n), "value", v)
	}
	return
}

// parseIntPair parses a CLI token of the form "N" (both components set
// to N) or "R,C".
func parseIntPair(v string) (a, b uint, err error) {
	parts := strings.Split(v, ",")
	switch len(parts) {
	case 1:
		n, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			return 0, 0, err
		}
		return uint(n), uint(n), nil
	case 2:
		x, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			return 0, 0, err
		}
		y, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return 0, 0, err
		}
		return uint(x), uint(y), nil
	default:
		return 0, 0, fmt.Errorf("invalid pair %q", v)
	}
}

// parseUintPair is an alias of parseIntPair; "scale" and "bayer-level"
// share the same "N" or "X,Y" token grammar.
func parseUintPair(v string) (x, y uint, err error) {
	return parseIntPair(v)
}
