/*
NAME
  pipeline.go

DESCRIPTION
  pipeline.go assembles the render pipeline described by a Config:
  linearize, optional pixel-replication scale, optional black crush and
  local contrast, the selected quantization algorithm, and the output
  packing strategy (plain, frame-alternating temporal, or async
  combined-palette) that algorithm writes through.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package downsample

import (
	"fmt"
	"math"

	"github.com/ausocean/cgacast/bayer"
	"github.com/ausocean/cgacast/cgapalette"
	"github.com/ausocean/cgacast/colorkernel"
	"github.com/ausocean/cgacast/dither"
	"github.com/ausocean/cgacast/downsample/config"
	"github.com/ausocean/cgacast/frame"
	"github.com/ausocean/cgacast/output"
	"github.com/ausocean/cgacast/passes"
	"github.com/ausocean/cgacast/pipeline"
)

// combineAllowed reports whether two combined-palette source colors may
// be temporally dithered against one another: their hues must be close
// (or either be too desaturated to have a meaningful hue) and their
// perceived values must be close, so flickering between them at the
// monitor's frame rate doesn't itself become visible as noise.
func combineAllowed(base []colorkernel.RGB) func(i, j int) bool {
	hsp := make([]colorkernel.HSP, len(base))
	for i, c := range base {
		hsp[i] = colorkernel.RGBToHSP(c)
	}
	return func(i, j int) bool {
		left, right := hsp[i], hsp[j]
		hueDist := math.Mod(math.Abs(left[0]-right[0]), 1)
		hasColor := left[1] > 0.25 && right[1] > 0.25
		valueDist := math.Abs(left[2] - right[2])
		return (hueDist < 0.25 || !hasColor) && valueDist < 0.15
	}
}

// builtPipeline bundles a constructed Pipeline with the output packing
// strategy its final pass writes through, so the sender can tell a
// plain 4bpp frame from an async 8bpp combined-palette one.
type builtPipeline struct {
	pl        *pipeline.Pipeline
	algorithm output.Algorithm
	async     bool
}

// buildPipeline constructs the render pipeline described by cfg.
func buildPipeline(cfg *config.Config) (*builtPipeline, error) {
	var stages []pipeline.Pass
	stages = append(stages, &passes.Linearize{})

	if cfg.ScaleX > 1 || cfg.ScaleY > 1 {
		stages = append(stages, &passes.NearestScale{W: int(cfg.ScaleX), H: int(cfg.ScaleY)})
	}

	if cfg.BlackCrushHigh > 0 {
		stages = append(stages, &passes.BlackCrush{Low: cfg.BlackCrushLow, High: cfg.BlackCrushHigh})
	}

	if cfg.LocalContrastGain != 0 {
		stages = passes.AddLocalContrast(stages, cfg.LocalContrastStddev, cfg.LocalContrastGain, cfg.BlackCrushLow, cfg.BlackCrushHigh)
	}

	base := cgapalette.Linear()
	palette := base[:]
	allowedPair := dither.AllowedDither

	var algorithm output.Algorithm = output.Normal{}
	async := false

	if cfg.TemporalDithering != config.TemporalDitheringNone {
		combined, pairs := cgapalette.Combine(palette)
		outPairs := make([]output.Pair, len(pairs))
		for k, p := range pairs {
			outPairs[k] = output.Pair{First: p.A, Second: p.B}
		}
		palette = combined
		// Indices into the combined palette are no longer IRGB nibbles,
		// so the base-16 hue-family rule no longer applies; pairing a
		// dithered Bayer cell's two combined colors must instead be
		// judged on their own HSP hue/value distance.
		allowedPair = combineAllowed(palette)

		if cfg.TemporalDithering == config.TemporalDitheringServer {
			async = true
			algorithm = &output.Async{Indices: outPairs, Staggered: cfg.StaggeredTemporalDithering}
		} else {
			algorithm = &output.Temporal{Indices: outPairs, Staggered: cfg.StaggeredTemporalDithering}
		}
	}

	switch cfg.Algorithm {
	case config.AlgorithmNearest:
		stages = append(stages, &passes.Nearest{Palette: palette, Algorithm: algorithm})
	case config.AlgorithmBayer:
		m, err := bayer.Generate(int(cfg.BayerRows), int(cfg.BayerCols))
		if err != nil {
			return nil, fmt.Errorf("downsample: building bayer map: %w", err)
		}
		lut := dither.NewLUT(palette, func(c colorkernel.RGB) dither.DitheredColor {
			best, _ := dither.EvalNearestDitheredColor(palette, allowedPair, c)
			return best
		})
		stages = append(stages, &passes.BayerR{Map: m, LUT: lut, Algorithm: algorithm})
	case config.AlgorithmTemporalErrorDiffusion:
		stages = append(stages, &passes.TemporalErrorDiffusion{Palette: palette, Algorithm: algorithm})
	case config.AlgorithmPassthrough:
		stages = append(stages, &passes.Unlinearize{Format: frame.A8R8G8B8})
	default:
		return nil, fmt.Errorf("downsample: unknown algorithm %d", cfg.Algorithm)
	}

	return &builtPipeline{pl: pipeline.New(stages...), algorithm: algorithm, async: async}, nil
}
