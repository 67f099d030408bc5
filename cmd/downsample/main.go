/*
DESCRIPTION
  downsample is a netsender client that receives frame_data datagrams,
  quantizes them to the 16-color CGA palette via the render pipeline,
  and transmits the packed result downstream, per the --recv/--send/
  --algorithm/--bayer-level/--temporal-dithering/
  --staggered-temporal-dithering/--local-contrast-{gain,stddev}/--black-crush-{low,high}/
  --scale/--vsync-signal CLI surface.

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

// Package main is a netsender client for the CGA downsampling pipeline.
package main

import (
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/client/pi/netsender"
	"github.com/ausocean/utils/logging"

	"github.com/ausocean/cgacast/downsample"
	"github.com/ausocean/cgacast/downsample/config"
)

// Logging configuration, matching cmd/speaker/main.go's rotation
// parameters.
const (
	logPath      = "/var/log/downsample/downsample.log"
	logMaxSize   = 500 // MB
	logMaxBackup = 10
	logMaxAge    = 28 // days
	logVerbosity = logging.Info
	logSuppress  = true
)

func main() {
	var (
		recvPtr               = flag.String("recv", "", "UDP address to receive frame_data from (ip:port)")
		sendPtr               = flag.String("send", "", "UDP address to send packed frames to (ip:port)")
		algorithmPtr          = flag.String("algorithm", "nearest", "nearest | bayer | temporal-error-diffusion | passthrough")
		bayerLevelPtr         = flag.String("bayer-level", "8,8", "Bayer matrix size, N or R,C")
		temporalDitheringPtr  = flag.String("temporal-dithering", "", "client | server, empty to disable")
		staggeredPtr          = flag.Bool("staggered-temporal-dithering", false, "checkerboard first/second subframe selection")
		localContrastGainPtr  = flag.Float64("local-contrast-gain", 0, "local contrast gain, 0 disables the pass")
		localContrastStddevPtr = flag.Float64("local-contrast-stddev", 0.5, "local contrast blur standard deviation")
		blackCrushLowPtr      = flag.Float64("black-crush-low", 0, "black crush smootherstep low edge")
		blackCrushHighPtr     = flag.Float64("black-crush-high", 0, "black crush smootherstep high edge, 0 disables the pass")
		scalePtr              = flag.String("scale", "1,1", "pixel-replication scale, N or X,Y")
		vsyncSignalPtr        = flag.Bool("vsync-signal", false, "resend last frame if no vsync ack arrives within the watchdog interval")
		emulateCGAPtr         = flag.Bool("emulate-cga", false, "stored in the config as EmulateCGA; the downsample pipeline does not read it")
		loggingPtr            = flag.String("logging", "", "Debug | Info | Warning | Error | Fatal; passed to Update, which has no variable for it and ignores it")
	)
	flag.Parse()

	log := logging.New(
		logVerbosity,
		&lumberjack.Logger{Filename: logPath, MaxSize: logMaxSize, MaxBackups: logMaxBackup, MaxAge: logMaxAge},
		logSuppress,
	)

	ns, err := netsender.New(log, nil, nil, nil)
	if err != nil {
		log.Fatal("could not initialise netsender client", "error", err)
	}

	ds, err := downsample.New(config.Config{Logger: log}, ns)
	if err != nil {
		log.Fatal("could not create downsample", "error", err)
	}

	vars := map[string]string{
		config.KeyRecv:                       *recvPtr,
		config.KeySend:                       *sendPtr,
		config.KeyAlgorithm:                  *algorithmPtr,
		config.KeyBayerLevel:                 *bayerLevelPtr,
		config.KeyTemporalDithering:          *temporalDitheringPtr,
		config.KeyStaggeredTemporalDithering: boolStr(*staggeredPtr),
		config.KeyLocalContrastGain:          floatStr(*localContrastGainPtr),
		config.KeyLocalContrastStddev:        floatStr(*localContrastStddevPtr),
		config.KeyBlackCrushLow:              floatStr(*blackCrushLowPtr),
		config.KeyBlackCrushHigh:             floatStr(*blackCrushHighPtr),
		config.KeyScale:                      *scalePtr,
		config.KeyVSyncSignal:                boolStr(*vsyncSignalPtr),
		config.KeyEmulateCGA:                 boolStr(*emulateCGAPtr),
	}
	if *loggingPtr != "" {
		vars[config.KeyLogging] = *loggingPtr
	}

	log.Info("updating downsample with config", "config", vars)
	if err := ds.Update(vars); err != nil {
		log.Fatal("could not update downsample config", "error", err)
	}

	log.Info("starting downsample")
	if err := ds.Start(); err != nil {
		log.Fatal("could not start downsample", "error", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Info("stopping downsample")
	ds.Stop()
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func floatStr(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
