/*
NAME
  downsample.go

DESCRIPTION
  downsample.go provides the Downsample type: an API for receiving
  frame_data datagrams, running them through the CGA render pipeline,
  and transmitting the packed result, mirroring revid.Revid's
  start/stop/update API and async-error-channel discipline but driving
  the CGA pipeline instead of an audio/video transcode chain.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Alan Noble <alan@ausocean.org>
  Dan Kortschak <dan@ausocean.org>
  Trek Hopton <trek@ausocean.org>
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package downsample provides an API for receiving sRGB frame_data
// datagrams, quantizing them to the 16-color CGA palette through the
// render pipeline, and transmitting the packed result downstream.
package downsample

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ausocean/client/pi/netsender"
	"github.com/ausocean/utils/bitrate"
	"github.com/ausocean/utils/pool"

	"github.com/ausocean/cgacast/downsample/config"
	"github.com/ausocean/cgacast/frame"
	"github.com/ausocean/cgacast/watchdog"
)

// Downsample provides methods to control a downsample session: start,
// stop and reconfigure a receive/process/transmit loop using the
// Config struct, the same shape revid.Revid exposes for its
// capture/transcode/send loop.
type Downsample struct {
	// cfg holds the downsample configuration. For historical reasons
	// (mirroring revid.Revid) it also carries the logger.
	cfg config.Config

	// ns holds the netsender.Sender responsible for HTTP var polling
	// and command delivery; unused by the render pipeline itself but
	// threaded through so Update can be driven by the same channel
	// revid.Revid is.
	ns *netsender.Sender

	recv   *frameReceiver
	sender *udpSender
	built  *builtPipeline
	dedupe frameHasher

	// bitrate tracks the outgoing packed-frame throughput.
	bitrate bitrate.Calculator

	// watchdog re-sends the last frame if no vsync acknowledgement
	// arrives within its interval; nil unless cfg.VSyncSignal.
	watchdog *watchdog.Watchdog
	ack      chan struct{}

	// lastSent is the most recently transmitted encoded frame, guarded
	// by lastSentMu; the watchdog's Resend callback retransmits it.
	lastSentMu sync.Mutex
	lastSent   []byte

	running bool
	wg      sync.WaitGroup
	err     chan error
	stop    chan struct{}
}

// New returns a pointer to a new Downsample with the desired
// configuration, and/or an error if construction was not successful.
func New(c config.Config, ns *netsender.Sender) (*Downsample, error) {
	d := Downsample{ns: ns, err: make(chan error)}
	if err := d.setConfig(c); err != nil {
		return nil, fmt.Errorf("could not set config, failed with error: %w", err)
	}
	go d.handleErrors()
	return &d, nil
}

// Config returns a copy of downsample's current config.
func (d *Downsample) Config() config.Config { return d.cfg }

// Bitrate returns the result of the most recent bitrate check.
func (d *Downsample) Bitrate() int { return d.bitrate.Bitrate() }

// Running reports whether the receive/process/transmit loop is active.
func (d *Downsample) Running() bool { return d.running }

func (d *Downsample) handleErrors() {
	for err := range d.err {
		if err != nil {
			d.cfg.Logger.Error("async error", "error", err.Error())
		}
	}
}

// setConfig validates c and, if valid, replaces d's current config.
func (d *Downsample) setConfig(c config.Config) error {
	d.cfg.Logger = c.Logger
	d.cfg.Logger.Debug("validating config")
	if err := c.Validate(); err != nil {
		return errors.New("config struct is bad: " + err.Error())
	}
	d.cfg.Logger.Info("config validated")
	d.cfg = c
	d.cfg.Logger.SetLevel(d.cfg.LogLevel)
	return nil
}

// reset swaps the current config of a Downsample with the passed
// configuration, and (re)builds the receiver, pipeline and sender
// accordingly.
func (d *Downsample) reset(c config.Config) error {
	d.cfg.Logger.Debug("setting config")
	if err := d.setConfig(c); err != nil {
		return fmt.Errorf("could not set config: %w", err)
	}
	d.cfg.Logger.Info("config set")

	d.cfg.Logger.Debug("building render pipeline")
	built, err := buildPipeline(&d.cfg)
	if err != nil {
		return fmt.Errorf("could not build pipeline: %w", err)
	}
	d.built = built
	d.cfg.Logger.Info("pipeline built")

	d.cfg.Logger.Debug("opening recv socket")
	recv, err := newFrameReceiver(d.cfg.Recv, d.cfg.Logger)
	if err != nil {
		return fmt.Errorf("could not open recv socket: %w", err)
	}
	d.recv = recv
	d.cfg.Logger.Info("recv socket open")

	nElements := int(d.cfg.PoolCapacity / d.cfg.PoolStartElementSize)
	writeTimeout := time.Duration(d.cfg.PoolWriteTimeout) * time.Second
	pb := pool.NewBuffer(int(d.cfg.PoolStartElementSize), nElements, writeTimeout)

	d.cfg.Logger.Debug("dialing send socket")
	sender, err := newUDPSender(d.cfg.Send, d.cfg.Logger, pb, &d.bitrate)
	if err != nil {
		d.recv.Close()
		return fmt.Errorf("could not dial send socket: %w", err)
	}
	d.sender = sender
	d.cfg.Logger.Info("send socket dialed")

	d.dedupe = frameHasher{}

	if d.cfg.VSyncSignal {
		d.ack = make(chan struct{}, 1)
		d.watchdog = watchdog.New(d.ackSource, d.resendLast, d.cfg.Logger)
	} else {
		d.watchdog = nil
	}

	return nil
}

// ackSource drains a pending vsync-ack notification without blocking;
// satisfies watchdog.AckSource. NotifyAck is how an external collaborator
// (the UDP recv path carrying an ack datagram from the monitor companion
// board, out of core scope per spec.md section 6) reports one.
func (d *Downsample) ackSource() bool {
	select {
	case <-d.ack:
		return true
	default:
		return false
	}
}

// NotifyAck records a vsync acknowledgement for the watchdog to observe
// on its next poll.
func (d *Downsample) NotifyAck() {
	if d.ack == nil {
		return
	}
	select {
	case d.ack <- struct{}{}:
	default:
	}
}

// resendLast retransmits the most recently sent packed frame.
func (d *Downsample) resendLast() {
	d.lastSentMu.Lock()
	last := d.lastSent
	d.lastSentMu.Unlock()
	if last == nil {
		return
	}
	if _, err := d.sender.conn.Write(last); err != nil {
		d.cfg.Logger.Warning("watchdog resend failed", "error", err.Error())
	}
}

// Start invokes a Downsample to start receiving, processing and
// transmitting frames according to its current configuration.
func (d *Downsample) Start() error {
	if d.running {
		d.cfg.Logger.Warning("start called, but downsample already running")
		return nil
	}

	d.stop = make(chan struct{})

	d.cfg.Logger.Debug("resetting downsample")
	if err := d.reset(d.cfg); err != nil {
		d.Stop()
		return err
	}
	d.cfg.Logger.Info("downsample reset")

	d.cfg.Logger.Debug("starting receive/process/transmit routine")
	d.wg.Add(1)
	go d.processFrom()

	if d.watchdog != nil {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.watchdog.Run(d.stop)
		}()
	}

	d.running = true
	return nil
}

// Stop closes down the receive/process/transmit loop, closing the
// recv/send sockets.
func (d *Downsample) Stop() {
	if !d.running {
		d.cfg.Logger.Warning("stop called but downsample isn't running")
		return
	}

	close(d.stop)

	if d.recv != nil {
		d.cfg.Logger.Debug("closing recv socket")
		if err := d.recv.Close(); err != nil {
			d.cfg.Logger.Error("could not close recv socket", "error", err.Error())
		}
	}

	d.cfg.Logger.Debug("waiting for routines to finish")
	d.wg.Wait()
	d.cfg.Logger.Info("routines finished")

	if d.sender != nil {
		d.cfg.Logger.Debug("closing send socket")
		if err := d.sender.Close(); err != nil {
			d.cfg.Logger.Error("could not close send socket", "error", err.Error())
		} else {
			d.cfg.Logger.Info("send socket closed")
		}
	}

	d.running = false
}

// Update takes a map of variables and their values and edits the
// current config if the variables are recognised as valid parameters.
// If the loop was running it is stopped first and left stopped.
func (d *Downsample) Update(vars map[string]string) error {
	if d.running {
		d.cfg.Logger.Debug("downsample running; stopping for re-config")
		d.Stop()
		d.cfg.Logger.Info("downsample was running; stopped for re-config")
	}

	d.cfg.Logger.Debug("checking vars from server", "vars", vars)
	d.cfg.Update(vars)
	d.cfg.Logger.Info("finished reconfig")
	d.cfg.Logger.Debug("config changed", "config", d.cfg)
	return nil
}

// processFrom is run as a routine reading frame_data datagrams from
// recv, pushing them through the render pipeline, and handing the
// packed result to sender, until Stop closes d.stop or the recv
// socket errors out from being closed.
func (d *Downsample) processFrom() {
	defer d.wg.Done()

	var in, out frame.Data
	for {
		select {
		case <-d.stop:
			return
		default:
		}

		if err := d.recv.Recv(&in); err != nil {
			select {
			case <-d.stop:
				return
			default:
			}
			d.err <- fmt.Errorf("recv failed: %w", err)
			continue
		}

		if !d.dedupe.Changed(&in) {
			continue
		}

		d.built.pl.Run(&in, &out)

		encoded := encodeFrame(&out)
		d.lastSentMu.Lock()
		d.lastSent = encoded
		d.lastSentMu.Unlock()

		if _, err := d.sender.Write(encoded); err != nil {
			d.cfg.Logger.Warning("send failed", "error", err.Error())
		}
	}
}
