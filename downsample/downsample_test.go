/*
DESCRIPTION
  downsample_test.go provides integration testing of the Downsample API:
  starting a receive/process/transmit loop over loopback UDP sockets and
  confirming a sent frame_data datagram comes out the other end packed
  to 4bpp CGA indices.

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
	"net"
	"testing"
	"time"

	"github.com/ausocean/cgacast/downsample/config"
	"github.com/ausocean/cgacast/frame"
)

func freeUDPAddr(t *testing.T) string {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("could not find a free UDP port: %v", err)
	}
	addr := conn.LocalAddr().String()
	conn.Close()
	return addr
}

func TestDownsampleStartStop(t *testing.T) {
	recvAddr := freeUDPAddr(t)
	sendAddr := freeUDPAddr(t)

	cfg := config.Config{
		Logger:               (*testLogger)(t),
		Recv:                 recvAddr,
		Send:                 sendAddr,
		Algorithm:            config.AlgorithmNearest,
		BayerRows:            8,
		BayerCols:            8,
		ScaleX:               1,
		ScaleY:               1,
		LocalContrastStddev:  0.5,
		PoolCapacity:         1 << 16,
		PoolStartElementSize: 1024,
		PoolWriteTimeout:     1,
	}

	d, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("did not expect error from New(): %v", err)
	}

	if err := d.Start(); err != nil {
		t.Fatalf("did not expect error from Start(): %v", err)
	}
	if !d.Running() {
		t.Error("expected downsample to report running after Start")
	}

	// Listen for the packed output on sendAddr while feeding one frame
	// in on recvAddr.
	outAddr, err := net.ResolveUDPAddr("udp", sendAddr)
	if err != nil {
		t.Fatalf("could not resolve send addr: %v", err)
	}
	outConn, err := net.ListenUDP("udp", outAddr)
	if err != nil {
		t.Fatalf("could not listen on send addr: %v", err)
	}
	defer outConn.Close()
	outConn.SetReadDeadline(time.Now().Add(2 * time.Second))

	in := frame.Data{}
	in.Resize(4, 4, frame.BPP16)
	in.AspectRatio = 4.0 / 3.0
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			in.SetPacked(x, y, 0xFFFF) // White.
		}
	}

	datagram := encodeFrame(&in)
	recvConn, err := net.Dial("udp", recvAddr)
	if err != nil {
		t.Fatalf("could not dial recv addr: %v", err)
	}
	defer recvConn.Close()
	if _, err := recvConn.Write(datagram); err != nil {
		t.Fatalf("could not send test frame: %v", err)
	}

	buf := make([]byte, 1<<16)
	n, _, err := outConn.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("did not receive packed output: %v", err)
	}

	var out frame.Data
	if err := decodeFrame(buf[:n], &out); err != nil {
		t.Fatalf("could not decode packed output: %v", err)
	}
	if out.Width != 4 || out.Height != 4 || out.BPP != frame.BPP4 {
		t.Errorf("unexpected output shape: %dx%d bpp=%d", out.Width, out.Height, out.BPP)
	}

	d.Stop()
	if d.Running() {
		t.Error("expected downsample to report stopped after Stop")
	}
}

func TestDownsampleBayerWithTemporalDithering(t *testing.T) {
	recvAddr := freeUDPAddr(t)
	sendAddr := freeUDPAddr(t)

	cfg := config.Config{
		Logger:               (*testLogger)(t),
		Recv:                 recvAddr,
		Send:                 sendAddr,
		Algorithm:            config.AlgorithmBayer,
		BayerRows:            8,
		BayerCols:            8,
		TemporalDithering:    config.TemporalDitheringServer,
		ScaleX:               1,
		ScaleY:               1,
		LocalContrastStddev:  0.5,
		PoolCapacity:         1 << 16,
		PoolStartElementSize: 1024,
		PoolWriteTimeout:     1,
	}

	d, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("did not expect error from New(): %v", err)
	}

	// This exercises buildPipeline's combined-palette branch together
	// with AlgorithmBayer, which builds the dither.LUT over the 136-entry
	// combined palette rather than the base 16-entry one.
	if err := d.Start(); err != nil {
		t.Fatalf("did not expect error from Start(): %v", err)
	}
	if !d.Running() {
		t.Error("expected downsample to report running after Start")
	}

	outAddr, err := net.ResolveUDPAddr("udp", sendAddr)
	if err != nil {
		t.Fatalf("could not resolve send addr: %v", err)
	}
	outConn, err := net.ListenUDP("udp", outAddr)
	if err != nil {
		t.Fatalf("could not listen on send addr: %v", err)
	}
	defer outConn.Close()
	outConn.SetReadDeadline(time.Now().Add(2 * time.Second))

	in := frame.Data{}
	in.Resize(4, 4, frame.BPP16)
	in.AspectRatio = 4.0 / 3.0
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			in.SetPacked(x, y, 0xFFFF) // White.
		}
	}

	datagram := encodeFrame(&in)
	recvConn, err := net.Dial("udp", recvAddr)
	if err != nil {
		t.Fatalf("could not dial recv addr: %v", err)
	}
	defer recvConn.Close()
	if _, err := recvConn.Write(datagram); err != nil {
		t.Fatalf("could not send test frame: %v", err)
	}

	buf := make([]byte, 1<<16)
	n, _, err := outConn.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("did not receive packed output: %v", err)
	}

	var out frame.Data
	if err := decodeFrame(buf[:n], &out); err != nil {
		t.Fatalf("could not decode packed output: %v", err)
	}
	if out.Width != 4 || out.Height != 4 || out.BPP != frame.BPP8 {
		t.Errorf("unexpected output shape: %dx%d bpp=%d", out.Width, out.Height, out.BPP)
	}

	d.Stop()
}

func TestDownsampleUpdateWhileRunning(t *testing.T) {
	cfg := config.Config{
		Logger:               (*testLogger)(t),
		Recv:                 freeUDPAddr(t),
		Send:                 freeUDPAddr(t),
		Algorithm:            config.AlgorithmNearest,
		BayerRows:            8,
		BayerCols:            8,
		ScaleX:               1,
		ScaleY:               1,
		LocalContrastStddev:  0.5,
		PoolCapacity:         1 << 16,
		PoolStartElementSize: 1024,
		PoolWriteTimeout:     1,
	}

	d, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("did not expect error from New(): %v", err)
	}
	if err := d.Start(); err != nil {
		t.Fatalf("did not expect error from Start(): %v", err)
	}

	if err := d.Update(map[string]string{config.KeyAlgorithm: "bayer"}); err != nil {
		t.Fatalf("did not expect error from Update(): %v", err)
	}
	if d.Running() {
		t.Error("expected Update to leave downsample stopped, matching revid's reconfig discipline")
	}
	if d.Config().Algorithm != config.AlgorithmBayer {
		t.Errorf("expected algorithm to be updated to bayer, got %d", d.Config().Algorithm)
	}
}
