/*
NAME
  senders.go

DESCRIPTION
  senders.go implements the UDP frame_data transport: a receiver that
  decodes incoming datagrams into frame.Data values, and a sender that
  hands outgoing packed frames to a pool buffer so that a slow or
  congested network write never blocks the real-time processing loop.

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

package downsample

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"net"
	"sync"
	"time"

	"github.com/ausocean/utils/bitrate"
	"github.com/ausocean/utils/logging"
	"github.com/ausocean/utils/pool"

	"github.com/ausocean/cgacast/frame"
)

// headerSize is the byte length of the frame_data datagram header:
// width, height, bpp, pitch (uint32 each) followed by aspect ratio
// (float64, as its IEEE-754 bit pattern).
const headerSize = 4*4 + 8

// maxDatagram is the largest UDP payload the receiver will accept;
// generous enough for an uncompressed 640x400 32bpp frame.
const maxDatagram = 1 << 20

// encodeFrame serialises f as a frame_data datagram.
func encodeFrame(f *frame.Data) []byte {
	buf := make([]byte, headerSize+len(f.Buf))
	binary.BigEndian.PutUint32(buf[0:], uint32(f.Width))
	binary.BigEndian.PutUint32(buf[4:], uint32(f.Height))
	binary.BigEndian.PutUint32(buf[8:], uint32(f.BPP))
	binary.BigEndian.PutUint32(buf[12:], uint32(f.Pitch))
	binary.BigEndian.PutUint64(buf[16:], math.Float64bits(f.AspectRatio))
	copy(buf[headerSize:], f.Buf)
	return buf
}

// decodeFrame deserialises a frame_data datagram into dst, resizing it
// as needed. It reports an error if d is too short to contain a valid
// header or its declared payload.
func decodeFrame(d []byte, dst *frame.Data) error {
	if len(d) < headerSize {
		return fmt.Errorf("downsample: datagram too short for frame_data header: %d bytes", len(d))
	}
	width := int(binary.BigEndian.Uint32(d[0:]))
	height := int(binary.BigEndian.Uint32(d[4:]))
	bpp := int(binary.BigEndian.Uint32(d[8:]))
	pitch := int(binary.BigEndian.Uint32(d[12:]))
	ar := math.Float64frombits(binary.BigEndian.Uint64(d[16:]))

	payload := d[headerSize:]
	if len(payload) < pitch*height {
		return fmt.Errorf("downsample: datagram payload shorter than declared frame: have %d, want %d", len(payload), pitch*height)
	}

	dst.ResizePitch(width, height, pitch, bpp)
	dst.AspectRatio = ar
	copy(dst.Buf, payload[:pitch*height])
	return nil
}

// frameReceiver listens on a UDP socket for frame_data datagrams.
type frameReceiver struct {
	conn *net.UDPConn
	log  logging.Logger
}

// newFrameReceiver binds addr (an "ip:port" string) and returns a
// frameReceiver ready to be polled via Recv.
func newFrameReceiver(addr string, log logging.Logger) (*frameReceiver, error) {
	a, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("downsample: invalid recv address %q: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", a)
	if err != nil {
		return nil, fmt.Errorf("downsample: could not bind recv address %q: %w", addr, err)
	}
	return &frameReceiver{conn: conn, log: log}, nil
}

// Recv blocks until a datagram arrives, decoding it into dst.
func (r *frameReceiver) Recv(dst *frame.Data) error {
	buf := make([]byte, maxDatagram)
	n, _, err := r.conn.ReadFromUDP(buf)
	if err != nil {
		return fmt.Errorf("downsample: recv failed: %w", err)
	}
	return decodeFrame(buf[:n], dst)
}

// Close releases the receiver's socket.
func (r *frameReceiver) Close() error { return r.conn.Close() }

// udpSender implements io.WriteCloser over a UDP socket via a pool
// buffer, so Write returns immediately even while a previous datagram
// is still in flight; a background goroutine drains the pool and
// performs the actual network write.
type udpSender struct {
	conn *net.UDPConn
	pool *pool.Buffer
	log  logging.Logger
	rate *bitrate.Calculator
	done chan struct{}
	wg   sync.WaitGroup
}

const poolReadTimeout = 1 * time.Second

// newUDPSender dials addr and starts the sender's output routine. rb
// is the pool buffer outgoing frames are written into; rate, if
// non-nil, is notified of every successful send's size.
func newUDPSender(addr string, log logging.Logger, rb *pool.Buffer, rate *bitrate.Calculator) (*udpSender, error) {
	a, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("downsample: invalid send address %q: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, a)
	if err != nil {
		return nil, fmt.Errorf("downsample: could not dial send address %q: %w", addr, err)
	}
	s := &udpSender{conn: conn, pool: rb, log: log, rate: rate, done: make(chan struct{})}
	s.wg.Add(1)
	go s.output()
	return s, nil
}

func (s *udpSender) output() {
	defer s.wg.Done()
	var chunk *pool.Chunk
	for {
		select {
		case <-s.done:
			return
		default:
		}
		if chunk == nil {
			var err error
			chunk, err = s.pool.Next(poolReadTimeout)
			switch err {
			case nil, io.EOF:
			case pool.ErrTimeout:
				continue
			default:
				s.log.Error("downsample: pool read error", "error", err.Error())
				continue
			}
		}
		if chunk == nil {
			continue
		}
		n, err := s.conn.Write(chunk.Bytes())
		if err != nil {
			s.log.Warning("downsample: udp send failed", "error", err.Error())
		} else if s.rate != nil {
			s.rate.Report(n)
		}
		chunk.Close()
		chunk = nil
	}
}

// Write implements io.Writer by handing d to the pool buffer.
func (s *udpSender) Write(d []byte) (int, error) {
	n, err := s.pool.Write(d)
	if err != nil {
		return n, fmt.Errorf("downsample: pool write failed: %w", err)
	}
	s.pool.Flush()
	return len(d), nil
}

// Close stops the output routine and closes the UDP socket.
func (s *udpSender) Close() error {
	close(s.done)
	s.wg.Wait()
	return s.conn.Close()
}
