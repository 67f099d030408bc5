/*
DESCRIPTION
  dedupe.go guards the pipeline against reprocessing an unchanged
  input frame. The upstream transport has no back-pressure signal of
  its own; a stalled or looping source can otherwise burn the worker
  pool re-quantizing a bitwise-identical frame every tick.

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
	"encoding/binary"
	"hash/fnv"

	"github.com/ausocean/cgacast/frame"
)

// frameHasher computes a fingerprint of a frame's shape and contents,
// cheap enough to run on every incoming datagram, so the caller can
// skip reprocessing a frame identical to the last one it saw.
type frameHasher struct {
	last   uint64
	primed bool
}

// hash returns a 64-bit FNV-1a digest of f's shape and buffer.
func hash(f *frame.Data) uint64 {
	h := fnv.New64a()
	var hdr [16]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(f.Width))
	binary.LittleEndian.PutUint32(hdr[4:], uint32(f.Height))
	binary.LittleEndian.PutUint32(hdr[8:], uint32(f.BPP))
	binary.LittleEndian.PutUint32(hdr[12:], uint32(f.Pitch))
	h.Write(hdr[:])
	h.Write(f.Buf)
	return h.Sum64()
}

// Changed reports whether f differs from the last frame passed to
// Changed, and records f's fingerprint as the new baseline. The first
// call always reports true.
func (d *frameHasher) Changed(f *frame.Data) bool {
	h := hash(f)
	if d.primed && h == d.last {
		return false
	}
	d.last = h
	d.primed = true
	return true
}
