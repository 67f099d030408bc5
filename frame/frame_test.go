/*
DESCRIPTION
  frame_test.go tests the Data buffer invariants (pitch/bpp/resize),
  the 16bpp/32bpp packed-pixel accessors, and the r5g6b5/a8r8g8b8 pixel
  format encode/decode round trip.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package frame

import "testing"

func TestResizeInvariant(t *testing.T) {
	d := NewOwned(16, 8, BPP32)
	if d.Pitch < minPitch(16, BPP32) {
		t.Errorf("Pitch = %d, want >= %d", d.Pitch, minPitch(16, BPP32))
	}
	if len(d.Buf) != d.Pitch*d.Height {
		t.Errorf("len(Buf) = %d, want %d", len(d.Buf), d.Pitch*d.Height)
	}
}

func TestResizeZeroesOnReuse(t *testing.T) {
	d := NewOwned(4, 4, BPP32)
	*d.U32(0, 0) = 0xFFFFFFFF
	d.Resize(4, 4, BPP32)
	if *d.U32(0, 0) != 0 {
		t.Error("Resize did not zero the reused buffer")
	}
}

func TestBorrowPanicsOnResize(t *testing.T) {
	buf := make([]byte, 64)
	d := Borrow(4, 4, BPP32, 0, 4.0/3.0, buf)
	defer func() {
		if recover() == nil {
			t.Error("expected Resize on a borrowed frame to panic")
		}
	}()
	d.Resize(8, 8, BPP32)
}

func TestSetGetPacked16(t *testing.T) {
	d := NewOwned(2, 2, BPP16)
	d.SetPacked(1, 1, 0xBEEF)
	if got := d.GetPacked(1, 1); got != 0xBEEF {
		t.Errorf("GetPacked = %#x, want %#x", got, 0xBEEF)
	}
}

func TestSetGetPacked32(t *testing.T) {
	d := NewOwned(2, 2, BPP32)
	d.SetPacked(0, 1, 0xAABBCCDD)
	if got := d.GetPacked(0, 1); got != 0xAABBCCDD {
		t.Errorf("GetPacked = %#x, want %#x", got, 0xAABBCCDD)
	}
}

func TestGetPackedPanicsOnBadBPP(t *testing.T) {
	d := NewOwned(2, 2, BPP4)
	defer func() {
		if recover() == nil {
			t.Error("expected GetPacked on BPP4 frame to panic")
		}
	}()
	d.GetPacked(0, 0)
}

func TestR5G6B5RoundTrip(t *testing.T) {
	for k := uint32(0); k < 1<<R5G6B5.VisibleBits(); k += 97 {
		c := ToFloatSRGB(R5G6B5, k)
		got := FromFloatSRGB(R5G6B5, c)
		if got != k {
			t.Errorf("FromFloatSRGB(ToFloatSRGB(%#x)) = %#x, want %#x", k, got, k)
		}
	}
}

func TestA8R8G8B8ChannelExtremes(t *testing.T) {
	c := ToFloatSRGB(A8R8G8B8, 0x00FFFFFF)
	want := RGB{1, 1, 1}
	if c != want {
		t.Errorf("ToFloatSRGB(white) = %v, want %v", c, want)
	}
	k := FromFloatSRGB(A8R8G8B8, RGB{0, 0, 0})
	if k != 0 {
		t.Errorf("FromFloatSRGB(black) = %#x, want 0", k)
	}
}

func TestVisibleBits(t *testing.T) {
	if R5G6B5.VisibleBits() != 16 {
		t.Errorf("R5G6B5.VisibleBits() = %d, want 16", R5G6B5.VisibleBits())
	}
	if A8R8G8B8.VisibleBits() != 24 {
		t.Errorf("A8R8G8B8.VisibleBits() = %d, want 24", A8R8G8B8.VisibleBits())
	}
}
