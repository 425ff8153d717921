/*
NAME
  delta_test.go

DESCRIPTION
  delta_test.go tests the frame compression/decompression pipeline,
  including the boundary scenarios from the format specification.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package delta

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func encodeDecode(t *testing.T, w, h int, frames [][]uint16) [][]uint16 {
	t.Helper()
	enc := NewCodec(w, h)
	dec := NewCodec(w, h)

	var out [][]uint16
	for i, pix := range frames {
		bitWidth, payload, err := enc.EncodeFrame(pix)
		if err != nil {
			t.Fatalf("frame %d: EncodeFrame: %v", i, err)
		}
		got, err := dec.DecodeFrame(bitWidth, payload)
		if err != nil {
			t.Fatalf("frame %d: DecodeFrame: %v", i, err)
		}
		out = append(out, got)
	}
	return out
}

func TestRoundTripAllEqual(t *testing.T) {
	w, h := 4, 3
	pix := make([]uint16, w*h)
	for i := range pix {
		pix[i] = 500
	}
	got := encodeDecode(t, w, h, [][]uint16{pix})
	if diff := cmp.Diff([][]uint16{pix}, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripTinyDelta(t *testing.T) {
	w, h := 4, 3
	base := make([]uint16, w*h)
	for i := range base {
		base[i] = 1000
	}
	next := append([]uint16(nil), base...)
	next[5]++

	got := encodeDecode(t, w, h, [][]uint16{base, next})
	want := [][]uint16{base, next}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripBigJumpForcesWidth16(t *testing.T) {
	w, h := 160, 1
	base := make([]uint16, w*h)
	for i := range base {
		base[i] = 1000
	}
	next := append([]uint16(nil), base...)
	next[0] += 32767

	enc := NewCodec(w, h)
	dec := NewCodec(w, h)

	bw1, p1, err := enc.EncodeFrame(base)
	if err != nil {
		t.Fatal(err)
	}
	got1, err := dec.DecodeFrame(bw1, p1)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(base, got1); diff != "" {
		t.Errorf("frame 1 mismatch (-want +got):\n%s", diff)
	}

	bw2, p2, err := enc.EncodeFrame(next)
	if err != nil {
		t.Fatal(err)
	}
	if bw2 != 16 {
		t.Errorf("got bit width %d, want 16", bw2)
	}
	got2, err := dec.DecodeFrame(bw2, p2)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(next, got2); diff != "" {
		t.Errorf("frame 2 mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripStepChange(t *testing.T) {
	w, h := 8, 6
	base := make([]uint16, w*h)
	for i := range base {
		base[i] = uint16(100 + i)
	}
	next := make([]uint16, w*h)
	for i := range next {
		next[i] = base[i] + 1
	}

	got := encodeDecode(t, w, h, [][]uint16{base, next})
	want := [][]uint16{base, next}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripRandomFrames(t *testing.T) {
	w, h := 160, 120
	rng := rand.New(rand.NewSource(1))

	var frames [][]uint16
	for i := 0; i < 10; i++ {
		pix := make([]uint16, w*h)
		for j := range pix {
			pix[j] = uint16(rng.Intn(65536))
		}
		frames = append(frames, pix)
	}

	got := encodeDecode(t, w, h, frames)
	if diff := cmp.Diff(frames, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRejectsTooWideBitWidth(t *testing.T) {
	dec := NewCodec(4, 4)
	if _, err := dec.DecodeFrame(17, make([]byte, 4)); err == nil {
		t.Fatal("expected error for bit width > 16")
	}
}
