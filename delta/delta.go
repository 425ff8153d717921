/*
NAME
  delta.go

DESCRIPTION
  delta.go implements the CPTV frame compression pipeline: snake
  reordering, first-order delta against the previous frame,
  second-order delta (delta-of-deltas) along the linearised scan, and
  adaptive signed bit-width packing with a 32-bit seed.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package delta implements CPTV per-frame compression and
// decompression: snake reordering, delta-of-deltas, and adaptive
// bit-width packing.
package delta

import (
	"encoding/binary"
	"fmt"

	"github.com/ausocean/cptv/bitio"
	"github.com/ausocean/cptv/snake"
)

// MaxBitWidth is the widest bit-width this codec will decode.
const MaxBitWidth = 16

// Codec holds the single-previous-frame state needed to encode or
// decode a sequence of frames of fixed dimensions.
type Codec struct {
	W, H int

	// prev is the previously reconstructed (decode) or previously
	// encoded (encode), snake-ordered, signed linear frame. nil before
	// the first frame.
	prev []int32
}

// NewCodec returns a Codec for frames of the given dimensions.
func NewCodec(w, h int) *Codec {
	return &Codec{W: w, H: h}
}

// DecodeFrame reconstructs a width*height row-major uint16 frame from
// a frame's bit-width and packed payload, given the codec's current
// reference frame (zero-initialised on the first call).
func (c *Codec) DecodeFrame(bitWidth int, packed []byte) ([]uint16, error) {
	if bitWidth < 1 || bitWidth > MaxBitWidth {
		return nil, fmt.Errorf("delta: bit width %d out of range", bitWidth)
	}
	n := c.W * c.H
	if len(packed) < 4 {
		return nil, fmt.Errorf("delta: frame payload too short for seed")
	}

	seed := int32(binary.LittleEndian.Uint32(packed[:4]))

	d := make([]int32, n)
	d[0] = seed

	if bitWidth == 8 {
		rest := packed[4:]
		if len(rest) < n-1 {
			return nil, fmt.Errorf("delta: short payload for width-8 deltas")
		}
		for i := 1; i < n; i++ {
			d[i] = int32(int8(rest[i-1]))
		}
	} else {
		vals, err := bitio.Unpack(bitWidth, packed[4:], n-1)
		if err != nil {
			return nil, fmt.Errorf("delta: unpacking deltas: %w", err)
		}
		copy(d[1:], vals)
	}

	// Cumulative sum recovers the per-pixel absolute snake-ordered
	// delta-frame value.
	s := make([]int32, n)
	var sum int32
	for i, v := range d {
		sum += v
		s[i] = sum
	}

	if c.prev == nil {
		c.prev = make([]int32, n)
	}
	cur := make([]int32, n)
	for i := range cur {
		cur[i] = c.prev[i] + s[i]
	}
	c.prev = cur

	tbl := snake.Table(c.W, c.H)
	out := make([]uint16, n)
	for i, idx := range tbl {
		out[i] = uint16(cur[idx])
	}
	return out, nil
}

// EncodeFrame compresses a width*height row-major uint16 frame,
// returning the chosen bit-width and the frame payload (seed followed
// by packed delta-of-deltas).
func (c *Codec) EncodeFrame(pix []uint16) (bitWidth int, payload []byte, err error) {
	n := c.W * c.H
	if len(pix) != n {
		return 0, nil, fmt.Errorf("delta: frame has %d pixels, want %d", len(pix), n)
	}

	tbl := snake.Table(c.W, c.H)
	linear := make([]int32, n)
	for i, idx := range tbl {
		linear[i] = int32(int16(pix[idx]))
	}

	delta := make([]int32, n)
	if c.prev != nil {
		for i := range delta {
			delta[i] = linear[i] - c.prev[i]
		}
	} else {
		copy(delta, linear)
	}
	c.prev = linear

	deldel := diff(delta)
	bitWidth = chooseWidth(deldel)

	seed := delta[0]
	var seedBytes [4]byte
	binary.LittleEndian.PutUint32(seedBytes[:], uint32(seed))

	packed := bitio.Pack(bitWidth, deldel)

	payload = make([]byte, 0, 4+len(packed))
	payload = append(payload, seedBytes[:]...)
	payload = append(payload, packed...)
	return bitWidth, payload, nil
}

// diff returns the first-order differences of x, i.e. len(x)-1 values.
func diff(x []int32) []int32 {
	if len(x) == 0 {
		return nil
	}
	out := make([]int32, len(x)-1)
	for i := range out {
		out[i] = x[i+1] - x[i]
	}
	return out
}

// chooseWidth picks the encoded bit-width for a delta-of-deltas
// sequence: with k = 1 + bitLength(max |v|), the smallest of
// {8, 12, 16} that is at least k. Because it works from the absolute
// value, a sequence whose extreme is -2^(n-1) gets the width above n.
func chooseWidth(deldel []int32) int {
	var maxAbs int32
	for _, v := range deldel {
		a := v
		if a < 0 {
			a = -a
		}
		if a > maxAbs {
			maxAbs = a
		}
	}
	k := 1 + bitLength(maxAbs)
	switch {
	case k <= 8:
		return 8
	case k <= 12:
		return 12
	default:
		return 16
	}
}

// bitLength returns the number of bits required to represent v (v>=0).
func bitLength(v int32) int {
	n := 0
	for v > 0 {
		n++
		v >>= 1
	}
	return n
}
