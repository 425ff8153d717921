/*
NAME
  types.go

DESCRIPTION
  types.go defines the public CPTV data types: per-stream metadata and
  the per-frame record.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package cptv

import (
	"time"

	"github.com/pkg/errors"
)

// defaultXRes, defaultYRes are the write-time resolution defaults.
const (
	defaultXRes = 160
	defaultYRes = 120
	compression = 1
)

// StreamMetadata holds the per-stream attributes carried in a CPTV
// header. Zero-valued optional fields are not emitted on write; see
// Writer for the exact field-truthiness rules.
type StreamMetadata struct {
	Version      uint8 // 1 or 2; defaults to 2 on write.
	Timestamp    time.Time
	XResolution  uint32
	YResolution  uint32
	Compression  uint8 // must be 1

	DeviceName   []byte
	DeviceID     uint32
	PreviewSecs  uint8
	MotionConfig []byte

	Latitude      float32
	Longitude     float32
	LocTimestamp  time.Time
	Altitude      float32
	Accuracy      float32

	FPS uint8

	Model    []byte
	Brand    []byte
	Firmware []byte

	CameraSerial uint32

	HasBackgroundFrame bool
}

// NewMetadata returns a StreamMetadata populated with the documented
// write-time defaults: version 2, 160x120 resolution, compression 1,
// and a capture timestamp of now.
func NewMetadata() StreamMetadata {
	return StreamMetadata{
		Version:     2,
		Timestamp:   time.Now().UTC(),
		XResolution: defaultXRes,
		YResolution: defaultYRes,
		Compression: compression,
	}
}

// Validate checks the invariants a StreamMetadata must satisfy before
// it can be written: version in {1,2} and compression == 1.
func (m StreamMetadata) Validate() error {
	if m.Version != 1 && m.Version != 2 {
		return newError(KindFormat, errors.Wrapf(ErrUnsupportedVersion, "version %d", m.Version))
	}
	if m.Compression != compression {
		return newError(KindFormat, errors.Wrapf(ErrUnsupportedCompression, "compression %d", m.Compression))
	}
	return nil
}

// Frame is one decompressed thermal frame plus its per-frame
// metadata. Pix is row-major, height*width values.
type Frame struct {
	Pix    []uint16
	Width  int
	Height int

	// TimeOn, LastFFCTime, TempC and LastFFCTempC are absent (zero)
	// for version-1 streams.
	TimeOn      time.Duration
	LastFFCTime time.Duration

	TempC         float32
	LastFFCTempC  float32
	BackgroundFrame bool
}

// At returns the pixel at (row, col).
func (f Frame) At(row, col int) uint16 {
	return f.Pix[row*f.Width+col]
}

// Equal reports whether f and g have equal pixels and per-frame
// metadata (time_on, last_ffc_time, temp_c, last_ffc_temp_c), matching
// the codec's documented frame-equality semantics. Shape and the
// background-frame marker are not part of the comparison.
func (f Frame) Equal(g Frame) bool {
	if len(f.Pix) != len(g.Pix) {
		return false
	}
	for i := range f.Pix {
		if f.Pix[i] != g.Pix[i] {
			return false
		}
	}
	return f.TimeOn == g.TimeOn &&
		f.LastFFCTime == g.LastFFCTime &&
		f.TempC == g.TempC &&
		f.LastFFCTempC == g.LastFFCTempC
}
