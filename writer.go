/*
NAME
  writer.go

DESCRIPTION
  writer.go implements the CPTV Writer façade: a state machine that
  stages configured stream metadata, serialises the header (optionally
  followed by a background frame) on write_header, and then streams
  compressed frames until close finalises the gzip trailer.

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
	"compress/gzip"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/ausocean/cptv/container"
	"github.com/ausocean/cptv/delta"
	"github.com/ausocean/cptv/field"
	"github.com/ausocean/utils/logging"
)

type writerState int

const (
	wsOpened writerState = iota
	wsHeaderWritten
	wsClosed
)

// Writer serialises stream metadata and frames into a gzip-wrapped
// CPTV stream. Call WriteHeader once, then WriteFrame for each frame
// in capture order, then Close.
type Writer struct {
	sink io.Writer
	meta StreamMetadata
	log  logging.Logger

	background *Frame

	gz    *gzip.Writer
	cont  *container.Writer
	codec *delta.Codec

	state writerState
}

// NewWriter returns a Writer that will serialise meta and subsequent
// frames to sink. l may be nil.
func NewWriter(sink io.Writer, meta StreamMetadata, l logging.Logger) *Writer {
	return &Writer{sink: sink, meta: meta, log: l}
}

// SetBackgroundFrame marks f as the stream's background frame: it
// will be written immediately after the header, as the first frame,
// and the header's background-frame marker will be set.
func (w *Writer) SetBackgroundFrame(f Frame) {
	f.BackgroundFrame = true
	w.background = &f
	w.meta.HasBackgroundFrame = true
}

// WriteHeader validates and serialises the configured metadata. It
// wraps sink in gzip (with its modification time set to the capture
// timestamp), writes the magic, version and header section, and, if a
// background frame was set, writes it as the first frame.
func (w *Writer) WriteHeader() error {
	if w.state != wsOpened {
		return newError(KindWriterState, errors.Wrap(ErrWriterState, "write_header called twice"))
	}
	if err := w.meta.Validate(); err != nil {
		return err
	}

	gz := gzip.NewWriter(w.sink)
	gz.ModTime = w.meta.Timestamp
	w.gz = gz
	w.cont = container.NewWriter(gz)
	w.codec = delta.NewCodec(int(w.meta.XResolution), int(w.meta.YResolution))

	if err := w.cont.WriteMagicVersion(w.meta.Version); err != nil {
		return errors.Wrap(err, "cptv: writing magic/version")
	}

	fw := headerFields(w.meta)
	if err := w.cont.WriteSection(container.SectionHeader, fw.Count(), fw.Encoded(), nil); err != nil {
		return errors.Wrap(err, "cptv: writing header section")
	}

	w.state = wsHeaderWritten

	if w.background != nil {
		if err := w.WriteFrame(*w.background); err != nil {
			return errors.Wrap(err, "cptv: writing background frame")
		}
	}
	return nil
}

// WriteFrame compresses and writes one frame. It must be called after
// WriteHeader.
func (w *Writer) WriteFrame(f Frame) error {
	if w.state != wsHeaderWritten {
		return newError(KindWriterState, errors.Wrap(ErrWriterState, "write_frame called before write_header"))
	}

	bitWidth, payload, err := w.codec.EncodeFrame(f.Pix)
	if err != nil {
		return errors.Wrap(err, "cptv: encoding frame")
	}

	fw := frameFields(w.meta.Version, f, bitWidth, len(payload))
	return w.cont.WriteSection(container.SectionFrame, fw.Count(), fw.Encoded(), payload)
}

// Close finalises the gzip stream, flushing the trailing CRC and
// size. It does not close the underlying sink.
func (w *Writer) Close() error {
	if w.state == wsClosed {
		return nil
	}
	w.state = wsClosed
	if w.gz == nil {
		return nil
	}
	return errors.Wrap(w.gz.Close(), "cptv: closing gzip stream")
}

// headerFields builds the field records for a header section, in the
// writer field ordering documented for the format.
func headerFields(m StreamMetadata) *field.Writer {
	fw := &field.Writer{}

	fw.U8(field.CodeCompression, m.Compression)
	fw.U32(field.CodeXRes, m.XResolution)
	fw.U32(field.CodeYRes, m.YResolution)

	if len(m.DeviceName) > 0 {
		fw.Bytes(field.CodeDeviceName, m.DeviceName)
	}
	if m.DeviceID != 0 {
		fw.U32(field.CodeDeviceID, m.DeviceID)
	}

	fw.Timestamp(field.CodeTimestamp, m.Timestamp)

	if m.PreviewSecs != 0 {
		fw.U8(field.CodePreviewSecs, m.PreviewSecs)
	}
	if len(m.MotionConfig) > 0 {
		fw.Bytes(field.CodeMotionConfig, m.MotionConfig)
	}
	if m.Latitude != 0 {
		fw.F32(field.CodeLatitude, m.Latitude)
	}
	if m.Longitude != 0 {
		fw.F32(field.CodeLongitude, m.Longitude)
	}
	if m.Altitude != 0 {
		fw.F32(field.CodeAltitude, m.Altitude)
	}
	if m.Accuracy != 0 {
		fw.F32(field.CodeAccuracy, m.Accuracy)
	}
	if !m.LocTimestamp.IsZero() {
		fw.Timestamp(field.CodeLocTimestamp, m.LocTimestamp)
	}
	if m.FPS != 0 {
		fw.U8(field.CodeFPS, m.FPS)
	}
	if len(m.Model) > 0 {
		fw.Bytes(field.CodeModel, m.Model)
	}
	if len(m.Brand) > 0 {
		fw.Bytes(field.CodeBrand, m.Brand)
	}
	if len(m.Firmware) > 0 {
		fw.Bytes(field.CodeFirmware, m.Firmware)
	}
	if m.CameraSerial != 0 {
		fw.U32(field.CodeCameraSerial, m.CameraSerial)
	}
	if m.HasBackgroundFrame {
		fw.U8(field.CodeBackgroundFlag, 1)
	}

	return fw
}

// frameFields builds the field records for a frame section, in the
// writer field ordering documented for the format. TimeOn,
// LastFFCTime, TempC and LastFFCTempC are version-2-only fields.
func frameFields(version uint8, f Frame, bitWidth int, payloadLen int) *field.Writer {
	fw := &field.Writer{}

	if version >= 2 {
		fw.U32(field.CodeTimeOn, uint32(f.TimeOn/time.Millisecond))
		fw.U32(field.CodeLastFFCTime, uint32(f.LastFFCTime/time.Millisecond))
	}

	fw.U8(field.CodeBitWidth, uint8(bitWidth))

	if version >= 2 {
		fw.F32(field.CodeTempC, f.TempC)
		fw.F32(field.CodeLastFFCTempC, f.LastFFCTempC)
	}

	if f.BackgroundFrame {
		fw.U8(field.CodeBackgroundFlag, 1)
	}

	fw.U32(field.CodeFrameSize, uint32(payloadLen))

	return fw
}
