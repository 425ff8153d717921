/*
NAME
  reader.go

DESCRIPTION
  reader.go implements the CPTV Reader façade: a state machine that
  parses the stream header on construction and then exposes a
  single-pass, forward-only iterator of frames.

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

type readerState int

const (
	stateOpened readerState = iota
	stateHeaderParsed
	stateIterating
	stateExhausted
	stateFailed
)

// Reader parses a gzip-wrapped CPTV stream: header on construction,
// then one frame at a time via Next.
type Reader struct {
	gz    *gzip.Reader
	cont  *container.Reader
	meta  StreamMetadata
	codec *delta.Codec
	log   logging.Logger

	state readerState
	// pending holds a decoded background frame read eagerly during
	// header parsing, to be returned by the first call to Next.
	pending *Frame
}

// NewReader gunzips r, validates the CPTV magic/version, and parses
// the header section, returning a Reader ready to iterate frames. l
// may be nil, in which case recoverable conditions (unknown fields,
// timestamp overflow) are not logged.
func NewReader(r io.Reader, l logging.Logger) (*Reader, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "cptv: opening gzip stream")
	}

	cont, err := container.NewReader(gz)
	if err != nil {
		return nil, errors.Wrap(err, "cptv: reading container header")
	}

	rd := &Reader{gz: gz, cont: cont, log: l, state: stateOpened}

	sectionType, count, err := cont.NextSectionHeader()
	if err != nil {
		return nil, newError(KindFormat, errors.Wrap(err, "cptv: reading header section"))
	}
	if sectionType != container.SectionHeader {
		return nil, newError(KindFormat, errors.Wrapf(ErrSection, "expected header, got %q", sectionType))
	}

	values, err := field.ReadAll(cont.Body(), count, l)
	if err != nil {
		return nil, newError(KindFormat, errors.Wrap(err, "cptv: reading header fields"))
	}

	meta := StreamMetadata{Version: cont.Version}
	hasBackground := false
	for _, v := range values {
		switch v.Code {
		case field.CodeCompression:
			meta.Compression = v.U8
		case field.CodeXRes:
			meta.XResolution = v.U32
		case field.CodeYRes:
			meta.YResolution = v.U32
		case field.CodeDeviceName:
			meta.DeviceName = v.Bytes
		case field.CodeDeviceID:
			meta.DeviceID = v.U32
		case field.CodeTimestamp:
			meta.Timestamp = v.Time
		case field.CodePreviewSecs:
			meta.PreviewSecs = v.U8
		case field.CodeMotionConfig:
			meta.MotionConfig = v.Bytes
		case field.CodeLatitude:
			meta.Latitude = v.F32
		case field.CodeLongitude:
			meta.Longitude = v.F32
		case field.CodeAltitude:
			meta.Altitude = v.F32
		case field.CodeAccuracy:
			meta.Accuracy = v.F32
		case field.CodeLocTimestamp:
			meta.LocTimestamp = v.Time
		case field.CodeFPS:
			meta.FPS = v.U8
		case field.CodeModel:
			meta.Model = v.Bytes
		case field.CodeBrand:
			meta.Brand = v.Bytes
		case field.CodeFirmware:
			meta.Firmware = v.Bytes
		case field.CodeCameraSerial:
			meta.CameraSerial = v.U32
		case field.CodeBackgroundFlag:
			hasBackground = v.U8 != 0
		}
	}
	meta.HasBackgroundFrame = hasBackground

	if meta.Compression != compression {
		return nil, newError(KindFormat, errors.Wrapf(ErrUnsupportedCompression, "%d", meta.Compression))
	}

	rd.meta = meta
	rd.codec = delta.NewCodec(int(meta.XResolution), int(meta.YResolution))
	rd.state = stateHeaderParsed

	if hasBackground {
		f, err := rd.readFrameSection()
		if err != nil {
			return nil, err
		}
		f.BackgroundFrame = true
		rd.pending = &f
	}

	rd.state = stateIterating
	return rd, nil
}

// Metadata returns the stream's header metadata.
func (r *Reader) Metadata() StreamMetadata { return r.meta }

// Next returns the next frame in capture order. It returns io.EOF
// once the stream is cleanly exhausted.
func (r *Reader) Next() (Frame, error) {
	if r.pending != nil {
		f := *r.pending
		r.pending = nil
		return f, nil
	}
	if r.state == stateExhausted {
		return Frame{}, io.EOF
	}

	f, err := r.readFrameSection()
	if err != nil {
		if err == io.EOF {
			r.state = stateExhausted
			return Frame{}, io.EOF
		}
		r.state = stateFailed
		return Frame{}, err
	}
	return f, nil
}

// readFrameSection reads one frame section's fields and payload, and
// decompresses it via the delta codec.
func (r *Reader) readFrameSection() (Frame, error) {
	sectionType, count, err := r.cont.NextSectionHeader()
	if err != nil {
		if err == io.EOF {
			return Frame{}, io.EOF
		}
		return Frame{}, newError(KindFormat, errors.Wrap(err, "cptv: reading frame section"))
	}
	if sectionType != container.SectionFrame {
		return Frame{}, newError(KindFormat, errors.Wrapf(ErrSection, "expected frame, got %q", sectionType))
	}

	values, err := field.ReadAll(r.cont.Body(), count, r.log)
	if err != nil {
		return Frame{}, newError(KindFormat, errors.Wrap(err, "cptv: reading frame fields"))
	}

	var bitWidth int
	var frameSize int
	var f Frame
	for _, v := range values {
		switch v.Code {
		case field.CodeTimeOn:
			f.TimeOn = time.Duration(v.U32) * time.Millisecond
		case field.CodeLastFFCTime:
			f.LastFFCTime = time.Duration(v.U32) * time.Millisecond
		case field.CodeBitWidth:
			bitWidth = int(v.U8)
		case field.CodeTempC:
			f.TempC = v.F32
		case field.CodeLastFFCTempC:
			f.LastFFCTempC = v.F32
		case field.CodeBackgroundFlag:
			f.BackgroundFrame = v.U8 != 0
		case field.CodeFrameSize:
			frameSize = int(v.U32)
		}
	}

	if bitWidth > delta.MaxBitWidth {
		return Frame{}, newError(KindFormat, errors.Wrapf(ErrBitWidth, "%d", bitWidth))
	}

	payload := make([]byte, frameSize)
	if _, err := io.ReadFull(r.cont.Body(), payload); err != nil {
		return Frame{}, newError(KindShortRead, errors.Wrap(io.ErrUnexpectedEOF, "cptv: reading frame payload"))
	}

	pix, err := r.codec.DecodeFrame(bitWidth, payload)
	if err != nil {
		return Frame{}, newError(KindFormat, errors.Wrap(err, "cptv: decoding frame"))
	}

	f.Pix = pix
	f.Width = int(r.meta.XResolution)
	f.Height = int(r.meta.YResolution)
	return f, nil
}
