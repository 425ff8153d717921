/*
NAME
  field.go

DESCRIPTION
  field.go encodes and decodes the typed key/length/value records that
  make up CPTV section bodies: [data_len: u8][code: 1 byte][payload].

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package field encodes and decodes the typed field records used in
// CPTV section bodies, and tracks which semantic type each field code
// carries (u8, u32 LE, f32 LE, a microsecond timestamp, or bytes).
package field

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/ausocean/utils/logging"
)

// Field codes, one byte each, matching the CPTV on-disk format.
const (
	CodeTimestamp      = 'T'
	CodeXRes           = 'X'
	CodeYRes           = 'Y'
	CodeCompression    = 'C'
	CodeBitWidth       = 'w'
	CodeFrameSize      = 'f'
	CodeTimeOn         = 't'
	CodeLastFFCTime    = 'c'
	CodeTempC          = 'a'
	CodeLastFFCTempC   = 'b'
	CodePreviewSecs    = 'P'
	CodeFPS            = 'Z'
	CodeBackgroundFlag = 'g'
	CodeDeviceID       = 'I'
	CodeCameraSerial   = 'N'
	CodeLatitude       = 'L'
	CodeLongitude      = 'O'
	CodeAltitude       = 'A'
	CodeAccuracy       = 'U'
	CodeLocTimestamp   = 'S'
	CodeDeviceName     = 'D'
	CodeMotionConfig   = 'M'
	CodeModel          = 'E'
	CodeBrand          = 'B'
	CodeFirmware       = 'V'
)

// Kind identifies the semantic type a field code decodes to.
type Kind int

const (
	KindUnknown Kind = iota
	KindU8
	KindU32
	KindF32
	KindTimestamp
	KindBytes
)

// kinds maps every known field code to its semantic type.
var kinds = map[byte]Kind{
	CodeCompression:    KindU8,
	CodeBitWidth:       KindU8,
	CodePreviewSecs:    KindU8,
	CodeFPS:            KindU8,
	CodeBackgroundFlag: KindU8,

	CodeXRes:         KindU32,
	CodeYRes:         KindU32,
	CodeFrameSize:    KindU32,
	CodeTimeOn:       KindU32,
	CodeLastFFCTime:  KindU32,
	CodeDeviceID:     KindU32,
	CodeCameraSerial: KindU32,

	CodeLatitude:    KindF32,
	CodeLongitude:   KindF32,
	CodeAltitude:    KindF32,
	CodeAccuracy:    KindF32,
	CodeTempC:       KindF32,
	CodeLastFFCTempC: KindF32,

	CodeTimestamp:    KindTimestamp,
	CodeLocTimestamp: KindTimestamp,

	CodeDeviceName:   KindBytes,
	CodeMotionConfig: KindBytes,
	CodeModel:        KindBytes,
	CodeBrand:        KindBytes,
	CodeFirmware:     KindBytes,
}

// KindOf returns the semantic type of code, or KindUnknown.
func KindOf(code byte) Kind {
	if k, ok := kinds[code]; ok {
		return k
	}
	return KindUnknown
}

// epoch is the CPTV timestamp reference instant.
var epoch = time.Unix(0, 0).UTC()

// Writer accumulates fields into their on-disk record form, tracking
// how many fields have been written so the section header's field
// count can be emitted alongside them.
type Writer struct {
	buf   []byte
	count int
}

// Count returns the number of fields written so far.
func (w *Writer) Count() int { return w.count }

// Encoded returns the accumulated field records.
func (w *Writer) Encoded() []byte { return w.buf }

func (w *Writer) header(dataLen int, code byte) {
	w.buf = append(w.buf, byte(dataLen), code)
	w.count++
}

// U8 writes a one-byte field.
func (w *Writer) U8(code byte, v uint8) {
	w.header(1, code)
	w.buf = append(w.buf, v)
}

// U32 writes a little-endian four-byte unsigned field.
func (w *Writer) U32(code byte, v uint32) {
	w.header(4, code)
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// F32 writes a little-endian four-byte float field.
func (w *Writer) F32(code byte, v float32) {
	w.header(4, code)
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	w.buf = append(w.buf, b[:]...)
}

// Timestamp writes t as a little-endian eight-byte microsecond count
// since the Unix epoch.
func (w *Writer) Timestamp(code byte, t time.Time) {
	w.header(8, code)
	micros := uint64(t.UnixMicro())
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], micros)
	w.buf = append(w.buf, b[:]...)
}

// Bytes writes an arbitrary-length byte/string field. Callers must
// ensure len(v) <= 255.
func (w *Writer) Bytes(code byte, v []byte) {
	w.header(len(v), code)
	w.buf = append(w.buf, v...)
}

// Value is a decoded field: its code, semantic kind, and value held
// as one of the typed fields below (only the one matching Kind is
// populated).
type Value struct {
	Code  byte
	Kind  Kind
	U8    uint8
	U32   uint32
	F32   float32
	Time  time.Time
	Bytes []byte
}

// ReadAll reads count field records from r, returning the decoded
// values in encounter order. Unknown codes are skipped (their payload
// is consumed but discarded) and logged via l; l may be nil, in which
// case skips are silent.
func ReadAll(r io.Reader, count int, l logging.Logger) ([]Value, error) {
	values := make([]Value, 0, count)
	for i := 0; i < count; i++ {
		var hdr [2]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return nil, fmt.Errorf("field: short read of field header: %w", io.ErrUnexpectedEOF)
		}
		dataLen := int(hdr[0])
		code := hdr[1]

		payload := make([]byte, dataLen)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, fmt.Errorf("field: short read of payload for code %q: %w", code, io.ErrUnexpectedEOF)
		}

		v, err := decode(code, payload, l)
		if err != nil {
			return nil, err
		}
		if v.Kind == KindUnknown {
			if l != nil {
				l.Warning("field: unknown field code, skipping", "code", code, "len", dataLen)
			}
			continue
		}
		values = append(values, v)
	}
	return values, nil
}

func decode(code byte, payload []byte, l logging.Logger) (Value, error) {
	kind := KindOf(code)
	switch kind {
	case KindU8:
		if len(payload) < 1 {
			return Value{}, fmt.Errorf("field: short u8 payload for code %q", code)
		}
		return Value{Code: code, Kind: kind, U8: payload[0]}, nil
	case KindU32:
		if len(payload) < 4 {
			return Value{}, fmt.Errorf("field: short u32 payload for code %q", code)
		}
		return Value{Code: code, Kind: kind, U32: binary.LittleEndian.Uint32(payload)}, nil
	case KindF32:
		if len(payload) < 4 {
			return Value{}, fmt.Errorf("field: short f32 payload for code %q", code)
		}
		bits := binary.LittleEndian.Uint32(payload)
		return Value{Code: code, Kind: kind, F32: math.Float32frombits(bits)}, nil
	case KindTimestamp:
		if len(payload) < 8 {
			return Value{}, fmt.Errorf("field: short timestamp payload for code %q", code)
		}
		micros := binary.LittleEndian.Uint64(payload)
		t, err := microsToTime(micros)
		if err != nil {
			if l != nil {
				l.Warning("field: timestamp overflow, substituting epoch", "code", code, "micros", micros)
			}
			t = epoch
		}
		return Value{Code: code, Kind: kind, Time: t}, nil
	case KindBytes:
		cp := make([]byte, len(payload))
		copy(cp, payload)
		return Value{Code: code, Kind: kind, Bytes: cp}, nil
	default:
		return Value{Code: code, Kind: KindUnknown}, nil
	}
}

// microsToTime converts a microsecond count since the Unix epoch to a
// time.Time, failing if the value cannot be represented.
func microsToTime(micros uint64) (time.Time, error) {
	const maxMicros = uint64(math.MaxInt64 / int64(time.Microsecond))
	if micros > maxMicros {
		return time.Time{}, fmt.Errorf("field: timestamp %d overflows", micros)
	}
	return epoch.Add(time.Duration(micros) * time.Microsecond), nil
}
