/*
NAME
  field_test.go

DESCRIPTION
  field_test.go tests field encode/decode round trips, unknown-code
  skipping, and timestamp overflow recovery.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package field

import (
	"bytes"
	"testing"
	"time"
)

func TestWriteReadRoundTrip(t *testing.T) {
	w := &Writer{}
	w.U8(CodeCompression, 1)
	w.U32(CodeXRes, 160)
	w.F32(CodeLatitude, -36.943634)
	ts := time.Date(2018, 7, 6, 5, 4, 3, 0, time.UTC)
	w.Timestamp(CodeTimestamp, ts)
	w.Bytes(CodeDeviceName, []byte("hello"))

	values, err := ReadAll(bytes.NewReader(w.Encoded()), w.Count(), nil)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(values) != 5 {
		t.Fatalf("got %d values, want 5", len(values))
	}

	byCode := map[byte]Value{}
	for _, v := range values {
		byCode[v.Code] = v
	}

	if byCode[CodeCompression].U8 != 1 {
		t.Errorf("compression: got %d, want 1", byCode[CodeCompression].U8)
	}
	if byCode[CodeXRes].U32 != 160 {
		t.Errorf("x res: got %d, want 160", byCode[CodeXRes].U32)
	}
	if got := byCode[CodeLatitude].F32; got < -36.943635 || got > -36.943633 {
		t.Errorf("latitude: got %v, want ~-36.943634", got)
	}
	if !byCode[CodeTimestamp].Time.Equal(ts) {
		t.Errorf("timestamp: got %v, want %v", byCode[CodeTimestamp].Time, ts)
	}
	if string(byCode[CodeDeviceName].Bytes) != "hello" {
		t.Errorf("device name: got %q, want hello", byCode[CodeDeviceName].Bytes)
	}
}

func TestReadAllSkipsUnknownCode(t *testing.T) {
	// One unknown field ('?' with 3 bytes), followed by a known u8.
	var buf bytes.Buffer
	buf.Write([]byte{3, '?', 'x', 'y', 'z'})
	buf.Write([]byte{1, CodeCompression, 1})

	values, err := ReadAll(&buf, 2, nil)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(values) != 1 {
		t.Fatalf("got %d values, want 1 (unknown code should be skipped)", len(values))
	}
	if values[0].Code != CodeCompression {
		t.Errorf("got code %q, want %q", values[0].Code, CodeCompression)
	}
}

func TestTimestampOverflowFallsBackToEpoch(t *testing.T) {
	w := &Writer{}
	w.header(8, CodeTimestamp)
	// A microsecond value that overflows our representable range.
	huge := uint64(1) << 63
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(huge >> (8 * i))
	}
	w.buf = append(w.buf, b[:]...)

	values, err := ReadAll(bytes.NewReader(w.Encoded()), 1, nil)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !values[0].Time.Equal(epoch) {
		t.Errorf("got %v, want epoch %v", values[0].Time, epoch)
	}
}

func TestReadAllShortHeader(t *testing.T) {
	_, err := ReadAll(bytes.NewReader([]byte{1}), 1, nil)
	if err == nil {
		t.Fatal("expected error on truncated field header")
	}
}

func TestReadAllShortPayload(t *testing.T) {
	_, err := ReadAll(bytes.NewReader([]byte{4, CodeXRes, 1, 2}), 1, nil)
	if err == nil {
		t.Fatal("expected error on truncated field payload")
	}
}
