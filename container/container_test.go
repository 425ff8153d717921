/*
NAME
  container_test.go

DESCRIPTION
  container_test.go tests magic/version validation and section header
  framing, including clean end-of-stream detection.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package container

import (
	"bytes"
	"io"
	"testing"
)

func TestNewReaderBadMagic(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte("NOPE2")))
	if err == nil {
		t.Fatal("expected error for bad magic")
	}
}

func TestNewReaderUnsupportedVersion(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte("CPTV\x09")))
	if err == nil {
		t.Fatal("expected error for unsupported version")
	}
}

func TestWriteReadSectionRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteMagicVersion(2); err != nil {
		t.Fatal(err)
	}
	fields := []byte{1, 'C', 1}
	if err := w.WriteSection(SectionHeader, 1, fields, nil); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(&buf)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if r.Version != 2 {
		t.Errorf("got version %d, want 2", r.Version)
	}

	typ, count, err := r.NextSectionHeader()
	if err != nil {
		t.Fatalf("NextSectionHeader: %v", err)
	}
	if typ != SectionHeader || count != 1 {
		t.Errorf("got (%q, %d), want ('H', 1)", typ, count)
	}

	got := make([]byte, 3)
	if _, err := io.ReadFull(r.Body(), got); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, fields) {
		t.Errorf("got %v, want %v", got, fields)
	}
}

func TestNextSectionHeaderCleanEOF(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteMagicVersion(2); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = r.NextSectionHeader()
	if err != io.EOF {
		t.Errorf("got %v, want io.EOF", err)
	}
}

func TestNextSectionHeaderTruncatedCountIsHardError(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(Magic[:])
	buf.WriteByte(2)
	buf.WriteByte(SectionHeader) // type byte, but no following count byte

	r, err := NewReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = r.NextSectionHeader()
	if err == nil || err == io.EOF {
		t.Fatalf("got %v, want a hard (non-EOF) error", err)
	}
}
