/*
NAME
  container.go

DESCRIPTION
  container.go reads and writes the CPTV outer framing: a 4-byte
  magic, a 1-byte version, and a sequence of sections (header 'H' or
  frame 'F'), each holding a field count followed by that many typed
  field records.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package container reads and writes the CPTV magic/version/section
// framing that wraps header and frame field records. Field records
// themselves are decoded by the field package directly off the
// Reader's underlying stream, since each field is self-describing
// (length-prefixed) and does not need to be buffered here.
package container

import (
	"bufio"
	"fmt"
	"io"
)

// Magic is the literal 4-byte CPTV file signature.
var Magic = [4]byte{'C', 'P', 'T', 'V'}

// Section type bytes.
const (
	SectionHeader = 'H'
	SectionFrame  = 'F'
)

// SupportedVersions lists the versions this codec understands.
var SupportedVersions = map[byte]bool{1: true, 2: true}

// Reader reads the magic, version, and section headers of a CPTV
// stream. Callers read the field records and any frame payload
// directly from the io.Reader returned by Body.
type Reader struct {
	r       *bufio.Reader
	Version byte
}

// NewReader reads and validates the magic and version from r, and
// returns a Reader positioned at the first section.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("container: reading magic: %w", err)
	}
	if magic != Magic {
		return nil, fmt.Errorf("container: bad magic %q", magic)
	}

	version, err := br.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("container: reading version: %w", err)
	}
	if !SupportedVersions[version] {
		return nil, fmt.Errorf("container: unsupported version %d", version)
	}

	return &Reader{r: br, Version: version}, nil
}

// Body returns the underlying stream so callers can read field
// records and frame payloads directly.
func (r *Reader) Body() io.Reader { return r.r }

// NextSectionHeader reads the next section's type byte and field
// count. It returns io.EOF if the stream is cleanly exhausted at a
// section boundary (no bytes available for the type byte); any other
// short read (e.g. a type byte with no following count byte) is a
// hard error.
func (r *Reader) NextSectionHeader() (sectionType byte, fieldCount int, err error) {
	typeByte, err := r.r.ReadByte()
	if err != nil {
		if err == io.EOF {
			return 0, 0, io.EOF
		}
		return 0, 0, fmt.Errorf("container: reading section type: %w", err)
	}

	count, err := r.r.ReadByte()
	if err != nil {
		return 0, 0, fmt.Errorf("container: short read of field count: %w", io.ErrUnexpectedEOF)
	}

	return typeByte, int(count), nil
}

// Writer writes the magic, version, and sections of a CPTV stream.
type Writer struct {
	w io.Writer
}

// NewWriter returns a Writer that writes framing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteMagicVersion writes the 4-byte magic and 1-byte version.
func (w *Writer) WriteMagicVersion(version byte) error {
	if _, err := w.w.Write(Magic[:]); err != nil {
		return fmt.Errorf("container: writing magic: %w", err)
	}
	if _, err := w.w.Write([]byte{version}); err != nil {
		return fmt.Errorf("container: writing version: %w", err)
	}
	return nil
}

// WriteSection writes a section: type byte, field count, field
// records, then payload (payload may be nil, e.g. for header
// sections).
func (w *Writer) WriteSection(sectionType byte, count int, fields, payload []byte) error {
	if _, err := w.w.Write([]byte{sectionType, byte(count)}); err != nil {
		return fmt.Errorf("container: writing section header: %w", err)
	}
	if _, err := w.w.Write(fields); err != nil {
		return fmt.Errorf("container: writing fields: %w", err)
	}
	if len(payload) > 0 {
		if _, err := w.w.Write(payload); err != nil {
			return fmt.Errorf("container: writing payload: %w", err)
		}
	}
	return nil
}
