/*
NAME
  errors.go

DESCRIPTION
  errors.go defines the CPTV codec's error kinds and sentinel causes.

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
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a CPTV error.
type Kind int

const (
	KindUnknown Kind = iota
	KindFormat
	KindShortRead
	KindTimestampOverflow
	KindUnknownField
	KindWriterState
)

func (k Kind) String() string {
	switch k {
	case KindFormat:
		return "format error"
	case KindShortRead:
		return "short read"
	case KindTimestampOverflow:
		return "timestamp overflow"
	case KindUnknownField:
		return "unknown field"
	case KindWriterState:
		return "writer state error"
	default:
		return "unknown error"
	}
}

// Sentinel causes wrapped by Error.
var (
	ErrBadMagic               = errors.New("magic not found")
	ErrUnsupportedVersion     = errors.New("unsupported version")
	ErrUnsupportedCompression = errors.New("unsupported compression type")
	ErrBitWidth               = errors.New("bit width out of range")
	ErrSection                = errors.New("unexpected section")
	ErrWriterState            = errors.New("writer used out of sequence")
)

// Error is the single error type surfaced by this package's own
// validation. On read, failures after the container header (section
// headers, field records, frame payloads) are also returned as an
// Error of KindFormat or KindShortRead; a short frame payload is
// reported as io.ErrUnexpectedEOF in place of the underlying error.
// Other errors from the underlying reader/writer are returned wrapped
// with call-site context, not as they were received.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cptv: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("cptv: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// newError wraps err (which may be a sentinel above, or any other
// cause) as a CPTV Error of the given kind.
func newError(kind Kind, err error) error {
	return &Error{Kind: kind, Err: err}
}
