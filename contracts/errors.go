package contracts

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindUnsupportedFormat ErrorKind = "unsupported_format"
	KindDecode            ErrorKind = "decode"
	KindEncode            ErrorKind = "encode"
	KindUnknown           ErrorKind = "unknown"
)

// UnsupportedFormatError is returned when the declared mime type cannot enter
// the pipeline. Nothing has been decoded when it is returned.
type UnsupportedFormatError struct {
	MimeType string
}

func (e *UnsupportedFormatError) Error() string {
	if e.MimeType == "" {
		return "unsupported format: empty mime type"
	}
	return fmt.Sprintf("unsupported format: %s", e.MimeType)
}

type DecodeError struct {
	MimeType string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.MimeType, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

type EncodeError struct {
	Size TargetSize
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %dx%d: %v", e.Size, e.Size, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// SizeFailure is one target size that failed while the others were kept.
type SizeFailure struct {
	Size TargetSize
	Err  error
}

func (f SizeFailure) Error() string {
	return fmt.Sprintf("size %d: %v", f.Size, f.Err)
}

func (f SizeFailure) Unwrap() error {
	return f.Err
}

func KindOf(err error) ErrorKind {
	var unsupported *UnsupportedFormatError
	var decodeErr *DecodeError
	var encodeErr *EncodeError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &unsupported):
		return KindUnsupportedFormat
	case errors.As(err, &decodeErr):
		return KindDecode
	case errors.As(err, &encodeErr):
		return KindEncode
	}
	return KindUnknown
}
