// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

package nexxtender

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a frame could not be interpreted
type ErrorKind int

const (
	ErrorLengthMismatch ErrorKind = iota
	ErrorChecksumMismatch
	ErrorReservedFieldNonZero
	ErrorMalformedCbor
	ErrorUnexpectedStructure
)

// String returns the kind name
func (k ErrorKind) String() string {
	switch k {
	case ErrorLengthMismatch:
		return "length_mismatch"
	case ErrorChecksumMismatch:
		return "checksum_mismatch"
	case ErrorReservedFieldNonZero:
		return "reserved_field_non_zero"
	case ErrorMalformedCbor:
		return "malformed_cbor"
	case ErrorUnexpectedStructure:
		return "unexpected_structure"
	}
	return fmt.Sprintf("error_kind_%d", int(k))
}

// DecodeError reports a frame that could not be interpreted
type DecodeError struct {
	Kind    ErrorKind
	Record  string
	Message string
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Record, e.Message)
}

func newDecodeError(kind ErrorKind, record, format string, args ...interface{}) *DecodeError {
	return &DecodeError{
		Kind:    kind,
		Record:  record,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsKind reports whether err wraps a DecodeError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var de *DecodeError
	return errors.As(err, &de) && de.Kind == kind
}

// checkLength rejects frames that are not exactly n bytes
func checkLength(record string, b []byte, n int) error {
	if len(b) != n {
		return newDecodeError(ErrorLengthMismatch, record,
			"length mismatch: expected %d bytes, got %d", n, len(b))
	}
	return nil
}
