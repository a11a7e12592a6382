package fitcodec

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedHeader reports a file header that cannot be parsed.
	ErrMalformedHeader = errors.New("malformed fit header")

	// ErrUnknownMessageType reports a global message number with no registered spec.
	ErrUnknownMessageType = errors.New("unknown message type")

	// ErrUndefinedLocalType reports a data record whose local message type has no active definition.
	ErrUndefinedLocalType = errors.New("undefined local message type")

	// ErrTruncatedRecord reports a record that runs past the end of the record stream.
	ErrTruncatedRecord = errors.New("truncated record")

	// ErrCRCMismatch reports a stored CRC that differs from the computed one.
	// Decode reports it in File.CRCErr and keeps going.
	ErrCRCMismatch = errors.New("crc mismatch")

	// ErrUnknownEnumValue reports a symbolic enum name with no code.
	ErrUnknownEnumValue = errors.New("unknown enum value")

	// ErrFieldOverflow reports a value that does not fit its field width.
	ErrFieldOverflow = errors.New("field overflow")
)

// EnumError carries the field and value of an unresolved enum name.
type EnumError struct {
	Field string
	Value string
}

func (e *EnumError) Error() string {
	return fmt.Sprintf("%v: %s=%q", ErrUnknownEnumValue, e.Field, e.Value)
}

func (e *EnumError) Unwrap() error { return ErrUnknownEnumValue }

// OverflowError carries the field and value that did not fit on the wire.
type OverflowError struct {
	Field string
	Value float64
	Width int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("%v: %s=%v does not fit %d byte(s)", ErrFieldOverflow, e.Field, e.Value, e.Width)
}

func (e *OverflowError) Unwrap() error { return ErrFieldOverflow }
