package timeframe

import (
	"errors"
	"fmt"
)

var (
	// ErrUnderflow is returned when a read needs more bytes than remain.
	ErrUnderflow = errors.New("buffer underflow")
	// ErrMalformedLength is returned for negative or implausible length prefixes.
	ErrMalformedLength = errors.New("malformed length prefix")
	// ErrUnsupportedVersion is returned for a legacy header with an unknown version.
	ErrUnsupportedVersion = errors.New("unsupported format version")
	// ErrAmbiguousFormat is only returned by DetectStrict.
	ErrAmbiguousFormat = errors.New("ambiguous buffer format")
	// ErrMalformedPayload is returned when a tagged payload is not valid protobuf.
	ErrMalformedPayload = errors.New("malformed tagged payload")
	// ErrUnsupportedFormat is returned when a format has no codec of the requested kind.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// DecodeError represents an error while decoding a buffer.
// It unwraps to one of the sentinel errors above.
type DecodeError struct {
	Format Format
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("error decoding %s buffer at offset %d: %v", e.Format, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeError(format Format, offset int, err error) *DecodeError {
	return &DecodeError{Format: format, Offset: offset, Err: err}
}
