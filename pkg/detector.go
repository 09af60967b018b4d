package timeframe

import (
	"bytes"
	"fmt"
)

// Detect classifies a buffer. It never fails: a buffer nothing recognises
// is reported as FormatCanonical so that its decoder reports the problem.
//
// Order of checks:
//  1. the legacy "COTF" tag;
//  2. an exact little-endian raw layout;
//  3. an exact big-endian raw layout;
//  4. a little-endian raw layout cut short, so truncated buffers fail
//     with an underflow instead of being parsed as protobuf;
//  5. a complete little-endian raw layout followed by extra bytes;
//  6. a protobuf field tag in the first byte of a buffer of 8 bytes or more.
func Detect(data []byte) Format {
	format, _ := detect(data)
	return format
}

// DetectStrict is Detect without the fallback: it returns ErrAmbiguousFormat
// when no check matched, or when the buffer is an exact raw layout in both
// byte orders.
func DetectStrict(data []byte) (Format, error) {
	format, matched := detect(data)
	if !matched {
		return FormatUnknown, fmt.Errorf("%w: %d bytes match no known layout", ErrAmbiguousFormat, len(data))
	}
	if format == FormatCanonical && len(data) > int32Size &&
		probeRaw(data, FormatCanonicalBigEndian) == probeExact &&
		probeRaw(data, FormatCanonical) == probeExact {
		return FormatUnknown, fmt.Errorf("%w: valid in both byte orders", ErrAmbiguousFormat)
	}
	return format, nil
}

func detect(data []byte) (Format, bool) {
	if bytes.HasPrefix(data, LegacyMagic) {
		return FormatLegacy, true
	}
	little := probeRaw(data, FormatCanonical)
	if little == probeExact {
		return FormatCanonical, true
	}
	if probeRaw(data, FormatCanonicalBigEndian) == probeExact {
		return FormatCanonicalBigEndian, true
	}
	if little == probeTruncated || little == probeTrailing {
		return FormatCanonical, true
	}
	if looksTagged(data) {
		return FormatTagged, true
	}
	return FormatCanonical, false
}

// looksTagged checks that the first byte is a plausible protobuf tag:
// wire type 0..5 and a non-zero field number.
func looksTagged(data []byte) bool {
	if len(data) < 8 {
		return false
	}
	wireType := data[0] & 0x07
	fieldNumber := data[0] >> 3
	return wireType <= 5 && fieldNumber >= 1
}
