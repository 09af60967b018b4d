package timeframe

import "encoding/binary"

// Format identifies one of the historical wire encodings of an Event.
type Format uint8

const (
	FormatUnknown Format = iota
	// FormatCanonical is the little-endian column-major layout produced by Encode.
	FormatCanonical
	// FormatCanonicalBigEndian is the same layout written by the Java data type.
	FormatCanonicalBigEndian
	// FormatLegacy is the "COTF" tagged, versioned layout with event metadata.
	FormatLegacy
	// FormatTagged is the xMsg protobuf payload of named items.
	FormatTagged
)

const (
	// MimeType is the tag of the tagged-payload representation.
	MimeType = "xmsg/coda-time-frame"
	// BinaryMimeType is the tag of the raw binary representation.
	BinaryMimeType = "binary/coda-time-frame"
)

func (f Format) String() string {
	switch f {
	case FormatCanonical:
		return "canonical"
	case FormatCanonicalBigEndian:
		return "canonical-be"
	case FormatLegacy:
		return "legacy"
	case FormatTagged:
		return "tagged"
	default:
		return "unknown"
	}
}

// ByteOrder returns the byte order of the fixed-width fields of the format.
func (f Format) ByteOrder() binary.ByteOrder {
	if f == FormatCanonicalBigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (f Format) appendOrder() binary.AppendByteOrder {
	if f == FormatCanonicalBigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// ParseFormat maps a format name back to its Format.
func ParseFormat(name string) Format {
	for _, f := range []Format{FormatCanonical, FormatCanonicalBigEndian, FormatLegacy, FormatTagged} {
		if f.String() == name {
			return f
		}
	}
	return FormatUnknown
}
