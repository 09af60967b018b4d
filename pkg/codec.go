package timeframe

import "fmt"

// Encoder encodes an Event into a byte slice.
type Encoder interface {
	Encode(*Event) ([]byte, error)
}

// Decoder decodes a byte slice into a new Event. A failed decode never
// returns a partial Event.
type Decoder interface {
	Decode([]byte) (*Event, error)
}

// Codec encodes and decodes one wire format.
type Codec interface {
	Encoder
	Decoder
}

// Encode returns the canonical encoding of e. It never fails.
func Encode(e *Event) []byte {
	w := NewWriter(FormatCanonical, EncodedSize(e))
	writeRaw(w, e)
	return w.Bytes()
}

// Decode detects the format of data and decodes it with the matching
// decoder. Decoder errors are returned unchanged.
func Decode(data []byte) (*Event, error) {
	return DecodeAs(data, Detect(data))
}

// DecodeStrict is Decode using DetectStrict.
func DecodeStrict(data []byte) (*Event, error) {
	format, err := DetectStrict(data)
	if err != nil {
		return nil, err
	}
	return DecodeAs(data, format)
}

// DecodeAs decodes data as format without detection.
func DecodeAs(data []byte, format Format) (*Event, error) {
	decoder, err := DecoderFor(format)
	if err != nil {
		return nil, err
	}
	return decoder.Decode(data)
}

// DecoderFor returns the decoder of format.
func DecoderFor(format Format) (Decoder, error) {
	switch format {
	case FormatCanonical, FormatCanonicalBigEndian:
		return rawCodec{format: format}, nil
	case FormatLegacy:
		return legacyCodec{}, nil
	case FormatTagged:
		return taggedCodec{}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

// CodecFor returns the codec of format. Big-endian raw buffers are read
// but never written, so FormatCanonicalBigEndian has no codec.
func CodecFor(format Format) (Codec, error) {
	switch format {
	case FormatCanonical:
		return rawCodec{format: FormatCanonical}, nil
	case FormatLegacy:
		return legacyCodec{}, nil
	case FormatTagged:
		return taggedCodec{}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

type detectingCodec struct {
	Encoder
	strict bool
}

func (c detectingCodec) Decode(data []byte) (*Event, error) {
	if c.strict {
		return DecodeStrict(data)
	}
	return Decode(data)
}

// NewDetectingCodec returns a Codec that encodes as format and decodes
// whatever format the buffer is in.
func NewDetectingCodec(format Format, strict bool) (Codec, error) {
	encoder, err := CodecFor(format)
	if err != nil {
		return nil, err
	}
	return detectingCodec{Encoder: encoder, strict: strict}, nil
}
