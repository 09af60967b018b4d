package engines

import (
	"fmt"

	timeframe "github.com/jlab/timeframe_go/pkg"
)

const (
	MimeType       = timeframe.MimeType
	BinaryMimeType = timeframe.BinaryMimeType
	JSONMimeType   = "application/json"
)

// DataType pairs a mime type with the codec used to move events of that
// type in and out of byte buffers.
type DataType struct {
	MimeType   string
	Serializer timeframe.Codec
}

// NewDataType returns a data type that writes format and reads any format
// the detector recognises.
func NewDataType(mimeType string, format timeframe.Format, strict bool) (DataType, error) {
	codec, err := timeframe.NewDetectingCodec(format, strict)
	if err != nil {
		return DataType{}, fmt.Errorf("cannot create data type %s: %w", mimeType, err)
	}
	return DataType{MimeType: mimeType, Serializer: codec}, nil
}

func mustDataType(mimeType string, format timeframe.Format) DataType {
	dt, err := NewDataType(mimeType, format, false)
	if err != nil {
		panic(err)
	}
	return dt
}

var (
	// CodaTimeFrameType is carried as an xMsg payload.
	CodaTimeFrameType = mustDataType(MimeType, timeframe.FormatTagged)
	// CodaTimeFrameBinaryType is carried in the canonical binary layout.
	CodaTimeFrameBinaryType = mustDataType(BinaryMimeType, timeframe.FormatCanonical)
)

// LookupDataType returns one of the two built-in data types.
func LookupDataType(mimeType string) (DataType, bool) {
	switch mimeType {
	case MimeType:
		return CodaTimeFrameType, true
	case BinaryMimeType:
		return CodaTimeFrameBinaryType, true
	}
	return DataType{}, false
}
