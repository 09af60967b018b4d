package timeframe

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeLayout(t *testing.T) {
	e := &Event{}
	e.AddRocBank(RocBank{
		RocID:       1,
		FrameNumber: 2,
		TimeStamp:   3,
		Hits: []Hit{
			{Crate: 1, Slot: 2, Channel: 3, Charge: 4, Time: 5},
			{Crate: 6, Slot: 7, Channel: 8, Charge: 9, Time: 10},
		},
	})

	le := binary.LittleEndian
	var want []byte
	want = le.AppendUint32(want, 1) // slices
	want = le.AppendUint32(want, 1) // banks
	want = le.AppendUint32(want, 1) // rocId
	want = le.AppendUint32(want, 2) // frameNumber
	want = le.AppendUint64(want, 3) // timeStamp
	want = le.AppendUint32(want, 2) // hitCount
	for _, v := range []uint32{1, 6, 2, 7, 3, 8, 4, 9} {
		want = le.AppendUint32(want, v)
	}
	want = le.AppendUint64(want, 5)
	want = le.AppendUint64(want, 10)

	got := Encode(e)
	assert.Equal(t, want, got)
	assert.Equal(t, len(want), EncodedSize(e))
}

func TestEncodedSize(t *testing.T) {
	assert.Equal(t, 4, EncodedSize(&Event{}))
	assert.Equal(t, 192, EncodedSize(sampleEvent()))
	assert.Equal(t, 4+4+20+24*1000, EncodedSize(largeEvent(1000)))
	assert.Len(t, Encode(sampleEvent()), EncodedSize(sampleEvent()))
}

func TestCanonicalRoundTrip(t *testing.T) {
	e := sampleEvent()
	decoded, err := Decode(Encode(e))
	require.NoError(t, err)
	requireEqualEvents(t, withoutMetadata(e), decoded)

	assert.Zero(t, decoded.EventID)
	assert.Zero(t, decoded.CreationTime)
	assert.Empty(t, decoded.SourceInfo)
}

func TestEmptyEvent(t *testing.T) {
	buf := Encode(&Event{})
	assert.Equal(t, []byte{0, 0, 0, 0}, buf)

	decoded, err := Decode(buf)
	require.NoError(t, err)
	assert.Zero(t, decoded.TimeSliceCount())
	assert.True(t, decoded.IsEmpty())

	slices := &Event{}
	slices.StartTimeSlice()
	slices.StartTimeSlice()
	decoded, err = Decode(Encode(slices))
	require.NoError(t, err)
	assert.Equal(t, 2, decoded.TimeSliceCount())
	assert.True(t, decoded.IsEmpty())
}

func TestLargeEvent(t *testing.T) {
	e := largeEvent(1000)
	for _, format := range []Format{FormatCanonical, FormatLegacy, FormatTagged} {
		t.Run(format.String(), func(t *testing.T) {
			codec, err := CodecFor(format)
			require.NoError(t, err)
			buf, err := codec.Encode(e)
			require.NoError(t, err)
			assert.Equal(t, format, Detect(buf))

			decoded, err := Decode(buf)
			require.NoError(t, err)
			assert.Equal(t, 1000, decoded.TotalHitCount())
			requireEqualEvents(t, e, decoded)
			assert.Equal(t, Hit{Crate: 4, Slot: 10, Channel: 7, Charge: 1999, Time: 2099900},
				decoded.TimeSlices[0][0].Hits[999])
		})
	}
	assert.Len(t, Encode(e), 24028)
}

// legacyV1 builds a legacy buffer byte by byte.
func legacyV1(version uint32) []byte {
	le := binary.LittleEndian
	b := []byte("COTF")
	b = le.AppendUint32(b, version)
	b = le.AppendUint64(b, 42)
	b = le.AppendUint64(b, 1700000000000)
	b = le.AppendUint32(b, 8)
	b = append(b, "roc-test"...)
	b = le.AppendUint32(b, 1)   // slices
	b = le.AppendUint32(b, 1)   // banks
	b = le.AppendUint32(b, 5)   // rocId
	b = le.AppendUint32(b, 3)   // frameNumber
	b = le.AppendUint64(b, 900) // timeStamp
	b = le.AppendUint32(b, 2)   // hitCount
	for _, column := range [][]uint32{{1, 1}, {2, 2}, {0, 1}, {10, 20}} {
		b = le.AppendUint32(b, uint32(len(column)))
		for _, v := range column {
			b = le.AppendUint32(b, v)
		}
	}
	b = le.AppendUint32(b, 2)
	b = le.AppendUint64(b, 904)
	b = le.AppendUint64(b, 908)
	return b
}

func TestLegacyDecode(t *testing.T) {
	buf := legacyV1(1)
	require.Equal(t, FormatLegacy, Detect(buf))

	decoded, err := Decode(buf)
	require.NoError(t, err)

	want := &Event{EventID: 42, CreationTime: 1700000000000, SourceInfo: "roc-test"}
	want.AddRocBank(RocBank{
		RocID:       5,
		FrameNumber: 3,
		TimeStamp:   900,
		Hits: []Hit{
			{Crate: 1, Slot: 2, Channel: 0, Charge: 10, Time: 904},
			{Crate: 1, Slot: 2, Channel: 1, Charge: 20, Time: 908},
		},
	})
	requireEqualEvents(t, want, decoded)
}

func TestLegacyRoundTrip(t *testing.T) {
	codec, err := CodecFor(FormatLegacy)
	require.NoError(t, err)
	e := sampleEvent()
	buf, err := codec.Encode(e)
	require.NoError(t, err)

	decoded, err := Decode(buf)
	require.NoError(t, err)
	requireEqualEvents(t, e, decoded)
}

func TestLegacyShortColumn(t *testing.T) {
	le := binary.LittleEndian
	bank := func(hitCount uint32, timesLen int) []byte {
		b := []byte("COTF")
		b = le.AppendUint32(b, 1)
		b = le.AppendUint64(b, 0)
		b = le.AppendUint64(b, 0)
		b = le.AppendUint32(b, 0)
		b = le.AppendUint32(b, 1)
		b = le.AppendUint32(b, 1)
		b = le.AppendUint32(b, 1)
		b = le.AppendUint32(b, 1)
		b = le.AppendUint64(b, 1)
		b = le.AppendUint32(b, hitCount)
		for k := 0; k < 4; k++ {
			b = le.AppendUint32(b, 3)
			b = le.AppendUint32(b, 7)
			b = le.AppendUint32(b, 8)
			b = le.AppendUint32(b, 9)
		}
		b = le.AppendUint32(b, uint32(timesLen))
		for i := 0; i < timesLen; i++ {
			b = le.AppendUint64(b, uint64(i))
		}
		return b
	}

	decoded, err := Decode(bank(3, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, decoded.TotalHitCount())

	decoded, err = Decode(bank(1, 3))
	require.NoError(t, err)
	assert.Equal(t, 1, decoded.TotalHitCount())
}

func TestLegacyVersion(t *testing.T) {
	for _, version := range []uint32{0, 2, 0xFFFFFFFF} {
		_, err := Decode(legacyV1(version))
		require.ErrorIs(t, err, ErrUnsupportedVersion)

		var decodeErr *DecodeError
		require.True(t, errors.As(err, &decodeErr))
		assert.Equal(t, FormatLegacy, decodeErr.Format)
		assert.Equal(t, 4, decodeErr.Offset)
	}
}

func TestLegacyTagOnly(t *testing.T) {
	require.Equal(t, FormatLegacy, Detect([]byte("COTF")))
	event, err := Decode([]byte("COTF"))
	require.ErrorIs(t, err, ErrUnderflow)
	assert.Nil(t, event)
}

func TestTruncationUnderflows(t *testing.T) {
	legacy, err := legacyCodec{}.Encode(sampleEvent())
	require.NoError(t, err)

	buffers := map[string][]byte{
		"canonical": Encode(sampleEvent()),
		"legacy":    legacy,
		"large":     Encode(largeEvent(50)),
	}
	for name, buf := range buffers {
		t.Run(name, func(t *testing.T) {
			for n := 0; n < len(buf); n++ {
				event, err := Decode(buf[:n])
				require.ErrorIs(t, err, ErrUnderflow, "truncated to %d of %d bytes", n, len(buf))
				require.Nil(t, event)
			}
		})
	}
}

func TestBigEndianDecode(t *testing.T) {
	e := sampleEvent()
	buf, err := rawCodec{format: FormatCanonicalBigEndian}.Encode(e)
	require.NoError(t, err)
	require.Equal(t, FormatCanonicalBigEndian, Detect(buf))

	decoded, err := Decode(buf)
	require.NoError(t, err)
	requireEqualEvents(t, withoutMetadata(e), decoded)

	for n := 0; n < len(buf); n++ {
		_, err := DecodeAs(buf[:n], FormatCanonicalBigEndian)
		require.ErrorIs(t, err, ErrUnderflow)
	}
}

func TestDetect(t *testing.T) {
	tagged, err := taggedCodec{}.Encode(sampleEvent())
	require.NoError(t, err)
	legacy, err := legacyCodec{}.Encode(sampleEvent())
	require.NoError(t, err)
	bigEndian, err := rawCodec{format: FormatCanonicalBigEndian}.Encode(sampleEvent())
	require.NoError(t, err)
	canonical := Encode(sampleEvent())

	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{"empty buffer", nil, FormatCanonical},
		{"empty event", Encode(&Event{}), FormatCanonical},
		{"canonical", canonical, FormatCanonical},
		{"truncated canonical", canonical[:len(canonical)-3], FormatCanonical},
		{"big endian", bigEndian, FormatCanonicalBigEndian},
		{"legacy", legacy, FormatLegacy},
		{"legacy tag only", []byte("COTF"), FormatLegacy},
		{"tagged", tagged, FormatTagged},
		{"garbage", []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, FormatCanonical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.data))
		})
	}
}

func TestDetectTrailingBytes(t *testing.T) {
	// 0x08 also reads as a protobuf varint tag for field 1.
	buf := append(Encode(&Event{TimeSlices: make([]TimeSlice, 8)}), 0x00)
	require.Equal(t, byte(0x08), buf[0])
	require.True(t, looksTagged(buf))

	assert.Equal(t, FormatCanonical, Detect(buf))
	format, err := DetectStrict(buf)
	require.NoError(t, err)
	assert.Equal(t, FormatCanonical, format)

	decoded, err := Decode(buf)
	require.NoError(t, err)
	assert.Len(t, decoded.TimeSlices, 8)
	assert.Zero(t, decoded.TotalHitCount())
}

func TestDetectStrict(t *testing.T) {
	format, err := DetectStrict(Encode(sampleEvent()))
	require.NoError(t, err)
	assert.Equal(t, FormatCanonical, format)

	garbage := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	_, err = DetectStrict(garbage)
	require.ErrorIs(t, err, ErrAmbiguousFormat)

	_, err = DecodeStrict(garbage)
	require.ErrorIs(t, err, ErrAmbiguousFormat)

	// The same buffer without strict detection fails in the canonical decoder.
	_, err = Decode(garbage)
	require.ErrorIs(t, err, ErrMalformedLength)
}

func TestMalformedCounts(t *testing.T) {
	le := binary.LittleEndian
	negative := le.AppendUint32(nil, uint32(0xFFFFFFFF))
	huge := le.AppendUint32(nil, MaxElements+1)
	hits := le.AppendUint32(le.AppendUint32(nil, 1), 1)
	hits = le.AppendUint32(hits, 1)
	hits = le.AppendUint32(hits, 1)
	hits = le.AppendUint64(hits, 1)
	hits = le.AppendUint32(hits, uint32(0xFFFFFFF0))

	for name, buf := range map[string][]byte{"negative": negative, "huge": huge, "hit count": hits} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeAs(buf, FormatCanonical)
			require.ErrorIs(t, err, ErrMalformedLength)
		})
	}
}

func TestCodecLookup(t *testing.T) {
	_, err := CodecFor(FormatCanonicalBigEndian)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
	_, err = DecoderFor(FormatUnknown)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
	_, err = DecodeAs(nil, FormatUnknown)
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	for _, format := range []Format{FormatCanonical, FormatCanonicalBigEndian, FormatLegacy, FormatTagged} {
		assert.Equal(t, format, ParseFormat(format.String()))
	}
	assert.Equal(t, FormatUnknown, ParseFormat("cbor"))
}

func TestDetectingCodec(t *testing.T) {
	codec, err := NewDetectingCodec(FormatTagged, false)
	require.NoError(t, err)

	buf, err := codec.Encode(sampleEvent())
	require.NoError(t, err)
	assert.Equal(t, FormatTagged, Detect(buf))

	decoded, err := codec.Decode(Encode(sampleEvent()))
	require.NoError(t, err)
	requireEqualEvents(t, withoutMetadata(sampleEvent()), decoded)
}
