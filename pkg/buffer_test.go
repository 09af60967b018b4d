package timeframe

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterByteOrder(t *testing.T) {
	little := NewWriter(FormatCanonical, 0)
	little.PutInt32(0x01020304)
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, little.Bytes())

	big := NewWriter(FormatCanonicalBigEndian, 0)
	big.PutInt32(0x01020304)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, big.Bytes())
}

func TestReaderRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatCanonical, FormatCanonicalBigEndian} {
		t.Run(format.String(), func(t *testing.T) {
			w := NewWriter(format, 64)
			w.PutInt32(math.MinInt32)
			w.PutInt64(math.MaxInt64)
			w.PutString("crate-7")
			w.PutInt32Array([]int32{1, -2, 3})
			w.PutInt64Array([]int64{-1, 1 << 40})

			r := NewReader(w.Bytes(), format)
			v32, err := r.ReadInt32()
			require.NoError(t, err)
			assert.Equal(t, int32(math.MinInt32), v32)

			v64, err := r.ReadInt64()
			require.NoError(t, err)
			assert.Equal(t, int64(math.MaxInt64), v64)

			s, err := r.ReadString()
			require.NoError(t, err)
			assert.Equal(t, "crate-7", s)

			a32, err := r.ReadInt32Array()
			require.NoError(t, err)
			assert.Equal(t, []int32{1, -2, 3}, a32)

			a64, err := r.ReadInt64Array()
			require.NoError(t, err)
			assert.Equal(t, []int64{-1, 1 << 40}, a64)
			assert.Zero(t, r.Remaining())
		})
	}
}

func TestReaderUnderflowKeepsCursor(t *testing.T) {
	r := NewReader([]byte{1, 2, 3}, FormatCanonical)
	_, err := r.ReadInt32()
	require.ErrorIs(t, err, ErrUnderflow)
	assert.Zero(t, r.Position())

	_, err = r.ReadInt64()
	require.ErrorIs(t, err, ErrUnderflow)
	assert.Zero(t, r.Position())

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, FormatCanonical, decodeErr.Format)
	assert.Equal(t, 0, decodeErr.Offset)
}

func TestReaderLengthPrefixes(t *testing.T) {
	le := binary.LittleEndian
	tests := []struct {
		name string
		data []byte
		read func(r *Reader) error
		want error
	}{
		{
			name: "negative string length",
			data: le.AppendUint32(nil, uint32(0xFFFFFFFF)),
			read: func(r *Reader) error { _, err := r.ReadString(); return err },
			want: ErrMalformedLength,
		},
		{
			name: "string longer than buffer",
			data: append(le.AppendUint32(nil, 10), "short"...),
			read: func(r *Reader) error { _, err := r.ReadString(); return err },
			want: ErrUnderflow,
		},
		{
			name: "string over limit",
			data: le.AppendUint32(nil, MaxStringLength+1),
			read: func(r *Reader) error { _, err := r.ReadString(); return err },
			want: ErrMalformedLength,
		},
		{
			name: "negative array count",
			data: le.AppendUint32(nil, uint32(0x80000000)),
			read: func(r *Reader) error { _, err := r.ReadInt32Array(); return err },
			want: ErrMalformedLength,
		},
		{
			name: "array count over limit",
			data: le.AppendUint32(nil, MaxElements+1),
			read: func(r *Reader) error { _, err := r.ReadInt64Array(); return err },
			want: ErrMalformedLength,
		},
		{
			name: "array longer than buffer",
			data: le.AppendUint32(le.AppendUint32(nil, 2), 7),
			read: func(r *Reader) error { _, err := r.ReadInt32Array(); return err },
			want: ErrUnderflow,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(tt.data, FormatCanonical)
			err := tt.read(r)
			require.ErrorIs(t, err, tt.want)
			assert.Zero(t, r.Position(), "cursor moved on failure")
		})
	}
}

func TestReadCountChecksRemaining(t *testing.T) {
	w := NewWriter(FormatCanonical, 0)
	w.PutInt32(3)
	w.PutInt64(1)
	w.PutInt64(2)

	r := NewReader(w.Bytes(), FormatCanonical)
	_, err := r.ReadCount(int64Size)
	require.ErrorIs(t, err, ErrUnderflow)
	assert.Zero(t, r.Position())

	n, err := r.ReadCount(int32Size)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, int32Size, r.Position())
}

func TestReaderSkipAndBytes(t *testing.T) {
	r := NewReader([]byte("COTFxyz"), FormatLegacy)
	b, err := r.ReadBytes(4)
	require.NoError(t, err)
	assert.Equal(t, "COTF", string(b))
	require.ErrorIs(t, r.Skip(4), ErrUnderflow)
	require.NoError(t, r.Skip(3))
	assert.Zero(t, r.Remaining())
}
