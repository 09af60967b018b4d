package engines

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrames(t *testing.T) {
	var buf bytes.Buffer
	frames := [][]byte{{1, 2, 3}, {}, bytes.Repeat([]byte{9}, 5000)}
	for _, f := range frames {
		require.NoError(t, WriteFrame(&buf, f))
	}

	r := NewFrameReader(&buf)
	for _, want := range frames {
		got, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := r.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 3, r.Count())
}

func TestTruncatedFrames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte{1, 2, 3, 4}))
	data := buf.Bytes()

	for _, n := range []int{2, 6} {
		r := NewFrameReader(bytes.NewReader(data[:n]))
		_, err := r.Next()
		assert.ErrorIs(t, err, ErrTruncatedFrame, "cut at %d", n)
	}

	r := NewFrameReader(bytes.NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFF}))
	_, err := r.Next()
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}
