package engines

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Frame files hold one encoded event per record:
//
//	uint32 length (little-endian) | length bytes
const frameHeaderSize = 4

// MaxFrameSize bounds a single record.
const MaxFrameSize = 1 << 28

var (
	ErrTruncatedFrame = errors.New("truncated frame")
	ErrFrameTooLarge  = errors.New("frame too large")
)

func WriteFrame(w io.Writer, frame []byte) error {
	if len(frame) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(frame))
	}
	var header [frameHeaderSize]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(frame)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(frame)
	return err
}

// FrameReader reads records back from a frame file.
type FrameReader struct {
	r     *bufio.Reader
	count int
}

func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: bufio.NewReader(r)}
}

// Next returns the next record, or io.EOF after the last one.
func (f *FrameReader) Next() ([]byte, error) {
	var header [frameHeaderSize]byte
	n, err := io.ReadFull(f.r, header[:])
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("%w: record %d header has %d bytes", ErrTruncatedFrame, f.count, n)
	}
	size := binary.LittleEndian.Uint32(header[:])
	if size > MaxFrameSize {
		return nil, fmt.Errorf("%w: record %d claims %d bytes", ErrFrameTooLarge, f.count, size)
	}
	frame := make([]byte, size)
	if n, err := io.ReadFull(f.r, frame); err != nil {
		return nil, fmt.Errorf("%w: record %d has %d of %d bytes", ErrTruncatedFrame, f.count, n, size)
	}
	f.count++
	return frame, nil
}

// Count returns how many records have been read.
func (f *FrameReader) Count() int {
	return f.count
}
