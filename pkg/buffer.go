package timeframe

import (
	"encoding/binary"
	"fmt"
)

const (
	// MaxElements bounds every element count read from a buffer.
	MaxElements = 1 << 20
	// MaxStringLength bounds every string length read from a buffer.
	MaxStringLength = 1 << 20
)

const (
	int32Size = 4
	int64Size = 8
)

// Writer appends fixed-width fields, strings and arrays to a growable buffer
// using the byte order of its format.
type Writer struct {
	buf   []byte
	order binary.AppendByteOrder
}

func NewWriter(format Format, capacity int) *Writer {
	return &Writer{
		buf:   make([]byte, 0, capacity),
		order: format.appendOrder(),
	}
}

func (w *Writer) PutInt32(v int32) {
	w.buf = w.order.AppendUint32(w.buf, uint32(v))
}

func (w *Writer) PutInt64(v int64) {
	w.buf = w.order.AppendUint64(w.buf, uint64(v))
}

func (w *Writer) PutBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// PutString writes an int32 byte count followed by the bytes of s.
func (w *Writer) PutString(s string) {
	w.PutInt32(int32(len(s)))
	w.buf = append(w.buf, s...)
}

// PutInt32Array writes an int32 element count followed by the elements.
func (w *Writer) PutInt32Array(values []int32) {
	w.PutInt32(int32(len(values)))
	for _, v := range values {
		w.PutInt32(v)
	}
}

// PutInt64Array writes an int32 element count followed by the elements.
func (w *Writer) PutInt64Array(values []int64) {
	w.PutInt32(int32(len(values)))
	for _, v := range values {
		w.PutInt64(v)
	}
}

func (w *Writer) Len() int {
	return len(w.buf)
}

func (w *Writer) Bytes() []byte {
	return w.buf
}

// Reader reads fields back from a byte slice with an explicit cursor.
// Every read checks bounds first; a failed read leaves the cursor where it was.
type Reader struct {
	data   []byte
	pos    int
	format Format
	order  binary.ByteOrder
}

func NewReader(data []byte, format Format) *Reader {
	return &Reader{
		data:   data,
		format: format,
		order:  format.ByteOrder(),
	}
}

func (r *Reader) Position() int {
	return r.pos
}

func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

func (r *Reader) underflow(offset int, need int) error {
	return decodeError(r.format, offset, fmt.Errorf("%w: need %d bytes, %d available",
		ErrUnderflow, need, len(r.data)-offset))
}

func (r *Reader) malformed(offset int, length int32, max int) error {
	return decodeError(r.format, offset, fmt.Errorf("%w: %d outside [0, %d]",
		ErrMalformedLength, length, max))
}

func (r *Reader) Skip(n int) error {
	if n > r.Remaining() {
		return r.underflow(r.pos, n)
	}
	r.pos += n
	return nil
}

// ReadBytes returns the next n bytes without copying them.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n > r.Remaining() {
		return nil, r.underflow(r.pos, n)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) ReadInt32() (int32, error) {
	if r.Remaining() < int32Size {
		return 0, r.underflow(r.pos, int32Size)
	}
	return r.nextInt32(), nil
}

func (r *Reader) ReadInt64() (int64, error) {
	if r.Remaining() < int64Size {
		return 0, r.underflow(r.pos, int64Size)
	}
	return r.nextInt64(), nil
}

// ReadLength reads an int32 element count and checks it against MaxElements.
func (r *Reader) ReadLength() (int, error) {
	start := r.pos
	n, err := r.ReadInt32()
	if err != nil {
		return 0, err
	}
	if n < 0 || n > MaxElements {
		r.pos = start
		return 0, r.malformed(start, n, MaxElements)
	}
	return int(n), nil
}

// ReadCount reads an element count like ReadLength and also checks that
// count elements of at least minSize bytes each fit in the remaining bytes.
// Nothing is allocated by the caller until this check has passed.
func (r *Reader) ReadCount(minSize int) (int, error) {
	start := r.pos
	n, err := r.ReadLength()
	if err != nil {
		return 0, err
	}
	if n*minSize > r.Remaining() {
		err := r.underflow(r.pos, n*minSize)
		r.pos = start
		return 0, err
	}
	return n, nil
}

// ReadString reads an int32 byte count followed by that many bytes.
func (r *Reader) ReadString() (string, error) {
	start := r.pos
	n, err := r.ReadInt32()
	if err != nil {
		return "", err
	}
	if n < 0 || n > MaxStringLength {
		r.pos = start
		return "", r.malformed(start, n, MaxStringLength)
	}
	if int(n) > r.Remaining() {
		err := r.underflow(r.pos, int(n))
		r.pos = start
		return "", err
	}
	s := string(r.data[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

func (r *Reader) ReadInt32Array() ([]int32, error) {
	n, err := r.ReadCount(int32Size)
	if err != nil {
		return nil, err
	}
	values := make([]int32, n)
	for i := range values {
		values[i] = r.nextInt32()
	}
	return values, nil
}

func (r *Reader) ReadInt64Array() ([]int64, error) {
	n, err := r.ReadCount(int64Size)
	if err != nil {
		return nil, err
	}
	values := make([]int64, n)
	for i := range values {
		values[i] = r.nextInt64()
	}
	return values, nil
}

// nextInt32 and nextInt64 read without bounds checks. Callers must have
// validated the remaining length already.
func (r *Reader) nextInt32() int32 {
	v := int32(r.order.Uint32(r.data[r.pos:]))
	r.pos += int32Size
	return v
}

func (r *Reader) nextInt64() int64 {
	v := int64(r.order.Uint64(r.data[r.pos:]))
	r.pos += int64Size
	return v
}
