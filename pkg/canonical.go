package timeframe

import "errors"

const (
	sliceHeaderSize = int32Size
	// rocId, frameNumber, timeStamp, hitCount
	bankHeaderSize = 3*int32Size + int64Size
	// crate, slot, channel, charge, time
	hitSize = 4*int32Size + int64Size
)

// EncodedSize returns the length of the canonical encoding of e without
// encoding it.
func EncodedSize(e *Event) int {
	size := int32Size
	for _, slice := range e.TimeSlices {
		size += sliceHeaderSize
		for _, bank := range slice {
			size += bankHeaderSize + hitSize*len(bank.Hits)
		}
	}
	return size
}

// writeRaw writes the column-major layout shared by the canonical formats:
//
//	int32 timeSliceCount
//	  int32 bankCount
//	    int32 rocId, int32 frameNumber, int64 timeStamp, int32 hitCount
//	    int32[hitCount] crates, slots, channels, charges
//	    int64[hitCount] times
func writeRaw(w *Writer, e *Event) {
	w.PutInt32(int32(len(e.TimeSlices)))
	for _, slice := range e.TimeSlices {
		w.PutInt32(int32(len(slice)))
		for _, bank := range slice {
			w.PutInt32(bank.RocID)
			w.PutInt32(bank.FrameNumber)
			w.PutInt64(bank.TimeStamp)
			w.PutInt32(int32(len(bank.Hits)))
			for _, h := range bank.Hits {
				w.PutInt32(h.Crate)
			}
			for _, h := range bank.Hits {
				w.PutInt32(h.Slot)
			}
			for _, h := range bank.Hits {
				w.PutInt32(h.Channel)
			}
			for _, h := range bank.Hits {
				w.PutInt32(h.Charge)
			}
			for _, h := range bank.Hits {
				w.PutInt64(h.Time)
			}
		}
	}
}

func readRaw(r *Reader) (*Event, error) {
	sliceCount, err := r.ReadCount(sliceHeaderSize)
	if err != nil {
		return nil, err
	}
	event := &Event{TimeSlices: make([]TimeSlice, sliceCount)}
	for t := range event.TimeSlices {
		bankCount, err := r.ReadCount(bankHeaderSize)
		if err != nil {
			return nil, err
		}
		slice := make(TimeSlice, bankCount)
		for b := range slice {
			if err := readRawBank(r, &slice[b]); err != nil {
				return nil, err
			}
		}
		event.TimeSlices[t] = slice
	}
	return event, nil
}

func readRawBank(r *Reader, bank *RocBank) error {
	var err error
	if bank.RocID, err = r.ReadInt32(); err != nil {
		return err
	}
	if bank.FrameNumber, err = r.ReadInt32(); err != nil {
		return err
	}
	if bank.TimeStamp, err = r.ReadInt64(); err != nil {
		return err
	}
	n, err := r.ReadCount(hitSize)
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}

	// Columns are filled straight into the hits, the whole block was
	// bounds checked by ReadCount.
	hits := make([]Hit, n)
	for i := range hits {
		hits[i].Crate = r.nextInt32()
	}
	for i := range hits {
		hits[i].Slot = r.nextInt32()
	}
	for i := range hits {
		hits[i].Channel = r.nextInt32()
	}
	for i := range hits {
		hits[i].Charge = r.nextInt32()
	}
	for i := range hits {
		hits[i].Time = r.nextInt64()
	}
	bank.Hits = hits
	return nil
}

type probeResult int

const (
	probeMalformed probeResult = iota
	probeTruncated
	probeTrailing
	probeExact
)

// probeRaw walks the raw layout in the byte order of format without
// allocating and reports how well the buffer fits it.
func probeRaw(data []byte, format Format) probeResult {
	r := NewReader(data, format)
	if err := skipRaw(r); err != nil {
		if errors.Is(err, ErrUnderflow) {
			return probeTruncated
		}
		return probeMalformed
	}
	if r.Remaining() > 0 {
		return probeTrailing
	}
	return probeExact
}

func skipRaw(r *Reader) error {
	sliceCount, err := r.ReadCount(sliceHeaderSize)
	if err != nil {
		return err
	}
	for i := 0; i < sliceCount; i++ {
		bankCount, err := r.ReadCount(bankHeaderSize)
		if err != nil {
			return err
		}
		for j := 0; j < bankCount; j++ {
			if err := r.Skip(2*int32Size + int64Size); err != nil {
				return err
			}
			n, err := r.ReadCount(hitSize)
			if err != nil {
				return err
			}
			if err := r.Skip(n * hitSize); err != nil {
				return err
			}
		}
	}
	return nil
}

type rawCodec struct {
	format Format
}

func (c rawCodec) Encode(e *Event) ([]byte, error) {
	w := NewWriter(c.format, EncodedSize(e))
	writeRaw(w, e)
	return w.Bytes(), nil
}

// Decode ignores bytes after the last bank. Event metadata is not part of
// the raw layout and is left at its zero value.
func (c rawCodec) Decode(data []byte) (*Event, error) {
	return readRaw(NewReader(data, c.format))
}
