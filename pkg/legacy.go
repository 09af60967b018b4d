package timeframe

import (
	"bytes"
	"fmt"
)

// LegacyMagic opens every legacy buffer.
var LegacyMagic = []byte("COTF")

// LegacyVersion is the only legacy version this package reads and writes.
const LegacyVersion int32 = 1

// Legacy layout, little-endian:
//
//	"COTF" int32 version int64 eventId int64 creationTime string sourceInfo
//	int32 timeSliceCount
//	  int32 bankCount
//	    int32 rocId int32 frameNumber int64 timeStamp int32 hitCount
//	    if hitCount > 0: int32[] crates, slots, channels, charges; int64[] times
//
// Each hit column carries its own length prefix.
type legacyCodec struct{}

func legacySize(e *Event) int {
	size := len(LegacyMagic) + int32Size + 2*int64Size + int32Size + len(e.SourceInfo) + int32Size
	for _, slice := range e.TimeSlices {
		size += sliceHeaderSize
		for _, bank := range slice {
			size += bankHeaderSize
			if len(bank.Hits) > 0 {
				size += 5*int32Size + hitSize*len(bank.Hits)
			}
		}
	}
	return size
}

func (legacyCodec) Encode(e *Event) ([]byte, error) {
	w := NewWriter(FormatLegacy, legacySize(e))
	w.PutBytes(LegacyMagic)
	w.PutInt32(LegacyVersion)
	w.PutInt64(e.EventID)
	w.PutInt64(e.CreationTime)
	w.PutString(e.SourceInfo)
	w.PutInt32(int32(len(e.TimeSlices)))
	for _, slice := range e.TimeSlices {
		w.PutInt32(int32(len(slice)))
		for _, bank := range slice {
			w.PutInt32(bank.RocID)
			w.PutInt32(bank.FrameNumber)
			w.PutInt64(bank.TimeStamp)
			w.PutInt32(int32(len(bank.Hits)))
			if len(bank.Hits) == 0 {
				continue
			}
			columns := newHitColumns(bank.Hits)
			w.PutInt32Array(columns.crates)
			w.PutInt32Array(columns.slots)
			w.PutInt32Array(columns.channels)
			w.PutInt32Array(columns.charges)
			w.PutInt64Array(columns.times)
		}
	}
	return w.Bytes(), nil
}

func (legacyCodec) Decode(data []byte) (*Event, error) {
	r := NewReader(data, FormatLegacy)
	magic, err := r.ReadBytes(len(LegacyMagic))
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(magic, LegacyMagic) {
		return nil, decodeError(FormatLegacy, 0, fmt.Errorf("%w: missing %q tag", ErrMalformedPayload, LegacyMagic))
	}

	versionOffset := r.Position()
	version, err := r.ReadInt32()
	if err != nil {
		return nil, err
	}
	if version != LegacyVersion {
		return nil, decodeError(FormatLegacy, versionOffset, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version))
	}

	event := &Event{}
	if event.EventID, err = r.ReadInt64(); err != nil {
		return nil, err
	}
	if event.CreationTime, err = r.ReadInt64(); err != nil {
		return nil, err
	}
	if event.SourceInfo, err = r.ReadString(); err != nil {
		return nil, err
	}

	sliceCount, err := r.ReadCount(sliceHeaderSize)
	if err != nil {
		return nil, err
	}
	event.TimeSlices = make([]TimeSlice, sliceCount)
	for t := range event.TimeSlices {
		bankCount, err := r.ReadCount(bankHeaderSize)
		if err != nil {
			return nil, err
		}
		slice := make(TimeSlice, bankCount)
		for b := range slice {
			if err := readLegacyBank(r, &slice[b]); err != nil {
				return nil, err
			}
		}
		event.TimeSlices[t] = slice
	}
	return event, nil
}

func readLegacyBank(r *Reader, bank *RocBank) error {
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
	hitCount, err := r.ReadLength()
	if err != nil {
		return err
	}
	if hitCount == 0 {
		return nil
	}

	var columns hitColumns
	if columns.crates, err = r.ReadInt32Array(); err != nil {
		return err
	}
	if columns.slots, err = r.ReadInt32Array(); err != nil {
		return err
	}
	if columns.channels, err = r.ReadInt32Array(); err != nil {
		return err
	}
	if columns.charges, err = r.ReadInt32Array(); err != nil {
		return err
	}
	if columns.times, err = r.ReadInt64Array(); err != nil {
		return err
	}
	// Column lengths are not cross-checked against hitCount: the shortest
	// one wins and the remaining values are dropped.
	bank.Hits = columns.hits(hitCount)
	return nil
}

// hitColumns is the per-field view of a bank's hits used by the legacy and
// tagged layouts.
type hitColumns struct {
	crates   []int32
	slots    []int32
	channels []int32
	charges  []int32
	times    []int64
}

func newHitColumns(hits []Hit) hitColumns {
	c := hitColumns{
		crates:   make([]int32, len(hits)),
		slots:    make([]int32, len(hits)),
		channels: make([]int32, len(hits)),
		charges:  make([]int32, len(hits)),
		times:    make([]int64, len(hits)),
	}
	for i, h := range hits {
		c.crates[i] = h.Crate
		c.slots[i] = h.Slot
		c.channels[i] = h.Channel
		c.charges[i] = h.Charge
		c.times[i] = h.Time
	}
	return c
}

// hits rebuilds at most limit hits, bounded by the shortest column.
func (c hitColumns) hits(limit int) []Hit {
	n := min(limit, len(c.crates), len(c.slots), len(c.channels), len(c.charges), len(c.times))
	if n <= 0 {
		return nil
	}
	hits := make([]Hit, n)
	for i := range hits {
		hits[i] = Hit{
			Crate:   c.crates[i],
			Slot:    c.slots[i],
			Channel: c.channels[i],
			Charge:  c.charges[i],
			Time:    c.times[i],
		}
	}
	return hits
}
