package timeframe

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"google.golang.org/protobuf/encoding/protowire"
)

// xMsg payload field numbers:
//
//	message Payload { repeated Item item = 1; }
//	message Item    { string name = 1; Data data = 2; }
//	message Data    { sint32 VLSINT32 = 1; sint64 VLSINT64 = 2; ...
//	                  string STRING = 7; ...
//	                  repeated sint32 VLSINT32A = 9; repeated sint64 VLSINT64A = 10; ... }
const (
	payloadItemField protowire.Number = 1
	itemNameField    protowire.Number = 1
	itemDataField    protowire.Number = 2
	dataVLSINT32     protowire.Number = 1
	dataVLSINT64     protowire.Number = 2
	dataSTRING       protowire.Number = 7
	dataVLSINT32A    protowire.Number = 9
	dataVLSINT64A    protowire.Number = 10
)

// EventTypeName is the value of the "event_type" item.
const EventTypeName = "CodaTimeFrame"

const (
	keyEventType      = "event_type"
	keyTimeFrameCount = "time_frame_count"
)

func rocCountKey(t int) string {
	return "time_frame_" + strconv.Itoa(t) + "_roc_count"
}

func rocPrefix(t, r int) string {
	return "time_frame_" + strconv.Itoa(t) + "_roc_" + strconv.Itoa(r)
}

type taggedCodec struct{}

// payloadBuilder appends Items to a Payload, reusing its scratch buffers
// between items.
type payloadBuilder struct {
	buf    []byte
	item   []byte
	data   []byte
	packed []byte
}

func (p *payloadBuilder) add(name string) {
	p.item = protowire.AppendTag(p.item[:0], itemNameField, protowire.BytesType)
	p.item = protowire.AppendString(p.item, name)
	p.item = protowire.AppendTag(p.item, itemDataField, protowire.BytesType)
	p.item = protowire.AppendBytes(p.item, p.data)
	p.buf = protowire.AppendTag(p.buf, payloadItemField, protowire.BytesType)
	p.buf = protowire.AppendBytes(p.buf, p.item)
}

func (p *payloadBuilder) addString(name string, v string) {
	p.data = protowire.AppendTag(p.data[:0], dataSTRING, protowire.BytesType)
	p.data = protowire.AppendString(p.data, v)
	p.add(name)
}

func (p *payloadBuilder) addInt32(name string, v int32) {
	p.data = protowire.AppendTag(p.data[:0], dataVLSINT32, protowire.VarintType)
	p.data = protowire.AppendVarint(p.data, protowire.EncodeZigZag(int64(v)))
	p.add(name)
}

func (p *payloadBuilder) addInt64(name string, v int64) {
	p.data = protowire.AppendTag(p.data[:0], dataVLSINT64, protowire.VarintType)
	p.data = protowire.AppendVarint(p.data, protowire.EncodeZigZag(v))
	p.add(name)
}

func (p *payloadBuilder) addInt32Array(name string, values []int32) {
	p.packed = p.packed[:0]
	for _, v := range values {
		p.packed = protowire.AppendVarint(p.packed, protowire.EncodeZigZag(int64(v)))
	}
	p.data = protowire.AppendTag(p.data[:0], dataVLSINT32A, protowire.BytesType)
	p.data = protowire.AppendBytes(p.data, p.packed)
	p.add(name)
}

func (p *payloadBuilder) addInt64Array(name string, values []int64) {
	p.packed = p.packed[:0]
	for _, v := range values {
		p.packed = protowire.AppendVarint(p.packed, protowire.EncodeZigZag(v))
	}
	p.data = protowire.AppendTag(p.data[:0], dataVLSINT64A, protowire.BytesType)
	p.data = protowire.AppendBytes(p.data, p.packed)
	p.add(name)
}

// Encode writes the event as an xMsg payload. Event metadata is not part of
// the payload.
func (taggedCodec) Encode(e *Event) ([]byte, error) {
	p := &payloadBuilder{buf: make([]byte, 0, 64+2*EncodedSize(e))}
	p.addString(keyEventType, EventTypeName)
	p.addInt32(keyTimeFrameCount, int32(len(e.TimeSlices)))
	for t, slice := range e.TimeSlices {
		p.addInt32(rocCountKey(t), int32(len(slice)))
		for r, bank := range slice {
			prefix := rocPrefix(t, r)
			p.addInt32(prefix+"_id", bank.RocID)
			p.addInt32(prefix+"_frame_number", bank.FrameNumber)
			p.addInt64(prefix+"_timestamp", bank.TimeStamp)
			p.addInt32(prefix+"_hit_count", int32(len(bank.Hits)))
			if len(bank.Hits) == 0 {
				continue
			}
			columns := newHitColumns(bank.Hits)
			p.addInt32Array(prefix+"_crates", columns.crates)
			p.addInt32Array(prefix+"_slots", columns.slots)
			p.addInt32Array(prefix+"_channels", columns.channels)
			p.addInt32Array(prefix+"_charges", columns.charges)
			p.addInt64Array(prefix+"_times", columns.times)
		}
	}
	return p.buf, nil
}

// payloadIndex maps item names to the raw Data messages of every item with
// that name, in payload order. Count keys are read from the first item,
// scalars from the last, and arrays are concatenated across all of them.
type payloadIndex struct {
	values map[string][][]byte
	items  int
}

func (x *payloadIndex) first(key string) ([]byte, bool) {
	values := x.values[key]
	if len(values) == 0 {
		return nil, false
	}
	return values[0], true
}

func (x *payloadIndex) last(key string) ([]byte, bool) {
	values := x.values[key]
	if len(values) == 0 {
		return nil, false
	}
	return values[len(values)-1], true
}

// bound rejects a slice or bank count larger than the number of items in
// the payload, so a short payload cannot force a large allocation.
func (x *payloadIndex) bound(what string, n int) error {
	if n > x.items || n > MaxElements {
		return decodeError(FormatTagged, 0, fmt.Errorf("%w: %d %s in a payload of %d items", ErrMalformedLength, n, what, x.items))
	}
	return nil
}

func (taggedCodec) Decode(data []byte) (*Event, error) {
	index, err := indexPayload(data)
	if err != nil {
		return nil, err
	}

	sliceCount, err := index.count(keyTimeFrameCount)
	if err != nil {
		return nil, err
	}
	if err := index.bound("slices", sliceCount); err != nil {
		return nil, err
	}
	event := &Event{TimeSlices: make([]TimeSlice, sliceCount)}
	banks := 0
	for t := range event.TimeSlices {
		bankCount, err := index.count(rocCountKey(t))
		if err != nil {
			return nil, err
		}
		banks += bankCount
		if err := index.bound("banks", banks); err != nil {
			return nil, err
		}
		slice := make(TimeSlice, bankCount)
		for r := range slice {
			if err := index.bank(rocPrefix(t, r), &slice[r]); err != nil {
				return nil, err
			}
		}
		event.TimeSlices[t] = slice
	}
	return event, nil
}

func indexPayload(data []byte) (*payloadIndex, error) {
	index := &payloadIndex{values: make(map[string][][]byte)}
	offset := 0
	for offset < len(data) {
		num, typ, n := protowire.ConsumeTag(data[offset:])
		if n < 0 {
			return nil, wireError(offset, n)
		}
		offset += n
		if num != payloadItemField || typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, data[offset:])
			if n < 0 {
				return nil, wireError(offset, n)
			}
			offset += n
			continue
		}
		item, n := protowire.ConsumeBytes(data[offset:])
		if n < 0 {
			return nil, wireError(offset, n)
		}
		name, value, err := parseItem(item, offset)
		if err != nil {
			return nil, err
		}
		index.values[name] = append(index.values[name], value)
		index.items++
		offset += n
	}
	return index, nil
}

func parseItem(item []byte, base int) (string, []byte, error) {
	var name string
	var value []byte
	offset := 0
	for offset < len(item) {
		num, typ, n := protowire.ConsumeTag(item[offset:])
		if n < 0 {
			return "", nil, wireError(base+offset, n)
		}
		offset += n
		switch {
		case num == itemNameField && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(item[offset:])
			if n < 0 {
				return "", nil, wireError(base+offset, n)
			}
			name = v
			offset += n
		case num == itemDataField && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(item[offset:])
			if n < 0 {
				return "", nil, wireError(base+offset, n)
			}
			value = v
			offset += n
		default:
			n = protowire.ConsumeFieldValue(num, typ, item[offset:])
			if n < 0 {
				return "", nil, wireError(base+offset, n)
			}
			offset += n
		}
	}
	return name, value, nil
}

// count reads a VLSINT32 count. Missing keys and negative values count as 0.
func (x *payloadIndex) count(key string) (int, error) {
	data, ok := x.first(key)
	if !ok {
		return 0, nil
	}
	v, err := dataInt(data, dataVLSINT32)
	if err != nil {
		return 0, err
	}
	n := int32(v)
	if n > MaxElements {
		return 0, decodeError(FormatTagged, 0, fmt.Errorf("%w: %s = %d", ErrMalformedLength, key, n))
	}
	return max(int(n), 0), nil
}

func (x *payloadIndex) int32Value(key string) (int32, error) {
	data, ok := x.last(key)
	if !ok {
		return 0, nil
	}
	v, err := dataInt(data, dataVLSINT32)
	return int32(v), err
}

func (x *payloadIndex) int64Value(key string) (int64, error) {
	data, ok := x.last(key)
	if !ok {
		return 0, nil
	}
	return dataInt(data, dataVLSINT64)
}

func (x *payloadIndex) bank(prefix string, bank *RocBank) error {
	var err error
	if bank.RocID, err = x.int32Value(prefix + "_id"); err != nil {
		return err
	}
	if bank.FrameNumber, err = x.int32Value(prefix + "_frame_number"); err != nil {
		return err
	}
	if bank.TimeStamp, err = x.int64Value(prefix + "_timestamp"); err != nil {
		return err
	}
	hitCount, err := x.count(prefix + "_hit_count")
	if err != nil || hitCount == 0 {
		return err
	}

	var columns hitColumns
	var present [5]bool
	if columns.crates, present[0], err = x.int32Array(prefix + "_crates"); err != nil {
		return err
	}
	if columns.slots, present[1], err = x.int32Array(prefix + "_slots"); err != nil {
		return err
	}
	if columns.channels, present[2], err = x.int32Array(prefix + "_channels"); err != nil {
		return err
	}
	if columns.charges, present[3], err = x.int32Array(prefix + "_charges"); err != nil {
		return err
	}
	if columns.times, present[4], err = x.int64Array(prefix + "_times"); err != nil {
		return err
	}
	// A bank whose columns are missing or do not hold exactly hitCount
	// values is kept with no hits.
	for _, ok := range present {
		if !ok {
			return nil
		}
	}
	if len(columns.crates) != hitCount || len(columns.slots) != hitCount ||
		len(columns.channels) != hitCount || len(columns.charges) != hitCount ||
		len(columns.times) != hitCount {
		return nil
	}
	bank.Hits = columns.hits(hitCount)
	return nil
}

func (x *payloadIndex) int32Array(key string) ([]int32, bool, error) {
	values, ok, err := x.array(key, dataVLSINT32A)
	if !ok || err != nil {
		return nil, ok, err
	}
	out := make([]int32, len(values))
	for i, v := range values {
		out[i] = int32(v)
	}
	return out, true, nil
}

func (x *payloadIndex) int64Array(key string) ([]int64, bool, error) {
	return x.array(key, dataVLSINT64A)
}

// array concatenates the values of every item named key.
func (x *payloadIndex) array(key string, field protowire.Number) ([]int64, bool, error) {
	items := x.values[key]
	if len(items) == 0 {
		return nil, false, nil
	}
	var out []int64
	for _, data := range items {
		values, err := dataArray(data, field)
		if err != nil {
			return nil, true, err
		}
		out = append(out, values...)
	}
	return out, true, nil
}

// dataInt returns the zigzag varint stored in field of a Data message, or 0
// when the field is absent. sint32 fields are truncated to 32 bits first.
func dataInt(data []byte, field protowire.Number) (int64, error) {
	var value int64
	offset := 0
	for offset < len(data) {
		num, typ, n := protowire.ConsumeTag(data[offset:])
		if n < 0 {
			return 0, wireError(offset, n)
		}
		offset += n
		if num == field && typ == protowire.VarintType {
			v, n := protowire.ConsumeVarint(data[offset:])
			if n < 0 {
				return 0, wireError(offset, n)
			}
			value = decodeZigZag(v, field)
			offset += n
			continue
		}
		n = protowire.ConsumeFieldValue(num, typ, data[offset:])
		if n < 0 {
			return 0, wireError(offset, n)
		}
		offset += n
	}
	return value, nil
}

// dataArray collects a repeated zigzag field, packed or not.
func dataArray(data []byte, field protowire.Number) ([]int64, error) {
	var values []int64
	offset := 0
	for offset < len(data) {
		num, typ, n := protowire.ConsumeTag(data[offset:])
		if n < 0 {
			return nil, wireError(offset, n)
		}
		offset += n
		switch {
		case num == field && typ == protowire.BytesType:
			packed, n := protowire.ConsumeBytes(data[offset:])
			if n < 0 {
				return nil, wireError(offset, n)
			}
			if values == nil {
				values = make([]int64, 0, len(packed))
			}
			for len(packed) > 0 {
				v, m := protowire.ConsumeVarint(packed)
				if m < 0 {
					return nil, wireError(offset, m)
				}
				values = append(values, decodeZigZag(v, field))
				packed = packed[m:]
			}
			offset += n
		case num == field && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data[offset:])
			if n < 0 {
				return nil, wireError(offset, n)
			}
			values = append(values, decodeZigZag(v, field))
			offset += n
		default:
			n = protowire.ConsumeFieldValue(num, typ, data[offset:])
			if n < 0 {
				return nil, wireError(offset, n)
			}
			offset += n
		}
	}
	return values, nil
}

func decodeZigZag(v uint64, field protowire.Number) int64 {
	if field == dataVLSINT32 || field == dataVLSINT32A {
		return int64(int32(protowire.DecodeZigZag(v & math.MaxUint32)))
	}
	return protowire.DecodeZigZag(v)
}

// wireError maps a negative protowire length to a decode error. Truncated
// input is reported as an underflow.
func wireError(offset int, n int) error {
	err := protowire.ParseError(n)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return decodeError(FormatTagged, offset, fmt.Errorf("%w: %v", ErrUnderflow, err))
	}
	return decodeError(FormatTagged, offset, fmt.Errorf("%w: %v", ErrMalformedPayload, err))
}
