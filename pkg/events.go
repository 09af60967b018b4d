package timeframe

import "fmt"

// Hit is a single digitized signal from one readout channel.
// Time is in nanoseconds.
type Hit struct {
	Crate   int32
	Slot    int32
	Channel int32
	Charge  int32
	Time    int64
}

// Name returns "crate-slot-channel".
func (h Hit) Name() string {
	return fmt.Sprintf("%d-%d-%d", h.Crate, h.Slot, h.Channel)
}

// ID folds the hardware address into a single integer. Different addresses
// can share an ID, e.g. (1,1,0) and (1,0,16) are both 1016.
func (h Hit) ID() int {
	return int(h.Crate)*1000 + int(h.Slot)*16 + int(h.Channel)
}

// RocBank holds the hits read out by one readout controller for one frame.
type RocBank struct {
	RocID       int32
	FrameNumber int32
	TimeStamp   int64
	Hits        []Hit
}

func (b *RocBank) AddHit(h Hit) {
	b.Hits = append(b.Hits, h)
}

func (b *RocBank) AddHits(hits ...Hit) {
	b.Hits = append(b.Hits, hits...)
}

func (b *RocBank) HitCount() int {
	return len(b.Hits)
}

// TimeSlice groups the banks read out in the same time window.
type TimeSlice []RocBank

// Event is the unit exchanged between pipeline stages.
type Event struct {
	TimeSlices   []TimeSlice
	EventID      int64
	CreationTime int64
	SourceInfo   string
}

// StartTimeSlice appends an empty time slice. Later AddRocBank calls fill it.
func (e *Event) StartTimeSlice() {
	e.TimeSlices = append(e.TimeSlices, TimeSlice{})
}

// AddRocBank appends bank to the last time slice, starting one if needed.
func (e *Event) AddRocBank(bank RocBank) {
	if len(e.TimeSlices) == 0 {
		e.StartTimeSlice()
	}
	last := len(e.TimeSlices) - 1
	e.TimeSlices[last] = append(e.TimeSlices[last], bank)
}

func (e *Event) AddTimeSlice(slice TimeSlice) {
	e.TimeSlices = append(e.TimeSlices, slice)
}

func (e *Event) TimeSliceCount() int {
	return len(e.TimeSlices)
}

func (e *Event) TotalRocCount() int {
	count := 0
	for _, slice := range e.TimeSlices {
		count += len(slice)
	}
	return count
}

func (e *Event) TotalHitCount() int {
	count := 0
	for _, slice := range e.TimeSlices {
		for _, bank := range slice {
			count += len(bank.Hits)
		}
	}
	return count
}

// AllHits returns every hit in slice, bank and acquisition order.
func (e *Event) AllHits() []Hit {
	hits := make([]Hit, 0, e.TotalHitCount())
	for _, slice := range e.TimeSlices {
		for _, bank := range slice {
			hits = append(hits, bank.Hits...)
		}
	}
	return hits
}

func (e *Event) AllRocBanks() []RocBank {
	banks := make([]RocBank, 0, e.TotalRocCount())
	for _, slice := range e.TimeSlices {
		banks = append(banks, slice...)
	}
	return banks
}

// IsEmpty reports whether the event has no banks at all.
func (e *Event) IsEmpty() bool {
	return e.TotalRocCount() == 0
}

// IsValid reports whether every bank has a non-negative frame number and
// timestamp. Decoders never call it.
func (e *Event) IsValid() bool {
	for _, slice := range e.TimeSlices {
		for _, bank := range slice {
			if bank.FrameNumber < 0 || bank.TimeStamp < 0 {
				return false
			}
		}
	}
	return true
}

// String summarises the event counts.
func (e *Event) String() string {
	return fmt.Sprintf("Event{id: %d, slices: %d, banks: %d, hits: %d}",
		e.EventID, e.TimeSliceCount(), e.TotalRocCount(), e.TotalHitCount())
}
