package timeframe

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func sampleEvent() *Event {
	e := &Event{
		EventID:      42,
		CreationTime: 1700000000000,
		SourceInfo:   "roc-test",
	}
	e.StartTimeSlice()
	e.AddRocBank(RocBank{
		RocID:       1,
		FrameNumber: 10,
		TimeStamp:   1000,
		Hits: []Hit{
			{Crate: 1, Slot: 3, Channel: 0, Charge: 120, Time: 1004},
			{Crate: 1, Slot: 3, Channel: 7, Charge: -5, Time: 1008},
			{Crate: 2, Slot: 15, Channel: 15, Charge: 4095, Time: 1012},
		},
	})
	e.AddRocBank(RocBank{RocID: 2, FrameNumber: 10, TimeStamp: 1000})
	e.StartTimeSlice()
	e.AddRocBank(RocBank{
		RocID:       3,
		FrameNumber: 11,
		TimeStamp:   2000,
		Hits: []Hit{
			{Crate: 0, Slot: 0, Channel: 0, Charge: math.MinInt32, Time: math.MaxInt64},
			{Crate: -1, Slot: 2, Channel: 3, Charge: math.MaxInt32, Time: -1},
		},
	})
	return e
}

func largeEvent(hits int) *Event {
	bank := RocBank{RocID: 7, FrameNumber: 1, TimeStamp: 123456789}
	for i := 0; i < hits; i++ {
		bank.AddHit(Hit{
			Crate:   int32(1 + i%4),
			Slot:    int32(1 + (i/4)%16),
			Channel: int32(i % 16),
			Charge:  int32(1000 + i%7000),
			Time:    2000000 + int64(i)*100,
		})
	}
	e := &Event{}
	e.AddRocBank(bank)
	return e
}

// withoutMetadata is what the canonical and tagged layouts carry of e.
func withoutMetadata(e *Event) *Event {
	c := *e
	c.EventID = 0
	c.CreationTime = 0
	c.SourceInfo = ""
	return &c
}

func requireEqualEvents(t *testing.T, want, got *Event) {
	t.Helper()
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("event mismatch (-want +got):\n%s", diff)
	}
}
