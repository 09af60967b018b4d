//go:build fuzz

package timeframe

import (
	"errors"
	"testing"
)

// FuzzDecode feeds arbitrary buffers to the detecting decoder. It must
// never panic and must fail only with one of the package's sentinel errors.
func FuzzDecode(f *testing.F) {
	legacy, _ := legacyCodec{}.Encode(sampleEvent())
	tagged, _ := taggedCodec{}.Encode(sampleEvent())
	f.Add(Encode(sampleEvent()))
	f.Add(Encode(&Event{}))
	f.Add(legacy)
	f.Add(tagged)
	f.Add([]byte("COTF"))

	f.Fuzz(func(t *testing.T, data []byte) {
		event, err := Decode(data)
		if err != nil {
			if event != nil {
				t.Fatalf("partial event returned with error %v", err)
			}
			if !errors.Is(err, ErrUnderflow) && !errors.Is(err, ErrMalformedLength) &&
				!errors.Is(err, ErrUnsupportedVersion) && !errors.Is(err, ErrMalformedPayload) {
				t.Fatalf("unexpected error: %v", err)
			}
			return
		}
		// A decoded event must encode canonically and decode back the same.
		again, err := Decode(Encode(event))
		if err != nil {
			t.Fatalf("re-decoding canonical encoding: %v", err)
		}
		if again.TotalHitCount() != event.TotalHitCount() || again.TotalRocCount() != event.TotalRocCount() {
			t.Fatalf("canonical re-encoding changed counts")
		}
	})
}

func FuzzCanonicalRoundTrip(f *testing.F) {
	f.Add(int32(1), int32(2), int64(3), int32(4), int64(5), uint8(3))
	f.Fuzz(func(t *testing.T, roc, frame int32, ts int64, charge int32, hitTime int64, hits uint8) {
		e := &Event{}
		bank := RocBank{RocID: roc, FrameNumber: frame, TimeStamp: ts}
		for i := 0; i < int(hits); i++ {
			bank.AddHit(Hit{Crate: int32(i), Slot: int32(i % 16), Channel: int32(i % 16), Charge: charge, Time: hitTime})
		}
		e.AddRocBank(bank)
		decoded, err := Decode(Encode(e))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		requireEqualEvents(t, e, decoded)
	})
}
