package main

import (
	"fmt"
	"math/rand"
	"time"

	timeframe "github.com/jlab/timeframe_go/pkg"
	"golang.org/x/sync/errgroup"
)

// Measurement is the outcome of one pass over the events in one format.
type Measurement struct {
	Format    timeframe.Format
	Bytes     int
	Hits      int
	EncodeDur time.Duration
	DecodeDur time.Duration
}

func generateEvents(config Configuration) []*timeframe.Event {
	rng := rand.New(rand.NewSource(config.Seed))
	events := make([]*timeframe.Event, config.Events)
	for i := range events {
		e := &timeframe.Event{
			EventID:      int64(i),
			CreationTime: time.Now().UnixMilli(),
			SourceInfo:   "measureFormats",
		}
		for t := 0; t < config.Slices; t++ {
			slice := make(timeframe.TimeSlice, config.BanksPerSlice)
			for b := range slice {
				bank := timeframe.RocBank{
					RocID:       int32(b + 1),
					FrameNumber: int32(i*config.Slices + t),
					TimeStamp:   int64(i*config.Slices+t) * 65536,
					Hits:        make([]timeframe.Hit, config.HitsPerBank),
				}
				for h := range bank.Hits {
					bank.Hits[h] = timeframe.Hit{
						Crate:   int32(1 + rng.Intn(4)),
						Slot:    int32(3 + rng.Intn(14)),
						Channel: int32(rng.Intn(16)),
						Charge:  int32(rng.Intn(8192)),
						Time:    bank.TimeStamp + int64(rng.Intn(65536)),
					}
				}
				slice[b] = bank
			}
			e.AddTimeSlice(slice)
		}
		events[i] = e
	}
	return events
}

// measureFormat encodes every event with codec, then decodes the buffers
// back through the auto-detecting facade on numWorkers goroutines.
func measureFormat(codec timeframe.Codec, format timeframe.Format, events []*timeframe.Event, numWorkers int) (Measurement, error) {
	m := Measurement{Format: format}
	buffers := make([][]byte, len(events))

	start := time.Now()
	for i, event := range events {
		buf, err := codec.Encode(event)
		if err != nil {
			return m, fmt.Errorf("error encoding event %d as %s: %w", event.EventID, format, err)
		}
		buffers[i] = buf
		m.Bytes += len(buf)
	}
	m.EncodeDur = time.Since(start)

	hits := make([]int, len(buffers))
	var g errgroup.Group
	g.SetLimit(numWorkers)
	start = time.Now()
	for i, buf := range buffers {
		i, buf := i, buf
		g.Go(func() error {
			event, err := timeframe.Decode(buf)
			if err != nil {
				return fmt.Errorf("error decoding event %d as %s: %w", i, format, err)
			}
			if detected := timeframe.Detect(buf); detected != format {
				return fmt.Errorf("event %d encoded as %s detected as %s", i, format, detected)
			}
			hits[i] = event.TotalHitCount()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return m, err
	}
	m.DecodeDur = time.Since(start)

	for i, n := range hits {
		if want := events[i].TotalHitCount(); n != want {
			return m, fmt.Errorf("event %d as %s: decoded %d hits, encoded %d", i, format, n, want)
		}
		m.Hits += n
	}
	return m, nil
}
