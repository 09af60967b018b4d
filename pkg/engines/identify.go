package engines

import (
	"cmp"
	"encoding/json"
	"fmt"
	"sync/atomic"

	timeframe "github.com/jlab/timeframe_go/pkg"
	"golang.org/x/exp/slices"
)

// IdentificationOptions holds the window width in ns, edges included, and
// the number of hits a window needs to form an event.
type IdentificationOptions struct {
	SlidingWindow int64 `json:"sliding_window" yaml:"sliding_window"`
	Multiplicity  int   `json:"multiplicity" yaml:"multiplicity"`
	Verbose       bool  `json:"verbose" yaml:"verbose"`
}

func DefaultIdentificationOptions() IdentificationOptions {
	return IdentificationOptions{SlidingWindow: 40, Multiplicity: 2}
}

// IdentifiedEvent is a group of hits close enough in time to be one
// physics event.
type IdentifiedEvent struct {
	Start int64
	End   int64
	// Banks holds the hits of the event grouped by the bank they came from,
	// in the order the banks appear in the time frame.
	Banks []timeframe.RocBank
}

func (e IdentifiedEvent) HitCount() int {
	n := 0
	for _, bank := range e.Banks {
		n += len(bank.Hits)
	}
	return n
}

type windowHit struct {
	hit  timeframe.Hit
	bank int
}

// IdentifyEvents runs a sliding window over the hits of a time frame,
// ordered by time. A window opens at the earliest hit not yet used; if it
// holds at least multiplicity hits they become an event and the next
// window opens after them, otherwise the window slides to the next hit.
// Events never share hits.
func IdentifyEvents(event *timeframe.Event, window int64, multiplicity int) []IdentifiedEvent {
	banks := event.AllRocBanks()
	var hits []windowHit
	for b, bank := range banks {
		for _, hit := range bank.Hits {
			hits = append(hits, windowHit{hit: hit, bank: b})
		}
	}
	slices.SortStableFunc(hits, func(a, b windowHit) int {
		return cmp.Compare(a.hit.Time, b.hit.Time)
	})
	multiplicity = max(multiplicity, 1)

	var events []IdentifiedEvent
	for i := 0; i < len(hits); {
		j := i + 1
		for j < len(hits) && hits[j].hit.Time-hits[i].hit.Time <= window {
			j++
		}
		if j-i < multiplicity {
			i++
			continue
		}
		events = append(events, newIdentifiedEvent(banks, hits[i:j]))
		i = j
	}
	return events
}

func newIdentifiedEvent(banks []timeframe.RocBank, hits []windowHit) IdentifiedEvent {
	event := IdentifiedEvent{Start: hits[0].hit.Time, End: hits[len(hits)-1].hit.Time}
	byBank := make(map[int]int)
	var order []int
	for _, h := range hits {
		if _, ok := byBank[h.bank]; !ok {
			byBank[h.bank] = -1
			order = append(order, h.bank)
		}
	}
	slices.Sort(order)
	for i, b := range order {
		byBank[b] = i
		source := banks[b]
		event.Banks = append(event.Banks, timeframe.RocBank{
			RocID:       source.RocID,
			FrameNumber: source.FrameNumber,
			TimeStamp:   source.TimeStamp,
		})
	}
	for _, h := range hits {
		event.Banks[byBank[h.bank]].AddHit(h.hit)
	}
	return event
}

// ToEvent returns a time frame with one time slice per identified event.
// Metadata is copied from source.
func ToEvent(source *timeframe.Event, events []IdentifiedEvent) *timeframe.Event {
	out := &timeframe.Event{
		EventID:      source.EventID,
		CreationTime: source.CreationTime,
		SourceInfo:   source.SourceInfo,
		TimeSlices:   make([]timeframe.TimeSlice, 0, len(events)),
	}
	for _, e := range events {
		out.AddTimeSlice(e.Banks)
	}
	return out
}

// EventIdentificationEngine finds events in a time frame by hit
// multiplicity within a sliding time window. Its output carries a time
// frame holding one time slice per identified event.
type EventIdentificationEngine struct {
	dataType   DataType
	options    IdentificationOptions
	frames     atomic.Int64
	identified atomic.Int64
}

func NewEventIdentificationEngine(dataType DataType, options IdentificationOptions) *EventIdentificationEngine {
	return &EventIdentificationEngine{dataType: dataType, options: options}
}

func (e *EventIdentificationEngine) Name() string {
	return "CodaTimeFrameEventIdentification"
}

func (e *EventIdentificationEngine) Description() string {
	return "Identifies events in " + e.dataType.MimeType + " time frames by hit multiplicity in a sliding time window"
}

func (e *EventIdentificationEngine) Version() string {
	return "1.0.0"
}

func (e *EventIdentificationEngine) InputDataTypes() []string {
	return []string{e.dataType.MimeType, JSONMimeType}
}

func (e *EventIdentificationEngine) OutputDataTypes() []string {
	return []string{e.dataType.MimeType}
}

func (e *EventIdentificationEngine) Options() IdentificationOptions {
	return e.options
}

// Configure reads IdentificationOptions from a JSON string or byte slice.
// Keys that are absent keep their current value.
func (e *EventIdentificationEngine) Configure(config EngineData) error {
	if config.MimeType != JSONMimeType {
		return nil
	}
	var data []byte
	switch v := config.Data.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("event identification configuration: unexpected data %T", config.Data)
	}
	options := e.options
	if err := json.Unmarshal(data, &options); err != nil {
		errMessage := fmt.Errorf("error parsing event identification configuration: %w", err)
		logger.Error(errMessage.Error())
		return errMessage
	}
	if options.SlidingWindow < 0 || options.Multiplicity < 1 {
		errMessage := fmt.Errorf("invalid event identification configuration: sliding_window %d, multiplicity %d",
			options.SlidingWindow, options.Multiplicity)
		logger.Error(errMessage.Error())
		return errMessage
	}
	e.options = options
	if e.options.Verbose {
		logger.Info(fmt.Sprintf("Event identification configured: %+v", e.options), "identification")
	}
	return nil
}

func (e *EventIdentificationEngine) Execute(input EngineData) EngineData {
	event, errOut := eventInput(input, e.dataType.MimeType)
	if errOut != nil {
		return *errOut
	}
	events := IdentifyEvents(event, e.options.SlidingWindow, e.options.Multiplicity)
	frames := e.frames.Add(1)
	total := e.identified.Add(int64(len(events)))

	if e.options.Verbose {
		for _, id := range events {
			logger.Info(fmt.Sprintf("Event in frame %d: %d hits in [%d, %d] ns from %d banks",
				event.EventID, id.HitCount(), id.Start, id.End, len(id.Banks)), "identification")
		}
	}
	return EngineData{
		MimeType:    input.MimeType,
		Data:        ToEvent(event, events),
		Description: fmt.Sprintf("%d events identified (%d in %d frames)", len(events), total, frames),
	}
}
