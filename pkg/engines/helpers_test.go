package engines

import (
	"sync"
	"testing"

	timeframe "github.com/jlab/timeframe_go/pkg"
)

type recordingLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (l *recordingLogger) Info(message string, module string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, message)
}

func (l *recordingLogger) Error(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, message)
}

func useRecordingLogger(t *testing.T) *recordingLogger {
	t.Helper()
	l := &recordingLogger{}
	SetLogger(l)
	t.Cleanup(func() { SetLogger(timeframe.NopLogger{}) })
	return l
}

func testEvent() *timeframe.Event {
	e := &timeframe.Event{}
	e.AddRocBank(timeframe.RocBank{
		RocID:       1,
		FrameNumber: 7,
		TimeStamp:   700,
		Hits: []timeframe.Hit{
			{Crate: 1, Slot: 2, Channel: 3, Charge: 40, Time: 704},
			{Crate: 1, Slot: 2, Channel: 4, Charge: 41, Time: 708},
		},
	})
	e.StartTimeSlice()
	e.AddRocBank(timeframe.RocBank{RocID: 2, FrameNumber: 8, TimeStamp: 800})
	return e
}

// countingEngine records the events it was given.
type countingEngine struct {
	mimeTypes []string
	events    []*timeframe.Event
}

func (c *countingEngine) Name() string               { return "counting" }
func (c *countingEngine) Description() string        { return "counts events" }
func (c *countingEngine) Version() string            { return "0.0.1" }
func (c *countingEngine) Configure(EngineData) error { return nil }
func (c *countingEngine) InputDataTypes() []string   { return c.mimeTypes }
func (c *countingEngine) OutputDataTypes() []string  { return c.mimeTypes }
func (c *countingEngine) Execute(in EngineData) EngineData {
	event, _ := in.Event()
	c.events = append(c.events, event)
	return in
}
