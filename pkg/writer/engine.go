package writer

import (
	"fmt"

	"github.com/jlab/timeframe_go/pkg/engines"
)

// SinkEngine runs a Writer as the last stage of a pipeline.
type SinkEngine struct {
	writer    *Writer
	mimeTypes []string
}

// NewSinkEngine accepts events of both built-in mime types unless told
// otherwise.
func NewSinkEngine(w *Writer, mimeTypes ...string) *SinkEngine {
	if len(mimeTypes) == 0 {
		mimeTypes = []string{engines.MimeType, engines.BinaryMimeType}
	}
	return &SinkEngine{writer: w, mimeTypes: mimeTypes}
}

func (s *SinkEngine) Name() string        { return "CodaSinkHDF5" }
func (s *SinkEngine) Version() string     { return "1.0.0" }
func (s *SinkEngine) Description() string { return "Writes events to HDF5 tables" }

func (s *SinkEngine) Configure(engines.EngineData) error { return nil }

func (s *SinkEngine) InputDataTypes() []string  { return s.mimeTypes }
func (s *SinkEngine) OutputDataTypes() []string { return s.mimeTypes }

func (s *SinkEngine) Execute(input engines.EngineData) engines.EngineData {
	event, ok := input.Event()
	if !ok {
		return engines.EngineData{
			Status:      engines.StatusError,
			Description: fmt.Sprintf("Wrong input data: expected *timeframe.Event, got %T", input.Data),
		}
	}
	if err := s.writer.WriteEvent(event); err != nil {
		return engines.EngineData{
			Status:      engines.StatusError,
			Description: fmt.Sprintf("Error writing event %d: %v", event.EventID, err),
		}
	}
	return input
}

func (s *SinkEngine) Close() error {
	return s.writer.Close()
}
