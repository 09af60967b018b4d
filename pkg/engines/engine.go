package engines

import (
	"fmt"

	timeframe "github.com/jlab/timeframe_go/pkg"
)

type Status int

const (
	StatusInfo Status = iota
	StatusWarning
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusInfo:
		return "info"
	case StatusWarning:
		return "warning"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// EngineData is what flows between engines: a mime type, the data of that
// type and a status. Events travel decoded, as *timeframe.Event.
type EngineData struct {
	MimeType    string
	Data        any
	Status      Status
	Description string
}

// Event returns the event carried by d, if any.
func (d EngineData) Event() (*timeframe.Event, bool) {
	event, ok := d.Data.(*timeframe.Event)
	return event, ok
}

func errorData(format string, args ...any) EngineData {
	return EngineData{Status: StatusError, Description: fmt.Sprintf(format, args...)}
}

// Engine is one processing stage of a pipeline.
type Engine interface {
	Name() string
	Description() string
	Version() string
	// Configure receives JSON options.
	Configure(config EngineData) error
	Execute(input EngineData) EngineData
	InputDataTypes() []string
	OutputDataTypes() []string
}

// eventInput checks the mime type of input and extracts its event.
func eventInput(input EngineData, want string) (*timeframe.Event, *EngineData) {
	if input.MimeType != want {
		out := errorData("Wrong input type: expected %s, got %s", want, input.MimeType)
		return nil, &out
	}
	event, ok := input.Event()
	if !ok {
		out := errorData("Wrong input data: expected *timeframe.Event, got %T", input.Data)
		return nil, &out
	}
	return event, nil
}
