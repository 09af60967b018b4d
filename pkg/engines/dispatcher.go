package engines

import (
	"context"
	"errors"
	"fmt"

	timeframe "github.com/jlab/timeframe_go/pkg"
)

// ErrUnknownMimeType is returned for buffers tagged with a mime type no
// data type is registered for.
var ErrUnknownMimeType = errors.New("unknown mime type")

// Dispatcher decodes tagged buffers and hands the events to the engines
// registered for their mime type. Decode may be called concurrently;
// DispatchEvent runs the engines in registration order and must not.
type Dispatcher struct {
	types   map[string]DataType
	engines map[string][]Engine
	stats   *Stats
}

// NewDispatcher returns a dispatcher knowing the two built-in data types.
// stats may be nil.
func NewDispatcher(stats *Stats) *Dispatcher {
	return &Dispatcher{
		types: map[string]DataType{
			MimeType:       CodaTimeFrameType,
			BinaryMimeType: CodaTimeFrameBinaryType,
		},
		engines: make(map[string][]Engine),
		stats:   stats,
	}
}

// RegisterDataType adds or replaces a data type.
func (d *Dispatcher) RegisterDataType(dt DataType) {
	d.types[dt.MimeType] = dt
}

// Register subscribes e to every event mime type it accepts.
func (d *Dispatcher) Register(e Engine) {
	for _, mimeType := range e.InputDataTypes() {
		if _, ok := d.types[mimeType]; !ok {
			continue
		}
		d.engines[mimeType] = append(d.engines[mimeType], e)
	}
}

func (d *Dispatcher) Engines(mimeType string) []Engine {
	return d.engines[mimeType]
}

// Decode turns a buffer tagged with mimeType into an event.
func (d *Dispatcher) Decode(ctx context.Context, mimeType string, data []byte) (*timeframe.Event, error) {
	dt, ok := d.types[mimeType]
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownMimeType, mimeType)
		d.stats.recordDecodeError(ctx, mimeType, err)
		return nil, err
	}
	event, err := dt.Serializer.Decode(data)
	if err != nil {
		d.stats.recordDecodeError(ctx, mimeType, err)
		return nil, err
	}
	d.stats.recordDecoded(ctx, mimeType, len(data))
	return event, nil
}

// Encode serializes event with the codec of mimeType.
func (d *Dispatcher) Encode(mimeType string, event *timeframe.Event) ([]byte, error) {
	dt, ok := d.types[mimeType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMimeType, mimeType)
	}
	return dt.Serializer.Encode(event)
}

// Dispatch decodes data and runs the engines on the result. A buffer that
// fails to decode yields a single error result and reaches no engine.
func (d *Dispatcher) Dispatch(ctx context.Context, mimeType string, data []byte) []EngineData {
	event, err := d.Decode(ctx, mimeType, data)
	if err != nil {
		return []EngineData{errorData("Error decoding %s: %v", mimeType, err)}
	}
	return d.DispatchEvent(ctx, mimeType, event)
}

// DispatchEvent runs every engine registered for mimeType on event and
// returns their outputs.
func (d *Dispatcher) DispatchEvent(ctx context.Context, mimeType string, event *timeframe.Event) []EngineData {
	engines := d.engines[mimeType]
	outputs := make([]EngineData, 0, len(engines))
	input := EngineData{MimeType: mimeType, Data: event}
	for _, e := range engines {
		out := e.Execute(input)
		if out.Status == StatusError {
			logger.Error(fmt.Sprintf("%s: %s", e.Name(), out.Description))
		}
		outputs = append(outputs, out)
	}
	d.stats.recordEvent(ctx, mimeType, event)
	return outputs
}
