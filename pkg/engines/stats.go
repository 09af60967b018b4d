package engines

import (
	"context"
	"errors"
	"fmt"

	timeframe "github.com/jlab/timeframe_go/pkg"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	instrumentName = "github.com/jlab/timeframe_go/pkg/engines"

	unitCount = "1"
	unitBytes = "By"

	eventsProcessedKey = "timeframe.events.processed"
	bytesDecodedKey    = "timeframe.bytes.decoded"
	hitsProcessedKey   = "timeframe.hits.processed"
	decodeErrorsKey    = "timeframe.decode.errors"
)

// Stats holds the counters of a pipeline. The codec keeps no counters of
// its own; whoever runs the pipeline owns a Stats. A nil *Stats records
// nothing.
type Stats struct {
	eventsProcessed metric.Int64Counter
	bytesDecoded    metric.Int64Counter
	hitsProcessed   metric.Int64Counter
	decodeErrors    metric.Int64Counter
}

func NewStats(mp metric.MeterProvider) (*Stats, error) {
	m := mp.Meter(instrumentName)

	eventsProcessed, err := m.Int64Counter(
		eventsProcessedKey,
		metric.WithDescription("The number of events decoded and dispatched"),
		metric.WithUnit(unitCount),
	)
	if err != nil {
		return nil, fmt.Errorf("cannot create %s metric: %w", eventsProcessedKey, err)
	}
	bytesDecoded, err := m.Int64Counter(
		bytesDecodedKey,
		metric.WithDescription("The number of bytes successfully decoded"),
		metric.WithUnit(unitBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("cannot create %s metric: %w", bytesDecodedKey, err)
	}
	hitsProcessed, err := m.Int64Counter(
		hitsProcessedKey,
		metric.WithDescription("The number of hits in the dispatched events"),
		metric.WithUnit(unitCount),
	)
	if err != nil {
		return nil, fmt.Errorf("cannot create %s metric: %w", hitsProcessedKey, err)
	}
	decodeErrors, err := m.Int64Counter(
		decodeErrorsKey,
		metric.WithDescription("The number of buffers that failed to decode"),
		metric.WithUnit(unitCount),
	)
	if err != nil {
		return nil, fmt.Errorf("cannot create %s metric: %w", decodeErrorsKey, err)
	}

	return &Stats{
		eventsProcessed: eventsProcessed,
		bytesDecoded:    bytesDecoded,
		hitsProcessed:   hitsProcessed,
		decodeErrors:    decodeErrors,
	}, nil
}

func (s *Stats) recordDecoded(ctx context.Context, mimeType string, size int) {
	if s == nil {
		return
	}
	s.bytesDecoded.Add(ctx, int64(size), metric.WithAttributes(attribute.String("mime_type", mimeType)))
}

func (s *Stats) recordEvent(ctx context.Context, mimeType string, event *timeframe.Event) {
	if s == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("mime_type", mimeType))
	s.eventsProcessed.Add(ctx, 1, attrs)
	s.hitsProcessed.Add(ctx, int64(event.TotalHitCount()), attrs)
}

func (s *Stats) recordDecodeError(ctx context.Context, mimeType string, err error) {
	if s == nil {
		return
	}
	s.decodeErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mime_type", mimeType),
		attribute.String("error", errorKind(err)),
	))
}

// errorKind names the sentinel behind a decode error.
func errorKind(err error) string {
	switch {
	case errors.Is(err, timeframe.ErrUnderflow):
		return "underflow"
	case errors.Is(err, timeframe.ErrMalformedLength):
		return "malformed_length"
	case errors.Is(err, timeframe.ErrUnsupportedVersion):
		return "unsupported_version"
	case errors.Is(err, timeframe.ErrAmbiguousFormat):
		return "ambiguous_format"
	case errors.Is(err, timeframe.ErrMalformedPayload):
		return "malformed_payload"
	case errors.Is(err, ErrUnknownMimeType):
		return "unknown_mime_type"
	default:
		return "other"
	}
}
