package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	timeframe "github.com/jlab/timeframe_go/pkg"
	"github.com/jlab/timeframe_go/pkg/channels"
	"github.com/jlab/timeframe_go/pkg/engines"
	"github.com/jlab/timeframe_go/pkg/writer"
	"github.com/spf13/pflag"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

var configuration engines.Configuration

var (
	logger         Logger
	VerbosityLevel int
)

func init() {
	logger = NewLogger("")
}

func main() {
	configFilename := pflag.String("config", "", "Configuration file path (JSON or YAML)")
	printEvents := pflag.Bool("print", false, "Log every event with the printer engine")
	identify := pflag.Bool("identify", false, "Run event identification on every time frame")
	pflag.Parse()

	var err error
	configuration, err = LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	if *printEvents {
		configuration.Print = true
	}
	if *identify {
		configuration.Identify = true
	}
	if configuration.LogFile != "" {
		logger = NewLogger(configuration.LogFile)
		defer logger.Close()
	}
	engines.SetLogger(logger)
	writer.SetLogger(logger)
	channels.SetLogger(logger)

	VerbosityLevel = configuration.Verbosity
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Reading configuration file: %s", *configFilename)
		logger.Info(message, "main")
		printConfiguration(configuration, logger)
	}

	if err := run(context.Background()); err != nil {
		logger.Error(err.Error())
		logger.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(ctx)

	stats, err := engines.NewStats(provider)
	if err != nil {
		return err
	}
	dispatcher := engines.NewDispatcher(stats)
	if configuration.StrictDetection {
		dt, ok := engines.LookupDataType(configuration.InputMimeType)
		if !ok {
			return fmt.Errorf("%w: %s", engines.ErrUnknownMimeType, configuration.InputMimeType)
		}
		strict, err := engines.NewDataType(dt.MimeType, outputFormat(dt), true)
		if err != nil {
			return err
		}
		dispatcher.RegisterDataType(strict)
	}

	channelMap, err := loadChannelMap()
	if err != nil {
		return err
	}

	sinks, err := registerEngines(dispatcher, channelMap)
	defer func() {
		for _, sink := range sinks {
			if err := sink.Close(); err != nil {
				logger.Error(fmt.Errorf("error closing sink: %w", err).Error())
			}
		}
	}()
	if err != nil {
		return err
	}

	file, err := os.Open(configuration.FileIn)
	if err != nil {
		return fmt.Errorf("Error opening file: %w", err)
	}
	defer file.Close()

	start := time.Now()
	fileReader := NewFileReader(file, configuration.Skip, configuration.MaxEvents)
	totals, err := runWorkers(ctx, fileReader, dispatcher, configuration.InputMimeType,
		configuration.NumWorkers, configuration.Discard)
	duration := time.Since(start)

	logger.Info(fmt.Sprintf("Events read: %d, decoded: %d, failed: %d, hits: %d",
		totals.Read, totals.Decoded, totals.Failed, totals.Hits), "main")
	logger.Info(fmt.Sprintf("Total time: %d ms", duration.Milliseconds()), "main")
	if VerbosityLevel > 0 {
		printMetrics(ctx, reader)
	}
	return err
}

func outputFormat(dt engines.DataType) timeframe.Format {
	if dt.MimeType == engines.MimeType {
		return timeframe.FormatTagged
	}
	return timeframe.FormatCanonical
}

func loadChannelMap() (*channels.ChannelMap, error) {
	if configuration.NoDB {
		return nil, nil
	}
	dbConn, err := channels.ConnectToDatabase(configuration.User, configuration.Passwd, configuration.Host, configuration.DBName)
	if err != nil {
		return nil, fmt.Errorf("Error connection to database: %w", err)
	}
	defer dbConn.Close()
	return channels.LoadChannelMap(dbConn, configuration.RunNumber)
}

// registerEngines wires the configured outputs. The returned closers are
// valid even when err is not nil.
func registerEngines(dispatcher *engines.Dispatcher, channelMap *channels.ChannelMap) ([]io.Closer, error) {
	var sinks []io.Closer
	mimeType := configuration.InputMimeType

	if configuration.Print {
		dt, ok := engines.LookupDataType(mimeType)
		if !ok {
			return sinks, fmt.Errorf("%w: %s", engines.ErrUnknownMimeType, mimeType)
		}
		dispatcher.Register(engines.NewPrinterEngine(dt, configuration.Printer))
	}

	if configuration.Identify {
		dt, ok := engines.LookupDataType(mimeType)
		if !ok {
			return sinks, fmt.Errorf("%w: %s", engines.ErrUnknownMimeType, mimeType)
		}
		dispatcher.Register(engines.NewEventIdentificationEngine(dt, configuration.Identification))
	}

	if configuration.WriteData && configuration.FileOut != "" {
		w, err := writer.NewWriter(configuration.FileOut, configuration.CompressionLevel, configuration.RunNumber, channelMap)
		if err != nil {
			return sinks, err
		}
		sink := writer.NewSinkEngine(w, mimeType)
		sinks = append(sinks, sink)
		dispatcher.Register(sink)
	}

	if configuration.CsvOut != "" {
		sink, err := engines.NewCSVSinkEngine(configuration.CsvOut, mimeType)
		if err != nil {
			return sinks, err
		}
		sinks = append(sinks, sink)
		dispatcher.Register(sink)
	}

	if configuration.BinaryOut != "" {
		codec, err := timeframe.CodecFor(timeframe.ParseFormat(configuration.BinaryFormat))
		if err != nil {
			return sinks, fmt.Errorf("binary output %q: %w", configuration.BinaryFormat, err)
		}
		sink, err := engines.NewBinarySinkEngine(configuration.BinaryOut, configuration.FramesPerFile, mimeType, codec)
		if err != nil {
			return sinks, err
		}
		sinks = append(sinks, sink)
		dispatcher.Register(sink)
	}

	if len(dispatcher.Engines(mimeType)) == 0 {
		return sinks, errors.New("no output configured: set file_out, csv_out, binary_out, print or identify")
	}
	return sinks, nil
}

func printMetrics(ctx context.Context, reader sdkmetric.Reader) {
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		logger.Error(fmt.Errorf("error collecting metrics: %w", err).Error())
		return
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				message := fmt.Sprintf("%s %v: %d", m.Name, dp.Attributes.ToSlice(), dp.Value)
				logger.Info(message, "metrics")
			}
		}
	}
}
