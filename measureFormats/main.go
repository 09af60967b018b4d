package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	timeframe "github.com/jlab/timeframe_go/pkg"
	"github.com/spf13/pflag"
)

var logger Logger

func init() {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	handlerStdOut := NewHandler(os.Stdout, opts)
	handlerStdErr := slog.NewJSONHandler(os.Stderr, opts)
	logger = Logger{
		InfoLog:  slog.New(handlerStdOut),
		ErrorLog: slog.New(handlerStdErr),
	}
}

func main() {
	configFilename := pflag.String("config", "", "Configuration file path (JSON or YAML)")
	formats := pflag.StringSlice("formats", nil, "Formats to measure (canonical, legacy, tagged)")
	events := pflag.Int("events", 0, "Number of events to generate")
	pflag.Parse()

	configuration, err := LoadConfiguration(*configFilename)
	if err != nil {
		logger.Error(fmt.Errorf("Error reading configuration file: %w", err).Error())
		os.Exit(1)
	}
	if len(*formats) > 0 {
		configuration.Formats = *formats
	}
	if *events > 0 {
		configuration.Events = *events
	}
	if configuration.NumWorkers < 1 {
		configuration.NumWorkers = 1
	}
	if configuration.Verbosity > 0 {
		printConfiguration(configuration, logger)
	}

	start := time.Now()
	evts := generateEvents(configuration)
	logger.Info(fmt.Sprintf("Generated %d events in %d ms", len(evts), time.Since(start).Milliseconds()), "main")

	failed := false
	for _, name := range configuration.Formats {
		format := timeframe.ParseFormat(name)
		codec, err := timeframe.CodecFor(format)
		if err != nil {
			logger.Error(fmt.Errorf("Skipping format %q: %w", name, err).Error())
			failed = true
			continue
		}
		for i := 0; i < configuration.Repetitions; i++ {
			m, err := measureFormat(codec, format, evts, configuration.NumWorkers)
			if err != nil {
				logger.Error(err.Error())
				failed = true
				break
			}
			fmt.Printf("(%s, run %d) Encode: %d ms, decode: %d ms, size %d bytes, %.2f bytes/hit\n",
				format, i, m.EncodeDur.Milliseconds(), m.DecodeDur.Milliseconds(), m.Bytes,
				float64(m.Bytes)/float64(max(m.Hits, 1)))
		}
	}

	fmt.Printf("Total time: %d ms\n", time.Since(start).Milliseconds())
	if failed {
		os.Exit(1)
	}
}
