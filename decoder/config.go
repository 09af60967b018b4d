package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jlab/timeframe_go/pkg/engines"
	"gopkg.in/yaml.v3"
)

// LoadConfiguration reads a JSON or, by extension, YAML file over the
// default values.
func LoadConfiguration(filename string) (engines.Configuration, error) {
	config := engines.DefaultConfiguration()

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return config, fmt.Errorf("error parsing %s: %w", filename, err)
	}
	return config, nil
}

func printConfiguration(config engines.Configuration, logger Logger) {
	logger.Info(fmt.Sprintf("File in: %s", config.FileIn), "config")
	logger.Info(fmt.Sprintf("Input mime type: %s", config.InputMimeType), "config")
	logger.Info(fmt.Sprintf("Strict detection: %t", config.StrictDetection), "config")
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("CSV out: %s", config.CsvOut), "config")
	logger.Info(fmt.Sprintf("Binary out: %s (%s, %d frames per file)", config.BinaryOut, config.BinaryFormat, config.FramesPerFile), "config")
	logger.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	logger.Info(fmt.Sprintf("Run number: %d", config.RunNumber), "config")
	logger.Info(fmt.Sprintf("Skip: %d", config.Skip), "config")
	logger.Info(fmt.Sprintf("Max events: %d", config.MaxEvents), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Discard: %t", config.Discard), "config")
	logger.Info(fmt.Sprintf("Write data: %t", config.WriteData), "config")
	logger.Info(fmt.Sprintf("Compression level: %d", config.CompressionLevel), "config")
	logger.Info(fmt.Sprintf("Number of workers: %d", config.NumWorkers), "config")
	logger.Info(fmt.Sprintf("Print: %t", config.Print), "config")
	logger.Info(fmt.Sprintf("Identify: %t (window %d ns, multiplicity %d)", config.Identify,
		config.Identification.SlidingWindow, config.Identification.Multiplicity), "config")
}
