package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Configuration struct {
	Events        int      `json:"events" yaml:"events"`
	Slices        int      `json:"slices" yaml:"slices"`
	BanksPerSlice int      `json:"banks_per_slice" yaml:"banks_per_slice"`
	HitsPerBank   int      `json:"hits_per_bank" yaml:"hits_per_bank"`
	Repetitions   int      `json:"repetitions" yaml:"repetitions"`
	NumWorkers    int      `json:"num_workers" yaml:"num_workers"`
	Seed          int64    `json:"seed" yaml:"seed"`
	Formats       []string `json:"formats" yaml:"formats"`
	Verbosity     int      `json:"verbosity" yaml:"verbosity"`
}

func DefaultConfiguration() Configuration {
	return Configuration{
		Events:        1000,
		Slices:        4,
		BanksPerSlice: 8,
		HitsPerBank:   64,
		Repetitions:   3,
		NumWorkers:    1,
		Seed:          1,
		Formats:       []string{"canonical", "legacy", "tagged"},
	}
}

// LoadConfiguration returns the defaults when filename is empty.
func LoadConfiguration(filename string) (Configuration, error) {
	config := DefaultConfiguration()
	if filename == "" {
		return config, nil
	}
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

func printConfiguration(config Configuration, logger Logger) {
	logger.Info(fmt.Sprintf("Events: %d", config.Events), "config")
	logger.Info(fmt.Sprintf("Slices per event: %d", config.Slices), "config")
	logger.Info(fmt.Sprintf("Banks per slice: %d", config.BanksPerSlice), "config")
	logger.Info(fmt.Sprintf("Hits per bank: %d", config.HitsPerBank), "config")
	logger.Info(fmt.Sprintf("Repetitions: %d", config.Repetitions), "config")
	logger.Info(fmt.Sprintf("Number of workers: %d", config.NumWorkers), "config")
	logger.Info(fmt.Sprintf("Formats: %s", strings.Join(config.Formats, ", ")), "config")
}
