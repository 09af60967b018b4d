package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerStreams(t *testing.T) {
	var info, errs bytes.Buffer
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	l := Logger{
		InfoLog:  slog.New(NewHandler(&info, opts)),
		ErrorLog: slog.New(slog.NewJSONHandler(&errs, opts)),
	}
	l.Info("Formats: canonical, tagged", "config")
	l.Error("Skipping format \"cbor\"")

	assert.Regexp(t, regexp.MustCompile(`^\[\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2}\] \[config\] Formats: canonical, tagged\n$`), info.String())

	var record map[string]any
	require.NoError(t, json.Unmarshal(errs.Bytes(), &record))
	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "Skipping format \"cbor\"", record["msg"])
}
