package main

import (
	"fmt"
	"io"

	"github.com/jlab/timeframe_go/pkg/engines"
)

// FileReader hands out the frames of a frame file, honouring the skip and
// max_events settings.
type FileReader struct {
	frames    *engines.FrameReader
	skip      int
	maxEvents int
	EvtCount  int
}

func NewFileReader(r io.Reader, skip int, maxEvents int) *FileReader {
	return &FileReader{frames: engines.NewFrameReader(r), skip: skip, maxEvents: maxEvents, EvtCount: -1}
}

// getNextEvent returns the next frame to decode and its index in the file.
func (f *FileReader) getNextEvent() (int, []byte, error) {
	for {
		frame, err := f.frames.Next()
		if err != nil {
			return f.EvtCount, nil, err
		}
		f.EvtCount++
		if f.EvtCount >= f.maxEvents+f.skip {
			if VerbosityLevel > 0 {
				logger.Info("Max events reached", "fileReader")
			}
			return f.EvtCount, nil, io.EOF
		}
		if f.EvtCount < f.skip {
			if VerbosityLevel > 1 {
				logger.Info(fmt.Sprintf("Skipping event %d", f.EvtCount), "fileReader")
			}
			continue
		}
		if VerbosityLevel > 1 {
			message := fmt.Sprintf("Reading event %d (%d bytes)", f.EvtCount, len(frame))
			logger.Info(message, "fileReader")
		}
		return f.EvtCount, frame, nil
	}
}
