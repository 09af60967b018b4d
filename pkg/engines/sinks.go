package engines

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	timeframe "github.com/jlab/timeframe_go/pkg"
)

// ErrOpenFile represents an error when opening an output file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error {
	return e.Err
}

// RotatedPath returns the name of the index-th file of a rotation:
// out.bin, out-2.bin, out-3.bin...
func RotatedPath(base string, index int) string {
	if index <= 1 {
		return base
	}
	ext := filepath.Ext(base)
	if ext == "" || ext == filepath.Base(base) {
		return base + "-" + strconv.Itoa(index)
	}
	return strings.TrimSuffix(base, ext) + "-" + strconv.Itoa(index) + ext
}

// BinarySinkEngine writes every event as a frame record, starting a new
// file every FramesPerFile events.
type BinarySinkEngine struct {
	basePath      string
	framesPerFile int
	mimeType      string
	encoder       timeframe.Encoder

	file       *os.File
	writer     *bufio.Writer
	frameCount int
	fileIndex  int
	written    int
}

func NewBinarySinkEngine(basePath string, framesPerFile int, mimeType string, encoder timeframe.Encoder) (*BinarySinkEngine, error) {
	if framesPerFile <= 0 {
		framesPerFile = 1000
	}
	s := &BinarySinkEngine{
		basePath:      basePath,
		framesPerFile: framesPerFile,
		mimeType:      mimeType,
		encoder:       encoder,
		fileIndex:     1,
	}
	if err := s.openFile(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *BinarySinkEngine) openFile() error {
	path := RotatedPath(s.basePath, s.fileIndex)
	f, err := os.Create(path)
	if err != nil {
		return &ErrOpenFile{Filename: path, Err: err}
	}
	logger.Info(fmt.Sprintf("Creating file: %s", path), "binarySink")
	s.file = f
	s.writer = bufio.NewWriter(f)
	return nil
}

func (s *BinarySinkEngine) closeFile() error {
	return errors.Join(s.writer.Flush(), s.file.Close())
}

func (s *BinarySinkEngine) Name() string        { return "CodaSinkBinary" }
func (s *BinarySinkEngine) Version() string     { return "1.0.0" }
func (s *BinarySinkEngine) Description() string { return "Writes events to rotating frame files" }

func (s *BinarySinkEngine) Configure(EngineData) error { return nil }

func (s *BinarySinkEngine) InputDataTypes() []string  { return []string{s.mimeType} }
func (s *BinarySinkEngine) OutputDataTypes() []string { return []string{s.mimeType} }

func (s *BinarySinkEngine) Execute(input EngineData) EngineData {
	event, errOut := eventInput(input, s.mimeType)
	if errOut != nil {
		return *errOut
	}
	buf, err := s.encoder.Encode(event)
	if err != nil {
		return errorData("Error encoding event: %v", err)
	}
	if err := WriteFrame(s.writer, buf); err != nil {
		return errorData("Error writing frame: %v", err)
	}
	s.written++
	s.frameCount++
	if s.frameCount >= s.framesPerFile {
		if err := s.closeFile(); err != nil {
			return errorData("Error closing file: %v", err)
		}
		s.fileIndex++
		s.frameCount = 0
		if err := s.openFile(); err != nil {
			return errorData("%v", err)
		}
	}
	return input
}

// Written returns the number of frames written to all files.
func (s *BinarySinkEngine) Written() int {
	return s.written
}

func (s *BinarySinkEngine) Close() error {
	return s.closeFile()
}

// CSVSinkEngine writes one line per hit:
// rocId,frameNumber,timeStamp,crate,slot,channel,charge,time
type CSVSinkEngine struct {
	mimeTypes []string
	file      *os.File
	writer    *csv.Writer
}

func NewCSVSinkEngine(path string, mimeTypes ...string) (*CSVSinkEngine, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, &ErrOpenFile{Filename: path, Err: err}
	}
	if len(mimeTypes) == 0 {
		mimeTypes = []string{MimeType, BinaryMimeType}
	}
	return &CSVSinkEngine{mimeTypes: mimeTypes, file: f, writer: csv.NewWriter(f)}, nil
}

func (s *CSVSinkEngine) Name() string        { return "CodaSinkFile" }
func (s *CSVSinkEngine) Version() string     { return "1.0.0" }
func (s *CSVSinkEngine) Description() string { return "Writes every hit as a CSV line" }

func (s *CSVSinkEngine) Configure(EngineData) error { return nil }

func (s *CSVSinkEngine) InputDataTypes() []string  { return s.mimeTypes }
func (s *CSVSinkEngine) OutputDataTypes() []string { return s.mimeTypes }

func (s *CSVSinkEngine) Execute(input EngineData) EngineData {
	event, ok := input.Event()
	if !ok {
		return errorData("Wrong input data: expected *timeframe.Event, got %T", input.Data)
	}
	record := make([]string, 8)
	for _, slice := range event.TimeSlices {
		for _, bank := range slice {
			for _, hit := range bank.Hits {
				record[0] = strconv.FormatInt(int64(bank.RocID), 10)
				record[1] = strconv.FormatInt(int64(bank.FrameNumber), 10)
				record[2] = strconv.FormatInt(bank.TimeStamp, 10)
				record[3] = strconv.FormatInt(int64(hit.Crate), 10)
				record[4] = strconv.FormatInt(int64(hit.Slot), 10)
				record[5] = strconv.FormatInt(int64(hit.Channel), 10)
				record[6] = strconv.FormatInt(int64(hit.Charge), 10)
				record[7] = strconv.FormatInt(hit.Time, 10)
				if err := s.writer.Write(record); err != nil {
					return errorData("Error writing CSV: %v", err)
				}
			}
		}
	}
	return input
}

func (s *CSVSinkEngine) Close() error {
	s.writer.Flush()
	return errors.Join(s.writer.Error(), s.file.Close())
}
