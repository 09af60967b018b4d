package engines

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	timeframe "github.com/jlab/timeframe_go/pkg"
)

type PrinterOptions struct {
	Verbose                bool `json:"verbose" yaml:"verbose"`
	ShowBinaryDetails      bool `json:"show_binary_details" yaml:"show_binary_details"`
	MaxBytesToShow         int  `json:"max_bytes_to_show" yaml:"max_bytes_to_show"`
	ShowSerializationStats bool `json:"show_serialization_stats" yaml:"show_serialization_stats"`
	ShowHexDump            bool `json:"show_hex_dump" yaml:"show_hex_dump"`
}

func DefaultPrinterOptions() PrinterOptions {
	return PrinterOptions{
		ShowBinaryDetails:      true,
		MaxBytesToShow:         256,
		ShowSerializationStats: true,
	}
}

// PrinterEngine logs a description of every event it sees and passes the
// event through unchanged.
type PrinterEngine struct {
	dataType        DataType
	options         PrinterOptions
	eventCount      atomic.Int64
	totalBinarySize atomic.Int64
}

func NewPrinterEngine(dataType DataType, options PrinterOptions) *PrinterEngine {
	return &PrinterEngine{dataType: dataType, options: options}
}

func (p *PrinterEngine) Name() string {
	return "CodaTimeFramePrinter"
}

func (p *PrinterEngine) Description() string {
	return "Prints " + p.dataType.MimeType + " events and their serialization details, passing them through unchanged"
}

func (p *PrinterEngine) Version() string {
	return "1.0.0"
}

func (p *PrinterEngine) InputDataTypes() []string {
	return []string{p.dataType.MimeType, JSONMimeType}
}

func (p *PrinterEngine) OutputDataTypes() []string {
	return []string{p.dataType.MimeType, JSONMimeType}
}

// Configure reads PrinterOptions from a JSON string or byte slice. Keys
// that are absent keep their current value.
func (p *PrinterEngine) Configure(config EngineData) error {
	if config.MimeType != JSONMimeType {
		return nil
	}
	var data []byte
	switch v := config.Data.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("printer configuration: unexpected data %T", config.Data)
	}
	options := p.options
	if err := json.Unmarshal(data, &options); err != nil {
		errMessage := fmt.Errorf("error parsing printer configuration: %w", err)
		logger.Error(errMessage.Error())
		return errMessage
	}
	p.options = options
	if p.options.Verbose {
		logger.Info(fmt.Sprintf("Printer configured: %+v", p.options), "printer")
	}
	return nil
}

func (p *PrinterEngine) Execute(input EngineData) EngineData {
	event, errOut := eventInput(input, p.dataType.MimeType)
	if errOut != nil {
		return *errOut
	}
	buf, err := p.dataType.Serializer.Encode(event)
	if err != nil {
		return errorData("Error processing CodaTimeFrame: %v", err)
	}
	p.eventCount.Add(1)
	p.totalBinarySize.Add(int64(len(buf)))

	for _, line := range p.Report(event, buf) {
		logger.Info(line, "printer")
	}
	return EngineData{MimeType: input.MimeType, Data: event}
}

// Report builds the lines Execute logs for event, whose serialized form is buf.
func (p *PrinterEngine) Report(event *timeframe.Event, buf []byte) []string {
	separator := strings.Repeat("=", 60)
	lines := []string{separator, "CodaTimeFrame Analysis", separator}
	lines = append(lines, summaryLines(event, len(buf))...)
	if p.options.ShowSerializationStats {
		lines = append(lines, serializationLines(event, len(buf))...)
	}
	if p.options.ShowBinaryDetails {
		lines = append(lines, structureLines(buf)...)
		if p.options.ShowHexDump {
			lines = append(lines, HexDump(buf, p.options.MaxBytesToShow)...)
		}
	}
	lines = append(lines, p.statisticsLines()...)
	return append(lines, separator)
}

func summaryLines(event *timeframe.Event, size int) []string {
	return []string{
		"Event Summary:",
		fmt.Sprintf("  Event ID: %d", event.EventID),
		fmt.Sprintf("  Creation Time: %d", event.CreationTime),
		fmt.Sprintf("  Source Info: %s", event.SourceInfo),
		fmt.Sprintf("  Time Frames: %d", event.TimeSliceCount()),
		fmt.Sprintf("  Total ROCs: %d", event.TotalRocCount()),
		fmt.Sprintf("  Total Hits: %d", event.TotalHitCount()),
		fmt.Sprintf("  Serialized Size: %s", FormatBinarySize(size)),
	}
}

func serializationLines(event *timeframe.Event, size int) []string {
	expected := timeframe.EncodedSize(event)
	lines := []string{
		"Serialization Details:",
		fmt.Sprintf("  Serialized Size: %s", FormatBinarySize(size)),
		fmt.Sprintf("  Canonical Size: %s", FormatBinarySize(expected)),
		fmt.Sprintf("  Serialization Efficiency: %.2f%%", float64(size)/float64(expected)*100),
	}
	if hits := event.TotalHitCount(); hits > 0 {
		lines = append(lines, fmt.Sprintf("  Bytes per Hit: %.2f", float64(size)/float64(hits)))
	}
	return lines
}

func structureLines(buf []byte) []string {
	format := timeframe.Detect(buf)
	lines := []string{
		"Binary Structure:",
		fmt.Sprintf("  Total Buffer Size: %s", FormatBinarySize(len(buf))),
		fmt.Sprintf("  Format: %s", format),
	}
	if format == timeframe.FormatCanonical && len(buf) >= 4 {
		count := int32(binary.LittleEndian.Uint32(buf))
		lines = append(lines,
			fmt.Sprintf("  Time Frame Count (from binary): %d", count),
			fmt.Sprintf("  Header Size: %s", FormatBinarySize(4)),
			fmt.Sprintf("  Data Size: %s", FormatBinarySize(len(buf)-4)),
		)
	}
	return lines
}

func (p *PrinterEngine) statisticsLines() []string {
	count := p.eventCount.Load()
	total := p.totalBinarySize.Load()
	lines := []string{
		"Statistics:",
		fmt.Sprintf("  Events processed: %d", count),
		fmt.Sprintf("  Total binary data: %s", FormatBinarySize(int(total))),
	}
	if count > 0 {
		lines = append(lines, fmt.Sprintf("  Average event size: %s", FormatBinarySize(int(total/count))))
	}
	return lines
}

// FormatBinarySize prints a byte count in B, KB or MB, truncating.
func FormatBinarySize(bytes int) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%d KB", bytes/1024)
	default:
		return fmt.Sprintf("%d MB", bytes/(1024*1024))
	}
}

// HexDump renders the first maxBytes of buf, 16 bytes per line with the
// printable ASCII alongside.
func HexDump(buf []byte, maxBytes int) []string {
	n := min(maxBytes, len(buf))
	lines := []string{fmt.Sprintf("Hex Dump (first %d bytes):", n)}
	const bytesPerLine = 16
	for offset := 0; offset < n; offset += bytesPerLine {
		var sb strings.Builder
		fmt.Fprintf(&sb, "  %08x: ", offset)
		for j := 0; j < bytesPerLine; j++ {
			if offset+j < n {
				fmt.Fprintf(&sb, "%02x ", buf[offset+j])
			} else {
				sb.WriteString("   ")
			}
		}
		sb.WriteString(" |")
		for j := 0; j < bytesPerLine && offset+j < n; j++ {
			b := buf[offset+j]
			if b >= 32 && b <= 126 {
				sb.WriteByte(b)
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteString("|")
		lines = append(lines, sb.String())
	}
	return lines
}
