package engines

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatBinarySize(t *testing.T) {
	assert.Equal(t, "0 B", FormatBinarySize(0))
	assert.Equal(t, "1023 B", FormatBinarySize(1023))
	assert.Equal(t, "1 KB", FormatBinarySize(1024))
	assert.Equal(t, "1023 KB", FormatBinarySize(1024*1024-1))
	assert.Equal(t, "3 MB", FormatBinarySize(3*1024*1024+5))
}

func TestHexDump(t *testing.T) {
	buf := append([]byte("COTF"), 0x00, 0x01)
	lines := HexDump(buf, 256)
	require.Len(t, lines, 2)
	assert.Equal(t, "Hex Dump (first 6 bytes):", lines[0])
	assert.Equal(t, "  00000000: 43 4f 54 46 00 01 "+strings.Repeat("   ", 10)+" |COTF..|", lines[1])

	buf = make([]byte, 40)
	lines = HexDump(buf, 20)
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[2], "  00000010: 00 00 00 00 "))
	assert.True(t, strings.HasSuffix(lines[2], "|....|"))
}

func TestPrinterExecute(t *testing.T) {
	l := useRecordingLogger(t)
	options := DefaultPrinterOptions()
	options.ShowHexDump = true
	p := NewPrinterEngine(CodaTimeFrameBinaryType, options)

	event := testEvent()
	out := p.Execute(EngineData{MimeType: BinaryMimeType, Data: event})
	require.Equal(t, StatusInfo, out.Status)
	got, ok := out.Event()
	require.True(t, ok)
	assert.Same(t, event, got)

	joined := strings.Join(l.infos, "\n")
	assert.Contains(t, joined, "  Total Hits: 2")
	assert.Contains(t, joined, "  Total ROCs: 2")
	assert.Contains(t, joined, "  Serialization Efficiency: 100.00%")
	assert.Contains(t, joined, "  Bytes per Hit: 50.00")
	assert.Contains(t, joined, "  Format: canonical")
	assert.Contains(t, joined, "  Time Frame Count (from binary): 2")
	assert.Contains(t, joined, "  Events processed: 1")
	assert.Contains(t, joined, "Hex Dump (first 100 bytes):")

	p.Execute(EngineData{MimeType: BinaryMimeType, Data: event})
	assert.Contains(t, strings.Join(l.infos, "\n"), "  Events processed: 2")
}

func TestPrinterWrongInput(t *testing.T) {
	p := NewPrinterEngine(CodaTimeFrameBinaryType, DefaultPrinterOptions())

	out := p.Execute(EngineData{MimeType: MimeType, Data: testEvent()})
	assert.Equal(t, StatusError, out.Status)
	assert.Equal(t, "Wrong input type: expected binary/coda-time-frame, got xmsg/coda-time-frame", out.Description)

	out = p.Execute(EngineData{MimeType: BinaryMimeType, Data: []byte{1, 2, 3}})
	assert.Equal(t, StatusError, out.Status)
}

func TestPrinterConfigure(t *testing.T) {
	useRecordingLogger(t)
	p := NewPrinterEngine(CodaTimeFrameType, DefaultPrinterOptions())
	require.NoError(t, p.Configure(EngineData{
		MimeType: JSONMimeType,
		Data:     `{"verbose": true, "show_hex_dump": true, "max_bytes_to_show": 32}`,
	}))
	assert.True(t, p.options.Verbose)
	assert.True(t, p.options.ShowHexDump)
	assert.Equal(t, 32, p.options.MaxBytesToShow)
	assert.True(t, p.options.ShowSerializationStats)

	require.Error(t, p.Configure(EngineData{MimeType: JSONMimeType, Data: "{"}))
	require.Error(t, p.Configure(EngineData{MimeType: JSONMimeType, Data: 12}))
	require.NoError(t, p.Configure(EngineData{MimeType: BinaryMimeType}))

	lines := p.Report(testEvent(), []byte{1, 2})
	assert.Contains(t, lines, "  Format: canonical")
	assert.NotContains(t, lines, "  Time Frame Count (from binary): 2")
}

func TestPrinterTaggedEfficiency(t *testing.T) {
	l := useRecordingLogger(t)
	p := NewPrinterEngine(CodaTimeFrameType, DefaultPrinterOptions())
	out := p.Execute(EngineData{MimeType: MimeType, Data: testEvent()})
	require.Equal(t, StatusInfo, out.Status)
	assert.Contains(t, strings.Join(l.infos, "\n"), "  Format: tagged")
	assert.NotContains(t, strings.Join(l.infos, "\n"), "Hex Dump")
}
