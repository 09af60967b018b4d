package engines

// Configuration drives the decoder command and the engines it wires up.
// Field tags serve both the JSON and the YAML configuration files.
type Configuration struct {
	MaxEvents        int                   `json:"max_events" yaml:"max_events"`
	Skip             int                   `json:"skip" yaml:"skip"`
	Verbosity        int                   `json:"verbosity" yaml:"verbosity"`
	FileIn           string                `json:"file_in" yaml:"file_in"`
	FileOut          string                `json:"file_out" yaml:"file_out"`
	CsvOut           string                `json:"csv_out" yaml:"csv_out"`
	BinaryOut        string                `json:"binary_out" yaml:"binary_out"`
	BinaryFormat     string                `json:"binary_format" yaml:"binary_format"`
	FramesPerFile    int                   `json:"frames_per_file" yaml:"frames_per_file"`
	InputMimeType    string                `json:"input_mime_type" yaml:"input_mime_type"`
	StrictDetection  bool                  `json:"strict_detection" yaml:"strict_detection"`
	Discard          bool                  `json:"discard" yaml:"discard"`
	NumWorkers       int                   `json:"num_workers" yaml:"num_workers"`
	WriteData        bool                  `json:"write_data" yaml:"write_data"`
	NoDB             bool                  `json:"no_db" yaml:"no_db"`
	Host             string                `json:"host" yaml:"host"`
	User             string                `json:"user" yaml:"user"`
	Passwd           string                `json:"pass" yaml:"pass"`
	DBName           string                `json:"dbname" yaml:"dbname"`
	RunNumber        int                   `json:"run_number" yaml:"run_number"`
	CompressionLevel int                   `json:"compression_level" yaml:"compression_level"`
	LogFile          string                `json:"log_file" yaml:"log_file"`
	Print            bool                  `json:"print" yaml:"print"`
	Printer          PrinterOptions        `json:"printer" yaml:"printer"`
	Identify         bool                  `json:"identify" yaml:"identify"`
	Identification   IdentificationOptions `json:"identification" yaml:"identification"`
}

// DefaultConfiguration returns the values used for keys missing from a
// configuration file.
func DefaultConfiguration() Configuration {
	return Configuration{
		MaxEvents:        1000000000,
		BinaryFormat:     "canonical",
		FramesPerFile:    1000,
		InputMimeType:    BinaryMimeType,
		Discard:          true,
		NumWorkers:       1,
		WriteData:        true,
		Host:             "localhost",
		User:             "reader",
		Passwd:           "readonly",
		DBName:           "CODA",
		CompressionLevel: 4,
		Printer:          DefaultPrinterOptions(),
		Identification:   DefaultIdentificationOptions(),
	}
}
