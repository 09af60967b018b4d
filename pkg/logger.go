package timeframe

// Logger is the logging interface used by the pipeline packages built on
// the codec. The codec itself never logs.
type Logger interface {
	Info(message string, module string)
	Error(string)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Info(string, string) {}
func (NopLogger) Error(string)        {}
