package engines

import timeframe "github.com/jlab/timeframe_go/pkg"

var logger timeframe.Logger = timeframe.NopLogger{}

func SetLogger(l timeframe.Logger) {
	logger = l
}
