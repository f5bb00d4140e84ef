// Package logging holds the process-wide logger. Scan reports go to stdout;
// everything here writes to stderr so machine-readable output stays clean.
package logging

import (
	"go.uber.org/zap"
)

// Logger is safe to use before Init; it discards everything until then.
var Logger = zap.NewNop().Sugar()

// Init configures the logger. Debug switches to the development encoder and
// enables Debugf output; the default keeps only warnings and errors, so a
// passing hook run prints nothing beyond the report.
func Init(debug bool) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		// A broken logger must not block commits; stay on the no-op one.
		return
	}
	Logger = logger.Sugar()
}

// Sync flushes buffered entries. Errors are ignored; stderr on some
// platforms rejects Sync and there is nothing useful to do about it.
func Sync() {
	_ = Logger.Sync()
}
