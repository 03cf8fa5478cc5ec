package goserdes

import (
	"fmt"

	"go.uber.org/zap"
)

// LogCallback receives debug log lines from the handle. It is never on the
// critical path: it is only invoked when debug logging is enabled.
type LogCallback func(level int, facility, line string)

// zapLogCallback adapts a *zap.SugaredLogger to LogCallback so that a
// handle created without an explicit log sink still gets structured
// logging instead of silently dropping debug output.
func zapLogCallback(l *zap.SugaredLogger) LogCallback {
	return func(level int, facility, line string) {
		l.Debugw(line, "facility", facility, "level", level)
	}
}

func defaultLogCallback() LogCallback {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	logger, err := cfg.Build()
	if err != nil {
		// zap construction failing is effectively unrecoverable for a
		// logging subsystem; fall back to a no-op sink rather than
		// panic from inside a library constructor.
		return func(level int, facility, line string) {}
	}
	return zapLogCallback(logger.Sugar())
}

// log writes a line through the configured sink, formatting it first. It
// never blocks on anything but the sink itself and never returns an error.
func (h *Handle) log(level int, facility, format string, args ...interface{}) {
	if !h.conf.debug {
		return
	}
	cb := h.conf.logCallback
	if cb == nil {
		return
	}
	cb(level, facility, fmt.Sprintf(format, args...))
}
