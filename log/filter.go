package log

import (
	"os"
	"sync/atomic"

	"golang.org/x/exp/slog"
)

// LoggerFilter decides whether a record is written.
type LoggerFilter interface {
	check() bool
}

// EveryN lets one record in N through.
type EveryN struct {
	N       uint32
	counter uint32
}

func (e *EveryN) check() bool {
	if e == nil || e.N == 0 {
		return true
	}
	c := atomic.AddUint32(&e.counter, 1)
	return c%e.N == 0
}

var _ LoggerFilter = &EveryN{}

type ifCondition bool

func (c ifCondition) check() bool { return bool(c) }

// debugSwitch passes records only while debug logs are enabled.
type debugSwitch struct{}

func (debugSwitch) check() bool { return debugLogsEnabled.Load() }

// Debugging is the filter used for verbose decompiler output.
var Debugging LoggerFilter = debugSwitch{}

var debugLogsEnabled atomic.Bool

func init() {
	if v := os.Getenv("ILDECOMP_DEBUG"); v == "1" || v == "true" {
		debugLogsEnabled.Store(true)
	}
}

// EnableDebugLogs toggles the verbose decompiler logs. They are off unless
// ILDECOMP_DEBUG is set to 1 or true.
func EnableDebugLogs(on bool) { debugLogsEnabled.Store(on) }

// DebugLogsEnabled reports the state of the debug switch.
func DebugLogsEnabled() bool { return debugLogsEnabled.Load() }

func writeBy(level slog.Level, filter LoggerFilter, msg string, ctx []interface{}) {
	if filter == nil || filter.check() {
		Root().Write(level, msg, ctx...)
	}
}

func DebugBy(filter LoggerFilter, msg string, ctx ...interface{}) {
	writeBy(LevelDebug, filter, msg, ctx)
}

func WarnBy(filter LoggerFilter, msg string, ctx ...interface{}) {
	writeBy(LevelWarn, filter, msg, ctx)
}

func WarnIf(condition bool, msg string, ctx ...interface{}) {
	WarnBy(ifCondition(condition), msg, ctx...)
}
