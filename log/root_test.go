package log

import (
	"bytes"
	"strings"
	"testing"

	ethlog "github.com/ethereum/go-ethereum/log"
)

// TestSetDefaultCustomLogger should properly set the default logger when
// custom loggers are provided.
func TestSetDefaultCustomLogger(t *testing.T) {
	prev := Root()
	defer SetDefault(prev)

	type customLogger struct {
		Logger
	}
	customLog := &customLogger{}
	SetDefault(customLog)
	if Root() != customLog {
		t.Error("expected custom logger to be set as default")
	}
}

func captureRoot(t *testing.T) *bytes.Buffer {
	prev := Root()
	t.Cleanup(func() { SetDefault(prev) })
	var buf bytes.Buffer
	SetDefault(ethlog.NewLogger(ethlog.NewTerminalHandlerWithLevel(&buf, LevelDebug, false)))
	return &buf
}

func TestEveryN(t *testing.T) {
	buf := captureRoot(t)
	filter := &EveryN{N: 3}
	for i := 0; i < 9; i++ {
		WarnBy(filter, "tick", "i", i)
	}
	if n := strings.Count(buf.String(), "tick"); n != 3 {
		t.Fatalf("wrote %d records, want 3", n)
	}
}

func TestDebugSwitch(t *testing.T) {
	buf := captureRoot(t)
	defer EnableDebugLogs(DebugLogsEnabled())

	EnableDebugLogs(false)
	DebugBy(Debugging, "hidden")
	EnableDebugLogs(true)
	DebugBy(Debugging, "shown")
	WarnIf(false, "never")

	out := buf.String()
	if strings.Contains(out, "hidden") || strings.Contains(out, "never") {
		t.Fatalf("filtered record written: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("enabled record missing: %s", out)
	}
}
