package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestDetermineLogLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARN":    zapcore.WarnLevel,
		" error ": zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := DetermineLogLevel(in); got != want {
			t.Fatalf("DetermineLogLevel(%q)=%v want %v", in, got, want)
		}
	}
}

func TestNewLoggerWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calendard.log")
	logger, err := NewLogger("warn", path)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Infow("hidden", "k", 1)
	logger.Warnw("shown", "event_id", "abc")
	_ = logger.Sync()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(raw)
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"event_id":"abc"`) {
		t.Fatalf("unexpected log output: %s", out)
	}
}
