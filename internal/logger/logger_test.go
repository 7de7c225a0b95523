package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	prevLevel := GetLevel()
	prev := base.Load()
	t.Cleanup(func() {
		base.Store(prev)
		SetLevel(prevLevel)
	})
	core, logs := observer.New(atom)
	base.Store(newLogger(core))
	return logs
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{in: "trace", want: TraceLevel},
		{in: "DEBUG", want: DebugLevel},
		{in: "", want: InfoLevel},
		{in: "warning", want: WarnLevel},
		{in: "error", want: ErrorLevel},
		{in: "loud", want: InfoLevel, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseLevel(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseLevel(%q) err = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if got != tc.want {
				t.Fatalf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	logs := observe(t)
	SetLevel(WarnLevel)

	Debug("hidden %d", 1)
	Info("hidden %d", 2)
	Warn("shown %d", 3)
	Error("shown %d", 4)

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Message != "shown 3" || entries[0].Level != zapcore.WarnLevel {
		t.Fatalf("unexpected first entry: %+v", entries[0].Entry)
	}
}

func TestTraceBelowDebug(t *testing.T) {
	logs := observe(t)

	SetLevel(DebugLevel)
	Trace("not yet")
	if logs.Len() != 0 {
		t.Fatalf("trace should be filtered at debug level")
	}

	SetLevel(TraceLevel)
	Trace("now %s", "visible")
	entries := logs.All()
	if len(entries) != 1 || entries[0].Message != "now visible" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if !strings.HasSuffix(entries[0].Caller.File, "logger_test.go") {
		t.Fatalf("caller should point at the test, got %s", entries[0].Caller.File)
	}
}

func TestInitWritesFile(t *testing.T) {
	prev := base.Load()
	prevLevel := GetLevel()
	t.Cleanup(func() {
		base.Store(prev)
		SetLevel(prevLevel)
	})

	path := filepath.Join(t.TempDir(), "studio.log")
	Init(Config{Level: InfoLevel, File: path, MaxSizeMB: 1, MaxBackups: 1})
	Info("rescored %d prompts", 7)
	_ = Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"rescored 7 prompts"`) || !strings.Contains(string(data), `"level":"INFO"`) {
		t.Fatalf("unexpected log file contents: %s", data)
	}
}
