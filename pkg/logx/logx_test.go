package logx

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestZeroValueIsSafe(t *testing.T) {
	var l Logger
	if !l.IsZero() {
		t.Fatal("zero Logger not reported as zero")
	}
	l.Info("no sink") // must not panic
	l.With(String("k", "v")).Error("still no sink")
}

func TestNopIsNotZero(t *testing.T) {
	l := Nop()
	if l.IsZero() {
		t.Fatal("Nop() reported as zero; callers use IsZero to substitute defaults")
	}
	l.Info("discarded")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":    zerolog.DebugLevel,
		"INFO":     zerolog.InfoLevel,
		" warn ":   zerolog.WarnLevel,
		"warning":  zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"verbose":  zerolog.InfoLevel,
		"":         zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in, zerolog.InfoLevel); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestServiceFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bot.log")
	svc, log := New(Config{
		Level: "debug",
		File:  FileConfig{Enabled: true, Path: path},
	})
	defer svc.Close()

	log.Info("hello from test", String("k", "v"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello from test") || !strings.Contains(string(data), `"k":"v"`) {
		t.Fatalf("log file content = %q", data)
	}
}

func TestServiceApplyChangesLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	svc, log := New(Config{
		Level: "error",
		File:  FileConfig{Enabled: true, Path: path},
	})
	defer svc.Close()

	log.Info("suppressed")
	svc.Apply(Config{Level: "debug", File: FileConfig{Enabled: true, Path: path}})
	log.Info("visible")

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "suppressed") {
		t.Fatal("info line written at error level")
	}
	if !strings.Contains(string(data), "visible") {
		t.Fatal("info line missing after level lowered to debug")
	}
}

func TestWithFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	svc, log := New(Config{Level: "debug", File: FileConfig{Enabled: true, Path: path}})
	defer svc.Close()

	log.With(String("comp", "test"), Int("n", 7)).Warn("tagged")

	data, _ := os.ReadFile(path)
	for _, want := range []string{`"comp":"test"`, `"n":7`, "tagged"} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("log line missing %q: %s", want, data)
		}
	}
}
