package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":    slog.LevelDebug,
		"INFO":     slog.LevelInfo,
		"warning":  slog.LevelWarn,
		"warn":     slog.LevelWarn,
		"error":    slog.LevelError,
		"CRITICAL": slog.LevelError,
		"":         slog.LevelInfo,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected error")
	}
}

func TestSetupFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	log, closer, err := Setup("info", false, path)
	if err != nil {
		t.Fatal(err)
	}
	log.Info("transfer complete", "file", "a.txt")
	log.Debug("suppressed")
	closer()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.Contains(out, "transfer complete") {
		t.Fatalf("log output: %q", out)
	}
	if strings.Contains(out, "suppressed") {
		t.Fatalf("debug line leaked: %q", out)
	}
}
