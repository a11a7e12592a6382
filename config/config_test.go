package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}

	if cfg.Server.Addr != ":8000" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}

	if cfg.Server.MaxUploadBytes != 10<<20 {
		t.Fatalf("max upload = %d", cfg.Server.MaxUploadBytes)
	}

	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Fatalf("read timeout = %v", cfg.Server.ReadTimeout)
	}

	if !strings.HasSuffix(cfg.Storage.DBPath, filepath.Join("swim-data-analyser", "sessions.db")) {
		t.Fatalf("db path = %q", cfg.Storage.DBPath)
	}

	if cfg.Export.Format != "parquet" {
		t.Fatalf("export format = %q", cfg.Export.Format)
	}
}

func TestLoadReadsFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	body := "server:\n  addr: \":9000\"\nexport:\n  format: CSV\n"

	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SWIMFIT_STORAGE_TEMP_DIR", "/tmp/swimfit")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Server.Addr != ":9000" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}

	if cfg.Export.Format != "csv" {
		t.Fatalf("format = %q", cfg.Export.Format)
	}

	if cfg.Storage.TempDir != "/tmp/swimfit" {
		t.Fatalf("temp dir = %q", cfg.Storage.TempDir)
	}
}

func TestLoadRejectsBadFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")

	if err := os.WriteFile(path, []byte("export:\n  format: xlsx\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected a validation error")
	}
}

func TestNewLoggerWritesJSON(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "swimfit.log")
	lc := LogConfig{File: logPath, Level: "debug", MaxSizeMB: 1}

	logger, closer := lc.NewLogger(nil)
	logger.Debug("upload decoded", slog.Int("lengths", 12))

	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(string(data), `"msg":"upload decoded"`) || !strings.Contains(string(data), `"lengths":12`) {
		t.Fatalf("log line = %s", data)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}

	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
