package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "netcopy.conf")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadServer(t *testing.T) {
	path := writeConfig(t, `
# NetCopy server configuration
[network]
listen_address = 127.0.0.1
listen_port = 2245

[security]
secret_key = 0xdeadbeef
require_auth = false

[paths]
allowed_paths = /srv/drop, /tmp/out

[logging]
log_level = debug
console_output = no
`)
	cfg, err := LoadServer(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ListenAddress != "127.0.0.1" || cfg.ListenPort != 2245 {
		t.Fatalf("network: %+v", cfg)
	}
	if cfg.SecretKey != "0xdeadbeef" || cfg.RequireAuth {
		t.Fatalf("security: %+v", cfg)
	}
	if len(cfg.AllowedPaths) != 2 || cfg.AllowedPaths[0] != "/srv/drop" || cfg.AllowedPaths[1] != "/tmp/out" {
		t.Fatalf("allowed paths: %v", cfg.AllowedPaths)
	}
	if cfg.LogLevel != "debug" || cfg.ConsoleOutput {
		t.Fatalf("logging: %+v", cfg)
	}
	// Untouched keys keep defaults.
	if cfg.BufferSize != 65536 || cfg.MaxConnections != 10 {
		t.Fatalf("defaults: %+v", cfg)
	}
}

func TestLoadServerMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadServer(filepath.Join(t.TempDir(), "absent.conf"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ListenPort != 1245 || !cfg.RequireAuth || len(cfg.AllowedPaths) != 1 {
		t.Fatalf("defaults: %+v", cfg)
	}
}

func TestLoadServerRejectsBadPort(t *testing.T) {
	path := writeConfig(t, "[network]\nlisten_port = 123456\n")
	if _, err := LoadServer(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadClient(t *testing.T) {
	path := writeConfig(t, `
[security]
secret_key = 0xabad1dea

[performance]
buffer_size = 8192
max_bandwidth_percent = 100
retry_attempts = 1

[transfer]
create_empty_directories = false
`)
	cfg, err := LoadClient(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SecretKey != "0xabad1dea" || cfg.BufferSize != 8192 || cfg.MaxBandwidthPercent != 100 {
		t.Fatalf("client: %+v", cfg)
	}
	if cfg.CreateEmptyDirectories {
		t.Fatal("create_empty_directories should be off")
	}
	if cfg.RetryAttempts != 1 || cfg.RetryDelaySeconds != 5 {
		t.Fatalf("retries: %+v", cfg)
	}
}

func TestLoadClientRejectsBadBandwidth(t *testing.T) {
	path := writeConfig(t, "[performance]\nmax_bandwidth_percent = 0\n")
	if _, err := LoadClient(path); err == nil {
		t.Fatal("expected validation error")
	}
}
