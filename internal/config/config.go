// Package config loads the INI-style ([section] key = value) client and
// server configuration files.
package config

import (
	"fmt"
	"os"

	"gopkg.in/ini.v1"
)

// ServerConfig: read-only after startup; workers see one shared snapshot.
type ServerConfig struct {
	ListenAddress  string
	ListenPort     int
	MaxConnections int
	TimeoutSeconds int

	SecretKey   string
	RequireAuth bool
	MaxFileSize uint64

	BufferSize          int
	MaxBandwidthPercent int

	LogLevel      string
	LogFile       string
	ConsoleOutput bool

	RunAsDaemon bool
	PIDFile     string

	AllowedPaths []string
}

type ClientConfig struct {
	SecretKey string

	BufferSize          int
	MaxBandwidthPercent int
	RetryAttempts       int
	RetryDelaySeconds   int

	LogLevel      string
	LogFile       string
	ConsoleOutput bool

	TimeoutSeconds int
	KeepAlive      bool

	CreateEmptyDirectories bool
}

func DefaultServer() ServerConfig {
	return ServerConfig{
		ListenAddress:       "0.0.0.0",
		ListenPort:          1245,
		MaxConnections:      10,
		TimeoutSeconds:      30,
		RequireAuth:         true,
		MaxFileSize:         1 << 30,
		BufferSize:          65536,
		MaxBandwidthPercent: 40,
		LogLevel:            "INFO",
		LogFile:             "server.log",
		ConsoleOutput:       true,
		PIDFile:             "/var/run/netcopy_server.pid",
		AllowedPaths:        []string{"/var/lib/netcopy"},
	}
}

func DefaultClient() ClientConfig {
	return ClientConfig{
		BufferSize:             65536,
		MaxBandwidthPercent:    40,
		RetryAttempts:          3,
		RetryDelaySeconds:      5,
		LogLevel:               "INFO",
		LogFile:                "client.log",
		ConsoleOutput:          true,
		TimeoutSeconds:         30,
		KeepAlive:              true,
		CreateEmptyDirectories: true,
	}
}

// LoadServer reads path over the defaults. A missing file is not an
// error: defaults apply, matching first-run behavior.
func LoadServer(path string) (ServerConfig, error) {
	cfg := DefaultServer()
	f, err := load(path)
	if err != nil || f == nil {
		return cfg, err
	}

	net := f.Section("network")
	cfg.ListenAddress = net.Key("listen_address").MustString(cfg.ListenAddress)
	cfg.ListenPort = net.Key("listen_port").MustInt(cfg.ListenPort)
	cfg.MaxConnections = net.Key("max_connections").MustInt(cfg.MaxConnections)
	cfg.TimeoutSeconds = net.Key("timeout").MustInt(cfg.TimeoutSeconds)

	sec := f.Section("security")
	cfg.SecretKey = sec.Key("secret_key").MustString(cfg.SecretKey)
	cfg.RequireAuth = sec.Key("require_auth").MustBool(cfg.RequireAuth)
	cfg.MaxFileSize = sec.Key("max_file_size").MustUint64(cfg.MaxFileSize)

	perf := f.Section("performance")
	cfg.BufferSize = perf.Key("buffer_size").MustInt(cfg.BufferSize)
	cfg.MaxBandwidthPercent = perf.Key("max_bandwidth_percent").MustInt(cfg.MaxBandwidthPercent)

	lg := f.Section("logging")
	cfg.LogLevel = lg.Key("log_level").MustString(cfg.LogLevel)
	cfg.LogFile = lg.Key("log_file").MustString(cfg.LogFile)
	cfg.ConsoleOutput = lg.Key("console_output").MustBool(cfg.ConsoleOutput)

	dm := f.Section("daemon")
	cfg.RunAsDaemon = dm.Key("run_as_daemon").MustBool(cfg.RunAsDaemon)
	cfg.PIDFile = dm.Key("pid_file").MustString(cfg.PIDFile)

	if paths := f.Section("paths").Key("allowed_paths").Strings(","); len(paths) > 0 {
		cfg.AllowedPaths = paths
	}

	return cfg, validateServer(cfg)
}

func LoadClient(path string) (ClientConfig, error) {
	cfg := DefaultClient()
	f, err := load(path)
	if err != nil || f == nil {
		return cfg, err
	}

	cfg.SecretKey = f.Section("security").Key("secret_key").MustString(cfg.SecretKey)

	perf := f.Section("performance")
	cfg.BufferSize = perf.Key("buffer_size").MustInt(cfg.BufferSize)
	cfg.MaxBandwidthPercent = perf.Key("max_bandwidth_percent").MustInt(cfg.MaxBandwidthPercent)
	cfg.RetryAttempts = perf.Key("retry_attempts").MustInt(cfg.RetryAttempts)
	cfg.RetryDelaySeconds = perf.Key("retry_delay").MustInt(cfg.RetryDelaySeconds)

	lg := f.Section("logging")
	cfg.LogLevel = lg.Key("log_level").MustString(cfg.LogLevel)
	cfg.LogFile = lg.Key("log_file").MustString(cfg.LogFile)
	cfg.ConsoleOutput = lg.Key("console_output").MustBool(cfg.ConsoleOutput)

	conn := f.Section("connection")
	cfg.TimeoutSeconds = conn.Key("timeout").MustInt(cfg.TimeoutSeconds)
	cfg.KeepAlive = conn.Key("keep_alive").MustBool(cfg.KeepAlive)

	cfg.CreateEmptyDirectories = f.Section("transfer").Key("create_empty_directories").MustBool(cfg.CreateEmptyDirectories)

	return cfg, validateClient(cfg)
}

func load(path string) (*ini.File, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return f, nil
}

func validateServer(cfg ServerConfig) error {
	if cfg.ListenPort < 1 || cfg.ListenPort > 65535 {
		return fmt.Errorf("listen_port out of range: %d", cfg.ListenPort)
	}
	if cfg.BufferSize < 1 {
		return fmt.Errorf("buffer_size must be positive: %d", cfg.BufferSize)
	}
	if cfg.MaxConnections < 1 {
		return fmt.Errorf("max_connections must be positive: %d", cfg.MaxConnections)
	}
	return nil
}

func validateClient(cfg ClientConfig) error {
	if cfg.BufferSize < 1 {
		return fmt.Errorf("buffer_size must be positive: %d", cfg.BufferSize)
	}
	if cfg.MaxBandwidthPercent < 1 || cfg.MaxBandwidthPercent > 100 {
		return fmt.Errorf("max_bandwidth_percent out of range: %d", cfg.MaxBandwidthPercent)
	}
	return nil
}
