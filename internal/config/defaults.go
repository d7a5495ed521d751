package config

import (
	"fmt"
	"os"
	"time"

	"github.com/gtrackerpro/unitconverter/internal/common/fsutil"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvAddr     = "UNITCONVERTER_ADDR"
	EnvDB       = "UNITCONVERTER_DB"
	EnvLogLevel = "UNITCONVERTER_LOG_LEVEL"
)

// Defaults returns the configuration used when nothing is specified.
func Defaults() Config {
	return Config{
		Addr:             ":3000",
		LogLevel:         "info",
		LogFormat:        "json",
		DBPath:           "~/.unitconverter/history.db",
		HistoryLimit:     20,
		RequestTimeoutMS: 5000,
		RestartDelayMS:   5000,
		StopGraceMS:      5000,
		MaxBodyBytes:     1 << 20,
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:4200"},
		},
		Workers: map[string]WorkerConfig{},
	}
}

// ApplyDefaults fills every zero field of cfg from Defaults.
func ApplyDefaults(cfg Config) Config {
	d := Defaults()
	if cfg.Addr == "" {
		cfg.Addr = d.Addr
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = d.LogLevel
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = d.LogFormat
	}
	if cfg.DBPath == "" {
		cfg.DBPath = d.DBPath
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = d.HistoryLimit
	}
	if cfg.RequestTimeoutMS <= 0 {
		cfg.RequestTimeoutMS = d.RequestTimeoutMS
	}
	if cfg.RestartDelayMS <= 0 {
		cfg.RestartDelayMS = d.RestartDelayMS
	}
	if cfg.StopGraceMS <= 0 {
		cfg.StopGraceMS = d.StopGraceMS
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = d.MaxBodyBytes
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = d.CORS.AllowedOrigins
	}
	if cfg.Workers == nil {
		cfg.Workers = d.Workers
	}
	return cfg
}

// ApplyEnv overrides cfg from UNITCONVERTER_* variables using lookup
// (os.LookupEnv when nil).
func ApplyEnv(cfg Config, lookup func(string) (string, bool)) Config {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(EnvAddr); ok && v != "" {
		cfg.Addr = v
	}
	if v, ok := lookup(EnvDB); ok && v != "" {
		cfg.DBPath = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.LogLevel = v
	}
	return cfg
}

// ExpandPaths expands a leading ~ in the db path and worker commands/dirs.
func ExpandPaths(cfg Config) (Config, error) {
	var err error
	if cfg.DBPath, err = fsutil.ExpandHome(cfg.DBPath); err != nil {
		return cfg, err
	}
	workers := make(map[string]WorkerConfig, len(cfg.Workers))
	for name, w := range cfg.Workers {
		if w.Command, err = fsutil.ExpandHome(w.Command); err != nil {
			return cfg, err
		}
		if w.Dir, err = fsutil.ExpandHome(w.Dir); err != nil {
			return cfg, err
		}
		workers[name] = w
	}
	cfg.Workers = workers
	return cfg, nil
}

// Validate rejects unknown worker kinds, bad log formats and worker
// commands given as paths that do not exist.
func Validate(cfg Config) error {
	for name, w := range cfg.Workers {
		switch name {
		case "cpp", "python", "java":
		default:
			return fmt.Errorf("unknown worker kind %q (want cpp, python or java)", name)
		}
		if !w.Enabled() {
			continue
		}
		if err := fsutil.CheckCommand(w.Command); err != nil {
			return fmt.Errorf("worker %s: %w", name, err)
		}
	}
	switch cfg.LogFormat {
	case "", "json", "console":
	default:
		return fmt.Errorf("unsupported log_format %q (want json or console)", cfg.LogFormat)
	}
	return nil
}

// RequestTimeout returns the worker request timeout.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// RestartDelay returns the delay before a crashed worker is relaunched.
func (c Config) RestartDelay() time.Duration {
	return time.Duration(c.RestartDelayMS) * time.Millisecond
}

// StopGrace returns how long Stop waits after SIGTERM before killing.
func (c Config) StopGrace() time.Duration {
	return time.Duration(c.StopGraceMS) * time.Millisecond
}
