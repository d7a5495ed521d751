package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// WorkerConfig describes how to launch one worker kind.
type WorkerConfig struct {
	Command  string   `json:"command" yaml:"command" toml:"command"`
	Args     []string `json:"args" yaml:"args" toml:"args"`
	Dir      string   `json:"dir" yaml:"dir" toml:"dir"`
	Env      []string `json:"env" yaml:"env" toml:"env"`
	Disabled bool     `json:"disabled" yaml:"disabled" toml:"disabled"`
}

// Enabled reports whether the worker should be supervised.
func (w WorkerConfig) Enabled() bool { return !w.Disabled && w.Command != "" }

// CORSConfig controls the optional CORS middleware.
type CORSConfig struct {
	Enabled        bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins" toml:"allowed_origins"`
	AllowedMethods []string `json:"allowed_methods" yaml:"allowed_methods" toml:"allowed_methods"`
	AllowedHeaders []string `json:"allowed_headers" yaml:"allowed_headers" toml:"allowed_headers"`
}

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by ApplyDefaults.
type Config struct {
	Addr             string                  `json:"addr" yaml:"addr" toml:"addr"`
	LogLevel         string                  `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat        string                  `json:"log_format" yaml:"log_format" toml:"log_format"`
	DBPath           string                  `json:"db_path" yaml:"db_path" toml:"db_path"`
	HistoryLimit     int                     `json:"history_limit" yaml:"history_limit" toml:"history_limit"`
	RequestTimeoutMS int                     `json:"request_timeout_ms" yaml:"request_timeout_ms" toml:"request_timeout_ms"`
	RestartDelayMS   int                     `json:"restart_delay_ms" yaml:"restart_delay_ms" toml:"restart_delay_ms"`
	StopGraceMS      int                     `json:"stop_grace_ms" yaml:"stop_grace_ms" toml:"stop_grace_ms"`
	MaxBodyBytes     int64                   `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	CORS             CORSConfig              `json:"cors" yaml:"cors" toml:"cors"`
	Workers          map[string]WorkerConfig `json:"workers" yaml:"workers" toml:"workers"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml. Unknown keys are rejected so a
// misspelled worker section fails loudly instead of disabling the worker.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		err = dec.Decode(&cfg)
		if errors.Is(err, io.EOF) {
			err = nil // empty file
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		err = dec.Decode(&cfg)
	case ".toml":
		err = toml.NewDecoder(bytes.NewReader(b)).DisallowUnknownFields().Decode(&cfg)
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
