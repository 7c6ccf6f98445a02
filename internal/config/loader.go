package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".namesweep"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the YAML configuration file schema. Every field is optional;
// set fields override the built-in defaults and are in turn overridden
// by explicit CLI flags. Durations use Go syntax ("800ms", "1.5s").
type File struct {
	BaseURL            string `yaml:"base_url"`
	APIVersion         int    `yaml:"api_version"`
	MaxResults         int    `yaml:"max_results"`
	Workers            int    `yaml:"workers"`
	IncludePunctuation *bool  `yaml:"include_punctuation"`
	UserAgent          string `yaml:"user_agent"`
	Timeout            string `yaml:"timeout"`
	InitialDelay       string `yaml:"initial_delay"`
	MinDelay           string `yaml:"min_delay"`
	MaxDelay           string `yaml:"max_delay"`
	CheckpointPath     string `yaml:"checkpoint"`
	CheckpointRequests int    `yaml:"checkpoint_requests"`
	CheckpointInterval string `yaml:"checkpoint_interval"`
	OutputPath         string `yaml:"output"`
	DBDir              string `yaml:"db_dir"`
	MetricsAddr        string `yaml:"metrics_addr"`
}

// LoadConfigFile loads configuration overrides from a YAML file.
// If the file does not exist it returns ErrConfigNotFound; callers
// decide whether that matters based on whether the path was explicit.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file:
//  1. the explicit path, when given
//  2. .namesweep in the current directory
//  3. .namesweep in the user's home directory
//
// Returns the path if found, or empty string.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// Apply copies the file's set fields onto cfg. Duration fields are
// parsed with time.ParseDuration; the first malformed value aborts.
func (f *File) Apply(cfg *Config) error {
	if f.BaseURL != "" {
		cfg.BaseURL = f.BaseURL
	}
	if f.APIVersion != 0 {
		cfg.APIVersion = f.APIVersion
	}
	if f.MaxResults != 0 {
		cfg.MaxResults = f.MaxResults
	}
	if f.Workers != 0 {
		cfg.Workers = f.Workers
	}
	if f.IncludePunctuation != nil {
		cfg.IncludePunctuation = *f.IncludePunctuation
	}
	if f.UserAgent != "" {
		cfg.UserAgent = f.UserAgent
	}
	if f.CheckpointPath != "" {
		cfg.CheckpointPath = f.CheckpointPath
	}
	if f.CheckpointRequests != 0 {
		cfg.CheckpointRequests = f.CheckpointRequests
	}
	if f.OutputPath != "" {
		cfg.OutputPath = f.OutputPath
	}
	if f.DBDir != "" {
		cfg.DBDir = f.DBDir
	}
	if f.MetricsAddr != "" {
		cfg.MetricsAddr = f.MetricsAddr
	}

	for _, d := range []struct {
		raw string
		dst *time.Duration
	}{
		{f.Timeout, &cfg.Timeout},
		{f.InitialDelay, &cfg.InitialDelay},
		{f.MinDelay, &cfg.MinDelay},
		{f.MaxDelay, &cfg.MaxDelay},
		{f.CheckpointInterval, &cfg.CheckpointInterval},
	} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", d.raw, err)
		}
		*d.dst = parsed
	}
	return nil
}
