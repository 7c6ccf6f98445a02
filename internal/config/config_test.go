package config

import (
	"errors"
	"testing"
	"time"

	"github.com/namesweep/namesweep/internal/model"
)

func validConfig() *Config {
	cfg := NewConfig()
	cfg.BaseURL = "http://localhost:8000"
	return cfg
}

func TestNewConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	if cfg.APIVersion != DefaultAPIVersion {
		t.Errorf("APIVersion = %d, want %d", cfg.APIVersion, DefaultAPIVersion)
	}
	if cfg.Workers != DefaultWorkers {
		t.Errorf("Workers = %d, want %d", cfg.Workers, DefaultWorkers)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, DefaultTimeout)
	}
	if cfg.MinDelay != DefaultMinDelay || cfg.MaxDelay != DefaultMaxDelay {
		t.Errorf("delay bounds = [%v, %v], want [%v, %v]",
			cfg.MinDelay, cfg.MaxDelay, DefaultMinDelay, DefaultMaxDelay)
	}
	if cfg.CheckpointPath != DefaultCheckpointFile {
		t.Errorf("CheckpointPath = %q, want %q", cfg.CheckpointPath, DefaultCheckpointFile)
	}
	if cfg.BaseURL != "" {
		t.Errorf("BaseURL = %q, want empty (must be supplied)", cfg.BaseURL)
	}
}

func TestDefaultMaxResults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		version int
		want    int
	}{
		{1, 50},
		{2, 75},
		{3, 100},
		{4, 100},
	}
	for _, tt := range tests {
		if got := DefaultMaxResults(tt.version); got != tt.want {
			t.Errorf("DefaultMaxResults(%d) = %d, want %d", tt.version, got, tt.want)
		}
	}
}

func TestConfigEffectiveMaxResults(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.APIVersion = 2
	if got := cfg.EffectiveMaxResults(); got != 75 {
		t.Errorf("EffectiveMaxResults = %d, want the v2 default 75", got)
	}

	cfg.MaxResults = 10
	if got := cfg.EffectiveMaxResults(); got != 10 {
		t.Errorf("EffectiveMaxResults = %d, want the explicit 10", got)
	}
}

func TestConfigCharset(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.APIVersion = 1
	if got := cfg.Charset().All(); got != model.LowercaseCharset {
		t.Errorf("v1 charset = %q, want lowercase only", got)
	}

	cfg.APIVersion = 3
	if got := cfg.Charset().All(); got != model.AlphanumericCharset {
		t.Errorf("v3 charset = %q, want alphanumeric", got)
	}

	cfg.IncludePunctuation = true
	cs := cfg.Charset()
	if cs.Special != model.PunctuationCharset {
		t.Errorf("Special = %q, want the punctuation set", cs.Special)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "valid",
			mutate:  func(*Config) {},
			wantErr: nil,
		},
		{
			name:    "missing base url",
			mutate:  func(c *Config) { c.BaseURL = "" },
			wantErr: ErrNoBaseURL,
		},
		{
			name:    "base url without scheme",
			mutate:  func(c *Config) { c.BaseURL = "localhost:8000" },
			wantErr: ErrInvalidBaseURL,
		},
		{
			name:    "base url with bad scheme",
			mutate:  func(c *Config) { c.BaseURL = "ftp://localhost" },
			wantErr: ErrInvalidBaseURL,
		},
		{
			name:    "api version zero",
			mutate:  func(c *Config) { c.APIVersion = 0 },
			wantErr: ErrInvalidAPIVersion,
		},
		{
			name:    "negative max results",
			mutate:  func(c *Config) { c.MaxResults = -1 },
			wantErr: ErrInvalidMaxResults,
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.Workers = 0 },
			wantErr: ErrInvalidWorkers,
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Timeout = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name: "inverted delay bounds",
			mutate: func(c *Config) {
				c.MinDelay = 2 * time.Second
				c.MaxDelay = time.Second
			},
			wantErr: ErrInvalidDelayBounds,
		},
		{
			name:    "negative max attempts",
			mutate:  func(c *Config) { c.MaxAttempts = -1 },
			wantErr: ErrInvalidMaxAttempts,
		},
		{
			name: "both report formats",
			mutate: func(c *Config) {
				c.JSONReport = true
				c.MarkdownReport = true
			},
			wantErr: ErrConflictingReportFormats,
		},
		{
			name: "checkpoint with no triggers",
			mutate: func(c *Config) {
				c.CheckpointRequests = 0
				c.CheckpointInterval = 0
			},
			wantErr: ErrInvalidCheckpointTriggers,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if XDGDataDir() == "" {
		t.Error("XDGDataDir returned empty path")
	}
	if XDGConfigDir() == "" {
		t.Error("XDGConfigDir returned empty path")
	}
}
