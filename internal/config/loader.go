// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the optional YAML representation of the service
// configuration. Every field may be overridden by environment.
type FileConfig struct {
	Listen    string            `yaml:"listen,omitempty"`
	DataDir   string            `yaml:"dataDir,omitempty"`
	LogLevel  string            `yaml:"logLevel,omitempty"`
	Watch     *bool             `yaml:"watch,omitempty"`
	RateLimit *int              `yaml:"rateLimit,omitempty"`
	Restart   RestartFileConfig `yaml:"restart,omitempty"`
	Heroku    HerokuFileConfig  `yaml:"heroku,omitempty"`
}

// RestartFileConfig configures the tiered restart mechanism.
type RestartFileConfig struct {
	Port           *int   `yaml:"port,omitempty"`
	PrimaryDelay   string `yaml:"primaryDelay,omitempty"`
	FallbackDelay  string `yaml:"fallbackDelay,omitempty"`
	EmergencyDelay string `yaml:"emergencyDelay,omitempty"`
}

// HerokuFileConfig configures the remote config-var mirror.
type HerokuFileConfig struct {
	App     string `yaml:"app,omitempty"`
	APIKey  string `yaml:"apiKey,omitempty"`
	Timeout string `yaml:"timeout,omitempty"`
}

// Loader handles configuration loading with precedence ENV > file > defaults.
type Loader struct {
	configPath string
	version    string
}

// NewLoader creates a new configuration loader. configPath may be empty
// for ENV-only configuration.
func NewLoader(configPath, version string) *Loader {
	return &Loader{configPath: configPath, version: version}
}

// Load resolves the service configuration.
func (l *Loader) Load() (Config, error) {
	cfg := Config{
		ListenAddr:            ":8080",
		DataDir:               "data",
		LogLevel:              "info",
		LogService:            "botvar",
		Version:               l.version,
		WatchDocument:         false,
		RestartPort:           8080,
		RestartPrimaryDelay:   time.Second,
		RestartFallbackDelay:  5 * time.Second,
		RestartEmergencyDelay: 10 * time.Second,
		RateLimitPerMinute:    120,
		RemoteTimeout:         10 * time.Second,
	}

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		mergeFileConfig(&cfg, fileCfg)
	}

	mergeEnvConfig(&cfg)

	if abs, err := filepath.Abs(cfg.DataDir); err == nil {
		cfg.DataDir = abs
	}

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile loads configuration from a YAML file with strict parsing.
// Unknown fields cause an error to surface misconfiguration early.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fileCfg); err != nil {
		if err == io.EOF {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}
	return &fileCfg, nil
}

func mergeFileConfig(cfg *Config, file *FileConfig) {
	if file.Listen != "" {
		cfg.ListenAddr = file.Listen
	}
	if file.DataDir != "" {
		cfg.DataDir = file.DataDir
	}
	if file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}
	if file.Watch != nil {
		cfg.WatchDocument = *file.Watch
	}
	if file.RateLimit != nil {
		cfg.RateLimitPerMinute = *file.RateLimit
	}
	if file.Restart.Port != nil {
		cfg.RestartPort = *file.Restart.Port
	}
	if d, err := time.ParseDuration(file.Restart.PrimaryDelay); err == nil && file.Restart.PrimaryDelay != "" {
		cfg.RestartPrimaryDelay = d
	}
	if d, err := time.ParseDuration(file.Restart.FallbackDelay); err == nil && file.Restart.FallbackDelay != "" {
		cfg.RestartFallbackDelay = d
	}
	if d, err := time.ParseDuration(file.Restart.EmergencyDelay); err == nil && file.Restart.EmergencyDelay != "" {
		cfg.RestartEmergencyDelay = d
	}
	if file.Heroku.App != "" {
		cfg.HerokuAppName = file.Heroku.App
	}
	if file.Heroku.APIKey != "" {
		cfg.HerokuAPIKey = file.Heroku.APIKey
	}
	if d, err := time.ParseDuration(file.Heroku.Timeout); err == nil && file.Heroku.Timeout != "" {
		cfg.RemoteTimeout = d
	}
}

// mergeEnvConfig applies environment variables on top of the current
// configuration (highest precedence).
func mergeEnvConfig(cfg *Config) {
	cfg.ListenAddr = ParseString("BOTVAR_LISTEN", cfg.ListenAddr)
	cfg.DataDir = ParseString("BOTVAR_DATA", cfg.DataDir)
	cfg.LogLevel = ParseString("BOTVAR_LOG_LEVEL", cfg.LogLevel)
	cfg.LogService = ParseString("LOG_SERVICE", cfg.LogService)
	cfg.WatchDocument = ParseBool("BOTVAR_WATCH", cfg.WatchDocument)
	cfg.RateLimitPerMinute = ParseInt("BOTVAR_RATE_LIMIT", cfg.RateLimitPerMinute)

	// PORT is the Heroku convention for the web process's bound port;
	// the restart control endpoint lives on the same server.
	cfg.RestartPort = ParseInt("PORT", cfg.RestartPort)
	cfg.RestartPrimaryDelay = ParseDuration("BOTVAR_RESTART_PRIMARY_DELAY", cfg.RestartPrimaryDelay)
	cfg.RestartFallbackDelay = ParseDuration("BOTVAR_RESTART_FALLBACK_DELAY", cfg.RestartFallbackDelay)
	cfg.RestartEmergencyDelay = ParseDuration("BOTVAR_RESTART_EMERGENCY_DELAY", cfg.RestartEmergencyDelay)

	cfg.HerokuAPIKey = ParseString("HEROKU_API_KEY", cfg.HerokuAPIKey)
	cfg.HerokuAppName = ParseString("HEROKU_APP_NAME", cfg.HerokuAppName)
	cfg.RemoteTimeout = ParseDuration("BOTVAR_REMOTE_TIMEOUT", cfg.RemoteTimeout)
}

// Validate checks invariants on the resolved configuration.
func Validate(cfg Config) error {
	if cfg.DataDir == "" {
		return fmt.Errorf("dataDir must not be empty")
	}
	if cfg.RestartPort <= 0 || cfg.RestartPort > 65535 {
		return fmt.Errorf("restart port out of range: %d", cfg.RestartPort)
	}
	if cfg.RateLimitPerMinute <= 0 {
		return fmt.Errorf("rate limit must be positive: %d", cfg.RateLimitPerMinute)
	}
	if cfg.RestartPrimaryDelay < 0 || cfg.RestartFallbackDelay < 0 || cfg.RestartEmergencyDelay < 0 {
		return fmt.Errorf("restart delays must not be negative")
	}
	return nil
}
