// Copyright 2025 The axfor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config unified configuration structure
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// ServerConfig server configuration
type ServerConfig struct {
	ListenAddress string `yaml:"listen_address"`

	// Sub-configurations
	Storage     StorageConfig     `yaml:"storage"`
	Limits      LimitsConfig      `yaml:"limits"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Reliability ReliabilityConfig `yaml:"reliability"`
	Log         LogConfig         `yaml:"log"`
	Monitoring  MonitoringConfig  `yaml:"monitoring"`
	Debug       DebugConfig       `yaml:"debug"`
}

// StorageConfig document store configuration
type StorageConfig struct {
	DataDir    string `yaml:"data_dir"`    // Default "data"
	LegacyFile string `yaml:"legacy_file"` // Default "planner-data.json", empty string after defaults disables migration
	FileMode   uint32 `yaml:"file_mode"`   // Default 0644
	DirMode    uint32 `yaml:"dir_mode"`    // Default 0755
	Indent     string `yaml:"indent"`      // Default two spaces
}

// LimitsConfig resource limits configuration
type LimitsConfig struct {
	MaxRequestSize int64 `yaml:"max_request_size"` // Default 10MB
	MaxRequests    int64 `yaml:"max_requests"`     // Max concurrent requests, default 5000
	MaxKeyLength   int   `yaml:"max_key_length"`   // Default 200
}

// RateLimitConfig token bucket rate limiting for the HTTP API
type RateLimitConfig struct {
	Enable bool `yaml:"enable"` // Default false
	QPS    int  `yaml:"qps"`    // Requests per second, default 1000
	Burst  int  `yaml:"burst"`  // Token bucket size, default 2000
}

// ReliabilityConfig reliability configuration
type ReliabilityConfig struct {
	ShutdownTimeout     time.Duration `yaml:"shutdown_timeout"`      // Default 30s
	DrainTimeout        time.Duration `yaml:"drain_timeout"`         // Default 5s
	EnableHealthCheck   bool          `yaml:"enable_health_check"`   // Default true
	EnablePanicRecovery bool          `yaml:"enable_panic_recovery"` // Default true
}

// LogConfig log configuration
type LogConfig struct {
	Level            string         `yaml:"level"`              // Default info
	Encoding         string         `yaml:"encoding"`           // Default console
	OutputPaths      []string       `yaml:"output_paths"`       // Default ["stdout"]
	ErrorOutputPaths []string       `yaml:"error_output_paths"` // Default ["stderr"]
	Rotation         RotationConfig `yaml:"rotation"`
}

// RotationConfig rotation applied to file output paths
type RotationConfig struct {
	Enable     bool `yaml:"enable"`       // Default false
	MaxSizeMB  int  `yaml:"max_size_mb"`  // Default 100
	MaxAgeDays int  `yaml:"max_age_days"` // Default 7
	MaxBackups int  `yaml:"max_backups"`  // Default 10
	Compress   bool `yaml:"compress"`     // Default false
}

// MonitoringConfig monitoring configuration
type MonitoringConfig struct {
	EnablePrometheus     bool          `yaml:"enable_prometheus"`      // Default true
	PrometheusAddress    string        `yaml:"prometheus_address"`     // Default ":9090"
	SlowRequestThreshold time.Duration `yaml:"slow_request_threshold"` // Default 100ms
}

// DebugConfig diagnostics configuration
type DebugConfig struct {
	GopsAddress string `yaml:"gops_address"` // Empty disables the gops agent
}

// DefaultConfig returns a configuration with recommended default values
// Use this function to get production-ready defaults when no config file is provided
func DefaultConfig(listenAddress string) *Config {
	cfg := &Config{
		Server: ServerConfig{
			ListenAddress: listenAddress,
			Reliability: ReliabilityConfig{
				EnableHealthCheck:   true,
				EnablePanicRecovery: true,
			},
			Monitoring: MonitoringConfig{
				EnablePrometheus: true,
			},
			Storage: StorageConfig{
				LegacyFile: "planner-data.json",
			},
		},
	}

	cfg.SetDefaults()

	return cfg
}

// LoadConfig loads configuration from a file
// Fields missing from the file keep the values of DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.SetDefaults()
	cfg.OverrideFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadConfigOrDefault attempts to load configuration from file, uses defaults if file doesn't exist
func LoadConfigOrDefault(path string, listenAddress string) (*Config, error) {
	if path != "" {
		cfg, err := LoadConfig(path)
		if err == nil {
			return cfg, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := DefaultConfig(listenAddress)
	cfg.OverrideFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SetDefaults sets default values for every zero-valued field
func (c *Config) SetDefaults() {
	if c.Server.ListenAddress == "" {
		c.Server.ListenAddress = ":3002"
	}

	// Storage defaults
	if c.Server.Storage.DataDir == "" {
		c.Server.Storage.DataDir = "data"
	}
	if c.Server.Storage.FileMode == 0 {
		c.Server.Storage.FileMode = 0o644
	}
	if c.Server.Storage.DirMode == 0 {
		c.Server.Storage.DirMode = 0o755
	}
	if c.Server.Storage.Indent == "" {
		c.Server.Storage.Indent = "  "
	}

	// Limits defaults
	if c.Server.Limits.MaxRequestSize == 0 {
		c.Server.Limits.MaxRequestSize = 10 * 1024 * 1024 // 10MB
	}
	if c.Server.Limits.MaxRequests == 0 {
		c.Server.Limits.MaxRequests = 5000
	}
	if c.Server.Limits.MaxKeyLength == 0 {
		c.Server.Limits.MaxKeyLength = 200
	}

	// Rate limit defaults (only used when enabled)
	if c.Server.RateLimit.QPS == 0 {
		c.Server.RateLimit.QPS = 1000
	}
	if c.Server.RateLimit.Burst == 0 {
		c.Server.RateLimit.Burst = 2000
	}

	// Reliability defaults
	if c.Server.Reliability.ShutdownTimeout == 0 {
		c.Server.Reliability.ShutdownTimeout = 30 * time.Second
	}
	if c.Server.Reliability.DrainTimeout == 0 {
		c.Server.Reliability.DrainTimeout = 5 * time.Second
	}

	// Log defaults
	if c.Server.Log.Level == "" {
		c.Server.Log.Level = "info"
	}
	if c.Server.Log.Encoding == "" {
		c.Server.Log.Encoding = "console"
	}
	if len(c.Server.Log.OutputPaths) == 0 {
		c.Server.Log.OutputPaths = []string{"stdout"}
	}
	if len(c.Server.Log.ErrorOutputPaths) == 0 {
		c.Server.Log.ErrorOutputPaths = []string{"stderr"}
	}
	if c.Server.Log.Rotation.MaxSizeMB == 0 {
		c.Server.Log.Rotation.MaxSizeMB = 100
	}
	if c.Server.Log.Rotation.MaxAgeDays == 0 {
		c.Server.Log.Rotation.MaxAgeDays = 7
	}
	if c.Server.Log.Rotation.MaxBackups == 0 {
		c.Server.Log.Rotation.MaxBackups = 10
	}

	// Monitoring defaults
	if c.Server.Monitoring.PrometheusAddress == "" {
		c.Server.Monitoring.PrometheusAddress = ":9090"
	}
	if c.Server.Monitoring.SlowRequestThreshold == 0 {
		c.Server.Monitoring.SlowRequestThreshold = 100 * time.Millisecond
	}
}

// OverrideFromEnv overrides configuration from environment variables
// DATA_DIR and DATA_FILE are honoured for compatibility with older deployments.
func (c *Config) OverrideFromEnv() {
	if listenAddr := os.Getenv("PLANSTORE_LISTEN_ADDRESS"); listenAddr != "" {
		c.Server.ListenAddress = listenAddr
	}

	if dataDir := firstEnv("PLANSTORE_DATA_DIR", "DATA_DIR"); dataDir != "" {
		c.Server.Storage.DataDir = dataDir
	}
	if legacy := firstEnv("PLANSTORE_LEGACY_FILE", "DATA_FILE"); legacy != "" {
		c.Server.Storage.LegacyFile = legacy
	}

	if maxReq := os.Getenv("PLANSTORE_MAX_REQUEST_SIZE"); maxReq != "" {
		if n, err := strconv.ParseInt(maxReq, 10, 64); err == nil {
			c.Server.Limits.MaxRequestSize = n
		}
	}

	// Log configuration
	if logLevel := os.Getenv("PLANSTORE_LOG_LEVEL"); logLevel != "" {
		c.Server.Log.Level = logLevel
	}
	if logEncoding := os.Getenv("PLANSTORE_LOG_ENCODING"); logEncoding != "" {
		c.Server.Log.Encoding = logEncoding
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.ListenAddress == "" {
		return fmt.Errorf("listen_address is required")
	}

	if c.Server.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir is required")
	}
	if c.Server.Storage.FileMode > 0o777 {
		return fmt.Errorf("storage.file_mode must be a permission mode (<= 0777)")
	}
	if c.Server.Storage.DirMode > 0o777 {
		return fmt.Errorf("storage.dir_mode must be a permission mode (<= 0777)")
	}

	// Validate resource limits
	if c.Server.Limits.MaxRequestSize <= 0 {
		return fmt.Errorf("limits.max_request_size must be > 0")
	}
	if c.Server.Limits.MaxRequests <= 0 {
		return fmt.Errorf("limits.max_requests must be > 0")
	}
	if c.Server.Limits.MaxKeyLength <= 0 {
		return fmt.Errorf("limits.max_key_length must be > 0")
	}

	if c.Server.RateLimit.Enable {
		if c.Server.RateLimit.QPS <= 0 {
			return fmt.Errorf("rate_limit.qps must be > 0")
		}
		if c.Server.RateLimit.Burst <= 0 {
			return fmt.Errorf("rate_limit.burst must be > 0")
		}
	}

	if c.Server.Reliability.ShutdownTimeout <= 0 {
		return fmt.Errorf("reliability.shutdown_timeout must be > 0")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true,
		"error": true, "dpanic": true, "panic": true, "fatal": true,
	}
	if !validLogLevels[c.Server.Log.Level] {
		return fmt.Errorf("log.level must be one of: debug, info, warn, error, dpanic, panic, fatal")
	}

	// Validate log encoding
	if c.Server.Log.Encoding != "json" && c.Server.Log.Encoding != "console" {
		return fmt.Errorf("log.encoding must be either 'json' or 'console'")
	}

	if c.Server.Monitoring.EnablePrometheus && c.Server.Monitoring.PrometheusAddress == c.Server.ListenAddress {
		return fmt.Errorf("monitoring.prometheus_address must differ from listen_address")
	}

	return nil
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}
