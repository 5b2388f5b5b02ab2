package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Audio    AudioConfig    `yaml:"audio"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig contains HTTP/WebSocket server configuration
type ServerConfig struct {
	Port                     int    `yaml:"port"`
	BindAddress              string `yaml:"bind_address"`
	MaxConcurrentConnections int    `yaml:"max_concurrent_connections"`
	ReadLimit                int64  `yaml:"read_limit"`       // bytes per WebSocket frame
	SessionTimeout           int    `yaml:"session_timeout"`  // seconds
	ShutdownTimeout          int    `yaml:"shutdown_timeout"` // seconds
}

// AudioConfig contains audio decoding parameters
type AudioConfig struct {
	SampleRate      int `yaml:"sample_rate"`
	MinSamples      int `yaml:"min_samples"`       // minimum samples required for analysis
	MaxPayloadBytes int `yaml:"max_payload_bytes"` // maximum decoded audio size
}

// AnalysisConfig contains fraud analysis parameters
type AnalysisConfig struct {
	DefaultSensitivity float64 `yaml:"default_sensitivity"` // 0-10 scale, divided by 10 before use
	ReplayRiskFactor   float64 `yaml:"replay_risk_factor"`
	RMSWeight          float64 `yaml:"rms_weight"`
	ZCRWeight          float64 `yaml:"zcr_weight"`
	JitterSpan         float64 `yaml:"jitter_span"`
	SuspiciousLevel    float64 `yaml:"suspicious_level"` // fraud score above this is "Suspicious"
	AnomalousLevel     float64 `yaml:"anomalous_level"`  // fraud score above this is "Anomalous"
	NoiseRMSLevel      float64 `yaml:"noise_rms_level"`  // RMS above this is "Noisy"
	ProsodyLevel       float64 `yaml:"prosody_level"`    // fraud score above this is "Robotic"
	SilenceRMSLevel    float64 `yaml:"silence_rms_level"`
	DefaultModel       string  `yaml:"default_model"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// ApplyDefaults fills in zero-valued optional parameters with their defaults
func (c *Config) ApplyDefaults() {
	a := &c.Analysis

	if a.DefaultSensitivity == 0 {
		a.DefaultSensitivity = 6
	}
	if a.ReplayRiskFactor == 0 {
		a.ReplayRiskFactor = 0.7
	}
	if a.RMSWeight == 0 {
		a.RMSWeight = 3.0
	}
	if a.ZCRWeight == 0 {
		a.ZCRWeight = 2.0
	}
	if a.JitterSpan == 0 {
		a.JitterSpan = 0.4
	}
	if a.SuspiciousLevel == 0 {
		a.SuspiciousLevel = 0.3
	}
	if a.AnomalousLevel == 0 {
		a.AnomalousLevel = 0.6
	}
	if a.NoiseRMSLevel == 0 {
		a.NoiseRMSLevel = 0.1
	}
	if a.ProsodyLevel == 0 {
		a.ProsodyLevel = 0.5
	}
	if a.SilenceRMSLevel == 0 {
		a.SilenceRMSLevel = 0.001
	}
	if a.DefaultModel == "" {
		a.DefaultModel = "balanced"
	}

	if c.Audio.MinSamples == 0 {
		c.Audio.MinSamples = 100
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10
	}
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.Analysis.Validate(); err != nil {
		return fmt.Errorf("analysis config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}

	if s.BindAddress == "" {
		return fmt.Errorf("bind_address cannot be empty")
	}

	if s.MaxConcurrentConnections < 1 {
		return fmt.Errorf("max_concurrent_connections must be at least 1, got %d", s.MaxConcurrentConnections)
	}

	if s.ReadLimit < 1024 {
		return fmt.Errorf("read_limit must be at least 1024 bytes, got %d", s.ReadLimit)
	}

	if s.SessionTimeout < 1 {
		return fmt.Errorf("session_timeout must be at least 1 second, got %d", s.SessionTimeout)
	}

	return nil
}

// Validate validates audio configuration
func (a *AudioConfig) Validate() error {
	if a.SampleRate < 8000 || a.SampleRate > 48000 {
		return fmt.Errorf("sample_rate must be between 8000 and 48000 Hz, got %d", a.SampleRate)
	}

	if a.MinSamples < 1 {
		return fmt.Errorf("min_samples must be at least 1, got %d", a.MinSamples)
	}

	if a.MaxPayloadBytes < 1024 {
		return fmt.Errorf("max_payload_bytes must be at least 1024 bytes, got %d", a.MaxPayloadBytes)
	}

	return nil
}

// Validate validates analysis configuration
func (a *AnalysisConfig) Validate() error {
	if a.DefaultSensitivity < 0 || a.DefaultSensitivity > 10 {
		return fmt.Errorf("default_sensitivity must be between 0 and 10, got %f", a.DefaultSensitivity)
	}

	if a.ReplayRiskFactor < 0 || a.ReplayRiskFactor > 1 {
		return fmt.Errorf("replay_risk_factor must be between 0 and 1, got %f", a.ReplayRiskFactor)
	}

	if a.RMSWeight <= 0 {
		return fmt.Errorf("rms_weight must be positive, got %f", a.RMSWeight)
	}

	if a.ZCRWeight <= 0 {
		return fmt.Errorf("zcr_weight must be positive, got %f", a.ZCRWeight)
	}

	if a.JitterSpan < 0 || a.JitterSpan > 1 {
		return fmt.Errorf("jitter_span must be between 0 and 1, got %f", a.JitterSpan)
	}

	if a.SuspiciousLevel <= 0 || a.SuspiciousLevel >= 1 {
		return fmt.Errorf("suspicious_level must be between 0 and 1 (exclusive), got %f", a.SuspiciousLevel)
	}

	if a.AnomalousLevel <= a.SuspiciousLevel || a.AnomalousLevel >= 1 {
		return fmt.Errorf("anomalous_level (%f) must be greater than suspicious_level (%f) and below 1",
			a.AnomalousLevel, a.SuspiciousLevel)
	}

	if a.ProsodyLevel <= 0 || a.ProsodyLevel >= 1 {
		return fmt.Errorf("prosody_level must be between 0 and 1 (exclusive), got %f", a.ProsodyLevel)
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// GetSessionTimeoutDuration returns the session idle timeout as a time.Duration
func (s *ServerConfig) GetSessionTimeoutDuration() time.Duration {
	return time.Duration(s.SessionTimeout) * time.Second
}

// GetShutdownTimeoutDuration returns the shutdown timeout as a time.Duration
func (s *ServerConfig) GetShutdownTimeoutDuration() time.Duration {
	return time.Duration(s.ShutdownTimeout) * time.Second
}

// GetNormalizedSensitivity returns the default sensitivity scaled to the 0-1 range
func (a *AnalysisConfig) GetNormalizedSensitivity() float64 {
	return a.DefaultSensitivity / 10.0
}
