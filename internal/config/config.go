// Package config provides the configuration structure for the speech
// gateway.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
	"github.com/book-expert/speech-gateway/internal/core"
)

// Defaults applied when the configuration omits a value.
const (
	defaultLoadRetryCooldownSeconds = 30
	defaultJobTimeoutSeconds        = 120
	defaultEngineTimeoutSeconds     = 300
	defaultEngineBackend            = "process"
)

// ErrUnknownVariant indicates a model variant with no configuration section.
var ErrUnknownVariant = errors.New("unknown model variant")

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL                    string `toml:"url"`
	SpeechJobsSubject      string `toml:"speech_jobs_subject"`
	ModelObjectStoreBucket string `toml:"model_object_store_bucket"`
}

// GatewayConfig holds the dispatch-layer settings.
type GatewayConfig struct {
	// Device targets all variants: "cpu", "gpu", or empty for detection
	// at process start.
	Device string `toml:"device"`
	// LoadRetryCooldownSeconds is how long a model load failure is cached
	// before the next request re-attempts the load. Zero selects the
	// default; a negative value makes failures sticky for the process
	// lifetime.
	LoadRetryCooldownSeconds int    `toml:"load_retry_cooldown_seconds"`
	JobTimeoutSeconds        int    `toml:"job_timeout_seconds"`
	ScratchDir               string `toml:"scratch_dir"`
}

// LoadRetryCooldown returns the failure-cache duration for the model cache.
func (g GatewayConfig) LoadRetryCooldown() time.Duration {
	return time.Duration(g.LoadRetryCooldownSeconds) * time.Second
}

// JobTimeout returns the per-message handling timeout.
func (g GatewayConfig) JobTimeout() time.Duration {
	return time.Duration(g.JobTimeoutSeconds) * time.Second
}

// EngineConfig holds the inference engine settings.
type EngineConfig struct {
	// Backend selects the engine flavor: "process" shells out to the
	// inference binary, "http" talks to a standalone inference sidecar.
	Backend        string `toml:"backend"`
	BinaryPath     string `toml:"binary_path"`
	ServiceURL     string `toml:"service_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the engine call timeout.
func (e EngineConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// ModelConfig describes one loadable variant.
type ModelConfig struct {
	ArtifactKey string `toml:"artifact_key"`
	SampleRate  int    `toml:"sample_rate"`
}

// ModelsConfig holds the per-variant model settings.
type ModelsConfig struct {
	English      ModelConfig `toml:"english"`
	Multilingual ModelConfig `toml:"multilingual"`
	VoiceClone   ModelConfig `toml:"voice_clone"`
}

// ForVariant returns the configuration for a variant ID.
func (m ModelsConfig) ForVariant(id core.VariantID) (ModelConfig, error) {
	switch id {
	case core.VariantEnglishTTS:
		return m.English, nil
	case core.VariantMultilingualTTS:
		return m.Multilingual, nil
	case core.VariantVoiceConversion:
		return m.VoiceClone, nil
	default:
		return ModelConfig{}, fmt.Errorf("%w: %q", ErrUnknownVariant, id)
	}
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	NATS    NATSConfig    `toml:"nats"`
	Gateway GatewayConfig `toml:"gateway"`
	Engine  EngineConfig  `toml:"engine"`
	Models  ModelsConfig  `toml:"models"`
	Paths   PathsConfig   `toml:"paths"`
}

// Load loads the configuration for the speech gateway and applies defaults
// for omitted values.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	cfg.ApplyDefaults()

	return &cfg, nil
}

// ApplyDefaults fills omitted values. Negative cooldowns are preserved; they
// mean a load failure is never retried.
func (c *Config) ApplyDefaults() {
	if c.Gateway.LoadRetryCooldownSeconds == 0 {
		c.Gateway.LoadRetryCooldownSeconds = defaultLoadRetryCooldownSeconds
	}

	if c.Gateway.JobTimeoutSeconds == 0 {
		c.Gateway.JobTimeoutSeconds = defaultJobTimeoutSeconds
	}

	if c.Engine.TimeoutSeconds == 0 {
		c.Engine.TimeoutSeconds = defaultEngineTimeoutSeconds
	}

	if c.Engine.Backend == "" {
		c.Engine.Backend = defaultEngineBackend
	}
}
