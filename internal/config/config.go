// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and MIMICOO_ env vars over the defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"runtime"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// Inference endpoint. An empty API key disables the external client and
	// every analysis falls back to the local simulator.
	InferenceBaseURL       string  `koanf:"inference_base_url"`
	InferenceAPIKey        string  `koanf:"inference_api_key"`
	InferenceModel         string  `koanf:"inference_model"`
	InferenceTimeoutMS     int     `koanf:"inference_timeout_ms"`
	InferenceMaxRetries    int     `koanf:"inference_max_retries"`
	InferenceBackoffBaseMS int     `koanf:"inference_backoff_base_ms"`
	InferenceRatePerSec    float64 `koanf:"inference_rate_per_sec"`

	// WSBaseURL and APIBaseURL are advertised to clients through /stats and
	// used by the practice-sim tool.
	WSBaseURL  string `koanf:"ws_base_url"`
	APIBaseURL string `koanf:"api_base_url"`
	// CORSOrigins is a comma-separated allow list; "*" allows any origin.
	CORSOrigins string `koanf:"cors_origins"`

	// StageDelayMS is the artificial delay between simulated processing stages.
	StageDelayMS int `koanf:"stage_delay_ms"`

	// QueueSize bounds the in-memory analysis queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of analysis workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize sets the size of the idempotency-key cache.
	DedupeSize int `koanf:"dedupe_size"`
	// MaxSessions caps the number of practice sessions held in memory.
	MaxSessions int `koanf:"max_sessions"`

	// Signal synthesis.
	PitchSamples     int     `koanf:"pitch_samples"`
	EnergySamples    int     `koanf:"energy_samples"`
	RandomSeed       int64   `koanf:"random_seed"`
	ReferencePitchHz float64 `koanf:"reference_pitch_hz"`
	ReferenceEnergy  float64 `koanf:"reference_energy"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":8000",
		InferenceBaseURL:       "https://generativelanguage.googleapis.com",
		InferenceModel:         "gemini-2.5-flash-preview-05-20",
		InferenceTimeoutMS:     30_000,
		InferenceMaxRetries:    3,
		InferenceBackoffBaseMS: 1_000,
		InferenceRatePerSec:    2,
		WSBaseURL:              "ws://localhost:8000",
		APIBaseURL:             "http://localhost:8000",
		CORSOrigins:            "*",
		StageDelayMS:           800,
		QueueSize:              1_024,
		WorkerCount:            runtime.NumCPU(),
		DedupeSize:             10_000,
		MaxSessions:            1_000,
		PitchSamples:           200,
		EnergySamples:          100,
		ReferencePitchHz:       350,
		ReferenceEnergy:        0.05,
	}
}

// InferenceEnabled reports whether an external inference key is configured.
func (c *Config) InferenceEnabled() bool { return c.InferenceAPIKey != "" }

// InferenceTimeout returns the per-request inference timeout.
func (c *Config) InferenceTimeout() time.Duration {
	return time.Duration(c.InferenceTimeoutMS) * time.Millisecond
}

// InferenceBackoffBase returns the base delay for rate-limit backoff.
func (c *Config) InferenceBackoffBase() time.Duration {
	return time.Duration(c.InferenceBackoffBaseMS) * time.Millisecond
}

// StageDelay returns the delay between simulated processing stages.
func (c *Config) StageDelay() time.Duration {
	return time.Duration(c.StageDelayMS) * time.Millisecond
}

// AllowedOrigins splits CORSOrigins into its entries.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
