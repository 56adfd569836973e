package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "MIMICOO_"
	envCfgFile = "MIMICOO_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if MIMICOO_CONFIG is set
//  3. env (prefix MIMICOO_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(envCfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// MIMICOO_INFERENCE_API_KEY -> inference_api_key. Keys are flat, so the
	// underscores stay as they are.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields the service cannot start without.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.PitchSamples < 2 || c.EnergySamples < 2:
		return fmt.Errorf("%w: pitch_samples and energy_samples must be at least 2", ErrInvalidConfig)
	case c.ReferencePitchHz <= 0 || c.ReferenceEnergy <= 0:
		return fmt.Errorf("%w: reference_pitch_hz and reference_energy must be positive", ErrInvalidConfig)
	case c.InferenceMaxRetries < 1:
		return fmt.Errorf("%w: inference_max_retries counts attempts and must be at least 1", ErrInvalidConfig)
	case c.InferenceEnabled() && c.InferenceBaseURL == "":
		return fmt.Errorf("%w: inference_base_url is required when an api key is set", ErrInvalidConfig)
	}
	return nil
}
