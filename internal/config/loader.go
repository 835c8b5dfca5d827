package config

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/catchbarrels/swinglab/internal/domain/model"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "SWINGLAB_"
	// EnvConfigFile names an optional YAML file.
	EnvConfigFile = EnvPrefix + "CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if SWINGLAB_CONFIG is set
//  3. env (prefix SWINGLAB_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)
	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// SWINGLAB_QUEUE_SIZE -> queue_size, SWINGLAB_FLOW_WEIGHTS_GROUND -> flow_weights.ground
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		if rest, ok := strings.CutPrefix(s, "flow_weights_"); ok {
			return "flow_weights." + rest
		}
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.DedupeSize < 1:
		return fmt.Errorf("%w: dedupe_size must be positive", ErrInvalidConfig)
	case c.TargetFps <= 0:
		return fmt.Errorf("%w: target_fps must be positive", ErrInvalidConfig)
	case c.TrimWindowSeconds <= 0:
		return fmt.Errorf("%w: trim_window_seconds must be positive", ErrInvalidConfig)
	case !model.Level(c.DefaultLevel).Valid():
		return fmt.Errorf("%w: unknown default_level %q", ErrInvalidConfig, c.DefaultLevel)
	case c.MaxFrames < 1 || c.MaxEvents < 1:
		return fmt.Errorf("%w: max_frames and max_events must be positive", ErrInvalidConfig)
	}
	if err := c.FlowWeights.Validate(); err != nil {
		return fmt.Errorf("%w: flow_weights: %v", ErrInvalidConfig, err)
	}
	for _, name := range []string{c.MetricsNamespace, c.MetricsSubsystem} {
		if name != "" && !metricNameRe.MatchString(name) {
			return fmt.Errorf("%w: metrics name segment %q must match %s", ErrInvalidConfig, name, metricNameRe)
		}
	}
	for i, b := range c.MetricsLatencyBuckets {
		if b <= 0 || (i > 0 && b <= c.MetricsLatencyBuckets[i-1]) {
			return fmt.Errorf("%w: metrics_latency_buckets must be positive and increasing", ErrInvalidConfig)
		}
	}
	return nil
}

var metricNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
