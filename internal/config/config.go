// Package config defines service configuration and its defaults.
package config

import (
	"context"
	"runtime"

	"github.com/catchbarrels/swinglab/internal/domain/flow"
	"github.com/catchbarrels/swinglab/internal/domain/model"
	"github.com/catchbarrels/swinglab/internal/domain/normalize"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogJSON switches the log handler from text to JSON.
	LogJSON bool `koanf:"log_json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory analysis job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of analysis workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the request-id dedupe cache.
	DedupeSize int `koanf:"dedupe_size"`

	// DBPath is the SQLite file. "memory" keeps everything in process.
	DBPath string `koanf:"db_path"`

	// TargetFps is the canonical frame rate swings are resampled to.
	TargetFps float64 `koanf:"target_fps"`

	// TrimWindowSeconds is kept on each side of the impact frame.
	TrimWindowSeconds float64 `koanf:"trim_window_seconds"`

	// DefaultLevel applies when a batch names no level.
	DefaultLevel string `koanf:"default_level"`

	// FlowWeights combine sub-scores when no overall score is supplied.
	FlowWeights flow.Weights `koanf:"flow_weights"`

	// MaxFrames caps frames per uploaded swing.
	MaxFrames int `koanf:"max_frames"`

	// MaxEvents caps events per on-the-ball batch.
	MaxEvents int `koanf:"max_events"`

	// MetricsNamespace and MetricsSubsystem prefix every Prometheus name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// MetricsLatencyBuckets are the millisecond buckets of latency
	// histograms. Empty keeps the built-in set.
	MetricsLatencyBuckets []float64 `koanf:"metrics_latency_buckets"`
}

// MemoryDB selects the in-process store.
const MemoryDB = "memory"

// New creates a Config with defaults. Context is accepted first to match the
// project convention for constructors that may later load from I/O.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		QueueSize:         1024,
		WorkerCount:       runtime.NumCPU(),
		DedupeSize:        50_000,
		DBPath:            "data/swinglab.db",
		TargetFps:         normalize.CanonicalFps,
		TrimWindowSeconds: normalize.DefaultWindowSeconds,
		DefaultLevel:      string(model.LevelHS),
		FlowWeights:       flow.DefaultWeights,
		MaxFrames:         5000,
		MaxEvents:         10_000,
		MetricsNamespace:  "swinglab",
		MetricsSubsystem:  "analysis",
	}
}
