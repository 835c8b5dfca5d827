// Package scoring defines the contract for turning a normalized swing into
// flow-path sub-scores.
//
// The mapping from joint sequences to sub-scores lives in an upstream model.
// This package only fixes its interface and the [0,100] contract.
package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/catchbarrels/swinglab/internal/domain/flow"
	"github.com/catchbarrels/swinglab/internal/domain/pose"
)

const maxScoreValue = 100

// SubScores are the three flow-path scores with an optional overall.
type SubScores = flow.SubScores

// Input carries a normalized swing plus any scores the caller already has.
type Input struct {
	Frames      []pose.JointFrame
	Fps         float64
	ImpactFrame int
	Provided    *SubScores
}

// Scorer computes sub-scores for a swing, honoring ctx for cancellation.
type Scorer interface {
	Score(ctx context.Context, in Input) (SubScores, error)
}

// Func adapts a function to Scorer.
type Func func(ctx context.Context, in Input) (SubScores, error)

// Score calls f.
func (f Func) Score(ctx context.Context, in Input) (SubScores, error) {
	return f(ctx, in)
}

// Option applies a configuration option to the ProvidedScorer.
type Option func(*ProvidedScorer)

// WithRequireOverall rejects inputs without an upstream overall score.
func WithRequireOverall() Option {
	return func(s *ProvidedScorer) {
		s.requireOverall = true
	}
}

// ProvidedScorer passes through scores supplied by an upstream model after
// checking they honor the [0,100] contract.
type ProvidedScorer struct {
	requireOverall bool
}

// NewProvidedScorer creates a ProvidedScorer.
func NewProvidedScorer(opts ...Option) *ProvidedScorer {
	s := &ProvidedScorer{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score returns in.Provided once validated.
func (s *ProvidedScorer) Score(ctx context.Context, in Input) (SubScores, error) {
	if err := ctx.Err(); err != nil {
		return SubScores{}, fmt.Errorf("context cancelled: %w", err)
	}
	if in.Provided == nil {
		return SubScores{}, ErrScoresUnavailable
	}
	p := *in.Provided
	if s.requireOverall && p.Overall == nil {
		return SubScores{}, fmt.Errorf("%w: overall", ErrScoresUnavailable)
	}
	if err := Validate(p); err != nil {
		return SubScores{}, err
	}
	return p, nil
}

// Validate checks every present score lies in [0,100].
func Validate(s SubScores) error {
	check := func(name string, v float64) error {
		if math.IsNaN(v) || v < 0 || v > maxScoreValue {
			return fmt.Errorf("%w: %s=%v", ErrScoreOutOfRange, name, v)
		}
		return nil
	}
	if err := check("ground", s.Ground); err != nil {
		return err
	}
	if err := check("power", s.Power); err != nil {
		return err
	}
	if err := check("barrel", s.Barrel); err != nil {
		return err
	}
	if s.Overall != nil {
		return check("overall", *s.Overall)
	}
	return nil
}
