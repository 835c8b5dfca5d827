package service

import (
	"context"
	"fmt"
	"time"

	"github.com/catchbarrels/swinglab/internal/domain/analysis"
	"github.com/catchbarrels/swinglab/internal/domain/flow"
	"github.com/catchbarrels/swinglab/internal/domain/impact"
	"github.com/catchbarrels/swinglab/internal/domain/normalize"
	"github.com/catchbarrels/swinglab/internal/domain/scoring"
	"github.com/catchbarrels/swinglab/internal/domain/timing"
	"github.com/catchbarrels/swinglab/pkg/metrics"
)

// Pipeline runs one swing through impact detection, normalization,
// sub-scoring and flow analysis.
type Pipeline struct {
	Scorer        scoring.Scorer
	TargetFps     float64
	WindowSeconds float64
	Weights       flow.Weights
}

// Result is everything a pipeline run produces.
type Result struct {
	Impact     impact.Result
	Normalized normalize.Result
	Output     flow.Output
}

// Run executes the pipeline. progress is called on entry to each stage and
// may be nil.
func (p *Pipeline) Run(ctx context.Context, j analysis.Job, progress func(analysis.Status)) (Result, error) { //nolint:gocritic // hugeParam
	if progress == nil {
		progress = func(analysis.Status) {}
	}
	var res Result

	progress(analysis.StatusDetecting)
	start := time.Now()
	var err error
	if j.ManualImpact != nil {
		res.Impact, err = impact.Manual(j.Frames, *j.ManualImpact)
	} else {
		res.Impact, err = impact.Detect(j.Frames, j.Fps)
	}
	metrics.RecordStageLatency(string(analysis.StatusDetecting), msSince(start))
	if err != nil {
		return res, fmt.Errorf("detect impact: %w", err)
	}
	metrics.RecordImpact(string(res.Impact.Method), res.Impact.Confidence, res.Impact.Fallback)

	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("context cancelled: %w", err)
	}

	progress(analysis.StatusNormalizing)
	start = time.Now()
	res.Normalized, err = normalize.Normalize(j.Frames, res.Impact.ImpactFrame, j.Fps, p.TargetFps, p.WindowSeconds)
	metrics.RecordStageLatency(string(analysis.StatusNormalizing), msSince(start))
	if err != nil {
		return res, fmt.Errorf("normalize: %w", err)
	}

	progress(analysis.StatusScoring)
	start = time.Now()
	scores, err := p.Scorer.Score(ctx, scoring.Input{
		Frames:      res.Normalized.Frames,
		Fps:         res.Normalized.TargetFps,
		ImpactFrame: res.Normalized.ImpactFrame,
		Provided:    j.Scores,
	})
	if err != nil {
		metrics.RecordStageLatency(string(analysis.StatusScoring), msSince(start))
		return res, fmt.Errorf("score: %w", err)
	}

	in := flow.Input{
		Scores:           scores,
		GoatyBand:        j.GoatyBand,
		ImpactConfidence: &res.Impact.Confidence,
		Weights:          &p.Weights,
	}
	if j.Timing != nil {
		m := timing.Calculate(*j.Timing)
		in.Timing = &m
	}
	res.Output, err = flow.FormatAnalysisOutput(in)
	metrics.RecordStageLatency(string(analysis.StatusScoring), msSince(start))
	if err != nil {
		return res, fmt.Errorf("flow analysis: %w", err)
	}
	return res, nil
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
