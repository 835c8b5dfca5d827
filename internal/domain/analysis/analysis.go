// Package analysis holds the lifecycle record of one uploaded swing and the
// job that carries it through the pipeline.
package analysis

import (
	"time"

	"github.com/catchbarrels/swinglab/internal/domain/flow"
	"github.com/catchbarrels/swinglab/internal/domain/impact"
	"github.com/catchbarrels/swinglab/internal/domain/normalize"
	"github.com/catchbarrels/swinglab/internal/domain/pose"
	"github.com/catchbarrels/swinglab/internal/domain/timing"
)

// Status is the pipeline stage of an analysis.
type Status string

const (
	StatusQueued      Status = "queued"
	StatusDetecting   Status = "detecting"
	StatusNormalizing Status = "normalizing"
	StatusScoring     Status = "scoring"
	StatusComplete    Status = "complete"
	StatusFailed      Status = "failed"
)

// Progress returns the coarse completion percentage reported for s.
func (s Status) Progress() int {
	switch s {
	case StatusDetecting:
		return 20
	case StatusNormalizing:
		return 50
	case StatusScoring:
		return 80
	case StatusComplete:
		return 100
	default:
		return 0
	}
}

// Terminal reports whether s is final.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// Analysis is the stored state of one swing analysis.
type Analysis struct {
	ID         string               `json:"id"`
	RequestID  string               `json:"request_id"`
	AthleteID  string               `json:"athlete_id"`
	Status     Status               `json:"status"`
	Progress   int                  `json:"progress"`
	Impact     *impact.Result       `json:"impact,omitempty"`
	TrimRange  *normalize.TrimRange `json:"trim_range,omitempty"`
	SourceFps  float64              `json:"source_fps"`
	TargetFps  float64              `json:"target_fps"`
	FrameCount int                  `json:"frame_count"`
	Output     *flow.Output         `json:"output,omitempty"`
	Error      string               `json:"error,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// Advance moves a to status s and stamps the update time.
func (a *Analysis) Advance(s Status, now time.Time) {
	a.Status = s
	a.Progress = s.Progress()
	a.UpdatedAt = now
}

// Fail marks a as failed with err. Progress keeps the last stage reached.
func (a *Analysis) Fail(err error, now time.Time) {
	a.Status = StatusFailed
	a.Error = err.Error()
	a.UpdatedAt = now
}

// Job is the queued payload for one analysis.
type Job struct {
	AnalysisID   string
	AthleteID    string
	Fps          float64
	Frames       []pose.JointFrame
	ManualImpact *int
	Scores       *flow.SubScores
	GoatyBand    *int
	Timing       *timing.Input
	EnqueuedAt   time.Time
}
