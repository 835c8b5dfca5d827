package flow

import (
	"github.com/catchbarrels/swinglab/internal/domain/timing"
)

// Flags attached to an analysis output.
const (
	FlagLateCommit          = "late_commit"
	FlagLowImpactConfidence = "low_impact_confidence"
	flagLeakSuffix          = "_leak"

	lowConfidence = 0.5
)

// SubScores are the three flow-path scores, plus the overall score when the
// upstream model supplied one.
type SubScores struct {
	Ground  float64  `json:"ground"`
	Power   float64  `json:"power"`
	Barrel  float64  `json:"barrel"`
	Overall *float64 `json:"overall,omitempty"`
}

// Input is everything FormatAnalysisOutput needs.
type Input struct {
	Scores           SubScores
	GoatyBand        *int
	ImpactConfidence *float64
	Timing           *timing.Metrics
	Weights          *Weights
}

// Score is one flow path in the output.
type Score struct {
	Path         Path         `json:"path"`
	Label        string       `json:"label"`
	Score        float64      `json:"score"`
	Gap          float64      `json:"gap"`
	LeakSeverity LeakSeverity `json:"leak_severity"`
}

// Output is the user-facing analysis summary.
type Output struct {
	Overall         float64         `json:"overall"`
	OverallComputed bool            `json:"overall_computed"`
	GoatyBand       *int            `json:"goaty_band,omitempty"`
	GoatyLabel      string          `json:"goaty_label,omitempty"`
	Flows           []Score         `json:"flows"`
	MainLeak        Path            `json:"main_leak"`
	SecondaryLeak   *Path           `json:"secondary_leak"`
	Flags           []string        `json:"flags"`
	Coaching        string          `json:"coaching"`
	Timing          *timing.Metrics `json:"timing,omitempty"`
}

var coaching = map[Path]string{
	PathNone:   "Energy is moving cleanly through all three flow paths. Keep building consistency.",
	PathGround: "Energy is leaking at the ground. Work on a stable load and a firm front-side brace before rotating.",
	PathPower:  "Energy is leaking through the core. Focus on hip-shoulder separation and letting the hips lead the torso.",
	PathBarrel: "Energy is leaking at the barrel. Keep the hands inside the ball and let the barrel whip through the zone late.",
}

// CoachingFor returns the coaching cue for a main leak.
func CoachingFor(p Path) string {
	if c, ok := coaching[p]; ok {
		return c
	}
	return coaching[PathNone]
}

// FormatAnalysisOutput validates the scores and assembles flow scores,
// leaks, label, flags and coaching text.
func FormatAnalysisOutput(in Input) (Output, error) {
	s := in.Scores
	for _, v := range []float64{s.Ground, s.Power, s.Barrel} {
		if err := checkScore(v); err != nil {
			return Output{}, err
		}
	}

	out := Output{Timing: in.Timing, Flags: []string{}}
	if s.Overall != nil {
		if err := checkScore(*s.Overall); err != nil {
			return Output{}, err
		}
		out.Overall = *s.Overall
	} else {
		w := DefaultWeights
		if in.Weights != nil {
			w = *in.Weights
		}
		overall, err := CombineOverall(s.Ground, s.Power, s.Barrel, w)
		if err != nil {
			return Output{}, err
		}
		out.Overall = overall
		out.OverallComputed = true
	}

	if in.GoatyBand != nil {
		label, err := GoatyLabel(*in.GoatyBand)
		if err != nil {
			return Output{}, err
		}
		out.GoatyBand = in.GoatyBand
		out.GoatyLabel = label
	}

	for i, v := range []float64{s.Ground, s.Power, s.Barrel} {
		p := Paths[i]
		gap := out.Overall - v
		out.Flows = append(out.Flows, Score{
			Path:         p,
			Label:        p.Label(),
			Score:        v,
			Gap:          gap,
			LeakSeverity: Severity(gap),
		})
	}

	leaks := IdentifyLeaks(s.Ground, s.Power, s.Barrel, out.Overall)
	out.MainLeak = leaks.Main
	out.SecondaryLeak = leaks.Secondary

	if leaks.Main != PathNone {
		out.Flags = append(out.Flags, string(leaks.Main)+flagLeakSuffix)
	}
	if leaks.Secondary != nil {
		out.Flags = append(out.Flags, string(*leaks.Secondary)+flagLeakSuffix)
	}
	if in.Timing != nil && in.Timing.BufferMs != nil && *in.Timing.BufferMs < 0 {
		out.Flags = append(out.Flags, FlagLateCommit)
	}
	if in.ImpactConfidence != nil && *in.ImpactConfidence < lowConfidence {
		out.Flags = append(out.Flags, FlagLowImpactConfidence)
	}
	out.Coaching = CoachingFor(leaks.Main)
	return out, nil
}
