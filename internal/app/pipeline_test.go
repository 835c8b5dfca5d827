package service

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/catchbarrels/swinglab/internal/domain/analysis"
	"github.com/catchbarrels/swinglab/internal/domain/flow"
	"github.com/catchbarrels/swinglab/internal/domain/impact"
	"github.com/catchbarrels/swinglab/internal/domain/model"
	"github.com/catchbarrels/swinglab/internal/domain/scoring"
	"github.com/catchbarrels/swinglab/internal/domain/timing"
	"github.com/catchbarrels/swinglab/internal/synth"
)

func newTestPipeline() *Pipeline {
	return &Pipeline{
		Scorer:        scoring.NewProvidedScorer(),
		TargetFps:     60,
		WindowSeconds: 2,
		Weights:       flow.DefaultWeights,
	}
}

func intPtr(v int) *int { return &v }

func TestPipelineRun(t *testing.T) {
	Convey("Given a synthetic 240fps swing with impact at frame 60", t, func() {
		frames := synth.Swing(synth.SwingConfig{Frames: 120, Fps: 240, ImpactAt: 60})
		p := newTestPipeline()
		job := analysis.Job{
			AnalysisID: "a-1",
			Fps:        240,
			Frames:     frames,
			Scores:     &flow.SubScores{Ground: 60, Power: 75, Barrel: 80, Overall: model.Float(78)},
			GoatyBand:  intPtr(1),
		}

		Convey("When the pipeline runs", func() {
			var stages []analysis.Status
			res, err := p.Run(context.Background(), job, func(s analysis.Status) { stages = append(stages, s) })

			Convey("Then every stage reports in order", func() {
				So(err, ShouldBeNil)
				So(stages, ShouldResemble, []analysis.Status{
					analysis.StatusDetecting, analysis.StatusNormalizing, analysis.StatusScoring,
				})
			})

			Convey("And impact is detected at the spike", func() {
				So(res.Impact.ImpactFrame, ShouldEqual, 60)
				So(res.Impact.Method, ShouldEqual, impact.MethodAuto)
				So(res.Impact.Confidence, ShouldBeGreaterThan, 0.9)
			})

			Convey("And the sequence is resampled to 60fps", func() {
				So(res.Normalized.TargetFps, ShouldEqual, 60)
				So(len(res.Normalized.Frames), ShouldBeLessThan, len(frames))
				So(res.Normalized.ImpactFrame, ShouldEqual, 15)
			})

			Convey("And the flow output names ground as the main leak", func() {
				So(res.Output.MainLeak, ShouldEqual, flow.PathGround)
				So(res.Output.GoatyLabel, ShouldEqual, "Above Average")
				So(res.Output.Flags, ShouldContain, "ground_leak")
			})
		})

		Convey("When a manual impact frame and timing are given", func() {
			job.ManualImpact = intPtr(40)
			job.Timing = &timing.Input{DistanceFt: 30, SpeedMph: 44.6, Fps: 240, FrameRelease: intPtr(0), FrameLaunch: intPtr(200)}
			res, err := p.Run(context.Background(), job, nil)

			Convey("Then the manual frame wins and late commits are flagged", func() {
				So(err, ShouldBeNil)
				So(res.Impact.Method, ShouldEqual, impact.MethodManual)
				So(res.Impact.ImpactFrame, ShouldEqual, 40)
				So(res.Output.Timing, ShouldNotBeNil)
				So(*res.Output.Timing.BufferMs, ShouldBeLessThan, 0)
				So(res.Output.Flags, ShouldContain, "late_commit")
			})
		})

		Convey("When no scores are supplied", func() {
			job.Scores = nil
			res, err := p.Run(context.Background(), job, nil)

			Convey("Then scoring fails after normalization succeeded", func() {
				So(errors.Is(err, scoring.ErrScoresUnavailable), ShouldBeTrue)
				So(res.Normalized.Frames, ShouldNotBeEmpty)
			})
		})

		Convey("When the sequence is empty", func() {
			job.Frames = nil
			_, err := p.Run(context.Background(), job, nil)

			Convey("Then detection rejects it", func() {
				So(errors.Is(err, impact.ErrInvalidInput), ShouldBeTrue)
			})
		})
	})
}
