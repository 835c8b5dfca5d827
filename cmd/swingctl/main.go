// Command swingctl runs the swing scoring core from the command line and
// drives synthetic load against a running server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/catchbarrels/swinglab/internal/adapters/ingest"
	service "github.com/catchbarrels/swinglab/internal/app"
	"github.com/catchbarrels/swinglab/internal/domain/analysis"
	"github.com/catchbarrels/swinglab/internal/domain/barrel"
	"github.com/catchbarrels/swinglab/internal/domain/flow"
	"github.com/catchbarrels/swinglab/internal/domain/impact"
	"github.com/catchbarrels/swinglab/internal/domain/model"
	"github.com/catchbarrels/swinglab/internal/domain/normalize"
	"github.com/catchbarrels/swinglab/internal/domain/ontheball"
	"github.com/catchbarrels/swinglab/internal/domain/pose"
	"github.com/catchbarrels/swinglab/internal/domain/scoring"
	"github.com/catchbarrels/swinglab/internal/domain/timing"
	"github.com/catchbarrels/swinglab/internal/synth"
	"github.com/catchbarrels/swinglab/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "swingctl",
		Short:         "Swing analysis, timing and batted-ball tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.InitWithWriter(cmd.ErrOrStderr(), false); err != nil {
				return err
			}
			return logger.SetLevelString(logLevel)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug|info|warn|error")

	root.AddCommand(
		newAnalyzeCmd(),
		newTimingCmd(),
		newBarrelCmd(),
		newMetricsCmd(),
		newLeaksCmd(),
		newSampleCmd(),
		newSimulateCmd(),
	)
	return root
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// intFlag returns a pointer to v when the flag was set on the command line.
func intFlag(cmd *cobra.Command, name string, v int) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

func floatFlag(cmd *cobra.Command, name string, v float64) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

type analyzeOutput struct {
	Impact      impact.Result       `json:"impact"`
	TrimRange   normalize.TrimRange `json:"trim_range"`
	SourceFps   float64             `json:"source_fps"`
	TargetFps   float64             `json:"target_fps"`
	Frames      int                 `json:"frames"`
	ImpactFrame int                 `json:"normalized_impact_frame"`
	Flow        *flow.Output        `json:"flow,omitempty"`
}

func newAnalyzeCmd() *cobra.Command {
	var (
		framesPath             string
		fps, targetFps, window float64
		manual                 int
		ground, power, barrelS float64
		overall                float64
		band                   int
	)
	cmd := &cobra.Command{
		Use:   "analyze --frames <file.json> --fps <n>",
		Short: "Detect impact and normalize a pose sequence; add sub-scores for flow analysis",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(framesPath)
			if err != nil {
				return fmt.Errorf("read frames: %w", err)
			}
			frames, err := pose.ParseJSON(data, fps)
			if err != nil {
				return err
			}

			job := analysis.Job{Fps: fps, Frames: frames, ManualImpact: intFlag(cmd, "impact", manual), GoatyBand: intFlag(cmd, "band", band)}
			if cmd.Flags().Changed("ground") || cmd.Flags().Changed("power") || cmd.Flags().Changed("barrel") {
				job.Scores = &flow.SubScores{Ground: ground, Power: power, Barrel: barrelS, Overall: floatFlag(cmd, "overall", overall)}
			}

			p := &service.Pipeline{
				Scorer:        scoring.NewProvidedScorer(),
				TargetFps:     targetFps,
				WindowSeconds: window,
				Weights:       flow.DefaultWeights,
			}
			res, err := p.Run(cmd.Context(), job, nil)
			// Without sub-scores the run stops after normalization.
			if err != nil && (job.Scores != nil || !errors.Is(err, scoring.ErrScoresUnavailable)) {
				return err
			}

			out := analyzeOutput{
				Impact:      res.Impact,
				TrimRange:   res.Normalized.Range,
				SourceFps:   res.Normalized.SourceFps,
				TargetFps:   res.Normalized.TargetFps,
				Frames:      len(res.Normalized.Frames),
				ImpactFrame: res.Normalized.ImpactFrame,
			}
			if job.Scores != nil {
				out.Flow = &res.Output
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&framesPath, "frames", "", "JSON file: array of frames, each an array of 33 keypoints")
	cmd.Flags().Float64Var(&fps, "fps", 0, "source frame rate")
	cmd.Flags().Float64Var(&targetFps, "target-fps", normalize.CanonicalFps, "frame rate to resample to")
	cmd.Flags().Float64Var(&window, "window", normalize.DefaultWindowSeconds, "seconds kept on each side of impact")
	cmd.Flags().IntVar(&manual, "impact", 0, "manual impact frame, skips detection")
	cmd.Flags().Float64Var(&ground, "ground", 0, "ground flow sub-score")
	cmd.Flags().Float64Var(&power, "power", 0, "power flow sub-score")
	cmd.Flags().Float64Var(&barrelS, "barrel", 0, "barrel flow sub-score")
	cmd.Flags().Float64Var(&overall, "overall", 0, "overall score; derived from sub-scores when omitted")
	cmd.Flags().IntVar(&band, "band", 0, "GOATY band, -3..3")
	_ = cmd.MarkFlagRequired("frames")
	_ = cmd.MarkFlagRequired("fps")
	return cmd
}

func newTimingCmd() *cobra.Command {
	var in timing.Input
	var release, launch, contact int
	cmd := &cobra.Command{
		Use:   "timing --distance <ft> --speed <mph> --fps <n>",
		Short: "Compute time to plate, decision time, buffer and swing time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in.FrameRelease = intFlag(cmd, "release", release)
			in.FrameLaunch = intFlag(cmd, "launch", launch)
			in.FrameContact = intFlag(cmd, "contact", contact)
			if problems := timing.Validate(in); len(problems) > 0 {
				for _, p := range problems {
					_, _ = fmt.Fprintln(cmd.ErrOrStderr(), p)
				}
				return fmt.Errorf("%d invalid timing setting(s)", len(problems))
			}
			return printJSON(cmd.OutOrStdout(), timing.Calculate(in))
		},
	}
	cmd.Flags().Float64Var(&in.DistanceFt, "distance", 0, "machine distance in feet")
	cmd.Flags().Float64Var(&in.SpeedMph, "speed", 0, "machine speed in mph")
	cmd.Flags().Float64Var(&in.Fps, "fps", 0, "video frame rate")
	cmd.Flags().IntVar(&release, "release", 0, "release frame")
	cmd.Flags().IntVar(&launch, "launch", 0, "launch frame")
	cmd.Flags().IntVar(&contact, "contact", 0, "contact frame")
	return cmd
}

func newBarrelCmd() *cobra.Command {
	var ev, la float64
	var level string
	var foul bool
	cmd := &cobra.Command{
		Use:   "barrel --ev <mph> --la <deg>",
		Short: "Classify one batted ball against the level's barrel zone",
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, ok := barrel.ParseLevel(level)
			if !ok {
				return fmt.Errorf("unknown level %q", level)
			}
			c := barrel.Compute(floatFlag(cmd, "ev", ev), floatFlag(cmd, "la", la), !foul, l)
			return printJSON(cmd.OutOrStdout(), c)
		},
	}
	cmd.Flags().Float64Var(&ev, "ev", 0, "exit velocity in mph")
	cmd.Flags().Float64Var(&la, "la", 0, "launch angle in degrees")
	cmd.Flags().StringVar(&level, "level", string(model.LevelHS), "mlb|college|hs|youth")
	cmd.Flags().BoolVar(&foul, "foul", false, "the ball went foul")
	return cmd
}

type metricsOutput struct {
	Metrics ontheball.Metrics `json:"metrics"`
	Skipped []ingest.RowError `json:"skipped,omitempty"`
}

func newMetricsCmd() *cobra.Command {
	var csvPath, level string
	cmd := &cobra.Command{
		Use:   "metrics --csv <export.csv>",
		Short: "Aggregate on-the-ball metrics from a launch-monitor export",
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, ok := barrel.ParseLevel(level)
			if !ok {
				return fmt.Errorf("unknown level %q", level)
			}
			f, err := os.Open(csvPath)
			if err != nil {
				return fmt.Errorf("open csv: %w", err)
			}
			defer func() { _ = f.Close() }()

			batch, err := ingest.NewReader().Read(f)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), metricsOutput{
				Metrics: ontheball.Compute(batch.Events, l),
				Skipped: batch.Skipped,
			})
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "CSV export path")
	cmd.Flags().StringVar(&level, "level", string(model.LevelHS), "mlb|college|hs|youth")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}

func newLeaksCmd() *cobra.Command {
	var ground, power, barrelS, overall, confidence float64
	var band int
	cmd := &cobra.Command{
		Use:   "leaks --ground <n> --power <n> --barrel <n>",
		Short: "Flow and leak analysis for three sub-scores",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := flow.FormatAnalysisOutput(flow.Input{
				Scores:           flow.SubScores{Ground: ground, Power: power, Barrel: barrelS, Overall: floatFlag(cmd, "overall", overall)},
				GoatyBand:        intFlag(cmd, "band", band),
				ImpactConfidence: floatFlag(cmd, "confidence", confidence),
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().Float64Var(&ground, "ground", 0, "ground flow sub-score")
	cmd.Flags().Float64Var(&power, "power", 0, "power flow sub-score")
	cmd.Flags().Float64Var(&barrelS, "barrel", 0, "barrel flow sub-score")
	cmd.Flags().Float64Var(&overall, "overall", 0, "overall score; derived from sub-scores when omitted")
	cmd.Flags().Float64Var(&confidence, "confidence", 0, "impact detection confidence")
	cmd.Flags().IntVar(&band, "band", 0, "GOATY band, -3..3")
	for _, name := range []string{"ground", "power", "barrel"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newSampleCmd() *cobra.Command {
	var cfg synth.SwingConfig
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a synthetic pose sequence as JSON, for trying analyze",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(pose.ToRaw(synth.Swing(cfg)))
		},
	}
	cmd.Flags().IntVar(&cfg.Frames, "frames", 120, "frame count")
	cmd.Flags().Float64Var(&cfg.Fps, "fps", 240, "frame rate")
	cmd.Flags().IntVar(&cfg.ImpactAt, "impact", 60, "frame the wrists stop at")
	cmd.Flags().Float64Var(&cfg.Jitter, "jitter", 0, "random offset per coordinate in px")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", 1, "random seed")
	return cmd
}

func newSimulateCmd() *cobra.Command {
	var cfg synth.RunConfig
	var level string
	var deadline time.Duration
	cmd := &cobra.Command{
		Use:   "simulate --url <base>",
		Short: "Submit synthetic swings and a batted-ball batch to a running server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, ok := barrel.ParseLevel(level)
			if !ok {
				return fmt.Errorf("unknown level %q", level)
			}
			cfg.Level = l
			ctx, cancel := context.WithTimeout(cmd.Context(), deadline)
			defer cancel()
			stats, err := synth.Run(ctx, cfg)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}
	cmd.Flags().StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "service base URL")
	cmd.Flags().IntVar(&cfg.Swings, "swings", 20, "swings to submit")
	cmd.Flags().IntVar(&cfg.Events, "events", 200, "batted-ball events to import, 0 to skip")
	cmd.Flags().IntVar(&cfg.Workers, "workers", 0, "concurrent submitters (default CPU count)")
	cmd.Flags().StringVar(&cfg.AthleteID, "athlete", "", "athlete id (default random)")
	cmd.Flags().StringVar(&level, "level", string(model.LevelHS), "mlb|college|hs|youth")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", 30*time.Second, "per-request timeout")
	cmd.Flags().DurationVar(&cfg.Wait, "wait", time.Minute, "how long to wait for analyses")
	cmd.Flags().DurationVar(&deadline, "deadline", 10*time.Minute, "overall run deadline")
	return cmd
}
