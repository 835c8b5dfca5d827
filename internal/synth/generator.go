// Package synth generates synthetic swings and batted-ball sessions for
// tests, demos and load runs against the analysis service.
package synth

import (
	"math"
	"math/rand"

	"github.com/catchbarrels/swinglab/internal/domain/model"
	"github.com/catchbarrels/swinglab/internal/domain/pose"
)

// Defaults for generated swings.
const (
	defaultFrames     = 120
	defaultFps        = 240
	defaultSpikeSpeed = 100.0 // px/frame
	baseX             = 320.0
	baseY             = 240.0
	defaultVisibility = 0.95
	wristSpread       = 12.0
)

// SwingConfig controls a synthetic swing.
type SwingConfig struct {
	Frames     int
	Fps        float64
	ImpactAt   int     // frame where the wrists arrive after the fastest move
	SpikeSpeed float64 // wrist displacement into ImpactAt, px/frame
	Jitter     float64 // max random offset per coordinate, px
	Seed       int64
}

func (c SwingConfig) withDefaults() SwingConfig {
	if c.Frames <= 0 {
		c.Frames = defaultFrames
	}
	if c.Fps <= 0 {
		c.Fps = defaultFps
	}
	if c.ImpactAt <= 0 || c.ImpactAt >= c.Frames {
		c.ImpactAt = c.Frames / 2
	}
	if c.SpikeSpeed <= 0 {
		c.SpikeSpeed = defaultSpikeSpeed
	}
	return c
}

// Swing builds a sequence where both wrists are still except for a single
// move of SpikeSpeed px between ImpactAt-1 and ImpactAt. That isolated
// 0 -> speed -> 0 profile puts the largest deceleration at ImpactAt.
func Swing(cfg SwingConfig) []pose.JointFrame {
	cfg = cfg.withDefaults()
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // deterministic synthetic data

	frames := make([]pose.JointFrame, cfg.Frames)
	for i := range frames {
		offset := 0.0
		if i >= cfg.ImpactAt {
			offset = cfg.SpikeSpeed
		}
		frames[i] = stillFrame(i, cfg.Fps)
		for _, w := range []pose.Joint{pose.LeftWrist, pose.RightWrist} {
			kp := frames[i].Joints[w]
			kp.X += offset
			if cfg.Jitter > 0 {
				kp.X += (rng.Float64()*2 - 1) * cfg.Jitter
				kp.Y += (rng.Float64()*2 - 1) * cfg.Jitter
			}
			frames[i].Joints[w] = kp
		}
	}
	return frames
}

// RampSwing builds a more realistic swing: wrist speed ramps up to peak
// over the load and launch, then collapses at ImpactAt.
func RampSwing(cfg SwingConfig) []pose.JointFrame {
	cfg = cfg.withDefaults()
	frames := make([]pose.JointFrame, cfg.Frames)
	rampStart := cfg.ImpactAt - cfg.Frames/6
	if rampStart < 1 {
		rampStart = 1
	}

	x := 0.0
	for i := range frames {
		frames[i] = stillFrame(i, cfg.Fps)
		switch {
		case i > rampStart && i <= cfg.ImpactAt:
			t := float64(i-rampStart) / float64(cfg.ImpactAt-rampStart)
			x += cfg.SpikeSpeed * t * t
		case i > cfg.ImpactAt:
			x += cfg.SpikeSpeed * 0.1
		}
		for _, w := range []pose.Joint{pose.LeftWrist, pose.RightWrist} {
			frames[i].Joints[w].X += x
		}
	}
	return frames
}

// Linear builds frames whose every joint coordinate increases by step per
// frame. Useful for checking interpolation against a known line.
func Linear(n int, fps, step float64) []pose.JointFrame {
	frames := make([]pose.JointFrame, n)
	for i := range frames {
		frames[i].Index = i
		frames[i].Timestamp = float64(i) / fps
		for j := range frames[i].Joints {
			v := float64(i) * step
			frames[i].Joints[j] = pose.Keypoint{X: v, Y: v + float64(j), Z: -v, Visibility: defaultVisibility}
		}
	}
	return frames
}

func stillFrame(i int, fps float64) pose.JointFrame {
	f := pose.JointFrame{Index: i, Timestamp: float64(i) / fps}
	for j := range f.Joints {
		f.Joints[j] = pose.Keypoint{
			X:          baseX + float64(j%11)*4,
			Y:          baseY + float64(j)*6,
			Visibility: defaultVisibility,
		}
	}
	f.Joints[pose.LeftWrist].X = baseX - wristSpread
	f.Joints[pose.RightWrist].X = baseX + wristSpread
	return f
}

// SessionConfig controls a synthetic batted-ball session.
type SessionConfig struct {
	Events int
	Level  model.Level
	Seed   int64
}

// Session generates a batch of batted-ball events with a realistic mix of
// takes, misses, fouls and balls in play.
func Session(cfg SessionConfig) []model.BattedBallEvent {
	if cfg.Level == "" {
		cfg.Level = model.LevelHS
	}
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // deterministic synthetic data
	meanEV := levelMeanEV(cfg.Level)

	events := make([]model.BattedBallEvent, cfg.Events)
	for i := range events {
		e := model.BattedBallEvent{Level: cfg.Level, InZone: rng.Float64() < 0.6}
		switch r := rng.Float64(); {
		case r < 0.15:
			e.Result = model.ResultTake
		case r < 0.30:
			e.Result = model.ResultMiss
		case r < 0.50:
			e.Result = model.ResultFoul
			e.ExitVelocity = model.Round2(meanEV - 10 + rng.NormFloat64()*8)
			e.LaunchAngle = model.Round2(rng.NormFloat64()*25 + 40)
		default:
			e.Result = model.ResultFair
			ev := math.Max(20, meanEV+rng.NormFloat64()*9)
			la := rng.NormFloat64()*18 + 12
			e.ExitVelocity = model.Round2(ev)
			e.LaunchAngle = model.Round2(la)
			e.Distance = model.Round2(math.Max(0, ev*3.2*math.Cos(la*math.Pi/180)))
		}
		events[i] = e
	}
	return events
}

func levelMeanEV(l model.Level) float64 {
	switch l {
	case model.LevelMLB:
		return 89
	case model.LevelCollege:
		return 84
	case model.LevelYouth:
		return 62
	default:
		return 78
	}
}
