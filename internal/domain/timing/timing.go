// Package timing converts pitching-machine settings and video frame markers
// into reaction-time metrics for a timed pitch.
package timing

import (
	"fmt"

	"github.com/catchbarrels/swinglab/internal/domain/model"
)

// MphToFtPerSec converts miles per hour to feet per second (5280/3600).
const MphToFtPerSec = 1.467

// Accepted input ranges.
const (
	MinDistanceFt = 20.0
	MaxDistanceFt = 60.0
	MinSpeedMph   = 20.0
	MaxSpeedMph   = 100.0
	MinFps        = 30.0
	MaxFps        = 300.0
)

// Input is one timed pitch. Frame markers are optional; metrics depending on
// a missing marker are left nil.
type Input struct {
	DistanceFt   float64 `json:"distance_ft"`
	SpeedMph     float64 `json:"speed_mph"`
	Fps          float64 `json:"fps"`
	FrameRelease *int    `json:"frame_release,omitempty"`
	FrameLaunch  *int    `json:"frame_launch,omitempty"`
	FrameContact *int    `json:"frame_contact,omitempty"`
}

// Metrics are the derived timings in milliseconds, rounded to 2 decimals.
// BufferMs may be negative: the hitter committed after the ball should
// already have arrived.
type Metrics struct {
	TimeToPlateMs  *float64 `json:"time_to_plate_ms"`
	DecisionTimeMs *float64 `json:"decision_time_ms"`
	BufferMs       *float64 `json:"buffer_ms"`
	SwingTimeMs    *float64 `json:"swing_time_ms"`
}

// Calculate derives timing metrics from in. It never fails; run Validate
// first to report out-of-range settings.
func Calculate(in Input) Metrics {
	var m Metrics

	var timeToPlate float64
	if in.SpeedMph > 0 && in.DistanceFt > 0 {
		timeToPlate = in.DistanceFt / (in.SpeedMph * MphToFtPerSec) * 1000
		m.TimeToPlateMs = model.Round2(timeToPlate)
	}

	if in.Fps > 0 && in.FrameRelease != nil && in.FrameLaunch != nil {
		decision := framesToMs(*in.FrameLaunch-*in.FrameRelease, in.Fps)
		m.DecisionTimeMs = model.Round2(decision)
		if m.TimeToPlateMs != nil {
			m.BufferMs = model.Round2(timeToPlate - decision)
		}
	}

	if in.Fps > 0 && in.FrameLaunch != nil && in.FrameContact != nil {
		m.SwingTimeMs = model.Round2(framesToMs(*in.FrameContact-*in.FrameLaunch, in.Fps))
	}
	return m
}

// Validate returns a human-readable message for every problem in in. An
// empty result means the input is fully valid.
func Validate(in Input) []string {
	var problems []string
	if in.DistanceFt < MinDistanceFt || in.DistanceFt > MaxDistanceFt {
		problems = append(problems, fmt.Sprintf("Machine distance must be between %g and %g feet (got %g)", MinDistanceFt, MaxDistanceFt, in.DistanceFt))
	}
	if in.SpeedMph < MinSpeedMph || in.SpeedMph > MaxSpeedMph {
		problems = append(problems, fmt.Sprintf("Machine speed must be between %g and %g mph (got %g)", MinSpeedMph, MaxSpeedMph, in.SpeedMph))
	}
	if in.Fps < MinFps || in.Fps > MaxFps {
		problems = append(problems, fmt.Sprintf("Video FPS must be between %g and %g (got %g)", MinFps, MaxFps, in.Fps))
	}

	for _, f := range []struct {
		name string
		v    *int
	}{{"Release", in.FrameRelease}, {"Launch", in.FrameLaunch}, {"Contact", in.FrameContact}} {
		if f.v != nil && *f.v < 0 {
			problems = append(problems, fmt.Sprintf("%s frame must not be negative (got %d)", f.name, *f.v))
		}
	}

	if in.FrameRelease != nil && in.FrameLaunch != nil && *in.FrameRelease >= *in.FrameLaunch {
		problems = append(problems, "Release frame must be before launch frame")
	}
	if in.FrameLaunch != nil && in.FrameContact != nil && *in.FrameLaunch >= *in.FrameContact {
		problems = append(problems, "Launch frame must be before contact frame")
	}
	if in.FrameLaunch == nil && in.FrameRelease != nil && in.FrameContact != nil && *in.FrameRelease >= *in.FrameContact {
		problems = append(problems, "Release frame must be before contact frame")
	}
	return problems
}

func framesToMs(frames int, fps float64) float64 {
	return float64(frames) / fps * 1000
}
