// Package normalize trims joint sequences to a window around impact and
// resamples them to the canonical frame rate.
package normalize

import (
	"fmt"
	"math"

	"github.com/catchbarrels/swinglab/internal/domain/pose"
)

// Normalization defaults.
const (
	// CanonicalFps is the frame rate every analyzed sequence is resampled to.
	CanonicalFps = 60.0
	// DefaultWindowSeconds is kept on each side of impact.
	DefaultWindowSeconds = 2.0

	integralEpsilon = 1e-6
)

// TrimRange is an inclusive frame window.
type TrimRange struct {
	StartFrame int `json:"start_frame"`
	EndFrame   int `json:"end_frame"`
}

// Len is the number of frames in the window.
func (r TrimRange) Len() int {
	return r.EndFrame - r.StartFrame + 1
}

// CalculateTrimRange returns the window of DefaultWindowSeconds on each side
// of impactFrame, in source-fps frames, clamped to the sequence. An impact
// frame outside the sequence is clamped first so the window always
// contains it.
func CalculateTrimRange(impactFrame int, fps float64, totalFrames int) (TrimRange, error) {
	return CalculateTrimRangeWindow(impactFrame, fps, totalFrames, DefaultWindowSeconds)
}

// CalculateTrimRangeWindow is CalculateTrimRange with a custom half-window.
func CalculateTrimRangeWindow(impactFrame int, fps float64, totalFrames int, windowSeconds float64) (TrimRange, error) {
	if totalFrames <= 0 {
		return TrimRange{}, ErrEmptyFrames
	}
	if !validFps(fps) {
		return TrimRange{}, fmt.Errorf("%w: %v", ErrInvalidFps, fps)
	}
	if windowSeconds < 0 || math.IsNaN(windowSeconds) {
		return TrimRange{}, fmt.Errorf("%w: window %v seconds", ErrInvalidRange, windowSeconds)
	}

	last := totalFrames - 1
	impactFrame = clamp(impactFrame, 0, last)
	half := int(math.Floor(windowSeconds * fps))

	return TrimRange{
		StartFrame: clamp(impactFrame-half, 0, last),
		EndFrame:   clamp(impactFrame+half, 0, last),
	}, nil
}

// Trim keeps frames start..end inclusive. The result is re-indexed from 0
// and its timestamps are rebased to the first kept frame.
func Trim(frames []pose.JointFrame, start, end int) ([]pose.JointFrame, error) {
	if len(frames) == 0 {
		return nil, ErrEmptyFrames
	}
	if start < 0 || end >= len(frames) || start > end {
		return nil, fmt.Errorf("%w: [%d,%d] for %d frames", ErrInvalidRange, start, end, len(frames))
	}

	out := make([]pose.JointFrame, 0, end-start+1)
	t0 := frames[start].Timestamp
	for i := start; i <= end; i++ {
		f := frames[i]
		f.Index = i - start
		f.Timestamp -= t0
		out = append(out, f)
	}
	return out, nil
}

// Resample converts frames captured at sourceFps to targetFps.
//
// The output has floor(n / (sourceFps/targetFps)) frames. Each output frame
// reads a fractional source position; positions between two source frames
// are linearly interpolated (coordinates and timestamp) with the higher of
// the two visibilities, integral positions copy the source frame.
func Resample(frames []pose.JointFrame, sourceFps, targetFps float64) ([]pose.JointFrame, error) {
	if len(frames) == 0 {
		return nil, ErrEmptyFrames
	}
	if !validFps(sourceFps) {
		return nil, fmt.Errorf("%w: source %v", ErrInvalidFps, sourceFps)
	}
	if !validFps(targetFps) {
		return nil, fmt.Errorf("%w: target %v", ErrInvalidFps, targetFps)
	}

	if sourceFps == targetFps {
		out := make([]pose.JointFrame, len(frames))
		copy(out, frames)
		return out, nil
	}

	ratio := sourceFps / targetFps
	n := int(math.Floor(float64(len(frames)) / ratio))
	if n < 1 {
		n = 1
	}

	out := make([]pose.JointFrame, n)
	for j := range out {
		pos := float64(j) * ratio
		lo := int(math.Floor(pos))
		if lo >= len(frames) {
			lo = len(frames) - 1
		}
		frac := pos - float64(lo)

		if frac < integralEpsilon || lo+1 >= len(frames) {
			out[j] = frames[lo]
		} else {
			out[j] = interpolate(&frames[lo], &frames[lo+1], frac)
		}
		out[j].Index = j
	}
	return out, nil
}

// SourceToTarget maps a source frame index into the resampled sequence.
func SourceToTarget(frame int, sourceFps, targetFps float64, targetLen int) int {
	if targetLen <= 0 {
		return 0
	}
	idx := int(math.Round(float64(frame) * targetFps / sourceFps))
	return clamp(idx, 0, targetLen-1)
}

// Result is a trimmed and resampled sequence.
type Result struct {
	Frames      []pose.JointFrame `json:"-"`
	Range       TrimRange         `json:"range"`
	SourceFps   float64           `json:"source_fps"`
	TargetFps   float64           `json:"target_fps"`
	ImpactFrame int               `json:"impact_frame"` // index in Frames
}

// Normalize trims frames around impactFrame and resamples to targetFps.
func Normalize(frames []pose.JointFrame, impactFrame int, sourceFps, targetFps, windowSeconds float64) (Result, error) {
	rng, err := CalculateTrimRangeWindow(impactFrame, sourceFps, len(frames), windowSeconds)
	if err != nil {
		return Result{}, err
	}
	trimmed, err := Trim(frames, rng.StartFrame, rng.EndFrame)
	if err != nil {
		return Result{}, err
	}
	resampled, err := Resample(trimmed, sourceFps, targetFps)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Frames:      resampled,
		Range:       rng,
		SourceFps:   sourceFps,
		TargetFps:   targetFps,
		ImpactFrame: SourceToTarget(clamp(impactFrame, 0, len(frames)-1)-rng.StartFrame, sourceFps, targetFps, len(resampled)),
	}, nil
}

func interpolate(a, b *pose.JointFrame, t float64) pose.JointFrame {
	var f pose.JointFrame
	f.Timestamp = a.Timestamp + (b.Timestamp-a.Timestamp)*t
	for j := range f.Joints {
		f.Joints[j] = pose.Lerp(a.Joints[j], b.Joints[j], t)
	}
	return f
}

func validFps(fps float64) bool {
	return fps > 0 && !math.IsNaN(fps) && !math.IsInf(fps, 0)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
