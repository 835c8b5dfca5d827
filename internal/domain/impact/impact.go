// Package impact locates the bat-ball contact frame in a joint sequence.
//
// Contact shows up as the sharpest drop in bilateral wrist speed: the hands
// arrive at full speed and the ball takes energy out of the barrel.
package impact

import (
	"math"

	"github.com/catchbarrels/swinglab/internal/domain/pose"
)

// Detection tuning. The confidence scale is empirical, not a probability.
const (
	edgeFrames         = 5    // frames skipped at each end, pose is unreliable there
	minWristSpeed      = 10.0 // px/frame floor that rejects low-motion noise
	confidenceScale    = 50.0 // deceleration mapped to confidence 1.0
	fallbackConfidence = 0.1
)

// Method records how the impact frame was chosen.
type Method string

// Detection methods.
const (
	MethodAuto   Method = "auto"
	MethodManual Method = "manual"
)

// Result is the outcome of impact detection for one sequence.
type Result struct {
	ImpactFrame int     `json:"impact_frame"`
	Confidence  float64 `json:"confidence"`
	Method      Method  `json:"method"`
	// Fallback is set when no frame cleared the speed floor and the
	// midpoint was used instead.
	Fallback bool `json:"fallback,omitempty"`
	// PeakDeceleration is the winning deceleration in px/frame.
	PeakDeceleration float64 `json:"peak_deceleration"`
}

// Detect finds the frame with the largest wrist deceleration. When no
// interior frame moves faster than the speed floor the sequence midpoint is
// returned with low confidence; that is a normal outcome for a take or a
// check swing, not an error.
func Detect(frames []pose.JointFrame, fps float64) (Result, error) {
	if err := validate(frames, fps); err != nil {
		return Result{}, err
	}

	n := len(frames)
	best := -1
	maxDecel := 0.0
	for i := edgeFrames; i < n-edgeFrames; i++ {
		speedIn := wristSpeed(&frames[i-1], &frames[i])
		if speedIn <= minWristSpeed {
			continue
		}
		decel := speedIn - wristSpeed(&frames[i], &frames[i+1])
		if best < 0 || decel > maxDecel {
			best = i
			maxDecel = decel
		}
	}

	if best < 0 || maxDecel <= 0 {
		return Result{
			ImpactFrame: n / 2,
			Confidence:  fallbackConfidence,
			Method:      MethodAuto,
			Fallback:    true,
		}, nil
	}

	return Result{
		ImpactFrame:      best,
		Confidence:       math.Min(maxDecel/confidenceScale, 1.0),
		Method:           MethodAuto,
		PeakDeceleration: maxDecel,
	}, nil
}

// Manual accepts a caller-chosen impact frame, bypassing detection.
func Manual(frames []pose.JointFrame, frame int) (Result, error) {
	if len(frames) == 0 {
		return Result{}, invalid("frames", "sequence is empty")
	}
	if frame < 0 || frame >= len(frames) {
		return Result{}, invalid("impact_frame", "%d outside [0,%d]", frame, len(frames)-1)
	}
	return Result{ImpactFrame: frame, Confidence: 1.0, Method: MethodManual}, nil
}

// WristSpeeds returns the bilateral wrist speed between each pair of
// consecutive frames; element i is the speed from frame i to i+1.
func WristSpeeds(frames []pose.JointFrame) []float64 {
	if len(frames) < 2 {
		return nil
	}
	speeds := make([]float64, len(frames)-1)
	for i := range speeds {
		speeds[i] = wristSpeed(&frames[i], &frames[i+1])
	}
	return speeds
}

// wristSpeed is the mean displacement of the two wrists between frames.
func wristSpeed(a, b *pose.JointFrame) float64 {
	l := pose.Distance(a.Joint(pose.LeftWrist), b.Joint(pose.LeftWrist))
	r := pose.Distance(a.Joint(pose.RightWrist), b.Joint(pose.RightWrist))
	return (l + r) / 2
}

func validate(frames []pose.JointFrame, fps float64) error {
	if len(frames) == 0 {
		return invalid("frames", "sequence is empty")
	}
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return invalid("fps", "must be positive, got %v", fps)
	}
	for i := range frames {
		if !frames[i].Joint(pose.LeftWrist).Finite() || !frames[i].Joint(pose.RightWrist).Finite() {
			return invalid("frames", "frame %d is missing wrist coordinates", i)
		}
	}
	return nil
}
