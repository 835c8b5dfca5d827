// Package pose models the joint-position time series produced by the
// upstream pose extractor. A frame always carries the full canonical
// 33-point skeleton, so every frame in a sequence shares one vocabulary.
package pose

import (
	"math"
)

// Joint indexes the canonical 33-point pose skeleton.
type Joint int

// Canonical joint ordering of the upstream extractor.
const (
	Nose Joint = iota
	LeftEyeInner
	LeftEye
	LeftEyeOuter
	RightEyeInner
	RightEye
	RightEyeOuter
	LeftEar
	RightEar
	MouthLeft
	MouthRight
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftPinky
	RightPinky
	LeftIndex
	RightIndex
	LeftThumb
	RightThumb
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	LeftHeel
	RightHeel
	LeftFootIndex
	RightFootIndex
)

// JointCount is the size of the canonical skeleton.
const JointCount = 33

var jointNames = [JointCount]string{
	"nose", "left_eye_inner", "left_eye", "left_eye_outer",
	"right_eye_inner", "right_eye", "right_eye_outer",
	"left_ear", "right_ear", "mouth_left", "mouth_right",
	"left_shoulder", "right_shoulder", "left_elbow", "right_elbow",
	"left_wrist", "right_wrist", "left_pinky", "right_pinky",
	"left_index", "right_index", "left_thumb", "right_thumb",
	"left_hip", "right_hip", "left_knee", "right_knee",
	"left_ankle", "right_ankle", "left_heel", "right_heel",
	"left_foot_index", "right_foot_index",
}

// String returns the snake_case joint name.
func (j Joint) String() string {
	if j < 0 || int(j) >= JointCount {
		return "unknown"
	}
	return jointNames[j]
}

// Keypoint is one joint position. Visibility is the extractor confidence in [0,1].
type Keypoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Finite reports whether all coordinates are usable numbers.
func (k Keypoint) Finite() bool {
	return isFinite(k.X) && isFinite(k.Y) && isFinite(k.Z)
}

// Distance is the Euclidean distance between two keypoints in the image
// plane. Depth is ignored; the extractor's z is too noisy for velocity.
func Distance(a, b Keypoint) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Lerp linearly interpolates between a and b at t in [0,1]. Visibility takes
// the larger of the two so interpolation never under-reports a joint.
func Lerp(a, b Keypoint, t float64) Keypoint {
	return Keypoint{
		X:          a.X + (b.X-a.X)*t,
		Y:          a.Y + (b.Y-a.Y)*t,
		Z:          a.Z + (b.Z-a.Z)*t,
		Visibility: math.Max(a.Visibility, b.Visibility),
	}
}

// JointFrame is one sampled instant of a motion-capture sequence.
type JointFrame struct {
	Index     int                  `json:"index"`
	Timestamp float64              `json:"timestamp"` // seconds
	Joints    [JointCount]Keypoint `json:"joints"`
}

// Joint returns the keypoint for j.
func (f *JointFrame) Joint(j Joint) Keypoint {
	return f.Joints[j]
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
