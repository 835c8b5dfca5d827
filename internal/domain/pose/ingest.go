package pose

import (
	"encoding/json"
	"fmt"
)

// RawFrame is the wire shape of one frame: the extractor's keypoints in
// canonical order.
type RawFrame []Keypoint

// FromRaw converts wire frames into JointFrames sampled at fps. Timestamps
// are derived from the frame index. Every frame must hold exactly
// JointCount finite keypoints with visibility in [0,1].
func FromRaw(raw []RawFrame, fps float64) ([]JointFrame, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: sequence is empty", ErrInvalidFrames)
	}
	if fps <= 0 || !isFinite(fps) {
		return nil, fmt.Errorf("%w: fps must be positive, got %v", ErrInvalidFrames, fps)
	}

	frames := make([]JointFrame, len(raw))
	for i, rf := range raw {
		if len(rf) != JointCount {
			return nil, &FrameError{Frame: i, Reason: fmt.Sprintf("expected %d keypoints, got %d", JointCount, len(rf))}
		}
		for j, kp := range rf {
			if !kp.Finite() {
				return nil, &FrameError{Frame: i, Reason: fmt.Sprintf("%s has non-finite coordinates", Joint(j))}
			}
			if kp.Visibility < 0 || kp.Visibility > 1 || !isFinite(kp.Visibility) {
				return nil, &FrameError{Frame: i, Reason: fmt.Sprintf("%s visibility %v outside [0,1]", Joint(j), kp.Visibility)}
			}
		}
		frames[i].Index = i
		frames[i].Timestamp = float64(i) / fps
		copy(frames[i].Joints[:], rf)
	}
	return frames, nil
}

// ParseJSON decodes a JSON array of frames, each an array of keypoints.
func ParseJSON(data []byte, fps float64) ([]JointFrame, error) {
	var raw []RawFrame
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrames, err)
	}
	return FromRaw(raw, fps)
}

// ToRaw converts frames back to the wire shape.
func ToRaw(frames []JointFrame) []RawFrame {
	out := make([]RawFrame, len(frames))
	for i := range frames {
		rf := make(RawFrame, JointCount)
		copy(rf, frames[i].Joints[:])
		out[i] = rf
	}
	return out
}
