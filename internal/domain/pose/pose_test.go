package pose_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/catchbarrels/swinglab/internal/domain/pose"
	"github.com/catchbarrels/swinglab/internal/synth"
	. "github.com/smartystreets/goconvey/convey"
)

func rawFrame(v float64) pose.RawFrame {
	rf := make(pose.RawFrame, pose.JointCount)
	for i := range rf {
		rf[i] = pose.Keypoint{X: v, Y: v, Visibility: 0.9}
	}
	return rf
}

func TestJoint(t *testing.T) {
	Convey("Joints use the canonical ordering", t, func() {
		So(int(pose.LeftWrist), ShouldEqual, 15)
		So(int(pose.RightWrist), ShouldEqual, 16)
		So(pose.LeftWrist.String(), ShouldEqual, "left_wrist")
		So(pose.Joint(99).String(), ShouldEqual, "unknown")
	})
}

func TestKeypointMath(t *testing.T) {
	Convey("Distance ignores depth", t, func() {
		d := pose.Distance(pose.Keypoint{X: 0, Y: 0, Z: 0}, pose.Keypoint{X: 3, Y: 4, Z: 100})
		So(d, ShouldEqual, 5.0)
	})

	Convey("Lerp interpolates coordinates and keeps the larger visibility", t, func() {
		k := pose.Lerp(pose.Keypoint{X: 0, Y: 10, Z: -2, Visibility: 0.4}, pose.Keypoint{X: 10, Y: 20, Z: 2, Visibility: 0.8}, 0.25)
		So(k.X, ShouldEqual, 2.5)
		So(k.Y, ShouldEqual, 12.5)
		So(k.Z, ShouldEqual, -1.0)
		So(k.Visibility, ShouldEqual, 0.8)
	})
}

func TestFromRaw(t *testing.T) {
	Convey("Given well-formed frames", t, func() {
		frames, err := pose.FromRaw([]pose.RawFrame{rawFrame(1), rawFrame(2), rawFrame(3)}, 60)

		Convey("Then indices and timestamps come from the frame rate", func() {
			So(err, ShouldBeNil)
			So(len(frames), ShouldEqual, 3)
			So(frames[2].Index, ShouldEqual, 2)
			So(frames[2].Timestamp, ShouldAlmostEqual, 2.0/60, 1e-12)
			So(frames[1].Joint(pose.RightWrist).X, ShouldEqual, 2.0)
		})
	})

	Convey("Given invalid input", t, func() {
		_, err := pose.FromRaw(nil, 60)
		So(errors.Is(err, pose.ErrInvalidFrames), ShouldBeTrue)

		_, err = pose.FromRaw([]pose.RawFrame{rawFrame(1)}, 0)
		So(errors.Is(err, pose.ErrInvalidFrames), ShouldBeTrue)

		short := rawFrame(1)[:10]
		_, err = pose.FromRaw([]pose.RawFrame{rawFrame(1), short}, 60)
		var fe *pose.FrameError
		So(errors.As(err, &fe), ShouldBeTrue)
		So(fe.Frame, ShouldEqual, 1)
		So(errors.Is(err, pose.ErrInvalidFrames), ShouldBeTrue)

		nan := rawFrame(1)
		nan[5].Y = math.NaN()
		_, err = pose.FromRaw([]pose.RawFrame{nan}, 60)
		So(errors.Is(err, pose.ErrInvalidFrames), ShouldBeTrue)

		vis := rawFrame(1)
		vis[0].Visibility = 1.5
		_, err = pose.FromRaw([]pose.RawFrame{vis}, 60)
		So(errors.Is(err, pose.ErrInvalidFrames), ShouldBeTrue)
	})
}

func TestParseJSON(t *testing.T) {
	Convey("Given synthetic frames encoded as JSON", t, func() {
		src := synth.Linear(4, 120, 1.5)
		data, err := json.Marshal(pose.ToRaw(src))
		So(err, ShouldBeNil)

		frames, err := pose.ParseJSON(data, 120)

		Convey("Then the keypoints survive the wire shape", func() {
			So(err, ShouldBeNil)
			So(len(frames), ShouldEqual, 4)
			So(frames[3].Joints, ShouldResemble, src[3].Joints)
		})
	})

	Convey("Given malformed JSON", t, func() {
		_, err := pose.ParseJSON([]byte(`{"frames":`), 60)
		So(errors.Is(err, pose.ErrInvalidFrames), ShouldBeTrue)
	})
}
