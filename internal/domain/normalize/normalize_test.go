package normalize_test

import (
	"errors"
	"math"
	"testing"

	"github.com/catchbarrels/swinglab/internal/domain/normalize"
	"github.com/catchbarrels/swinglab/internal/domain/pose"
	"github.com/catchbarrels/swinglab/internal/synth"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCalculateTrimRange(t *testing.T) {
	Convey("Given a 240 fps sequence of 2000 frames", t, func() {
		Convey("When impact is in the middle", func() {
			r, err := normalize.CalculateTrimRange(1000, 240, 2000)

			Convey("Then two seconds are kept on each side", func() {
				So(err, ShouldBeNil)
				So(r.StartFrame, ShouldEqual, 520)
				So(r.EndFrame, ShouldEqual, 1480)
				So(r.Len(), ShouldEqual, 961)
			})
		})

		Convey("When impact is near the start", func() {
			r, err := normalize.CalculateTrimRange(100, 240, 2000)
			So(err, ShouldBeNil)
			So(r.StartFrame, ShouldEqual, 0)
			So(r.EndFrame, ShouldEqual, 580)
		})

		Convey("When impact is near the end", func() {
			r, err := normalize.CalculateTrimRange(1900, 240, 2000)
			So(err, ShouldBeNil)
			So(r.StartFrame, ShouldEqual, 1420)
			So(r.EndFrame, ShouldEqual, 1999)
		})
	})

	Convey("Given any impact frame and fps", t, func() {
		Convey("Then the window always contains impact and stays in bounds", func() {
			for _, total := range []int{1, 2, 7, 60, 481, 3000} {
				for _, fps := range []float64{30, 59.94, 60, 120, 240, 300} {
					for impactFrame := -3; impactFrame < total+3; impactFrame += 1 + total/17 {
						r, err := normalize.CalculateTrimRange(impactFrame, fps, total)
						So(err, ShouldBeNil)

						clamped := impactFrame
						if clamped < 0 {
							clamped = 0
						}
						if clamped > total-1 {
							clamped = total - 1
						}
						So(r.StartFrame, ShouldBeGreaterThanOrEqualTo, 0)
						So(r.StartFrame, ShouldBeLessThanOrEqualTo, clamped)
						So(clamped, ShouldBeLessThanOrEqualTo, r.EndFrame)
						So(r.EndFrame, ShouldBeLessThan, total)
					}
				}
			}
		})
	})

	Convey("Given invalid arguments", t, func() {
		_, err := normalize.CalculateTrimRange(10, 0, 100)
		So(errors.Is(err, normalize.ErrInvalidFps), ShouldBeTrue)

		_, err = normalize.CalculateTrimRange(10, 60, 0)
		So(errors.Is(err, normalize.ErrEmptyFrames), ShouldBeTrue)

		_, err = normalize.CalculateTrimRangeWindow(10, 60, 100, -1)
		So(errors.Is(err, normalize.ErrInvalidRange), ShouldBeTrue)
	})
}

func TestTrim(t *testing.T) {
	Convey("Given a linear sequence", t, func() {
		frames := synth.Linear(20, 60, 1)

		Convey("When trimming an inner window", func() {
			out, err := normalize.Trim(frames, 5, 9)

			Convey("Then the window is inclusive and re-indexed from zero", func() {
				So(err, ShouldBeNil)
				So(len(out), ShouldEqual, 5)
				for i, f := range out {
					So(f.Index, ShouldEqual, i)
					So(f.Timestamp, ShouldAlmostEqual, float64(i)/60, 1e-9)
					So(f.Joints[pose.Nose].X, ShouldEqual, float64(i+5))
				}
			})

			Convey("And the input is left untouched", func() {
				So(frames[5].Index, ShouldEqual, 5)
				So(frames[5].Timestamp, ShouldAlmostEqual, 5.0/60, 1e-9)
			})
		})

		Convey("When the range is invalid", func() {
			_, err := normalize.Trim(frames, 9, 5)
			So(errors.Is(err, normalize.ErrInvalidRange), ShouldBeTrue)

			_, err = normalize.Trim(frames, 0, 20)
			So(errors.Is(err, normalize.ErrInvalidRange), ShouldBeTrue)

			_, err = normalize.Trim(nil, 0, 0)
			So(errors.Is(err, normalize.ErrEmptyFrames), ShouldBeTrue)
		})
	})
}

func TestResample(t *testing.T) {
	Convey("Given a monotonic 60 fps sequence", t, func() {
		frames := synth.Linear(101, 60, 2)

		Convey("When downsampling to 30 fps", func() {
			out, err := normalize.Resample(frames, 60, 30)

			Convey("Then every other frame is copied", func() {
				So(err, ShouldBeNil)
				So(len(out), ShouldEqual, 50)
				So(out[10].Joints[pose.LeftWrist].X, ShouldEqual, frames[20].Joints[pose.LeftWrist].X)
				So(out[10].Index, ShouldEqual, 10)
			})
		})

		Convey("When upsampling to 120 fps", func() {
			out, err := normalize.Resample(frames, 60, 120)

			Convey("Then in-between frames are interpolated", func() {
				So(err, ShouldBeNil)
				So(len(out), ShouldEqual, 202)
				So(out[21].Joints[pose.LeftWrist].X, ShouldAlmostEqual, 21.0, 1e-9)
				So(out[21].Joints[pose.LeftWrist].Z, ShouldAlmostEqual, -21.0, 1e-9)
				So(out[21].Timestamp, ShouldAlmostEqual, 10.5/60, 1e-9)
			})
		})

		Convey("When round-tripping 60 -> 30 -> 60", func() {
			down, err := normalize.Resample(frames, 60, 30)
			So(err, ShouldBeNil)
			back, err := normalize.Resample(down, 30, 60)
			So(err, ShouldBeNil)

			Convey("Then the frame count is preserved within one frame", func() {
				So(math.Abs(float64(len(back)-len(frames))), ShouldBeLessThanOrEqualTo, 1)
			})

			Convey("And coordinates drift by at most one interpolation step", func() {
				step := 2.0
				for i := range back {
					So(math.Abs(back[i].Joints[pose.RightWrist].X-frames[i].Joints[pose.RightWrist].X), ShouldBeLessThanOrEqualTo, step+1e-9)
				}
			})
		})

		Convey("When source and target rates match", func() {
			out, err := normalize.Resample(frames, 60, 60)
			So(err, ShouldBeNil)
			So(len(out), ShouldEqual, len(frames))
			out[0].Index = 99
			So(frames[0].Index, ShouldEqual, 0)
		})
	})

	Convey("Given frames with differing visibility", t, func() {
		frames := synth.Linear(4, 30, 1)
		frames[1].Joints[pose.LeftWrist].Visibility = 0.2
		frames[2].Joints[pose.LeftWrist].Visibility = 0.8

		Convey("Then interpolated frames keep the higher visibility", func() {
			out, err := normalize.Resample(frames, 30, 60)
			So(err, ShouldBeNil)
			So(out[3].Joints[pose.LeftWrist].Visibility, ShouldEqual, 0.8)
			So(out[2].Joints[pose.LeftWrist].Visibility, ShouldEqual, 0.2)
		})
	})

	Convey("Given invalid frame rates", t, func() {
		frames := synth.Linear(4, 30, 1)
		_, err := normalize.Resample(frames, 0, 60)
		So(errors.Is(err, normalize.ErrInvalidFps), ShouldBeTrue)
		_, err = normalize.Resample(frames, 60, -1)
		So(errors.Is(err, normalize.ErrInvalidFps), ShouldBeTrue)
		_, err = normalize.Resample(nil, 60, 30)
		So(errors.Is(err, normalize.ErrEmptyFrames), ShouldBeTrue)
	})
}

func TestNormalize(t *testing.T) {
	Convey("Given a 240 fps swing with impact at frame 700", t, func() {
		frames := synth.Swing(synth.SwingConfig{Frames: 1500, Fps: 240, ImpactAt: 700})

		Convey("When normalizing to 60 fps", func() {
			res, err := normalize.Normalize(frames, 700, 240, normalize.CanonicalFps, normalize.DefaultWindowSeconds)

			Convey("Then the window is four seconds at the target rate", func() {
				So(err, ShouldBeNil)
				So(res.Range.StartFrame, ShouldEqual, 220)
				So(res.Range.EndFrame, ShouldEqual, 1180)
				So(len(res.Frames), ShouldEqual, 240)
				So(res.ImpactFrame, ShouldEqual, 120)
			})
		})
	})
}
