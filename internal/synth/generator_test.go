package synth

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/catchbarrels/swinglab/internal/domain/impact"
	"github.com/catchbarrels/swinglab/internal/domain/model"
)

func TestSwing(t *testing.T) {
	convey.Convey("Given a spike swing", t, func() {
		frames := Swing(SwingConfig{Frames: 100, Fps: 120, ImpactAt: 40})

		convey.Convey("Then frames are indexed and timestamped", func() {
			convey.So(len(frames), convey.ShouldEqual, 100)
			convey.So(frames[10].Index, convey.ShouldEqual, 10)
			convey.So(frames[12].Timestamp, convey.ShouldAlmostEqual, 0.1, 1e-9)
		})

		convey.Convey("Then impact detection finds the spike", func() {
			res, err := impact.Detect(frames, 120)
			convey.So(err, convey.ShouldBeNil)
			convey.So(res.ImpactFrame, convey.ShouldEqual, 40)
		})
	})

	convey.Convey("Given the same seed twice", t, func() {
		a := Swing(SwingConfig{Jitter: 2, Seed: 9})
		b := Swing(SwingConfig{Jitter: 2, Seed: 9})

		convey.Convey("Then the sequences are identical", func() {
			convey.So(a, convey.ShouldResemble, b)
		})
	})
}

func TestSession(t *testing.T) {
	convey.Convey("Given a generated MLB session", t, func() {
		events := Session(SessionConfig{Events: 300, Level: model.LevelMLB, Seed: 3})

		convey.Convey("Then every event is valid and misses carry no measurement", func() {
			convey.So(len(events), convey.ShouldEqual, 300)
			for _, e := range events {
				convey.So(e.Result.Valid(), convey.ShouldBeTrue)
				convey.So(e.Level, convey.ShouldEqual, model.LevelMLB)
				if e.Result == model.ResultMiss || e.Result == model.ResultTake {
					convey.So(e.ExitVelocity, convey.ShouldBeNil)
				}
			}
		})
	})
}
