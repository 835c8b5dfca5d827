package barrel_test

import (
	"testing"

	"github.com/catchbarrels/swinglab/internal/domain/barrel"
	"github.com/catchbarrels/swinglab/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCompute(t *testing.T) {
	Convey("Given an MLB batted ball at 20 degrees", t, func() {
		la := model.Float(20)

		Convey("When exit velocity is exactly at the floor", func() {
			c := barrel.Compute(model.Float(95), la, true, model.LevelMLB)

			Convey("Then it is a barrel", func() {
				So(c.IsBarrel, ShouldBeTrue)
				So(c.IsHardHit, ShouldBeTrue)
				So(c.IsSweetSpot, ShouldBeTrue)
				So(c.Thresholds.MinExitVelo, ShouldEqual, 95)
			})
		})

		Convey("When exit velocity is just under the floor", func() {
			c := barrel.Compute(model.Float(94.9), la, true, model.LevelMLB)
			So(c.IsBarrel, ShouldBeFalse)
			So(c.IsHardHit, ShouldBeFalse)
		})

		Convey("When the ball is foul", func() {
			c := barrel.Compute(model.Float(105), la, false, model.LevelMLB)
			So(c.IsBarrel, ShouldBeFalse)
			So(c.IsHardHit, ShouldBeTrue)
		})

		Convey("When the launch angle is outside the window", func() {
			So(barrel.Compute(model.Float(100), model.Float(31), true, model.LevelMLB).IsBarrel, ShouldBeFalse)
			So(barrel.Compute(model.Float(100), model.Float(9.9), true, model.LevelMLB).IsBarrel, ShouldBeFalse)
			So(barrel.Compute(model.Float(100), model.Float(30), true, model.LevelMLB).IsBarrel, ShouldBeTrue)
		})

		Convey("When measurements are missing", func() {
			So(barrel.Compute(nil, la, true, model.LevelMLB).IsBarrel, ShouldBeFalse)
			So(barrel.Compute(model.Float(100), nil, true, model.LevelMLB).IsBarrel, ShouldBeFalse)
		})
	})

	Convey("Given the same contact at different levels", t, func() {
		ev, la := model.Float(88), model.Float(34)

		Convey("Then lower levels are more lenient", func() {
			So(barrel.Compute(ev, la, true, model.LevelMLB).IsBarrel, ShouldBeFalse)
			So(barrel.Compute(ev, la, true, model.LevelCollege).IsBarrel, ShouldBeFalse)
			So(barrel.Compute(ev, la, true, model.LevelHS).IsBarrel, ShouldBeTrue)
			So(barrel.Compute(ev, la, true, model.LevelYouth).IsBarrel, ShouldBeTrue)
		})

		Convey("And every level is at least as strict as the next one down", func() {
			for i := 0; i+1 < len(model.Levels); i++ {
				hi := barrel.ThresholdsFor(model.Levels[i])
				lo := barrel.ThresholdsFor(model.Levels[i+1])
				So(hi.MinExitVelo, ShouldBeGreaterThanOrEqualTo, lo.MinExitVelo)
				So(hi.MinLaunchAngle, ShouldBeGreaterThanOrEqualTo, lo.MinLaunchAngle)
				So(hi.MaxLaunchAngle, ShouldBeLessThanOrEqualTo, lo.MaxLaunchAngle)
			}
		})
	})

	Convey("Given an unknown level", t, func() {
		c := barrel.Compute(model.Float(86), model.Float(20), true, model.Level("pony"))

		Convey("Then high school thresholds apply", func() {
			So(c.Thresholds.Level, ShouldEqual, model.LevelHS)
			So(c.IsBarrel, ShouldBeTrue)
		})
	})
}

func TestClassify(t *testing.T) {
	Convey("Given an event with its own level", t, func() {
		e := model.BattedBallEvent{ExitVelocity: model.Float(80), LaunchAngle: model.Float(15), Result: model.ResultFair, Level: model.LevelYouth}

		Convey("Then the event level is used by default", func() {
			So(barrel.Classify(e, "").IsBarrel, ShouldBeTrue)
		})

		Convey("And an explicit level overrides it", func() {
			So(barrel.Classify(e, model.LevelCollege).IsBarrel, ShouldBeFalse)
		})
	})
}

func TestParseLevel(t *testing.T) {
	Convey("Given level spellings", t, func() {
		cases := map[string]model.Level{
			"MLB":         model.LevelMLB,
			" pro ":       model.LevelMLB,
			"NCAA":        model.LevelCollege,
			"High School": model.LevelHS,
			"hs":          model.LevelHS,
			"12U":         model.LevelYouth,
		}
		for in, want := range cases {
			got, ok := barrel.ParseLevel(in)
			So(ok, ShouldBeTrue)
			So(got, ShouldEqual, want)
		}

		_, ok := barrel.ParseLevel("beer league")
		So(ok, ShouldBeFalse)
	})
}
