package model_test

import (
	"math"
	"testing"

	"github.com/catchbarrels/swinglab/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestLevelAndResult(t *testing.T) {
	convey.Convey("Level validity", t, func() {
		for _, l := range model.Levels {
			convey.So(l.Valid(), convey.ShouldBeTrue)
		}
		convey.So(model.Level("pro").Valid(), convey.ShouldBeFalse)
	})

	convey.Convey("Only fair, foul and miss are swings", t, func() {
		convey.So(model.ResultFair.IsSwing(), convey.ShouldBeTrue)
		convey.So(model.ResultFoul.IsSwing(), convey.ShouldBeTrue)
		convey.So(model.ResultMiss.IsSwing(), convey.ShouldBeTrue)
		convey.So(model.ResultTake.IsSwing(), convey.ShouldBeFalse)
	})

	convey.Convey("ParseResult maps device outcome strings", t, func() {
		cases := map[string]model.Result{
			"In Play":         model.ResultFair,
			" BIP ":           model.ResultFair,
			"Foul":            model.ResultFoul,
			"Swinging Strike": model.ResultMiss,
			"whiff":           model.ResultMiss,
			"Called Strike":   model.ResultTake,
			"ball":            model.ResultTake,
		}
		for in, want := range cases {
			got, ok := model.ParseResult(in)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(got, convey.ShouldEqual, want)
		}
		_, ok := model.ParseResult("hit by pitch")
		convey.So(ok, convey.ShouldBeFalse)
	})
}

func TestRound2(t *testing.T) {
	convey.Convey("Round2 rounds to two decimals", t, func() {
		convey.So(*model.Round2(1.005001), convey.ShouldEqual, 1.01)
		convey.So(*model.Round2(-3.14159), convey.ShouldEqual, -3.14)
		convey.So(*model.Round2(0), convey.ShouldEqual, 0.0)
	})

	convey.Convey("Round2 drops non-finite values", t, func() {
		convey.So(model.Round2(math.NaN()), convey.ShouldBeNil)
		convey.So(model.Round2(math.Inf(1)), convey.ShouldBeNil)
		convey.So(model.Round2(math.Inf(-1)), convey.ShouldBeNil)
	})
}
