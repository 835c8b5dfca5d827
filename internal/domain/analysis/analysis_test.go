package analysis_test

import (
	"errors"
	"testing"
	"time"

	"github.com/catchbarrels/swinglab/internal/domain/analysis"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStatus(t *testing.T) {
	Convey("Each stage reports its coarse progress", t, func() {
		So(analysis.StatusQueued.Progress(), ShouldEqual, 0)
		So(analysis.StatusDetecting.Progress(), ShouldEqual, 20)
		So(analysis.StatusNormalizing.Progress(), ShouldEqual, 50)
		So(analysis.StatusScoring.Progress(), ShouldEqual, 80)
		So(analysis.StatusComplete.Progress(), ShouldEqual, 100)
		So(analysis.StatusComplete.Terminal(), ShouldBeTrue)
		So(analysis.StatusFailed.Terminal(), ShouldBeTrue)
		So(analysis.StatusScoring.Terminal(), ShouldBeFalse)
	})
}

func TestAnalysisLifecycle(t *testing.T) {
	Convey("Given a queued analysis", t, func() {
		t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		a := analysis.Analysis{ID: "a-1", Status: analysis.StatusQueued, CreatedAt: t0, UpdatedAt: t0}

		Convey("When it advances", func() {
			a.Advance(analysis.StatusNormalizing, t0.Add(time.Second))

			Convey("Then status, progress and update time move together", func() {
				So(a.Status, ShouldEqual, analysis.StatusNormalizing)
				So(a.Progress, ShouldEqual, 50)
				So(a.UpdatedAt, ShouldEqual, t0.Add(time.Second))
				So(a.CreatedAt, ShouldEqual, t0)
			})

			Convey("And when it fails, progress stays at the last stage", func() {
				a.Fail(errors.New("no frames"), t0.Add(2*time.Second))
				So(a.Status, ShouldEqual, analysis.StatusFailed)
				So(a.Progress, ShouldEqual, 50)
				So(a.Error, ShouldEqual, "no frames")
			})
		})
	})
}
