package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/catchbarrels/swinglab/internal/app"
	"github.com/catchbarrels/swinglab/internal/domain/flow"
	"github.com/catchbarrels/swinglab/internal/domain/model"
	"github.com/catchbarrels/swinglab/internal/domain/timing"
	"github.com/catchbarrels/swinglab/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func intPtr(v int) *int { return &v }

func startService(opts ...service.Option) *service.Service {
	svc := service.New(append([]service.Option{service.WithWorkerCount(2), service.WithQueueSize(16)}, opts...)...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithWorkerCount(3), service.WithQueueSize(64), service.WithDedupeSize(10))

		Convey("Then it reports stopped with its configuration", func() {
			stats := svc.GetStats(context.Background())
			So(stats.Started, ShouldBeFalse)
			So(stats.WorkerCount, ShouldEqual, 3)
			So(stats.QueueSize, ShouldEqual, 64)
		})

		Convey("When it is started twice and stopped", func() {
			ctx := context.Background()
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats(ctx).Started, ShouldBeTrue)
			So(svc.GetStats(ctx).Workers.Workers, ShouldEqual, 3)
			svc.Stop(ctx)

			Convey("Then it is marked stopped and refuses work", func() {
				So(svc.GetStats(ctx).Started, ShouldBeFalse)
				_, err := svc.GetAnalysis(ctx, "x")
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})

		Convey("When flow weights are invalid", func() {
			bad := service.New(service.WithFlowWeights(flow.Weights{}))

			Convey("Then Start fails", func() {
				So(errors.Is(bad.Start(context.Background()), flow.ErrInvalidWeights), ShouldBeTrue)
			})
		})
	})
}

func TestService_ComputeTiming(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := startService()
		defer svc.Stop(ctx)

		in := timing.Input{
			DistanceFt: 30, SpeedMph: 44.6, Fps: 240,
			FrameRelease: intPtr(0), FrameLaunch: intPtr(48), FrameContact: intPtr(60),
		}

		Convey("When timing a valid pitch without persisting", func() {
			res, err := svc.ComputeTiming(ctx, service.TimingRequest{Input: in})

			Convey("Then metrics are returned and nothing is stored", func() {
				So(err, ShouldBeNil)
				So(res.ID, ShouldBeEmpty)
				So(*res.Metrics.DecisionTimeMs, ShouldEqual, 200)
				So(*res.Metrics.SwingTimeMs, ShouldEqual, 50)
				So(svc.GetStats(ctx).Store.Timings, ShouldEqual, 0)
			})
		})

		Convey("When persisting two pitches", func() {
			for i := 0; i < 2; i++ {
				res, err := svc.ComputeTiming(ctx, service.TimingRequest{Input: in, AthleteID: "ath-1", Persist: true})
				So(err, ShouldBeNil)
				So(res.ID, ShouldNotBeEmpty)
			}

			Convey("Then the summary averages them", func() {
				sum, err := svc.TimingSummary(ctx, "ath-1", 10)
				So(err, ShouldBeNil)
				So(sum.Pitches, ShouldEqual, 2)
				So(*sum.AvgSwingTimeMs, ShouldEqual, 50)
			})
		})

		Convey("When settings are out of range", func() {
			bad := in
			bad.SpeedMph = 5
			bad.Fps = 10
			_, err := svc.ComputeTiming(ctx, service.TimingRequest{Input: bad, Persist: true})

			Convey("Then every problem is listed", func() {
				var verr *service.ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
				So(len(verr.Problems), ShouldEqual, 3)
			})
		})
	})
}

func TestService_ClassifyBarrel(t *testing.T) {
	Convey("Given a started service defaulting to high school", t, func() {
		ctx := context.Background()
		svc := startService()
		defer svc.Stop(ctx)

		Convey("When a 95 mph ball at 26 degrees is classified at MLB level", func() {
			c, err := svc.ClassifyBarrel(ctx, service.BarrelRequest{
				ExitVelocity: model.Float(95), LaunchAngle: model.Float(26), Level: "mlb",
			})

			Convey("Then it is a barrel", func() {
				So(err, ShouldBeNil)
				So(c.IsBarrel, ShouldBeTrue)
			})
		})

		Convey("When the same ball is foul", func() {
			c, err := svc.ClassifyBarrel(ctx, service.BarrelRequest{
				ExitVelocity: model.Float(95), LaunchAngle: model.Float(26), Level: "mlb", IsFair: new(bool),
			})

			Convey("Then it is not a barrel", func() {
				So(err, ShouldBeNil)
				So(c.IsBarrel, ShouldBeFalse)
			})
		})

		Convey("When no level is given", func() {
			c, err := svc.ClassifyBarrel(ctx, service.BarrelRequest{ExitVelocity: model.Float(80), LaunchAngle: model.Float(20)})

			Convey("Then the default level thresholds apply", func() {
				So(err, ShouldBeNil)
				So(c.Thresholds.MinExitVelo, ShouldEqual, 85)
			})
		})

		Convey("When the level is unknown", func() {
			_, err := svc.ClassifyBarrel(ctx, service.BarrelRequest{Level: "pro"})

			Convey("Then it is rejected", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestService_ImportBatch(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := startService()
		defer svc.Stop(ctx)

		events := []model.BattedBallEvent{
			{ExitVelocity: model.Float(98), LaunchAngle: model.Float(27), Result: model.ResultFair, InZone: true},
			{ExitVelocity: model.Float(85), LaunchAngle: model.Float(0.5), Result: model.ResultFair},
			{Result: model.ResultMiss},
			{Result: model.ResultTake},
		}

		Convey("When a batch is imported", func() {
			res, err := svc.ImportBatch(ctx, service.BatchRequest{AthleteID: "ath-1", BatchID: "b-1", Level: "mlb", Events: events})

			Convey("Then a snapshot is stored with the computed metrics", func() {
				So(err, ShouldBeNil)
				So(res.Duplicate, ShouldBeFalse)
				So(res.Snapshot.ID, ShouldNotBeEmpty)
				So(res.Snapshot.Source, ShouldEqual, service.SourceJSON)
				So(res.Snapshot.Metrics.TotalEvents, ShouldEqual, 4)
				So(res.Snapshot.Metrics.Barrels, ShouldEqual, 1)

				got, err := svc.GetSnapshot(ctx, res.Snapshot.ID)
				So(err, ShouldBeNil)
				So(got.BatchID, ShouldEqual, "b-1")
			})

			Convey("And re-importing the batch id returns the original snapshot", func() {
				again, err := svc.ImportBatch(ctx, service.BatchRequest{AthleteID: "ath-1", BatchID: "b-1", Events: events[:1]})
				So(err, ShouldBeNil)
				So(again.Duplicate, ShouldBeTrue)
				So(again.Snapshot.ID, ShouldEqual, res.Snapshot.ID)
			})

			Convey("And a batch without an id always creates a new snapshot", func() {
				_, err := svc.ImportBatch(ctx, service.BatchRequest{AthleteID: "ath-1", Events: events})
				So(err, ShouldBeNil)
				list, err := svc.ListSnapshots(ctx, "ath-1", 10)
				So(err, ShouldBeNil)
				So(len(list), ShouldEqual, 2)
			})
		})

		Convey("When a mixed-level batch names no batch level", func() {
			mixed := []model.BattedBallEvent{
				{ExitVelocity: model.Float(75), LaunchAngle: model.Float(20), Result: model.ResultFair, Level: model.LevelYouth},
				{ExitVelocity: model.Float(75), LaunchAngle: model.Float(20), Result: model.ResultFair, Level: "high school"},
				{ExitVelocity: model.Float(88), LaunchAngle: model.Float(20), Result: model.ResultFair},
			}
			res, err := svc.ImportBatch(ctx, service.BatchRequest{AthleteID: "ath-3", Events: mixed})

			Convey("Then each event is classified at its own level", func() {
				So(err, ShouldBeNil)
				So(res.Snapshot.Level, ShouldEqual, model.LevelHS)
				So(res.Snapshot.Metrics.Barrels, ShouldEqual, 2)
				So(mixed[1].Level, ShouldEqual, model.Level("high school"))
			})

			Convey("And a batch level still overrides every event", func() {
				res, err := svc.ImportBatch(ctx, service.BatchRequest{AthleteID: "ath-3", Level: "mlb", Events: mixed})
				So(err, ShouldBeNil)
				So(res.Snapshot.Metrics.Barrels, ShouldEqual, 0)
			})
		})

		Convey("When a CSV export carries a level column", func() {
			csv := "EV,LA,Result,Level\n75,20,in play,12u\n75,20,in play,High School\n75,20,in play,semi-pro\n"
			res, err := svc.ImportCSV(ctx, "ath-4", "", "", strings.NewReader(csv))

			Convey("Then level spellings are parsed and unknown ones skipped", func() {
				So(err, ShouldBeNil)
				So(res.Snapshot.Metrics.TotalEvents, ShouldEqual, 2)
				So(res.Snapshot.Metrics.Barrels, ShouldEqual, 1)
				So(len(res.Skipped), ShouldEqual, 1)
				So(res.Skipped[0].Line, ShouldEqual, 4)
			})
		})

		Convey("When a CSV export is imported", func() {
			csv := "Exit Velocity,Launch Angle,Result,In Zone\n98,27,in play,yes\n,,whiff,no\n"
			res, err := svc.ImportCSV(ctx, "ath-2", "", "college", strings.NewReader(csv))

			Convey("Then the snapshot is tagged as csv", func() {
				So(err, ShouldBeNil)
				So(res.Snapshot.Source, ShouldEqual, service.SourceCSV)
				So(res.Snapshot.Level, ShouldEqual, model.LevelCollege)
				So(res.Snapshot.Metrics.Swings, ShouldEqual, 2)
			})
		})

		Convey("When the request is invalid", func() {
			_, err := svc.ImportBatch(ctx, service.BatchRequest{Level: "semi-pro", Events: []model.BattedBallEvent{{Result: "bunt"}}})

			Convey("Then every problem is reported", func() {
				var verr *service.ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(len(verr.Problems), ShouldEqual, 3)
			})
		})

		Convey("When an unknown snapshot is requested", func() {
			_, err := svc.GetSnapshot(ctx, "missing")

			Convey("Then it is not found", func() {
				So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_AnalyzeLeaks(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := startService(service.WithClock(func() time.Time { return time.Unix(0, 0) }))
		defer svc.Stop(ctx)

		Convey("When scores without an overall are analyzed", func() {
			out, err := svc.AnalyzeLeaks(ctx, flow.Input{Scores: flow.SubScores{Ground: 50, Power: 80, Barrel: 80}})

			Convey("Then overall is derived and ground leaks", func() {
				So(err, ShouldBeNil)
				So(out.OverallComputed, ShouldBeTrue)
				So(out.Overall, ShouldEqual, 70)
				So(out.MainLeak, ShouldEqual, flow.PathGround)
			})
		})

		Convey("When a score is out of range", func() {
			_, err := svc.AnalyzeLeaks(ctx, flow.Input{Scores: flow.SubScores{Ground: 150}})

			Convey("Then the request is invalid", func() {
				So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
			})
		})
	})
}
