package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/catchbarrels/swinglab/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("Then it starts empty", func() {
			So(d, ShouldNotBeNil)
			So(d.Size(), ShouldEqual, 0)
		})

		Convey("When recording a new key", func() {
			prev, seen := d.SeenAndRecord(ctx, "req-1", "analysis-1")

			Convey("Then it reports unseen and stores it", func() {
				So(seen, ShouldBeFalse)
				So(prev, ShouldEqual, "")
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the key is recorded twice", func() {
			d.SeenAndRecord(ctx, "req-1", "analysis-1")
			prev, seen := d.SeenAndRecord(ctx, "req-1", "analysis-2")

			Convey("Then the first ref is returned", func() {
				So(seen, ShouldBeTrue)
				So(prev, ShouldEqual, "analysis-1")
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a key is unrecorded", func() {
			d.SeenAndRecord(ctx, "req-1", "analysis-1")
			d.Unrecord(ctx, "req-1")
			d.Unrecord(ctx, "missing")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				_, seen := d.SeenAndRecord(ctx, "req-1", "analysis-3")
				So(seen, ShouldBeFalse)
			})
		})
	})

	Convey("Given a bounded deduper", t, func() {
		var evicted []string
		d := dedupe.NewInMemoryDeduper(
			dedupe.WithMaxSize(3),
			dedupe.WithOnEvict(func(key, _ string) { evicted = append(evicted, key) }),
		)

		Convey("When more keys than the bound are recorded", func() {
			for i := 1; i <= 4; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("req-%d", i), "")
			}

			Convey("Then the oldest key is evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				So(evicted, ShouldResemble, []string{"req-1"})
				_, seen := d.SeenAndRecord(ctx, "req-4", "")
				So(seen, ShouldBeTrue)
			})
		})
	})

	Convey("Given concurrent writers racing on the same keys", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1000))
		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			fresh int
		)
		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					if _, seen := d.SeenAndRecord(ctx, fmt.Sprintf("req-%d", i), "x"); !seen {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then each key is recorded exactly once", func() {
			So(fresh, ShouldEqual, 100)
			So(d.Size(), ShouldEqual, 100)
		})
	})
}
