package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/wakepoint/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("When an analysis id is new", func() {
			seen := d.SeenAndRecord(ctx, "analysis-1")

			Convey("Then it should return false and record the id", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When an analysis id is submitted twice", func() {
			d.SeenAndRecord(ctx, "analysis-1")
			seen := d.SeenAndRecord(ctx, "analysis-1")

			Convey("Then the second submission should be a duplicate", func() {
				So(seen, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When an id is unrecorded after a rejected enqueue", func() {
			d.SeenAndRecord(ctx, "analysis-1")
			d.Unrecord(ctx, "analysis-1")

			Convey("Then it can be submitted again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "analysis-1"), ShouldBeFalse)
			})
		})

		Convey("When an unknown id is unrecorded", func() {
			d.Unrecord(ctx, "missing")

			Convey("Then nothing should change", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a bounded deduper at capacity", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for _, id := range []string{"a-1", "a-2", "a-3"} {
			So(d.SeenAndRecord(ctx, id), ShouldBeFalse)
		}

		Convey("When a fourth id arrives", func() {
			So(d.SeenAndRecord(ctx, "a-4"), ShouldBeFalse)

			Convey("Then the oldest id should be evicted and the rest kept", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "a-4"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "a-3"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "a-2"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "a-1"), ShouldBeFalse)
			})
		})

		Convey("When the middle id is unrecorded", func() {
			d.Unrecord(ctx, "a-2")
			d.SeenAndRecord(ctx, "a-4")

			Convey("Then no eviction should be needed", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "a-1"), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		const n = 1000
		for i := 0; i < n; i++ {
			So(d.SeenAndRecord(ctx, fmt.Sprintf("a-%d", i)), ShouldBeFalse)
		}

		Convey("Then nothing should be evicted", func() {
			So(d.Size(), ShouldEqual, int64(n))
			So(d.SeenAndRecord(ctx, "a-0"), ShouldBeTrue)
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given a deduper with concurrent access", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1000))
		const goroutines = 10
		const perGoroutine = 100

		Convey("When multiple goroutines record ids concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < goroutines; i++ {
				wg.Add(1)
				go func(g int) {
					defer wg.Done()
					for j := 0; j < perGoroutine; j++ {
						d.SeenAndRecord(context.Background(), fmt.Sprintf("a-%d-%d", g, j))
					}
				}(i)
			}
			wg.Wait()

			Convey("Then all ids should be recorded", func() {
				So(d.Size(), ShouldEqual, int64(goroutines*perGoroutine))
			})
		})
	})
}
