package window_test

import (
	"math"
	"testing"

	"github.com/okian/wakepoint/internal/domain/window"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRolling(t *testing.T) {
	Convey("Given a rolling window of size 3", t, func() {
		r := window.New(3)

		Convey("When it is not yet full", func() {
			r.Push(1)
			r.Push(2)

			Convey("Then the mean should be undefined", func() {
				So(r.Full(), ShouldBeFalse)
				So(math.IsNaN(r.Mean()), ShouldBeTrue)
			})
		})

		Convey("When more values than its size are pushed", func() {
			for _, v := range []float64{1, 2, 3, 4, 5} {
				r.Push(v)
			}

			Convey("Then only the last three should count", func() {
				So(r.Mean(), ShouldAlmostEqual, 4, 1e-12)
				So(r.Count(), ShouldEqual, 3)
			})
		})

		Convey("When a NaN is inside the window", func() {
			r.Push(2)
			r.Push(math.NaN())
			r.Push(4)

			Convey("Then it should be skipped", func() {
				So(r.Mean(), ShouldAlmostEqual, 3, 1e-12)
				So(r.Count(), ShouldEqual, 2)
			})

			Convey("And it should leave the window when evicted", func() {
				r.Push(6)
				r.Push(8)
				So(r.Count(), ShouldEqual, 3)
				So(r.Mean(), ShouldAlmostEqual, 6, 1e-12)
			})
		})

		Convey("When reset", func() {
			r.Push(1)
			r.Push(1)
			r.Push(1)
			r.Reset()

			Convey("Then it should start empty", func() {
				So(r.Full(), ShouldBeFalse)
				So(r.Count(), ShouldEqual, 0)
			})
		})
	})
}

func TestTrailingAndCentered(t *testing.T) {
	Convey("Given a linear series", t, func() {
		series := []float64{0, 1, 2, 3, 4, 5, 6}

		Convey("When computing trailing means of 3", func() {
			out := window.Trailing(series, 3)

			Convey("Then the edges should be NaN and the rest the window means", func() {
				So(math.IsNaN(out[0]), ShouldBeTrue)
				So(math.IsNaN(out[1]), ShouldBeTrue)
				So(out[2], ShouldAlmostEqual, 1, 1e-12)
				So(out[6], ShouldAlmostEqual, 5, 1e-12)
			})
		})

		Convey("When computing centered means of 3", func() {
			out := window.Centered(series, 3)

			Convey("Then each value should equal its index on a linear series", func() {
				So(math.IsNaN(out[0]), ShouldBeTrue)
				So(out[1], ShouldAlmostEqual, 1, 1e-12)
				So(out[5], ShouldAlmostEqual, 5, 1e-12)
				So(math.IsNaN(out[6]), ShouldBeTrue)
			})
		})
	})
}
