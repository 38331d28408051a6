package geo_test

import (
	"math"
	"testing"

	"github.com/okian/wakepoint/internal/domain/geo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDistance(t *testing.T) {
	Convey("Given two points on the same meridian", t, func() {
		Convey("When they are one arc minute apart", func() {
			d := geo.Distance(37.0, -122.0, 37.0+1.0/60, -122.0)

			Convey("Then the distance should be about one nautical mile", func() {
				So(d, ShouldAlmostEqual, 1853.2, 1.0)
			})
		})

		Convey("When they are the same point", func() {
			Convey("Then the distance should be zero", func() {
				So(geo.Distance(10, 10, 10, 10), ShouldEqual, 0)
			})
		})
	})
}

func TestBearing(t *testing.T) {
	Convey("Given a start point", t, func() {
		Convey("When the target lies due north", func() {
			Convey("Then the bearing should be 0", func() {
				So(geo.Bearing(0, 0, 1, 0), ShouldAlmostEqual, 0, 1e-9)
			})
		})

		Convey("When the target lies due east on the equator", func() {
			Convey("Then the bearing should be 90", func() {
				So(geo.Bearing(0, 0, 0, 1), ShouldAlmostEqual, 90, 1e-9)
			})
		})

		Convey("When the target lies due west", func() {
			Convey("Then the bearing should be 270", func() {
				So(geo.Bearing(0, 0, 0, -1), ShouldAlmostEqual, 270, 1e-9)
			})
		})
	})
}

func TestDiff(t *testing.T) {
	Convey("Given two headings across north", t, func() {
		Convey("When going from 350 to 10", func() {
			Convey("Then the difference should be 20, not 340", func() {
				So(geo.Diff(350, 10), ShouldAlmostEqual, 20, 1e-9)
				So(math.Abs(geo.Diff(10, 350)), ShouldAlmostEqual, 20, 1e-9)
			})
		})

		Convey("When the headings are opposite", func() {
			Convey("Then the magnitude should be 180", func() {
				So(math.Abs(geo.Diff(0, 180)), ShouldAlmostEqual, 180, 1e-9)
			})
		})
	})

	Convey("Given signed normalization", t, func() {
		So(geo.Signed(190), ShouldAlmostEqual, -170, 1e-9)
		So(geo.Signed(180), ShouldAlmostEqual, 180, 1e-9)
		So(geo.Signed(-90), ShouldAlmostEqual, -90, 1e-9)
		So(geo.Normalize(-30), ShouldAlmostEqual, 330, 1e-9)
		So(geo.Normalize(720), ShouldAlmostEqual, 0, 1e-9)
	})
}

func TestCircularStatistics(t *testing.T) {
	Convey("Given headings around north", t, func() {
		degs := []float64{350, 10, 355, 5}

		Convey("When computing the circular mean", func() {
			m := geo.CircularMean(degs)

			Convey("Then it should be north rather than 180", func() {
				So(math.Abs(geo.Diff(0, m)), ShouldBeLessThan, 1e-6)
			})
		})

		Convey("When computing dispersion", func() {
			Convey("Then the spread should be small", func() {
				So(geo.CircularVariance(degs), ShouldBeLessThan, 0.02)
				So(geo.CircularStdDev(degs), ShouldBeLessThan, 10)
			})
		})
	})

	Convey("Given identical headings", t, func() {
		So(geo.CircularStdDev([]float64{42, 42, 42}), ShouldEqual, 0)
		So(geo.ResultantLength([]float64{42, 42}), ShouldAlmostEqual, 1, 1e-12)
	})

	Convey("Given no usable headings", t, func() {
		So(math.IsNaN(geo.CircularMean(nil)), ShouldBeTrue)
		So(math.IsNaN(geo.CircularMean([]float64{math.NaN()})), ShouldBeTrue)
		So(math.IsNaN(geo.CircularStdDev(nil)), ShouldBeTrue)
	})

	Convey("Given opposing headings", t, func() {
		So(math.IsInf(geo.CircularStdDev([]float64{0, 180}), 1) || geo.CircularStdDev([]float64{0, 180}) > 300, ShouldBeTrue)
	})
}
