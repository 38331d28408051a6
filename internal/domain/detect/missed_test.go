package detect_test

import (
	"testing"

	"github.com/okian/wakepoint/internal/domain/detect"
	"github.com/okian/wakepoint/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWindShiftLags(t *testing.T) {
	Convey("Given a 20° wind shift", t, func() {
		wind := shiftingWind(200, 220)

		Convey("When the boat holds its heading", func() {
			out := detect.WindShiftLags(detect.Input{Track: straight(200, 100, 5), Wind: wind})

			Convey("Then a missed shift should be reported", func() {
				So(len(out.Points), ShouldEqual, 1)
				d := out.Points[0].Detail.(model.MissedShiftDetail)
				So(d.WindShift, ShouldAlmostEqual, 20, 1e-6)
				So(d.ResponseRatio, ShouldAlmostEqual, 0, 1e-9)
			})
		})

		Convey("When the boat answers within two minutes", func() {
			out := detect.WindShiftLags(detect.Input{Track: turning(200, 100, 15, 150), Wind: wind})

			Convey("Then nothing should be reported", func() {
				So(out.Status, ShouldEqual, model.DetectorOK)
				So(out.Points, ShouldBeEmpty)
			})
		})

		Convey("When the boat answers too late", func() {
			out := detect.WindShiftLags(detect.Input{Track: turning(250, 100, 15, 180), Wind: wind})
			So(len(out.Points), ShouldEqual, 1)
		})
	})
}

func TestCompetitorAdvantages(t *testing.T) {
	Convey("Given competitors sailing alongside", t, func() {
		own := straight(90, 90, 5)
		comp := func(speed float64) []model.CompetitorSample {
			out := make([]model.CompetitorSample, len(own))
			for i, s := range own {
				out[i] = model.CompetitorSample{BoatID: "b", Time: s.Time, Lat: s.Lat, Lon: s.Lon, Speed: speed}
			}
			return out
		}

		Convey("When they are 40% faster", func() {
			out := detect.CompetitorAdvantages(detect.Input{Track: own, Competitors: comp(7)})

			Convey("Then the samples should merge with a 60s tolerance", func() {
				So(len(out.Points), ShouldEqual, 2)
				So(out.Points[0].Time, ShouldEqual, sec(0))
				So(out.Points[1].Time, ShouldEqual, sec(60))
				d := out.Points[0].Detail.(model.AdvantageDetail)
				So(d.SpeedRatio, ShouldAlmostEqual, 1.4, 1e-9)
				So(d.SpeedAdvantage, ShouldAlmostEqual, 2, 1e-9)
			})
		})

		Convey("When they are only 10% faster", func() {
			out := detect.CompetitorAdvantages(detect.Input{Track: own, Competitors: comp(5.5)})
			So(out.Points, ShouldBeEmpty)
		})

		Convey("When the own boat is stopped", func() {
			for i := range own {
				own[i].Speed = 0
			}
			out := detect.CompetitorAdvantages(detect.Input{Track: own, Competitors: comp(7)})
			So(out.Points, ShouldBeEmpty)
		})
	})
}

func TestPlaceholders(t *testing.T) {
	Convey("Given the unimplemented missed-opportunity capabilities", t, func() {
		in := detect.Input{Track: straight(10, 0, 5)}

		Convey("Then they should report not implemented without points", func() {
			for _, out := range []detect.Outcome{detect.MissedLaylines(in), detect.MissedInefficiencies(in)} {
				So(out.Status, ShouldEqual, model.DetectorNotImplemented)
				So(out.Points, ShouldBeEmpty)
				So(out.Reason, ShouldNotBeBlank)
			}
		})
	})
}

func TestAll(t *testing.T) {
	Convey("Given the detector registry", t, func() {
		all := detect.All()

		Convey("Then every detector should have a unique name and a run function", func() {
			names := map[string]bool{}
			for _, d := range all {
				So(d.Run, ShouldNotBeNil)
				So(names[d.Name], ShouldBeFalse)
				names[d.Name] = true
			}
			So(len(all), ShouldEqual, 12)
			So(names[detect.NameCompetitorAdvantage], ShouldBeTrue)
			So(detect.NameCompetitorAdvantage, ShouldEqual, string(model.PointCompetitorAdvantage))
		})
	})
}
