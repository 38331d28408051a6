package detect_test

import (
	"math"
	"testing"

	"github.com/okian/wakepoint/internal/domain/detect"
	"github.com/okian/wakepoint/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDirectionChanges(t *testing.T) {
	Convey("Given a track that turns from 45° to 150°", t, func() {
		track := straight(40, 45, 5)
		for i := 20; i < 40; i++ {
			track[i].Heading = 150
		}
		in := detect.Input{Track: track, Params: advanced()}

		Convey("When detecting direction changes", func() {
			out := detect.DirectionChanges(in)

			Convey("Then exactly one tack should survive the 30s merge", func() {
				So(out.Status, ShouldEqual, model.DetectorOK)
				So(len(out.Points), ShouldEqual, 1)
				p := out.Points[0]
				So(p.Type, ShouldEqual, model.PointTack)
				d := p.Detail.(model.ManeuverDetail)
				So(d.HeadingChange, ShouldBeGreaterThan, 60)
				So(d.Efficiency, ShouldBeBetweenOrEqual, 0, 1)
			})

			Convey("And running it again should yield the same set", func() {
				So(detect.DirectionChanges(in), ShouldResemble, out)
			})
		})

		Convey("When speed drops after the turn", func() {
			for i := 20; i < 40; i++ {
				track[i].Speed = 3
			}
			out := detect.DirectionChanges(detect.Input{Track: track, Params: advanced()})

			Convey("Then efficiency should be the clamped speed ratio", func() {
				d := out.Points[0].Detail.(model.ManeuverDetail)
				So(d.Efficiency, ShouldBeLessThan, 1)
				So(d.Efficiency, ShouldBeGreaterThanOrEqualTo, 0.6)
			})
		})

		Convey("When speed is unknown", func() {
			for i := range track {
				track[i].Speed = math.NaN()
			}
			out := detect.DirectionChanges(detect.Input{Track: track, Params: advanced()})

			Convey("Then the tack default efficiency should be used", func() {
				So(out.Points[0].Detail.(model.ManeuverDetail).Efficiency, ShouldEqual, 0.8)
			})
		})
	})

	Convey("Given a near reversal with a one-sample window", t, func() {
		track := straight(10, 0, 5)
		for i := 5; i < 10; i++ {
			track[i].Heading = 170
		}
		params := advanced()
		params.WindowSize = 1
		out := detect.DirectionChanges(detect.Input{Track: track, Params: params})

		Convey("Then it should be classified as a gybe", func() {
			So(len(out.Points), ShouldEqual, 1)
			So(out.Points[0].Type, ShouldEqual, model.PointGybe)
			So(out.Points[0].Detail.(model.ManeuverDetail).HeadingChange, ShouldAlmostEqual, 170, 1e-6)
		})
	})

	Convey("Given a heading change across north", t, func() {
		track := straight(20, 350, 5)
		for i := 10; i < 20; i++ {
			track[i].Heading = 10
		}
		out := detect.DirectionChanges(detect.Input{Track: track, Params: advanced()})

		Convey("Then the 20° change should not count as a maneuver", func() {
			So(out.Status, ShouldEqual, model.DetectorOK)
			So(out.Points, ShouldBeEmpty)
		})
	})

	Convey("Given unusable tracks", t, func() {
		Convey("When the track is too short", func() {
			out := detect.DirectionChanges(detect.Input{Track: straight(5, 0, 5), Params: advanced()})
			So(out.Status, ShouldEqual, model.DetectorNotEnoughData)
		})

		Convey("When the track has no heading", func() {
			track := straight(30, math.NaN(), 5)
			out := detect.DirectionChanges(detect.Input{Track: track, Params: advanced()})
			So(out.Status, ShouldEqual, model.DetectorNotEnoughData)
			So(out.Reason, ShouldNotBeBlank)
		})
	})
}

func TestLaylines(t *testing.T) {
	Convey("Given a wind from north and three headings", t, func() {
		track := straight(61, 90, 5)
		track[0].Heading = 45
		track[60].Heading = 135
		wind := []model.WindSample{{Time: sec(0), Direction: 0, Speed: 10}, {Time: sec(60), Direction: 0, Speed: 10}}

		Convey("When detecting laylines", func() {
			out := detect.Laylines(detect.Input{Track: track, Wind: wind})

			Convey("Then the upwind and downwind approaches should be flagged", func() {
				So(len(out.Points), ShouldEqual, 2)
				So(out.Points[0].Detail.(model.LaylineDetail).Side, ShouldEqual, model.LaylineUpwind)
				So(out.Points[1].Detail.(model.LaylineDetail).Side, ShouldEqual, model.LaylineDownwind)
				So(out.Points[1].Detail.(model.LaylineDetail).AngleToWind, ShouldAlmostEqual, 135, 1e-6)
			})
		})

		Convey("When there is no wind", func() {
			out := detect.Laylines(detect.Input{Track: track})
			So(out.Status, ShouldEqual, model.DetectorNotEnoughData)
		})
	})
}

// shiftingWind returns ten samples ten seconds apart: five at from, five at to.
func shiftingWind(from, to float64) []model.WindSample {
	wind := make([]model.WindSample, 10)
	for i := range wind {
		dir := from
		if i >= 5 {
			dir = to
		}
		wind[i] = model.WindSample{Time: sec(i * 10), Direction: dir, Speed: 12}
	}
	return wind
}

// turning returns a 1 Hz track holding heading until turnAt, then heading+change.
func turning(n int, heading, change float64, turnAt int) []model.TrackSample {
	track := straight(n, heading, 5)
	for i := turnAt; i < n; i++ {
		track[i].Heading = heading + change
	}
	return track
}

func TestWindShiftResponses(t *testing.T) {
	Convey("Given a 20° wind shift at 50s", t, func() {
		wind := shiftingWind(200, 220)

		Convey("When the boat bears 15° the same way 10s later", func() {
			out := detect.WindShiftResponses(detect.Input{Track: turning(200, 100, 15, 60), Wind: wind})

			Convey("Then it should be a favorable adjustment", func() {
				So(len(out.Points), ShouldEqual, 1)
				d := out.Points[0].Detail.(model.WindShiftDetail)
				So(d.WindShift, ShouldAlmostEqual, 20, 1e-6)
				So(d.HeadingChange, ShouldAlmostEqual, 15, 1e-6)
				So(d.ResponseType, ShouldEqual, model.ResponseFavorable)
				So(d.ResponseTime, ShouldAlmostEqual, 10, 1e-9)
				So(out.Points[0].Time, ShouldEqual, sec(50))
			})
		})

		Convey("When the boat turns the other way", func() {
			out := detect.WindShiftResponses(detect.Input{Track: turning(200, 100, -15, 60), Wind: wind})
			So(out.Points[0].Detail.(model.WindShiftDetail).ResponseType, ShouldEqual, model.ResponseUnfavorable)
		})

		Convey("When the boat tacks", func() {
			out := detect.WindShiftResponses(detect.Input{Track: turning(200, 100, 90, 60), Wind: wind})
			So(out.Points[0].Detail.(model.WindShiftDetail).ResponseType, ShouldEqual, model.ResponseTackOrGybe)
		})

		Convey("When the boat adjusts by 7°", func() {
			out := detect.WindShiftResponses(detect.Input{Track: turning(200, 100, 7, 60), Wind: wind})
			So(out.Points[0].Detail.(model.WindShiftDetail).ResponseType, ShouldEqual, model.ResponseMinimal)
		})

		Convey("When the boat does not react", func() {
			out := detect.WindShiftResponses(detect.Input{Track: straight(200, 100, 5), Wind: wind})
			So(out.Status, ShouldEqual, model.DetectorOK)
			So(out.Points, ShouldBeEmpty)
		})
	})

	Convey("Given too little wind data", t, func() {
		out := detect.WindShiftResponses(detect.Input{Track: straight(10, 0, 5), Wind: shiftingWind(0, 0)[:6]})
		So(out.Status, ShouldEqual, model.DetectorNotEnoughData)
	})
}
