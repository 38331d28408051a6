package detect_test

import (
	"testing"

	"github.com/okian/wakepoint/internal/domain/detect"
	"github.com/okian/wakepoint/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSpeedChanges(t *testing.T) {
	Convey("Given a boat that accelerates from 3 to 9 knots", t, func() {
		track := straight(60, 90, 3)
		for i := 30; i < 60; i++ {
			track[i].Speed = 9
		}
		in := detect.Input{Track: track, Params: advanced()}

		Convey("When detecting speed changes", func() {
			out := detect.SpeedChanges(in)

			Convey("Then a single improvement should be reported", func() {
				So(out.Status, ShouldEqual, model.DetectorOK)
				So(len(out.Points), ShouldEqual, 1)
				p := out.Points[0]
				So(p.Type, ShouldEqual, model.PointSpeedImprovement)
				d := p.Detail.(model.PerformanceDetail)
				So(d.Metric, ShouldEqual, "speed")
				So(d.After, ShouldBeGreaterThan, d.Before)
				So(d.Change, ShouldBeGreaterThan, 0)
			})

			Convey("And the merge should be stable on a rerun", func() {
				So(detect.SpeedChanges(in), ShouldResemble, out)
			})
		})

		Convey("When the threshold is very high", func() {
			params := advanced()
			params.PerformanceChangeThreshold = 1
			out := detect.SpeedChanges(detect.Input{Track: track, Params: params})

			Convey("Then nothing should be reported", func() {
				So(out.Points, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a boat that nearly stops", t, func() {
		track := straight(60, 90, 8)
		for i := 30; i < 60; i++ {
			track[i].Speed = 1
		}
		out := detect.SpeedChanges(detect.Input{Track: track, Params: advanced()})

		Convey("Then a deterioration should be reported", func() {
			So(len(out.Points), ShouldEqual, 1)
			So(out.Points[0].Type, ShouldEqual, model.PointSpeedDeterioration)
		})
	})

	Convey("Given a short track", t, func() {
		out := detect.SpeedChanges(detect.Input{Track: straight(10, 90, 4), Params: advanced()})
		So(out.Status, ShouldEqual, model.DetectorNotEnoughData)
	})
}

func TestOptionalSeries(t *testing.T) {
	Convey("Given a track without VMG or efficiency", t, func() {
		in := detect.Input{Track: straight(60, 90, 5), Params: advanced()}

		Convey("Then those detectors should report missing data", func() {
			So(detect.VMGChanges(in).Status, ShouldEqual, model.DetectorNotEnoughData)
			So(detect.EfficiencyChanges(in).Status, ShouldEqual, model.DetectorNotEnoughData)
		})
	})

	Convey("Given efficiency falling from 0.9 to 0.5", t, func() {
		track := straight(60, 90, 5)
		for i := range track {
			if i < 30 {
				track[i].Efficiency = f(0.9)
			} else {
				track[i].Efficiency = f(0.5)
			}
		}
		out := detect.EfficiencyChanges(detect.Input{Track: track, Params: advanced()})

		Convey("Then an efficiency deterioration should be reported", func() {
			So(len(out.Points), ShouldEqual, 1)
			So(out.Points[0].Type, ShouldEqual, model.PointEfficiencyDeterioration)
			So(out.Points[0].Detail.(model.PerformanceDetail).Metric, ShouldEqual, "efficiency")
		})
	})

	Convey("Given VMG rising from 3 to 6", t, func() {
		track := straight(60, 90, 7)
		for i := range track {
			if i < 30 {
				track[i].VMG = f(3)
			} else {
				track[i].VMG = f(6)
			}
		}
		out := detect.VMGChanges(detect.Input{Track: track, Params: advanced()})

		Convey("Then a VMG improvement should be reported", func() {
			So(len(out.Points), ShouldEqual, 1)
			So(out.Points[0].Type, ShouldEqual, model.PointVMGImprovement)
		})
	})
}
