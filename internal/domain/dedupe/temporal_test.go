package dedupe_test

import (
	"testing"
	"time"

	"github.com/okian/wakepoint/internal/domain/dedupe"
	"github.com/okian/wakepoint/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func at(base time.Time, sec int, boat string) model.Point {
	return model.Point{
		Type:   model.PointCrossPoint,
		Time:   base.Add(time.Duration(sec) * time.Second),
		Detail: model.CrossDetail{BoatID: boat},
	}
}

func boatKey(p model.Point) string {
	return p.Detail.(model.CrossDetail).BoatID
}

func TestTemporal(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given points spaced by 10 seconds", t, func() {
		var pts []model.Point
		for s := 0; s <= 70; s += 10 {
			pts = append(pts, at(base, s, "b"))
		}

		Convey("When merged with a 30s tolerance", func() {
			out := dedupe.Temporal(pts, dedupe.DefaultTolerance)

			Convey("Then kept points should be at least 30s apart", func() {
				So(len(out), ShouldEqual, 3)
				So(out[0].Time, ShouldEqual, base)
				So(out[1].Time, ShouldEqual, base.Add(30*time.Second))
				So(out[2].Time, ShouldEqual, base.Add(60*time.Second))
			})

			Convey("And merging again should not change the set", func() {
				So(dedupe.Temporal(out, dedupe.DefaultTolerance), ShouldResemble, out)
			})
		})

		Convey("When merged with a 60s tolerance", func() {
			out := dedupe.Temporal(pts, dedupe.AdvantageTolerance)
			So(len(out), ShouldEqual, 2)
		})
	})

	Convey("Given cross points against two boats at the same time", t, func() {
		pts := []model.Point{at(base, 0, "a"), at(base, 0, "b"), at(base, 5, "a"), at(base, 40, "a")}

		Convey("When merged per boat", func() {
			out := dedupe.TemporalBy(pts, dedupe.DefaultTolerance, boatKey)

			Convey("Then each boat should keep its own spacing", func() {
				So(len(out), ShouldEqual, 3)
				So(boatKey(out[0]), ShouldEqual, "a")
				So(boatKey(out[1]), ShouldEqual, "b")
				So(out[2].Time, ShouldEqual, base.Add(40*time.Second))
			})
		})
	})

	Convey("Given no points", t, func() {
		So(dedupe.Temporal(nil, time.Second), ShouldBeEmpty)
	})
}
