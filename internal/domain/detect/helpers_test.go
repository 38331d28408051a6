package detect_test

import (
	"math"
	"time"

	"github.com/okian/wakepoint/internal/domain/model"
)

var t0 = time.Date(2024, 6, 1, 13, 0, 0, 0, time.UTC)

const (
	baseLat = 37.0
	baseLon = -122.0

	metersPerDegLat = 111194.93
)

// offset returns the position dx meters east and dy meters north of the base.
func offset(dx, dy float64) (float64, float64) {
	lat := baseLat + dy/metersPerDegLat
	lon := baseLon + dx/(metersPerDegLat*math.Cos(baseLat*math.Pi/180))
	return lat, lon
}

func sec(n int) time.Time {
	return t0.Add(time.Duration(n) * time.Second)
}

func f(v float64) *float64 { return &v }

// straight builds n samples one second apart heading east at 5 m/s.
func straight(n int, heading, speed float64) []model.TrackSample {
	out := make([]model.TrackSample, n)
	for i := range out {
		lat, lon := offset(float64(i)*5, 0)
		out[i] = model.TrackSample{Time: sec(i), Lat: lat, Lon: lon, Heading: heading, Speed: speed}
	}
	return out
}

func ofType(points []model.Point, types ...model.PointType) []model.Point {
	var out []model.Point
	for _, p := range points {
		for _, t := range types {
			if p.Type == t {
				out = append(out, p)
			}
		}
	}
	return out
}

func advanced() model.Parameters {
	return model.Parameters{
		StrategicDecisionThreshold: 0.26,
		PerformanceChangeThreshold: 0.13,
		WindowSize:                 6,
		MinImpactScore:             4,
		MaxPoints:                  10,
	}
}
