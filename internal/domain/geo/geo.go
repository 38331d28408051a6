// Package geo holds the geodesic and angular helpers used by the detectors.
package geo

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

const (
	// EarthRadius is the mean Earth radius in meters.
	EarthRadius = 6371000
	// MPerSecToKts converts meters per second to knots.
	MPerSecToKts = 1.94384

	degToRad = math.Pi / 180
	radToDeg = 180 / math.Pi
)

func sq(n float64) float64 {
	return n * n
}

// Distance returns the great-circle (haversine) distance in meters.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad
	a := sq(math.Sin(dLat/2)) +
		math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*sq(math.Sin(dLon/2))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadius * c
}

// Bearing returns the initial bearing from the first to the second point,
// in degrees [0,360).
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * degToRad
	lat2Rad := lat2 * degToRad
	dLon := (lon2 - lon1) * degToRad

	y := math.Sin(dLon) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) - math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(dLon)
	return Normalize(math.Atan2(y, x) * radToDeg)
}

// Normalize maps an angle to [0,360).
func Normalize(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// Diff returns the signed shortest rotation from a to b in degrees,
// in [-180,180). Diff(350, 10) == 20.
func Diff(a, b float64) float64 {
	return Normalize(b-a+180) - 180
}

// Signed maps an angle to (-180,180].
func Signed(deg float64) float64 {
	deg = Normalize(deg)
	if deg > 180 {
		deg -= 360
	}
	return deg
}

// CircularMean returns the mean direction of the angles in degrees [0,360).
// NaN entries are ignored; an empty or all-NaN input yields NaN.
func CircularMean(degs []float64) float64 {
	rads := toRadians(degs)
	if len(rads) == 0 {
		return math.NaN()
	}
	return Normalize(stat.CircularMean(rads, nil) * radToDeg)
}

// ResultantLength returns the mean resultant length R in [0,1] of the angles.
func ResultantLength(degs []float64) float64 {
	rads := toRadians(degs)
	if len(rads) == 0 {
		return math.NaN()
	}
	var sumSin, sumCos float64
	for _, r := range rads {
		sumSin += math.Sin(r)
		sumCos += math.Cos(r)
	}
	n := float64(len(rads))
	return math.Hypot(sumSin/n, sumCos/n)
}

// CircularVariance returns 1-R, in [0,1].
func CircularVariance(degs []float64) float64 {
	return 1 - ResultantLength(degs)
}

// CircularStdDev returns the circular standard deviation sqrt(-2 ln R) in degrees.
func CircularStdDev(degs []float64) float64 {
	r := ResultantLength(degs)
	if math.IsNaN(r) {
		return math.NaN()
	}
	if r <= 0 {
		return math.Inf(1)
	}
	if r >= 1 {
		return 0
	}
	return math.Sqrt(-2*math.Log(r)) * radToDeg
}

func toRadians(degs []float64) []float64 {
	out := make([]float64, 0, len(degs))
	for _, d := range degs {
		if math.IsNaN(d) || math.IsInf(d, 0) {
			continue
		}
		out = append(out, d*degToRad)
	}
	return out
}
