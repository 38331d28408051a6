// Package trackio reads race data files: GPX tracks, JSON wind and
// competitor logs and YAML course descriptions.
package trackio

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/okian/wakepoint/internal/domain/geo"
	"github.com/okian/wakepoint/internal/domain/model"
)

type gpxFile struct {
	XMLName xml.Name `xml:"gpx"`
	Trks    []gpxTrk `xml:"trk"`
}

type gpxTrk struct {
	Name    string      `xml:"name"`
	Trksegs []gpxTrkseg `xml:"trkseg"`
}

type gpxTrkseg struct {
	Trkpts []gpxTrkpt `xml:"trkpt"`
}

type gpxTrkpt struct {
	Lat        float64        `xml:"lat,attr"`
	Lon        float64        `xml:"lon,attr"`
	Time       time.Time      `xml:"time"`
	Extensions *gpxExtensions `xml:"extensions,omitempty"`
}

type gpxExtensions struct {
	TrackPointExtension *trackPointExtension `xml:"TrackPointExtension,omitempty"`
}

// trackPointExtension is the subset of the Garmin TrackPointExtension v1/v2
// we read. Speed is in meters per second.
type trackPointExtension struct {
	Speed  *float64 `xml:"speed,omitempty"`
	Course *float64 `xml:"course,omitempty"`
}

// ReadTrack decodes every trkpt of every track segment, sorted by time.
// Speed comes from the Garmin extension when present and heading from its
// course; otherwise both are derived from consecutive fixes.
func ReadTrack(r io.Reader) ([]model.TrackSample, error) {
	var g gpxFile
	if err := xml.NewDecoder(r).Decode(&g); err != nil {
		return nil, fmt.Errorf("%w: gpx: %w", ErrDecode, err)
	}

	var out []model.TrackSample
	for _, trk := range g.Trks {
		for _, seg := range trk.Trksegs {
			for _, pt := range seg.Trkpts {
				s := model.TrackSample{
					Time:    pt.Time,
					Lat:     pt.Lat,
					Lon:     pt.Lon,
					Heading: math.NaN(),
					Speed:   math.NaN(),
				}
				if ext := pt.Extensions; ext != nil && ext.TrackPointExtension != nil {
					if v := ext.TrackPointExtension.Speed; v != nil {
						s.Speed = *v * geo.MPerSecToKts
					}
					if v := ext.TrackPointExtension.Course; v != nil {
						s.Heading = geo.Normalize(*v)
					}
				}
				out = append(out, s)
			}
		}
	}
	if len(out) == 0 {
		return nil, ErrNoTrackPoints
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	Derive(out)
	return out, nil
}

// Derive fills missing heading and speed from the movement to the next fix.
// The last fix inherits from the one before it.
func Derive(track []model.TrackSample) {
	for i := range track {
		a, b := i, i+1
		if b == len(track) {
			a, b = i-1, i
		}
		if a < 0 {
			continue
		}
		from, to := track[a], track[b]
		if !track[i].HasHeading() && (from.Lat != to.Lat || from.Lon != to.Lon) {
			track[i].Heading = geo.Bearing(from.Lat, from.Lon, to.Lat, to.Lon)
		}
		if !track[i].HasSpeed() {
			if dt := to.Time.Sub(from.Time).Seconds(); dt > 0 {
				track[i].Speed = geo.Distance(from.Lat, from.Lon, to.Lat, to.Lon) / dt * geo.MPerSecToKts
			}
		}
	}
}
