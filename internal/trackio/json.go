package trackio

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/okian/wakepoint/internal/domain/model"
)

// ReadWind decodes a JSON array of {time, direction, speed}, sorted by time.
func ReadWind(r io.Reader) ([]model.WindSample, error) {
	var out []model.WindSample
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: wind: %w", ErrDecode, err)
	}
	for i, w := range out {
		if w.Time.IsZero() {
			return nil, fmt.Errorf("%w: wind sample %d has no time", ErrInvalidSample, i)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

// ReadCompetitors decodes a JSON array of competitor fixes.
func ReadCompetitors(r io.Reader) ([]model.CompetitorSample, error) {
	var out []model.CompetitorSample
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: competitors: %w", ErrDecode, err)
	}
	for i, c := range out {
		if c.Time.IsZero() {
			return nil, fmt.Errorf("%w: competitor sample %d has no time", ErrInvalidSample, i)
		}
	}
	return out, nil
}
