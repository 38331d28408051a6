package trackio

import "errors"

// Sentinel errors for this package.
var (
	ErrNoTrackPoints = errors.New("gpx has no track points")
	ErrDecode        = errors.New("decode failed")
	ErrInvalidSample = errors.New("invalid sample")
)
