// Package geolocate abstracts the device location sensor as an injected,
// fallible capability. Scoring logic never talks to a real sensor; it gets
// whatever the configured Sensor returns within its timeout, or nothing.
package geolocate

import (
	"context"
	"errors"

	"golf-tracker/internal/domain"
)

// ErrUnavailable is returned when no sensor is configured or the platform
// cannot produce a fix.
var ErrUnavailable = errors.New("geolocate: sensor unavailable")

// Sensor produces the current location in high-accuracy mode, or fails.
// Implementations must honor ctx cancellation; callers apply the timeout.
type Sensor interface {
	Current(ctx context.Context) (domain.GeoLocation, error)
}

// Disabled is the Sensor used when location tracking is turned off.
type Disabled struct{}

func (Disabled) Current(ctx context.Context) (domain.GeoLocation, error) {
	return domain.GeoLocation{}, ErrUnavailable
}

// Static always reports a fixed coordinate. Useful for tests and for
// driving the tracker from a desktop where no sensor exists.
type Static struct {
	Location domain.GeoLocation
}

func (s Static) Current(ctx context.Context) (domain.GeoLocation, error) {
	select {
	case <-ctx.Done():
		return domain.GeoLocation{}, ctx.Err()
	default:
	}
	return s.Location, nil
}
