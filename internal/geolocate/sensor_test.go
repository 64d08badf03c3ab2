package geolocate

import (
	"context"
	"testing"

	"golf-tracker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledSensor(t *testing.T) {
	_, err := Disabled{}.Current(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestStaticSensor(t *testing.T) {
	fix := domain.GeoLocation{Lat: 40.4530, Lon: -3.7492}
	loc, err := Static{Location: fix}.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fix, loc)
}

func TestStaticSensorHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Static{}.Current(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
