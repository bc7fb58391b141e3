package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ride-relay/internal/relay-service/core/domain/model"
)

func TestDirectory(t *testing.T) {
	d := NewDirectory()

	_, ok := d.Get("D1")
	assert.False(t, ok)

	d.Update("D1", model.DriverLocation{Latitude: 1, Longitude: 2, Address: "X"})
	d.Update("D1", model.DriverLocation{Latitude: 3, Longitude: 4, Address: "Y"})

	loc, ok := d.Get("D1")
	require.True(t, ok)
	assert.Equal(t, model.DriverLocation{DriverID: "D1", Latitude: 3, Longitude: 4, Address: "Y"}, loc)
	assert.Equal(t, 1, d.Len())

	assert.True(t, d.Delete("D1"))
	assert.False(t, d.Delete("D1"))
	_, ok = d.Get("D1")
	assert.False(t, ok)
}

func TestDirectoryAcceptsAnyCoordinates(t *testing.T) {
	d := NewDirectory()
	d.Update("D9", model.DriverLocation{Latitude: 500, Longitude: -900})

	loc, ok := d.Get("D9")
	require.True(t, ok)
	assert.Equal(t, 500.0, loc.Latitude)
	assert.Equal(t, -900.0, loc.Longitude)
}
